// Package aggregates provides the shared write machinery for production
// state: transaction execution with retry, error mapping into the domain
// taxonomy, optimistic-concurrency guards, and operation metric hooks.
package aggregates
