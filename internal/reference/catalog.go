// Package reference loads the species and container catalogs the engine
// consumes. Both ship embedded; deployments override with external YAML via
// SPECIES_CATALOG_PATH / CONTAINER_CATALOG_PATH.
package reference

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	domref "github.com/tidecrest/aquafarm-backend/internal/domain/reference"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

const (
	speciesCatalogEnv   = "SPECIES_CATALOG_PATH"
	containerCatalogEnv = "CONTAINER_CATALOG_PATH"
)

//go:embed species.yaml containers.yaml
var catalogFS embed.FS

type speciesCatalogFile struct {
	Catalog string                 `yaml:"catalog"`
	Version int                    `yaml:"version"`
	Species []domref.SpeciesParams `yaml:"species"`
}

type containerCatalogFile struct {
	Catalog    string                 `yaml:"catalog"`
	Version    int                    `yaml:"version"`
	Containers []domref.ContainerSpec `yaml:"containers"`
}

// Catalog is an immutable in-memory view of both reference data sets. It
// satisfies the SpeciesDirectory and ContainerDirectory lookups.
type Catalog struct {
	species    map[string]domref.SpeciesParams
	containers map[uuid.UUID]domref.ContainerSpec
}

// Load reads both catalogs, preferring env-pointed files over the embedded
// defaults.
func Load(log *logger.Logger) (*Catalog, error) {
	speciesRaw, source, err := readCatalogFile(speciesCatalogEnv, "species.yaml")
	if err != nil {
		return nil, fmt.Errorf("read species catalog: %w", err)
	}
	var sf speciesCatalogFile
	if err := yaml.Unmarshal(speciesRaw, &sf); err != nil {
		return nil, fmt.Errorf("parse species catalog: %w", err)
	}
	species, err := indexSpecies(&sf)
	if err != nil {
		return nil, err
	}
	log.Info("species catalog loaded", "source", source, "species", len(species))

	containerRaw, source, err := readCatalogFile(containerCatalogEnv, "containers.yaml")
	if err != nil {
		return nil, fmt.Errorf("read container catalog: %w", err)
	}
	var cf containerCatalogFile
	if err := yaml.Unmarshal(containerRaw, &cf); err != nil {
		return nil, fmt.Errorf("parse container catalog: %w", err)
	}
	containers, err := indexContainers(&cf)
	if err != nil {
		return nil, err
	}
	log.Info("container catalog loaded", "source", source, "containers", len(containers))

	return &Catalog{species: species, containers: containers}, nil
}

func (c *Catalog) Species(speciesID string) (*domref.SpeciesParams, bool) {
	sp, ok := c.species[speciesID]
	if !ok {
		return nil, false
	}
	return &sp, true
}

func (c *Catalog) Container(containerID uuid.UUID) (*domref.ContainerSpec, bool) {
	spec, ok := c.containers[containerID]
	if !ok || !spec.IsActive {
		return nil, false
	}
	return &spec, true
}

func readCatalogFile(envName, embeddedName string) ([]byte, string, error) {
	if path := strings.TrimSpace(os.Getenv(envName)); path != "" {
		data, err := os.ReadFile(path)
		return data, path, err
	}
	data, err := catalogFS.ReadFile(embeddedName)
	return data, "embedded", err
}

func indexSpecies(file *speciesCatalogFile) (map[string]domref.SpeciesParams, error) {
	if strings.TrimSpace(file.Catalog) != "species" {
		return nil, fmt.Errorf("unexpected catalog kind: %s", file.Catalog)
	}
	if len(file.Species) == 0 {
		return nil, errors.New("species catalog is empty")
	}
	out := make(map[string]domref.SpeciesParams, len(file.Species))
	for _, sp := range file.Species {
		id := strings.TrimSpace(sp.SpeciesID)
		if id == "" {
			return nil, errors.New("species entry without species_id")
		}
		if _, exists := out[id]; exists {
			return nil, fmt.Errorf("duplicate species_id: %s", id)
		}
		sp.SpeciesID = id
		out[id] = sp
	}
	return out, nil
}

func indexContainers(file *containerCatalogFile) (map[uuid.UUID]domref.ContainerSpec, error) {
	if strings.TrimSpace(file.Catalog) != "containers" {
		return nil, fmt.Errorf("unexpected catalog kind: %s", file.Catalog)
	}
	if len(file.Containers) == 0 {
		return nil, errors.New("container catalog is empty")
	}
	out := make(map[uuid.UUID]domref.ContainerSpec, len(file.Containers))
	for _, spec := range file.Containers {
		if spec.ContainerID == uuid.Nil {
			return nil, errors.New("container entry without container_id")
		}
		if _, exists := out[spec.ContainerID]; exists {
			return nil, fmt.Errorf("duplicate container_id: %s", spec.ContainerID)
		}
		out[spec.ContainerID] = spec
	}
	return out, nil
}
