package ctxutil

import "context"

type requestDataKey struct{}

// RequestData carries the tenant and acting user resolved by the HTTP layer.
type RequestData struct {
	TenantID string
	ActorID  string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey{})
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}
