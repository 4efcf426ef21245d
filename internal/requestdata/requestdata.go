package requestdata

import (
	"context"

	"github.com/brynevale/admincore-backend/internal/domain/scope"
)

type requestDataKeyType struct{}

var requestDataKey = requestDataKeyType{}

// RequestData is the authenticated principal attached to a request
// context by the auth middleware. Accessor carries the isolation scope
// every service checks reads and writes against.
type RequestData struct {
	TokenString string
	Accessor    scope.Accessor
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey).(*RequestData); ok {
		return rd
	}
	return nil
}
