package requestdata

import (
	"context"
)

type contextKey struct{}

var requestDataKey = contextKey{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey)
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}

// RequestData is the authenticated identity for one request. NewToken is set
// only when the middleware silently rotated an expired credential; handlers
// attach it to the response so the client can persist it.
type RequestData struct {
	Phone        string
	TokenString  string
	NewToken     string
	WasRefreshed bool
}
