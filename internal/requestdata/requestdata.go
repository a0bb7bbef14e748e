// Package requestdata carries the authenticated actor through the request
// context so services can authorize without touching the transport layer.
package requestdata

import (
	"context"

	"github.com/ironpoint/steeltrack-backend/internal/domain/identity"
)

type requestDataKeyType struct{}

var requestDataKey = requestDataKeyType{}

type RequestData struct {
	TokenString string
	Actor       identity.Actor
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

// GetActor returns the actor on the context, or a zero actor when the
// request was never authenticated.
func GetActor(ctx context.Context) identity.Actor {
	if rd := GetRequestData(ctx); rd != nil {
		return rd.Actor
	}
	return identity.Actor{}
}
