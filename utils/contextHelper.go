package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/venue_backend/appctx"
)

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, appctx.ContextKeyCorrelationId)
}

func SetVenueIdInContext(ctx context.Context, venueId string) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyVenueId, venueId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyCorrelationId, correlationId)
}
