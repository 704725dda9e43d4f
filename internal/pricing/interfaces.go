package pricing

import (
	"context"

	"github.com/domeo/domeo-backend/pkg/catalog"
	"github.com/domeo/domeo-backend/pkg/db/models"
)

// PriceSource is the remote catalog that prices door selections.
type PriceSource interface {
	PriceDoor(ctx context.Context, selection catalog.Selection) (*catalog.Quote, error)
	AvailableParams(ctx context.Context, req catalog.AvailableParamsRequest) (*catalog.AvailableParams, error)
}

// HandleSource is the live handle catalog.
type HandleSource interface {
	FindHandle(ctx context.Context, id string) (*models.Handle, error)
	FindHandles(ctx context.Context, ids []string) (map[string]models.Handle, error)
}
