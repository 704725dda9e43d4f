package dedup

import (
	"context"
	"fmt"

	"github.com/domeo/domeo-backend/pkg/db/models"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/domeo/domeo-backend/pkg/logger"
	"github.com/domeo/domeo-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// CandidateSource reads the orders a new order could duplicate. Both
// methods return newest first.
type CandidateSource interface {
	OrdersBySession(ctx context.Context, clientID, cartSessionID string, total, epsilon decimal.Decimal) ([]models.Order, error)
	OrdersByTotal(ctx context.Context, clientID string, total, epsilon decimal.Decimal, limit int) ([]models.Order, error)
}

// Query describes the order about to be created.
type Query struct {
	ClientID      string
	CartSessionID string
	Items         types.CartLines
	Total         decimal.Decimal
}

// Config bounds the candidate search.
type Config struct {
	Epsilon        decimal.Decimal
	CandidateLimit int
}

// Deduplicator decides whether an equivalent order already exists.
type Deduplicator interface {
	FindExisting(ctx context.Context, q Query) (*models.Order, error)
}

type deduplicator struct {
	source CandidateSource
	cfg    Config
	logg   *logger.Logger
}

func New(source CandidateSource, cfg Config, logg *logger.Logger) (Deduplicator, error) {
	if source == nil {
		return nil, fmt.Errorf("candidate source required")
	}
	if cfg.Epsilon.IsNegative() {
		return nil, fmt.Errorf("epsilon must not be negative")
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 20
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &deduplicator{source: source, cfg: cfg, logg: logg}, nil
}

// FindExisting returns the newest order for the client whose total is within
// epsilon and whose content matches, or nil.
func (d *deduplicator) FindExisting(ctx context.Context, q Query) (*models.Order, error) {
	if q.ClientID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	ctx = d.logg.WithFields(ctx, map[string]any{
		"client_id": q.ClientID,
		"total":     q.Total.StringFixed(2),
	})

	if q.CartSessionID != "" {
		orders, err := d.source.OrdersBySession(ctx, q.ClientID, q.CartSessionID, q.Total, d.cfg.Epsilon)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup orders by cart session")
		}
		if match := d.pick(ctx, orders, q.Items, "cart_session"); match != nil {
			return match, nil
		}
	}

	orders, err := d.source.OrdersByTotal(ctx, q.ClientID, q.Total, d.cfg.Epsilon, d.cfg.CandidateLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup candidate orders")
	}
	d.logg.Debug(d.logg.WithField(ctx, "candidates", len(orders)), "dedup candidates loaded")
	return d.pick(ctx, orders, q.Items, "content"), nil
}

func (d *deduplicator) pick(ctx context.Context, orders []models.Order, items types.CartLines, stage string) *models.Order {
	var matches []*models.Order
	for i := range orders {
		if SameContent(items, orders[i].CartData) {
			matches = append(matches, &orders[i])
		}
	}
	if len(matches) == 0 {
		return nil
	}
	newest := matches[0]
	for _, m := range matches[1:] {
		if m.CreatedAt.After(newest.CreatedAt) {
			newest = m
		}
	}
	if len(matches) > 1 {
		ids := make([]string, 0, len(matches))
		for _, m := range matches {
			ids = append(ids, m.ID.String())
		}
		d.logg.Warn(d.logg.WithFields(ctx, map[string]any{
			"stage":     stage,
			"order_ids": ids,
			"chosen_id": newest.ID.String(),
		}), "multiple duplicate orders found; using the newest")
	}
	return newest
}
