package pricing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/domeo/domeo-backend/pkg/catalog"
	"github.com/domeo/domeo-backend/pkg/db/models"
	"github.com/domeo/domeo-backend/pkg/enums"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/domeo/domeo-backend/pkg/logger"
	"github.com/domeo/domeo-backend/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCacheTTL = 5 * time.Minute
	DefaultTimeout  = 10 * time.Second
)

// Service resolves authoritative unit prices for cart items.
type Service interface {
	Recalculate(ctx context.Context, item Item, opts Options) (*Result, error)
	Handles(ctx context.Context, ids []string) (map[string]models.Handle, error)
	DefaultOptions() Options
}

// Config carries the tunables loaded from pkg/config.
type Config struct {
	CacheTTL            time.Duration
	Timeout             time.Duration
	ValidateCombination bool
	UseCache            bool
}

type service struct {
	prices   PriceSource
	handles  HandleSource
	cache    Cache
	metrics  *metrics.PricingMetrics
	logg     *logger.Logger
	cfg      Config
	inflight singleflight.Group
}

// NewService wires the pricing service. A nil cache disables caching.
func NewService(prices PriceSource, handles HandleSource, cache Cache, cfg Config, m *metrics.PricingMetrics, logg *logger.Logger) (Service, error) {
	if prices == nil {
		return nil, fmt.Errorf("price source required")
	}
	if handles == nil {
		return nil, fmt.Errorf("handle source required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &service{
		prices:  prices,
		handles: handles,
		cache:   cache,
		metrics: m,
		logg:    logg,
		cfg:     cfg,
	}, nil
}

func (s *service) DefaultOptions() Options {
	return Options{
		ValidateCombination: s.cfg.ValidateCombination,
		UseCache:            s.cfg.UseCache,
		Timeout:             s.cfg.Timeout,
	}
}

func (s *service) Recalculate(ctx context.Context, item Item, opts Options) (*Result, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = s.cfg.Timeout
	}

	var (
		result *Result
		err    error
	)
	switch item.Kind {
	case enums.ItemKindHandle:
		result, err = s.priceHandle(ctx, item, opts.Timeout)
	case enums.ItemKindDoor:
		result, err = s.priceDoor(ctx, item, opts)
	default:
		err = pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported item kind %q", item.Kind)
	}
	if err != nil {
		s.metrics.IncFailure(item.Kind.String(), string(pkgerrors.CodeOf(err)))
		return nil, err
	}
	return result, nil
}

// Handles returns the current catalog rows for the given IDs.
func (s *service) Handles(ctx context.Context, ids []string) (map[string]models.Handle, error) {
	return s.handles.FindHandles(ctx, ids)
}

func (s *service) priceHandle(ctx context.Context, item Item, timeout time.Duration) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	handle, err := s.handles.FindHandle(ctx, item.HandleID)
	if err != nil {
		return nil, s.boundaryError(ctx, err)
	}
	return &Result{Price: handle.Price, SKU: handle.SKU, HandleName: handle.Name}, nil
}

func (s *service) priceDoor(ctx context.Context, item Item, opts Options) (*Result, error) {
	kind := item.Kind.String()
	// unvalidated prices must never answer a validated request
	key := item.Fingerprint()
	if opts.ValidateCombination {
		key += ":validated"
	}

	if opts.UseCache && s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "price cache read failed")
		}
		if ok {
			s.metrics.IncCacheHit(kind)
			cached.Cached = true
			return cached, nil
		}
	}
	s.metrics.IncCacheMiss(kind)

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	shared := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(key, func() (any, error) {
		lookupCtx, lookupCancel := context.WithTimeout(shared, opts.Timeout)
		defer lookupCancel()
		return s.lookupDoor(lookupCtx, item, opts)
	})

	select {
	case <-ctx.Done():
		return nil, s.boundaryError(ctx, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, s.boundaryError(ctx, res.Err)
		}
		result := *res.Val.(*Result)
		if opts.UseCache && s.cache != nil {
			if err := s.cache.Set(ctx, key, result, s.cfg.CacheTTL); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "price cache write failed")
			}
		}
		return &result, nil
	}
}

func (s *service) lookupDoor(ctx context.Context, item Item, opts Options) (*Result, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveLookup(item.Kind.String(), time.Since(started)) }()

	if opts.ValidateCombination {
		params, err := s.prices.AvailableParams(ctx, catalog.AvailableParamsRequest{
			Style: item.Style,
			Model: item.Model,
			Color: item.Color,
		})
		if err != nil {
			return nil, err
		}
		if err := checkCombination(item, params); err != nil {
			return nil, err
		}
	}

	quote, err := s.prices.PriceDoor(ctx, item.selection())
	if err != nil {
		return nil, err
	}
	return &Result{Price: quote.Total, SKU: quote.SKU, Breakdown: quote.Breakdown}, nil
}

func checkCombination(item Item, params *catalog.AvailableParams) error {
	invalid := func(field string, value any) error {
		return pkgerrors.Newf(pkgerrors.CodeInvalidCombination, "%s %v is not available for this model", field, value).
			WithDetails(map[string]any{"field": field, "value": value})
	}
	if finish := strings.TrimSpace(item.Finish); finish != "" && !slices.Contains(params.Finishes, finish) {
		return invalid("finish", finish)
	}
	if color := strings.TrimSpace(item.Color); color != "" && !slices.Contains(params.Colors, color) {
		return invalid("color", color)
	}
	if item.Width > 0 && !slices.Contains(params.Widths, item.Width) {
		return invalid("width", item.Width)
	}
	if item.Height > 0 && !slices.Contains(params.Heights, item.Height) {
		return invalid("height", item.Height)
	}
	return nil
}

// boundaryError makes sure nothing but a coded error leaves the service.
func (s *service) boundaryError(ctx context.Context, err error) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeRecalculationTimeout, err, "price recalculation timed out")
	}
	if errors.Is(err, context.Canceled) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "price recalculation cancelled")
	}
	return pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "price recalculation failed")
}
