package cron

import (
	"context"
	"fmt"

	"github.com/domeo/domeo-backend/internal/revisions"
	"github.com/domeo/domeo-backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Verifier is a cart whose revision log can be checked.
type Verifier interface {
	CartID() uuid.UUID
	Verify() error
}

type revisionAuditJob struct {
	logg  *logger.Logger
	carts func() []Verifier
}

// NewRevisionAuditJob returns a job that checks every open cart's revision
// log and reports the carts whose log no longer holds together.
func NewRevisionAuditJob(logg *logger.Logger, store *revisions.Store) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	return &revisionAuditJob{
		logg: logg,
		carts: func() []Verifier {
			engines := store.Engines()
			out := make([]Verifier, 0, len(engines))
			for _, engine := range engines {
				out = append(out, engine)
			}
			return out
		},
	}, nil
}

func (j *revisionAuditJob) Name() string { return "revision-audit" }

func (j *revisionAuditJob) Run(ctx context.Context) error {
	var errs error
	checked := 0
	for _, cart := range j.carts() {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		checked++
		if err := cart.Verify(); err != nil {
			j.logg.Error(j.logg.WithCartID(ctx, cart.CartID().String()), "revision log inconsistent", err)
			errs = multierr.Append(errs, fmt.Errorf("cart %s: %w", cart.CartID(), err))
		}
	}
	j.logg.Debug(j.logg.WithField(ctx, "carts_checked", checked), "revision audit finished")
	return errs
}
