package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/domeo/domeo-backend/internal/pricing"
	"github.com/domeo/domeo-backend/internal/revisions"
	"github.com/domeo/domeo-backend/pkg/db/models"
	"github.com/domeo/domeo-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvictor struct {
	cutoff time.Time
	ids    []uuid.UUID
}

func (f *fakeEvictor) EvictIdle(cutoff time.Time) []uuid.UUID {
	f.cutoff = cutoff
	return f.ids
}

func TestCartTTLJobUsesConfiguredTTL(t *testing.T) {
	evictor := &fakeEvictor{ids: []uuid.UUID{uuid.New(), uuid.New()}}
	job, err := NewCartTTLJob(CartTTLJobParams{
		Logger: logger.Nop(),
		Carts:  evictor,
		TTL:    2 * time.Hour,
	})
	require.NoError(t, err)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job.(*cartTTLJob).now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.Add(-2*time.Hour), evictor.cutoff)
	assert.Equal(t, "cart-ttl", job.Name())
}

func TestCartTTLJobValidatesParams(t *testing.T) {
	_, err := NewCartTTLJob(CartTTLJobParams{Logger: logger.Nop(), Carts: &fakeEvictor{}})
	assert.Error(t, err)
	_, err = NewCartTTLJob(CartTTLJobParams{Logger: logger.Nop(), TTL: time.Hour})
	assert.Error(t, err)
}

type fakeCart struct {
	id  uuid.UUID
	err error
}

func (f fakeCart) CartID() uuid.UUID { return f.id }
func (f fakeCart) Verify() error     { return f.err }

func TestRevisionAuditJobCollectsEveryBrokenCart(t *testing.T) {
	broken := errors.New("entry price mismatch")
	carts := []Verifier{
		fakeCart{id: uuid.New(), err: broken},
		fakeCart{id: uuid.New()},
		fakeCart{id: uuid.New(), err: broken},
	}
	job := &revisionAuditJob{logg: logger.Nop(), carts: func() []Verifier { return carts }}

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, broken)
	assert.Contains(t, err.Error(), carts[0].CartID().String())
	assert.Contains(t, err.Error(), carts[2].CartID().String())
	assert.NotContains(t, err.Error(), carts[1].CartID().String())
}

type noPricer struct{}

func (noPricer) Recalculate(context.Context, pricing.Item, pricing.Options) (*pricing.Result, error) {
	return nil, errors.New("not used")
}

func (noPricer) Handles(context.Context, []string) (map[string]models.Handle, error) {
	return map[string]models.Handle{}, nil
}

func TestRevisionAuditJobOverStore(t *testing.T) {
	store, err := revisions.NewStore(noPricer{}, pricing.Options{}, logger.Nop())
	require.NoError(t, err)
	_, err = store.Create(context.Background(), "client-1", nil)
	require.NoError(t, err)

	job, err := NewRevisionAuditJob(logger.Nop(), store)
	require.NoError(t, err)
	assert.Equal(t, "revision-audit", job.Name())
	assert.NoError(t, job.Run(context.Background()))

	_, err = NewRevisionAuditJob(logger.Nop(), nil)
	assert.Error(t, err)
}
