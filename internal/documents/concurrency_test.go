package documents

import (
	"context"
	"sync"
	"testing"

	"github.com/domeo/domeo-backend/internal/documents/dedup"
	"github.com/domeo/domeo-backend/pkg/db"
	"github.com/domeo/domeo-backend/pkg/db/models"
	"github.com/domeo/domeo-backend/pkg/enums"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/domeo/domeo-backend/pkg/logger"
	"github.com/domeo/domeo-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newServiceOver(t *testing.T, conn *gorm.DB, repo Repository, dd dedup.Deduplicator) Service {
	t.Helper()
	if dd == nil {
		var err error
		dd, err = dedup.New(repo, dedup.Config{Epsilon: decimal.RequireFromString("0.01"), CandidateLimit: 20}, logger.Nop())
		require.NoError(t, err)
	}
	svc, err := NewService(repo, db.NewFromGorm(conn), dd, nil, nil, nil, logger.Nop())
	require.NoError(t, err)
	return svc
}

// gatedDedup parks the first lookup until released.
type gatedDedup struct {
	inner   dedup.Deduplicator
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedDedup) FindExisting(ctx context.Context, q dedup.Query) (*models.Order, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.inner.FindExisting(ctx, q)
}

func TestCreateOrderConcurrentCallsLeaveOneOrder(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t, "documents_concurrent_create")
	repo := NewRepository(conn)
	inner, err := dedup.New(repo, dedup.Config{Epsilon: decimal.RequireFromString("0.01"), CandidateLimit: 20}, logger.Nop())
	require.NoError(t, err)
	gate := &gatedDedup{inner: inner, entered: make(chan struct{}), release: make(chan struct{})}
	svc := newServiceOver(t, conn, repo, gate)

	input := CreateOrderInput{
		ClientID: "c-1",
		Items:    types.CartLines{doorLine("Белый", 1, "42000")},
		Actor:    actor,
	}

	type outcome struct {
		res *OrderResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := svc.CreateOrder(ctx, input)
		done <- outcome{res, err}
	}()

	<-gate.entered
	_, err = svc.CreateOrder(ctx, input)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	close(gate.release)
	first := <-done
	require.NoError(t, first.err)
	assert.False(t, first.res.Deduplicated)

	again, err := svc.CreateOrder(ctx, input)
	require.NoError(t, err)
	assert.True(t, again.Deduplicated)
	assert.Equal(t, first.res.Order.ID, again.Order.ID)

	count, err := repo.CountDocuments(ctx, enums.DocumentKindOrder)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

// racingRepo commits a competing status change right after the invoice is
// read inside a transition.
type racingRepo struct {
	Repository
	tx      *gorm.DB
	raced   *bool
	racedTo enums.InvoiceStatus
}

func (r *racingRepo) WithTx(tx *gorm.DB) Repository {
	return &racingRepo{Repository: r.Repository.WithTx(tx), tx: tx, raced: r.raced, racedTo: r.racedTo}
}

func (r *racingRepo) FindInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := r.Repository.FindInvoice(ctx, id)
	if err == nil && r.tx != nil && !*r.raced {
		*r.raced = true
		if upd := r.tx.Model(&models.Invoice{}).Where("id = ?", id).Update("status", string(r.racedTo)); upd.Error != nil {
			return nil, upd.Error
		}
	}
	return invoice, err
}

func TestTransitionRejectsStatusChangedAfterLoad(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t, "documents_stale_transition")
	raced := false
	repo := &racingRepo{Repository: NewRepository(conn), raced: &raced, racedTo: enums.InvoiceStatusCancelled}
	svc := newServiceOver(t, conn, repo, nil)

	invoice, err := svc.CreateInvoice(ctx, CreateInvoiceInput{
		ClientID: "c-1",
		Items:    types.CartLines{doorLine("Белый", 1, "42000")},
		Actor:    actor,
	})
	require.NoError(t, err)

	_, err = svc.Transition(ctx, TransitionInput{Kind: enums.DocumentKindInvoice, ID: invoice.ID, Status: "SENT", Actor: actor})
	require.True(t, raced)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	history, err := svc.History(ctx, enums.DocumentKindInvoice, invoice.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "only the creation row")
}

// writeCountingRepo counts status writes issued through it.
type writeCountingRepo struct {
	Repository
	writes *int
}

func (r writeCountingRepo) WithTx(tx *gorm.DB) Repository {
	return writeCountingRepo{Repository: r.Repository.WithTx(tx), writes: r.writes}
}

func (r writeCountingRepo) UpdateStatus(ctx context.Context, kind enums.DocumentKind, id uuid.UUID, from, to string) error {
	*r.writes++
	return r.Repository.UpdateStatus(ctx, kind, id, from, to)
}

func TestSupplierTransitionChecksInvoiceBeforeWriting(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t, "documents_precheck")
	writes := 0
	svc := newServiceOver(t, conn, writeCountingRepo{Repository: NewRepository(conn), writes: &writes}, nil)

	items := types.CartLines{doorLine("Белый", 1, "42000")}
	created, err := svc.CreateOrder(ctx, CreateOrderInput{ClientID: "c-1", Items: items, Actor: actor})
	require.NoError(t, err)
	_, err = svc.CreateInvoice(ctx, CreateInvoiceInput{ClientID: "c-1", OrderID: &created.Order.ID, Items: items, Actor: actor})
	require.NoError(t, err)
	so, err := svc.CreateSupplierOrder(ctx, CreateSupplierOrderInput{OrderID: created.Order.ID, SupplierName: "Фабрика", Actor: actor})
	require.NoError(t, err)

	// DRAFT invoice cannot jump to ORDERED
	_, err = svc.Transition(ctx, TransitionInput{Kind: enums.DocumentKindSupplierOrder, ID: so.ID, Status: "ORDERED", Actor: actor})
	assert.Equal(t, pkgerrors.CodeInvalidTransition, pkgerrors.CodeOf(err))
	assert.Zero(t, writes)
}
