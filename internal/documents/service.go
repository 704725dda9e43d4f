package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/domeo/domeo-backend/internal/documents/dedup"
	"github.com/domeo/domeo-backend/internal/documents/lifecycle"
	"github.com/domeo/domeo-backend/pkg/db/models"
	"github.com/domeo/domeo-backend/pkg/enums"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/domeo/domeo-backend/pkg/logger"
	"github.com/domeo/domeo-backend/pkg/metrics"
	"github.com/domeo/domeo-backend/pkg/pagination"
	"github.com/domeo/domeo-backend/pkg/redis"
	"github.com/domeo/domeo-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const orderLockTTL = 10 * time.Second

var totalTolerance = decimal.New(1, -2)

// Service creates documents from committed carts and drives their status
// lifecycle.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderResult, error)
	CreateQuote(ctx context.Context, input CreateQuoteInput) (*models.Quote, error)
	CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*models.Invoice, error)
	CreateSupplierOrder(ctx context.Context, input CreateSupplierOrderInput) (*models.SupplierOrder, error)
	UpdateOrderDetails(ctx context.Context, input UpdateOrderDetailsInput) (*models.Order, error)
	Transition(ctx context.Context, input TransitionInput) (*TransitionResult, error)
	Get(ctx context.Context, kind enums.DocumentKind, id uuid.UUID) (*DocumentView, error)
	ListOrders(ctx context.Context, clientID string, page pagination.Params) (*pagination.Page[DocumentView], error)
	History(ctx context.Context, kind enums.DocumentKind, id uuid.UUID) ([]models.StatusHistory, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	dedup   dedup.Deduplicator
	numbers numberer
	locker  redis.Locker
	metrics *metrics.StatusMetrics
	logg    *logger.Logger
}

// NewService wires the document service. seq and locker are optional; without
// a sequencer numbers come from a per-process counter, and without a locker
// order creation is serialised per client inside this process.
func NewService(repo Repository, tx txRunner, dd dedup.Deduplicator, seq redis.Sequencer, locker redis.Locker, m *metrics.StatusMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("documents repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if dd == nil {
		return nil, fmt.Errorf("deduplicator required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	var numbers numberer = newLocalNumberer(repo)
	if seq != nil {
		numbers = redisNumberer{seq: seq}
	}
	if locker == nil {
		locker = redis.NewLocalLocker()
	}
	return &service{
		repo:    repo,
		tx:      tx,
		dedup:   dd,
		numbers: numbers,
		locker:  locker,
		metrics: m,
		logg:    logg,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderResult, error) {
	clientID := strings.TrimSpace(input.ClientID)
	if clientID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	total, err := snapshotTotal(input.Items, input.Total)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithActor(ctx, input.Actor.ID, input.Actor.Role)

	// the duplicate scan and the insert must not interleave for one client
	scope := "order:" + clientID
	ok, err := s.locker.TryLock(ctx, scope, orderLockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire order lock")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "another order for this client is being created")
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), scope); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "release order lock failed")
		}
	}()

	existing, err := s.dedup.FindExisting(ctx, dedup.Query{
		ClientID:      clientID,
		CartSessionID: strings.TrimSpace(input.CartSessionID),
		Items:         input.Items,
		Total:         total,
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.metrics.IncDedupHit()
		s.logg.Info(s.logg.WithDocument(ctx, enums.DocumentKindOrder.String(), existing.ID.String()), "duplicate order detected; returning existing order")
		return &OrderResult{Order: existing, Deduplicated: true, Notice: pkgerrors.CodeDuplicateOrder}, nil
	}

	number, err := s.numbers.Next(ctx, enums.DocumentKindOrder)
	if err != nil {
		return nil, err
	}
	order := &models.Order{
		ID:             uuid.New(),
		Number:         number,
		ClientID:       clientID,
		CartData:       input.Items,
		TotalAmount:    total,
		Status:         enums.OrderStatusNewPlanned,
		DoorDimensions: input.DoorDimensions,
		CreatedBy:      input.Actor.ID,
	}
	if id := strings.TrimSpace(input.CartSessionID); id != "" {
		order.CartSessionID = &id
	}
	if url := strings.TrimSpace(input.ProjectFileURL); url != "" {
		order.ProjectFileURL = &url
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}
		return s.recordCreation(ctx, repo, enums.DocumentKindOrder, order.ID, string(order.Status), input.Actor)
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithDocument(ctx, enums.DocumentKindOrder.String(), order.ID.String()), "order created")
	return &OrderResult{Order: order}, nil
}

func (s *service) CreateQuote(ctx context.Context, input CreateQuoteInput) (*models.Quote, error) {
	clientID := strings.TrimSpace(input.ClientID)
	if clientID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	total, err := snapshotTotal(input.Items, input.Total)
	if err != nil {
		return nil, err
	}
	number, err := s.numbers.Next(ctx, enums.DocumentKindQuote)
	if err != nil {
		return nil, err
	}
	quote := &models.Quote{
		ID:          uuid.New(),
		Number:      number,
		ClientID:    clientID,
		CartData:    input.Items,
		TotalAmount: total,
		Status:      enums.QuoteStatusDraft,
		CreatedBy:   input.Actor.ID,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateQuote(ctx, quote); err != nil {
			return err
		}
		return s.recordCreation(ctx, repo, enums.DocumentKindQuote, quote.ID, string(quote.Status), input.Actor)
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*models.Invoice, error) {
	clientID := strings.TrimSpace(input.ClientID)
	if clientID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	total, err := snapshotTotal(input.Items, input.Total)
	if err != nil {
		return nil, err
	}
	number, err := s.numbers.Next(ctx, enums.DocumentKindInvoice)
	if err != nil {
		return nil, err
	}
	invoice := &models.Invoice{
		ID:          uuid.New(),
		Number:      number,
		ClientID:    clientID,
		QuoteID:     input.QuoteID,
		CartData:    input.Items,
		TotalAmount: total,
		Status:      enums.InvoiceStatusDraft,
		CreatedBy:   input.Actor.ID,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.QuoteID != nil {
			if _, err := repo.FindQuote(ctx, *input.QuoteID); err != nil {
				return err
			}
		}
		if input.OrderID != nil {
			order, err := repo.FindOrder(ctx, *input.OrderID)
			if err != nil {
				return err
			}
			if order.ClientID != clientID {
				return pkgerrors.New(pkgerrors.CodeValidation, "order belongs to another client")
			}
			if order.InvoiceID != nil {
				return pkgerrors.New(pkgerrors.CodeConflict, "order already has an invoice").
					WithDetails(map[string]any{"invoice_id": order.InvoiceID.String()})
			}
		}
		if err := repo.CreateInvoice(ctx, invoice); err != nil {
			return err
		}
		if input.OrderID != nil {
			if err := repo.LinkOrderInvoice(ctx, *input.OrderID, invoice.ID, invoice.Status); err != nil {
				return err
			}
		}
		return s.recordCreation(ctx, repo, enums.DocumentKindInvoice, invoice.ID, string(invoice.Status), input.Actor)
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *service) CreateSupplierOrder(ctx context.Context, input CreateSupplierOrderInput) (*models.SupplierOrder, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	supplier := strings.TrimSpace(input.SupplierName)
	if supplier == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required")
	}
	number, err := s.numbers.Next(ctx, enums.DocumentKindSupplierOrder)
	if err != nil {
		return nil, err
	}
	so := &models.SupplierOrder{
		ID:           uuid.New(),
		Number:       number,
		OrderID:      input.OrderID,
		SupplierName: supplier,
		Status:       enums.SupplierOrderStatusPending,
		Notes:        input.Notes,
		CreatedBy:    input.Actor.ID,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindOrder(ctx, input.OrderID); err != nil {
			return err
		}
		if err := repo.CreateSupplierOrder(ctx, so); err != nil {
			return err
		}
		return s.recordCreation(ctx, repo, enums.DocumentKindSupplierOrder, so.ID, string(so.Status), input.Actor)
	})
	if err != nil {
		return nil, err
	}
	return so, nil
}

func (s *service) UpdateOrderDetails(ctx context.Context, input UpdateOrderDetailsInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	updates := map[string]any{}
	if input.ProjectFileURL != nil {
		if url := strings.TrimSpace(*input.ProjectFileURL); url != "" {
			updates["project_file_url"] = url
		} else {
			updates["project_file_url"] = nil
		}
	}
	if input.DoorDimensions != nil {
		for _, d := range *input.DoorDimensions {
			if d.Width <= 0 || d.Height <= 0 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "door dimensions must be positive")
			}
		}
		updates["door_dimensions"] = *input.DoorDimensions
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateOrderDetails(ctx, input.OrderID, updates); err != nil {
			return err
		}
		var err error
		order, err = repo.FindOrder(ctx, input.OrderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) History(ctx context.Context, kind enums.DocumentKind, id uuid.UUID) ([]models.StatusHistory, error) {
	if !kind.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown document kind %q", kind)
	}
	return s.repo.ListHistory(ctx, kind, id)
}

func (s *service) Get(ctx context.Context, kind enums.DocumentKind, id uuid.UUID) (*DocumentView, error) {
	switch kind {
	case enums.DocumentKindQuote:
		quote, err := s.repo.FindQuote(ctx, id)
		if err != nil {
			return nil, err
		}
		return quoteView(quote), nil
	case enums.DocumentKindInvoice:
		invoice, err := s.repo.FindInvoice(ctx, id)
		if err != nil {
			return nil, err
		}
		return invoiceView(invoice), nil
	case enums.DocumentKindOrder:
		order, err := s.repo.FindOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		return orderView(order), nil
	case enums.DocumentKindSupplierOrder:
		so, err := s.repo.FindSupplierOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		return supplierOrderView(so), nil
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown document kind %q", kind)
	}
}

func (s *service) ListOrders(ctx context.Context, clientID string, page pagination.Params) (*pagination.Page[DocumentView], error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	after, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.ListOrdersByClient(ctx, clientID, after, pagination.LimitWithBuffer(page.Limit))
	if err != nil {
		return nil, err
	}
	views := make([]DocumentView, 0, len(orders))
	for i := range orders {
		views = append(views, *orderView(&orders[i]))
	}
	result := pagination.Build(views, page.Limit, func(v DocumentView) pagination.Cursor {
		return pagination.Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
	})
	return &result, nil
}

func (s *service) recordCreation(ctx context.Context, repo Repository, kind enums.DocumentKind, id uuid.UUID, status string, actor Actor) error {
	s.metrics.IncTransition(kind.String(), enums.TransitionOriginSystem.String(), status)
	return repo.CreateHistory(ctx, &models.StatusHistory{
		DocumentKind: kind,
		DocumentID:   id,
		ToStatus:     status,
		Origin:       enums.TransitionOriginSystem,
		ActorID:      actor.ID,
		ActorRole:    actor.Role,
	})
}

// snapshotTotal checks a cart snapshot and returns its total. A supplied
// total must agree with the lines to the cent.
func snapshotTotal(items types.CartLines, supplied decimal.Decimal) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	for _, line := range items {
		if line.Quantity <= 0 {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"item_id": line.ItemID})
		}
		if line.UnitPrice.IsNegative() {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative").
				WithDetails(map[string]any{"item_id": line.ItemID})
		}
	}
	computed := items.Total()
	if supplied.IsZero() {
		return computed.Round(2), nil
	}
	if supplied.Sub(computed).Abs().GreaterThan(totalTolerance) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "total does not match cart lines").
			WithDetails(map[string]any{"total": supplied.StringFixed(2), "computed": computed.StringFixed(2)})
	}
	return supplied.Round(2), nil
}

func quoteView(q *models.Quote) *DocumentView {
	kind := enums.DocumentKindQuote
	return &DocumentView{
		Kind:               kind,
		ID:                 q.ID,
		Number:             q.Number,
		ClientID:           q.ClientID,
		Status:             string(q.Status),
		StatusLabel:        lifecycle.QuoteLabel(q.Status),
		AllowedTransitions: lifecycle.NextStatuses(kind, string(q.Status)),
		TotalAmount:        q.TotalAmount,
		CartData:           q.CartData,
		CreatedAt:          q.CreatedAt,
		UpdatedAt:          q.UpdatedAt,
		Document:           q,
	}
}

func invoiceView(inv *models.Invoice) *DocumentView {
	kind := enums.DocumentKindInvoice
	return &DocumentView{
		Kind:               kind,
		ID:                 inv.ID,
		Number:             inv.Number,
		ClientID:           inv.ClientID,
		Status:             string(inv.Status),
		StatusLabel:        lifecycle.InvoiceLabel(inv.Status),
		Blocked:            lifecycle.IsInvoiceBlocked(inv.Status),
		AllowedTransitions: lifecycle.NextStatuses(kind, string(inv.Status)),
		TotalAmount:        inv.TotalAmount,
		CartData:           inv.CartData,
		CreatedAt:          inv.CreatedAt,
		UpdatedAt:          inv.UpdatedAt,
		Document:           inv,
	}
}

func orderView(o *models.Order) *DocumentView {
	kind := enums.DocumentKindOrder
	display := lifecycle.DisplayOrderStatus(o.Status, o.InvoiceID != nil, o.InvoiceStatus)
	return &DocumentView{
		Kind:               kind,
		ID:                 o.ID,
		Number:             o.Number,
		ClientID:           o.ClientID,
		Status:             string(o.Status),
		StatusLabel:        lifecycle.OrderLabel(o.Status),
		Display:            &display,
		Blocked:            lifecycle.IsBlocked(kind, string(o.Status), orderGuards(o, nil)),
		AllowedTransitions: lifecycle.NextStatuses(kind, string(o.Status)),
		TotalAmount:        o.TotalAmount,
		CartData:           o.CartData,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
		Document:           o,
	}
}

func supplierOrderView(so *models.SupplierOrder) *DocumentView {
	kind := enums.DocumentKindSupplierOrder
	return &DocumentView{
		Kind:               kind,
		ID:                 so.ID,
		Number:             so.Number,
		Status:             string(so.Status),
		StatusLabel:        lifecycle.SupplierOrderLabel(so.Status),
		AllowedTransitions: lifecycle.NextStatuses(kind, string(so.Status)),
		CreatedAt:          so.CreatedAt,
		UpdatedAt:          so.UpdatedAt,
		Document:           so,
	}
}
