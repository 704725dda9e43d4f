package revisions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/domeo/domeo-backend/internal/pricing"
	"github.com/domeo/domeo-backend/pkg/db/models"
	"github.com/domeo/domeo-backend/pkg/enums"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/domeo/domeo-backend/pkg/logger"
	"github.com/domeo/domeo-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pricer is the slice of the pricing service the engine needs.
type Pricer interface {
	Recalculate(ctx context.Context, item pricing.Item, opts pricing.Options) (*pricing.Result, error)
	Handles(ctx context.Context, ids []string) (map[string]models.Handle, error)
}

// Preview is what the operator sees after proposing an edit.
type Preview struct {
	ItemID        uuid.UUID       `json:"item_id"`
	Item          LineItem        `json:"item"`
	PreviousPrice decimal.Decimal `json:"previous_price"`
	PreviewPrice  decimal.Decimal `json:"preview_price"`
	PriceDelta    decimal.Decimal `json:"price_delta"`
	LineTotal     decimal.Decimal `json:"line_total"`
	PriceResolved bool            `json:"price_resolved"`
	Cached        bool            `json:"cached"`
	Breakdown     []BreakdownLine `json:"breakdown,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// ItemView is a committed item as displayed.
type ItemView struct {
	LineItem
	LineTotal decimal.Decimal `json:"line_total"`
	Delta     decimal.Decimal `json:"delta"`
}

// CartView is the read model of an engine.
type CartView struct {
	CartID        uuid.UUID       `json:"cart_id"`
	ClientID      string          `json:"client_id"`
	Items         []ItemView      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	BaselineTotal decimal.Decimal `json:"baseline_total"`
	TotalDelta    decimal.Decimal `json:"total_delta"`
	Revisions     int             `json:"revisions"`
	Editing       *Preview        `json:"editing,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Engine combines a ledger with pricing. The mutex is held for ledger
// mutations only and released across pricing calls.
type Engine struct {
	mu       sync.Mutex
	cartID   uuid.UUID
	clientID string
	ledger   *Ledger
	pricer   Pricer
	opts     pricing.Options
	logg     *logger.Logger
	created  time.Time
}

// NewEngine builds an engine for a cart whose baseline is items.
func NewEngine(cartID uuid.UUID, clientID string, items []LineItem, pricer Pricer, opts pricing.Options, logg *logger.Logger) (*Engine, error) {
	if pricer == nil {
		return nil, fmt.Errorf("pricer required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	ledger, err := NewLedger(items)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cartID:   cartID,
		clientID: clientID,
		ledger:   ledger,
		pricer:   pricer,
		opts:     opts,
		logg:     logg,
		created:  time.Now().UTC(),
	}, nil
}

func (e *Engine) CartID() uuid.UUID {
	return e.cartID
}

func (e *Engine) ClientID() string {
	return e.clientID
}

// AddItem prices a new item when no price is supplied and appends it.
func (e *Engine) AddItem(ctx context.Context, item LineItem) (LineItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if !item.Kind.IsValid() {
		return LineItem{}, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid item kind %q", item.Kind)
	}
	if item.Kind == enums.ItemKindHandle && item.Attributes.HandleID == "" {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "handle id is required")
	}
	if item.UnitPrice.IsZero() {
		result, err := e.pricer.Recalculate(ctx, item.PricingItem(), e.opts)
		if err != nil {
			return LineItem{}, err
		}
		item.UnitPrice = result.Price
		item.SKU = result.SKU
		if item.Kind == enums.ItemKindHandle {
			item.HandleName = result.HandleName
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ledger.Add(item); err != nil {
		return LineItem{}, err
	}
	return item, nil
}

// RemoveItem drops an item and its history.
func (e *Engine) RemoveItem(itemID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Remove(itemID)
}

// ProposeEdit applies changes to a draft of the item and prices it when a
// price-affecting attribute moved.
func (e *Engine) ProposeEdit(ctx context.Context, itemID uuid.UUID, changes Changes) (*Preview, error) {
	e.mu.Lock()
	proposal, err := e.ledger.Propose(itemID, changes)
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	if proposal.PriceResolved {
		preview := e.previewLocked(proposal)
		e.mu.Unlock()
		return preview, nil
	}
	generation := proposal.Generation
	item := proposal.Draft.PricingItem()
	e.mu.Unlock()

	result, priceErr := e.pricer.Recalculate(ctx, item, e.opts)

	e.mu.Lock()
	defer e.mu.Unlock()
	resolved, err := e.ledger.Resolve(itemID, generation, result, priceErr)
	if err != nil {
		e.logg.Warn(e.logg.WithCartID(ctx, e.cartID.String()), "discarded stale price recalculation")
		return nil, err
	}
	if priceErr != nil {
		return e.previewLocked(resolved), priceErr
	}
	return e.previewLocked(resolved), nil
}

// CommitEdit records the open proposal without pricing it again.
func (e *Engine) CommitEdit(ctx context.Context, itemID uuid.UUID) (*RevisionEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, err := e.ledger.Commit(itemID)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		e.logg.Info(e.logg.WithFields(ctx, map[string]any{
			"cart_id":     e.cartID.String(),
			"item_id":     itemID.String(),
			"revision":    entry.Index,
			"total_delta": entry.TotalDelta.String(),
		}), "cart revision committed")
	}
	return entry, nil
}

// CancelEdit discards the open proposal and returns the restored item.
func (e *Engine) CancelEdit(itemID uuid.UUID) (LineItem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Cancel(itemID)
}

func (e *Engine) RollbackTo(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.RollbackTo(index)
}

func (e *Engine) RollbackAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ledger.RollbackAll()
}

// Entries returns the retained revision log.
func (e *Engine) Entries() []RevisionEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Entries()
}

// Verify checks the ledger invariants.
func (e *Engine) Verify() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Verify()
}

// Snapshot returns the committed lines and total for document creation.
// It refuses while an edit is open so documents never capture a draft.
func (e *Engine) Snapshot() (types.CartLines, decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ledger.Editing() != nil {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeStateConflict, "commit or cancel the open edit first")
	}
	items := e.ledger.Items()
	if len(items) == 0 {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	lines := make(types.CartLines, 0, len(items))
	for _, item := range items {
		lines = append(lines, item.CartLine())
	}
	return lines, e.ledger.Total(), nil
}

// View returns the cart with handle names refreshed from the live catalog.
func (e *Engine) View(ctx context.Context) (*CartView, error) {
	e.mu.Lock()
	items := e.ledger.Items()
	view := &CartView{
		CartID:        e.cartID,
		ClientID:      e.clientID,
		Total:         e.ledger.Total(),
		BaselineTotal: e.ledger.BaselineTotal(),
		TotalDelta:    e.ledger.TotalDelta(),
		Revisions:     len(e.ledger.entries),
		CreatedAt:     e.created,
		Items:         make([]ItemView, 0, len(items)),
	}
	for _, item := range items {
		delta, _ := e.ledger.ItemDelta(item.ID)
		view.Items = append(view.Items, ItemView{LineItem: item, LineTotal: item.LineTotal(), Delta: delta})
	}
	if editing := e.ledger.Editing(); editing != nil {
		view.Editing = e.previewLocked(*editing)
	}
	e.mu.Unlock()

	handleIDs := make([]string, 0)
	for _, item := range items {
		if item.Kind == enums.ItemKindHandle && item.Attributes.HandleID != "" {
			handleIDs = append(handleIDs, item.Attributes.HandleID)
		}
	}
	if len(handleIDs) == 0 {
		return view, nil
	}
	handles, err := e.pricer.Handles(ctx, handleIDs)
	if err != nil {
		e.logg.Warn(e.logg.WithField(e.logg.WithCartID(ctx, e.cartID.String()), "error", err.Error()), "handle name refresh failed")
		return view, nil
	}
	for i := range view.Items {
		if view.Items[i].Kind != enums.ItemKindHandle {
			continue
		}
		if h, ok := handles[view.Items[i].Attributes.HandleID]; ok {
			view.Items[i].HandleName = h.Name
		}
	}
	return view, nil
}

func (e *Engine) previewLocked(p Proposal) *Preview {
	preview := &Preview{
		ItemID:        p.ItemID,
		Item:          p.Draft,
		PreviousPrice: p.Original.UnitPrice,
		PreviewPrice:  p.Draft.UnitPrice,
		LineTotal:     p.Draft.LineTotal(),
		PriceResolved: p.PriceResolved,
		Cached:        p.Cached,
		Breakdown:     p.Breakdown,
	}
	if p.PriceResolved {
		preview.PriceDelta = p.Draft.UnitPrice.Sub(e.ledger.basePrice[p.ItemID])
	} else {
		preview.PreviewPrice = p.Original.UnitPrice
		preview.LineTotal = p.Original.UnitPrice.Mul(decimal.NewFromInt(int64(p.Draft.Quantity)))
	}
	if p.Err != nil {
		preview.Error = p.Err.Error()
	}
	return preview
}
