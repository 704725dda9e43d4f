package revisions

import (
	"fmt"
	"time"

	"github.com/domeo/domeo-backend/internal/pricing"
	"github.com/domeo/domeo-backend/pkg/enums"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Ledger owns a cart's items and its append-only revision log. It does no
// locking; Engine serialises access.
type Ledger struct {
	items      []LineItem
	baseline   map[uuid.UUID]LineItem
	basePrice  map[uuid.UUID]decimal.Decimal
	entries    []RevisionEntry
	edit       *Proposal
	generation uint64
	now        func() time.Time
}

// NewLedger starts a ledger whose baseline is the given items.
func NewLedger(items []LineItem) (*Ledger, error) {
	l := &Ledger{
		baseline:  make(map[uuid.UUID]LineItem, len(items)),
		basePrice: make(map[uuid.UUID]decimal.Decimal, len(items)),
		now:       time.Now,
	}
	for _, item := range items {
		if err := l.Add(item); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Add appends an item to the cart. Its current state becomes its baseline.
func (l *Ledger) Add(item LineItem) error {
	if item.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if !item.Kind.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid item kind %q", item.Kind)
	}
	if item.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if _, exists := l.baseline[item.ID]; exists {
		return pkgerrors.New(pkgerrors.CodeConflict, "item already in cart")
	}
	l.items = append(l.items, item)
	l.baseline[item.ID] = item
	l.basePrice[item.ID] = item.UnitPrice
	return nil
}

// Remove drops an item and purges its changes from the log so the delta
// invariants keep holding for the remaining items.
func (l *Ledger) Remove(itemID uuid.UUID) error {
	idx := l.indexOf(itemID)
	if idx < 0 {
		return errItemNotFound(itemID)
	}
	if l.edit != nil && l.edit.ItemID == itemID {
		l.edit = nil
		l.generation++
	}
	l.items = append(l.items[:idx:idx], l.items[idx+1:]...)
	delete(l.baseline, itemID)
	delete(l.basePrice, itemID)

	kept := l.entries[:0]
	for _, entry := range l.entries {
		if ch, ok := entry.Changes[itemID]; ok {
			delete(entry.Changes, itemID)
			entry.TotalDelta = entry.TotalDelta.Sub(ch.LineDelta)
		}
		if len(entry.Changes) == 0 {
			continue
		}
		entry.Index = len(kept)
		kept = append(kept, entry)
	}
	l.entries = kept
	return nil
}

// Begin opens an edit on itemID, or returns the edit already open on it.
func (l *Ledger) Begin(itemID uuid.UUID) (*Proposal, error) {
	if l.edit != nil {
		if l.edit.ItemID != itemID {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "another item is being edited").
				WithDetails(map[string]any{"editing_item_id": l.edit.ItemID.String()})
		}
		return l.edit, nil
	}
	idx := l.indexOf(itemID)
	if idx < 0 {
		return nil, errItemNotFound(itemID)
	}
	item := l.items[idx]
	l.edit = &Proposal{
		ItemID:        itemID,
		Original:      item,
		Draft:         item,
		PriceResolved: true,
	}
	return l.edit, nil
}

// Propose accumulates changes on the open edit. The returned proposal is a
// copy; when PriceResolved is false the caller must price Draft and report
// back through Resolve with the returned generation.
func (l *Ledger) Propose(itemID uuid.UUID, changes Changes) (Proposal, error) {
	if changes.Quantity != nil && *changes.Quantity <= 0 {
		return Proposal{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	edit, err := l.Begin(itemID)
	if err != nil {
		return Proposal{}, err
	}

	l.generation++
	edit.Generation = l.generation
	edit.Draft = changes.apply(edit.Draft)

	target := edit.Draft.priceable()
	switch {
	case target == edit.Original.priceable():
		edit.Draft.UnitPrice = edit.Original.UnitPrice
		edit.Draft.SKU = edit.Original.SKU
		edit.Draft.HandleName = edit.Original.HandleName
		edit.PriceResolved = true
		edit.Err = nil
		edit.Cached = false
		edit.Breakdown = nil
		edit.pricedFor = nil
	case edit.PriceResolved && edit.pricedFor != nil && *edit.pricedFor == target:
		// already priced for this tuple
	default:
		edit.PriceResolved = false
		edit.Err = nil
		edit.pricedFor = nil
	}
	return *edit, nil
}

// Resolve applies a pricing outcome to the open edit. Outcomes for an older
// generation are discarded with CONFLICT.
func (l *Ledger) Resolve(itemID uuid.UUID, generation uint64, result *pricing.Result, priceErr error) (Proposal, error) {
	if l.edit == nil || l.edit.ItemID != itemID || l.edit.Generation != generation || generation != l.generation {
		return Proposal{}, pkgerrors.New(pkgerrors.CodeConflict, "stale recalculation discarded")
	}
	edit := l.edit
	if priceErr != nil || result == nil {
		if priceErr == nil {
			priceErr = pkgerrors.New(pkgerrors.CodeRemoteUnavailable, "empty pricing result")
		}
		edit.PriceResolved = false
		edit.Err = priceErr
		return *edit, nil
	}

	edit.Draft.UnitPrice = result.Price
	edit.Draft.SKU = result.SKU
	if edit.Draft.Kind == enums.ItemKindHandle {
		edit.Draft.HandleName = result.HandleName
	}
	edit.PriceResolved = true
	edit.Err = nil
	edit.Cached = result.Cached
	breakdown := make([]BreakdownLine, 0, len(result.Breakdown))
	for _, line := range result.Breakdown {
		breakdown = append(breakdown, BreakdownLine{Label: line.Label, Amount: line.Amount})
	}
	edit.Breakdown = breakdown
	target := edit.Draft.priceable()
	edit.pricedFor = &target
	return *edit, nil
}

// Commit turns the open edit into a revision entry. A proposal without any
// field change closes the edit and returns a nil entry.
func (l *Ledger) Commit(itemID uuid.UUID) (*RevisionEntry, error) {
	edit := l.edit
	if edit == nil || edit.ItemID != itemID {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no edit in progress for item")
	}
	if !edit.PriceResolved {
		if edit.Err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, edit.Err, "price is not resolved; retry or cancel the edit")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "price recalculation still in progress")
	}
	if err := validateForCommit(edit.Draft); err != nil {
		return nil, err
	}

	idx := l.indexOf(itemID)
	if idx < 0 {
		return nil, errItemNotFound(itemID)
	}

	l.edit = nil
	l.generation++
	if edit.Draft.Equal(edit.Original) {
		return nil, nil
	}

	change := ItemChange{
		Previous:   edit.Original,
		Next:       edit.Draft,
		PriceDelta: edit.Draft.UnitPrice.Sub(l.basePrice[itemID]),
		LineDelta:  edit.Draft.LineTotal().Sub(edit.Original.LineTotal()),
	}
	entry := RevisionEntry{
		Index:      len(l.entries),
		Timestamp:  l.now().UTC(),
		Changes:    map[uuid.UUID]ItemChange{itemID: change},
		TotalDelta: change.LineDelta,
	}

	l.items[idx] = edit.Draft
	l.basePrice[itemID] = edit.Draft.UnitPrice
	l.entries = append(l.entries, entry)

	out := entry.clone()
	return &out, nil
}

// Cancel discards the open edit. The item was never touched, so the returned
// snapshot is exactly the one captured when editing began.
func (l *Ledger) Cancel(itemID uuid.UUID) (LineItem, error) {
	if l.edit == nil || l.edit.ItemID != itemID {
		return LineItem{}, pkgerrors.New(pkgerrors.CodeStateConflict, "no edit in progress for item")
	}
	original := l.edit.Original
	l.edit = nil
	l.generation++
	return original, nil
}

// RollbackTo keeps entries [0..index] and restores every item changed after
// index to its state at that point.
func (l *Ledger) RollbackTo(index int) error {
	if index < 0 || index >= len(l.entries) {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "revision index %d out of range", index).
			WithDetails(map[string]any{"index": index, "entries": len(l.entries)})
	}
	l.edit = nil
	l.generation++

	for _, entry := range l.entries[index+1:] {
		for itemID := range entry.Changes {
			l.restore(itemID, l.snapshotAt(itemID, index))
		}
	}
	l.entries = l.entries[:index+1]
	return nil
}

// RollbackAll restores every touched item to its state before its first
// recorded change and empties the log.
func (l *Ledger) RollbackAll() {
	l.edit = nil
	l.generation++

	for i := len(l.entries) - 1; i >= 0; i-- {
		for itemID, ch := range l.entries[i].Changes {
			l.restore(itemID, ch.Previous)
		}
	}
	l.entries = nil
}

// snapshotAt is the item's state after entry index: the last retained Next,
// or its baseline when no retained entry touched it.
func (l *Ledger) snapshotAt(itemID uuid.UUID, index int) LineItem {
	for i := index; i >= 0; i-- {
		if ch, ok := l.entries[i].Changes[itemID]; ok {
			return ch.Next
		}
	}
	return l.baseline[itemID]
}

func (l *Ledger) restore(itemID uuid.UUID, snapshot LineItem) {
	idx := l.indexOf(itemID)
	if idx < 0 {
		return
	}
	l.items[idx] = snapshot
	l.basePrice[itemID] = snapshot.UnitPrice
}

// Items returns a copy of the cart in display order.
func (l *Ledger) Items() []LineItem {
	out := make([]LineItem, len(l.items))
	copy(out, l.items)
	return out
}

// Item returns the committed state of one item.
func (l *Ledger) Item(itemID uuid.UUID) (LineItem, bool) {
	idx := l.indexOf(itemID)
	if idx < 0 {
		return LineItem{}, false
	}
	return l.items[idx], true
}

// Entries returns a copy of the log.
func (l *Ledger) Entries() []RevisionEntry {
	out := make([]RevisionEntry, len(l.entries))
	for i, entry := range l.entries {
		out[i] = entry.clone()
	}
	return out
}

// Editing returns a copy of the open edit, if any.
func (l *Ledger) Editing() *Proposal {
	if l.edit == nil {
		return nil
	}
	p := *l.edit
	return &p
}

// ItemDelta is the current unit price, including an open proposal's
// resolved preview, minus the last committed price.
func (l *Ledger) ItemDelta(itemID uuid.UUID) (decimal.Decimal, error) {
	base, ok := l.basePrice[itemID]
	if !ok {
		return decimal.Zero, errItemNotFound(itemID)
	}
	if l.edit != nil && l.edit.ItemID == itemID && l.edit.PriceResolved {
		return l.edit.Draft.UnitPrice.Sub(base), nil
	}
	item, _ := l.Item(itemID)
	return item.UnitPrice.Sub(base), nil
}

// Total is the committed cart total.
func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range l.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// BaselineTotal is the total the cart had before any recorded change.
func (l *Ledger) BaselineTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range l.items {
		total = total.Add(l.baseline[item.ID].LineTotal())
	}
	return total
}

// TotalDelta is Total minus BaselineTotal.
func (l *Ledger) TotalDelta() decimal.Decimal {
	return l.Total().Sub(l.BaselineTotal())
}

// LoggedDelta sums TotalDelta over the retained entries.
func (l *Ledger) LoggedDelta() decimal.Decimal {
	sum := decimal.Zero
	for _, entry := range l.entries {
		sum = sum.Add(entry.TotalDelta)
	}
	return sum
}

// Replay rebuilds the cart from the baseline by applying the final
// snapshots of entries [0..upTo]. Pass -1 for the baseline itself.
func (l *Ledger) Replay(upTo int) []LineItem {
	state := make(map[uuid.UUID]LineItem, len(l.items))
	for id, item := range l.baseline {
		state[id] = item
	}
	for i := 0; i <= upTo && i < len(l.entries); i++ {
		for id, ch := range l.entries[i].Changes {
			state[id] = ch.Next
		}
	}
	out := make([]LineItem, 0, len(l.items))
	for _, item := range l.items {
		out = append(out, state[item.ID])
	}
	return out
}

// Verify checks the ledger invariants and reports every violation.
func (l *Ledger) Verify() error {
	var err error
	if logged, actual := l.LoggedDelta(), l.TotalDelta(); !logged.Equal(actual) {
		err = multierr.Append(err, fmt.Errorf("logged delta %s does not match total delta %s", logged, actual))
	}
	replayed := l.Replay(len(l.entries) - 1)
	for i, item := range l.items {
		if !replayed[i].Equal(item) {
			err = multierr.Append(err, fmt.Errorf("item %s differs from replayed state", item.ID))
		}
	}
	for i, entry := range l.entries {
		if entry.Index != i {
			err = multierr.Append(err, fmt.Errorf("entry at position %d carries index %d", i, entry.Index))
		}
	}
	return err
}

func (l *Ledger) indexOf(itemID uuid.UUID) int {
	for i, item := range l.items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func validateForCommit(item LineItem) error {
	if item.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if item.Kind != enums.ItemKindDoor {
		return nil
	}
	missing := []string{}
	if item.Attributes.Finish == "" {
		missing = append(missing, "finish")
	}
	if item.Attributes.Color == "" {
		missing = append(missing, "color")
	}
	if item.Attributes.Width <= 0 {
		missing = append(missing, "width")
	}
	if item.Attributes.Height <= 0 {
		missing = append(missing, "height")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "door configuration is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func errItemNotFound(itemID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "item not found").
		WithDetails(map[string]any{"item_id": itemID.String()})
}
