package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/domeo/domeo-backend/api/middleware"
	docsvc "github.com/domeo/domeo-backend/internal/documents"
	"github.com/domeo/domeo-backend/internal/pricing"
	"github.com/domeo/domeo-backend/internal/revisions"
	"github.com/domeo/domeo-backend/pkg/db/models"
	"github.com/domeo/domeo-backend/pkg/enums"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/domeo/domeo-backend/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fixedPricer struct{}

func (fixedPricer) Recalculate(ctx context.Context, item pricing.Item, _ pricing.Options) (*pricing.Result, error) {
	return &pricing.Result{Price: decimal.NewFromInt(int64(item.Width) * 50)}, nil
}

func (fixedPricer) Handles(ctx context.Context, ids []string) (map[string]models.Handle, error) {
	return map[string]models.Handle{}, nil
}

type stubService struct {
	orderInput      docsvc.CreateOrderInput
	transitionInput docsvc.TransitionInput
	orderResult     *docsvc.OrderResult
	transition      *docsvc.TransitionResult
	listParams      pagination.Params
	err             error
	calls           int
}

func (s *stubService) CreateOrder(ctx context.Context, input docsvc.CreateOrderInput) (*docsvc.OrderResult, error) {
	s.calls++
	s.orderInput = input
	return s.orderResult, s.err
}

func (s *stubService) CreateQuote(ctx context.Context, input docsvc.CreateQuoteInput) (*models.Quote, error) {
	s.calls++
	return &models.Quote{ID: uuid.New(), ClientID: input.ClientID, TotalAmount: input.Total}, s.err
}

func (s *stubService) CreateInvoice(ctx context.Context, input docsvc.CreateInvoiceInput) (*models.Invoice, error) {
	s.calls++
	return &models.Invoice{ID: uuid.New(), ClientID: input.ClientID, TotalAmount: input.Total}, s.err
}

func (s *stubService) CreateSupplierOrder(ctx context.Context, input docsvc.CreateSupplierOrderInput) (*models.SupplierOrder, error) {
	s.calls++
	return &models.SupplierOrder{ID: uuid.New(), OrderID: input.OrderID, SupplierName: input.SupplierName}, s.err
}

func (s *stubService) UpdateOrderDetails(ctx context.Context, input docsvc.UpdateOrderDetailsInput) (*models.Order, error) {
	s.calls++
	return &models.Order{ID: input.OrderID}, s.err
}

func (s *stubService) Transition(ctx context.Context, input docsvc.TransitionInput) (*docsvc.TransitionResult, error) {
	s.calls++
	s.transitionInput = input
	return s.transition, s.err
}

func (s *stubService) Get(ctx context.Context, kind enums.DocumentKind, id uuid.UUID) (*docsvc.DocumentView, error) {
	s.calls++
	return &docsvc.DocumentView{Kind: kind, ID: id}, s.err
}

func (s *stubService) ListOrders(ctx context.Context, clientID string, page pagination.Params) (*pagination.Page[docsvc.DocumentView], error) {
	s.calls++
	s.listParams = page
	return &pagination.Page[docsvc.DocumentView]{Items: []docsvc.DocumentView{}}, s.err
}

func (s *stubService) History(ctx context.Context, kind enums.DocumentKind, id uuid.UUID) ([]models.StatusHistory, error) {
	s.calls++
	return []models.StatusHistory{}, s.err
}

func newTestRouter(t *testing.T, svc docsvc.Service) (http.Handler, *revisions.Store) {
	t.Helper()
	store, err := revisions.NewStore(fixedPricer{}, pricing.Options{}, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	r := chi.NewRouter()
	r.Use(middleware.Actor(nil))
	r.Post("/carts/{cartID}/orders", OrderFromCart(store, svc, nil))
	r.Post("/carts/{cartID}/quotes", QuoteFromCart(store, svc, nil))
	r.Post("/carts/{cartID}/invoices", InvoiceFromCart(store, svc, nil))
	r.Get("/orders", OrdersList(svc, nil))
	r.Patch("/orders/{id}", OrderDetailsUpdate(svc, nil))
	r.Post("/orders/{id}/supplier-orders", SupplierOrderCreate(svc, nil))
	r.Get("/documents/{kind}/{id}", DocumentFetch(svc, nil))
	r.Get("/documents/{kind}/{id}/history", DocumentHistory(svc, nil))
	r.Put("/documents/{kind}/{id}/status", StatusUpdate(svc, nil))
	return r, store
}

func openCart(t *testing.T, store *revisions.Store) *revisions.Engine {
	t.Helper()
	engine, err := store.Create(context.Background(), "client-9", []revisions.LineItem{{
		Kind:       enums.ItemKindDoor,
		Attributes: revisions.Attributes{Finish: "ПВХ", Color: "Белый", Width: 800, Height: 2000},
		Quantity:   2,
	}})
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	return engine
}

func send(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-Actor-Id", "op-1")
	req.Header.Set("X-Actor-Role", "complectator")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOrderFromCartPassesSnapshot(t *testing.T) {
	svc := &stubService{orderResult: &docsvc.OrderResult{Order: &models.Order{ID: uuid.New()}}}
	h, store := newTestRouter(t, svc)
	engine := openCart(t, store)

	rec := send(h, http.MethodPost, fmt.Sprintf("/carts/%s/orders", engine.CartID()), `{"project_file_url":"https://files.example.com/p.pdf"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	in := svc.orderInput
	if in.ClientID != "client-9" || in.CartSessionID != engine.CartID().String() {
		t.Fatalf("unexpected identity %+v", in)
	}
	if !in.Total.Equal(decimal.NewFromInt(80000)) || len(in.Items) != 1 {
		t.Fatalf("unexpected snapshot total=%s items=%d", in.Total, len(in.Items))
	}
	if in.Actor.ID != "op-1" || in.Actor.Role != "complectator" {
		t.Fatalf("actor not forwarded: %+v", in.Actor)
	}
}

func TestOrderFromCartReportsDuplicate(t *testing.T) {
	svc := &stubService{orderResult: &docsvc.OrderResult{
		Order:        &models.Order{ID: uuid.New(), Number: "ORD-000001"},
		Deduplicated: true,
		Notice:       pkgerrors.CodeDuplicateOrder,
	}}
	h, store := newTestRouter(t, svc)
	engine := openCart(t, store)

	rec := send(h, http.MethodPost, fmt.Sprintf("/carts/%s/orders", engine.CartID()), `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data docsvc.OrderResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !envelope.Data.Deduplicated || envelope.Data.Notice != pkgerrors.CodeDuplicateOrder {
		t.Fatalf("unexpected result %+v", envelope.Data)
	}
}

func TestDocumentsRefuseCartWithOpenEdit(t *testing.T) {
	svc := &stubService{}
	h, store := newTestRouter(t, svc)
	engine := openCart(t, store)

	view, err := engine.View(context.Background())
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	width := 900
	if _, err := engine.ProposeEdit(context.Background(), view.Items[0].ID, revisions.Changes{Width: &width}); err != nil {
		t.Fatalf("propose: %v", err)
	}

	rec := send(h, http.MethodPost, fmt.Sprintf("/carts/%s/quotes", engine.CartID()), "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("service should not be called while editing")
	}
}

func TestStatusUpdateParsesKind(t *testing.T) {
	id := uuid.New()
	svc := &stubService{transition: &docsvc.TransitionResult{}}
	h, _ := newTestRouter(t, svc)

	rec := send(h, http.MethodPut, fmt.Sprintf("/documents/supplier-orders/%s/status", id), `{"status":"ORDERED"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.transitionInput.Kind != enums.DocumentKindSupplierOrder || svc.transitionInput.ID != id {
		t.Fatalf("unexpected input %+v", svc.transitionInput)
	}

	rec = send(h, http.MethodPut, fmt.Sprintf("/documents/receipts/%s/status", id), `{"status":"PAID"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", rec.Code)
	}
}

func TestStatusUpdateMapsBlockedStatus(t *testing.T) {
	svc := &stubService{err: pkgerrors.New(pkgerrors.CodeBlockedStatus, "invoice status is driven by the supplier order")}
	h, _ := newTestRouter(t, svc)

	rec := send(h, http.MethodPut, fmt.Sprintf("/documents/invoice/%s/status", uuid.New()), `{"status":"PAID"}`)
	if rec.Code != http.StatusLocked {
		t.Fatalf("expected 423, got %d", rec.Code)
	}
}

func TestOrdersListRequiresClient(t *testing.T) {
	svc := &stubService{}
	h, _ := newTestRouter(t, svc)

	if rec := send(h, http.MethodGet, "/orders", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := send(h, http.MethodGet, "/orders?client_id=client-9&limit=10&cursor=abc", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.listParams.Limit != 10 || svc.listParams.Cursor != "abc" {
		t.Fatalf("unexpected paging params %+v", svc.listParams)
	}
	if rec := send(h, http.MethodGet, "/orders?client_id=client-9&limit=500", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized limit, got %d", rec.Code)
	}
}

func TestSupplierOrderCreateValidates(t *testing.T) {
	svc := &stubService{}
	h, _ := newTestRouter(t, svc)
	path := fmt.Sprintf("/orders/%s/supplier-orders", uuid.New())

	if rec := send(h, http.MethodPost, path, `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := send(h, http.MethodPost, path, `{"supplier_name":"  Фабрика  "}`); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}
