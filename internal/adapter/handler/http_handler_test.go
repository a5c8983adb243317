package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/rl1809/tenant-inventory/internal/core/domain"
	"github.com/rl1809/tenant-inventory/internal/core/service"
	"github.com/rl1809/tenant-inventory/internal/tenant"
)

// In-memory repositories sufficient to drive real services through the
// handler. Tenant-scoped methods require a tenant bound to the context, like
// the real store.

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	ledger   []domain.StockAdjustment
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]*domain.Product)}
}

func (f *fakeProductRepo) requireTenant(ctx context.Context) error {
	if _, ok := tenant.FromContext(ctx); !ok {
		return domain.ErrMissingTenant
	}
	return nil
}

func (f *fakeProductRepo) Create(ctx context.Context, p domain.Product) error {
	if err := f.requireTenant(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.products {
		if existing.SKU == p.SKU {
			return fmt.Errorf("sku %s: %w", p.SKU, domain.ErrAlreadyExists)
		}
	}
	f.products[p.ID] = &p
	return nil
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := f.requireTenant(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	if err := f.requireTenant(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("sku %s: %w", sku, domain.ErrNotFound)
}

func (f *fakeProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	if err := f.requireTenant(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Product
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProductRepo) ListActive(ctx context.Context) ([]domain.Product, error) {
	all, err := f.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, p := range all {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	all, err := f.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, p := range all {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) ListNeedingReorder(ctx context.Context) ([]domain.Product, error) {
	all, err := f.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, p := range all {
		if p.Active && p.NeedsReorder() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) UpdateDetails(ctx context.Context, p domain.Product) error {
	if err := f.requireTenant(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.products[p.ID]
	if !ok {
		return fmt.Errorf("product %s: %w", p.ID, domain.ErrNotFound)
	}
	existing.Name, existing.Description = p.Name, p.Description
	existing.Category, existing.Price, existing.ReorderLevel = p.Category, p.Price, p.ReorderLevel
	return nil
}

func (f *fakeProductRepo) SetActive(ctx context.Context, id string, active bool) error {
	if err := f.requireTenant(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	p.Active = active
	return nil
}

func (f *fakeProductRepo) UpdateStock(ctx context.Context, id string, newQuantity int, expectedVersion int64) error {
	if err := f.requireTenant(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	if p.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	p.StockQuantity = newQuantity
	p.Version++
	return nil
}

func (f *fakeProductRepo) Append(ctx context.Context, a domain.StockAdjustment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ledger = append(f.ledger, a)
	return nil
}

func (f *fakeProductRepo) ListByProduct(ctx context.Context, productID string) ([]domain.StockAdjustment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.StockAdjustment
	for _, a := range f.ledger {
		if a.ProductID == productID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeTenantRepo struct {
	mu      sync.Mutex
	tenants map[string]*domain.Tenant
}

func (f *fakeTenantRepo) Create(ctx context.Context, t domain.Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tenants[t.ID]; ok {
		return fmt.Errorf("tenant %s: %w", t.ID, domain.ErrAlreadyExists)
	}
	f.tenants[t.ID] = &t
	return nil
}

func (f *fakeTenantRepo) GetByID(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[tenantID]
	if !ok {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, domain.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTenantRepo) List(ctx context.Context) ([]domain.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Tenant
	for _, t := range f.tenants {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTenantRepo) SetActive(ctx context.Context, tenantID string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[tenantID]
	if !ok {
		return fmt.Errorf("tenant %s: %w", tenantID, domain.ErrNotFound)
	}
	t.Active = active
	return nil
}

type noopProvisioner struct{}

func (noopProvisioner) Provision(ctx context.Context, schema string) error { return nil }

type noopRegistrar struct{}

func (noopRegistrar) Register(tenantID, schema string) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *fakeProductRepo) {
	t.Helper()

	products := newFakeProductRepo()
	tenants := &fakeTenantRepo{tenants: make(map[string]*domain.Tenant)}

	tenantService := service.NewTenantService(tenants, noopProvisioner{}, noopRegistrar{}, zap.NewNop())
	productService := service.NewProductService(products, products, zap.NewNop())

	mux := http.NewServeMux()
	NewHTTPHandler(tenantService, productService).Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, products
}

func doJSON(t *testing.T, method, url, tenantID string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if tenantID != "" {
		req.Header.Set(TenantHeader, tenantID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestProductRoutes_RequireTenantHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/products", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without tenant header, got %d", resp.StatusCode)
	}
}

func TestTenantRoutes_NoTenantHeaderNeeded(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/tenants", "", map[string]string{
		"tenant_id": "acme", "tenant_name": "Acme Corp",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/tenants", "", map[string]string{
		"tenant_id": "acme", "tenant_name": "Again",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 on duplicate, got %d", resp.StatusCode)
	}
}

func TestCreateProduct_AndStatusMapping(t *testing.T) {
	srv, _ := newTestServer(t)

	create := map[string]any{
		"sku": "SKU-1", "name": "Widget", "category": "tools",
		"price": "9.99", "stock_quantity": 10, "reorder_level": 2,
	}

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/products", "acme", create)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created domain.Product
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Duplicate SKU → 409.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/products", "acme", create)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 on duplicate sku, got %d", resp.StatusCode)
	}

	// Unknown product → 404.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/products/ghost", "acme", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}

	// Over-draw → 422.
	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/products/"+created.ID+"/stock", "acme", map[string]any{
		"quantity_change": -100, "adjustment_type": "SALE",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 on insufficient stock, got %d", resp.StatusCode)
	}

	// Bad adjustment type → 400.
	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/products/"+created.ID+"/stock", "acme", map[string]any{
		"quantity_change": 1, "adjustment_type": "SHRINKAGE",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 on bad adjustment type, got %d", resp.StatusCode)
	}

	// Valid sale → 200 with updated quantity.
	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/products/"+created.ID+"/stock", "acme", map[string]any{
		"quantity_change": -4, "adjustment_type": "SALE", "reason": "order 7",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var updated domain.Product
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.StockQuantity != 6 {
		t.Errorf("expected quantity 6, got %d", updated.StockQuantity)
	}

	// History: initial restock + sale.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/products/"+created.ID+"/stock-history", "acme", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var history []domain.StockAdjustment
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("expected 2 ledger entries, got %d", len(history))
	}
}

func TestCreateProduct_ValidationError(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/products", "acme", map[string]any{
		"sku": "SKU-1", "name": "Widget", "category": "tools", "price": "0",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 on non-positive price, got %d", resp.StatusCode)
	}
}
