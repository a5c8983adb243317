package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/rl1809/tenant-inventory/internal/core/domain"
	"github.com/rl1809/tenant-inventory/internal/core/service"
	"github.com/rl1809/tenant-inventory/internal/tenant"
)

// TenantHeader names the request header carrying the tenant id for every
// tenant-scoped operation.
const TenantHeader = "X-Tenant-ID"

// HTTPHandler is the thin inbound adapter: decode, bind tenant, call the
// core, translate the failure kind into a status code.
type HTTPHandler struct {
	tenants  *service.TenantService
	products *service.ProductService
}

func NewHTTPHandler(tenants *service.TenantService, products *service.ProductService) *HTTPHandler {
	return &HTTPHandler{tenants: tenants, products: products}
}

// Register wires all routes into mux. Tenant-management routes run against
// the master store and take no tenant header; everything else requires one.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("POST /api/tenants", h.CreateTenant)
	mux.HandleFunc("GET /api/tenants", h.ListTenants)
	mux.HandleFunc("GET /api/tenants/{id}", h.GetTenant)
	mux.HandleFunc("DELETE /api/tenants/{id}", h.DeactivateTenant)

	mux.HandleFunc("POST /api/products", h.withTenant(h.CreateProduct))
	mux.HandleFunc("GET /api/products", h.withTenant(h.ListProducts))
	mux.HandleFunc("GET /api/products/reorder-needed", h.withTenant(h.ListNeedingReorder))
	mux.HandleFunc("GET /api/products/sku/{sku}", h.withTenant(h.GetProductBySKU))
	mux.HandleFunc("GET /api/products/{id}", h.withTenant(h.GetProduct))
	mux.HandleFunc("PUT /api/products/{id}", h.withTenant(h.UpdateProduct))
	mux.HandleFunc("DELETE /api/products/{id}", h.withTenant(h.DeactivateProduct))
	mux.HandleFunc("PATCH /api/products/{id}/stock", h.withTenant(h.AdjustStock))
	mux.HandleFunc("GET /api/products/{id}/stock-history", h.withTenant(h.StockHistory))
}

// withTenant rejects requests without a tenant header and binds the tenant
// id to the request context for the duration of the request.
func (h *HTTPHandler) withTenant(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(TenantHeader)
		if tenantID == "" {
			writeError(w, domain.ErrMissingTenant)
			return
		}
		next(w, r.WithContext(tenant.WithTenant(r.Context(), tenantID)))
	}
}

type createTenantRequest struct {
	TenantID   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
}

func (h *HTTPHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	t, err := h.tenants.Create(r.Context(), req.TenantID, req.TenantName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *HTTPHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenants.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

func (h *HTTPHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	t, err := h.tenants.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *HTTPHandler) DeactivateTenant(w http.ResponseWriter, r *http.Request) {
	if err := h.tenants.Deactivate(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createProductRequest struct {
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	ReorderLevel  int             `json:"reorder_level"`
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	p, err := h.products.Create(r.Context(), service.CreateProductInput{
		SKU:           req.SKU,
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		ReorderLevel:  req.ReorderLevel,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []domain.Product
		err      error
	)

	query := r.URL.Query()
	switch {
	case query.Get("category") != "":
		products, err = h.products.ListByCategory(r.Context(), query.Get("category"))
	case query.Get("activeOnly") == "true":
		products, err = h.products.ListActive(r.Context())
	default:
		products, err = h.products.List(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) ListNeedingReorder(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListNeedingReorder(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *HTTPHandler) GetProductBySKU(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetBySKU(r.Context(), r.PathValue("sku"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	p, err := h.products.Update(r.Context(), r.PathValue("id"), service.UpdateProductInput{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		ReorderLevel: req.ReorderLevel,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *HTTPHandler) DeactivateProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Deactivate(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adjustStockRequest struct {
	QuantityChange int    `json:"quantity_change"`
	AdjustmentType string `json:"adjustment_type"`
	Reason         string `json:"reason"`
}

func (h *HTTPHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	p, err := h.products.AdjustStock(r.Context(), r.PathValue("id"),
		req.QuantityChange, domain.AdjustmentType(req.AdjustmentType), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *HTTPHandler) StockHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.products.StockHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	var insufficient *domain.InsufficientStockError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrConcurrentModification):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrMissingTenant):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.As(err, &insufficient):
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
