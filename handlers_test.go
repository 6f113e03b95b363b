package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.opentelemetry.io/otel/trace/noop"
)

// MockSaleUseCase simula o use case de vendas
type MockSaleUseCase struct {
	mock.Mock
}

func (m *MockSaleUseCase) CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleReceipt, error) {
	args := m.Called(ctx, req)
	if r, ok := args.Get(0).(*SaleReceipt); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSaleUseCase) ListSales(ctx context.Context) ([]SaleSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]SaleSummary), args.Error(1)
}

func (m *MockSaleUseCase) GetSale(ctx context.Context, saleID string) (*SaleDetail, error) {
	args := m.Called(ctx, saleID)
	if d, ok := args.Get(0).(*SaleDetail); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockCatalogUseCase simula o use case de catálogo
type MockCatalogUseCase struct {
	mock.Mock
}

func (m *MockCatalogUseCase) ListProducts(ctx context.Context, categoria string, activo *bool) ([]Product, error) {
	args := m.Called(ctx, categoria, activo)
	return args.Get(0).([]Product), args.Error(1)
}

func (m *MockCatalogUseCase) GetProduct(ctx context.Context, productID string) (*Product, error) {
	args := m.Called(ctx, productID)
	if p, ok := args.Get(0).(*Product); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalogUseCase) CreateProduct(ctx context.Context, req ProductRequest) (*Product, error) {
	args := m.Called(ctx, req)
	if p, ok := args.Get(0).(*Product); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalogUseCase) UpdateProduct(ctx context.Context, productID string, req ProductRequest) error {
	args := m.Called(ctx, productID, req)
	return args.Error(0)
}

// MockDeliveryUseCase simula o use case de deliveries
type MockDeliveryUseCase struct {
	mock.Mock
}

func (m *MockDeliveryUseCase) CreateDelivery(ctx context.Context, req DeliveryRequest) (*Delivery, error) {
	args := m.Called(ctx, req)
	if d, ok := args.Get(0).(*Delivery); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDeliveryUseCase) ListDeliveries(ctx context.Context, estado string) ([]DeliverySummary, error) {
	args := m.Called(ctx, estado)
	return args.Get(0).([]DeliverySummary), args.Error(1)
}

func (m *MockDeliveryUseCase) UpdateDeliveryStatus(ctx context.Context, deliveryID, estado string) error {
	args := m.Called(ctx, deliveryID, estado)
	return args.Error(0)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func performRequest(r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func saleRouter(useCase SaleUseCaseInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewSaleHandler(useCase, noop.NewTracerProvider().Tracer("test"))

	r := gin.New()
	r.POST("/api/ventas", handler.Create)
	r.GET("/api/ventas", handler.List)
	r.GET("/api/ventas/:id", handler.Get)
	return r
}

func TestCreateSaleHandler(t *testing.T) {
	// Arrange
	useCase := new(MockSaleUseCase)
	useCase.On("CreateSale", mock.Anything, mock.Anything).
		Return(&SaleReceipt{VentaID: "venta-1", Total: decimal.RequireFromString("27.00")}, nil)

	r := saleRouter(useCase)

	// Act
	w, env := performRequest(r, http.MethodPost, "/api/ventas", gin.H{
		"tipo_entrega": "pickup",
		"items": []gin.H{
			{"producto_id": "p1", "cantidad": 2},
			{"producto_id": "p2", "cantidad": 2},
		},
	})

	// Assert
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)

	var receipt SaleReceipt
	assert.NoError(t, json.Unmarshal(env.Data, &receipt))
	assert.Equal(t, "venta-1", receipt.VentaID)
	assert.True(t, receipt.Total.Equal(decimal.RequireFromString("27.00")))
}

func TestCreateSaleHandlerBadBody(t *testing.T) {
	useCase := new(MockSaleUseCase)
	r := saleRouter(useCase)

	// items ausente: rejeitado pelo binding antes do use case
	w, env := performRequest(r, http.MethodPost, "/api/ventas", gin.H{"tipo_entrega": "pickup"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
	useCase.AssertNotCalled(t, "CreateSale", mock.Anything, mock.Anything)
}

func TestCreateSaleHandlerStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"product not found", &NotFoundError{Entity: "producto", ID: "p9"}, http.StatusNotFound},
		{"insufficient stock", &InsufficientStockError{ProductoID: "p2", Requested: 3, Available: 2}, http.StatusConflict},
		{"tx conflict", &ConflictError{cause: deadlockPgError()}, http.StatusConflict},
		{"tx timeout", &TimeoutError{cause: context.DeadlineExceeded}, http.StatusConflict},
		{"store failure", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			useCase := new(MockSaleUseCase)
			useCase.On("CreateSale", mock.Anything, mock.Anything).Return(nil, tc.err)
			r := saleRouter(useCase)

			w, env := performRequest(r, http.MethodPost, "/api/ventas", gin.H{
				"tipo_entrega": "pickup",
				"items":        []gin.H{{"producto_id": "p1", "cantidad": 1}},
			})

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tc.err.Error(), env.Error)
		})
	}
}

func TestGetSaleHandlerNotFound(t *testing.T) {
	useCase := new(MockSaleUseCase)
	useCase.On("GetSale", mock.Anything, "v9").Return(nil, &NotFoundError{Entity: "venta", ID: "v9"})
	r := saleRouter(useCase)

	w, env := performRequest(r, http.MethodGet, "/api/ventas/v9", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}

func TestListProductsHandlerFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	useCase := new(MockCatalogUseCase)
	activo := true
	useCase.On("ListProducts", mock.Anything, "panes", &activo).Return([]Product{}, nil)

	handler := NewProductHandler(useCase)
	r := gin.New()
	r.GET("/api/productos", handler.List)

	w, env := performRequest(r, http.MethodGet, "/api/productos?categoria=panes&activo=true", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	useCase.AssertExpectations(t)
}

func TestCreateProductHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	useCase := new(MockCatalogUseCase)
	created := NewProduct("Baguette", "panes", decimal.RequireFromString("2.00"), 10, nil)
	useCase.On("CreateProduct", mock.Anything, mock.Anything).Return(created, nil)

	handler := NewProductHandler(useCase)
	r := gin.New()
	r.POST("/api/productos", handler.Create)

	w, env := performRequest(r, http.MethodPost, "/api/productos", gin.H{
		"nombre":    "Baguette",
		"categoria": "panes",
		"precio":    2.00,
		"stock":     10,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)

	var data map[string]string
	assert.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, created.ID, data["id"])
}

func TestUpdateDeliveryStatusHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	useCase := new(MockDeliveryUseCase)
	useCase.On("UpdateDeliveryStatus", mock.Anything, "d1", "en_camino").Return(nil)

	handler := NewDeliveryHandler(useCase)
	r := gin.New()
	r.PATCH("/api/deliveries/:id/estado", handler.UpdateStatus)

	w, env := performRequest(r, http.MethodPatch, "/api/deliveries/d1/estado", gin.H{"estado": "en_camino"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	useCase.AssertExpectations(t)
}

func TestCreateDeliveryHandlerPickupSale(t *testing.T) {
	gin.SetMode(gin.TestMode)
	useCase := new(MockDeliveryUseCase)
	useCase.On("CreateDelivery", mock.Anything, mock.Anything).
		Return(nil, &NotFoundError{Entity: "venta", ID: "v1"})

	handler := NewDeliveryHandler(useCase)
	r := gin.New()
	r.POST("/api/deliveries", handler.Create)

	w, env := performRequest(r, http.MethodPost, "/api/deliveries", gin.H{
		"venta_id":  "v1",
		"direccion": "Calle Falsa 123",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}
