package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ProductRequest representa a requisição para criar ou atualizar um produto
type ProductRequest struct {
	Nombre      string          `json:"nombre" binding:"required"`
	Categoria   string          `json:"categoria" binding:"required"`
	Precio      decimal.Decimal `json:"precio"`
	Stock       *int            `json:"stock"`
	Descripcion *string         `json:"descripcion"`
	Activo      *bool           `json:"activo"`
}

// CustomerRequest representa a requisição para criar um cliente
type CustomerRequest struct {
	Nombre    string  `json:"nombre" binding:"required"`
	Telefono  *string `json:"telefono"`
	Email     *string `json:"email"`
	Direccion *string `json:"direccion"`
}

// SaleItemRequest representa um item da requisição de venda. Não carrega
// preço: o preço vem sempre da leitura transacional no servidor.
type SaleItemRequest struct {
	ProductoID string `json:"producto_id" binding:"required"`
	Cantidad   int    `json:"cantidad" binding:"required,gt=0"`
}

// CreateSaleRequest representa a requisição para criar uma venda
type CreateSaleRequest struct {
	ClienteID   *string           `json:"cliente_id"`
	TipoEntrega string            `json:"tipo_entrega" binding:"required,oneof=pickup delivery"`
	Items       []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
}

// DeliveryRequest representa a requisição para criar um delivery
type DeliveryRequest struct {
	VentaID      string  `json:"venta_id" binding:"required"`
	Direccion    string  `json:"direccion" binding:"required"`
	Referencias  *string `json:"referencias"`
	FechaEntrega *string `json:"fecha_entrega"`
}

// DeliveryStatusRequest representa a requisição para atualizar o estado
type DeliveryStatusRequest struct {
	Estado string `json:"estado" binding:"required"`
}

// respondOK envia o envelope de sucesso {success, data}
func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondError envia o envelope de erro {success, error} com o status
// derivado da taxonomia. Nunca vaza stack trace.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFromError(err), gin.H{"success": false, "error": err.Error()})
}

// statusFromError mapeia a taxonomia de erros para códigos HTTP
func statusFromError(err error) int {
	var notFound *NotFoundError
	var insufficient *InsufficientStockError
	var validation *ValidationError
	var conflict *ConflictError
	var timeout *TimeoutError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &insufficient), errors.As(err, &conflict), errors.As(err, &timeout):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CatalogUseCaseInterface define a interface para o use case de catálogo
type CatalogUseCaseInterface interface {
	ListProducts(ctx context.Context, categoria string, activo *bool) ([]Product, error)
	GetProduct(ctx context.Context, productID string) (*Product, error)
	CreateProduct(ctx context.Context, req ProductRequest) (*Product, error)
	UpdateProduct(ctx context.Context, productID string, req ProductRequest) error
}

// ProductHandler contém os handlers HTTP de produtos
type ProductHandler struct {
	useCase CatalogUseCaseInterface
}

// NewProductHandler cria uma nova instância de ProductHandler
func NewProductHandler(useCase CatalogUseCaseInterface) *ProductHandler {
	return &ProductHandler{useCase: useCase}
}

// List lista os produtos com filtros opcionais categoria e activo
func (h *ProductHandler) List(c *gin.Context) {
	var activo *bool
	if raw, ok := c.GetQuery("activo"); ok {
		v := raw == "true"
		activo = &v
	}

	products, err := h.useCase.ListProducts(c.Request.Context(), c.Query("categoria"), activo)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, products)
}

// Get obtém um produto específico
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.useCase.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, product)
}

// Create cria um novo produto
func (h *ProductHandler) Create(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	product, err := h.useCase.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"id": product.ID})
}

// Update atualiza um produto completo
func (h *ProductHandler) Update(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	if err := h.useCase.UpdateProduct(c.Request.Context(), c.Param("id"), req); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "producto actualizado"})
}

// CustomerUseCaseInterface define a interface para o use case de clientes
type CustomerUseCaseInterface interface {
	ListCustomers(ctx context.Context) ([]Customer, error)
	CreateCustomer(ctx context.Context, req CustomerRequest) (*Customer, error)
}

// CustomerHandler contém os handlers HTTP de clientes
type CustomerHandler struct {
	useCase CustomerUseCaseInterface
}

// NewCustomerHandler cria uma nova instância de CustomerHandler
func NewCustomerHandler(useCase CustomerUseCaseInterface) *CustomerHandler {
	return &CustomerHandler{useCase: useCase}
}

// List lista todos os clientes
func (h *CustomerHandler) List(c *gin.Context) {
	customers, err := h.useCase.ListCustomers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, customers)
}

// Create cria um novo cliente
func (h *CustomerHandler) Create(c *gin.Context) {
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	customer, err := h.useCase.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"id": customer.ID})
}

// SaleUseCaseInterface define a interface para o use case de vendas
type SaleUseCaseInterface interface {
	CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleReceipt, error)
	ListSales(ctx context.Context) ([]SaleSummary, error)
	GetSale(ctx context.Context, saleID string) (*SaleDetail, error)
}

// SaleHandler contém os handlers HTTP de vendas
type SaleHandler struct {
	useCase SaleUseCaseInterface
	tracer  trace.Tracer
}

// NewSaleHandler cria uma nova instância de SaleHandler
func NewSaleHandler(useCase SaleUseCaseInterface, tracer trace.Tracer) *SaleHandler {
	return &SaleHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

// Create cria a venda e desconta o estoque atomicamente
func (h *SaleHandler) Create(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_sale_request")
	defer span.End()

	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		respondError(c, &ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	span.SetAttributes(attribute.Int("items", len(req.Items)))

	receipt, err := h.useCase.CreateSale(ctx, req)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	span.SetAttributes(attribute.String("venta_id", receipt.VentaID))
	respondOK(c, http.StatusCreated, receipt)
}

// List lista todas as vendas com o nome do cliente
func (h *SaleHandler) List(c *gin.Context) {
	sales, err := h.useCase.ListSales(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, sales)
}

// Get obtém o detalhe completo de uma venda com itens
func (h *SaleHandler) Get(c *gin.Context) {
	sale, err := h.useCase.GetSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, sale)
}

// DeliveryUseCaseInterface define a interface para o use case de deliveries
type DeliveryUseCaseInterface interface {
	CreateDelivery(ctx context.Context, req DeliveryRequest) (*Delivery, error)
	ListDeliveries(ctx context.Context, estado string) ([]DeliverySummary, error)
	UpdateDeliveryStatus(ctx context.Context, deliveryID, estado string) error
}

// DeliveryHandler contém os handlers HTTP de deliveries
type DeliveryHandler struct {
	useCase DeliveryUseCaseInterface
}

// NewDeliveryHandler cria uma nova instância de DeliveryHandler
func NewDeliveryHandler(useCase DeliveryUseCaseInterface) *DeliveryHandler {
	return &DeliveryHandler{useCase: useCase}
}

// Create cria um delivery para uma venda tipo delivery
func (h *DeliveryHandler) Create(c *gin.Context) {
	var req DeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	delivery, err := h.useCase.CreateDelivery(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"id": delivery.ID})
}

// List lista os deliveries, com filtro opcional de estado
func (h *DeliveryHandler) List(c *gin.Context) {
	deliveries, err := h.useCase.ListDeliveries(c.Request.Context(), c.Query("estado"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, deliveries)
}

// UpdateStatus atualiza o estado de um delivery
func (h *DeliveryHandler) UpdateStatus(c *gin.Context) {
	var req DeliveryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	if err := h.useCase.UpdateDeliveryStatus(c.Request.Context(), c.Param("id"), req.Estado); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "estado actualizado"})
}

// HealthCheck verifica a saúde do serviço
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "panaderia-pos"})
}
