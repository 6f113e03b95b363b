package main

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SaleReceipt é o resultado de uma venda criada com sucesso
type SaleReceipt struct {
	VentaID string          `json:"venta_id"`
	Total   decimal.Decimal `json:"total"`
}

// SaleUseCase contém a lógica de negócio das vendas. CreateSale é o
// coordenador transacional: valida estoque, calcula o total e persiste
// venda, itens e decrementos como uma unidade só.
type SaleUseCase struct {
	products ProductRepository
	sales    SaleRepository
	logger   *zap.Logger
	tracer   trace.Tracer

	ventasCreated  metric.Int64Counter
	ventasRejected metric.Int64Counter
}

// NewSaleUseCase cria uma nova instância de SaleUseCase
func NewSaleUseCase(products ProductRepository, sales SaleRepository, logger *zap.Logger) *SaleUseCase {
	meter := otel.Meter("panaderia-pos")
	created, _ := meter.Int64Counter("ventas_created_total")
	rejected, _ := meter.Int64Counter("ventas_rejected_total")

	return &SaleUseCase{
		products:       products,
		sales:          sales,
		logger:         logger,
		tracer:         otel.Tracer("panaderia-pos"),
		ventasCreated:  created,
		ventasRejected: rejected,
	}
}

// CreateSale cria a venda dentro de uma transação única:
//
//  1. lê cada produto com lock pessimista, na ordem enviada pelo caller;
//  2. valida existência e estoque, acumulando o total com decimal exato;
//  3. insere a venda com o total calculado no servidor;
//  4. insere cada item com o preço lido no passo 1 e executa o decremento
//     condicional (stock >= cantidad no momento da escrita);
//  5. commit. Qualquer erro em qualquer passo desfaz tudo via rollback.
//
// Um decremento condicional que falhar (corrida perdida para uma venda
// concorrente) aborta a transação inteira e devolve InsufficientStock ao
// caller, que pode reenviar. Nunca há retry silencioso.
func (uc *SaleUseCase) CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleReceipt, error) {
	ctx, span := uc.tracer.Start(ctx, "create_sale")
	defer span.End()
	span.SetAttributes(
		attribute.Int("items", len(req.Items)),
		attribute.String("tipo_entrega", req.TipoEntrega),
	)

	if err := validateSaleRequest(req); err != nil {
		uc.reject(ctx, span, err)
		return nil, err
	}

	tx, err := uc.sales.BeginTx(ctx)
	if err != nil {
		return nil, classifyTxError(err)
	}
	defer tx.Rollback()

	// Leitura e validação sob lock, na ordem do caller
	total := decimal.Zero
	leidos := make([]*Product, len(req.Items))
	for i, item := range req.Items {
		product, err := uc.products.GetForUpdate(ctx, tx, item.ProductoID)
		if err != nil {
			err = classifyTxError(err)
			uc.reject(ctx, span, err)
			return nil, err
		}

		if product.Stock < item.Cantidad {
			err := &InsufficientStockError{
				ProductoID: item.ProductoID,
				Requested:  item.Cantidad,
				Available:  product.Stock,
			}
			uc.reject(ctx, span, err)
			return nil, err
		}

		leidos[i] = product
		total = total.Add(product.Precio.Mul(decimal.NewFromInt(int64(item.Cantidad))))
	}

	sale := NewSale(req.ClienteID, total, req.TipoEntrega)
	if err := uc.sales.InsertSale(ctx, tx, sale); err != nil {
		return nil, classifyTxError(err)
	}

	// Itens com preço snapshot e decremento condicional
	for i, item := range req.Items {
		saleItem := NewSaleItem(sale.ID, item.ProductoID, item.Cantidad, leidos[i].Precio)
		if err := uc.sales.InsertItem(ctx, tx, saleItem); err != nil {
			return nil, classifyTxError(err)
		}

		ok, err := uc.products.DecrementStockIfSufficient(ctx, tx, item.ProductoID, item.Cantidad)
		if err != nil {
			return nil, classifyTxError(err)
		}
		if !ok {
			err := &InsufficientStockError{
				ProductoID: item.ProductoID,
				Requested:  item.Cantidad,
				Available:  leidos[i].Stock,
			}
			uc.logger.Warn("❌ [VENTA] conditional decrement lost the race",
				zap.String("venta_id", sale.ID),
				zap.String("producto_id", item.ProductoID))
			uc.reject(ctx, span, err)
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		err = classifyTxError(err)
		uc.reject(ctx, span, err)
		return nil, err
	}

	uc.logger.Info("✅ [VENTA] created",
		zap.String("venta_id", sale.ID),
		zap.String("total", total.String()),
		zap.Int("items", len(req.Items)))
	uc.ventasCreated.Add(ctx, 1)
	span.SetAttributes(attribute.String("venta_id", sale.ID))

	return &SaleReceipt{VentaID: sale.ID, Total: sale.Total}, nil
}

func (uc *SaleUseCase) reject(ctx context.Context, span trace.Span, err error) {
	span.RecordError(err)
	uc.ventasRejected.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("retryable", IsRetryable(err))))
}

// validateSaleRequest aplica as pré-condições antes de abrir transação
func validateSaleRequest(req CreateSaleRequest) error {
	if len(req.Items) == 0 {
		return &ValidationError{Field: "items", Reason: "must not be empty"}
	}
	for _, item := range req.Items {
		if item.ProductoID == "" {
			return &ValidationError{Field: "producto_id", Reason: "must not be empty"}
		}
		if item.Cantidad <= 0 {
			return &ValidationError{Field: "cantidad", Reason: "must be greater than zero"}
		}
	}
	if req.TipoEntrega != TipoEntregaPickup && req.TipoEntrega != TipoEntregaDelivery {
		return &ValidationError{Field: "tipo_entrega", Reason: "must be pickup or delivery"}
	}
	return nil
}

// ListSales busca as vendas com o nome do cliente
func (uc *SaleUseCase) ListSales(ctx context.Context) ([]SaleSummary, error) {
	return uc.sales.List(ctx)
}

// GetSale busca o detalhe completo de uma venda
func (uc *SaleUseCase) GetSale(ctx context.Context, saleID string) (*SaleDetail, error) {
	return uc.sales.Get(ctx, saleID)
}

// CatalogUseCase contém a lógica de negócio do catálogo de produtos
type CatalogUseCase struct {
	products ProductRepository
	logger   *zap.Logger
}

// NewCatalogUseCase cria uma nova instância de CatalogUseCase
func NewCatalogUseCase(products ProductRepository, logger *zap.Logger) *CatalogUseCase {
	return &CatalogUseCase{
		products: products,
		logger:   logger,
	}
}

// ListProducts busca os produtos com filtros opcionais
func (uc *CatalogUseCase) ListProducts(ctx context.Context, categoria string, activo *bool) ([]Product, error) {
	return uc.products.List(ctx, categoria, activo)
}

// GetProduct busca um produto pelo ID
func (uc *CatalogUseCase) GetProduct(ctx context.Context, productID string) (*Product, error) {
	return uc.products.Get(ctx, productID)
}

// CreateProduct valida e insere um novo produto
func (uc *CatalogUseCase) CreateProduct(ctx context.Context, req ProductRequest) (*Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	stock := 0
	if req.Stock != nil {
		stock = *req.Stock
	}

	product := NewProduct(req.Nombre, req.Categoria, req.Precio, stock, req.Descripcion)
	if req.Activo != nil {
		product.Activo = *req.Activo
	}

	if err := uc.products.Create(ctx, product); err != nil {
		return nil, err
	}

	uc.logger.Info("✅ [PRODUCTO] created", zap.String("id", product.ID), zap.String("nombre", product.Nombre))
	return product, nil
}

// UpdateProduct valida e atualiza um produto completo
func (uc *CatalogUseCase) UpdateProduct(ctx context.Context, productID string, req ProductRequest) error {
	if err := validateProductRequest(req); err != nil {
		return err
	}
	if req.Stock == nil {
		return &ValidationError{Field: "stock", Reason: "is required"}
	}

	product := &Product{
		ID:          productID,
		Nombre:      req.Nombre,
		Categoria:   req.Categoria,
		Precio:      req.Precio,
		Stock:       *req.Stock,
		Descripcion: req.Descripcion,
		Activo:      true,
	}
	if req.Activo != nil {
		product.Activo = *req.Activo
	}

	return uc.products.Update(ctx, product)
}

func validateProductRequest(req ProductRequest) error {
	if req.Precio.IsNegative() {
		return &ValidationError{Field: "precio", Reason: "must not be negative"}
	}
	if req.Stock != nil && *req.Stock < 0 {
		return &ValidationError{Field: "stock", Reason: "must not be negative"}
	}
	return nil
}

// CustomerUseCase contém a lógica de negócio dos clientes
type CustomerUseCase struct {
	customers CustomerRepository
}

// NewCustomerUseCase cria uma nova instância de CustomerUseCase
func NewCustomerUseCase(customers CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{customers: customers}
}

// ListCustomers busca todos os clientes
func (uc *CustomerUseCase) ListCustomers(ctx context.Context) ([]Customer, error) {
	return uc.customers.List(ctx)
}

// CreateCustomer insere um novo cliente
func (uc *CustomerUseCase) CreateCustomer(ctx context.Context, req CustomerRequest) (*Customer, error) {
	customer := NewCustomer(req.Nombre, req.Telefono, req.Email, req.Direccion)
	if err := uc.customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// DeliveryUseCase contém a lógica de negócio dos deliveries
type DeliveryUseCase struct {
	deliveries DeliveryRepository
	logger     *zap.Logger
}

// NewDeliveryUseCase cria uma nova instância de DeliveryUseCase
func NewDeliveryUseCase(deliveries DeliveryRepository, logger *zap.Logger) *DeliveryUseCase {
	return &DeliveryUseCase{
		deliveries: deliveries,
		logger:     logger,
	}
}

// CreateDelivery cria o registro de delivery. A venda referenciada
// precisa existir e ter tipo_entrega = delivery.
func (uc *DeliveryUseCase) CreateDelivery(ctx context.Context, req DeliveryRequest) (*Delivery, error) {
	var fechaEntrega *time.Time
	if req.FechaEntrega != nil {
		parsed, err := time.Parse("2006-01-02", *req.FechaEntrega)
		if err != nil {
			return nil, &ValidationError{Field: "fecha_entrega", Reason: "must be a date in YYYY-MM-DD format"}
		}
		fechaEntrega = &parsed
	}

	deliverable, err := uc.deliveries.SaleIsDeliverable(ctx, req.VentaID)
	if err != nil {
		return nil, err
	}
	if !deliverable {
		return nil, &NotFoundError{Entity: "venta", ID: req.VentaID}
	}

	delivery := NewDelivery(req.VentaID, req.Direccion, req.Referencias, fechaEntrega)
	if err := uc.deliveries.Create(ctx, delivery); err != nil {
		return nil, err
	}

	uc.logger.Info("✅ [DELIVERY] created",
		zap.String("id", delivery.ID), zap.String("venta_id", delivery.VentaID))
	return delivery, nil
}

// ListDeliveries busca os deliveries, filtrando por estado se informado
func (uc *DeliveryUseCase) ListDeliveries(ctx context.Context, estado string) ([]DeliverySummary, error) {
	return uc.deliveries.List(ctx, estado)
}

// UpdateDeliveryStatus atualiza o estado de um delivery validando o enum
func (uc *DeliveryUseCase) UpdateDeliveryStatus(ctx context.Context, deliveryID, estado string) error {
	if !ValidEstadoDelivery(estado) {
		return &ValidationError{Field: "estado", Reason: "unknown delivery status"}
	}
	return uc.deliveries.UpdateStatus(ctx, deliveryID, estado)
}
