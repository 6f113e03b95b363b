package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product representa um produto do catálogo da panadería
type Product struct {
	ID          string          `json:"id" db:"id"`
	Nombre      string          `json:"nombre" db:"nombre"`
	Categoria   string          `json:"categoria" db:"categoria"`
	Precio      decimal.Decimal `json:"precio" db:"precio"`
	Stock       int             `json:"stock" db:"stock"`
	Descripcion *string         `json:"descripcion" db:"descripcion"`
	Activo      bool            `json:"activo" db:"activo"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// NewProduct cria uma nova instância de Product
func NewProduct(nombre, categoria string, precio decimal.Decimal, stock int, descripcion *string) *Product {
	return &Product{
		ID:          uuid.New().String(),
		Nombre:      nombre,
		Categoria:   categoria,
		Precio:      precio,
		Stock:       stock,
		Descripcion: descripcion,
		Activo:      true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

// Customer representa um cliente
type Customer struct {
	ID        string    `json:"id" db:"id"`
	Nombre    string    `json:"nombre" db:"nombre"`
	Telefono  *string   `json:"telefono" db:"telefono"`
	Email     *string   `json:"email" db:"email"`
	Direccion *string   `json:"direccion" db:"direccion"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewCustomer cria uma nova instância de Customer
func NewCustomer(nombre string, telefono, email, direccion *string) *Customer {
	return &Customer{
		ID:        uuid.New().String(),
		Nombre:    nombre,
		Telefono:  telefono,
		Email:     email,
		Direccion: direccion,
		CreatedAt: time.Now(),
	}
}

// Sale representa uma venda. Imutável depois de criada: o total é
// calculado pelo coordenador a partir dos preços lidos na transação,
// nunca do payload do cliente.
type Sale struct {
	ID          string          `json:"id" db:"id"`
	ClienteID   *string         `json:"cliente_id" db:"cliente_id"`
	Total       decimal.Decimal `json:"total" db:"total"`
	TipoEntrega string          `json:"tipo_entrega" db:"tipo_entrega"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// NewSale cria uma nova instância de Sale
func NewSale(clienteID *string, total decimal.Decimal, tipoEntrega string) *Sale {
	return &Sale{
		ID:          uuid.New().String(),
		ClienteID:   clienteID,
		Total:       total,
		TipoEntrega: tipoEntrega,
		CreatedAt:   time.Now(),
	}
}

// TipoEntrega representa os tipos de entrega de uma venda
const (
	TipoEntregaPickup   = "pickup"
	TipoEntregaDelivery = "delivery"
)

// SaleItem representa um item de venda. PrecioUnitario é um snapshot do
// preço no momento da venda: mudanças posteriores no produto não alteram
// vendas históricas.
type SaleItem struct {
	ID             string          `json:"id" db:"id"`
	VentaID        string          `json:"venta_id" db:"venta_id"`
	ProductoID     string          `json:"producto_id" db:"producto_id"`
	Cantidad       int             `json:"cantidad" db:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" db:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// NewSaleItem cria uma nova instância de SaleItem calculando o subtotal
func NewSaleItem(ventaID, productoID string, cantidad int, precioUnitario decimal.Decimal) *SaleItem {
	return &SaleItem{
		ID:             uuid.New().String(),
		VentaID:        ventaID,
		ProductoID:     productoID,
		Cantidad:       cantidad,
		PrecioUnitario: precioUnitario,
		Subtotal:       precioUnitario.Mul(decimal.NewFromInt(int64(cantidad))),
	}
}

// Delivery representa o registro de entrega de uma venda tipo delivery
type Delivery struct {
	ID           string     `json:"id" db:"id"`
	VentaID      string     `json:"venta_id" db:"venta_id"`
	Direccion    string     `json:"direccion" db:"direccion"`
	Referencias  *string    `json:"referencias" db:"referencias"`
	FechaEntrega *time.Time `json:"fecha_entrega" db:"fecha_entrega"`
	Estado       string     `json:"estado" db:"estado"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// NewDelivery cria uma nova instância de Delivery com estado pendiente
func NewDelivery(ventaID, direccion string, referencias *string, fechaEntrega *time.Time) *Delivery {
	return &Delivery{
		ID:           uuid.New().String(),
		VentaID:      ventaID,
		Direccion:    direccion,
		Referencias:  referencias,
		FechaEntrega: fechaEntrega,
		Estado:       EstadoDeliveryPendiente,
		CreatedAt:    time.Now(),
	}
}

// EstadoDelivery representa os possíveis estados de um delivery
const (
	EstadoDeliveryPendiente = "pendiente"
	EstadoDeliveryEnCamino  = "en_camino"
	EstadoDeliveryEntregado = "entregado"
	EstadoDeliveryCancelado = "cancelado"
)

// ValidEstadoDelivery verifica se o estado informado é um estado conhecido
func ValidEstadoDelivery(estado string) bool {
	switch estado {
	case EstadoDeliveryPendiente, EstadoDeliveryEnCamino, EstadoDeliveryEntregado, EstadoDeliveryCancelado:
		return true
	}
	return false
}

// SaleSummary é a projeção da listagem de vendas com o nome do cliente
type SaleSummary struct {
	Sale
	ClienteNombre *string `json:"cliente_nombre" db:"cliente_nombre"`
}

// SaleItemDetail é um item de venda com o nome do produto
type SaleItemDetail struct {
	SaleItem
	ProductoNombre string `json:"producto_nombre" db:"producto_nombre"`
}

// SaleDetail é o detalhe completo de uma venda com cliente e itens
type SaleDetail struct {
	Sale
	ClienteNombre   *string          `json:"cliente_nombre" db:"cliente_nombre"`
	ClienteTelefono *string          `json:"telefono" db:"telefono"`
	Items           []SaleItemDetail `json:"items"`
}

// DeliverySummary é a projeção da listagem de deliveries com venda e cliente
type DeliverySummary struct {
	Delivery
	Total           decimal.Decimal `json:"total" db:"total"`
	ClienteNombre   *string         `json:"cliente_nombre" db:"cliente_nombre"`
	ClienteTelefono *string         `json:"telefono" db:"telefono"`
}
