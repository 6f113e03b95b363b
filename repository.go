package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tx interface para transações
type Tx interface {
	Commit() error
	Rollback() error
}

// PostgresTx implementa a interface Tx
type PostgresTx struct {
	tx pgx.Tx
}

func (t *PostgresTx) Commit() error {
	return t.tx.Commit(context.Background())
}

func (t *PostgresTx) Rollback() error {
	return t.tx.Rollback(context.Background())
}

// ProductRepository define a interface para operações de banco de dados de produtos
type ProductRepository interface {
	List(ctx context.Context, categoria string, activo *bool) ([]Product, error)
	Get(ctx context.Context, productID string) (*Product, error)
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error

	// GetForUpdate obtém o produto com lock pessimista dentro da transação
	GetForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error)

	// DecrementStockIfSufficient desconta o estoque somente se a condição
	// stock >= cantidad ainda valer no momento da escrita. Retorna false,
	// sem efeito colateral, se o estoque for insuficiente.
	DecrementStockIfSufficient(ctx context.Context, tx Tx, productID string, cantidad int) (bool, error)
}

// PostgresProductRepository implementa ProductRepository usando PostgreSQL
type PostgresProductRepository struct {
	db *pgxpool.Pool
}

// NewProductRepository cria uma nova instância de PostgresProductRepository
func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &PostgresProductRepository{db: db}
}

const productColumns = "id, nombre, categoria, precio, stock, descripcion, activo, created_at, updated_at"

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(&p.ID, &p.Nombre, &p.Categoria, &p.Precio, &p.Stock,
		&p.Descripcion, &p.Activo, &p.CreatedAt, &p.UpdatedAt)
}

// List busca os produtos com filtros opcionais de categoria e ativo
func (r *PostgresProductRepository) List(ctx context.Context, categoria string, activo *bool) ([]Product, error) {
	query := "SELECT " + productColumns + " FROM productos WHERE 1=1"
	args := []any{}

	if categoria != "" {
		args = append(args, categoria)
		query += fmt.Sprintf(" AND categoria = $%d", len(args))
	}
	if activo != nil {
		args = append(args, *activo)
		query += fmt.Sprintf(" AND activo = $%d", len(args))
	}
	query += " ORDER BY categoria, nombre"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Get busca um produto pelo ID
func (r *PostgresProductRepository) Get(ctx context.Context, productID string) (*Product, error) {
	var p Product
	err := scanProduct(r.db.QueryRow(ctx,
		"SELECT "+productColumns+" FROM productos WHERE id = $1", productID), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "producto", ID: productID}
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create insere um novo produto
func (r *PostgresProductRepository) Create(ctx context.Context, product *Product) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO productos (id, nombre, categoria, precio, stock, descripcion, activo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, product.ID, product.Nombre, product.Categoria, product.Precio, product.Stock,
		product.Descripcion, product.Activo, product.CreatedAt, product.UpdatedAt)
	return err
}

// Update atualiza um produto completo
func (r *PostgresProductRepository) Update(ctx context.Context, product *Product) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE productos
		SET nombre = $1, categoria = $2, precio = $3, stock = $4, descripcion = $5, activo = $6,
		    updated_at = NOW()
		WHERE id = $7
	`, product.Nombre, product.Categoria, product.Precio, product.Stock,
		product.Descripcion, product.Activo, product.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "producto", ID: product.ID}
	}
	return nil
}

// GetForUpdate obtém o produto com lock pessimista (SELECT FOR UPDATE).
// A linha fica bloqueada até o Commit ou Rollback da transação.
func (r *PostgresProductRepository) GetForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error) {
	pgTx := tx.(*PostgresTx).tx

	var p Product
	err := scanProduct(pgTx.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM productos
		WHERE id = $1
		FOR UPDATE
	`, productID), &p)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "producto", ID: productID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product with lock: %w", err)
	}
	return &p, nil
}

// DecrementStockIfSufficient executa o decremento condicional atômico
func (r *PostgresProductRepository) DecrementStockIfSufficient(ctx context.Context, tx Tx, productID string, cantidad int) (bool, error) {
	pgTx := tx.(*PostgresTx).tx

	tag, err := pgTx.Exec(ctx, `
		UPDATE productos
		SET stock = stock - $1,
		    updated_at = NOW()
		WHERE id = $2 AND stock >= $1
	`, cantidad, productID)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// SaleRepository define a interface para operações de banco de dados de vendas.
// Append-only: vendas e itens nunca são atualizados nem apagados.
type SaleRepository interface {
	BeginTx(ctx context.Context) (Tx, error)
	InsertSale(ctx context.Context, tx Tx, sale *Sale) error
	InsertItem(ctx context.Context, tx Tx, item *SaleItem) error
	List(ctx context.Context) ([]SaleSummary, error)
	Get(ctx context.Context, saleID string) (*SaleDetail, error)
}

// PostgresSaleRepository implementa SaleRepository usando PostgreSQL
type PostgresSaleRepository struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

// NewSaleRepository cria uma nova instância de PostgresSaleRepository
func NewSaleRepository(db *pgxpool.Pool, lockTimeout time.Duration) SaleRepository {
	return &PostgresSaleRepository{
		db:          db,
		lockTimeout: lockTimeout,
	}
}

// BeginTx inicia uma nova transação com lock_timeout limitado, para que
// uma venda esperando lock de outra transação aborte em vez de pendurar
func (r *PostgresSaleRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}

	// SET LOCAL não aceita placeholder; o valor vem de configuração, não do caller
	_, err = tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds()))
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}

	return &PostgresTx{tx: tx}, nil
}

// InsertSale insere a venda dentro da transação
func (r *PostgresSaleRepository) InsertSale(ctx context.Context, tx Tx, sale *Sale) error {
	pgTx := tx.(*PostgresTx).tx

	_, err := pgTx.Exec(ctx, `
		INSERT INTO ventas (id, cliente_id, total, tipo_entrega, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, sale.ID, sale.ClienteID, sale.Total, sale.TipoEntrega, sale.CreatedAt)
	return err
}

// InsertItem insere um item de venda dentro da transação
func (r *PostgresSaleRepository) InsertItem(ctx context.Context, tx Tx, item *SaleItem) error {
	pgTx := tx.(*PostgresTx).tx

	_, err := pgTx.Exec(ctx, `
		INSERT INTO venta_items (id, venta_id, producto_id, cantidad, precio_unitario, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, item.ID, item.VentaID, item.ProductoID, item.Cantidad, item.PrecioUnitario, item.Subtotal)
	return err
}

// List busca as vendas com o nome do cliente
func (r *PostgresSaleRepository) List(ctx context.Context) ([]SaleSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT v.id, v.cliente_id, v.total, v.tipo_entrega, v.created_at, c.nombre AS cliente_nombre
		FROM ventas v
		LEFT JOIN clientes c ON v.cliente_id = c.id
		ORDER BY v.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := []SaleSummary{}
	for rows.Next() {
		var s SaleSummary
		if err := rows.Scan(&s.ID, &s.ClienteID, &s.Total, &s.TipoEntrega, &s.CreatedAt, &s.ClienteNombre); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// Get busca o detalhe completo de uma venda com cliente e itens
func (r *PostgresSaleRepository) Get(ctx context.Context, saleID string) (*SaleDetail, error) {
	var d SaleDetail
	err := r.db.QueryRow(ctx, `
		SELECT v.id, v.cliente_id, v.total, v.tipo_entrega, v.created_at, c.nombre AS cliente_nombre, c.telefono
		FROM ventas v
		LEFT JOIN clientes c ON v.cliente_id = c.id
		WHERE v.id = $1
	`, saleID).Scan(&d.ID, &d.ClienteID, &d.Total, &d.TipoEntrega, &d.CreatedAt, &d.ClienteNombre, &d.ClienteTelefono)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Entity: "venta", ID: saleID}
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT vi.id, vi.venta_id, vi.producto_id, vi.cantidad, vi.precio_unitario, vi.subtotal,
		       p.nombre AS producto_nombre
		FROM venta_items vi
		JOIN productos p ON vi.producto_id = p.id
		WHERE vi.venta_id = $1
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	d.Items = []SaleItemDetail{}
	for rows.Next() {
		var it SaleItemDetail
		if err := rows.Scan(&it.ID, &it.VentaID, &it.ProductoID, &it.Cantidad,
			&it.PrecioUnitario, &it.Subtotal, &it.ProductoNombre); err != nil {
			return nil, err
		}
		d.Items = append(d.Items, it)
	}
	return &d, rows.Err()
}

// CustomerRepository define a interface para operações de banco de dados de clientes
type CustomerRepository interface {
	List(ctx context.Context) ([]Customer, error)
	Create(ctx context.Context, customer *Customer) error
}

// PostgresCustomerRepository implementa CustomerRepository usando PostgreSQL
type PostgresCustomerRepository struct {
	db *pgxpool.Pool
}

// NewCustomerRepository cria uma nova instância de PostgresCustomerRepository
func NewCustomerRepository(db *pgxpool.Pool) CustomerRepository {
	return &PostgresCustomerRepository{db: db}
}

// List busca todos os clientes ordenados por nome
func (r *PostgresCustomerRepository) List(ctx context.Context) ([]Customer, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, nombre, telefono, email, direccion, created_at
		FROM clientes
		ORDER BY nombre
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []Customer{}
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Nombre, &c.Telefono, &c.Email, &c.Direccion, &c.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// Create insere um novo cliente
func (r *PostgresCustomerRepository) Create(ctx context.Context, customer *Customer) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO clientes (id, nombre, telefono, email, direccion, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, customer.ID, customer.Nombre, customer.Telefono, customer.Email, customer.Direccion, customer.CreatedAt)
	return err
}

// DeliveryRepository define a interface para operações de banco de dados de deliveries
type DeliveryRepository interface {
	// SaleIsDeliverable verifica se a venda existe e tem tipo_entrega = delivery
	SaleIsDeliverable(ctx context.Context, ventaID string) (bool, error)
	Create(ctx context.Context, delivery *Delivery) error
	List(ctx context.Context, estado string) ([]DeliverySummary, error)
	UpdateStatus(ctx context.Context, deliveryID, estado string) error
}

// PostgresDeliveryRepository implementa DeliveryRepository usando PostgreSQL
type PostgresDeliveryRepository struct {
	db *pgxpool.Pool
}

// NewDeliveryRepository cria uma nova instância de PostgresDeliveryRepository
func NewDeliveryRepository(db *pgxpool.Pool) DeliveryRepository {
	return &PostgresDeliveryRepository{db: db}
}

// SaleIsDeliverable verifica se a venda existe e tem tipo_entrega = delivery
func (r *PostgresDeliveryRepository) SaleIsDeliverable(ctx context.Context, ventaID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM ventas WHERE id = $1 AND tipo_entrega = $2)
	`, ventaID, TipoEntregaDelivery).Scan(&exists)
	return exists, err
}

// Create insere um novo delivery
func (r *PostgresDeliveryRepository) Create(ctx context.Context, delivery *Delivery) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO deliveries (id, venta_id, direccion, referencias, fecha_entrega, estado, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, delivery.ID, delivery.VentaID, delivery.Direccion, delivery.Referencias,
		delivery.FechaEntrega, delivery.Estado, delivery.CreatedAt)
	return err
}

// List busca os deliveries com venda e cliente, filtrando por estado se informado
func (r *PostgresDeliveryRepository) List(ctx context.Context, estado string) ([]DeliverySummary, error) {
	query := `
		SELECT d.id, d.venta_id, d.direccion, d.referencias, d.fecha_entrega, d.estado, d.created_at,
		       v.total, c.nombre AS cliente_nombre, c.telefono
		FROM deliveries d
		JOIN ventas v ON d.venta_id = v.id
		LEFT JOIN clientes c ON v.cliente_id = c.id
	`
	args := []any{}
	if estado != "" {
		query += " WHERE d.estado = $1"
		args = append(args, estado)
	}
	query += " ORDER BY d.created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deliveries := []DeliverySummary{}
	for rows.Next() {
		var d DeliverySummary
		if err := rows.Scan(&d.ID, &d.VentaID, &d.Direccion, &d.Referencias, &d.FechaEntrega,
			&d.Estado, &d.CreatedAt, &d.Total, &d.ClienteNombre, &d.ClienteTelefono); err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

// UpdateStatus atualiza o estado de um delivery
func (r *PostgresDeliveryRepository) UpdateStatus(ctx context.Context, deliveryID, estado string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE deliveries SET estado = $1 WHERE id = $2
	`, estado, deliveryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "delivery", ID: deliveryID}
	}
	return nil
}
