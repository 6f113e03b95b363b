package main

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewProduct(t *testing.T) {
	// Arrange
	nombre := "Pan francés"
	categoria := "panes"
	precio := decimal.RequireFromString("1.50")
	descripcion := "Pan del día"

	// Act
	product := NewProduct(nombre, categoria, precio, 20, &descripcion)

	// Assert
	if product.ID == "" {
		t.Error("Expected ID to be generated")
	}
	if product.Nombre != nombre {
		t.Errorf("Expected Nombre %s, got %s", nombre, product.Nombre)
	}
	if product.Categoria != categoria {
		t.Errorf("Expected Categoria %s, got %s", categoria, product.Categoria)
	}
	if !product.Precio.Equal(precio) {
		t.Errorf("Expected Precio %s, got %s", precio, product.Precio)
	}
	if product.Stock != 20 {
		t.Errorf("Expected Stock 20, got %d", product.Stock)
	}
	if !product.Activo {
		t.Error("Expected new product to be activo")
	}
	if product.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}

	now := time.Now()
	if product.CreatedAt.After(now) || product.CreatedAt.Before(now.Add(-time.Second)) {
		t.Error("CreatedAt is not within expected time range")
	}
}

func TestNewSale(t *testing.T) {
	// Arrange
	clienteID := "cliente-123"
	total := decimal.RequireFromString("27.00")

	// Act
	sale := NewSale(&clienteID, total, TipoEntregaDelivery)

	// Assert
	if sale.ID == "" {
		t.Error("Expected ID to be generated")
	}
	if sale.ClienteID == nil || *sale.ClienteID != clienteID {
		t.Errorf("Expected ClienteID %s, got %v", clienteID, sale.ClienteID)
	}
	if !sale.Total.Equal(total) {
		t.Errorf("Expected Total %s, got %s", total, sale.Total)
	}
	if sale.TipoEntrega != TipoEntregaDelivery {
		t.Errorf("Expected TipoEntrega %s, got %s", TipoEntregaDelivery, sale.TipoEntrega)
	}
	if sale.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestNewSaleAnonymousCustomer(t *testing.T) {
	sale := NewSale(nil, decimal.RequireFromString("5.00"), TipoEntregaPickup)

	if sale.ClienteID != nil {
		t.Errorf("Expected nil ClienteID, got %v", sale.ClienteID)
	}
}

func TestNewSaleItemComputesSubtotal(t *testing.T) {
	// Arrange
	precio := decimal.RequireFromString("3.50")

	// Act
	item := NewSaleItem("venta-1", "producto-2", 2, precio)

	// Assert
	if item.VentaID != "venta-1" {
		t.Errorf("Expected VentaID venta-1, got %s", item.VentaID)
	}
	if item.Cantidad != 2 {
		t.Errorf("Expected Cantidad 2, got %d", item.Cantidad)
	}
	if !item.PrecioUnitario.Equal(precio) {
		t.Errorf("Expected PrecioUnitario %s, got %s", precio, item.PrecioUnitario)
	}
	expected := decimal.RequireFromString("7.00")
	if !item.Subtotal.Equal(expected) {
		t.Errorf("Expected Subtotal %s, got %s", expected, item.Subtotal)
	}
}

func TestNewDelivery(t *testing.T) {
	// Arrange
	referencias := "Portón azul"
	fecha := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	// Act
	delivery := NewDelivery("venta-1", "Av. Siempre Viva 742", &referencias, &fecha)

	// Assert
	if delivery.ID == "" {
		t.Error("Expected ID to be generated")
	}
	if delivery.Estado != EstadoDeliveryPendiente {
		t.Errorf("Expected Estado %s, got %s", EstadoDeliveryPendiente, delivery.Estado)
	}
	if delivery.FechaEntrega == nil || !delivery.FechaEntrega.Equal(fecha) {
		t.Errorf("Expected FechaEntrega %v, got %v", fecha, delivery.FechaEntrega)
	}
}

func TestTipoEntrega(t *testing.T) {
	// Test that constants are defined correctly
	if TipoEntregaPickup != "pickup" {
		t.Errorf("Expected TipoEntregaPickup to be 'pickup', got %s", TipoEntregaPickup)
	}
	if TipoEntregaDelivery != "delivery" {
		t.Errorf("Expected TipoEntregaDelivery to be 'delivery', got %s", TipoEntregaDelivery)
	}
}

func TestValidEstadoDelivery(t *testing.T) {
	for _, estado := range []string{"pendiente", "en_camino", "entregado", "cancelado"} {
		if !ValidEstadoDelivery(estado) {
			t.Errorf("Expected %s to be a valid estado", estado)
		}
	}
	if ValidEstadoDelivery("volando") {
		t.Error("Expected 'volando' to be rejected")
	}
	if ValidEstadoDelivery("") {
		t.Error("Expected empty estado to be rejected")
	}
}
