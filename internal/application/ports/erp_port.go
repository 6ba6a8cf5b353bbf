package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// ItemData información de ítem del ERP (maestro de artículos).
type ItemData struct {
	ItemCode     string
	ItemName     string
	InventoryUoM string          // unidad base (canónica)
	PurchaseUoM  string          // unidad de compra
	SalesUoM     string          // unidad de venta
	NumInBuy     decimal.Decimal // unidades base por unidad de compra
	NumInSale    decimal.Decimal // unidades base por unidad de venta
	Valid        bool
}

// ErpService adaptador del sistema externo de registro (SAP Business One).
// Asumido eventualmente consistente, falible y asíncrono; los timeouts los
// acota el propio adaptador.
type ErpService interface {
	// GetBinCode resuelve el código legible de un bin a partir de su entry id.
	GetBinCode(ctx context.Context, binEntry int) (string, error)
	// GetWarehouseName resuelve el nombre de una bodega por su código. Bodega
	// inexistente devuelve cadena vacía sin error.
	GetWarehouseName(ctx context.Context, whsCode string) (string, error)
	GetItemInfo(ctx context.Context, itemCode string) (*ItemData, error)
	// GetOnHandQuantity cantidad on-hand reportada por el ERP para
	// (ítem, bodega, bin). binEntry nil = nivel bodega.
	GetOnHandQuantity(ctx context.Context, itemCode, whsCode string, binEntry *int) (decimal.Decimal, error)
}

// WmsBinStockService fuente independiente de cantidades por bin (bin-tracking
// WMS), usada como tercera opinión en la conciliación.
type WmsBinStockService interface {
	GetBinQuantity(ctx context.Context, itemCode string, binEntry int) (decimal.Decimal, error)
}
