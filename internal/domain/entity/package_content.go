package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PackageContent proyección del contenido actual de un paquete (una fila por ítem).
// Invariante: Quantity >= 0 y siempre igual a la suma con signo de las
// transacciones del ledger para ese (paquete, ítem).
type PackageContent struct {
	PackageID string
	ItemCode  string
	Quantity  decimal.Decimal // en unidad base (canónica)
	UnitType  string
	WhsCode   string
	BinEntry  *int
	AddedAt   time.Time // primera vez que el ítem entró al paquete
	AddedBy   string
	UpdatedAt time.Time
}
