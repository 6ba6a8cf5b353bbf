package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de inconsistencia detectados por el motor de conciliación.
const (
	InconsistencyQuantityMismatch = "QUANTITY_MISMATCH"
	InconsistencyLocationMismatch = "LOCATION_MISMATCH"
	InconsistencyOrphanedPackage  = "ORPHANED_PACKAGE"
	InconsistencyDuplicateBarcode = "DUPLICATE_BARCODE"
	InconsistencyLookupError      = "LOOKUP_ERROR"
)

// Severidades de inconsistencia.
const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

// PackageInconsistency discrepancia entre lo rastreado por paquetes y el ERP/WMS.
// Referencia débil al paquete (solo lookup): puede sobrevivir para auditoría.
// Se crea en un scan y solo muta por resolución o por un re-scan que detecta
// la misma causa raíz (clave lógica: paquete + ítem + tipo).
type PackageInconsistency struct {
	ID        string
	PackageID string
	Barcode   string // desnormalizado para reporte
	ItemCode  string
	Batch     string
	Serial    string
	WhsCode   string
	BinEntry  *int

	// Tres cantidades de origen independiente.
	ErpQuantity     decimal.Decimal // reportada por el ERP (on-hand)
	WmsQuantity     decimal.Decimal // fuente independiente de bin-tracking WMS
	PackageQuantity decimal.Decimal // derivada del ledger de paquetes

	Type       string
	Severity   string
	DetectedAt time.Time

	Resolved         bool
	ResolvedBy       string
	ResolutionAction string
	ResolvedAt       *time.Time

	ErrorMessage string
	Notes        string
}
