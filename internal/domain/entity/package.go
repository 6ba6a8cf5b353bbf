package entity

import "time"

// Estados del ciclo de vida de un paquete.
// Open -> Closed | Cancelled (terminales) y Open <-> Locked (reversible).
const (
	PackageStatusOpen      = "OPEN"
	PackageStatusClosed    = "CLOSED"
	PackageStatusLocked    = "LOCKED"
	PackageStatusCancelled = "CANCELLED"
)

// Package raíz de agregado: una unidad física (pallet/caja) con código de barras propio,
// ubicación actual y colecciones de contenido e historial de ubicaciones.
type Package struct {
	ID       string
	Barcode  string // único, inmutable una vez asignado
	Status   string
	WhsCode  string
	BinEntry *int // ubicación (bin) actual; nil si el paquete está a nivel de bodega
	BinCode  string

	// Active=false mientras la operación origen (ej. picking multilínea) no haya
	// confirmado; los paquetes provisionales no son visibles para otros flujos.
	Active bool

	SourceType   string // operación que originó el paquete (OperationType*)
	SourceID     string
	SourceLineID *int

	Notes      string
	Attributes map[string]string // valores de atributos configurables (metadata definitions)

	CreatedAt time.Time
	CreatedBy string
	UpdatedAt time.Time

	ClosedAt     *time.Time
	ClosedBy     string
	CancelReason string
	LockReason   string

	// Proyecciones cargadas bajo demanda.
	Contents        []*PackageContent
	LocationHistory []*PackageLocationHistory
}

// IsTerminal indica si el estado no admite más transiciones.
func (p *Package) IsTerminal() bool {
	return p.Status == PackageStatusClosed || p.Status == PackageStatusCancelled
}

// CanMutateContent indica si se admite Add/Remove de contenido (solo OPEN).
func (p *Package) CanMutateContent() bool {
	return p.Status == PackageStatusOpen
}
