package entity

import "time"

// Tipos de movimiento de ubicación de un paquete.
const (
	MovementTypeRelocate = "RELOCATE" // traslado bin a bin dentro de la misma bodega
	MovementTypeTransfer = "TRANSFER" // traslado entre bodegas
	MovementTypeExternal = "EXTERNAL" // registrado a posteriori desde el sistema externo
)

// PackageLocationHistory entrada append-only del historial de movimientos.
// Invariante: el "to" de la entrada N coincide con la ubicación proyectada del
// paquete inmediatamente antes de anexar la entrada N+1 (sin huecos).
type PackageLocationHistory struct {
	ID           string
	PackageID    string
	MovementType string
	FromWhsCode  string
	FromBinEntry *int
	FromBinCode  string
	ToWhsCode    string
	ToBinEntry   *int
	ToBinCode    string
	Source       SourceOperationRef
	UserID       string
	Notes        string
	CreatedAt    time.Time
}
