package dto

import (
	"time"

	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
)

// CreatePackageRequest entrada para crear un paquete.
// El origen debe ser inferible: source_type PACKAGE/PICKING, o source_id, o bin_entry.
type CreatePackageRequest struct {
	SourceType   string            `json:"source_type" validate:"omitempty,oneof=GOODS_RECEIPT PICKING TRANSFER COUNTING PACKAGE MANUAL"`
	SourceID     string            `json:"source_id"`
	SourceLineID *int              `json:"source_line_id"`
	BinEntry     *int              `json:"bin_entry"`
	Provisional  bool              `json:"provisional"`
	Notes        string            `json:"notes" validate:"max=500"`
	Attributes   map[string]string `json:"attributes"`
}

// CancelPackageRequest motivo obligatorio de cancelación.
type CancelPackageRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

// LockPackageRequest motivo opcional del bloqueo.
type LockPackageRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// SourceBatchRequest operación por lote sobre los paquetes de una operación origen.
type SourceBatchRequest struct {
	SourceType string `json:"source_type" validate:"required,oneof=GOODS_RECEIPT PICKING TRANSFER COUNTING PACKAGE MANUAL"`
	SourceID   string `json:"source_id" validate:"required"`
	Reason     string `json:"reason"` // obligatorio solo para cancelación por lote
}

// PackageResponse salida de un paquete.
type PackageResponse struct {
	ID           string            `json:"id"`
	Barcode      string            `json:"barcode"`
	Status       string            `json:"status"`
	WhsCode      string            `json:"whs_code"`
	BinEntry     *int              `json:"bin_entry,omitempty"`
	BinCode      string            `json:"bin_code,omitempty"`
	Active       bool              `json:"active"`
	SourceType   string            `json:"source_type,omitempty"`
	SourceID     string            `json:"source_id,omitempty"`
	SourceLineID *int              `json:"source_line_id,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	CreatedBy    string            `json:"created_by"`
	UpdatedAt    time.Time         `json:"updated_at"`
	ClosedAt     *time.Time        `json:"closed_at,omitempty"`
	CancelReason string            `json:"cancel_reason,omitempty"`
	LockReason   string            `json:"lock_reason,omitempty"`
}

// NewPackageResponse mapea la entidad a su representación HTTP.
func NewPackageResponse(pkg *entity.Package) PackageResponse {
	return PackageResponse{
		ID:           pkg.ID,
		Barcode:      pkg.Barcode,
		Status:       pkg.Status,
		WhsCode:      pkg.WhsCode,
		BinEntry:     pkg.BinEntry,
		BinCode:      pkg.BinCode,
		Active:       pkg.Active,
		SourceType:   pkg.SourceType,
		SourceID:     pkg.SourceID,
		SourceLineID: pkg.SourceLineID,
		Notes:        pkg.Notes,
		Attributes:   pkg.Attributes,
		CreatedAt:    pkg.CreatedAt,
		CreatedBy:    pkg.CreatedBy,
		UpdatedAt:    pkg.UpdatedAt,
		ClosedAt:     pkg.ClosedAt,
		CancelReason: pkg.CancelReason,
		LockReason:   pkg.LockReason,
	}
}

// NewPackageListResponse mapea una lista de entidades.
func NewPackageListResponse(pkgs []*entity.Package) []PackageResponse {
	out := make([]PackageResponse, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, NewPackageResponse(p))
	}
	return out
}

// PackagePageResponse página de paquetes con sus metadatos de paginación.
type PackagePageResponse struct {
	Items []PackageResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// NewPackagePageResponse arma la página a partir de la petición normalizada.
func NewPackagePageResponse(pkgs []*entity.Package, req PageRequest) PackagePageResponse {
	items := NewPackageListResponse(pkgs)
	return PackagePageResponse{Items: items, Page: NewPageResponse(req, len(items))}
}
