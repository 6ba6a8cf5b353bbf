package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
)

// ResolveInconsistencyRequest cierre manual de una inconsistencia.
type ResolveInconsistencyRequest struct {
	Action string `json:"action" validate:"required,min=1,max=500"`
}

// ValidateBarcodeRequest validación de formato y colisión de un código escaneado.
type ValidateBarcodeRequest struct {
	Barcode string `json:"barcode" validate:"required"`
}

// InconsistencyResponse discrepancia detectada por el motor de conciliación.
type InconsistencyResponse struct {
	ID               string          `json:"id"`
	PackageID        string          `json:"package_id"`
	Barcode          string          `json:"barcode"`
	ItemCode         string          `json:"item_code,omitempty"`
	WhsCode          string          `json:"whs_code"`
	BinEntry         *int            `json:"bin_entry,omitempty"`
	ErpQuantity      decimal.Decimal `json:"erp_quantity"`
	WmsQuantity      decimal.Decimal `json:"wms_quantity"`
	PackageQuantity  decimal.Decimal `json:"package_quantity"`
	Type             string          `json:"type"`
	Severity         string          `json:"severity"`
	DetectedAt       time.Time       `json:"detected_at"`
	Resolved         bool            `json:"resolved"`
	ResolvedBy       string          `json:"resolved_by,omitempty"`
	ResolutionAction string          `json:"resolution_action,omitempty"`
	ResolvedAt       *time.Time      `json:"resolved_at,omitempty"`
	ErrorMessage     string          `json:"error_message,omitempty"`
}

// NewInconsistencyResponse mapea la entidad a su representación HTTP.
func NewInconsistencyResponse(inc *entity.PackageInconsistency) InconsistencyResponse {
	return InconsistencyResponse{
		ID:               inc.ID,
		PackageID:        inc.PackageID,
		Barcode:          inc.Barcode,
		ItemCode:         inc.ItemCode,
		WhsCode:          inc.WhsCode,
		BinEntry:         inc.BinEntry,
		ErpQuantity:      inc.ErpQuantity,
		WmsQuantity:      inc.WmsQuantity,
		PackageQuantity:  inc.PackageQuantity,
		Type:             inc.Type,
		Severity:         inc.Severity,
		DetectedAt:       inc.DetectedAt,
		Resolved:         inc.Resolved,
		ResolvedBy:       inc.ResolvedBy,
		ResolutionAction: inc.ResolutionAction,
		ResolvedAt:       inc.ResolvedAt,
		ErrorMessage:     inc.ErrorMessage,
	}
}

// NewInconsistencyListResponse mapea una lista de inconsistencias.
func NewInconsistencyListResponse(incs []*entity.PackageInconsistency) []InconsistencyResponse {
	out := make([]InconsistencyResponse, 0, len(incs))
	for _, inc := range incs {
		out = append(out, NewInconsistencyResponse(inc))
	}
	return out
}
