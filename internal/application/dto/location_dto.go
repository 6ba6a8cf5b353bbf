package dto

import (
	"time"

	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
)

// MovePackageRequest entrada para mover un paquete. El origen no se recibe: se
// toma de la proyección actual.
type MovePackageRequest struct {
	ToWhsCode    string `json:"to_whs_code" validate:"required,min=1,max=20"`
	ToBinEntry   *int   `json:"to_bin_entry"`
	SourceType   string `json:"source_type" validate:"omitempty,oneof=GOODS_RECEIPT PICKING TRANSFER COUNTING PACKAGE MANUAL"`
	SourceID     string `json:"source_id"`
	SourceLineID *int   `json:"source_line_id"`
	Notes        string `json:"notes" validate:"max=500"`
}

// LogMovementRequest registro a posteriori de un movimiento ya ejecutado en el
// sistema externo.
type LogMovementRequest struct {
	FromWhsCode  string `json:"from_whs_code"`
	FromBinEntry *int   `json:"from_bin_entry"`
	ToWhsCode    string `json:"to_whs_code" validate:"required,min=1,max=20"`
	ToBinEntry   *int   `json:"to_bin_entry"`
	SourceType   string `json:"source_type"`
	SourceID     string `json:"source_id"`
	Notes        string `json:"notes" validate:"max=500"`
}

// LocationHistoryResponse entrada del historial de movimientos.
type LocationHistoryResponse struct {
	ID           string    `json:"id"`
	PackageID    string    `json:"package_id"`
	MovementType string    `json:"movement_type"`
	FromWhsCode  string    `json:"from_whs_code,omitempty"`
	FromBinEntry *int      `json:"from_bin_entry,omitempty"`
	FromBinCode  string    `json:"from_bin_code,omitempty"`
	ToWhsCode    string    `json:"to_whs_code"`
	ToBinEntry   *int      `json:"to_bin_entry,omitempty"`
	ToBinCode    string    `json:"to_bin_code,omitempty"`
	SourceType   string    `json:"source_type,omitempty"`
	SourceID     string    `json:"source_id,omitempty"`
	UserID       string    `json:"user_id"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewLocationHistoryResponse mapea la entrada de historial.
func NewLocationHistoryResponse(h *entity.PackageLocationHistory) LocationHistoryResponse {
	return LocationHistoryResponse{
		ID:           h.ID,
		PackageID:    h.PackageID,
		MovementType: h.MovementType,
		FromWhsCode:  h.FromWhsCode,
		FromBinEntry: h.FromBinEntry,
		FromBinCode:  h.FromBinCode,
		ToWhsCode:    h.ToWhsCode,
		ToBinEntry:   h.ToBinEntry,
		ToBinCode:    h.ToBinCode,
		SourceType:   h.Source.Type,
		SourceID:     h.Source.ID,
		UserID:       h.UserID,
		Notes:        h.Notes,
		CreatedAt:    h.CreatedAt,
	}
}
