package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
)

// ItemRequest entrada para agregar o retirar un ítem de un paquete.
// unit_type vacío = unidad base; BUY/SALE se convierten con factores del ERP.
type ItemRequest struct {
	ItemCode     string          `json:"item_code" validate:"required,min=1,max=50"`
	Quantity     decimal.Decimal `json:"quantity" validate:"required"`
	UnitType     string          `json:"unit_type"`
	BinEntry     *int            `json:"bin_entry"`
	Batch        string          `json:"batch"`
	Serial       string          `json:"serial"`
	SourceType   string          `json:"source_type" validate:"omitempty,oneof=GOODS_RECEIPT PICKING TRANSFER COUNTING PACKAGE MANUAL"`
	SourceID     string          `json:"source_id"`
	SourceLineID *int            `json:"source_line_id"`
	Notes        string          `json:"notes" validate:"max=500"`
}

// LogTransactionRequest asiento de auditoría directo al ledger (sin efecto en
// la proyección de contenido).
type LogTransactionRequest struct {
	Type         string          `json:"type" validate:"required"`
	ItemCode     string          `json:"item_code"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitType     string          `json:"unit_type"`
	Batch        string          `json:"batch"`
	Serial       string          `json:"serial"`
	SourceType   string          `json:"source_type"`
	SourceID     string          `json:"source_id"`
	SourceLineID *int            `json:"source_line_id"`
	Notes        string          `json:"notes" validate:"max=500"`
}

// ContentResponse fila de la proyección de contenido actual.
type ContentResponse struct {
	PackageID string          `json:"package_id"`
	ItemCode  string          `json:"item_code"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitType  string          `json:"unit_type"`
	WhsCode   string          `json:"whs_code"`
	BinEntry  *int            `json:"bin_entry,omitempty"`
	AddedAt   time.Time       `json:"added_at"`
	AddedBy   string          `json:"added_by"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewContentResponse mapea la entidad a su representación HTTP.
func NewContentResponse(c *entity.PackageContent) ContentResponse {
	return ContentResponse{
		PackageID: c.PackageID,
		ItemCode:  c.ItemCode,
		Quantity:  c.Quantity,
		UnitType:  c.UnitType,
		WhsCode:   c.WhsCode,
		BinEntry:  c.BinEntry,
		AddedAt:   c.AddedAt,
		AddedBy:   c.AddedBy,
		UpdatedAt: c.UpdatedAt,
	}
}

// TransactionResponse entrada del ledger en respuestas HTTP.
type TransactionResponse struct {
	ID           string          `json:"id"`
	PackageID    string          `json:"package_id"`
	Type         string          `json:"type"`
	ItemCode     string          `json:"item_code,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitType     string          `json:"unit_type,omitempty"`
	Batch        string          `json:"batch,omitempty"`
	Serial       string          `json:"serial,omitempty"`
	SourceType   string          `json:"source_type,omitempty"`
	SourceID     string          `json:"source_id,omitempty"`
	SourceLineID *int            `json:"source_line_id,omitempty"`
	UserID       string          `json:"user_id"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewTransactionResponse mapea la entrada del ledger.
func NewTransactionResponse(t *entity.PackageTransaction) TransactionResponse {
	return TransactionResponse{
		ID:           t.ID,
		PackageID:    t.PackageID,
		Type:         t.Type,
		ItemCode:     t.ItemCode,
		Quantity:     t.Quantity,
		UnitType:     t.UnitType,
		Batch:        t.Batch,
		Serial:       t.Serial,
		SourceType:   t.Source.Type,
		SourceID:     t.Source.ID,
		SourceLineID: t.Source.LineID,
		UserID:       t.UserID,
		Notes:        t.Notes,
		CreatedAt:    t.CreatedAt,
	}
}
