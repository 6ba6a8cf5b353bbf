package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción del ledger de paquetes.
const (
	TransactionTypeAdd      = "ADD"
	TransactionTypeRemove   = "REMOVE"
	TransactionTypeMove     = "MOVE"
	TransactionTypeCreate   = "CREATE"
	TransactionTypeClose    = "CLOSE"
	TransactionTypeCancel   = "CANCEL"
	TransactionTypeLock     = "LOCK"
	TransactionTypeUnlock   = "UNLOCK"
	TransactionTypeActivate = "ACTIVATE"
)

// Tipos de operación de negocio que pueden originar movimientos de paquete.
const (
	OperationTypeGoodsReceipt = "GOODS_RECEIPT"
	OperationTypePicking      = "PICKING"
	OperationTypeTransfer     = "TRANSFER"
	OperationTypeCounting     = "COUNTING"
	OperationTypePackage      = "PACKAGE"
	OperationTypeManual       = "MANUAL"
)

// SourceOperationRef referencia polimórfica a la operación que causó el cambio
// (discriminador + id, sin jerarquía de tipos: solo se registra y se muestra).
type SourceOperationRef struct {
	Type   string
	ID     string
	LineID *int
}

// IsZero indica si la referencia está vacía.
func (r SourceOperationRef) IsZero() bool {
	return r.Type == "" && r.ID == ""
}

// PackageTransaction entrada append-only del ledger. Inmutable una vez escrita;
// el trail de auditoría sobrevive a la cancelación del paquete.
type PackageTransaction struct {
	ID        string
	PackageID string
	Type      string
	ItemCode  string
	Quantity  decimal.Decimal // con signo: positivo ADD, negativo REMOVE
	UnitType  string
	Batch     string
	Serial    string
	Source    SourceOperationRef
	UserID    string
	Notes     string
	CreatedAt time.Time
}
