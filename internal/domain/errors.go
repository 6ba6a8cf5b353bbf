package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrDuplicate            = errors.New("recurso duplicado")
	ErrUnauthorized         = errors.New("no autorizado")
	ErrConflict             = errors.New("conflicto con el estado actual")
	ErrPackageLocked        = errors.New("paquete bloqueado por otra operación")
	ErrInvalidTransition    = errors.New("transición de estado no permitida")
	ErrInsufficientQuantity = errors.New("cantidad insuficiente en el paquete")
	ErrLocationMismatch     = errors.New("la ubicación del paquete no coincide con la solicitada")
	// ErrBarcodeOverflow es error de configuración fatal: la secuencia ya no
	// cabe en el largo configurado. No se reintenta.
	ErrBarcodeOverflow = errors.New("secuencia de código de barras excede el largo configurado")
)
