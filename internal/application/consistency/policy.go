package consistency

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
)

// Policy umbrales de clasificación de severidad y paralelismo del sweep.
// La fuente no fija estos valores: son política configurable, no constantes.
type Policy struct {
	// WarningThreshold drift mínimo (valor absoluto) para WARNING; por debajo
	// queda en INFO. Cero = cualquier drift es al menos WARNING.
	WarningThreshold decimal.Decimal
	// CriticalThreshold drift (valor absoluto) desde el cual la severidad es
	// CRITICAL de inmediato.
	CriticalThreshold decimal.Decimal
	// CriticalAge antigüedad sin resolver desde la primera detección que
	// escala cualquier inconsistencia a CRITICAL.
	CriticalAge time.Duration
	// SweepConcurrency paquetes validados en paralelo durante el sweep.
	SweepConcurrency int
}

// DefaultPolicy valores por defecto: todo drift es WARNING, CRITICAL desde 10
// unidades o 72 horas sin resolver, 4 paquetes en paralelo.
func DefaultPolicy() Policy {
	return Policy{
		WarningThreshold:  decimal.Zero,
		CriticalThreshold: decimal.NewFromInt(10),
		CriticalAge:       72 * time.Hour,
		SweepConcurrency:  4,
	}
}

// severity clasifica por magnitud del drift y antigüedad de la detección.
func (p Policy) severity(drift decimal.Decimal, firstDetected time.Time, now time.Time) string {
	abs := drift.Abs()
	if abs.GreaterThanOrEqual(p.CriticalThreshold) {
		return entity.SeverityCritical
	}
	if p.CriticalAge > 0 && !firstDetected.IsZero() && now.Sub(firstDetected) >= p.CriticalAge {
		return entity.SeverityCritical
	}
	if abs.GreaterThan(p.WarningThreshold) {
		return entity.SeverityWarning
	}
	return entity.SeverityInfo
}
