package barcode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jhoicas/Paqueteo-api/internal/domain"
	"github.com/jhoicas/Paqueteo-api/internal/domain/repository"
)

// Settings esquema de generación de códigos de barras de paquete
// (fuente externa de configuración, solo lectura).
type Settings struct {
	Prefix string
	Length int // dígitos de la parte numérica (zero-padded)
	Suffix string
	Start  int64 // primer valor de la secuencia
}

// Allocator genera códigos de barras únicos a partir de un contador persistido.
// La unicidad entre procesos la garantiza el incremento atómico del repositorio,
// no estado estático local.
type Allocator struct {
	settings Settings
	seqRepo  repository.BarcodeSequenceRepository
	pkgRepo  repository.PackageRepository
}

// NewAllocator construye el asignador.
func NewAllocator(settings Settings, seqRepo repository.BarcodeSequenceRepository, pkgRepo repository.PackageRepository) *Allocator {
	return &Allocator{settings: settings, seqRepo: seqRepo, pkgRepo: pkgRepo}
}

// Generate asigna el siguiente código: prefix + secuencia zero-padded + suffix.
// Si la secuencia ya no cabe en el largo configurado devuelve ErrBarcodeOverflow
// (error de configuración, fatal: no se reintenta).
func (a *Allocator) Generate() (string, error) {
	return a.GenerateWith(a.seqRepo)
}

// GenerateWith asigna usando el repositorio dado (atado a la transacción del
// caller cuando la creación del paquete y la asignación deben ser atómicas).
func (a *Allocator) GenerateWith(seqRepo repository.BarcodeSequenceRepository) (string, error) {
	seq, err := seqRepo.NextValue(a.settings.Prefix, a.settings.Start)
	if err != nil {
		return "", fmt.Errorf("siguiente valor de secuencia: %w", err)
	}
	return a.Format(seq)
}

// LastAssigned último valor consumido de la secuencia (start-1 si aún no se
// ha asignado ninguno). Lectura sin efectos, para diagnóstico al arrancar.
func (a *Allocator) LastAssigned() (int64, error) {
	return a.seqRepo.Current(a.settings.Prefix, a.settings.Start)
}

// Format arma el código para un valor de secuencia dado.
func (a *Allocator) Format(seq int64) (string, error) {
	digits := strconv.FormatInt(seq, 10)
	if len(digits) > a.settings.Length {
		return "", domain.ErrBarcodeOverflow
	}
	return a.settings.Prefix + strings.Repeat("0", a.settings.Length-len(digits)) + digits + a.settings.Suffix, nil
}

// Validate verifica formato (prefijo, sufijo, largo, dígitos) y no-colisión
// contra los paquetes existentes.
func (a *Allocator) Validate(code string) error {
	if !a.MatchesFormat(code) {
		return domain.ErrInvalidInput
	}
	exists, err := a.pkgRepo.ExistsBarcode(code)
	if err != nil {
		return fmt.Errorf("verificar colisión de barcode: %w", err)
	}
	if exists {
		return domain.ErrDuplicate
	}
	return nil
}

// MatchesFormat verifica solo el formato, sin consultar persistencia.
func (a *Allocator) MatchesFormat(code string) bool {
	if !strings.HasPrefix(code, a.settings.Prefix) || !strings.HasSuffix(code, a.settings.Suffix) {
		return false
	}
	body := strings.TrimSuffix(strings.TrimPrefix(code, a.settings.Prefix), a.settings.Suffix)
	if len(body) != a.settings.Length {
		return false
	}
	for _, r := range body {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
