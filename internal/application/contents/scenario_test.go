package contents_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Paqueteo-api/internal/application/barcode"
	"github.com/jhoicas/Paqueteo-api/internal/application/contents"
	"github.com/jhoicas/Paqueteo-api/internal/application/location"
	"github.com/jhoicas/Paqueteo-api/internal/application/packages"
	"github.com/jhoicas/Paqueteo-api/internal/application/ports"
	"github.com/jhoicas/Paqueteo-api/internal/domain"
	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
	"github.com/jhoicas/Paqueteo-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes adicionales para el flujo completo (ciclo de vida + contenido + ubicación)
// ──────────────────────────────────────────────────────────────────────────────

type memSeqRepo struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func (r *memSeqRepo) NextValue(prefix string, start int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seqs == nil {
		r.seqs = make(map[string]int64)
	}
	if _, ok := r.seqs[prefix]; !ok {
		r.seqs[prefix] = start - 1
	}
	r.seqs[prefix]++
	return r.seqs[prefix], nil
}

func (r *memSeqRepo) Current(prefix string, start int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.seqs[prefix]; ok {
		return v, nil
	}
	return start - 1, nil
}

type memAttrRepo struct{}

func (r *memAttrRepo) Create(*entity.AttributeDefinition) error { return nil }
func (r *memAttrRepo) List() ([]*entity.AttributeDefinition, error) {
	return nil, nil
}
func (r *memAttrRepo) GetByID(string) (*entity.AttributeDefinition, error) { return nil, nil }

type memLocRepo struct {
	history []*entity.PackageLocationHistory
}

func (r *memLocRepo) Create(h *entity.PackageLocationHistory) error {
	cp := *h
	r.history = append(r.history, &cp)
	return nil
}
func (r *memLocRepo) ListByPackage(packageID string) ([]*entity.PackageLocationHistory, error) {
	var out []*entity.PackageLocationHistory
	for _, h := range r.history {
		if h.PackageID == packageID {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}
func (r *memLocRepo) LastByPackage(packageID string) (*entity.PackageLocationHistory, error) {
	all, _ := r.ListByPackage(packageID)
	if len(all) == 0 {
		return nil, nil
	}
	return all[len(all)-1], nil
}

type lifecycleTxRunner struct {
	pkgRepo *memPkgRepo
	tRepo   *memTxnRepo
	seqRepo *memSeqRepo
}

func (tr *lifecycleTxRunner) Run(_ context.Context, fn func(
	repository.PackageRepository,
	repository.PackageTransactionRepository,
	repository.BarcodeSequenceRepository,
) error) error {
	return fn(tr.pkgRepo, tr.tRepo, tr.seqRepo)
}

type locationTxRunner struct {
	pkgRepo *memPkgRepo
	locRepo *memLocRepo
	cRepo   *memContentRepo
	tRepo   *memTxnRepo
}

func (tr *locationTxRunner) RunLocation(_ context.Context, fn func(
	repository.PackageRepository,
	repository.PackageLocationRepository,
	repository.PackageContentRepository,
	repository.PackageTransactionRepository,
) error) error {
	return fn(tr.pkgRepo, tr.locRepo, tr.cRepo, tr.tRepo)
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo: crear → agregar → mover → retirar → cerrar
// ──────────────────────────────────────────────────────────────────────────────

func TestFlujoCompleto_CrearAgregarMoverRetirarCerrar(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	pkgRepo := &memPkgRepo{s: store}
	cRepo := &memContentRepo{s: store}
	tRepo := &memTxnRepo{s: store}
	seqRepo := &memSeqRepo{}
	locRepo := &memLocRepo{}
	erp := &stubErp{
		items: map[string]*ports.ItemData{
			"X": {ItemCode: "X", InventoryUoM: "UN", NumInBuy: decimal.NewFromInt(1), NumInSale: decimal.NewFromInt(1), Valid: true},
		},
		bins: map[int]string{10: "A-01-10", 20: "A-01-20"},
	}
	allocator := barcode.NewAllocator(barcode.Settings{Prefix: "PKG", Length: 8, Start: 1}, seqRepo, pkgRepo)

	lifecycle := packages.NewLifecycleUseCase(
		&lifecycleTxRunner{pkgRepo: pkgRepo, tRepo: tRepo, seqRepo: seqRepo},
		pkgRepo, &memAttrRepo{}, allocator, erp,
	)
	content := contents.NewContentUseCase(
		&memTxRunner{s: store, pkgRepo: pkgRepo, cRepo: cRepo, tRepo: tRepo},
		pkgRepo, cRepo, tRepo, erp,
	)
	tracker := location.NewTrackerUseCase(
		&locationTxRunner{pkgRepo: pkgRepo, locRepo: locRepo, cRepo: cRepo, tRepo: tRepo},
		pkgRepo, locRepo, erp,
	)
	session := packages.Session{UserID: "user-1", WhsCode: "BOD01"}

	// Crear el paquete P en el bin 10.
	bin10 := 10
	pkg, err := lifecycle.CreatePackage(ctx, session, packages.CreatePackageInput{BinEntry: &bin10})
	require.NoError(t, err)
	assert.Equal(t, "PKG00000001", pkg.Barcode)
	assert.Equal(t, entity.PackageStatusOpen, pkg.Status)

	// Agregar 24 unidades de X.
	_, err = content.AddItem(ctx, contents.ItemInput{
		PackageID: pkg.ID,
		ItemCode:  "X",
		Quantity:  decimal.NewFromInt(24),
		BinEntry:  &bin10,
	}, session.WhsCode, session.UserID)
	require.NoError(t, err)

	qty, err := content.GetItemQuantity(ctx, pkg.ID, "X")
	require.NoError(t, err)
	assert.True(t, qty.Equal(decimal.NewFromInt(24)))

	// Mover del bin 10 al 20: una entrada de historial y proyección actualizada.
	bin20 := 20
	moved, err := tracker.MovePackage(ctx, location.MoveInput{
		PackageID:  pkg.ID,
		ToWhsCode:  "BOD01",
		ToBinEntry: &bin20,
	}, session.UserID)
	require.NoError(t, err)
	require.NotNil(t, moved.BinEntry)
	assert.Equal(t, 20, *moved.BinEntry)

	history, err := tracker.LocationHistory(ctx, pkg.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 10, *history[0].FromBinEntry)
	assert.Equal(t, 20, *history[0].ToBinEntry)

	// El contenido reporta la ubicación nueva del paquete.
	rows, err := content.GetContents(ctx, pkg.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].BinEntry)
	assert.Equal(t, 20, *rows[0].BinEntry)

	// Retirar las 24 unidades: la proyección vuelve a cero.
	_, err = content.RemoveItem(ctx, contents.ItemInput{
		PackageID: pkg.ID,
		ItemCode:  "X",
		Quantity:  decimal.NewFromInt(24),
	}, session.UserID)
	require.NoError(t, err)

	qty, err = content.GetItemQuantity(ctx, pkg.ID, "X")
	require.NoError(t, err)
	assert.True(t, qty.IsZero())

	// La suma con signo del ledger sigue en acuerdo con la proyección.
	sum, err := tRepo.SumByPackageItem(pkg.ID, "X")
	require.NoError(t, err)
	assert.True(t, sum.IsZero())

	// Cerrar: estado terminal, más mutaciones de contenido rechazadas.
	closed, err := lifecycle.ClosePackage(ctx, pkg.ID, session.UserID)
	require.NoError(t, err)
	assert.Equal(t, entity.PackageStatusClosed, closed.Status)

	_, err = content.AddItem(ctx, contents.ItemInput{
		PackageID: pkg.ID,
		ItemCode:  "X",
		Quantity:  decimal.NewFromInt(1),
		BinEntry:  &bin20,
	}, session.WhsCode, session.UserID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition,
		"un paquete cerrado no admite más contenido")
}
