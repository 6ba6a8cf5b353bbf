package packages_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Paqueteo-api/internal/application/barcode"
	"github.com/jhoicas/Paqueteo-api/internal/application/packages"
	"github.com/jhoicas/Paqueteo-api/internal/application/ports"
	"github.com/jhoicas/Paqueteo-api/internal/domain"
	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
	"github.com/jhoicas/Paqueteo-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fakePkgRepo struct {
	packages map[string]*entity.Package
}

func newFakePkgRepo() *fakePkgRepo {
	return &fakePkgRepo{packages: make(map[string]*entity.Package)}
}

func (r *fakePkgRepo) Create(p *entity.Package) error {
	for _, existing := range r.packages {
		if existing.Barcode == p.Barcode {
			return domain.ErrDuplicate
		}
	}
	cp := *p
	r.packages[p.ID] = &cp
	return nil
}

func (r *fakePkgRepo) GetByID(id string) (*entity.Package, error) {
	p, ok := r.packages[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePkgRepo) GetByBarcode(code string) (*entity.Package, error) {
	for _, p := range r.packages {
		if p.Barcode == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePkgRepo) GetForUpdate(id string) (*entity.Package, error) { return r.GetByID(id) }

func (r *fakePkgRepo) UpdateStatus(p *entity.Package) error {
	cp := *p
	r.packages[p.ID] = &cp
	return nil
}

func (r *fakePkgRepo) UpdateLocation(p *entity.Package) error { return r.UpdateStatus(p) }

func (r *fakePkgRepo) ListActive(whsCode string, limit, offset int) ([]*entity.Package, error) {
	var all []*entity.Package
	for _, p := range r.packages {
		if p.Active && p.Status != entity.PackageStatusCancelled && (whsCode == "" || p.WhsCode == whsCode) {
			cp := *p
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Barcode > all[j].Barcode })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakePkgRepo) ListBySource(sourceType, sourceID string, onlyActive bool) ([]*entity.Package, error) {
	var out []*entity.Package
	for _, p := range r.packages {
		if p.SourceType != sourceType || p.SourceID != sourceID {
			continue
		}
		if onlyActive && (!p.Active || p.Status == entity.PackageStatusCancelled) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakePkgRepo) ActivateBySource(sourceType, sourceID string) (int, error) {
	n := 0
	for _, p := range r.packages {
		if p.SourceType == sourceType && p.SourceID == sourceID && !p.Active && p.Status == entity.PackageStatusOpen {
			p.Active = true
			n++
		}
	}
	return n, nil
}

func (r *fakePkgRepo) CancelBySource(sourceType, sourceID, reason, userID string) (int, error) {
	n := 0
	now := time.Now()
	for _, p := range r.packages {
		if p.SourceType == sourceType && p.SourceID == sourceID && !p.Active && p.Status == entity.PackageStatusOpen {
			p.Status = entity.PackageStatusCancelled
			p.CancelReason = reason
			p.ClosedBy = userID
			p.ClosedAt = &now
			n++
		}
	}
	return n, nil
}

func (r *fakePkgRepo) ExistsBarcode(code string) (bool, error) {
	p, _ := r.GetByBarcode(code)
	return p != nil, nil
}

func (r *fakePkgRepo) CountByBarcode(code string) (int, error) {
	n := 0
	for _, p := range r.packages {
		if p.Barcode == code {
			n++
		}
	}
	return n, nil
}

type fakeTxnRepo struct {
	entries []*entity.PackageTransaction
}

func (r *fakeTxnRepo) Create(t *entity.PackageTransaction) error {
	cp := *t
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *fakeTxnRepo) ListByPackage(packageID, afterID string, limit int) ([]*entity.PackageTransaction, error) {
	var out []*entity.PackageTransaction
	skipping := afterID != ""
	for _, e := range r.entries {
		if e.PackageID != packageID {
			continue
		}
		if skipping {
			if e.ID == afterID {
				skipping = false
			}
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeTxnRepo) SumByPackageItem(packageID, itemCode string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range r.entries {
		if e.PackageID == packageID && e.ItemCode == itemCode &&
			(e.Type == entity.TransactionTypeAdd || e.Type == entity.TransactionTypeRemove) {
			sum = sum.Add(e.Quantity)
		}
	}
	return sum, nil
}

func (r *fakeTxnRepo) byType(packageID, txnType string) []*entity.PackageTransaction {
	var out []*entity.PackageTransaction
	for _, e := range r.entries {
		if e.PackageID == packageID && e.Type == txnType {
			out = append(out, e)
		}
	}
	return out
}

type fakeSeqRepo struct {
	value int64
}

func (r *fakeSeqRepo) NextValue(prefix string, start int64) (int64, error) {
	if r.value == 0 {
		r.value = start
	} else {
		r.value++
	}
	return r.value, nil
}

func (r *fakeSeqRepo) Current(prefix string, start int64) (int64, error) {
	if r.value == 0 {
		return start - 1, nil
	}
	return r.value, nil
}

type fakeAttrRepo struct {
	defs []*entity.AttributeDefinition
}

func (r *fakeAttrRepo) Create(def *entity.AttributeDefinition) error {
	r.defs = append(r.defs, def)
	return nil
}
func (r *fakeAttrRepo) List() ([]*entity.AttributeDefinition, error) { return r.defs, nil }
func (r *fakeAttrRepo) GetByID(id string) (*entity.AttributeDefinition, error) {
	for _, d := range r.defs {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, nil
}

type fakeErp struct {
	bins       map[int]string
	warehouses map[string]string
}

func (e *fakeErp) GetBinCode(_ context.Context, binEntry int) (string, error) {
	return e.bins[binEntry], nil
}
func (e *fakeErp) GetWarehouseName(_ context.Context, whsCode string) (string, error) {
	return e.warehouses[whsCode], nil
}
func (e *fakeErp) GetItemInfo(context.Context, string) (*ports.ItemData, error) { return nil, nil }
func (e *fakeErp) GetOnHandQuantity(context.Context, string, string, *int) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

// fakeTxRunner en tests las transacciones son la identidad: los fakes mutan en
// memoria y fn ve los mismos repos.
type fakeTxRunner struct {
	pkgRepo *fakePkgRepo
	txnRepo *fakeTxnRepo
	seqRepo *fakeSeqRepo
}

func (tr *fakeTxRunner) Run(_ context.Context, fn func(
	repository.PackageRepository,
	repository.PackageTransactionRepository,
	repository.BarcodeSequenceRepository,
) error) error {
	return fn(tr.pkgRepo, tr.txnRepo, tr.seqRepo)
}

// ──────────────────────────────────────────────────────────────────────────────
// Arnés
// ──────────────────────────────────────────────────────────────────────────────

type harness struct {
	uc      *packages.LifecycleUseCase
	pkgRepo *fakePkgRepo
	txnRepo *fakeTxnRepo
	attrs   *fakeAttrRepo
	erp     *fakeErp
}

func newHarness() *harness {
	pkgRepo := newFakePkgRepo()
	txnRepo := &fakeTxnRepo{}
	seqRepo := &fakeSeqRepo{}
	attrs := &fakeAttrRepo{}
	erp := &fakeErp{bins: map[int]string{7: "A-01-07"}}
	allocator := barcode.NewAllocator(barcode.Settings{Prefix: "PKG", Length: 8, Start: 1}, seqRepo, pkgRepo)
	tx := &fakeTxRunner{pkgRepo: pkgRepo, txnRepo: txnRepo, seqRepo: seqRepo}
	return &harness{
		uc:      packages.NewLifecycleUseCase(tx, pkgRepo, attrs, allocator, erp),
		pkgRepo: pkgRepo,
		txnRepo: txnRepo,
		attrs:   attrs,
		erp:     erp,
	}
}

var session = packages.Session{UserID: "user-1", WhsCode: "BOD01"}

func mustCreate(t *testing.T, h *harness, in packages.CreatePackageInput) *entity.Package {
	t.Helper()
	pkg, err := h.uc.CreatePackage(context.Background(), session, in)
	require.NoError(t, err)
	return pkg
}

// ──────────────────────────────────────────────────────────────────────────────
// Creación
// ──────────────────────────────────────────────────────────────────────────────

func TestCreatePackage_AsignaBarcodeYAsientoCreate(t *testing.T) {
	h := newHarness()

	pkg := mustCreate(t, h, packages.CreatePackageInput{SourceType: entity.OperationTypePackage})

	assert.Equal(t, "PKG00000001", pkg.Barcode)
	assert.Equal(t, entity.PackageStatusOpen, pkg.Status)
	assert.True(t, pkg.Active, "un paquete no provisional nace activo")
	assert.Equal(t, "BOD01", pkg.WhsCode)

	creates := h.txnRepo.byType(pkg.ID, entity.TransactionTypeCreate)
	require.Len(t, creates, 1, "la creación debe dejar exactamente un asiento CREATE")
	assert.Equal(t, "user-1", creates[0].UserID)
}

func TestCreatePackage_OrigenNoInferible(t *testing.T) {
	h := newHarness()

	// Sin source_type PACKAGE/PICKING, sin source_id y sin bin: rechazado.
	_, err := h.uc.CreatePackage(context.Background(), session, packages.CreatePackageInput{
		SourceType: entity.OperationTypeGoodsReceipt,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Con source_id explícito sí pasa.
	_, err = h.uc.CreatePackage(context.Background(), session, packages.CreatePackageInput{
		SourceType: entity.OperationTypeGoodsReceipt,
		SourceID:   "GR-100",
	})
	assert.NoError(t, err)
}

func TestCreatePackage_ResuelveBinDelERP(t *testing.T) {
	h := newHarness()
	bin := 7

	pkg := mustCreate(t, h, packages.CreatePackageInput{BinEntry: &bin})
	assert.Equal(t, "A-01-07", pkg.BinCode, "el código del bin viene del ERP")

	// Bin inexistente en el ERP.
	missing := 99
	_, err := h.uc.CreatePackage(context.Background(), session, packages.CreatePackageInput{BinEntry: &missing})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreatePackage_ProvisionalNaceInactivo(t *testing.T) {
	h := newHarness()

	pkg := mustCreate(t, h, packages.CreatePackageInput{
		SourceType:  entity.OperationTypePicking,
		SourceID:    "PK-1",
		Provisional: true,
	})
	assert.False(t, pkg.Active, "provisional = invisible hasta la activación por lote")

	visible, err := h.uc.GetActivePackagesBySource(context.Background(), entity.OperationTypePicking, "PK-1")
	require.NoError(t, err)
	assert.Empty(t, visible, "los provisionales no aparecen en las consultas de activos")
}

func TestCreatePackage_BarcodesSecuencialesUnicos(t *testing.T) {
	h := newHarness()

	p1 := mustCreate(t, h, packages.CreatePackageInput{SourceType: entity.OperationTypePackage})
	p2 := mustCreate(t, h, packages.CreatePackageInput{SourceType: entity.OperationTypePackage})
	p3 := mustCreate(t, h, packages.CreatePackageInput{SourceType: entity.OperationTypePackage})

	assert.Equal(t, "PKG00000001", p1.Barcode)
	assert.Equal(t, "PKG00000002", p2.Barcode)
	assert.Equal(t, "PKG00000003", p3.Barcode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transiciones de estado
// ──────────────────────────────────────────────────────────────────────────────

func TestClosePackage_TerminalEInmutable(t *testing.T) {
	h := newHarness()
	pkg := mustCreate(t, h, packages.CreatePackageInput{SourceType: entity.OperationTypePackage})

	closed, err := h.uc.ClosePackage(context.Background(), pkg.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.PackageStatusClosed, closed.Status)
	assert.NotNil(t, closed.ClosedAt)

	// Terminal: ni cerrar de nuevo, ni cancelar, ni bloquear.
	_, err = h.uc.ClosePackage(context.Background(), pkg.ID, "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = h.uc.CancelPackage(context.Background(), pkg.ID, "motivo", "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = h.uc.LockPackage(context.Background(), pkg.ID, "", "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancelPackage_MotivoObligatorio(t *testing.T) {
	h := newHarness()
	pkg := mustCreate(t, h, packages.CreatePackageInput{SourceType: entity.OperationTypePackage})

	_, err := h.uc.CancelPackage(context.Background(), pkg.ID, "", "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	cancelled, err := h.uc.CancelPackage(context.Background(), pkg.ID, "paquete dañado", "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.PackageStatusCancelled, cancelled.Status)
	assert.Equal(t, "paquete dañado", cancelled.CancelReason)
	assert.Equal(t, "user-1", cancelled.ClosedBy, "quién canceló queda registrado")
	assert.NotNil(t, cancelled.ClosedAt)

	// El trail de auditoría sobrevive a la cancelación.
	assert.Len(t, h.txnRepo.byType(pkg.ID, entity.TransactionTypeCancel), 1)
	assert.Len(t, h.txnRepo.byType(pkg.ID, entity.TransactionTypeCreate), 1)
}

func TestLockUnlock_CicloReversible(t *testing.T) {
	h := newHarness()
	pkg := mustCreate(t, h, packages.CreatePackageInput{SourceType: entity.OperationTypePackage})

	locked, err := h.uc.LockPackage(context.Background(), pkg.ID, "conteo físico", "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.PackageStatusLocked, locked.Status)
	assert.Equal(t, "conteo físico", locked.LockReason)

	// LOCKED no admite close/cancel directos ni doble lock.
	_, err = h.uc.ClosePackage(context.Background(), pkg.ID, "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = h.uc.LockPackage(context.Background(), pkg.ID, "", "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	unlocked, err := h.uc.UnlockPackage(context.Background(), pkg.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.PackageStatusOpen, unlocked.Status)
	assert.Empty(t, unlocked.LockReason)

	// Tras el unlock el ciclo de vida sigue normal.
	_, err = h.uc.ClosePackage(context.Background(), pkg.ID, "user-1")
	assert.NoError(t, err)
}

func TestUnlock_SoloDesdeLocked(t *testing.T) {
	h := newHarness()
	pkg := mustCreate(t, h, packages.CreatePackageInput{SourceType: entity.OperationTypePackage})

	_, err := h.uc.UnlockPackage(context.Background(), pkg.ID, "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransition_PaqueteInexistente(t *testing.T) {
	h := newHarness()
	_, err := h.uc.ClosePackage(context.Background(), "no-existe", "user-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Activación y cancelación por lote
// ──────────────────────────────────────────────────────────────────────────────

func TestActivatePackagesBySource_ActivaSoloProvisionales(t *testing.T) {
	h := newHarness()
	in := packages.CreatePackageInput{
		SourceType:  entity.OperationTypePicking,
		SourceID:    "PK-9",
		Provisional: true,
	}
	p1 := mustCreate(t, h, in)
	p2 := mustCreate(t, h, in)
	// Uno ya activo bajo el mismo origen: no debe contarse.
	mustCreate(t, h, packages.CreatePackageInput{SourceType: entity.OperationTypePicking, SourceID: "PK-9"})

	n, err := h.uc.ActivatePackagesBySource(context.Background(), entity.OperationTypePicking, "PK-9", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []string{p1.ID, p2.ID} {
		got, err := h.uc.GetPackage(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, got.Active)
		assert.Len(t, h.txnRepo.byType(id, entity.TransactionTypeActivate), 1,
			"cada paquete activado deja su asiento ACTIVATE")
	}

	visible, err := h.uc.GetActivePackagesBySource(context.Background(), entity.OperationTypePicking, "PK-9")
	require.NoError(t, err)
	assert.Len(t, visible, 3)
}

func TestCancelPackagesBySource_OperacionAbortada(t *testing.T) {
	h := newHarness()
	in := packages.CreatePackageInput{
		SourceType:  entity.OperationTypePicking,
		SourceID:    "PK-ABORT",
		Provisional: true,
	}
	p1 := mustCreate(t, h, in)
	mustCreate(t, h, in)

	n, err := h.uc.CancelPackagesBySource(context.Background(), entity.OperationTypePicking, "PK-ABORT", "picking abortado", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := h.uc.GetPackage(context.Background(), p1.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PackageStatusCancelled, got.Status)
	assert.Equal(t, "picking abortado", got.CancelReason)
	assert.Equal(t, "user-1", got.ClosedBy, "la cancelación por lote registra quién la hizo")
	assert.NotNil(t, got.ClosedAt)

	// Sin motivo se rechaza.
	_, err = h.uc.CancelPackagesBySource(context.Background(), entity.OperationTypePicking, "PK-ABORT", "", "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Listado paginado
// ──────────────────────────────────────────────────────────────────────────────

func TestListActivePackages_Paginado(t *testing.T) {
	h := newHarness()
	for i := 0; i < 5; i++ {
		mustCreate(t, h, packages.CreatePackageInput{SourceType: entity.OperationTypePackage})
	}

	seen := make(map[string]bool)
	var sizes []int
	for offset := 0; offset < 5; offset += 2 {
		page, err := h.uc.ListActivePackages(context.Background(), "BOD01", 2, offset)
		require.NoError(t, err)
		sizes = append(sizes, len(page))
		for _, p := range page {
			assert.False(t, seen[p.ID], "el paquete %s apareció en dos páginas", p.Barcode)
			seen[p.ID] = true
		}
	}
	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Len(t, seen, 5, "las páginas deben cubrir todos los activos")
}

func TestListActivePackages_BodegaObligatoria(t *testing.T) {
	h := newHarness()
	_, err := h.uc.ListActivePackages(context.Background(), "", 20, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Atributos configurables
// ──────────────────────────────────────────────────────────────────────────────

func TestCreatePackage_AtributosValidadosContraDefiniciones(t *testing.T) {
	h := newHarness()
	h.attrs.defs = []*entity.AttributeDefinition{
		{ID: "peso", Name: "Peso", Type: entity.AttributeTypeNumber},
		{ID: "vence", Name: "Vencimiento", Type: entity.AttributeTypeDate},
		{ID: "lote", Name: "Lote", Type: entity.AttributeTypeText, Required: true},
	}

	base := packages.CreatePackageInput{SourceType: entity.OperationTypePackage}

	// Clave desconocida.
	in := base
	in.Attributes = map[string]string{"color": "rojo", "lote": "L1"}
	_, err := h.uc.CreatePackage(context.Background(), session, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Tipo incorrecto.
	in = base
	in.Attributes = map[string]string{"peso": "no-numerico", "lote": "L1"}
	_, err = h.uc.CreatePackage(context.Background(), session, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Obligatorio ausente.
	in = base
	in.Attributes = map[string]string{"peso": "12.5"}
	_, err = h.uc.CreatePackage(context.Background(), session, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Todo válido.
	in = base
	in.Attributes = map[string]string{"peso": "12.5", "vence": "2026-12-31", "lote": "L1"}
	pkg, err := h.uc.CreatePackage(context.Background(), session, in)
	require.NoError(t, err)
	assert.Equal(t, "12.5", pkg.Attributes["peso"])
}

func TestCreateAttributeDefinition_TipoInvalido(t *testing.T) {
	h := newHarness()

	_, err := h.uc.CreateAttributeDefinition(context.Background(), "Peso", "FLOAT", false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	def, err := h.uc.CreateAttributeDefinition(context.Background(), "Peso", entity.AttributeTypeNumber, true)
	require.NoError(t, err)
	assert.NotEmpty(t, def.ID)
	assert.WithinDuration(t, time.Now(), def.CreatedAt, time.Minute)
}

func TestGetAttributeDefinition_PorID(t *testing.T) {
	h := newHarness()

	def, err := h.uc.CreateAttributeDefinition(context.Background(), "Lote", entity.AttributeTypeText, false)
	require.NoError(t, err)

	got, err := h.uc.GetAttributeDefinition(context.Background(), def.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lote", got.Name)

	_, err = h.uc.GetAttributeDefinition(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
