package consistency

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Paqueteo-api/internal/application/barcode"
	"github.com/jhoicas/Paqueteo-api/internal/application/ports"
	"github.com/jhoicas/Paqueteo-api/internal/domain"
	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
	"github.com/jhoicas/Paqueteo-api/internal/domain/repository"
)

// Engine motor de conciliación: compara cantidades rastreadas por paquete
// contra el ERP y contra la fuente independiente de bin-tracking WMS, y emite
// inconsistencias clasificadas. Solo lee Package/Content/Ledger; escribe
// únicamente en el almacén de inconsistencias. El sweep no es transaccional
// con el resto del sistema: lee un snapshot sin locks y acepta resultados
// stale frente a mutaciones concurrentes.
type Engine struct {
	pkgRepo     repository.PackageRepository
	contentRepo repository.PackageContentRepository
	txnRepo     repository.PackageTransactionRepository
	incRepo     repository.InconsistencyRepository
	erp         ports.ErpService
	wms         ports.WmsBinStockService
	allocator   *barcode.Allocator
	policy      Policy
}

// NewEngine construye el motor.
func NewEngine(
	pkgRepo repository.PackageRepository,
	contentRepo repository.PackageContentRepository,
	txnRepo repository.PackageTransactionRepository,
	incRepo repository.InconsistencyRepository,
	erp ports.ErpService,
	wms ports.WmsBinStockService,
	allocator *barcode.Allocator,
	policy Policy,
) *Engine {
	if policy.SweepConcurrency <= 0 {
		policy.SweepConcurrency = DefaultPolicy().SweepConcurrency
	}
	return &Engine{
		pkgRepo:     pkgRepo,
		contentRepo: contentRepo,
		txnRepo:     txnRepo,
		incRepo:     incRepo,
		erp:         erp,
		wms:         wms,
		allocator:   allocator,
		policy:      policy,
	}
}

// ValidatePackage concilia un paquete: por cada ítem de la proyección compara
// la cantidad derivada del ledger contra el on-hand del ERP y la fuente WMS.
// Idempotente: una inconsistencia sin resolver con la misma clave
// (paquete, ítem, tipo) se actualiza en sitio; una resuelta que reaparece se
// reabre, nunca se duplica. Los fallos de lookup degradan a una inconsistencia
// LOOKUP_ERROR por ítem en vez de abortar.
func (e *Engine) ValidatePackage(ctx context.Context, packageID string) ([]*entity.PackageInconsistency, error) {
	pkg, err := e.pkgRepo.GetByID(packageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, domain.ErrNotFound
	}

	var found []*entity.PackageInconsistency

	// Barcode duplicado: corrupción del invariante global de unicidad.
	if n, err := e.pkgRepo.CountByBarcode(pkg.Barcode); err == nil && n > 1 {
		inc, uerr := e.upsert(pkg, "", entity.InconsistencyDuplicateBarcode,
			decimal.Zero, decimal.Zero, decimal.Zero, entity.SeverityCritical, "")
		if uerr == nil {
			found = append(found, inc)
		}
	}

	// Bin proyectado que ya no existe en el ERP: paquete huérfano.
	if pkg.BinEntry != nil {
		code, berr := e.erp.GetBinCode(ctx, *pkg.BinEntry)
		if berr == nil && code == "" {
			inc, uerr := e.upsert(pkg, "", entity.InconsistencyOrphanedPackage,
				decimal.Zero, decimal.Zero, decimal.Zero, entity.SeverityCritical, "")
			if uerr == nil {
				found = append(found, inc)
			}
		}
	}

	contents, err := e.contentRepo.ListByPackage(packageID)
	if err != nil {
		return found, err
	}
	now := time.Now()
	for _, content := range contents {
		if content.Quantity.IsZero() {
			continue
		}
		// Cantidad derivada del ledger, no la proyección: tercera fuente propia.
		ledgerQty, err := e.txnRepo.SumByPackageItem(packageID, content.ItemCode)
		if err != nil {
			ledgerQty = content.Quantity
		}

		erpQty, erpErr := e.erp.GetOnHandQuantity(ctx, content.ItemCode, pkg.WhsCode, pkg.BinEntry)
		if erpErr != nil {
			// Aislamiento por ítem: el fallo queda registrado, el scan sigue.
			inc, uerr := e.upsert(pkg, content.ItemCode, entity.InconsistencyLookupError,
				decimal.Zero, decimal.Zero, ledgerQty, entity.SeverityInfo, erpErr.Error())
			if uerr == nil {
				found = append(found, inc)
			}
			continue
		}

		wmsQty := decimal.Zero
		wmsOK := false
		if e.wms != nil && pkg.BinEntry != nil {
			if q, werr := e.wms.GetBinQuantity(ctx, content.ItemCode, *pkg.BinEntry); werr == nil {
				wmsQty = q
				wmsOK = true
			}
		}

		// Tolerancia cero: el paquete no puede tener más de lo que el ERP
		// reporta en esa ubicación.
		if ledgerQty.GreaterThan(erpQty) {
			drift := ledgerQty.Sub(erpQty)
			sev := e.policy.severity(drift, e.firstDetected(pkg.ID, content.ItemCode, entity.InconsistencyQuantityMismatch, now), now)
			inc, uerr := e.upsert(pkg, content.ItemCode, entity.InconsistencyQuantityMismatch,
				erpQty, wmsQty, ledgerQty, sev, "")
			if uerr == nil {
				found = append(found, inc)
			}
		} else if wmsOK && ledgerQty.GreaterThan(wmsQty) {
			// El ERP cuadra pero el bin-tracker independiente no ve el ítem
			// donde el paquete dice estar.
			drift := ledgerQty.Sub(wmsQty)
			sev := e.policy.severity(drift, e.firstDetected(pkg.ID, content.ItemCode, entity.InconsistencyLocationMismatch, now), now)
			inc, uerr := e.upsert(pkg, content.ItemCode, entity.InconsistencyLocationMismatch,
				erpQty, wmsQty, ledgerQty, sev, "")
			if uerr == nil {
				found = append(found, inc)
			}
		}
	}
	return found, nil
}

// firstDetected devuelve la marca de primera detección de la clave para la
// escalación por antigüedad (now si nunca se ha visto).
func (e *Engine) firstDetected(packageID, itemCode, incType string, now time.Time) time.Time {
	existing, err := e.incRepo.GetByKey(packageID, itemCode, incType)
	if err != nil || existing == nil || existing.Resolved {
		return now
	}
	return existing.DetectedAt
}

// upsert crea o actualiza la inconsistencia por clave lógica. Una resuelta que
// recae con la misma causa raíz se reabre sobre el mismo registro.
func (e *Engine) upsert(
	pkg *entity.Package,
	itemCode, incType string,
	erpQty, wmsQty, pkgQty decimal.Decimal,
	severity, errMsg string,
) (*entity.PackageInconsistency, error) {
	existing, err := e.incRepo.GetByKey(pkg.ID, itemCode, incType)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if existing != nil {
		reopened := existing.Resolved
		existing.Barcode = pkg.Barcode
		existing.WhsCode = pkg.WhsCode
		existing.BinEntry = pkg.BinEntry
		existing.ErpQuantity = erpQty
		existing.WmsQuantity = wmsQty
		existing.PackageQuantity = pkgQty
		existing.Severity = severity
		existing.ErrorMessage = errMsg
		if reopened {
			existing.Resolved = false
			existing.ResolvedBy = ""
			existing.ResolutionAction = ""
			existing.ResolvedAt = nil
			existing.DetectedAt = now
		}
		if err := e.incRepo.Update(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	inc := &entity.PackageInconsistency{
		ID:              uuid.New().String(),
		PackageID:       pkg.ID,
		Barcode:         pkg.Barcode,
		ItemCode:        itemCode,
		WhsCode:         pkg.WhsCode,
		BinEntry:        pkg.BinEntry,
		ErpQuantity:     erpQty,
		WmsQuantity:     wmsQty,
		PackageQuantity: pkgQty,
		Type:            incType,
		Severity:        severity,
		DetectedAt:      now,
		ErrorMessage:    errMsg,
	}
	if err := e.incRepo.Create(inc); err != nil {
		return nil, err
	}
	return inc, nil
}

// DetectInconsistencies sweep sobre todos los paquetes activos (no cancelados)
// en alcance, con paralelismo acotado. Un paquete que falla no aborta el scan:
// queda como inconsistencia LOOKUP_ERROR. Siempre devuelve el conjunto vigente
// de inconsistencias sin resolver (posiblemente parcial), nunca un error de
// un solo ítem.
func (e *Engine) DetectInconsistencies(ctx context.Context, whsCode string) ([]*entity.PackageInconsistency, error) {
	const pageSize = 200
	var packages []*entity.Package
	for offset := 0; ; offset += pageSize {
		page, err := e.pkgRepo.ListActive(whsCode, pageSize, offset)
		if err != nil {
			return nil, err
		}
		packages = append(packages, page...)
		if len(page) < pageSize {
			break
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.policy.SweepConcurrency)
	for _, pkg := range packages {
		pkg := pkg
		g.Go(func() error {
			if _, err := e.ValidatePackage(gctx, pkg.ID); err != nil {
				// Aislamiento por paquete: registrar y seguir.
				_, _ = e.upsert(pkg, "", entity.InconsistencyLookupError,
					decimal.Zero, decimal.Zero, decimal.Zero, entity.SeverityInfo, err.Error())
			}
			return nil
		})
	}
	_ = g.Wait()

	return e.incRepo.ListUnresolved(whsCode)
}

// ResolveInconsistency marca una inconsistencia como resuelta con el usuario y
// la acción tomada. Resolver dos veces es conflicto.
func (e *Engine) ResolveInconsistency(ctx context.Context, id, resolvedBy, action string) (*entity.PackageInconsistency, error) {
	if id == "" || resolvedBy == "" || action == "" {
		return nil, domain.ErrInvalidInput
	}
	inc, err := e.incRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if inc == nil {
		return nil, domain.ErrNotFound
	}
	if inc.Resolved {
		return nil, domain.ErrConflict
	}
	now := time.Now()
	inc.Resolved = true
	inc.ResolvedBy = resolvedBy
	inc.ResolutionAction = action
	inc.ResolvedAt = &now
	if err := e.incRepo.Update(inc); err != nil {
		return nil, err
	}
	return inc, nil
}

// ListUnresolved inconsistencias vigentes, opcionalmente por bodega.
func (e *Engine) ListUnresolved(ctx context.Context, whsCode string) ([]*entity.PackageInconsistency, error) {
	return e.incRepo.ListUnresolved(whsCode)
}

// ListByPackage historial completo de inconsistencias de un paquete, resueltas
// incluidas, para auditoría. Paquete inexistente devuelve ErrNotFound.
func (e *Engine) ListByPackage(ctx context.Context, packageID string) ([]*entity.PackageInconsistency, error) {
	pkg, err := e.pkgRepo.GetByID(packageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, domain.ErrNotFound
	}
	return e.incRepo.ListByPackage(packageID)
}

// ValidateBarcode delega en el asignador (formato + no-colisión).
func (e *Engine) ValidateBarcode(ctx context.Context, code string) error {
	return e.allocator.Validate(code)
}
