package packages

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Paqueteo-api/internal/application/barcode"
	"github.com/jhoicas/Paqueteo-api/internal/application/ports"
	"github.com/jhoicas/Paqueteo-api/internal/domain"
	"github.com/jhoicas/Paqueteo-api/internal/domain/entity"
	"github.com/jhoicas/Paqueteo-api/internal/domain/repository"
)

// Session identidad opaca del caller: usuario y bodega activa.
// Este subsistema no autentica; los valores llegan del middleware HTTP.
type Session struct {
	UserID  string
	WhsCode string
}

// LifecycleUseCase máquina de estados del paquete (Open -> Closed/Cancelled,
// Open <-> Locked) con validación de creación y activación por lotes.
type LifecycleUseCase struct {
	txRunner  TxRunner
	pkgRepo   repository.PackageRepository
	attrRepo  repository.AttributeDefinitionRepository
	allocator *barcode.Allocator
	erp       ports.ErpService
}

// NewLifecycleUseCase construye el caso de uso.
func NewLifecycleUseCase(
	txRunner TxRunner,
	pkgRepo repository.PackageRepository,
	attrRepo repository.AttributeDefinitionRepository,
	allocator *barcode.Allocator,
	erp ports.ErpService,
) *LifecycleUseCase {
	return &LifecycleUseCase{
		txRunner:  txRunner,
		pkgRepo:   pkgRepo,
		attrRepo:  attrRepo,
		allocator: allocator,
		erp:       erp,
	}
}

// CreatePackageInput entrada para crear un paquete.
// El origen debe ser inferible: SourceType PACKAGE/PICKING, o SourceID
// explícito, o un BinEntry. Provisional=true deja el paquete invisible hasta
// ActivatePackagesBySource (creación incremental bajo una operación padre).
type CreatePackageInput struct {
	SourceType   string
	SourceID     string
	SourceLineID *int
	BinEntry     *int
	Provisional  bool
	Notes        string
	Attributes   map[string]string
}

// CreatePackage valida el origen, asigna barcode y escribe el paquete con
// estado OPEN, todo en una transacción (sin huecos de secuencia si falla).
func (uc *LifecycleUseCase) CreatePackage(ctx context.Context, session Session, input CreatePackageInput) (*entity.Package, error) {
	if session.UserID == "" || session.WhsCode == "" {
		return nil, domain.ErrInvalidInput
	}
	if !originInferable(input) {
		return nil, domain.ErrInvalidInput
	}
	if input.SourceType != "" && !validOperationType(input.SourceType) {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.validateAttributes(input.Attributes); err != nil {
		return nil, err
	}

	// Resolver el código del bin fuera de la sección crítica (I/O externa).
	binCode := ""
	if input.BinEntry != nil {
		code, err := uc.erp.GetBinCode(ctx, *input.BinEntry)
		if err != nil {
			return nil, fmt.Errorf("resolver bin %d: %w", *input.BinEntry, err)
		}
		if code == "" {
			return nil, domain.ErrNotFound
		}
		binCode = code
	}

	now := time.Now()
	pkg := &entity.Package{
		ID:           uuid.New().String(),
		Status:       entity.PackageStatusOpen,
		WhsCode:      session.WhsCode,
		BinEntry:     input.BinEntry,
		BinCode:      binCode,
		Active:       !input.Provisional,
		SourceType:   input.SourceType,
		SourceID:     input.SourceID,
		SourceLineID: input.SourceLineID,
		Notes:        input.Notes,
		Attributes:   input.Attributes,
		CreatedAt:    now,
		CreatedBy:    session.UserID,
		UpdatedAt:    now,
	}

	err := uc.txRunner.Run(ctx, func(
		pkgRepo repository.PackageRepository,
		txnRepo repository.PackageTransactionRepository,
		seqRepo repository.BarcodeSequenceRepository,
	) error {
		code, err := uc.allocator.GenerateWith(seqRepo)
		if err != nil {
			return err
		}
		pkg.Barcode = code
		if err := pkgRepo.Create(pkg); err != nil {
			return err
		}
		return txnRepo.Create(&entity.PackageTransaction{
			ID:        uuid.New().String(),
			PackageID: pkg.ID,
			Type:      entity.TransactionTypeCreate,
			Source:    entity.SourceOperationRef{Type: input.SourceType, ID: input.SourceID, LineID: input.SourceLineID},
			UserID:    session.UserID,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

// ClosePackage cierra un paquete OPEN (terminal) y registra el asiento CLOSE.
func (uc *LifecycleUseCase) ClosePackage(ctx context.Context, packageID, userID string) (*entity.Package, error) {
	return uc.transition(ctx, packageID, userID, entity.TransactionTypeClose, "", func(pkg *entity.Package, now time.Time) error {
		if pkg.Status != entity.PackageStatusOpen {
			return domain.ErrInvalidTransition
		}
		pkg.Status = entity.PackageStatusClosed
		pkg.ClosedAt = &now
		pkg.ClosedBy = userID
		return nil
	})
}

// CancelPackage cancela un paquete OPEN (terminal). El motivo es obligatorio.
func (uc *LifecycleUseCase) CancelPackage(ctx context.Context, packageID, reason, userID string) (*entity.Package, error) {
	if reason == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.transition(ctx, packageID, userID, entity.TransactionTypeCancel, reason, func(pkg *entity.Package, now time.Time) error {
		if pkg.Status != entity.PackageStatusOpen {
			return domain.ErrInvalidTransition
		}
		pkg.Status = entity.PackageStatusCancelled
		pkg.CancelReason = reason
		pkg.ClosedAt = &now
		pkg.ClosedBy = userID
		return nil
	})
}

// LockPackage bloquea un paquete OPEN. Si otra operación tiene la fila tomada
// el repositorio devuelve ErrConflict (NOWAIT): el caller reintenta, no se
// encola en silencio.
func (uc *LifecycleUseCase) LockPackage(ctx context.Context, packageID, reason, userID string) (*entity.Package, error) {
	return uc.transition(ctx, packageID, userID, entity.TransactionTypeLock, reason, func(pkg *entity.Package, _ time.Time) error {
		if pkg.Status != entity.PackageStatusOpen {
			return domain.ErrInvalidTransition
		}
		pkg.Status = entity.PackageStatusLocked
		pkg.LockReason = reason
		return nil
	})
}

// UnlockPackage vuelve un paquete LOCKED a OPEN.
func (uc *LifecycleUseCase) UnlockPackage(ctx context.Context, packageID, userID string) (*entity.Package, error) {
	return uc.transition(ctx, packageID, userID, entity.TransactionTypeUnlock, "", func(pkg *entity.Package, _ time.Time) error {
		if pkg.Status != entity.PackageStatusLocked {
			return domain.ErrInvalidTransition
		}
		pkg.Status = entity.PackageStatusOpen
		pkg.LockReason = ""
		return nil
	})
}

// transition aplica una transición bajo bloqueo de fila y deja el asiento de
// auditoría en el ledger, todo en la misma transacción.
func (uc *LifecycleUseCase) transition(
	ctx context.Context,
	packageID, userID, txnType, notes string,
	apply func(pkg *entity.Package, now time.Time) error,
) (*entity.Package, error) {
	var result *entity.Package
	err := uc.txRunner.Run(ctx, func(
		pkgRepo repository.PackageRepository,
		txnRepo repository.PackageTransactionRepository,
		_ repository.BarcodeSequenceRepository,
	) error {
		pkg, err := pkgRepo.GetForUpdate(packageID)
		if err != nil {
			return err
		}
		if pkg == nil {
			return domain.ErrNotFound
		}
		now := time.Now()
		if err := apply(pkg, now); err != nil {
			return err
		}
		pkg.UpdatedAt = now
		if err := pkgRepo.UpdateStatus(pkg); err != nil {
			return err
		}
		if err := txnRepo.Create(&entity.PackageTransaction{
			ID:        uuid.New().String(),
			PackageID: pkg.ID,
			Type:      txnType,
			UserID:    userID,
			Notes:     notes,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		result = pkg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ActivatePackagesBySource activa en bloque, como unidad atómica, los paquetes
// provisionales creados bajo una operación origen ya confirmada. Devuelve
// cuántos activó. Pensado para llamarse cuando la operación padre hace commit.
func (uc *LifecycleUseCase) ActivatePackagesBySource(ctx context.Context, sourceType, sourceID, userID string) (int, error) {
	if sourceType == "" || sourceID == "" {
		return 0, domain.ErrInvalidInput
	}
	var activated int
	err := uc.txRunner.Run(ctx, func(
		pkgRepo repository.PackageRepository,
		txnRepo repository.PackageTransactionRepository,
		_ repository.BarcodeSequenceRepository,
	) error {
		pending, err := pkgRepo.ListBySource(sourceType, sourceID, false)
		if err != nil {
			return err
		}
		n, err := pkgRepo.ActivateBySource(sourceType, sourceID)
		if err != nil {
			return err
		}
		activated = n
		now := time.Now()
		for _, pkg := range pending {
			if pkg.Active {
				continue
			}
			if err := txnRepo.Create(&entity.PackageTransaction{
				ID:        uuid.New().String(),
				PackageID: pkg.ID,
				Type:      entity.TransactionTypeActivate,
				Source:    entity.SourceOperationRef{Type: sourceType, ID: sourceID},
				UserID:    userID,
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return activated, nil
}

// CancelPackagesBySource cancela en bloque los paquetes provisionales de una
// operación padre abortada (sin ambigüedad de update-in-place).
func (uc *LifecycleUseCase) CancelPackagesBySource(ctx context.Context, sourceType, sourceID, reason, userID string) (int, error) {
	if sourceType == "" || sourceID == "" || reason == "" {
		return 0, domain.ErrInvalidInput
	}
	var cancelled int
	err := uc.txRunner.Run(ctx, func(
		pkgRepo repository.PackageRepository,
		txnRepo repository.PackageTransactionRepository,
		_ repository.BarcodeSequenceRepository,
	) error {
		pending, err := pkgRepo.ListBySource(sourceType, sourceID, false)
		if err != nil {
			return err
		}
		n, err := pkgRepo.CancelBySource(sourceType, sourceID, reason, userID)
		if err != nil {
			return err
		}
		cancelled = n
		now := time.Now()
		for _, pkg := range pending {
			if pkg.Active {
				continue
			}
			if err := txnRepo.Create(&entity.PackageTransaction{
				ID:        uuid.New().String(),
				PackageID: pkg.ID,
				Type:      entity.TransactionTypeCancel,
				Source:    entity.SourceOperationRef{Type: sourceType, ID: sourceID},
				UserID:    userID,
				Notes:     reason,
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return cancelled, nil
}

// GetActivePackagesBySource consulta de solo lectura, sin efectos.
func (uc *LifecycleUseCase) GetActivePackagesBySource(ctx context.Context, sourceType, sourceID string) ([]*entity.Package, error) {
	if sourceType == "" || sourceID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.pkgRepo.ListBySource(sourceType, sourceID, true)
}

// ListActivePackages página de paquetes activos no terminales de una bodega,
// ordenados por creación descendente.
func (uc *LifecycleUseCase) ListActivePackages(ctx context.Context, whsCode string, limit, offset int) ([]*entity.Package, error) {
	if whsCode == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.pkgRepo.ListActive(whsCode, limit, offset)
}

// GetPackage devuelve el agregado por ID, o ErrNotFound.
func (uc *LifecycleUseCase) GetPackage(ctx context.Context, packageID string) (*entity.Package, error) {
	pkg, err := uc.pkgRepo.GetByID(packageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, domain.ErrNotFound
	}
	return pkg, nil
}

// GetPackageByBarcode devuelve el agregado por código de barras, o ErrNotFound.
func (uc *LifecycleUseCase) GetPackageByBarcode(ctx context.Context, code string) (*entity.Package, error) {
	pkg, err := uc.pkgRepo.GetByBarcode(code)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, domain.ErrNotFound
	}
	return pkg, nil
}

// originInferable regla DTO: tipo PACKAGE/PICKING, o SourceID explícito, o bin.
func originInferable(in CreatePackageInput) bool {
	if in.SourceType == entity.OperationTypePackage || in.SourceType == entity.OperationTypePicking {
		return true
	}
	if in.SourceID != "" {
		return true
	}
	return in.BinEntry != nil
}

func validOperationType(t string) bool {
	switch t {
	case entity.OperationTypeGoodsReceipt, entity.OperationTypePicking, entity.OperationTypeTransfer,
		entity.OperationTypeCounting, entity.OperationTypePackage, entity.OperationTypeManual:
		return true
	}
	return false
}
