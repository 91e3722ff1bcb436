package sale

import (
	"context"
	"fmt"
	"time"

	"barpos/internal/core/apperror"
	appctx "barpos/internal/core/context"
	"barpos/internal/core/id"
	"barpos/internal/core/numerator"
	"barpos/internal/core/tx"
	"barpos/internal/domain"
	"barpos/internal/domain/catalogs/bartable"
	"barpos/internal/domain/catalogs/employee"
	"barpos/internal/domain/registers/ledger"
	"barpos/pkg/logger"
)

// LineOp is a line mutation.
type LineOp string

const (
	OpAdd    LineOp = "add"
	OpRemove LineOp = "remove"
)

// Lookups groups the read ports the ledger depends on.
type Lookups struct {
	Bartables      BartableLookup
	Employees      EmployeeLookup
	Products       ProductLookup
	PaymentMethods PaymentMethodLookup
}

// Service is the sale state machine: OPEN → (mutate lines)* → CLOSED.
type Service struct {
	repo      Repository
	lookups   Lookups
	recorder  TransactionRecorder
	numerator numerator.Generator
	txManager tx.Manager
	now       func() time.Time
}

// NewService creates a new sale service.
func NewService(
	repo Repository,
	lookups Lookups,
	recorder TransactionRecorder,
	numerator numerator.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		lookups:   lookups,
		recorder:  recorder,
		numerator: numerator,
		txManager: txManager,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a sale for owner. The owner must be active and must not have
// another open sale; the check and the insert share one transaction.
func (s *Service) Create(ctx context.Context, owner Owner) (*Sale, error) {
	ctx = appctx.WithOperation(ctx, "sale.create")
	kind, ownerID, err := owner.Resolve()
	if err != nil {
		return nil, err
	}

	var doc *Sale
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		ref, err := s.requireActiveOwner(ctx, kind, ownerID)
		if err != nil {
			return err
		}

		existing, err := s.repo.FindOpenByOwner(ctx, ref, ownerID)
		if err != nil {
			return fmt.Errorf("find open sale: %w", err)
		}
		if err := domain.ResolveOpenSale(string(kind), ownerID, existing); err != nil {
			return err
		}

		now := s.now()
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(NumberPrefix), &numerator.Options{Strategy: NumeratorStrategy}, now)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}

		doc = NewSale(kind, ownerID, number)
		doc.DateTime = now
		if err := doc.Validate(ctx); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale opened",
		"id", doc.ID,
		"number", doc.Number,
		"owner_kind", string(kind),
		"owner_id", ownerID)
	return doc, nil
}

// MutateLine adds or removes one unit of productID on an open sale and
// recomputes the total from the persisted lines.
func (s *Service) MutateLine(ctx context.Context, saleID id.ID, op LineOp, productID id.ID) (*Sale, error) {
	if op != OpAdd && op != OpRemove {
		return nil, apperror.NewValidation("invalid line operation").
			WithDetail("field", "op").
			WithDetail("value", string(op))
	}

	var doc *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if doc, err = s.loadForUpdate(ctx, saleID); err != nil {
			return err
		}
		if err := doc.CanModify(); err != nil {
			return err
		}

		switch op {
		case OpAdd:
			p, err := s.lookups.Products.FindActiveByID(ctx, productID)
			if err != nil {
				return notFoundAs(err, "product", productID)
			}
			doc.AddLine(productID, doc.UnitPrice(p.Price))
		case OpRemove:
			if err := doc.RemoveLine(productID); err != nil {
				return err
			}
		}

		if err := s.repo.SaveLines(ctx, saleID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.refreshTotal(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Close settles an open sale with paymentMethodID: one income transaction is
// recorded on the payment method's account and the sale becomes CLOSED.
// Any failure leaves the sale open and no transaction behind.
func (s *Service) Close(ctx context.Context, saleID id.ID, paymentMethodID *id.ID) (*Sale, error) {
	ctx = appctx.WithOperation(ctx, "sale.close")
	var (
		doc   *Sale
		entry *ledger.Transaction
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if doc, err = s.loadForUpdate(ctx, saleID); err != nil {
			return err
		}
		if err := doc.CanModify(); err != nil {
			return err
		}
		if id.IsNilPtr(paymentMethodID) {
			return apperror.NewUnpaidClose(saleID.String())
		}

		pm, err := s.lookups.PaymentMethods.FindActiveByID(ctx, *paymentMethodID)
		if err != nil {
			return notFoundAs(err, "payment method", *paymentMethodID)
		}

		doc.RecalculateTotal()
		if !doc.Total.IsPositive() {
			return apperror.NewValidation("cannot close a sale without lines").
				WithDetail("saleId", saleID.String())
		}

		now := s.now()
		entry, err = s.recorder.CreateEntry(ctx, ledger.Entry{
			AccountID:   pm.AccountID,
			Type:        ledger.TypeIncome,
			Origin:      ledger.OriginSale,
			Amount:      doc.Total,
			SaleID:      id.Ptr(doc.ID),
			Description: "Sale " + doc.Number,
			DateTime:    now,
		})
		if err != nil {
			return fmt.Errorf("record sale transaction: %w", err)
		}

		doc.Open = false
		doc.PaymentMethodID = id.Ptr(pm.ID)
		doc.ClosedAt = &now
		doc.UpdatedAt = now
		if err := doc.Validate(ctx); err != nil {
			return err
		}
		if err := s.repo.UpdateFields(ctx, saleID, domain.Fields{
			"open":              false,
			"payment_method_id": doc.PaymentMethodID,
			"closed_at":         doc.ClosedAt,
			"total":             doc.Total,
			"updated_at":        now,
		}); err != nil {
			return fmt.Errorf("close sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale closed",
		"id", doc.ID,
		"number", doc.Number,
		"total", doc.Total.String(),
		"transaction_id", entry.ID)
	return doc, nil
}

// Delete hard-deletes a sale in any state with its lines. Ledger entries
// produced by the sale stay, with their sale link cleared.
func (s *Service) Delete(ctx context.Context, saleID id.ID) error {
	ctx = appctx.WithOperation(ctx, "sale.delete")
	var detached int
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.FindByID(ctx, saleID); err != nil {
			return notFoundAs(err, "sale", saleID)
		}
		var err error
		if detached, err = s.recorder.DetachSale(ctx, saleID); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, saleID); err != nil {
			return fmt.Errorf("delete sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Warn(ctx, "sale deleted", "id", saleID, "transactions_detached", detached)
	return nil
}

// GetByID retrieves a sale with lines.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	doc, err := s.repo.FindByID(ctx, saleID)
	if err != nil {
		return nil, notFoundAs(err, "sale", saleID)
	}
	if doc.Lines, err = s.repo.GetLines(ctx, saleID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return doc, nil
}

// List retrieves sale headers. Lines are not loaded.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error) {
	if filter.Limit <= 0 {
		filter.Limit = domain.DefaultListFilter().Limit
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) requireActiveOwner(ctx context.Context, kind OwnerKind, ownerID id.ID) (string, error) {
	switch kind {
	case OwnerBartable:
		if _, err := s.lookups.Bartables.FindActiveByID(ctx, ownerID); err != nil {
			return "", notFoundAs(err, "bartable", ownerID)
		}
		return bartable.SaleRef, nil
	default:
		if _, err := s.lookups.Employees.FindActiveByID(ctx, ownerID); err != nil {
			return "", notFoundAs(err, "employee", ownerID)
		}
		return employee.SaleRef, nil
	}
}

func (s *Service) loadForUpdate(ctx context.Context, saleID id.ID) (*Sale, error) {
	doc, err := s.repo.GetForUpdate(ctx, saleID)
	if err != nil {
		return nil, notFoundAs(err, "sale", saleID)
	}
	if doc.Lines, err = s.repo.GetLines(ctx, saleID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return doc, nil
}

// refreshTotal re-reads the stored lines and writes their sum as the total.
func (s *Service) refreshTotal(ctx context.Context, doc *Sale) error {
	lines, err := s.repo.GetLines(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines
	doc.RecalculateTotal()
	doc.UpdatedAt = s.now()

	if err := s.repo.UpdateFields(ctx, doc.ID, domain.Fields{
		"total":      doc.Total,
		"updated_at": doc.UpdatedAt,
	}); err != nil {
		return fmt.Errorf("update total: %w", err)
	}
	return nil
}

func notFoundAs(err error, entity string, entityID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(entity, entityID.String())
	}
	return err
}
