package domain

import (
	"context"
	"fmt"
	"slices"

	"barpos/internal/core/apperror"
	appctx "barpos/internal/core/context"
	"barpos/internal/core/entity"
	"barpos/internal/core/id"
	"barpos/internal/core/tx"
	"barpos/pkg/logger"
)

// Patch is a partial update of a reference row. Apply must leave fields
// the caller did not set untouched.
type Patch[T any] interface {
	Apply(entity T)
}

// VersionedPatch lets a caller assert the version it last read.
type VersionedPatch interface {
	ExpectedVersion() *int
}

// CatalogService implements the soft-delete / reactivate lifecycle shared by
// every reference kind. Behaviour specific to a kind is supplied as policies.
type CatalogService[T entity.Reference] struct {
	repo         CatalogRepository[T]
	txManager    tx.Manager
	hooks        *HookRegistry[T]
	deactivation *DeactivationPolicy
	dependency   *DependencyPolicy[T]

	// entityName for error messages and logs
	entityName string
}

// CatalogServiceConfig configures the catalog service.
type CatalogServiceConfig[T entity.Reference] struct {
	Repo       CatalogRepository[T]
	TxManager  tx.Manager
	EntityName string

	// Deactivation is nil for kinds nothing depends on
	Deactivation *DeactivationPolicy

	// Dependency is nil for kinds without a required parent
	Dependency *DependencyPolicy[T]
}

// NewCatalogService creates a new catalog service.
func NewCatalogService[T entity.Reference](cfg CatalogServiceConfig[T]) *CatalogService[T] {
	return &CatalogService[T]{
		repo:         cfg.Repo,
		txManager:    cfg.TxManager,
		hooks:        NewHookRegistry[T](),
		deactivation: cfg.Deactivation,
		dependency:   cfg.Dependency,
		entityName:   cfg.EntityName,
	}
}

// Hooks returns the hook registry for external registration.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// EntityName returns the kind name used in errors.
func (s *CatalogService[T]) EntityName() string {
	return s.entityName
}

func (s *CatalogService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *CatalogService[T]) normalizeGetErr(err error, entityID id.ID) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, entityID.String())
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", entityID.String())
}

// Create inserts a new active row after checking its natural key against every row of the kind.
// A key held by an inactive row is reported, never silently reactivated.
func (s *CatalogService[T]) Create(ctx context.Context, e T) (T, error) {
	e.Normalize()
	e.SetActive(true)
	if err := e.Validate(ctx); err != nil {
		return e, s.normalizeValidationErr(err)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkKey(ctx, e, id.Nil()); err != nil {
			return err
		}
		if err := s.hooks.Run(ctx, BeforeCreate, e); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return e, err
	}

	logger.Info(ctx, s.entityName+" created", "id", e.GetID(), "key", e.NaturalKey())
	return e, nil
}

// Update applies patch to the stored row and saves it with optimistic locking.
func (s *CatalogService[T]) Update(ctx context.Context, entityID id.ID, patch Patch[T]) (T, error) {
	var out T
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.FindByID(ctx, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		if vp, ok := patch.(VersionedPatch); ok {
			if v := vp.ExpectedVersion(); v != nil && *v != e.GetVersion() {
				return apperror.NewConcurrentModification(s.entityName, entityID.String())
			}
		}

		patch.Apply(e)
		e.Normalize()
		if err := e.Validate(ctx); err != nil {
			return s.normalizeValidationErr(err)
		}
		if err := s.checkKey(ctx, e, entityID); err != nil {
			return err
		}
		if err := s.hooks.Run(ctx, BeforeUpdate, e); err != nil {
			return err
		}
		if err := s.repo.Save(ctx, e); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		out = e
		return nil
	})
	if err != nil {
		return out, err
	}

	logger.Info(ctx, s.entityName+" updated", "id", entityID, "version", out.GetVersion())
	return out, nil
}

// UpdateFields writes raw column values without duplicate detection.
// Only for columns that are not part of the natural key.
func (s *CatalogService[T]) UpdateFields(ctx context.Context, entityID id.ID, fields Fields) (T, error) {
	var out T
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateFields(ctx, entityID, fields); err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		e, err := s.repo.FindByID(ctx, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		out = e
		return nil
	})
	return out, err
}

// Deactivate soft-deletes an active row. With live dependents and no strategy it
// reports IN_USE and mutates nothing; otherwise the dependent mutation and the
// deactivation commit together.
func (s *CatalogService[T]) Deactivate(ctx context.Context, entityID id.ID, strategy Strategy) (T, error) {
	ctx = appctx.WithOperation(ctx, s.entityName+".deactivate")
	var (
		out      T
		affected int
		canceled bool
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.FindActiveByID(ctx, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		out = e

		count := 0
		if s.deactivation != nil {
			if count, err = s.deactivation.Dependents.CountActiveDependents(ctx, s.deactivation.Ref, entityID); err != nil {
				return fmt.Errorf("count %s dependents: %w", s.entityName, err)
			}
		}

		decision, err := ResolveDeactivation(s.entityName, entityID, count, strategy, s.deactivation)
		if err != nil {
			return err
		}
		if decision.Cancel {
			canceled = true
			return nil
		}

		if decision.Action != ActionNone {
			if affected, err = s.deactivation.apply(ctx, decision.Action, entityID); err != nil {
				return fmt.Errorf("update %s dependents: %w", s.entityName, err)
			}
		}
		if err := s.repo.SoftDeactivate(ctx, entityID); err != nil {
			return fmt.Errorf("deactivate %s: %w", s.entityName, err)
		}

		out, err = s.repo.FindByID(ctx, entityID)
		return err
	})
	if err != nil || canceled {
		return out, err
	}

	logger.Info(ctx, s.entityName+" deactivated",
		"id", entityID,
		"strategy", string(strategy),
		"dependents_affected", affected,
	)
	s.runAfter(ctx, AfterDeactivate, out)
	return out, nil
}

// Reactivate restores an inactive row, optionally reactivating its required
// dependency in the same transaction.
func (s *CatalogService[T]) Reactivate(ctx context.Context, entityID id.ID, strategy Strategy) (T, error) {
	ctx = appctx.WithOperation(ctx, s.entityName+".reactivate")
	var (
		out      T
		canceled bool
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.FindByID(ctx, entityID)
		if err != nil {
			return s.normalizeGetErr(err, entityID)
		}
		out = e
		if e.IsActive() {
			return apperror.NewAlreadyActive(s.entityName, entityID.String())
		}

		decision, err := s.resolveDependency(ctx, e, strategy)
		if err != nil {
			return err
		}
		if decision.Cancel {
			canceled = true
			return nil
		}

		rows, err := s.repo.FindByNaturalKey(ctx, e.NaturalKey())
		if err != nil {
			return fmt.Errorf("find %s by key: %w", s.entityName, err)
		}
		if err := ResolveActiveHolder(s.entityName, e.NaturalKey(), rows, entityID); err != nil {
			return err
		}

		if decision.ReactivateDependency {
			if err := s.dependency.Port.Reactivate(ctx, *s.dependency.Ref(e)); err != nil {
				return fmt.Errorf("reactivate %s: %w", s.dependency.Name, err)
			}
		}
		if err := s.hooks.Run(ctx, BeforeReactivate, e); err != nil {
			return err
		}
		if err := s.repo.Reactivate(ctx, entityID); err != nil {
			return fmt.Errorf("reactivate %s: %w", s.entityName, err)
		}

		out, err = s.repo.FindByID(ctx, entityID)
		return err
	})
	if err != nil || canceled {
		return out, err
	}

	logger.Info(ctx, s.entityName+" reactivated", "id", entityID, "strategy", string(strategy))
	s.runAfter(ctx, AfterReactivate, out)
	return out, nil
}

// ReactivateSwap puts the inactive row inactiveID back in place of the active
// row activeID. It settles a DUPLICATE_INACTIVE reported for activeID: the
// inactive row takes its key back and activeID is retired. strategy resolves
// either the reactivated row's dependency or the retired row's dependents.
// Both flips commit together or not at all.
func (s *CatalogService[T]) ReactivateSwap(ctx context.Context, inactiveID, activeID id.ID, strategy Strategy) (T, error) {
	ctx = appctx.WithOperation(ctx, s.entityName+".reactivate_swap")
	var (
		out      T
		affected int
		canceled bool
	)
	if inactiveID == activeID {
		return out, apperror.NewValidation("swap requires two distinct rows")
	}
	reactivation, deactivation, err := s.splitSwapStrategy(strategy)
	if err != nil {
		return out, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		target, err := s.repo.FindByID(ctx, inactiveID)
		if err != nil {
			return s.normalizeGetErr(err, inactiveID)
		}
		out = target
		if target.IsActive() {
			return apperror.NewAlreadyActive(s.entityName, inactiveID.String())
		}
		if _, err := s.repo.FindActiveByID(ctx, activeID); err != nil {
			return s.normalizeGetErr(err, activeID)
		}

		// Only a third active row can still block the key once activeID is retired.
		rows, err := s.repo.FindByNaturalKey(ctx, target.NaturalKey())
		if err != nil {
			return fmt.Errorf("find %s by key: %w", s.entityName, err)
		}
		rows = slices.DeleteFunc(rows, func(r T) bool { return r.GetID() == activeID })
		if err := ResolveActiveHolder(s.entityName, target.NaturalKey(), rows, inactiveID); err != nil {
			return err
		}

		dependency, err := s.resolveDependency(ctx, target, reactivation)
		if err != nil {
			return err
		}
		if dependency.Cancel {
			canceled = true
			return nil
		}

		count := 0
		if s.deactivation != nil {
			if count, err = s.deactivation.Dependents.CountActiveDependents(ctx, s.deactivation.Ref, activeID); err != nil {
				return fmt.Errorf("count %s dependents: %w", s.entityName, err)
			}
		}
		retire, err := ResolveDeactivation(s.entityName, activeID, count, deactivation, s.deactivation)
		if err != nil {
			return err
		}

		if dependency.ReactivateDependency {
			if err := s.dependency.Port.Reactivate(ctx, *s.dependency.Ref(target)); err != nil {
				return fmt.Errorf("reactivate %s: %w", s.dependency.Name, err)
			}
		}
		if err := s.hooks.Run(ctx, BeforeReactivate, target); err != nil {
			return err
		}
		if retire.Action != ActionNone {
			if affected, err = s.deactivation.apply(ctx, retire.Action, activeID); err != nil {
				return fmt.Errorf("update %s dependents: %w", s.entityName, err)
			}
		}

		// The active row goes first: the key is unique among active rows at every statement.
		if err := s.repo.SoftDeactivate(ctx, activeID); err != nil {
			return fmt.Errorf("deactivate %s: %w", s.entityName, err)
		}
		if err := s.repo.Reactivate(ctx, inactiveID); err != nil {
			return fmt.Errorf("reactivate %s: %w", s.entityName, err)
		}

		out, err = s.repo.FindByID(ctx, inactiveID)
		return err
	})
	if err != nil || canceled {
		return out, err
	}

	logger.Info(ctx, s.entityName+" swapped",
		"reactivated_id", inactiveID,
		"deactivated_id", activeID,
		"strategy", string(strategy),
		"dependents_affected", affected,
	)
	return out, nil
}

// splitSwapStrategy routes a swap strategy to the half of the swap that owns
// it: the dependency of the reactivated row or the dependents of the retired one.
func (s *CatalogService[T]) splitSwapStrategy(strategy Strategy) (reactivation, deactivation Strategy, err error) {
	switch {
	case strategy == StrategyNone, strategy == StrategyCancel:
		return strategy, strategy, nil
	case s.dependency != nil && strategy == s.dependency.Strategy:
		return strategy, StrategyNone, nil
	case s.deactivation != nil:
		if _, ok := s.deactivation.action(strategy); ok {
			return StrategyNone, strategy, nil
		}
	}

	allowed := make([]string, 0, 4)
	if s.dependency != nil {
		allowed = append(allowed, string(s.dependency.Strategy))
	}
	if s.deactivation != nil {
		for _, o := range s.deactivation.Options {
			allowed = append(allowed, string(o.Strategy))
		}
	}
	return StrategyNone, StrategyNone, unknownStrategy(strategy, append(allowed, string(StrategyCancel)))
}

// GetByID retrieves a row in any state.
func (s *CatalogService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	e, err := s.repo.FindByID(ctx, entityID)
	if err != nil {
		return e, s.normalizeGetErr(err, entityID)
	}
	return e, nil
}

// GetActiveByID retrieves an active row; inactive rows are NOT_FOUND.
func (s *CatalogService[T]) GetActiveByID(ctx context.Context, entityID id.ID) (T, error) {
	e, err := s.repo.FindActiveByID(ctx, entityID)
	if err != nil {
		return e, s.normalizeGetErr(err, entityID)
	}
	return e, nil
}

// List retrieves entities with filtering.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	return s.repo.List(ctx, filter)
}

// Activation exposes this kind as a required dependency of another kind.
func (s *CatalogService[T]) Activation() ActivationPort {
	return activationPort[T]{s: s}
}

func (s *CatalogService[T]) checkKey(ctx context.Context, e T, excludeID id.ID) error {
	rows, err := s.repo.FindByNaturalKey(ctx, e.NaturalKey())
	if err != nil {
		return fmt.Errorf("find %s by key: %w", s.entityName, err)
	}
	return ResolveDuplicate(s.entityName, e.NaturalKey(), rows, excludeID)
}

func (s *CatalogService[T]) resolveDependency(ctx context.Context, e T, strategy Strategy) (ReactivationDecision, error) {
	if s.dependency == nil {
		return ResolveReactivation(s.entityName, "", nil, true, strategy, nil)
	}

	depID := s.dependency.Ref(e)
	active := true
	if depID != nil {
		var err error
		if active, err = s.dependency.Port.IsActive(ctx, *depID); err != nil {
			return ReactivationDecision{}, err
		}
	}
	return ResolveReactivation(s.entityName, s.dependency.Name, depID, active, strategy, s.dependency.AllowedStrategies())
}

func (s *CatalogService[T]) runAfter(ctx context.Context, event HookEvent, e T) {
	if err := s.hooks.Run(ctx, event, e); err != nil {
		logger.Warn(ctx, "after hook failed", "entity", s.entityName, "event", string(event), "error", err)
	}
}

type activationPort[T entity.Reference] struct {
	s *CatalogService[T]
}

func (a activationPort[T]) IsActive(ctx context.Context, entityID id.ID) (bool, error) {
	e, err := a.s.GetByID(ctx, entityID)
	if err != nil {
		return false, err
	}
	return e.IsActive(), nil
}

func (a activationPort[T]) Reactivate(ctx context.Context, entityID id.ID) error {
	_, err := a.s.Reactivate(ctx, entityID, StrategyNone)
	return err
}
