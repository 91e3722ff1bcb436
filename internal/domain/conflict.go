package domain

import (
	"slices"

	"barpos/internal/core/apperror"
	"barpos/internal/core/entity"
	"barpos/internal/core/id"
)

// ResolveDuplicate decides whether key may be taken by a row other than excludeID.
// rows are every row holding key, in any state. An active holder wins over inactive ones.
func ResolveDuplicate[T entity.Reference](entityName, key string, rows []T, excludeID id.ID) error {
	var inactive *T
	for i := range rows {
		r := rows[i]
		if r.GetID() == excludeID {
			continue
		}
		if r.IsActive() {
			return apperror.NewDuplicateActive(entityName, key, r.GetID().String())
		}
		if inactive == nil {
			inactive = &rows[i]
		}
	}
	if inactive != nil {
		return apperror.NewDuplicateInactive(entityName, key, (*inactive).GetID().String())
	}
	return nil
}

// ResolveActiveHolder is used when a row is about to become active again:
// only an active holder of the same key blocks it.
func ResolveActiveHolder[T entity.Reference](entityName, key string, rows []T, selfID id.ID) error {
	for _, r := range rows {
		if r.GetID() != selfID && r.IsActive() {
			return apperror.NewDuplicateActive(entityName, key, r.GetID().String())
		}
	}
	return nil
}

// DeactivationDecision is the outcome of ResolveDeactivation.
type DeactivationDecision struct {
	// Cancel means return the current row untouched
	Cancel bool
	// Action to apply to dependents before deactivating
	Action DependentAction
}

// ResolveDeactivation applies the strategy protocol to a dependents count.
func ResolveDeactivation(entityName string, entityID id.ID, count int, strategy Strategy, policy *DeactivationPolicy) (DeactivationDecision, error) {
	allowed := []string{string(StrategyCancel)}
	if policy != nil {
		allowed = policy.AllowedStrategies()
	}

	if strategy == StrategyNone {
		if count > 0 {
			return DeactivationDecision{}, apperror.NewInUse(entityName, entityID.String(), count, allowed)
		}
		return DeactivationDecision{}, nil
	}
	if strategy == StrategyCancel {
		return DeactivationDecision{Cancel: true}, nil
	}

	if policy != nil {
		if action, ok := policy.action(strategy); ok {
			return DeactivationDecision{Action: action}, nil
		}
	}
	return DeactivationDecision{}, unknownStrategy(strategy, allowed)
}

// ReactivationDecision is the outcome of ResolveReactivation.
type ReactivationDecision struct {
	Cancel               bool
	ReactivateDependency bool
}

// ResolveReactivation applies the strategy protocol to the state of a required dependency.
// allowed is nil when the kind has no required dependency.
func ResolveReactivation(entityName, dependency string, dependencyID *id.ID, dependencyActive bool, strategy Strategy, allowed []string) (ReactivationDecision, error) {
	if allowed == nil {
		allowed = []string{string(StrategyCancel)}
	}

	switch {
	case strategy == StrategyCancel:
		return ReactivationDecision{Cancel: true}, nil
	case strategy != StrategyNone && !slices.Contains(allowed, string(strategy)):
		return ReactivationDecision{}, unknownStrategy(strategy, allowed)
	}

	if dependencyID == nil || dependencyActive {
		return ReactivationDecision{}, nil
	}
	if strategy == StrategyNone {
		return ReactivationDecision{}, apperror.NewDependencyInactive(entityName, dependency, dependencyID.String(), allowed)
	}
	return ReactivationDecision{ReactivateDependency: true}, nil
}

// ResolveOpenSale rejects a second open sale for the same owner.
func ResolveOpenSale(ownerKind string, ownerID id.ID, existing *id.ID) error {
	if existing == nil {
		return nil
	}
	return apperror.NewSaleAlreadyOpen(ownerKind, ownerID.String(), existing.String())
}

func unknownStrategy(s Strategy, allowed []string) error {
	return apperror.NewValidation("unknown strategy").
		WithDetail("strategy", string(s)).
		WithDetail(apperror.DetailAllowedStrategies, allowed)
}
