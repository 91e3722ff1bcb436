package domain

import (
	"context"
	"errors"

	"barpos/internal/core/apperror"
	"barpos/internal/core/id"
)

// Strategy is a caller-supplied token resolving a previously reported conflict.
type Strategy string

const (
	// StrategyNone means the caller has not chosen yet.
	StrategyNone Strategy = ""

	// StrategyCancel aborts the operation without touching state.
	StrategyCancel Strategy = "cancel"
)

// DependentAction is the mutation applied to live dependents before deactivation.
type DependentAction int

const (
	// ActionNone leaves dependents untouched.
	ActionNone DependentAction = iota

	// ActionClearForeignKey nulls the reference on every live dependent.
	ActionClearForeignKey

	// ActionCascadeDeactivate soft-deletes every live dependent.
	ActionCascadeDeactivate
)

// DependentOption binds a strategy token to the action it triggers.
type DependentOption struct {
	Strategy Strategy
	Action   DependentAction
}

// DeactivationPolicy describes which rows block deactivation of a kind and
// how each strategy resolves them. A policy with no options can only be cancelled.
type DeactivationPolicy struct {
	// Dependents is the repository of the dependent table
	Dependents DependentsRepository

	// Ref is the foreign key column on the dependent table
	Ref string

	// Options lists the proceed strategies in the order reported to callers
	Options []DependentOption
}

// AllowedStrategies returns the closed strategy set, cancel last.
func (p *DeactivationPolicy) AllowedStrategies() []string {
	out := make([]string, 0, len(p.Options)+1)
	for _, o := range p.Options {
		out = append(out, string(o.Strategy))
	}
	return append(out, string(StrategyCancel))
}

func (p *DeactivationPolicy) action(s Strategy) (DependentAction, bool) {
	for _, o := range p.Options {
		if o.Strategy == s {
			return o.Action, true
		}
	}
	return ActionNone, false
}

// apply runs the dependent mutation for action. Must be called inside a transaction.
func (p *DeactivationPolicy) apply(ctx context.Context, action DependentAction, parentID id.ID) (int, error) {
	switch action {
	case ActionClearForeignKey:
		return p.Dependents.ClearForeignKeyOnDependents(ctx, p.Ref, parentID)
	case ActionCascadeDeactivate:
		return p.Dependents.DeactivateDependents(ctx, p.Ref, parentID)
	default:
		return 0, nil
	}
}

// ActivationPort reads and restores the active state of a required dependency.
type ActivationPort interface {
	IsActive(ctx context.Context, id id.ID) (bool, error)
	Reactivate(ctx context.Context, id id.ID) error
}

// DependencyPolicy describes a required dependency that must be active
// for a row of kind T to be active (e.g. PaymentMethod → Account).
type DependencyPolicy[T any] struct {
	// Name of the dependency kind, reported in conflicts
	Name string

	// Ref extracts the dependency id from a row; nil means no dependency
	Ref func(T) *id.ID

	// Port reads and reactivates the dependency
	Port ActivationPort

	// Strategy reactivates the dependency before the row itself
	Strategy Strategy
}

// AllowedStrategies returns the closed strategy set, cancel last.
func (p *DependencyPolicy[T]) AllowedStrategies() []string {
	return []string{string(p.Strategy), string(StrategyCancel)}
}

// DependentsCounter is the read half of DependentsRepository.
type DependentsCounter interface {
	CountActiveDependents(ctx context.Context, ref string, parentID id.ID) (int, error)
}

// BlockingDependents adapts a counter whose dependents can only block a
// deactivation (e.g. open sales on a table). Mutations are refused.
func BlockingDependents(c DependentsCounter) DependentsRepository {
	return blockingDependents{c}
}

type blockingDependents struct {
	DependentsCounter
}

func (blockingDependents) ClearForeignKeyOnDependents(context.Context, string, id.ID) (int, error) {
	return 0, apperror.NewInternal(errors.New("dependents cannot be detached"))
}

func (blockingDependents) DeactivateDependents(context.Context, string, id.ID) (int, error) {
	return 0, apperror.NewInternal(errors.New("dependents cannot be deactivated"))
}
