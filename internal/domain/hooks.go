package domain

import "context"

// HookEvent identifies a lifecycle point.
type HookEvent string

const (
	// BeforeCreate and BeforeUpdate run inside the write transaction,
	// after validation and duplicate detection.
	BeforeCreate HookEvent = "before_create"
	BeforeUpdate HookEvent = "before_update"

	// BeforeReactivate runs inside the reactivation transaction, on the row
	// about to become active (the target of a swap included).
	BeforeReactivate HookEvent = "before_reactivate"

	// AfterDeactivate and AfterReactivate run after commit; errors are logged only.
	AfterDeactivate HookEvent = "after_deactivate"
	AfterReactivate HookEvent = "after_reactivate"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks for the specified event, stopping at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

// OnBeforeWrite registers the same hook for create and update.
func (r *HookRegistry[T]) OnBeforeWrite(hook Hook[T]) {
	r.On(BeforeCreate, hook)
	r.On(BeforeUpdate, hook)
}

// OnBeforeReactivate registers a hook to run before a row becomes active again.
func (r *HookRegistry[T]) OnBeforeReactivate(hook Hook[T]) {
	r.On(BeforeReactivate, hook)
}
