package task

import (
	"context"

	"github.com/taskforge/taskforge/pkg/kernel"
)

// Repository defines the owner-scoped task store contract. Implementations
// must never return or touch a row whose created_by differs from the owner
// argument.
type Repository interface {
	// Insert stores a new task and assigns its id.
	Insert(ctx context.Context, t Task) (*Task, error)

	// FindByOwner returns every task the owner has, possibly empty.
	FindByOwner(ctx context.Context, owner kernel.UserID) ([]Task, error)

	// FindByID returns the task scoped to (id, owner); ErrTaskNotFound when
	// it is absent or belongs to someone else.
	FindByID(ctx context.Context, id string, owner kernel.UserID) (*Task, error)

	// Update persists a mutated task, scoped to (id, owner).
	Update(ctx context.Context, t Task) error

	// Delete removes the task scoped to (id, owner). Hard removal, no
	// soft-delete.
	Delete(ctx context.Context, id string, owner kernel.UserID) error
}
