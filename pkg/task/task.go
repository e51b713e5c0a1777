package task

import (
	"net/http"
	"time"

	"github.com/taskforge/taskforge/pkg/errx"
	"github.com/taskforge/taskforge/pkg/kernel"
)

// Task is a privately owned to-do item. CreatedBy is immutable after
// creation and every read/write/delete is scoped by (id, createdBy); a task
// is never visible to a non-owner.
type Task struct {
	ID        string         `db:"id" json:"_id"`
	Title     string         `db:"title" json:"title"`
	Done      bool           `db:"done" json:"done"`
	CreatedBy kernel.UserID  `db:"created_by" json:"createdBy"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedBy *kernel.UserID `db:"updated_by" json:"updatedBy"`
	UpdatedAt *time.Time     `db:"updated_at" json:"updatedAt"`
}

// Stamp records a mutation by the given caller.
func (t *Task) Stamp(caller kernel.UserID, now time.Time) {
	t.UpdatedBy = &caller
	t.UpdatedAt = &now
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("TASK")

var (
	CodeInvalidTaskID = ErrRegistry.Register("INVALID_TASK_ID", errx.TypeValidation, http.StatusBadRequest, "Invalid task id")
	CodeTaskNotFound  = ErrRegistry.Register("TASK_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Task not found")
)

func ErrInvalidTaskID() *errx.Error {
	return ErrRegistry.New(CodeInvalidTaskID)
}

func ErrTaskNotFound() *errx.Error {
	return ErrRegistry.New(CodeTaskNotFound)
}
