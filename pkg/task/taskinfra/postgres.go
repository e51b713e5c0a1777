package taskinfra

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskforge/taskforge/pkg/errx"
	"github.com/taskforge/taskforge/pkg/kernel"
	"github.com/taskforge/taskforge/pkg/task"
)

// PostgresTaskRepository is the Postgres implementation of task.Repository.
// Every statement carries the created_by predicate; ownership scoping is
// enforced in SQL, not in Go.
type PostgresTaskRepository struct {
	db *sqlx.DB
}

// NewPostgresTaskRepository creates a new repository instance.
func NewPostgresTaskRepository(db *sqlx.DB) task.Repository {
	return &PostgresTaskRepository{db: db}
}

// Insert stores a new task, assigning its id.
func (r *PostgresTaskRepository) Insert(ctx context.Context, t task.Task) (*task.Task, error) {
	t.ID = uuid.NewString()

	query := `
		INSERT INTO tasks (id, title, done, created_by, created_at, updated_by, updated_at)
		VALUES (:id, :title, :done, :created_by, :created_at, :updated_by, :updated_at)`

	_, err := r.db.NamedExecContext(ctx, query, t)
	if err != nil {
		return nil, errx.Wrap(err, "failed to insert task", errx.TypeInternal).
			WithDetail("owner", t.CreatedBy.String())
	}
	return &t, nil
}

// FindByOwner returns all of the owner's tasks.
func (r *PostgresTaskRepository) FindByOwner(ctx context.Context, owner kernel.UserID) ([]task.Task, error) {
	tasks := make([]task.Task, 0)
	query := `
		SELECT id, title, done, created_by, created_at, updated_by, updated_at
		FROM tasks WHERE created_by = $1 ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &tasks, query, owner.String())
	if err != nil {
		return nil, errx.Wrap(err, "failed to list tasks", errx.TypeInternal)
	}
	return tasks, nil
}

// FindByID fetches the task scoped to (id, owner).
func (r *PostgresTaskRepository) FindByID(ctx context.Context, id string, owner kernel.UserID) (*task.Task, error) {
	var t task.Task
	query := `
		SELECT id, title, done, created_by, created_at, updated_by, updated_at
		FROM tasks WHERE id = $1 AND created_by = $2`
	err := r.db.GetContext(ctx, &t, query, id, owner.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, task.ErrTaskNotFound()
		}
		return nil, errx.Wrap(err, "failed to find task", errx.TypeInternal)
	}
	return &t, nil
}

// Update persists a mutated task, scoped to (id, owner).
func (r *PostgresTaskRepository) Update(ctx context.Context, t task.Task) error {
	query := `
		UPDATE tasks SET
			title = :title,
			done = :done,
			updated_by = :updated_by,
			updated_at = :updated_at
		WHERE id = :id AND created_by = :created_by`

	result, err := r.db.NamedExecContext(ctx, query, t)
	if err != nil {
		return errx.Wrap(err, "failed to update task", errx.TypeInternal).
			WithDetail("task_id", t.ID)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on update", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return task.ErrTaskNotFound()
	}
	return nil
}

// Delete removes the task scoped to (id, owner).
func (r *PostgresTaskRepository) Delete(ctx context.Context, id string, owner kernel.UserID) error {
	query := `DELETE FROM tasks WHERE id = $1 AND created_by = $2`
	result, err := r.db.ExecContext(ctx, query, id, owner.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete task", errx.TypeInternal).
			WithDetail("task_id", id)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on delete", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return task.ErrTaskNotFound()
	}
	return nil
}
