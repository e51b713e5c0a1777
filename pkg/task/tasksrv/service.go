package tasksrv

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskforge/taskforge/pkg/kernel"
	"github.com/taskforge/taskforge/pkg/task"
)

// Service owns the task lifecycle and enforces ownership scoping on every
// operation. All methods require the verified caller identity as an explicit
// parameter; there is no ambient request state down here.
type Service struct {
	repo task.Repository
}

// NewService creates a task service on top of a repository.
func NewService(repo task.Repository) *Service {
	return &Service{repo: repo}
}

// Create inserts a new task owned by the caller. The title is assumed
// validated by the transport layer.
func (s *Service) Create(ctx context.Context, caller *kernel.CallerIdentity, title string) (*task.Task, error) {
	t := task.Task{
		Title:     title,
		Done:      false,
		CreatedBy: caller.UserID,
		CreatedAt: time.Now().UTC(),
	}
	return s.repo.Insert(ctx, t)
}

// Get returns the caller's task by id.
func (s *Service) Get(ctx context.Context, caller *kernel.CallerIdentity, id string) (*task.Task, error) {
	return s.fetchOwned(ctx, caller, id)
}

// List returns every task the caller owns.
func (s *Service) List(ctx context.Context, caller *kernel.CallerIdentity) ([]task.Task, error) {
	return s.repo.FindByOwner(ctx, caller.UserID)
}

// Update applies a title change to the caller's task. An empty title leaves
// the current one in place, but the mutation stamp is always refreshed.
func (s *Service) Update(ctx context.Context, caller *kernel.CallerIdentity, id, title string) (*task.Task, error) {
	t, err := s.fetchOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if title != "" {
		t.Title = title
	}
	t.Stamp(caller.UserID, time.Now().UTC())

	if err := s.repo.Update(ctx, *t); err != nil {
		return nil, err
	}
	return t, nil
}

// SetDone sets the done flag of the caller's task. Repeating the same call
// is idempotent at the store.
func (s *Service) SetDone(ctx context.Context, caller *kernel.CallerIdentity, id string, done bool) (*task.Task, error) {
	t, err := s.fetchOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	t.Done = done
	t.Stamp(caller.UserID, time.Now().UTC())

	if err := s.repo.Update(ctx, *t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes the caller's task.
func (s *Service) Delete(ctx context.Context, caller *kernel.CallerIdentity, id string) error {
	if _, err := s.fetchOwned(ctx, caller, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, caller.UserID)
}

// fetchOwned validates the id and fetches the task scoped to the caller.
// A malformed id is a 400. An absent or foreign task is a 404, so a
// non-owner can never distinguish "not mine" from "does not exist".
func (s *Service) fetchOwned(ctx context.Context, caller *kernel.CallerIdentity, id string) (*task.Task, error) {
	if uuid.Validate(id) != nil {
		return nil, task.ErrInvalidTaskID()
	}
	return s.repo.FindByID(ctx, id, caller.UserID)
}
