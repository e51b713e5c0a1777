package taskapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/taskforge/taskforge/pkg/errx"
	"github.com/taskforge/taskforge/pkg/identity"
	"github.com/taskforge/taskforge/pkg/kernel"
	"github.com/taskforge/taskforge/pkg/task"
	"github.com/taskforge/taskforge/pkg/task/tasksrv"
)

// TaskHandlers exposes the owner-scoped task lifecycle over HTTP.
type TaskHandlers struct {
	service *tasksrv.Service
}

// NewTaskHandlers creates the handler set.
func NewTaskHandlers(service *tasksrv.Service) *TaskHandlers {
	return &TaskHandlers{service: service}
}

// RegisterRoutes mounts the task routes behind the access guard.
func (h *TaskHandlers) RegisterRoutes(app *fiber.App, guard *identity.Guard) {
	tasks := app.Group("/api/tasks", guard.Authenticate())
	tasks.Post("/", h.Create)
	tasks.Get("/", h.List)
	tasks.Patch("/done/:id", h.SetDone)
	tasks.Patch("/:id", h.Update)
	tasks.Delete("/:id", h.Delete)
}

// taskResponse flattens the stored record next to a confirmation message.
type taskResponse struct {
	Message string `json:"message"`
	task.Task
}

type titleRequest struct {
	Title any `json:"title"`
}

type doneRequest struct {
	// Absent means false: omitting the field marks the task not done, it
	// does not leave the prior value unchanged.
	Done bool `json:"done"`
}

// Create validates the title and inserts a new task owned by the caller.
func (h *TaskHandlers) Create(c *fiber.Ctx) error {
	caller := mustCaller(c)

	var req titleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if violations := task.ValidateTitle(req.Title); len(violations) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": violations})
	}

	created, err := h.service.Create(c.UserContext(), caller, req.Title.(string))
	if err != nil {
		return respondTaskError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(taskResponse{Message: "Task created", Task: *created})
}

// List returns every task the caller owns. Order is unspecified as far as
// clients are concerned.
func (h *TaskHandlers) List(c *fiber.Ctx) error {
	caller := mustCaller(c)

	tasks, err := h.service.List(c.UserContext(), caller)
	if err != nil {
		return respondTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tasks)
}

// Update applies a title change to the caller's task.
func (h *TaskHandlers) Update(c *fiber.Ctx) error {
	caller := mustCaller(c)

	var req titleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	// The id and ownership gates resolve before the payload: a malformed id
	// answers 400 and an absent or foreign task 404 whatever the title says.
	if _, err := h.service.Get(c.UserContext(), caller, c.Params("id")); err != nil {
		return respondTaskError(c, err)
	}

	if req.Title != nil {
		if violations := task.ValidateTitle(req.Title); len(violations) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": violations})
		}
	}

	title, _ := req.Title.(string)
	updated, err := h.service.Update(c.UserContext(), caller, c.Params("id"), title)
	if err != nil {
		return respondTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(taskResponse{Message: "Record updated", Task: *updated})
}

// SetDone sets the done flag of the caller's task.
func (h *TaskHandlers) SetDone(c *fiber.Ctx) error {
	caller := mustCaller(c)

	var req doneRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	updated, err := h.service.SetDone(c.UserContext(), caller, c.Params("id"), req.Done)
	if err != nil {
		return respondTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(taskResponse{Message: "Status updated", Task: *updated})
}

// Delete removes the caller's task.
func (h *TaskHandlers) Delete(c *fiber.Ctx) error {
	caller := mustCaller(c)

	if err := h.service.Delete(c.UserContext(), caller, c.Params("id")); err != nil {
		return respondTaskError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Record deleted"})
}

// mustCaller returns the identity the guard bound to the request. The guard
// always runs first on these routes, so a missing identity is a programming
// error, not a client one.
func mustCaller(c *fiber.Ctx) *kernel.CallerIdentity {
	caller, _ := c.Locals(kernel.CallerLocalsKey).(*kernel.CallerIdentity)
	return caller
}

// respondTaskError maps service failures onto the HTTP contract: malformed
// ids are 400, absent-or-foreign tasks are 404 with a message body, and only
// genuinely unexpected store failures become 500.
func respondTaskError(c *fiber.Ctx, err error) error {
	var appErr *errx.Error
	if errx.As(err, &appErr) {
		if appErr.Type == errx.TypeNotFound {
			return c.Status(appErr.HTTPStatus).JSON(fiber.Map{"message": appErr.Message})
		}
		if appErr.Type == errx.TypeValidation {
			return c.Status(appErr.HTTPStatus).JSON(fiber.Map{"error": appErr.Message})
		}

		logrus.WithError(err).Error("task store failure")
		return c.Status(appErr.HTTPStatus).JSON(fiber.Map{"error": appErr.Error()})
	}

	logrus.WithError(err).Error("task store failure")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
