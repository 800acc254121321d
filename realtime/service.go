package realtime

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	"github.com/goliatone/go-authkit"
	"github.com/goliatone/go-authkit/middleware/jwtware"
)

// ServiceRoutes holds the paths the service registers.
type ServiceRoutes struct {
	Validate   string
	Tasks      string
	TaskToggle string
	TaskRemove string
}

// Service is the data service behind the auth bridge. Every route runs under
// jwtware; handlers read the caller identity from the verified token subject
// and never trust anything else in the request.
type Service struct {
	Logger     authkit.Logger
	Tasks      Tasks
	Routes     *ServiceRoutes
	ContextKey string
	JWT        jwtware.Config
}

type ServiceOption func(*Service) *Service

func WithServiceLogger(logger authkit.Logger) ServiceOption {
	return func(s *Service) *Service {
		if logger != nil {
			s.Logger = logger
		}
		return s
	}
}

func WithTasks(tasks Tasks) ServiceOption {
	return func(s *Service) *Service {
		s.Tasks = tasks
		return s
	}
}

func WithServiceRoutes(routes *ServiceRoutes) ServiceOption {
	return func(s *Service) *Service {
		if routes != nil {
			s.Routes = routes
		}
		return s
	}
}

// WithTokenValidation configures how incoming access tokens are verified,
// normally a JWKSetURLs pointing at the provider's published key set.
func WithTokenValidation(cfg jwtware.Config) ServiceOption {
	return func(s *Service) *Service {
		s.JWT = cfg
		return s
	}
}

func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		Logger:     defLogger{},
		ContextKey: "user",
		Routes: &ServiceRoutes{
			Validate:   "/validate",
			Tasks:      "/tasks",
			TaskToggle: "/tasks/:id/toggle",
			TaskRemove: "/tasks/:id",
		},
	}

	for _, opt := range opts {
		s = opt(s)
	}

	if s.Tasks == nil {
		panic("Missing Tasks repository in realtime service...")
	}

	if s.JWT.ContextKey == "" {
		s.JWT.ContextKey = s.ContextKey
	}

	return s
}

// RegisterRoutes wires the service endpoints behind token validation.
func RegisterRoutes[T any](app router.Router[T], opts ...ServiceOption) *Service {
	service := NewService(opts...)
	guard := jwtware.New(service.JWT)

	app.Get(service.Routes.Validate, guard(service.Validate)).
		SetName("realtime.validate")

	app.Get(service.Routes.Tasks, guard(service.TaskList)).
		SetName("realtime.tasks.list")

	app.Post(service.Routes.Tasks, guard(service.TaskCreate)).
		SetName("realtime.tasks.create")

	app.Post(service.Routes.TaskToggle, guard(service.TaskToggle)).
		SetName("realtime.tasks.toggle")

	app.Delete(service.Routes.TaskRemove, guard(service.TaskRemove)).
		SetName("realtime.tasks.remove")

	return service
}

// Validate confirms the presented token. The handler body is trivial on
// purpose: reaching it at all means jwtware accepted the token.
func (s *Service) Validate(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, map[string]any{
		"authenticated": true,
		"subject":       s.caller(ctx),
	})
}

// TaskList returns the caller's tasks, oldest first.
func (s *Service) TaskList(ctx router.Context) error {
	records, err := s.Tasks.ListByCreator(ctx.Context(), s.caller(ctx))
	if err != nil {
		s.Logger.Error("task list failed", "error", err)
		return errorResponse(ctx, err)
	}

	return ctx.JSON(router.StatusOK, records)
}

// TaskCreateRequest is the create payload.
type TaskCreateRequest struct {
	Text string `json:"text"`
}

// TaskCreate inserts a task owned by the caller.
func (s *Service) TaskCreate(ctx router.Context) error {
	payload := TaskCreateRequest{}
	if err := ctx.Bind(&payload); err != nil || payload.Text == "" {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "missing task text",
		})
	}

	record, err := s.Tasks.Create(ctx.Context(), &Task{
		Text:    payload.Text,
		Creator: s.caller(ctx),
	})
	if err != nil {
		s.Logger.Error("task create failed", "error", err)
		return errorResponse(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, record)
}

// TaskToggle flips the completion flag of a task the caller owns.
func (s *Service) TaskToggle(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "invalid task id",
		})
	}

	record, err := s.Tasks.Toggle(ctx.Context(), s.caller(ctx), id)
	if err != nil {
		s.Logger.Error("task toggle failed", "error", err)
		return errorResponse(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

// TaskRemove deletes a task the caller owns.
func (s *Service) TaskRemove(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "invalid task id",
		})
	}

	if err := s.Tasks.Remove(ctx.Context(), s.caller(ctx), id); err != nil {
		s.Logger.Error("task remove failed", "error", err)
		return errorResponse(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"deleted": id.String(),
	})
}

func (s *Service) caller(ctx router.Context) string {
	return jwtware.SubjectFromContext(ctx, s.ContextKey)
}

func errorResponse(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "unexpected service error").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = router.StatusInternalServerError
	}

	return ctx.JSON(status, map[string]any{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}
