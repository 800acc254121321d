package realtime_test

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-authkit/realtime"
)

func newTestService(t *testing.T) (*realtime.Service, realtime.Tasks) {
	t.Helper()

	repo := realtime.NewTasksRepository(setupTasksDB(t))
	service := realtime.NewService(realtime.WithTasks(repo))
	return service, repo
}

func callerContext(subject string) *router.MockContext {
	ctx := router.NewMockContext()
	ctx.LocalsMock["user"] = jwt.MapClaims{"sub": subject}
	ctx.On("Context").Return(context.Background())
	return ctx
}

func TestServiceValidate(t *testing.T) {
	service, _ := newTestService(t)

	ctx := callerContext("user_01")

	var payload map[string]any
	ctx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
		payload = args.Get(1).(map[string]any)
	}).Return(nil)

	require.NoError(t, service.Validate(ctx))
	assert.Equal(t, true, payload["authenticated"])
	assert.Equal(t, "user_01", payload["subject"])
}

func TestServiceTaskCreateAndList(t *testing.T) {
	service, repo := newTestService(t)

	ctx := callerContext("user_01")
	ctx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*realtime.TaskCreateRequest)
		payload.Text = "buy milk"
	}).Return(nil)

	var created *realtime.Task
	ctx.On("JSON", router.StatusCreated, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(*realtime.Task)
	}).Return(nil)

	require.NoError(t, service.TaskCreate(ctx))
	require.NotNil(t, created)
	assert.Equal(t, "buy milk", created.Text)
	assert.Equal(t, "user_01", created.Creator)

	records, err := repo.ListByCreator(context.Background(), "user_01")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestServiceTaskCreateMissingText(t *testing.T) {
	service, _ := newTestService(t)

	ctx := callerContext("user_01")
	ctx.On("Bind", mock.Anything).Return(nil)

	var payload map[string]any
	ctx.On("JSON", router.StatusBadRequest, mock.Anything).Run(func(args mock.Arguments) {
		payload = args.Get(1).(map[string]any)
	}).Return(nil)

	require.NoError(t, service.TaskCreate(ctx))
	assert.Equal(t, "missing task text", payload["error"])
}

func TestServiceTaskToggleForeignTaskForbidden(t *testing.T) {
	service, repo := newTestService(t)

	created, err := repo.Create(context.Background(), &realtime.Task{
		Text:    "private",
		Creator: "user_01",
	})
	require.NoError(t, err)

	ctx := callerContext("user_02")
	ctx.ParamsM["id"] = created.ID.String()

	var status int
	var payload map[string]any
	ctx.On("JSON", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		status = args.Get(0).(int)
		payload = args.Get(1).(map[string]any)
	}).Return(nil)

	require.NoError(t, service.TaskToggle(ctx))
	assert.Equal(t, router.StatusForbidden, status)
	assert.Equal(t, "task belongs to another user", payload["error"])
}

func TestServiceTaskToggleInvalidID(t *testing.T) {
	service, _ := newTestService(t)

	ctx := callerContext("user_01")
	ctx.ParamsM["id"] = "not-a-uuid"

	var payload map[string]any
	ctx.On("JSON", router.StatusBadRequest, mock.Anything).Run(func(args mock.Arguments) {
		payload = args.Get(1).(map[string]any)
	}).Return(nil)

	require.NoError(t, service.TaskToggle(ctx))
	assert.Equal(t, "invalid task id", payload["error"])
}

func TestServiceTaskRemove(t *testing.T) {
	service, repo := newTestService(t)

	created, err := repo.Create(context.Background(), &realtime.Task{
		Text:    "done",
		Creator: "user_01",
	})
	require.NoError(t, err)

	ctx := callerContext("user_01")
	ctx.ParamsM["id"] = created.ID.String()

	var payload map[string]any
	ctx.On("JSON", router.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
		payload = args.Get(1).(map[string]any)
	}).Return(nil)

	require.NoError(t, service.TaskRemove(ctx))
	assert.Equal(t, created.ID.String(), payload["deleted"])

	records, err := repo.ListByCreator(context.Background(), "user_01")
	require.NoError(t, err)
	assert.Empty(t, records)
}
