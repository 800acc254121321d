package realtime_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-authkit/realtime"
)

func setupTasksDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE tasks (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		is_completed BOOLEAN NOT NULL DEFAULT false,
		creator TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		deleted_at TIMESTAMP
	)`)
	require.NoError(t, err)

	return db
}

func TestTasksCreateAssignsDeterministicID(t *testing.T) {
	repo := realtime.NewTasksRepository(setupTasksDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, &realtime.Task{
		Text:    "write report",
		Creator: "user_01",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	// Same natural key derives the same ID.
	want, err := hashid.NewUUID("user_01:write report")
	require.NoError(t, err)
	assert.Equal(t, want, created.ID)
}

func TestTasksListByCreator(t *testing.T) {
	repo := realtime.NewTasksRepository(setupTasksDB(t))
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	for i, text := range []string{"first", "second", "third"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		_, err := repo.Create(ctx, &realtime.Task{
			Text:      text,
			Creator:   "user_01",
			CreatedAt: &ts,
		})
		require.NoError(t, err)
	}

	other := base.Add(time.Hour)
	_, err := repo.Create(ctx, &realtime.Task{
		Text:      "not yours",
		Creator:   "user_02",
		CreatedAt: &other,
	})
	require.NoError(t, err)

	records, err := repo.ListByCreator(ctx, "user_01")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "first", records[0].Text)
	assert.Equal(t, "second", records[1].Text)
	assert.Equal(t, "third", records[2].Text)
}

func TestTasksToggle(t *testing.T) {
	repo := realtime.NewTasksRepository(setupTasksDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, &realtime.Task{
		Text:    "flip me",
		Creator: "user_01",
	})
	require.NoError(t, err)
	require.False(t, created.Completed)

	toggled, err := repo.Toggle(ctx, "user_01", created.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	toggled, err = repo.Toggle(ctx, "user_01", created.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)
}

func TestTasksToggleRejectsForeignTask(t *testing.T) {
	repo := realtime.NewTasksRepository(setupTasksDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, &realtime.Task{
		Text:    "private",
		Creator: "user_01",
	})
	require.NoError(t, err)

	_, err = repo.Toggle(ctx, "user_02", created.ID)
	require.Error(t, err)

	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, errors.CategoryAuthz, richErr.Category)
	assert.Equal(t, errors.CodeForbidden, richErr.Code)
}

func TestTasksToggleNotFound(t *testing.T) {
	repo := realtime.NewTasksRepository(setupTasksDB(t))

	_, err := repo.Toggle(context.Background(), "user_01", uuid.New())
	require.Error(t, err)

	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, errors.CategoryNotFound, richErr.Category)
}

func TestTasksRemove(t *testing.T) {
	repo := realtime.NewTasksRepository(setupTasksDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, &realtime.Task{
		Text:    "done with this",
		Creator: "user_01",
	})
	require.NoError(t, err)

	require.NoError(t, repo.Remove(ctx, "user_01", created.ID))

	records, err := repo.ListByCreator(ctx, "user_01")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestTasksRemoveRejectsForeignTask(t *testing.T) {
	repo := realtime.NewTasksRepository(setupTasksDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, &realtime.Task{
		Text:    "keep out",
		Creator: "user_01",
	})
	require.NoError(t, err)

	err = repo.Remove(ctx, "user_02", created.ID)
	require.Error(t, err)

	// Still there for the owner.
	records, err := repo.ListByCreator(ctx, "user_01")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
