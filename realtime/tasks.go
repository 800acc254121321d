package realtime

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Task is a per-user record. Creator is the token subject of the user that
// created it; every mutation checks it.
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:tsk"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Text          string     `bun:"text,notnull" json:"text"`
	Completed     bool       `bun:"is_completed" json:"is_completed"`
	Creator       string     `bun:"creator,notnull" json:"creator,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Tasks is the persistence surface the service handlers use.
type Tasks interface {
	repository.Repository[*Task]

	ListByCreator(ctx context.Context, creator string) ([]*Task, error)
	Toggle(ctx context.Context, creator string, id uuid.UUID) (*Task, error)
	Remove(ctx context.Context, creator string, id uuid.UUID) error
}

type tasks struct {
	repository.Repository[*Task]
	db *bun.DB
}

var (
	_ Tasks                        = (*tasks)(nil)
	_ repository.Repository[*Task] = (*tasks)(nil)
)

func NewTasksRepository(db *bun.DB) Tasks {
	repo := repository.NewRepository[*Task](db, repository.ModelHandlers[*Task]{
		NewRecord: func() *Task { return &Task{} },
		GetID: func(t *Task) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Task, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
	})

	return &tasks{
		Repository: repo,
		db:         db,
	}
}

func (t *tasks) Create(ctx context.Context, record *Task, criteria ...repository.InsertCriteria) (*Task, error) {
	return t.CreateTx(ctx, t.db, record, criteria...)
}

func (t *tasks) CreateTx(ctx context.Context, tx bun.IDB, record *Task, criteria ...repository.InsertCriteria) (*Task, error) {
	prepareTaskDefaults(record)
	return t.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (t *tasks) ListByCreator(ctx context.Context, creator string) ([]*Task, error) {
	records := []*Task{}
	err := t.db.NewSelect().
		Model(&records).
		Where("?TableAlias.creator = ?", creator).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (t *tasks) Toggle(ctx context.Context, creator string, id uuid.UUID) (*Task, error) {
	record, err := t.ownedTask(ctx, creator, id)
	if err != nil {
		return nil, err
	}

	record.Completed = !record.Completed

	return t.Repository.Update(ctx, record, repository.UpdateByID(id.String()))
}

func (t *tasks) Remove(ctx context.Context, creator string, id uuid.UUID) error {
	if _, err := t.ownedTask(ctx, creator, id); err != nil {
		return err
	}

	_, err := t.db.NewDelete().
		Model((*Task)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (t *tasks) ownedTask(ctx context.Context, creator string, id uuid.UUID) (*Task, error) {
	record, err := t.Repository.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, errors.New("task not found", errors.CategoryNotFound).
				WithCode(errors.CodeNotFound).
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	if record.Creator != creator {
		return nil, errors.New("task belongs to another user", errors.CategoryAuthz).
			WithCode(errors.CodeForbidden).
			WithMetadata(map[string]any{"id": id.String()})
	}

	return record, nil
}

func prepareTaskDefaults(record *Task) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		// Deterministic ID from the natural key keeps a retried create from
		// duplicating the row.
		seed := record.Creator + ":" + record.Text
		if record.CreatedAt != nil {
			seed += ":" + record.CreatedAt.UTC().Format(time.RFC3339Nano)
		}
		if id, err := hashid.NewUUID(seed); err == nil {
			record.ID = id
		} else {
			record.ID = uuid.New()
		}
	}
}
