package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maintenance/core/task"
)

const taskColumns = `id, type, technician_id, technician_name, scheduled_date, priority, status,
	assigned_by, created_at, updated_at, completed_at`

type taskRow struct {
	ID             string      `db:"id"`
	Type           string      `db:"type"`
	TechnicianID   string      `db:"technician_id"`
	TechnicianName string      `db:"technician_name"`
	ScheduledDate  time.Time   `db:"scheduled_date"`
	Priority       string      `db:"priority"`
	Status         string      `db:"status"`
	AssignedBy     null.String `db:"assigned_by"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
	CompletedAt    null.Time   `db:"completed_at"`
}

func newTaskRow(t task.Task) taskRow {
	row := taskRow{
		ID:             t.ID,
		Type:           t.Type,
		TechnicianID:   t.TechnicianID,
		TechnicianName: t.TechnicianName,
		ScheduledDate:  t.ScheduledDate,
		Priority:       string(t.Priority),
		Status:         string(t.Status),
		AssignedBy:     null.NewString(t.AssignedBy, t.AssignedBy != ""),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	if t.CompletedAt != nil {
		row.CompletedAt = null.TimeFrom(*t.CompletedAt)
	}
	return row
}

func (r taskRow) task() task.Task {
	t := task.Task{
		ID:             r.ID,
		Type:           r.Type,
		TechnicianID:   r.TechnicianID,
		TechnicianName: r.TechnicianName,
		ScheduledDate:  r.ScheduledDate.UTC(),
		Priority:       task.Priority(r.Priority),
		Status:         task.Status(r.Status),
		AssignedBy:     r.AssignedBy.String,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	t.CompletedAt = r.CompletedAt.Ptr()
	return t
}

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *sqlx.DB) *taskRepository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	t.ID = uuid.New().String()
	q := `INSERT INTO tasks (` + taskColumns + `) VALUES (:id, :type, :technician_id, :technician_name,
		:scheduled_date, :priority, :status, :assigned_by, :created_at, :updated_at, :completed_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newTaskRow(t)); err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return t, nil
}

func (repo *taskRepository) QueryTasks(ctx context.Context, filter task.QueryFilter) ([]task.Task, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.TechnicianID != "" {
		if !isUUID(filter.TechnicianID) {
			return []task.Task{}, nil
		}
		args = append(args, filter.TechnicianID)
		where = append(where, fmt.Sprintf("technician_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	q := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY scheduled_date, created_at`

	var rows []taskRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.task())
	}
	return tasks, nil
}

func (repo *taskRepository) GetTask(ctx context.Context, id string) (task.Task, error) {
	if !isUUID(id) {
		return task.Task{}, task.ErrNotFound
	}
	var row taskRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, errors.Wrap(err, "getting task")
	}
	return row.task(), nil
}

func (repo *taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	q := `UPDATE tasks SET type = :type, technician_id = :technician_id, technician_name = :technician_name,
		scheduled_date = :scheduled_date, priority = :priority, status = :status,
		updated_at = :updated_at, completed_at = :completed_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, newTaskRow(t))
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (repo *taskRepository) DeleteTasksByID(ctx context.Context, ids ...string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ANY($1::uuid[])`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting tasks")
	}
	return nil
}
