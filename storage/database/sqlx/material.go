package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core/material"
)

const materialColumns = `id, machine_id, task, materials, technician_id, technician_name, status, created_at, updated_at`

type materialRow struct {
	ID             string    `db:"id"`
	MachineID      string    `db:"machine_id"`
	Task           string    `db:"task"`
	Materials      string    `db:"materials"` // jsonb
	TechnicianID   string    `db:"technician_id"`
	TechnicianName string    `db:"technician_name"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func newMaterialRow(r material.Request) (materialRow, error) {
	items, err := json.Marshal(r.Materials)
	if err != nil {
		return materialRow{}, errors.Wrap(err, "encoding materials")
	}
	return materialRow{
		ID:             r.ID,
		MachineID:      r.MachineID,
		Task:           r.Task,
		Materials:      string(items),
		TechnicianID:   r.TechnicianID,
		TechnicianName: r.TechnicianName,
		Status:         string(r.Status),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}

func (row materialRow) request() (material.Request, error) {
	var items []material.Item
	if err := json.Unmarshal([]byte(row.Materials), &items); err != nil {
		return material.Request{}, errors.Wrap(err, "decoding materials")
	}
	return material.Request{
		ID:             row.ID,
		MachineID:      row.MachineID,
		Task:           row.Task,
		Materials:      items,
		TechnicianID:   row.TechnicianID,
		TechnicianName: row.TechnicianName,
		Status:         material.Status(row.Status),
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}

type materialRepository struct {
	db *sqlx.DB
}

var _ material.Repository = (*materialRepository)(nil)

func NewMaterialRepository(db *sqlx.DB) *materialRepository {
	return &materialRepository{db: db}
}

func (repo *materialRepository) CreateRequest(ctx context.Context, r material.Request) (material.Request, error) {
	r.ID = uuid.New().String()
	row, err := newMaterialRow(r)
	if err != nil {
		return material.Request{}, err
	}
	q := `INSERT INTO material_requests (` + materialColumns + `) VALUES (:id, :machine_id, :task, :materials,
		:technician_id, :technician_name, :status, :created_at, :updated_at)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		return material.Request{}, errors.Wrap(err, "inserting material request")
	}
	return r, nil
}

func (repo *materialRepository) QueryRequests(ctx context.Context, filter material.QueryFilter) ([]material.Request, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.TechnicianID != "" {
		if !isUUID(filter.TechnicianID) {
			return []material.Request{}, nil
		}
		args = append(args, filter.TechnicianID)
		where = append(where, fmt.Sprintf("technician_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	q := `SELECT ` + materialColumns + ` FROM material_requests`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC`

	var rows []materialRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying material requests")
	}
	reqs := make([]material.Request, 0, len(rows))
	for _, row := range rows {
		r, err := row.request()
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, nil
}

func (repo *materialRepository) GetRequest(ctx context.Context, id string) (material.Request, error) {
	if !isUUID(id) {
		return material.Request{}, material.ErrNotFound
	}
	var row materialRow
	q := `SELECT ` + materialColumns + ` FROM material_requests WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return material.Request{}, material.ErrNotFound
		}
		return material.Request{}, errors.Wrap(err, "getting material request")
	}
	return row.request()
}

func (repo *materialRepository) UpdateRequest(ctx context.Context, r material.Request) (material.Request, error) {
	row, err := newMaterialRow(r)
	if err != nil {
		return material.Request{}, err
	}
	q := `UPDATE material_requests SET machine_id = :machine_id, task = :task, materials = :materials,
		status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return material.Request{}, errors.Wrap(err, "updating material request")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return material.Request{}, material.ErrNotFound
	}
	return r, nil
}

func (repo *materialRepository) DeleteRequestsByID(ctx context.Context, ids ...string) error {
	q := `DELETE FROM material_requests WHERE id = ANY($1::uuid[])`
	if _, err := repo.db.ExecContext(ctx, q, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting material requests")
	}
	return nil
}
