package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core/machine"
)

const (
	machineColumns = `id, code, name, model, brand, created_at, updated_at`
	readingColumns = `id, machine_id, machine_code, machine_name, value, unit, technician_id, recorded_at`
	logColumns     = `id, machine_id, machine_code, machine_model, technician_id, technician_name, service_date,
	service, meter_reading, used_material, status, created_at, updated_at`
)

type machineRepository struct {
	db *sqlx.DB
}

var _ machine.Repository = (*machineRepository)(nil)

func NewMachineRepository(db *sqlx.DB) *machineRepository {
	return &machineRepository{db: db}
}

func codeConflict(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}

func (repo *machineRepository) CreateMachine(ctx context.Context, m machine.Machine) (machine.Machine, error) {
	m.ID = uuid.New().String()
	q := `INSERT INTO machines (` + machineColumns + `) VALUES (:id, :code, :name, :model, :brand, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, m); err != nil {
		if codeConflict(err) {
			return machine.Machine{}, machine.ErrCodeExists
		}
		return machine.Machine{}, errors.Wrap(err, "inserting machine")
	}
	return m, nil
}

func (repo *machineRepository) QueryMachines(ctx context.Context, search string) ([]machine.Machine, error) {
	q := `SELECT ` + machineColumns + ` FROM machines`
	var args []interface{}
	if search != "" {
		q += ` WHERE code ILIKE $1 OR name ILIKE $1 OR model ILIKE $1 OR brand ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	q += ` ORDER BY code`

	var machines []machine.Machine
	if err := repo.db.SelectContext(ctx, &machines, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying machines")
	}
	return machines, nil
}

func (repo *machineRepository) GetMachine(ctx context.Context, id string) (machine.Machine, error) {
	if !isUUID(id) {
		return machine.Machine{}, machine.ErrNotFound
	}
	var m machine.Machine
	if err := repo.db.GetContext(ctx, &m, `SELECT `+machineColumns+` FROM machines WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return machine.Machine{}, machine.ErrNotFound
		}
		return machine.Machine{}, errors.Wrap(err, "getting machine")
	}
	return m, nil
}

func (repo *machineRepository) UpdateMachine(ctx context.Context, m machine.Machine) (machine.Machine, error) {
	q := `UPDATE machines SET code = :code, name = :name, model = :model, brand = :brand, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, m)
	if err != nil {
		if codeConflict(err) {
			return machine.Machine{}, machine.ErrCodeExists
		}
		return machine.Machine{}, errors.Wrap(err, "updating machine")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return machine.Machine{}, machine.ErrNotFound
	}
	return m, nil
}

func (repo *machineRepository) DeleteMachine(ctx context.Context, id string) error {
	if !isUUID(id) {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM machines WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting machine")
	}
	return nil
}

func (repo *machineRepository) CreateReading(ctx context.Context, r machine.Reading) (machine.Reading, error) {
	r.ID = uuid.New().String()
	q := `INSERT INTO meter_readings (` + readingColumns + `) VALUES (:id, :machine_id, :machine_code, :machine_name,
		:value, :unit, :technician_id, :recorded_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, r); err != nil {
		return machine.Reading{}, errors.Wrap(err, "inserting meter reading")
	}
	return r, nil
}

func (repo *machineRepository) QueryReadings(ctx context.Context, filter machine.ReadingFilter) ([]machine.Reading, error) {
	var (
		where []string
		args  []interface{}
	)
	for col, id := range map[string]string{"machine_id": filter.MachineID, "technician_id": filter.TechnicianID} {
		if id == "" {
			continue
		}
		if !isUUID(id) {
			return []machine.Reading{}, nil
		}
		args = append(args, id)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(machine_code ILIKE $%d OR machine_name ILIKE $%d OR unit ILIKE $%d)", n, n, n))
	}

	q := `SELECT ` + readingColumns + ` FROM meter_readings`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY recorded_at DESC, id`

	var readings []machine.Reading
	if err := repo.db.SelectContext(ctx, &readings, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying meter readings")
	}
	return readings, nil
}

func (repo *machineRepository) GetReading(ctx context.Context, id string) (machine.Reading, error) {
	if !isUUID(id) {
		return machine.Reading{}, machine.ErrReadingNotFound
	}
	var r machine.Reading
	if err := repo.db.GetContext(ctx, &r, `SELECT `+readingColumns+` FROM meter_readings WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return machine.Reading{}, machine.ErrReadingNotFound
		}
		return machine.Reading{}, errors.Wrap(err, "getting meter reading")
	}
	return r, nil
}

func (repo *machineRepository) UpdateReading(ctx context.Context, r machine.Reading) (machine.Reading, error) {
	q := `UPDATE meter_readings SET machine_id = :machine_id, machine_code = :machine_code, machine_name = :machine_name,
		value = :value, unit = :unit, recorded_at = :recorded_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, r)
	if err != nil {
		return machine.Reading{}, errors.Wrap(err, "updating meter reading")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return machine.Reading{}, machine.ErrReadingNotFound
	}
	return r, nil
}

func (repo *machineRepository) DeleteReading(ctx context.Context, id string) error {
	if !isUUID(id) {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM meter_readings WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting meter reading")
	}
	return nil
}

func (repo *machineRepository) CreateServiceLog(ctx context.Context, l machine.ServiceLog) (machine.ServiceLog, error) {
	l.ID = uuid.New().String()
	q := `INSERT INTO service_logs (` + logColumns + `) VALUES (:id, :machine_id, :machine_code, :machine_model,
		:technician_id, :technician_name, :service_date, :service, :meter_reading, :used_material, :status,
		:created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, l); err != nil {
		return machine.ServiceLog{}, errors.Wrap(err, "inserting service log")
	}
	return l, nil
}

func (repo *machineRepository) QueryServiceLogs(ctx context.Context, filter machine.LogFilter) ([]machine.ServiceLog, error) {
	var (
		where []string
		args  []interface{}
	)
	for col, id := range map[string]string{"machine_id": filter.MachineID, "technician_id": filter.TechnicianID} {
		if id == "" {
			continue
		}
		if !isUUID(id) {
			return []machine.ServiceLog{}, nil
		}
		args = append(args, id)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	q := `SELECT ` + logColumns + ` FROM service_logs`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY service_date DESC, created_at DESC, id`

	var logs []machine.ServiceLog
	if err := repo.db.SelectContext(ctx, &logs, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying service logs")
	}
	return logs, nil
}

func (repo *machineRepository) GetServiceLog(ctx context.Context, id string) (machine.ServiceLog, error) {
	if !isUUID(id) {
		return machine.ServiceLog{}, machine.ErrLogNotFound
	}
	var l machine.ServiceLog
	if err := repo.db.GetContext(ctx, &l, `SELECT `+logColumns+` FROM service_logs WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return machine.ServiceLog{}, machine.ErrLogNotFound
		}
		return machine.ServiceLog{}, errors.Wrap(err, "getting service log")
	}
	return l, nil
}

func (repo *machineRepository) UpdateServiceLog(ctx context.Context, l machine.ServiceLog) (machine.ServiceLog, error) {
	q := `UPDATE service_logs SET status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, l)
	if err != nil {
		return machine.ServiceLog{}, errors.Wrap(err, "updating service log")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return machine.ServiceLog{}, machine.ErrLogNotFound
	}
	return l, nil
}
