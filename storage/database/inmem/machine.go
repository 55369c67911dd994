package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/maintenance/core/machine"
)

type machineRepository struct {
	db *machineTables
}

var _ machine.Repository = (*machineRepository)(nil)

func NewMachineRepository(db *DB) *machineRepository {
	return &machineRepository{db: db.machine}
}

// checkCode must be called with the lock held.
func (repo *machineRepository) checkCode(m machine.Machine) error {
	for _, other := range repo.db.machines {
		if other.ID != m.ID && other.Code == m.Code {
			return machine.ErrCodeExists
		}
	}
	return nil
}

func (repo *machineRepository) CreateMachine(_ context.Context, m machine.Machine) (machine.Machine, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.checkCode(m); err != nil {
		return machine.Machine{}, err
	}
	m.ID = uuid.New().String()
	repo.db.machines[m.ID] = &m
	return m, nil
}

func (repo *machineRepository) QueryMachines(_ context.Context, search string) ([]machine.Machine, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search = strings.ToLower(search)
	machines := make([]machine.Machine, 0, len(repo.db.machines))
	for _, m := range repo.db.machines {
		if search != "" &&
			!strings.Contains(strings.ToLower(m.Code), search) &&
			!strings.Contains(strings.ToLower(m.Name), search) &&
			!strings.Contains(strings.ToLower(m.Model), search) &&
			!strings.Contains(strings.ToLower(m.Brand), search) {
			continue
		}
		machines = append(machines, *m)
	}
	sort.Slice(machines, func(i, j int) bool { return machines[i].Code < machines[j].Code })
	return machines, nil
}

func (repo *machineRepository) GetMachine(_ context.Context, id string) (machine.Machine, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if m, ok := repo.db.machines[id]; ok {
		return *m, nil
	}
	return machine.Machine{}, machine.ErrNotFound
}

func (repo *machineRepository) UpdateMachine(_ context.Context, m machine.Machine) (machine.Machine, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.machines[m.ID]; !ok {
		return machine.Machine{}, machine.ErrNotFound
	}
	if err := repo.checkCode(m); err != nil {
		return machine.Machine{}, err
	}
	repo.db.machines[m.ID] = &m
	return m, nil
}

func (repo *machineRepository) DeleteMachine(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.machines, id)
	return nil
}

func (repo *machineRepository) CreateReading(_ context.Context, r machine.Reading) (machine.Reading, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r.ID = uuid.New().String()
	repo.db.readings[r.ID] = &r
	return r, nil
}

func (repo *machineRepository) QueryReadings(_ context.Context, filter machine.ReadingFilter) ([]machine.Reading, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	readings := make([]machine.Reading, 0, len(repo.db.readings))
	for _, r := range repo.db.readings {
		if filter.Match(*r) {
			readings = append(readings, *r)
		}
	}
	sort.Slice(readings, func(i, j int) bool {
		if c := compareTimes(readings[i].RecordedAt, readings[j].RecordedAt); c != 0 {
			return c > 0
		}
		return readings[i].ID < readings[j].ID
	})
	return readings, nil
}

func (repo *machineRepository) GetReading(_ context.Context, id string) (machine.Reading, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.readings[id]; ok {
		return *r, nil
	}
	return machine.Reading{}, machine.ErrReadingNotFound
}

func (repo *machineRepository) UpdateReading(_ context.Context, r machine.Reading) (machine.Reading, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.readings[r.ID]; !ok {
		return machine.Reading{}, machine.ErrReadingNotFound
	}
	repo.db.readings[r.ID] = &r
	return r, nil
}

func (repo *machineRepository) DeleteReading(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.readings, id)
	return nil
}

func (repo *machineRepository) CreateServiceLog(_ context.Context, l machine.ServiceLog) (machine.ServiceLog, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	l.ID = uuid.New().String()
	repo.db.logs[l.ID] = &l
	return l, nil
}

func (repo *machineRepository) QueryServiceLogs(_ context.Context, filter machine.LogFilter) ([]machine.ServiceLog, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	logs := make([]machine.ServiceLog, 0, len(repo.db.logs))
	for _, l := range repo.db.logs {
		if filter.Match(*l) {
			logs = append(logs, *l)
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		if c := compareTimes(logs[i].Date, logs[j].Date); c != 0 {
			return c > 0
		}
		if c := compareTimes(logs[i].CreatedAt, logs[j].CreatedAt); c != 0 {
			return c > 0
		}
		return logs[i].ID < logs[j].ID
	})
	return logs, nil
}

func (repo *machineRepository) GetServiceLog(_ context.Context, id string) (machine.ServiceLog, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if l, ok := repo.db.logs[id]; ok {
		return *l, nil
	}
	return machine.ServiceLog{}, machine.ErrLogNotFound
}

func (repo *machineRepository) UpdateServiceLog(_ context.Context, l machine.ServiceLog) (machine.ServiceLog, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.logs[l.ID]; !ok {
		return machine.ServiceLog{}, machine.ErrLogNotFound
	}
	repo.db.logs[l.ID] = &l
	return l, nil
}
