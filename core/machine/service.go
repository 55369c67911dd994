// Package machine keeps the machine registry, with the meter readings & service logs recorded on each machine.
package machine

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core"
	"github.com/trezcool/maintenance/core/user"
)

var (
	ErrNotFound        = errors.New("machine not found")
	ErrCodeExists      = errors.New("machine code already exists")
	ErrReadingNotFound = errors.New("meter reading not found")
	ErrLogNotFound     = errors.New("service log not found")
	ErrLogApproved     = errors.New("service log already approved")
	ErrLogNotCompleted = errors.New("service log not completed")

	errMachineNotFound = "machine not found"
)

type (
	Repository interface {
		CreateMachine(ctx context.Context, m Machine) (Machine, error)
		// QueryMachines matches search against code, name, model & brand, ordered by code.
		QueryMachines(ctx context.Context, search string) ([]Machine, error)
		GetMachine(ctx context.Context, id string) (Machine, error)
		UpdateMachine(ctx context.Context, m Machine) (Machine, error)
		DeleteMachine(ctx context.Context, id string) error

		CreateReading(ctx context.Context, r Reading) (Reading, error)
		// QueryReadings returns the newest readings first.
		QueryReadings(ctx context.Context, filter ReadingFilter) ([]Reading, error)
		GetReading(ctx context.Context, id string) (Reading, error)
		UpdateReading(ctx context.Context, r Reading) (Reading, error)
		DeleteReading(ctx context.Context, id string) error

		CreateServiceLog(ctx context.Context, l ServiceLog) (ServiceLog, error)
		// QueryServiceLogs returns the latest service dates first.
		QueryServiceLogs(ctx context.Context, filter LogFilter) ([]ServiceLog, error)
		GetServiceLog(ctx context.Context, id string) (ServiceLog, error)
		UpdateServiceLog(ctx context.Context, l ServiceLog) (ServiceLog, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
		now    func() time.Time
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{repo: repo, logger: logger, now: time.Now}
}

func (svc *Service) Create(ctx context.Context, nm NewMachine) (Machine, error) {
	now := svc.now().UTC()
	m, err := svc.repo.CreateMachine(ctx, Machine{
		Code:      nm.Code,
		Name:      nm.Name,
		Model:     nm.Model,
		Brand:     nm.Brand,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Machine{}, codeError(err)
	}
	return m, nil
}

func (svc *Service) Query(ctx context.Context, search string) ([]Machine, error) {
	return svc.repo.QueryMachines(ctx, search)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Machine, error) {
	return svc.repo.GetMachine(ctx, id)
}

// Update replaces the machine's fields. Readings & logs keep the code and name they were recorded with.
func (svc *Service) Update(ctx context.Context, id string, nm NewMachine) (Machine, error) {
	m, err := svc.repo.GetMachine(ctx, id)
	if err != nil {
		return Machine{}, err
	}
	m.Code = nm.Code
	m.Name = nm.Name
	m.Model = nm.Model
	m.Brand = nm.Brand
	m.UpdatedAt = svc.now().UTC()
	if m, err = svc.repo.UpdateMachine(ctx, m); err != nil {
		return Machine{}, codeError(err)
	}
	return m, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.GetMachine(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteMachine(ctx, id)
}

func codeError(err error) error {
	if errors.Cause(err) == ErrCodeExists {
		return core.NewValidationError(nil, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
	}
	return errors.Wrap(err, "saving machine")
}

// findMachine reports an unknown machine as a machine_id field error.
func (svc *Service) findMachine(ctx context.Context, id string) (Machine, error) {
	m, err := svc.repo.GetMachine(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Machine{}, core.NewValidationError(nil, core.FieldError{Field: "machine_id", Error: errMachineNotFound})
		}
		return Machine{}, errors.Wrap(err, "finding machine")
	}
	return m, nil
}

func (svc *Service) RecordReading(ctx context.Context, tech user.User, nr NewReading) (Reading, error) {
	m, err := svc.findMachine(ctx, nr.MachineID)
	if err != nil {
		return Reading{}, err
	}
	r, err := svc.repo.CreateReading(ctx, Reading{
		MachineID:    m.ID,
		MachineCode:  m.Code,
		MachineName:  m.Name,
		Value:        nr.Value,
		Unit:         nr.Unit,
		TechnicianID: tech.ID,
		RecordedAt:   svc.now().UTC(),
	})
	if err != nil {
		return Reading{}, errors.Wrap(err, "creating meter reading")
	}
	return r, nil
}

func (svc *Service) QueryReadings(ctx context.Context, filter ReadingFilter) ([]Reading, error) {
	return svc.repo.QueryReadings(ctx, filter)
}

// ownReading hides the readings of other technicians.
func (svc *Service) ownReading(ctx context.Context, technicianID, id string) (Reading, error) {
	r, err := svc.repo.GetReading(ctx, id)
	if err != nil {
		return Reading{}, err
	}
	if r.TechnicianID != technicianID {
		return Reading{}, ErrReadingNotFound
	}
	return r, nil
}

// UpdateReading corrects one of the technician's readings. Its timestamp is refreshed.
func (svc *Service) UpdateReading(ctx context.Context, technicianID, id string, nr NewReading) (Reading, error) {
	r, err := svc.ownReading(ctx, technicianID, id)
	if err != nil {
		return Reading{}, err
	}
	m, err := svc.findMachine(ctx, nr.MachineID)
	if err != nil {
		return Reading{}, err
	}
	r.MachineID = m.ID
	r.MachineCode = m.Code
	r.MachineName = m.Name
	r.Value = nr.Value
	r.Unit = nr.Unit
	r.RecordedAt = svc.now().UTC()
	return svc.repo.UpdateReading(ctx, r)
}

func (svc *Service) DeleteReading(ctx context.Context, technicianID, id string) error {
	if _, err := svc.ownReading(ctx, technicianID, id); err != nil {
		return err
	}
	return svc.repo.DeleteReading(ctx, id)
}

// LogService records a pending service log on the machine.
func (svc *Service) LogService(ctx context.Context, tech user.User, nl NewServiceLog) (ServiceLog, error) {
	m, err := svc.findMachine(ctx, nl.MachineID)
	if err != nil {
		return ServiceLog{}, err
	}
	now := svc.now().UTC()
	l, err := svc.repo.CreateServiceLog(ctx, ServiceLog{
		MachineID:      m.ID,
		MachineCode:    m.Code,
		MachineModel:   m.Model,
		TechnicianID:   tech.ID,
		TechnicianName: tech.FullName(),
		Date:           nl.date(),
		Service:        nl.Service,
		MeterReading:   nl.MeterReading,
		UsedMaterial:   nl.UsedMaterial,
		Status:         LogPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return ServiceLog{}, errors.Wrap(err, "creating service log")
	}
	return l, nil
}

func (svc *Service) QueryServiceLogs(ctx context.Context, filter LogFilter) ([]ServiceLog, error) {
	return svc.repo.QueryServiceLogs(ctx, filter)
}

// SetLogStatus moves one of the technician's logs between pending & completed. Approved logs are final.
func (svc *Service) SetLogStatus(ctx context.Context, technicianID, id string, status LogStatus) (ServiceLog, error) {
	if status != LogPending && status != LogCompleted {
		return ServiceLog{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: "status must be one of [pending completed]"})
	}
	l, err := svc.repo.GetServiceLog(ctx, id)
	if err != nil {
		return ServiceLog{}, err
	}
	if l.TechnicianID != technicianID {
		return ServiceLog{}, ErrLogNotFound
	}
	if l.Status == LogApproved {
		return ServiceLog{}, core.NewValidationError(ErrLogApproved)
	}
	l.Status = status
	l.UpdatedAt = svc.now().UTC()
	return svc.repo.UpdateServiceLog(ctx, l)
}

// ApproveLog approves a completed log.
func (svc *Service) ApproveLog(ctx context.Context, id string) (ServiceLog, error) {
	l, err := svc.repo.GetServiceLog(ctx, id)
	if err != nil {
		return ServiceLog{}, err
	}
	switch l.Status {
	case LogApproved:
		return ServiceLog{}, core.NewValidationError(ErrLogApproved)
	case LogPending:
		return ServiceLog{}, core.NewValidationError(ErrLogNotCompleted)
	}
	l.Status = LogApproved
	l.UpdatedAt = svc.now().UTC()
	return svc.repo.UpdateServiceLog(ctx, l)
}
