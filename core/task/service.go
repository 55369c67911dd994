package task

import (
	"context"
	"net/mail"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core"
	"github.com/trezcool/maintenance/core/user"
)

const assignedEmailSubject = "New Maintenance Task Assigned"

var (
	ErrNotFound         = errors.New("task not found")
	ErrAlreadyCompleted = errors.New("task already completed")

	errTechnicianNotFound = "technician not found"
	errNotATechnician     = "user is not a technician"
)

type (
	Repository interface {
		CreateTask(ctx context.Context, t Task) (Task, error)
		// QueryTasks filters on technician & status, ordered by scheduled date.
		QueryTasks(ctx context.Context, filter QueryFilter) ([]Task, error)
		GetTask(ctx context.Context, id string) (Task, error)
		UpdateTask(ctx context.Context, t Task) (Task, error)
		DeleteTasksByID(ctx context.Context, ids ...string) error
	}

	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo    Repository
		users   UserGetter
		mailSvc core.EmailService
		logger  core.Logger
		now     func() time.Time
	}

	assignedEmailData struct {
		TechnicianName string
		TaskType       string
		ScheduledDate  string
		Priority       Priority
	}
)

func NewService(repo Repository, users UserGetter, mailSvc core.EmailService, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(mailSvc, "mailSvc"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Service{repo: repo, users: users, mailSvc: mailSvc, logger: logger, now: time.Now}
}

// Assign creates the task and notifies the technician by email.
func (svc *Service) Assign(ctx context.Context, assignedBy string, nt NewTask) (Task, error) {
	tech, err := svc.users.GetByID(ctx, nt.TechnicianID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Task{}, core.NewValidationError(nil, core.FieldError{Field: "tech_id", Error: errTechnicianNotFound})
		}
		return Task{}, errors.Wrap(err, "finding technician")
	}
	if !tech.IsTechnician() {
		return Task{}, core.NewValidationError(nil, core.FieldError{Field: "tech_id", Error: errNotATechnician})
	}

	now := svc.now().UTC()
	t, err := svc.repo.CreateTask(ctx, Task{
		Type:           nt.Type,
		TechnicianID:   tech.ID,
		TechnicianName: tech.FullName(),
		ScheduledDate:  nt.scheduledDate(),
		Priority:       nt.Priority,
		Status:         StatusPending,
		AssignedBy:     assignedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return Task{}, errors.Wrap(err, "creating task")
	}

	svc.notifyAssigned(t, tech)
	return t, nil
}

func (svc *Service) notifyAssigned(t Task, tech user.User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: tech.FullName(), Address: tech.Email}},
		Subject:      assignedEmailSubject,
		TemplateName: "task_assigned",
		TemplateData: assignedEmailData{
			TechnicianName: tech.FullName(),
			TaskType:       t.Type,
			ScheduledDate:  t.ScheduledDate.Format(DateLayout),
			Priority:       t.Priority,
		},
	})
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Task, error) {
	tasks, err := svc.repo.QueryTasks(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	if !filter.Overdue {
		return tasks, nil
	}
	now := svc.now()
	overdue := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Overdue(now) {
			overdue = append(overdue, t)
		}
	}
	return overdue, nil
}

func (svc *Service) Counts(ctx context.Context, filter QueryFilter) (Counts, error) {
	filter.Overdue = false
	tasks, err := svc.Query(ctx, filter)
	if err != nil {
		return Counts{}, err
	}
	return Count(tasks, svc.now()), nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Task, error) {
	return svc.repo.GetTask(ctx, id)
}

// Complete marks one of the technician's pending tasks as completed.
func (svc *Service) Complete(ctx context.Context, technicianID, id string) (Task, error) {
	t, err := svc.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if t.TechnicianID != technicianID {
		return Task{}, ErrNotFound
	}
	if t.Status == StatusCompleted {
		return Task{}, core.NewValidationError(ErrAlreadyCompleted)
	}

	now := svc.now().UTC()
	t.Status = StatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	return svc.repo.UpdateTask(ctx, t)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteTasksByID(ctx, ids...)
}
