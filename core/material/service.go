package material

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core"
	"github.com/trezcool/maintenance/core/user"
)

var (
	ErrNotFound   = errors.New("material request not found")
	ErrNotPending = errors.New("material request already reviewed")
)

type (
	Repository interface {
		CreateRequest(ctx context.Context, r Request) (Request, error)
		// QueryRequests filters on technician & status, newest first.
		QueryRequests(ctx context.Context, filter QueryFilter) ([]Request, error)
		GetRequest(ctx context.Context, id string) (Request, error)
		UpdateRequest(ctx context.Context, r Request) (Request, error)
		DeleteRequestsByID(ctx context.Context, ids ...string) error
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

func (svc *Service) Create(ctx context.Context, tech user.User, nr NewRequest) (Request, error) {
	now := svc.now().UTC()
	r, err := svc.repo.CreateRequest(ctx, Request{
		MachineID:      nr.MachineID,
		Task:           nr.Task,
		Materials:      nr.Materials,
		TechnicianID:   tech.ID,
		TechnicianName: tech.FullName(),
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return Request{}, errors.Wrap(err, "creating material request")
	}
	return r, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Request, error) {
	return svc.repo.QueryRequests(ctx, filter)
}

func (svc *Service) Counts(ctx context.Context, filter QueryFilter) (Counts, error) {
	filter.Status = ""
	reqs, err := svc.repo.QueryRequests(ctx, filter)
	if err != nil {
		return Counts{}, errors.Wrap(err, "querying material requests")
	}
	return Count(reqs), nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Request, error) {
	return svc.repo.GetRequest(ctx, id)
}

// Review approves or rejects a pending request.
func (svc *Service) Review(ctx context.Context, id string, status Status) (Request, error) {
	if status != StatusApproved && status != StatusRejected {
		return Request{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: "status must be one of [approved rejected]"})
	}
	r, err := svc.repo.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if r.Status != StatusPending {
		return Request{}, core.NewValidationError(ErrNotPending)
	}
	r.Status = status
	r.UpdatedAt = svc.now().UTC()
	return svc.repo.UpdateRequest(ctx, r)
}

// Cancel deletes one of the technician's pending requests.
func (svc *Service) Cancel(ctx context.Context, technicianID, id string) error {
	r, err := svc.repo.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	if r.TechnicianID != technicianID {
		return ErrNotFound
	}
	if r.Status != StatusPending {
		return core.NewValidationError(ErrNotPending)
	}
	return svc.repo.DeleteRequestsByID(ctx, id)
}
