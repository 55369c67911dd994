// Package dashboard computes the summary cards shown on each section's landing page.
package dashboard

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core/material"
	"github.com/trezcool/maintenance/core/session"
	"github.com/trezcool/maintenance/core/task"
	"github.com/trezcool/maintenance/core/user"
)

var ErrUnknownRole = errors.New("no dashboard for this role")

type (
	UserCounter interface {
		CountByRole(ctx context.Context) (map[user.Role]int, error)
	}

	TaskCounter interface {
		Counts(ctx context.Context, filter task.QueryFilter) (task.Counts, error)
	}

	RequestCounter interface {
		Counts(ctx context.Context, filter material.QueryFilter) (material.Counts, error)
	}

	Card struct {
		Title string `json:"title"`
		Value int    `json:"value"`
	}

	Summary struct {
		Role  user.Role `json:"role"`
		Cards []Card    `json:"cards"`
	}

	Service struct {
		users     UserCounter
		tasks     TaskCounter
		materials RequestCounter
	}
)

func NewService(users UserCounter, tasks TaskCounter, materials RequestCounter) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(tasks, "tasks"),
		vala.IsNotNil(materials, "materials"),
	).CheckAndPanic()

	return &Service{users: users, tasks: tasks, materials: materials}
}

// Summary returns the cards of the principal's own section.
func (svc *Service) Summary(ctx context.Context, p session.Principal) (Summary, error) {
	var (
		cards []Card
		err   error
	)
	switch p.Role {
	case user.RoleAdmin:
		cards, err = svc.admin(ctx)
	case user.RoleSupervisor:
		cards, err = svc.supervisor(ctx)
	case user.RoleTechnician:
		cards, err = svc.technician(ctx, p.ID)
	case user.RoleInventoryEmployee:
		cards, err = svc.inventoryEmployee(ctx)
	default:
		return Summary{}, ErrUnknownRole
	}
	if err != nil {
		return Summary{}, err
	}
	return Summary{Role: p.Role, Cards: cards}, nil
}

func (svc *Service) admin(ctx context.Context) ([]Card, error) {
	counts, err := svc.users.CountByRole(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "counting users")
	}
	var total int
	for _, n := range counts {
		total += n
	}
	cards := []Card{{Title: "Total Users", Value: total}}
	for _, r := range user.Roles {
		cards = append(cards, Card{Title: r.Name + "s", Value: counts[r.Value]})
	}
	return cards, nil
}

func (svc *Service) supervisor(ctx context.Context) ([]Card, error) {
	c, err := svc.tasks.Counts(ctx, task.QueryFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "counting tasks")
	}
	return []Card{
		{Title: "Total Tasks", Value: c.Total},
		{Title: "Pending Tasks", Value: c.Pending},
		{Title: "Completed Tasks", Value: c.Completed},
		{Title: "Overdue Tasks", Value: c.Overdue},
	}, nil
}

func (svc *Service) technician(ctx context.Context, id string) ([]Card, error) {
	c, err := svc.tasks.Counts(ctx, task.QueryFilter{TechnicianID: id})
	if err != nil {
		return nil, errors.Wrap(err, "counting tasks")
	}
	m, err := svc.materials.Counts(ctx, material.QueryFilter{TechnicianID: id})
	if err != nil {
		return nil, errors.Wrap(err, "counting material requests")
	}
	return []Card{
		{Title: "Pending Tasks", Value: c.Pending},
		{Title: "Completed Tasks", Value: c.Completed},
		{Title: "Overdue Tasks", Value: c.Overdue},
		{Title: "Pending Material Requests", Value: m.Pending},
	}, nil
}

func (svc *Service) inventoryEmployee(ctx context.Context) ([]Card, error) {
	m, err := svc.materials.Counts(ctx, material.QueryFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "counting material requests")
	}
	c, err := svc.tasks.Counts(ctx, task.QueryFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "counting tasks")
	}
	return []Card{
		{Title: "Pending Requests", Value: m.Pending},
		{Title: "Approved Requests", Value: m.Approved},
		{Title: "Rejected Requests", Value: m.Rejected},
		{Title: "Completed Tasks", Value: c.Completed},
		{Title: "Overdue Tasks", Value: c.Overdue},
	}, nil
}
