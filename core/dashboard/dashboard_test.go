package dashboard

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/maintenance/core/material"
	"github.com/trezcool/maintenance/core/session"
	"github.com/trezcool/maintenance/core/task"
	"github.com/trezcool/maintenance/core/user"
)

type fakeUsers map[user.Role]int

func (f fakeUsers) CountByRole(context.Context) (map[user.Role]int, error) { return f, nil }

type fakeTasks struct {
	byTech map[string]task.Counts
	all    task.Counts
	err    error
}

func (f fakeTasks) Counts(_ context.Context, filter task.QueryFilter) (task.Counts, error) {
	if filter.TechnicianID != "" {
		return f.byTech[filter.TechnicianID], f.err
	}
	return f.all, f.err
}

type fakeRequests struct {
	byTech map[string]material.Counts
	all    material.Counts
}

func (f fakeRequests) Counts(_ context.Context, filter material.QueryFilter) (material.Counts, error) {
	if filter.TechnicianID != "" {
		return f.byTech[filter.TechnicianID], nil
	}
	return f.all, nil
}

func TestService_Summary(t *testing.T) {
	svc := NewService(
		fakeUsers{user.RoleAdmin: 1, user.RoleTechnician: 3},
		&fakeTasks{
			all:    task.Counts{Total: 10, Pending: 6, Completed: 4, Overdue: 2},
			byTech: map[string]task.Counts{"t-1": {Total: 3, Pending: 2, Completed: 1, Overdue: 1}},
		},
		&fakeRequests{
			all:    material.Counts{Total: 6, Pending: 3, Approved: 2, Rejected: 1},
			byTech: map[string]material.Counts{"t-1": {Total: 2, Pending: 1, Approved: 1}},
		},
	)

	tests := []struct {
		role user.Role
		want []Card
	}{
		{user.RoleAdmin, []Card{
			{"Total Users", 4},
			{"Admins", 1},
			{"Supervisors", 0},
			{"Technicians", 3},
			{"Inventory Employees", 0},
		}},
		{user.RoleSupervisor, []Card{
			{"Total Tasks", 10},
			{"Pending Tasks", 6},
			{"Completed Tasks", 4},
			{"Overdue Tasks", 2},
		}},
		{user.RoleTechnician, []Card{
			{"Pending Tasks", 2},
			{"Completed Tasks", 1},
			{"Overdue Tasks", 1},
			{"Pending Material Requests", 1},
		}},
		{user.RoleInventoryEmployee, []Card{
			{"Pending Requests", 3},
			{"Approved Requests", 2},
			{"Rejected Requests", 1},
			{"Completed Tasks", 4},
			{"Overdue Tasks", 2},
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			summary, err := svc.Summary(context.Background(), session.Principal{ID: "t-1", Role: tt.role})
			require.NoError(t, err)
			assert.Equal(t, Summary{Role: tt.role, Cards: tt.want}, summary)
		})
	}

	_, err := svc.Summary(context.Background(), session.Principal{ID: "x", Role: "janitor"})
	assert.Equal(t, ErrUnknownRole, err)
}

func TestService_Summary_error(t *testing.T) {
	boom := errors.New("db down")
	svc := NewService(fakeUsers{}, &fakeTasks{err: boom}, &fakeRequests{})

	_, err := svc.Summary(context.Background(), session.Principal{ID: "s-1", Role: user.RoleSupervisor})
	require.Error(t, err)
	assert.Equal(t, boom, errors.Cause(err))
}
