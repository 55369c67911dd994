package task

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_Overdue(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{name: "pending yesterday", task: Task{Status: StatusPending, ScheduledDate: day(9)}, want: true},
		{name: "pending today", task: Task{Status: StatusPending, ScheduledDate: day(10)}},
		{name: "pending tomorrow", task: Task{Status: StatusPending, ScheduledDate: day(11)}},
		{name: "completed late", task: Task{Status: StatusCompleted, ScheduledDate: day(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.Overdue(now))
		})
	}

	assert.Equal(t, Counts{Total: 4, Pending: 3, Completed: 1, Overdue: 1}, Count([]Task{
		tests[0].task, tests[1].task, tests[2].task, tests[3].task,
	}, now))
}

func TestNewTask_Validate(t *testing.T) {
	validate := validator.New()

	nt := NewTask{Type: "  Oil change ", TechnicianID: " t-1 ", ScheduledDate: "2024-03-10", Priority: PriorityHigh}
	require.NoError(t, nt.Validate(validate))
	assert.Equal(t, "Oil change", nt.Type)
	assert.Equal(t, "t-1", nt.TechnicianID)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), nt.scheduledDate())

	for _, bad := range []NewTask{
		{TechnicianID: "t-1", ScheduledDate: "2024-03-10", Priority: PriorityLow},
		{Type: "Oil change", TechnicianID: "t-1", ScheduledDate: "10/03/2024", Priority: PriorityLow},
		{Type: "Oil change", TechnicianID: "t-1", ScheduledDate: "2024-03-10", Priority: "Urgent"},
	} {
		bad := bad
		assert.Error(t, bad.Validate(validate), "%+v", bad)
	}
}
