package task

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/maintenance/core"
)

const DateLayout = "2006-01-02"

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Task is a maintenance job assigned to a technician.
type Task struct {
	ID             string     `json:"id" db:"id"`
	Type           string     `json:"type" db:"type"`
	TechnicianID   string     `json:"tech_id" db:"technician_id"`
	TechnicianName string     `json:"tech_name" db:"technician_name"`
	ScheduledDate  time.Time  `json:"scheduled_date" db:"scheduled_date"` // UTC midnight
	Priority       Priority   `json:"priority_level" db:"priority"`
	Status         Status     `json:"status" db:"status"`
	AssignedBy     string     `json:"assigned_by,omitempty" db:"assigned_by"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// Overdue reports whether the task is still pending after its scheduled day.
func (t Task) Overdue(now time.Time) bool {
	if t.Status != StatusPending {
		return false
	}
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return t.ScheduledDate.Before(today)
}

type NewTask struct {
	Type          string   `json:"type" validate:"required,max=150"`
	TechnicianID  string   `json:"tech_id" validate:"required"`
	ScheduledDate string   `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	Priority      Priority `json:"priority_level" validate:"required,oneof=Low Medium High"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Type = core.CleanString(nt.Type)
	nt.TechnicianID = core.CleanString(nt.TechnicianID)
	nt.ScheduledDate = core.CleanString(nt.ScheduledDate)
	return validate.Struct(nt)
}

func (nt NewTask) scheduledDate() time.Time {
	d, _ := time.ParseInLocation(DateLayout, nt.ScheduledDate, time.UTC)
	return d
}

type QueryFilter struct {
	TechnicianID string `query:"-"`
	Status       Status `query:"status"`
	Overdue      bool   `query:"overdue"`
}

// Counts summarizes a set of tasks.
type Counts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
}

func Count(tasks []Task, now time.Time) Counts {
	c := Counts{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case StatusPending:
			c.Pending++
		case StatusCompleted:
			c.Completed++
		}
		if t.Overdue(now) {
			c.Overdue++
		}
	}
	return c
}
