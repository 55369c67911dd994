package material

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/maintenance/core"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

type Item struct {
	Name string `json:"name" validate:"required,max=150"`
	Qty  int    `json:"qty" validate:"required,gt=0"`
}

// Request is a technician's request for materials needed by a task.
type Request struct {
	ID             string    `json:"id"`
	MachineID      string    `json:"machine_id"`
	Task           string    `json:"task"`
	Materials      []Item    `json:"materials"`
	TechnicianID   string    `json:"tech_id"`
	TechnicianName string    `json:"tech_name"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type NewRequest struct {
	MachineID string `json:"machine_id" validate:"required,max=150"`
	Task      string `json:"task" validate:"required,max=300"`
	Materials []Item `json:"materials" validate:"required,min=1,dive"`
}

func (nr *NewRequest) Validate(validate *validator.Validate) error {
	nr.MachineID = core.CleanString(nr.MachineID)
	nr.Task = core.CleanString(nr.Task)
	for i := range nr.Materials {
		nr.Materials[i].Name = core.CleanString(nr.Materials[i].Name)
	}
	return validate.Struct(nr)
}

type Review struct {
	Status Status `json:"status" validate:"required,oneof=approved rejected"`
}

func (r *Review) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

type QueryFilter struct {
	TechnicianID string `query:"-"`
	Status       Status `query:"status"`
}

type Counts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

func Count(reqs []Request) Counts {
	c := Counts{Total: len(reqs)}
	for _, r := range reqs {
		switch r.Status {
		case StatusPending:
			c.Pending++
		case StatusApproved:
			c.Approved++
		case StatusRejected:
			c.Rejected++
		}
	}
	return c
}
