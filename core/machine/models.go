package machine

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/maintenance/core"
)

const DateLayout = "2006-01-02"

// Machine is a piece of equipment the technicians service.
type Machine struct {
	ID        string    `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"` // e.g. MCH-001
	Name      string    `json:"name" db:"name"`
	Model     string    `json:"model" db:"model"`
	Brand     string    `json:"brand" db:"brand"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewMachine holds the fields of a created machine, and the replacement fields of an updated one.
type NewMachine struct {
	Code  string `json:"code" validate:"required,max=50"`
	Name  string `json:"name" validate:"required,max=150"`
	Model string `json:"model" validate:"required,max=150"`
	Brand string `json:"brand" validate:"max=150"`
}

func (nm *NewMachine) Validate(validate *validator.Validate) error {
	nm.Code = strings.ToUpper(core.CleanString(nm.Code))
	nm.Name = core.CleanString(nm.Name)
	nm.Model = core.CleanString(nm.Model)
	nm.Brand = core.CleanString(nm.Brand)
	return validate.Struct(nm)
}

type Unit string

const (
	UnitHours      Unit = "hours"
	UnitKilometers Unit = "kmh-1"
)

// Reading is a meter value recorded on a machine by a technician.
type Reading struct {
	ID           string    `json:"id" db:"id"`
	MachineID    string    `json:"machine_id" db:"machine_id"`
	MachineCode  string    `json:"machine_code" db:"machine_code"`
	MachineName  string    `json:"machine_name" db:"machine_name"`
	Value        float64   `json:"current_reading" db:"value"`
	Unit         Unit      `json:"unit_type" db:"unit"`
	TechnicianID string    `json:"tech_id" db:"technician_id"`
	RecordedAt   time.Time `json:"timestamp" db:"recorded_at"`
}

type NewReading struct {
	MachineID string  `json:"machine_id" validate:"required"`
	Value     float64 `json:"current_reading" validate:"gte=0"`
	Unit      Unit    `json:"unit_type" validate:"required,oneof=hours kmh-1"`
}

func (nr *NewReading) Validate(validate *validator.Validate) error {
	nr.MachineID = core.CleanString(nr.MachineID)
	return validate.Struct(nr)
}

type ReadingFilter struct {
	MachineID    string `query:"machine_id"`
	TechnicianID string `query:"-"`
	// Search matches the machine code & name, and the unit.
	Search string `query:"search"`
}

// Match reports whether r passes the filter.
func (f ReadingFilter) Match(r Reading) bool {
	if f.MachineID != "" && r.MachineID != f.MachineID {
		return false
	}
	if f.TechnicianID != "" && r.TechnicianID != f.TechnicianID {
		return false
	}
	if f.Search == "" {
		return true
	}
	s := strings.ToLower(f.Search)
	for _, v := range []string{r.MachineCode, r.MachineName, string(r.Unit)} {
		if strings.Contains(strings.ToLower(v), s) {
			return true
		}
	}
	return false
}

type LogStatus string

const (
	LogPending   LogStatus = "pending"
	LogCompleted LogStatus = "completed"
	LogApproved  LogStatus = "approved"
)

// ServiceLog records a service a technician carried out on a machine.
// Its technician moves it between pending & completed, a supervisor approves it once completed.
type ServiceLog struct {
	ID             string    `json:"id" db:"id"`
	MachineID      string    `json:"machine_id" db:"machine_id"`
	MachineCode    string    `json:"machine_code" db:"machine_code"`
	MachineModel   string    `json:"machine_model" db:"machine_model"`
	TechnicianID   string    `json:"tech_id" db:"technician_id"`
	TechnicianName string    `json:"tech_name" db:"technician_name"`
	Date           time.Time `json:"date" db:"service_date"` // UTC midnight
	Service        string    `json:"service" db:"service"`
	MeterReading   float64   `json:"meter_reading" db:"meter_reading"`
	UsedMaterial   string    `json:"used_material" db:"used_material"`
	Status         LogStatus `json:"status" db:"status"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

type NewServiceLog struct {
	MachineID    string  `json:"machine_id" validate:"required"`
	Date         string  `json:"date" validate:"required,datetime=2006-01-02"`
	Service      string  `json:"service" validate:"required,max=300"`
	MeterReading float64 `json:"meter_reading" validate:"gte=0"`
	UsedMaterial string  `json:"used_material" validate:"max=300"`
}

func (nl *NewServiceLog) Validate(validate *validator.Validate) error {
	nl.MachineID = core.CleanString(nl.MachineID)
	nl.Date = core.CleanString(nl.Date)
	nl.Service = core.CleanString(nl.Service)
	nl.UsedMaterial = core.CleanString(nl.UsedMaterial)
	return validate.Struct(nl)
}

func (nl NewServiceLog) date() time.Time {
	d, _ := time.ParseInLocation(DateLayout, nl.Date, time.UTC)
	return d
}

type StatusChange struct {
	Status LogStatus `json:"status" validate:"required,oneof=pending completed"`
}

func (sc *StatusChange) Validate(validate *validator.Validate) error {
	return validate.Struct(sc)
}

type LogFilter struct {
	MachineID    string    `query:"machine_id"`
	TechnicianID string    `query:"-"`
	Status       LogStatus `query:"status"`
}

func (f LogFilter) Match(l ServiceLog) bool {
	return (f.MachineID == "" || l.MachineID == f.MachineID) &&
		(f.TechnicianID == "" || l.TechnicianID == f.TechnicianID) &&
		(f.Status == "" || l.Status == f.Status)
}
