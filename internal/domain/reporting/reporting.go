package reporting

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/clinic"
	"github.com/clinic/clinic/internal/platform/db"
)

var ErrReportNotFound = errors.New("report not found")

// Parameter kinds. Each kind decides how a raw value is parsed before it is
// bound to the query.
const (
	KindInt    = "int"
	KindDate   = "date"
	KindStatus = "status"
	KindText   = "text"
)

// A parameter with a Ref must name an existing row of that kind.
const (
	RefDoctor     = "doctor"
	RefDepartment = "department"
)

type Parameter struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Ref         string `json:"ref,omitempty"`
	Description string `json:"description"`
}

// Definition is a predefined report and the SQL that produces it. Parameters
// bind to $1, $2, ... in the order listed.
type Definition struct {
	ID          string      `json:"id"`
	Menu        int         `json:"menu"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	SQL         string      `json:"-"`
	Parameters  []Parameter `json:"parameters"`
}

// Report holds the result of running a definition.
type Report struct {
	ReportID    string            `json:"report_id"`
	ReportName  string            `json:"report_name"`
	GeneratedAt time.Time         `json:"generated_at"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Result      *db.Table         `json:"result"`
}

// Predefined is the list of available reports, in menu order.
var Predefined = []Definition{
	{
		ID:          "doctor-appointments",
		Menu:        5,
		Name:        "Appointments of a doctor",
		Description: "Active and available appointments of a doctor within a date range",
		SQL: `SELECT DISTINCT a.appnt_id, a.adate, a.time_slot, a.status
FROM appointment a
JOIN has_appointment h ON h.appt_id = a.appnt_id
WHERE h.doctor_id = $1
  AND a.status IN ('AC', 'AV')
  AND a.adate BETWEEN $2 AND $3
ORDER BY a.adate, a.time_slot, a.appnt_id`,
		Parameters: []Parameter{
			{Name: "doctor_id", Kind: KindInt, Ref: RefDoctor, Description: "doctor ID"},
			{Name: "from", Kind: KindDate, Description: "earliest date"},
			{Name: "to", Kind: KindDate, Description: "latest date"},
		},
	},
	{
		ID:          "department-available",
		Menu:        6,
		Name:        "Available appointments of a department",
		Description: "Available appointments offered by doctors of a department on a date",
		SQL: `SELECT DISTINCT a.appnt_id, a.adate, a.time_slot, d.doctor_id, d.name AS doctor
FROM appointment a
JOIN has_appointment h ON h.appt_id = a.appnt_id
JOIN doctor d ON d.doctor_id = h.doctor_id
JOIN department dep ON dep.dept_id = d.did
WHERE dep.name = $1
  AND a.adate = $2
  AND a.status = 'AV'
ORDER BY a.time_slot, a.appnt_id`,
		Parameters: []Parameter{
			{Name: "department", Kind: KindText, Ref: RefDepartment, Description: "department name"},
			{Name: "date", Kind: KindDate, Description: "appointment date"},
		},
	},
	{
		ID:          "status-per-doctor",
		Menu:        7,
		Name:        "Appointment statuses per doctor",
		Description: "Number of appointments of each status per doctor, largest first",
		SQL: `SELECT d.doctor_id, d.name, a.status, COUNT(DISTINCT a.appnt_id) AS total
FROM doctor d
JOIN has_appointment h ON h.doctor_id = d.doctor_id
JOIN appointment a ON a.appnt_id = h.appt_id
GROUP BY d.doctor_id, d.name, a.status
ORDER BY total DESC, d.doctor_id, a.status`,
	},
	{
		ID:          "patients-per-doctor",
		Menu:        8,
		Name:        "Patients per doctor by status",
		Description: "Number of distinct patients per doctor whose appointments have a given status",
		SQL: `SELECT d.doctor_id, d.name, COUNT(DISTINCT h.patient_id) AS patients
FROM doctor d
JOIN has_appointment h ON h.doctor_id = d.doctor_id
JOIN appointment a ON a.appnt_id = h.appt_id
WHERE a.status = $1
GROUP BY d.doctor_id, d.name
ORDER BY patients DESC, d.doctor_id`,
		Parameters: []Parameter{
			{Name: "status", Kind: KindStatus, Description: "PA, AC, AV or WL"},
		},
	},
}

// Find looks up a report by ID.
func Find(id string) *Definition {
	for i := range Predefined {
		if Predefined[i].ID == id {
			return &Predefined[i]
		}
	}
	return nil
}

// FindByMenu looks up the report offered under a menu option.
func FindByMenu(option int) *Definition {
	for i := range Predefined {
		if Predefined[i].Menu == option {
			return &Predefined[i]
		}
	}
	return nil
}

// Bind parses raw parameter values into query arguments, in the order the
// definition lists them.
func (d *Definition) Bind(raw map[string]string) ([]interface{}, error) {
	args := make([]interface{}, 0, len(d.Parameters))
	for _, p := range d.Parameters {
		v := strings.TrimSpace(raw[p.Name])
		if v == "" {
			return nil, &clinic.ValidationError{Field: p.Name, Message: "is required"}
		}
		arg, err := p.Parse(v)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

// Parse converts a raw value into the query argument for p.
func (p Parameter) Parse(v string) (interface{}, error) {
	switch p.Kind {
	case KindInt:
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &clinic.ValidationError{Field: p.Name, Message: fmt.Sprintf("%q is not a number", v), Err: err}
		}
		return n, nil
	case KindDate:
		t, err := clinic.ParseDate(v)
		if err != nil {
			var ve *clinic.ValidationError
			if errors.As(err, &ve) {
				ve.Field = p.Name
			}
			return nil, err
		}
		return t, nil
	case KindStatus:
		s, err := clinic.ParseStatus(v)
		if err != nil {
			return nil, err
		}
		return string(s), nil
	default:
		return v, nil
	}
}

// Querier runs a SELECT and returns its rows; *db.Session implements it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (*db.Table, error)
}

// Resolver looks up the rows a parameter can refer to; *clinic.Service
// implements it.
type Resolver interface {
	GetDoctor(ctx context.Context, id int) (*clinic.Doctor, error)
	GetDepartmentByName(ctx context.Context, name string) (*clinic.Department, error)
}

type Service struct {
	q      Querier
	refs   Resolver
	logger zerolog.Logger
}

// NewService returns a report runner. With a nil refs, doctor and department
// parameters are not checked and an unknown one yields an empty report.
func NewService(q Querier, refs Resolver, logger zerolog.Logger) *Service {
	return &Service{q: q, refs: refs, logger: logger.With().Str("component", "reporting").Logger()}
}

func (s *Service) List() []Definition {
	return Predefined
}

// Run evaluates the report id with the given raw parameters.
func (s *Service) Run(ctx context.Context, id string, raw map[string]string) (*Report, error) {
	def := Find(id)
	if def == nil {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	args, err := def.Bind(raw)
	if err != nil {
		return nil, err
	}
	for i, p := range def.Parameters {
		if err := s.resolve(ctx, p, args[i]); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	table, err := s.q.Query(ctx, def.SQL, args...)
	if err != nil {
		return nil, fmt.Errorf("run report %s: %w", id, err)
	}
	s.logger.Debug().
		Str("report", id).
		Int("rows", len(table.Rows)).
		Dur("elapsed", time.Since(start)).
		Msg("report evaluated")

	params := make(map[string]string, len(def.Parameters))
	for _, p := range def.Parameters {
		params[p.Name] = strings.TrimSpace(raw[p.Name])
	}
	return &Report{
		ReportID:    def.ID,
		ReportName:  def.Name,
		GeneratedAt: time.Now(),
		Parameters:  params,
		Result:      table,
	}, nil
}

// Check validates one raw parameter value the way Run would, so an
// interactive caller can ask again before running the report.
func (s *Service) Check(ctx context.Context, p Parameter, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return &clinic.ValidationError{Field: p.Name, Message: "is required"}
	}
	arg, err := p.Parse(v)
	if err != nil {
		return err
	}
	return s.resolve(ctx, p, arg)
}

// resolve confirms that a doctor or department parameter names an existing
// row. An unknown one is a validation error wrapping the not-found error.
func (s *Service) resolve(ctx context.Context, p Parameter, arg interface{}) error {
	if s.refs == nil || p.Ref == "" {
		return nil
	}
	var err error
	switch p.Ref {
	case RefDoctor:
		id, _ := arg.(int)
		_, err = s.refs.GetDoctor(ctx, id)
	case RefDepartment:
		name, _ := arg.(string)
		_, err = s.refs.GetDepartmentByName(ctx, name)
	default:
		return fmt.Errorf("parameter %s: unknown reference %q", p.Name, p.Ref)
	}
	switch {
	case err == nil:
		return nil
	case clinic.IsNotFound(err):
		return &clinic.ValidationError{Field: p.Name, Message: fmt.Sprintf("no %s %v", p.Ref, arg), Err: err}
	default:
		return fmt.Errorf("look up %s: %w", p.Name, err)
	}
}
