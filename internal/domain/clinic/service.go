package clinic

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Sequences backing the surrogate keys of each table.
const (
	DepartmentSequence  = "department_id_seq"
	DoctorSequence      = "doctor_id_seq"
	PatientSequence     = "patient_id_seq"
	AppointmentSequence = "appointment_id_seq"
)

// Service registers departments, doctors, patients and appointments.
type Service struct {
	departments  DepartmentRepository
	doctors      DoctorRepository
	patients     PatientRepository
	appointments AppointmentRepository
	ids          IDAllocator
	tx           TxRunner
	logger       zerolog.Logger
}

func NewService(dept DepartmentRepository, doc DoctorRepository, pat PatientRepository, appt AppointmentRepository, ids IDAllocator, tx TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		departments:  dept,
		doctors:      doc,
		patients:     pat,
		appointments: appt,
		ids:          ids,
		tx:           tx,
		logger:       logger.With().Str("component", "registry").Logger(),
	}
}

// assignID fills *id from sequence when the caller left it at zero.
func (s *Service) assignID(ctx context.Context, id *int, sequence string) error {
	if *id < 0 {
		return &ValidationError{Field: "id", Message: "The ID must not be negative."}
	}
	if *id != 0 {
		return nil
	}
	next, err := s.ids.Next(ctx, sequence)
	if err != nil {
		return fmt.Errorf("allocate id from %s: %w", sequence, err)
	}
	*id = next
	return nil
}

// -- Department --

func (s *Service) AddDepartment(ctx context.Context, d *Department) error {
	if err := Validate(d); err != nil {
		return err
	}
	if err := s.assignID(ctx, &d.ID, DepartmentSequence); err != nil {
		return err
	}
	if err := s.departments.Create(ctx, d); err != nil {
		return err
	}
	s.logger.Info().Int("department_id", d.ID).Str("name", d.Name).Msg("department added")
	return nil
}

func (s *Service) GetDepartmentByName(ctx context.Context, name string) (*Department, error) {
	return s.departments.GetByName(ctx, name)
}

// -- Doctor --

func (s *Service) AddDoctor(ctx context.Context, d *Doctor) error {
	if err := Validate(d); err != nil {
		return err
	}
	if err := s.assignID(ctx, &d.ID, DoctorSequence); err != nil {
		return err
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		return err
	}
	s.logger.Info().Int("doctor_id", d.ID).Int("department_id", d.DepartmentID).Msg("doctor added")
	return nil
}

func (s *Service) GetDoctor(ctx context.Context, id int) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

// -- Patient --

func (s *Service) AddPatient(ctx context.Context, p *Patient) error {
	if err := Validate(p); err != nil {
		return err
	}
	if err := s.assignID(ctx, &p.ID, PatientSequence); err != nil {
		return err
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return err
	}
	s.logger.Info().Int("patient_id", p.ID).Msg("patient added")
	return nil
}

func (s *Service) GetPatient(ctx context.Context, id int) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// -- Appointment --

// AddAppointment stores a new appointment. When DoctorID is set the
// appointment is linked to that doctor in the same transaction.
func (s *Service) AddAppointment(ctx context.Context, a *Appointment) error {
	if err := Validate(a); err != nil {
		return err
	}
	if a.DoctorID != nil && *a.DoctorID <= 0 {
		return &ValidationError{Field: "doctor_id", Message: "The doctor ID must be positive."}
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.assignID(ctx, &a.ID, AppointmentSequence); err != nil {
			return err
		}
		if err := s.appointments.Create(ctx, a); err != nil {
			return err
		}
		if a.DoctorID == nil {
			return nil
		}
		return s.appointments.AddAssociation(ctx, &HasAppointment{
			AppointmentID: a.ID,
			DoctorID:      *a.DoctorID,
		})
	})
	if err != nil {
		return err
	}
	ev := s.logger.Info().Int("appointment_id", a.ID).Str("status", a.Status.String())
	if a.DoctorID != nil {
		ev = ev.Int("doctor_id", *a.DoctorID)
	}
	ev.Msg("appointment added")
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id int) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// ListAssociations returns every doctor/patient link recorded for an
// appointment, oldest first.
func (s *Service) ListAssociations(ctx context.Context, appointmentID int) ([]*HasAppointment, error) {
	if _, err := s.appointments.GetByID(ctx, appointmentID); err != nil {
		return nil, err
	}
	return s.appointments.ListAssociations(ctx, appointmentID)
}
