package clinic

import "context"

type DepartmentRepository interface {
	Create(ctx context.Context, d *Department) error
	GetByName(ctx context.Context, name string) (*Department, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id int) (*Doctor, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int) (*Patient, error)
	// IncrementAppointments adds one to the patient's appointment counter and
	// returns the new value.
	IncrementAppointments(ctx context.Context, id int) (int, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int) (*Appointment, error)
	// LockStatus reads the status and holds a row lock on the appointment
	// until the surrounding transaction ends.
	LockStatus(ctx context.Context, id int) (Status, error)
	// UpdateStatus sets the status of exactly one appointment.
	UpdateStatus(ctx context.Context, id int, s Status) error
	AddAssociation(ctx context.Context, h *HasAppointment) error
	ListAssociations(ctx context.Context, appointmentID int) ([]*HasAppointment, error)
}

// IDAllocator hands out surrogate keys from a named sequence.
type IDAllocator interface {
	Next(ctx context.Context, sequence string) (int, error)
}

// TxRunner runs fn so that every repository call made with the context it
// receives commits or rolls back together.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
