package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
)

// foreignKeys maps foreign key constraint names onto the error for the row
// they point at.
var foreignKeys = map[string]error{
	"doctor_did_fkey":                 ErrDepartmentNotFound,
	"has_appointment_appt_id_fkey":    ErrAppointmentNotFound,
	"has_appointment_doctor_id_fkey":  ErrDoctorNotFound,
	"has_appointment_patient_id_fkey": ErrPatientNotFound,
}

func writeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}
	if db.IsForeignKeyViolation(err) {
		if target, ok := foreignKeys[db.ConstraintName(err)]; ok {
			return fmt.Errorf("%s: %w", op, target)
		}
	}
	if db.IsCheckViolation(err) {
		return &ValidationError{Field: db.ConstraintName(err), Message: "violates a check constraint", Err: err}
	}
	return db.Wrap(op, err)
}

func readErr(op string, err, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return db.Wrap(op, err)
}

// =========== Department Repository ===========

type departmentRepoPG struct{ pool *pgxpool.Pool }

func NewDepartmentRepoPG(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepoPG{pool: pool}
}

func (r *departmentRepoPG) Create(ctx context.Context, d *Department) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO department (dept_id, name) VALUES ($1, $2)`, d.ID, d.Name)
	return writeErr("insert department", err)
}

func (r *departmentRepoPG) GetByName(ctx context.Context, name string) (*Department, error) {
	var d Department
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT dept_id, name FROM department WHERE name = $1`, name).Scan(&d.ID, &d.Name)
	if err != nil {
		return nil, readErr("select department", err, ErrDepartmentNotFound)
	}
	return &d, nil
}

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO doctor (doctor_id, name, specialty, did) VALUES ($1, $2, $3, $4)`,
		d.ID, d.Name, d.Specialty, d.DepartmentID)
	return writeErr("insert doctor", err)
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id int) (*Doctor, error) {
	var d Doctor
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT doctor_id, name, specialty, did FROM doctor WHERE doctor_id = $1`, id).
		Scan(&d.ID, &d.Name, &d.Specialty, &d.DepartmentID)
	if err != nil {
		return nil, readErr("select doctor", err, ErrDoctorNotFound)
	}
	return &d, nil
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO patient (patient_id, name, gtype, age, address, number_of_appts)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.Gender, p.Age, p.Address, p.NumberOfAppts)
	return writeErr("insert patient", err)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int) (*Patient, error) {
	var p Patient
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT patient_id, name, gtype, age, address, number_of_appts
		FROM patient WHERE patient_id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Gender, &p.Age, &p.Address, &p.NumberOfAppts)
	if err != nil {
		return nil, readErr("select patient", err, ErrPatientNotFound)
	}
	return &p, nil
}

func (r *patientRepoPG) IncrementAppointments(ctx context.Context, id int) (int, error) {
	var n int
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE patient SET number_of_appts = number_of_appts + 1
		WHERE patient_id = $1
		RETURNING number_of_appts`, id).Scan(&n)
	if err != nil {
		return 0, readErr("increment patient appointments", err, ErrPatientNotFound)
	}
	return n, nil
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct {
	pool    db.Querier
	session *db.Session
}

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return newAppointmentRepoPG(pool)
}

func newAppointmentRepoPG(q db.Querier) *appointmentRepoPG {
	return &appointmentRepoPG{pool: q, session: db.NewSession(q)}
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO appointment (appnt_id, adate, time_slot, status) VALUES ($1, $2, $3, $4)`,
		a.ID, a.Date, a.TimeSlot, string(a.Status))
	return writeErr("insert appointment", err)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id int) (*Appointment, error) {
	var a Appointment
	var status string
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT appnt_id, adate, time_slot, status FROM appointment WHERE appnt_id = $1`, id).
		Scan(&a.ID, &a.Date, &a.TimeSlot, &status)
	if err != nil {
		return nil, readErr("select appointment", err, ErrAppointmentNotFound)
	}
	a.Status = Status(status)
	return &a, nil
}

func (r *appointmentRepoPG) LockStatus(ctx context.Context, id int) (Status, error) {
	var status string
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT status FROM appointment WHERE appnt_id = $1 FOR UPDATE`, id).Scan(&status)
	if err != nil {
		return "", readErr("lock appointment", err, ErrAppointmentNotFound)
	}
	return Status(status), nil
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id int, s Status) error {
	n, err := r.session.ExecUpdate(ctx,
		`UPDATE appointment SET status = $2 WHERE appnt_id = $1`, id, string(s))
	if err != nil {
		return writeErr("update appointment status", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return ErrAppointmentNotFound
	default:
		return db.Wrap("update appointment status", fmt.Errorf("expected 1 row affected, got %d", n))
	}
}

func (r *appointmentRepoPG) AddAssociation(ctx context.Context, h *HasAppointment) error {
	if h.BookingID == uuid.Nil {
		h.BookingID = uuid.New()
	}
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO has_appointment (booking_id, appt_id, doctor_id, patient_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		h.BookingID, h.AppointmentID, h.DoctorID, h.PatientID).Scan(&h.CreatedAt)
	return writeErr("insert has_appointment", err)
}

func (r *appointmentRepoPG) ListAssociations(ctx context.Context, appointmentID int) ([]*HasAppointment, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT booking_id, appt_id, doctor_id, patient_id, created_at
		FROM has_appointment WHERE appt_id = $1
		ORDER BY created_at, booking_id`, appointmentID)
	if err != nil {
		return nil, db.Wrap("select has_appointment", err)
	}
	defer rows.Close()

	var items []*HasAppointment
	for rows.Next() {
		var h HasAppointment
		if err := rows.Scan(&h.BookingID, &h.AppointmentID, &h.DoctorID, &h.PatientID, &h.CreatedAt); err != nil {
			return nil, db.Wrap("scan has_appointment", err)
		}
		items = append(items, &h)
	}
	return items, db.Wrap("iterate has_appointment", rows.Err())
}

// =========== Sequence allocator ===========

type sequenceAllocator struct{ session *db.Session }

// NewSequenceAllocator draws ids with nextval on the named sequence.
func NewSequenceAllocator(session *db.Session) IDAllocator {
	return &sequenceAllocator{session: session}
}

func (a *sequenceAllocator) Next(ctx context.Context, sequence string) (int, error) {
	v, err := a.session.NextSequenceValue(ctx, sequence)
	return int(v), err
}
