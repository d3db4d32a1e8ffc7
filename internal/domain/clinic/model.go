package clinic

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the two-letter appointment status code stored in appointment.status.
type Status string

const (
	StatusPending    Status = "PA"
	StatusActive     Status = "AC"
	StatusAvailable  Status = "AV"
	StatusWaitlisted Status = "WL"
)

var statusNames = map[Status]string{
	StatusPending:    "pending",
	StatusActive:     "active",
	StatusAvailable:  "available",
	StatusWaitlisted: "waitlisted",
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string { return string(s) }

// Name returns the long form, e.g. "available" for AV.
func (s Status) Name() string { return statusNames[s] }

// ParseStatus accepts a status code in any letter case.
func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", &ValidationError{Field: "status", Message: "Must be PA, AC, AV, or WL."}
	}
	return s, nil
}

// Department maps to the department table.
type Department struct {
	ID   int    `db:"dept_id" json:"id"`
	Name string `db:"name" json:"name" validate:"required,max=32"`
}

// Doctor maps to the doctor table.
type Doctor struct {
	ID           int    `db:"doctor_id" json:"id"`
	Name         string `db:"name" json:"name" validate:"min=1,max=128"`
	Specialty    string `db:"specialty" json:"specialty" validate:"min=1,max=24"`
	DepartmentID int    `db:"did" json:"department_id" validate:"gte=0"`
}

// Patient maps to the patient table.
type Patient struct {
	ID            int    `db:"patient_id" json:"id"`
	Name          string `db:"name" json:"name" validate:"min=1,max=128"`
	Gender        string `db:"gtype" json:"gender" validate:"oneof=F M"`
	Age           int    `db:"age" json:"age" validate:"gte=0"`
	Address       string `db:"address" json:"address" validate:"min=1,max=256"`
	NumberOfAppts int    `db:"number_of_appts" json:"number_of_appts" validate:"gte=0"`
}

// Appointment maps to the appointment table.
type Appointment struct {
	ID       int       `db:"appnt_id" json:"id"`
	Date     time.Time `db:"adate" json:"date" validate:"required"`
	TimeSlot string    `db:"time_slot" json:"time_slot" validate:"timeslot"`
	Status   Status    `db:"status" json:"status" validate:"status"`

	// DoctorID optionally links a new appointment to the doctor offering it.
	DoctorID *int `db:"-" json:"doctor_id,omitempty"`
}

// HasAppointment maps to has_appointment: one row per booking of an
// appointment with a doctor.
type HasAppointment struct {
	BookingID     uuid.UUID `db:"booking_id" json:"booking_id"`
	AppointmentID int       `db:"appt_id" json:"appointment_id"`
	DoctorID      int       `db:"doctor_id" json:"doctor_id"`
	PatientID     *int      `db:"patient_id" json:"patient_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Date layouts accepted on input. The slash form is what the menu has always
// asked for.
const (
	DateLayoutUS  = "01/02/2006"
	DateLayoutISO = "2006-01-02"
)

// ParseDate reads MM/DD/YYYY or YYYY-MM-DD.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range []string{DateLayoutUS, DateLayoutISO} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ValidationError{
		Field:   "date",
		Message: fmt.Sprintf("%q must be in the format MM/DD/YYYY or YYYY-MM-DD", v),
	}
}
