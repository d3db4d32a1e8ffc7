package clinic

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// transitions is the booking state machine. PA has no entry: booking a
// pending appointment changes nothing.
var transitions = map[Status]Status{
	StatusAvailable:  StatusActive,
	StatusActive:     StatusWaitlisted,
	StatusWaitlisted: StatusWaitlisted,
}

// NextStatus returns the status an appointment moves to when booked, and
// false when booking is not defined for current.
func NextStatus(current Status) (Status, bool) {
	next, ok := transitions[current]
	if !ok {
		return current, false
	}
	return next, true
}

// BookingRequest asks to book an appointment for a patient with a doctor.
// PatientCount is the caller's view of the patient's appointment counter.
type BookingRequest struct {
	PatientID     int `json:"patient_id" validate:"gt=0"`
	PatientCount  int `json:"patient_count" validate:"gte=0"`
	DoctorID      int `json:"doctor_id" validate:"gt=0"`
	AppointmentID int `json:"appointment_id" validate:"gt=0"`
}

type OutcomeKind string

const (
	OutcomeApplied      OutcomeKind = "applied"
	OutcomeNotFound     OutcomeKind = "not_found"
	OutcomeNoTransition OutcomeKind = "no_transition"
	OutcomeFailed       OutcomeKind = "failed"
)

// Outcome reports the result of a booking. For OutcomeFailed every change
// was rolled back and Errors lists what went wrong.
type Outcome struct {
	Kind                OutcomeKind `json:"kind"`
	AppointmentID       int         `json:"appointment_id"`
	Previous            Status      `json:"previous_status,omitempty"`
	Status              Status      `json:"status,omitempty"`
	BookingID           *uuid.UUID  `json:"booking_id,omitempty"`
	PatientAppointments int         `json:"patient_appointments,omitempty"`
	Errors              []string    `json:"errors,omitempty"`
}

// BookingService runs the booking state machine.
type BookingService struct {
	patients     PatientRepository
	appointments AppointmentRepository
	tx           TxRunner
	logger       zerolog.Logger
	tracer       trace.Tracer
}

func NewBookingService(pat PatientRepository, appt AppointmentRepository, tx TxRunner, logger zerolog.Logger) *BookingService {
	return &BookingService{
		patients:     pat,
		appointments: appt,
		tx:           tx,
		logger:       logger.With().Str("component", "booking").Logger(),
		tracer:       otel.Tracer("github.com/clinic/clinic/internal/domain/clinic"),
	}
}

// Book books req.AppointmentID for a patient and doctor.
//
// The appointment row is locked for the whole read-decide-write sequence, so
// concurrent bookings of one appointment take turns. The counter increment,
// association insert and status update commit together or not at all.
// The returned error is non-nil only for OutcomeFailed.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Book", trace.WithAttributes(
		attribute.Int("appointment.id", req.AppointmentID),
		attribute.Int("doctor.id", req.DoctorID),
		attribute.Int("patient.id", req.PatientID),
	))
	defer span.End()

	out := &Outcome{AppointmentID: req.AppointmentID}
	if err := Validate(&req); err != nil {
		return s.fail(span, out, err)
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.appointments.LockStatus(ctx, req.AppointmentID)
		if err != nil {
			return err
		}
		out.Previous = current

		next, ok := NextStatus(current)
		if !ok {
			out.Kind = OutcomeNoTransition
			out.Status = current
			return nil
		}

		links, err := s.appointments.ListAssociations(ctx, req.AppointmentID)
		if err != nil {
			return err
		}
		for _, l := range links {
			if l.DoctorID != req.DoctorID {
				return &ValidationError{
					Field:   "doctor_id",
					Message: "The appointment is already linked to another doctor.",
					Err:     ErrDoctorMismatch,
				}
			}
		}

		count, err := s.patients.IncrementAppointments(ctx, req.PatientID)
		if err != nil {
			return err
		}
		if count-1 != req.PatientCount {
			s.logger.Warn().
				Int("patient_id", req.PatientID).
				Int("supplied_count", req.PatientCount).
				Int("stored_count", count-1).
				Msg("patient appointment count drifted; stored value used")
		}

		patientID := req.PatientID
		link := &HasAppointment{
			AppointmentID: req.AppointmentID,
			DoctorID:      req.DoctorID,
			PatientID:     &patientID,
		}
		if err := s.appointments.AddAssociation(ctx, link); err != nil {
			return err
		}

		if next != current {
			if err := s.appointments.UpdateStatus(ctx, req.AppointmentID, next); err != nil {
				return err
			}
		}

		out.Kind = OutcomeApplied
		out.Status = next
		out.BookingID = &link.BookingID
		out.PatientAppointments = count
		return nil
	})

	switch {
	case errors.Is(err, ErrAppointmentNotFound):
		*out = Outcome{Kind: OutcomeNotFound, AppointmentID: req.AppointmentID}
	case err != nil:
		return s.fail(span, out, err)
	}

	span.SetAttributes(attribute.String("booking.outcome", string(out.Kind)))
	s.logger.Info().
		Str("outcome", string(out.Kind)).
		Int("appointment_id", req.AppointmentID).
		Int("doctor_id", req.DoctorID).
		Int("patient_id", req.PatientID).
		Str("previous", out.Previous.String()).
		Str("next", out.Status.String()).
		Msg("booking finished")
	return out, nil
}

func (s *BookingService) fail(span trace.Span, out *Outcome, err error) (*Outcome, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("booking.outcome", string(OutcomeFailed)))

	*out = Outcome{
		Kind:          OutcomeFailed,
		AppointmentID: out.AppointmentID,
		Errors:        []string{err.Error()},
	}
	s.logger.Error().Err(err).Int("appointment_id", out.AppointmentID).Msg("booking rolled back")
	return out, err
}
