package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/clinic/clinic/internal/domain/clinic"
	"github.com/clinic/clinic/internal/domain/reporting"
	"github.com/clinic/clinic/internal/platform/console"
)

type registry interface {
	AddDoctor(ctx context.Context, d *clinic.Doctor) error
	AddPatient(ctx context.Context, p *clinic.Patient) error
	AddAppointment(ctx context.Context, a *clinic.Appointment) error
}

type booker interface {
	Book(ctx context.Context, req clinic.BookingRequest) (*clinic.Outcome, error)
}

type reportRunner interface {
	Check(ctx context.Context, p reporting.Parameter, v string) error
	Run(ctx context.Context, id string, raw map[string]string) (*reporting.Report, error)
}

const menuText = `
MAIN MENU
---------
1. Add Doctor
2. Add Patient
3. Add Appointment
4. Make an Appointment
5. List appointments of a given doctor
6. List all available appointments of a given department
7. List total number of different types of appointments per doctor in descending order
8. Find total number of patients per doctor with a given status
9. < EXIT
`

// menu is the interactive numbered menu.
type menu struct {
	registry registry
	booking  booker
	reports  reportRunner
	p        *console.Prompter
}

// run shows the menu until the user picks 9 or the input ends.
func (m *menu) run(ctx context.Context, in io.Reader, out io.Writer) error {
	m.p = console.New(in, out)
	for {
		m.p.Printf("%s", menuText)
		choice, err := m.p.Int("Please make your choice: ")
		if err != nil {
			return endOfInput(err)
		}

		switch {
		case choice == 9:
			return nil
		case choice < 1 || choice > 9:
			m.p.Println("Unrecognized choice!")
			continue
		}

		if err := m.dispatch(ctx, choice); err != nil {
			if console.IsEOF(err) {
				return nil
			}
			m.p.Println("Query invalid!", message(err))
		}
	}
}

func (m *menu) dispatch(ctx context.Context, choice int) error {
	switch choice {
	case 1:
		return m.addDoctor(ctx)
	case 2:
		return m.addPatient(ctx)
	case 3:
		return m.addAppointment(ctx)
	case 4:
		return m.makeAppointment(ctx)
	default:
		return m.runReport(ctx, choice)
	}
}

func endOfInput(err error) error {
	if console.IsEOF(err) {
		return nil
	}
	return err
}

// message is the text shown for err: just the reason for validation errors.
func message(err error) string {
	var ve *clinic.ValidationError
	if errors.As(err, &ve) && ve.Message != "" {
		return ve.Message
	}
	return err.Error()
}

// field returns a check that applies the validation rules declared on
// model's json field to the raw answer.
func field(model interface{}, name string) func(string) error {
	return func(v string) error {
		if err := clinic.CheckField(model, name, v); err != nil {
			return errors.New(message(err))
		}
		return nil
	}
}

// intField asks for an integer that also satisfies model's rules for name.
func (m *menu) intField(prompt string, model interface{}, name string) (int, error) {
	return console.Parse(m.p, prompt, func(v string) (int, error) {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, errors.New("Must be a whole number.")
		}
		if err := clinic.CheckField(model, name, n); err != nil {
			return 0, errors.New(message(err))
		}
		return n, nil
	})
}

func (m *menu) addDoctor(ctx context.Context) error {
	var d clinic.Doctor
	var err error
	if d.ID, err = m.p.Int("What's the doctor's ID? "); err != nil {
		return err
	}
	if d.Name, err = m.p.String("What's the doctor's name? ", field(d, "name")); err != nil {
		return err
	}
	if d.Specialty, err = m.p.String("What's the doctor's specialty? ", field(d, "specialty")); err != nil {
		return err
	}
	if d.DepartmentID, err = m.intField("What's the doctor's department ID? ", d, "department_id"); err != nil {
		return err
	}
	if err := m.registry.AddDoctor(ctx, &d); err != nil {
		return err
	}
	m.p.Printf("Doctor %d added.\n", d.ID)
	return nil
}

func (m *menu) addPatient(ctx context.Context) error {
	var pt clinic.Patient
	var err error
	if pt.ID, err = m.p.Int("What's the patient's ID? "); err != nil {
		return err
	}
	if pt.Name, err = m.p.String("What's the patient's name? ", field(pt, "name")); err != nil {
		return err
	}
	gender, err := m.p.String("What is the patient's gender? ", func(v string) error {
		return field(pt, "gender")(strings.ToUpper(strings.TrimSpace(v)))
	})
	if err != nil {
		return err
	}
	pt.Gender = strings.ToUpper(strings.TrimSpace(gender))
	if pt.Age, err = m.intField("What's the patient's age? ", pt, "age"); err != nil {
		return err
	}
	if pt.Address, err = m.p.String("What's the patient's address? ", field(pt, "address")); err != nil {
		return err
	}
	if pt.NumberOfAppts, err = m.intField("How many appointments does the patient have? ", pt, "number_of_appts"); err != nil {
		return err
	}
	if err := m.registry.AddPatient(ctx, &pt); err != nil {
		return err
	}
	m.p.Printf("Patient %d added.\n", pt.ID)
	return nil
}

func (m *menu) addAppointment(ctx context.Context) error {
	var a clinic.Appointment
	var err error
	if a.ID, err = m.p.Int("What's the appointment ID? "); err != nil {
		return err
	}
	if a.Date, err = console.Parse(m.p, "What's the appointment date? ", withMessage(clinic.ParseDate)); err != nil {
		return err
	}
	if a.TimeSlot, err = m.p.String("What's the appointment time slot? ", field(a, "time_slot")); err != nil {
		return err
	}
	if a.Status, err = console.Parse(m.p, "What is the appointment's status? ", withMessage(clinic.ParseStatus)); err != nil {
		return err
	}
	doctorID, err := m.p.Int("Which doctor offers it? (0 for none) ")
	if err != nil {
		return err
	}
	if doctorID != 0 {
		a.DoctorID = &doctorID
	}
	if err := m.registry.AddAppointment(ctx, &a); err != nil {
		return err
	}
	m.p.Printf("Appointment %d added.\n", a.ID)
	return nil
}

func withMessage[T any](parse func(string) (T, error)) func(string) (T, error) {
	return func(v string) (T, error) {
		r, err := parse(v)
		if err != nil {
			return r, errors.New(message(err))
		}
		return r, nil
	}
}

func (m *menu) makeAppointment(ctx context.Context) error {
	var req clinic.BookingRequest
	var err error
	if req.PatientID, err = m.intField("What's the patient's ID? ", req, "patient_id"); err != nil {
		return err
	}
	if req.PatientCount, err = m.intField("How many appointments does the patient have? ", req, "patient_count"); err != nil {
		return err
	}
	if req.DoctorID, err = m.intField("What's the doctor's ID? ", req, "doctor_id"); err != nil {
		return err
	}
	if req.AppointmentID, err = m.intField("What's the appointment ID? ", req, "appointment_id"); err != nil {
		return err
	}

	out, err := m.booking.Book(ctx, req)
	if err != nil {
		m.p.Println("Booking failed, no changes were made:", message(err))
		return nil
	}
	printOutcome(m.p.Out(), out)
	return nil
}

func printOutcome(w io.Writer, out *clinic.Outcome) {
	switch out.Kind {
	case clinic.OutcomeNotFound:
		fmt.Fprintln(w, "No such appointment with that ID.")
	case clinic.OutcomeNoTransition:
		fmt.Fprintf(w, "Appointment %d is %s (%s); nothing was booked.\n", out.AppointmentID, out.Status.Name(), out.Status)
	case clinic.OutcomeApplied:
		fmt.Fprintf(w, "Appointment %d booked: %s -> %s\n", out.AppointmentID, out.Previous, out.Status)
		if out.BookingID != nil {
			fmt.Fprintf(w, "Booking %s, patient now has %d appointment(s).\n", out.BookingID, out.PatientAppointments)
		}
	default:
		fmt.Fprintf(w, "Booking of appointment %d failed: %s\n", out.AppointmentID, strings.Join(out.Errors, "; "))
	}
}

func (m *menu) runReport(ctx context.Context, choice int) error {
	def := reporting.FindByMenu(choice)
	if def == nil {
		m.p.Println("Unrecognized choice!")
		return nil
	}

	raw := make(map[string]string, len(def.Parameters))
	for _, param := range def.Parameters {
		v, err := m.p.String(fmt.Sprintf("Enter the %s: ", param.Description), func(v string) error {
			if err := m.reports.Check(ctx, param, v); err != nil {
				return errors.New(message(err))
			}
			return nil
		})
		if err != nil {
			return err
		}
		raw[param.Name] = v
	}

	rep, err := m.reports.Run(ctx, def.ID, raw)
	if err != nil {
		return err
	}
	m.p.Println(def.Description + ":")
	return console.Table(m.p.Out(), rep.Result.Columns, rep.Result.Rows)
}
