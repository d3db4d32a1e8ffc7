package clinic

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var timeSlotPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]-([01][0-9]|2[0-3]):[0-5][0-9]$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("timeslot", func(fl validator.FieldLevel) bool {
		return ValidTimeSlot(fl.Field().String())
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	})
	return v
}

// ValidTimeSlot reports whether v is an 11 character HH:MM-HH:MM range whose
// end is after its start.
func ValidTimeSlot(v string) bool {
	if len(v) != 11 || !timeSlotPattern.MatchString(v) {
		return false
	}
	return v[6:] > v[:5]
}

// messages holds the wording shown for each struct field that fails.
var messages = map[string]string{
	"Doctor.name":                   "The doctor's name must be between 1 and 128 characters.",
	"Doctor.specialty":              "The doctor's specialty must be between 1 and 24 characters.",
	"Doctor.department_id":          "The department ID must not be negative.",
	"Patient.name":                  "The patient's name must be between 1 and 128 characters.",
	"Patient.gender":                "The patient's gender must be F or M.",
	"Patient.age":                   "The patient's age must not be negative.",
	"Patient.address":               "The patient's address must be between 1 and 256 characters.",
	"Patient.number_of_appts":       "The number of appointments must not be negative.",
	"Appointment.date":              "The appointment date is required.",
	"Appointment.time_slot":         "Must be in the format: HH:MM-HH:MM",
	"Appointment.status":            "Must be PA, AC, AV, or WL.",
	"Department.name":               "The department name must be between 1 and 32 characters.",
	"BookingRequest.patient_id":     "The patient ID must be positive.",
	"BookingRequest.patient_count":  "The patient count must not be negative.",
	"BookingRequest.doctor_id":      "The doctor ID must be positive.",
	"BookingRequest.appointment_id": "The appointment ID must be positive.",
}

// Validate checks a model struct and returns a *ValidationError describing the
// first field that fails.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: err.Error(), Err: err}
	}
	fe := fieldErrs[0]
	msg, ok := messages[fe.Namespace()]
	if !ok {
		msg = fmt.Sprintf("failed %q validation", fe.Tag())
	}
	return &ValidationError{Field: fe.Field(), Message: msg, Err: err}
}

// CheckField validates a single value against the rules declared on the
// field of model whose json name is field.
func CheckField(model interface{}, field string, value interface{}) error {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != field {
			continue
		}
		tag := f.Tag.Get("validate")
		if tag == "" {
			return nil
		}
		err := validate.Var(value, tag)
		if err == nil {
			return nil
		}
		msg, ok := messages[t.Name()+"."+field]
		if !ok {
			msg = fmt.Sprintf("failed %q validation", tag)
		}
		return &ValidationError{Field: field, Message: msg, Err: err}
	}
	return fmt.Errorf("%s has no field %q", t.Name(), field)
}
