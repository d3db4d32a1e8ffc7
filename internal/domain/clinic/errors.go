package clinic

import "errors"

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrDepartmentNotFound  = errors.New("department not found")
	ErrDoctorMismatch      = errors.New("appointment is held by another doctor")
	ErrAlreadyExists       = errors.New("record already exists")
)

// ValidationError reports a malformed field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsNotFound reports whether err means a referenced row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAppointmentNotFound) ||
		errors.Is(err, ErrPatientNotFound) ||
		errors.Is(err, ErrDoctorNotFound) ||
		errors.Is(err, ErrDepartmentNotFound)
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
