package clinic

import (
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"AV", StatusAvailable, false},
		{"ac", StatusActive, false},
		{" wl ", StatusWaitlisted, false},
		{"PA", StatusPending, false},
		{"XX", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestStatus_Name(t *testing.T) {
	if StatusWaitlisted.Name() != "waitlisted" {
		t.Errorf("unexpected name %q", StatusWaitlisted.Name())
	}
	if Status("XX").Name() != "" {
		t.Error("unknown status must have no name")
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"03/09/2024", "2024-03-09"} {
		got, err := ParseDate(in)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", in, err)
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseDate("9 March 2024"); !IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestValidTimeSlot(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"09:00-09:30", true},
		{"23:00-23:59", true},
		{"9:00-09:30", false},
		{"09:00-09:30 ", false},
		{"09:30-09:00", false},
		{"09:00-09:00", false},
		{"24:00-24:30", false},
		{"09:00 09:30", false},
	}
	for _, tt := range tests {
		if got := ValidTimeSlot(tt.in); got != tt.want {
			t.Errorf("ValidTimeSlot(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidate_UnknownFieldMessage(t *testing.T) {
	err := Validate(&Department{})
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Field != "name" {
		t.Errorf("expected field name, got %s", ve.Field)
	}
	if ve.Message == "" {
		t.Error("expected a message")
	}
}

func TestCheckField(t *testing.T) {
	tests := []struct {
		name    string
		model   interface{}
		field   string
		value   interface{}
		wantErr bool
	}{
		{"doctor name ok", Doctor{}, "name", "House", false},
		{"doctor name empty", Doctor{}, "name", "", true},
		{"gender ok", &Patient{}, "gender", "M", false},
		{"gender bad", Patient{}, "gender", "X", true},
		{"age negative", Patient{}, "age", -3, true},
		{"slot ok", Appointment{}, "time_slot", "08:00-08:15", false},
		{"slot bad", Appointment{}, "time_slot", "8-9", true},
		{"status bad", Appointment{}, "status", "NO", true},
		{"untagged field", Doctor{}, "id", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckField(tt.model, tt.field, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckField() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsValidation(err) {
				t.Errorf("expected ValidationError, got %T", err)
			}
		})
	}

	if err := CheckField(Doctor{}, "nope", ""); err == nil || IsValidation(err) {
		t.Errorf("expected a plain error for an unknown field, got %v", err)
	}
}

func TestCheckField_Message(t *testing.T) {
	err := CheckField(Patient{}, "gender", "Z")
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Message != "The patient's gender must be F or M." {
		t.Errorf("unexpected message %q", ve.Message)
	}
}
