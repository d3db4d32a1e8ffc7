package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/clinic/clinic/internal/domain/clinic"
)

// withApp opens the database for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func departmentCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "department", Short: "Manage departments"}

	var d clinic.Department
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a department",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.registry.AddDepartment(ctx, &d); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), d)
			})
		},
	}
	add.Flags().IntVar(&d.ID, "id", 0, "department ID (0 assigns the next one)")
	add.Flags().StringVar(&d.Name, "name", "", "department name")
	_ = add.MarkFlagRequired("name")

	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a department by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				d, err := a.registry.GetDepartmentByName(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), d)
			})
		},
	}

	cmd.AddCommand(add, show)
	return cmd
}

func doctorCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "doctor", Short: "Manage doctors"}

	var d clinic.Doctor
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a doctor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.registry.AddDoctor(ctx, &d); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), d)
			})
		},
	}
	add.Flags().IntVar(&d.ID, "id", 0, "doctor ID (0 assigns the next one)")
	add.Flags().StringVar(&d.Name, "name", "", "doctor name")
	add.Flags().StringVar(&d.Specialty, "specialty", "", "specialty")
	add.Flags().IntVar(&d.DepartmentID, "dept", 0, "department ID")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("specialty")
	_ = add.MarkFlagRequired("dept")

	cmd.AddCommand(add)
	return cmd
}

func patientCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "patient", Short: "Manage patients"}

	var pt clinic.Patient
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a patient",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.registry.AddPatient(ctx, &pt); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), pt)
			})
		},
	}
	add.Flags().IntVar(&pt.ID, "id", 0, "patient ID (0 assigns the next one)")
	add.Flags().StringVar(&pt.Name, "name", "", "patient name")
	add.Flags().StringVar(&pt.Gender, "gender", "", "F or M")
	add.Flags().IntVar(&pt.Age, "age", 0, "age in years")
	add.Flags().StringVar(&pt.Address, "address", "", "postal address")
	add.Flags().IntVar(&pt.NumberOfAppts, "appts", 0, "appointments already held")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("gender")
	_ = add.MarkFlagRequired("address")

	cmd.AddCommand(add)
	return cmd
}

func appointmentCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "appointment", Short: "Manage and book appointments"}
	cmd.AddCommand(appointmentAddCmd(), appointmentBookCmd())
	return cmd
}

func appointmentAddCmd() *cobra.Command {
	var (
		id       int
		date     string
		slot     string
		status   string
		doctorID int
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add an appointment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := clinic.ParseDate(date)
			if err != nil {
				return err
			}
			s, err := clinic.ParseStatus(status)
			if err != nil {
				return err
			}
			appt := clinic.Appointment{ID: id, Date: d, TimeSlot: slot, Status: s}
			if cmd.Flags().Changed("doctor") {
				appt.DoctorID = &doctorID
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.registry.AddAppointment(ctx, &appt); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), appt)
			})
		},
	}
	add.Flags().IntVar(&id, "id", 0, "appointment ID (0 assigns the next one)")
	add.Flags().StringVar(&date, "date", "", "date, MM/DD/YYYY or YYYY-MM-DD")
	add.Flags().StringVar(&slot, "slot", "", "time slot, HH:MM-HH:MM")
	add.Flags().StringVar(&status, "status", string(clinic.StatusAvailable), "PA, AC, AV or WL")
	add.Flags().IntVar(&doctorID, "doctor", 0, "doctor offering the appointment")
	_ = add.MarkFlagRequired("date")
	_ = add.MarkFlagRequired("slot")
	return add
}

func appointmentBookCmd() *cobra.Command {
	var req clinic.BookingRequest
	book := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment for a patient with a doctor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				out, err := a.booking.Book(ctx, req)
				if perr := printJSON(cmd.OutOrStdout(), out); perr != nil {
					return perr
				}
				if err != nil {
					return err
				}
				if out.Kind != clinic.OutcomeApplied {
					return fmt.Errorf("appointment %d: %s", out.AppointmentID, out.Kind)
				}
				return nil
			})
		},
	}
	book.Flags().IntVar(&req.PatientID, "patient", 0, "patient ID")
	book.Flags().IntVar(&req.PatientCount, "count", 0, "the patient's current number of appointments")
	book.Flags().IntVar(&req.DoctorID, "doctor", 0, "doctor ID")
	book.Flags().IntVar(&req.AppointmentID, "appointment", 0, "appointment ID")
	for _, name := range []string{"patient", "doctor", "appointment"} {
		_ = book.MarkFlagRequired(name)
	}
	return book
}
