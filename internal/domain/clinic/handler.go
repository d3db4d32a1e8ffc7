package clinic

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/pagination"
)

type Handler struct {
	svc     *Service
	booking *BookingService
}

func NewHandler(svc *Service, booking *BookingService) *Handler {
	return &Handler{svc: svc, booking: booking}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – admin, physician, registrar
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "registrar"))
	readGroup.GET("/departments/:name", h.GetDepartment)
	readGroup.GET("/doctors/:id", h.GetDoctor)
	readGroup.GET("/patients/:id", h.GetPatient)
	readGroup.GET("/appointments/:id", h.GetAppointment)
	readGroup.GET("/appointments/:id/associations", h.ListAssociations)

	// Write endpoints – admin, registrar
	writeGroup := api.Group("", auth.RequireRole("admin", "registrar"))
	writeGroup.POST("/departments", h.CreateDepartment)
	writeGroup.POST("/doctors", h.CreateDoctor)
	writeGroup.POST("/patients", h.CreatePatient)
	writeGroup.POST("/appointments", h.CreateAppointment)
	writeGroup.POST("/appointments/:id/book", h.BookAppointment)
}

// httpError maps domain errors onto HTTP status codes.
func httpError(err error) error {
	switch {
	case IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case IsNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func paramID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// -- Registry Handlers --

func (h *Handler) CreateDepartment(c echo.Context) error {
	var d Department
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddDepartment(c.Request().Context(), &d); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDepartment(c echo.Context) error {
	d, err := h.svc.GetDepartmentByName(c.Request().Context(), c.Param("name"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddDoctor(c.Request().Context(), &d); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddPatient(c.Request().Context(), &p); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// appointmentRequest carries the date as text so both accepted layouts can
// be parsed.
type appointmentRequest struct {
	ID       int    `json:"id"`
	Date     string `json:"date"`
	TimeSlot string `json:"time_slot"`
	Status   string `json:"status"`
	DoctorID *int   `json:"doctor_id"`
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var req appointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := ParseDate(req.Date)
	if err != nil {
		return httpError(err)
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		return httpError(err)
	}
	a := &Appointment{
		ID:       req.ID,
		Date:     date,
		TimeSlot: req.TimeSlot,
		Status:   status,
		DoctorID: req.DoctorID,
	}
	if err := h.svc.AddAppointment(c.Request().Context(), a); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAssociations(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListAssociations(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.Page(items, pagination.FromContext(c), c.Request().URL.Path))
}

// -- Booking Handler --

func (h *Handler) BookAppointment(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req BookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.AppointmentID = id

	out, err := h.booking.Book(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	switch out.Kind {
	case OutcomeNotFound:
		return c.JSON(http.StatusNotFound, out)
	case OutcomeNoTransition:
		return c.JSON(http.StatusConflict, out)
	}
	return c.JSON(http.StatusOK, out)
}
