package clinic

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo, *memStore) {
	store := newMemStore()
	seed(store)
	svc, booking := newTestServices(store)
	return NewHandler(svc, booking), echo.New(), store
}

func jsonRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	return he.Code
}

func TestHandler_CreateDoctor(t *testing.T) {
	h, e, _ := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"name":"Bailey","specialty":"Surgery","department_id":1}`), rec)

	if err := h.CreateDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var d Doctor
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.ID == 0 {
		t.Error("expected an assigned id")
	}
}

func TestHandler_CreatePatient_BadRequest(t *testing.T) {
	h, e, _ := newTestHandler()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"name":"x","gender":"Q","address":"a"}`), httptest.NewRecorder())

	err := h.CreatePatient(c)
	if code := statusOf(t, err); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_CreateDepartment_Conflict(t *testing.T) {
	h, e, _ := newTestHandler()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"name":"Cardiology"}`), httptest.NewRecorder())

	err := h.CreateDepartment(c)
	if code := statusOf(t, err); code != http.StatusConflict {
		t.Errorf("expected 409, got %d", code)
	}
}

func TestHandler_GetDepartment(t *testing.T) {
	h, e, _ := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("name")
	c.SetParamValues("Cardiology")

	if err := h.GetDepartment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var d Department
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.ID != 1 || d.Name != "Cardiology" {
		t.Errorf("unexpected department %+v", d)
	}
}

func TestHandler_GetDepartment_NotFound(t *testing.T) {
	h, e, _ := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("name")
	c.SetParamValues("Radiology")

	if code := statusOf(t, h.GetDepartment(c)); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestHandler_CreateAppointment(t *testing.T) {
	h, e, store := newTestHandler()
	rec := httptest.NewRecorder()
	body := `{"id":20,"date":"04/15/2024","time_slot":"13:00-13:45","status":"av","doctor_id":4}`
	c := e.NewContext(jsonRequest(http.MethodPost, body), rec)

	if err := h.CreateAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	a, ok := store.appointments[20]
	if !ok {
		t.Fatal("expected appointment 20 stored")
	}
	if a.Status != StatusAvailable || a.Date.Format(DateLayoutISO) != "2024-04-15" {
		t.Errorf("unexpected appointment %+v", a)
	}
	if links := store.linksFor(20); len(links) != 1 || links[0].DoctorID != 4 {
		t.Errorf("expected link to doctor 4, got %+v", links)
	}
}

func TestHandler_CreateAppointment_BadDate(t *testing.T) {
	h, e, _ := newTestHandler()
	body := `{"date":"15.04.2024","time_slot":"13:00-13:45","status":"AV"}`
	c := e.NewContext(jsonRequest(http.MethodPost, body), httptest.NewRecorder())

	if code := statusOf(t, h.CreateAppointment(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_GetAppointment(t *testing.T) {
	h, e, _ := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("10")

	if err := h.GetAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetAppointment_NotFound(t *testing.T) {
	h, e, _ := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("404")

	if code := statusOf(t, h.GetAppointment(c)); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestHandler_GetDoctor_InvalidID(t *testing.T) {
	h, e, _ := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if code := statusOf(t, h.GetDoctor(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_BookAppointment(t *testing.T) {
	h, e, store := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"patient_id":7,"patient_count":2,"doctor_id":3}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("10")

	if err := h.BookAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var out Outcome
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Kind != OutcomeApplied || out.Status != StatusActive {
		t.Errorf("unexpected outcome %+v", out)
	}
	if out.BookingID == nil {
		t.Error("expected the booking id in the body")
	}
	if store.appointments[10].Status != StatusActive {
		t.Error("expected appointment 10 to be AC")
	}
}

func TestHandler_BookAppointment_Outcomes(t *testing.T) {
	tests := []struct {
		name string
		id   string
		body string
		want int
	}{
		{"unknown appointment", "99", `{"patient_id":7,"doctor_id":3}`, http.StatusNotFound},
		{"pending appointment", "13", `{"patient_id":7,"doctor_id":3}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, e, _ := newTestHandler()
			rec := httptest.NewRecorder()
			c := e.NewContext(jsonRequest(http.MethodPost, tt.body), rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.id)

			if err := h.BookAppointment(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
			if strings.Contains(rec.Body.String(), "booking_id") {
				t.Errorf("expected no booking_id when nothing was booked, got %s", rec.Body.String())
			}
		})
	}
}

func TestHandler_BookAppointment_UnknownPatient(t *testing.T) {
	h, e, _ := newTestHandler()
	c := e.NewContext(jsonRequest(http.MethodPost, `{"patient_id":70,"doctor_id":3}`), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("10")

	if code := statusOf(t, h.BookAppointment(c)); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestHandler_ListAssociations(t *testing.T) {
	h, e, store := newTestHandler()
	patient := 7
	store.links = append(store.links,
		HasAppointment{AppointmentID: 12, DoctorID: 3, PatientID: &patient},
		HasAppointment{AppointmentID: 12, DoctorID: 3, PatientID: &patient},
	)
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/appointments/12/associations?limit=1", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("12")

	if err := h.ListAssociations(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data  []HasAppointment `json:"data"`
		Total int              `json:"total"`
		Next  string           `json:"next"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || len(resp.Data) != 1 {
		t.Errorf("expected 1 of 2, got %d of %d", len(resp.Data), resp.Total)
	}
	if resp.Next != "/api/v1/appointments/12/associations?offset=1&limit=1" {
		t.Errorf("unexpected next link %q", resp.Next)
	}
}
