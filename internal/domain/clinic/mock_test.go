package clinic

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// -- In-memory store --

// memStore backs the mock repositories. WithTx holds mu for the whole
// callback, which serializes transactions the way the appointment row lock
// does, and restores a snapshot when the callback fails.
type memStore struct {
	mu           sync.Mutex
	departments  map[int]Department
	doctors      map[int]Doctor
	patients     map[int]Patient
	appointments map[int]Appointment
	links        []HasAppointment
	seq          map[string]int

	failAssociation error
	failStatus      error
}

func newMemStore() *memStore {
	return &memStore{
		departments:  make(map[int]Department),
		doctors:      make(map[int]Doctor),
		patients:     make(map[int]Patient),
		appointments: make(map[int]Appointment),
		seq:          make(map[string]int),
	}
}

type snapshot struct {
	departments  map[int]Department
	doctors      map[int]Doctor
	patients     map[int]Patient
	appointments map[int]Appointment
	links        []HasAppointment
}

func cloneMap[V any](m map[int]V) map[int]V {
	out := make(map[int]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() snapshot {
	return snapshot{
		departments:  cloneMap(s.departments),
		doctors:      cloneMap(s.doctors),
		patients:     cloneMap(s.patients),
		appointments: cloneMap(s.appointments),
		links:        append([]HasAppointment(nil), s.links...),
	}
}

func (s *memStore) restore(snap snapshot) {
	s.departments = snap.departments
	s.doctors = snap.doctors
	s.patients = snap.patients
	s.appointments = snap.appointments
	s.links = snap.links
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) Next(_ context.Context, sequence string) (int, error) {
	s.seq[sequence]++
	return s.seq[sequence], nil
}

func (s *memStore) linksFor(appointmentID int) []HasAppointment {
	var out []HasAppointment
	for _, l := range s.links {
		if l.AppointmentID == appointmentID {
			out = append(out, l)
		}
	}
	return out
}

func (s *memStore) patientLinks(patientID int) int {
	n := 0
	for _, l := range s.links {
		if l.PatientID != nil && *l.PatientID == patientID {
			n++
		}
	}
	return n
}

// -- Mock Repositories --

type memDepartments struct{ *memStore }

func (m memDepartments) Create(_ context.Context, d *Department) error {
	for _, existing := range m.departments {
		if existing.Name == d.Name {
			return ErrAlreadyExists
		}
	}
	if _, ok := m.departments[d.ID]; ok {
		return ErrAlreadyExists
	}
	m.departments[d.ID] = *d
	return nil
}

func (m memDepartments) GetByName(_ context.Context, name string) (*Department, error) {
	for _, d := range m.departments {
		if d.Name == name {
			return &d, nil
		}
	}
	return nil, ErrDepartmentNotFound
}

type memDoctors struct{ *memStore }

func (m memDoctors) Create(_ context.Context, d *Doctor) error {
	if _, ok := m.doctors[d.ID]; ok {
		return ErrAlreadyExists
	}
	if _, ok := m.departments[d.DepartmentID]; !ok {
		return ErrDepartmentNotFound
	}
	m.doctors[d.ID] = *d
	return nil
}

func (m memDoctors) GetByID(_ context.Context, id int) (*Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return &d, nil
}

type memPatients struct{ *memStore }

func (m memPatients) Create(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; ok {
		return ErrAlreadyExists
	}
	m.patients[p.ID] = *p
	return nil
}

func (m memPatients) GetByID(_ context.Context, id int) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (m memPatients) IncrementAppointments(_ context.Context, id int) (int, error) {
	p, ok := m.patients[id]
	if !ok {
		return 0, ErrPatientNotFound
	}
	p.NumberOfAppts++
	m.patients[id] = p
	return p.NumberOfAppts, nil
}

type memAppointments struct{ *memStore }

func (m memAppointments) Create(_ context.Context, a *Appointment) error {
	if _, ok := m.appointments[a.ID]; ok {
		return ErrAlreadyExists
	}
	m.appointments[a.ID] = *a
	return nil
}

func (m memAppointments) GetByID(_ context.Context, id int) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (m memAppointments) LockStatus(_ context.Context, id int) (Status, error) {
	a, ok := m.appointments[id]
	if !ok {
		return "", ErrAppointmentNotFound
	}
	return a.Status, nil
}

func (m memAppointments) UpdateStatus(_ context.Context, id int, s Status) error {
	if m.failStatus != nil {
		return m.failStatus
	}
	a, ok := m.appointments[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.Status = s
	m.appointments[id] = a
	return nil
}

func (m memAppointments) AddAssociation(_ context.Context, h *HasAppointment) error {
	if m.failAssociation != nil {
		return m.failAssociation
	}
	if _, ok := m.appointments[h.AppointmentID]; !ok {
		return ErrAppointmentNotFound
	}
	if _, ok := m.doctors[h.DoctorID]; !ok {
		return ErrDoctorNotFound
	}
	if h.PatientID != nil {
		if _, ok := m.patients[*h.PatientID]; !ok {
			return ErrPatientNotFound
		}
	}
	h.BookingID = uuid.New()
	h.CreatedAt = time.Now()
	m.links = append(m.links, *h)
	return nil
}

func (m memAppointments) ListAssociations(_ context.Context, appointmentID int) ([]*HasAppointment, error) {
	var out []*HasAppointment
	for _, l := range m.linksFor(appointmentID) {
		l := l
		out = append(out, &l)
	}
	return out, nil
}

// -- Fixtures --

func newTestServices(store *memStore) (*Service, *BookingService) {
	svc := NewService(memDepartments{store}, memDoctors{store}, memPatients{store},
		memAppointments{store}, store, store, zerolog.Nop())
	booking := NewBookingService(memPatients{store}, memAppointments{store}, store, zerolog.Nop())
	return svc, booking
}

// seed adds department 1, doctors 3 and 4, patient 7 with two appointments
// already counted, and one appointment per status.
func seed(store *memStore) {
	store.departments[1] = Department{ID: 1, Name: "Cardiology"}
	store.doctors[3] = Doctor{ID: 3, Name: "Grey", Specialty: "Cardiology", DepartmentID: 1}
	store.doctors[4] = Doctor{ID: 4, Name: "Shepherd", Specialty: "Neurology", DepartmentID: 1}
	store.patients[7] = Patient{ID: 7, Name: "Ann", Gender: "F", Age: 40, Address: "1 Main St", NumberOfAppts: 2}
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for id, s := range map[int]Status{
		10: StatusAvailable,
		11: StatusActive,
		12: StatusWaitlisted,
		13: StatusPending,
	} {
		store.appointments[id] = Appointment{ID: id, Date: date, TimeSlot: "09:00-09:30", Status: s}
	}
}

var errBoom = errors.New("boom")
