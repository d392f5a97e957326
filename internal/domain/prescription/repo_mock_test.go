package prescription

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hospify/hospify/internal/domain/appointment"
	"github.com/hospify/hospify/internal/platform/apperr"
)

type mockRepo struct {
	mu        sync.Mutex
	rxs       map[uuid.UUID]*Prescription
	items     map[uuid.UUID][]*Item
	dispensed map[uuid.UUID]bool

	failAddItems error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		rxs:       make(map[uuid.UUID]*Prescription),
		items:     make(map[uuid.UUID][]*Item),
		dispensed: make(map[uuid.UUID]bool),
	}
}

func (m *mockRepo) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	rxs := make(map[uuid.UUID]*Prescription, len(m.rxs))
	for k, v := range m.rxs {
		rxs[k] = v
	}
	items := make(map[uuid.UUID][]*Item, len(m.items))
	for k, v := range m.items {
		items[k] = v
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.rxs, m.items = rxs, items
	}
}

func (m *mockRepo) Create(_ context.Context, p *Prescription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.rxs {
		if other.AppointmentID == p.AppointmentID {
			return apperr.Conflict("prescription already issued for this appointment")
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	cp := *p
	m.rxs[p.ID] = &cp
	return nil
}

func (m *mockRepo) AddItems(_ context.Context, prescriptionID uuid.UUID, items []*Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAddItems != nil {
		return m.failAddItems
	}
	for _, it := range items {
		it.ID = uuid.New()
		it.PrescriptionID = prescriptionID
		cp := *it
		m.items[prescriptionID] = append(m.items[prescriptionID], &cp)
	}
	return nil
}

func (m *mockRepo) load(p *Prescription) *Prescription {
	cp := *p
	cp.Items = append([]*Item{}, m.items[p.ID]...)
	sort.Slice(cp.Items, func(i, j int) bool { return cp.Items[i].Position < cp.Items[j].Position })
	return &cp
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rxs[id]
	if !ok {
		return nil, apperr.NotFound("prescription not found")
	}
	return m.load(p), nil
}

func (m *mockRepo) ListUndispensed(_ context.Context) ([]*Prescription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Prescription{}
	for _, p := range m.rxs {
		if !m.dispensed[p.ID] {
			out = append(out, m.load(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// mockAppointments is an AppointmentStore over a map.
type mockAppointments struct {
	mu    sync.Mutex
	appts map[uuid.UUID]*appointment.Appointment
}

func newMockAppointments() *mockAppointments {
	return &mockAppointments{appts: make(map[uuid.UUID]*appointment.Appointment)}
}

func (m *mockAppointments) add(doctorID, patientID uuid.UUID) *appointment.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := &appointment.Appointment{
		ID:          uuid.New(),
		DoctorID:    doctorID,
		PatientID:   patientID,
		Date:        "2026-03-14",
		Time:        "10:00:00",
		TokenNumber: len(m.appts) + 1,
		Status:      appointment.StatusScheduled,
	}
	m.appts[a.ID] = a
	return a
}

func (m *mockAppointments) status(id uuid.UUID) appointment.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appts[id].Status
}

func (m *mockAppointments) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[uuid.UUID]appointment.Status, len(m.appts))
	for id, a := range m.appts {
		saved[id] = a.Status
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for id, st := range saved {
			m.appts[id].Status = st
		}
	}
}

func (m *mockAppointments) GetForUpdate(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, apperr.NotFound("appointment not found")
	}
	cp := *a
	return &cp, nil
}

func (m *mockAppointments) UpdateStatus(_ context.Context, id uuid.UUID, status appointment.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return apperr.NotFound("appointment not found")
	}
	a.Status = status
	return nil
}
