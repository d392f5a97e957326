package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hospify/hospify/internal/platform/apperr"
)

type counterKey struct {
	doctorID uuid.UUID
	date     string
}

type mockRepo struct {
	mu       sync.Mutex
	appts    map[uuid.UUID]*Appointment
	counters map[counterKey]int

	failCreate error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		appts:    make(map[uuid.UUID]*Appointment),
		counters: make(map[counterKey]int),
	}
}

func (m *mockRepo) lock(context.Context) func() {
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *mockRepo) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	appts := make(map[uuid.UUID]*Appointment, len(m.appts))
	for k, v := range m.appts {
		cp := *v
		appts[k] = &cp
	}
	counters := make(map[counterKey]int, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}
	return func() {
		m.mu.Lock()
		m.appts, m.counters = appts, counters
		m.mu.Unlock()
	}
}

func (m *mockRepo) NextToken(ctx context.Context, doctorID uuid.UUID, date string) (int, error) {
	defer m.lock(ctx)()
	k := counterKey{doctorID, date}
	m.counters[k]++
	return m.counters[k], nil
}

func (m *mockRepo) Create(ctx context.Context, a *Appointment) error {
	defer m.lock(ctx)()
	if m.failCreate != nil {
		return m.failCreate
	}
	for _, other := range m.appts {
		if other.DoctorID == a.DoctorID && other.Date == a.Date && other.TokenNumber == a.TokenNumber {
			return apperr.Conflict("token already allocated")
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) get(id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, apperr.NotFound("appointment not found")
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	defer m.lock(ctx)()
	return m.get(id)
}

func (m *mockRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	defer m.lock(ctx)()
	return m.get(id)
}

func (m *mockRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	defer m.lock(ctx)()
	a, ok := m.appts[id]
	if !ok {
		return apperr.NotFound("appointment not found")
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	return nil
}

func (m *mockRepo) filter(keep func(*Appointment) bool) []*Appointment {
	items := []*Appointment{}
	for _, a := range m.appts {
		if keep(a) {
			cp := *a
			items = append(items, &cp)
		}
	}
	return items
}

func (m *mockRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	defer m.lock(ctx)()
	items := m.filter(func(a *Appointment) bool { return a.PatientID == patientID })
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.TokenNumber < b.TokenNumber
	})
	return items, nil
}

func (m *mockRepo) ListQueue(ctx context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error) {
	defer m.lock(ctx)()
	items := m.filter(func(a *Appointment) bool {
		return a.DoctorID == doctorID && a.Date == date && a.Status == StatusScheduled
	})
	sort.Slice(items, func(i, j int) bool { return items[i].TokenNumber < items[j].TokenNumber })
	return items, nil
}

type doctorSet map[uuid.UUID]bool

func (d doctorSet) DoctorExists(_ context.Context, id uuid.UUID) (bool, error) {
	return d[id], nil
}
