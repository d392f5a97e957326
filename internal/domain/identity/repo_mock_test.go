package identity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hospify/hospify/internal/platform/apperr"
)

// mockRepo is an in-memory Repository. It takes part in MemoryTxManager
// transactions through Snapshot.
type mockRepo struct {
	mu          sync.Mutex
	identities  map[uuid.UUID]*Identity
	doctors     map[uuid.UUID]*DoctorProfile
	patients    map[uuid.UUID]*PatientProfile
	pharmacists map[uuid.UUID]*PharmacistProfile
	// booked marks doctors that appointments reference.
	booked map[uuid.UUID]bool

	failCreatePatient error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		identities:  make(map[uuid.UUID]*Identity),
		doctors:     make(map[uuid.UUID]*DoctorProfile),
		patients:    make(map[uuid.UUID]*PatientProfile),
		pharmacists: make(map[uuid.UUID]*PharmacistProfile),
		booked:      make(map[uuid.UUID]bool),
	}
}

func (m *mockRepo) lock(context.Context) func() {
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *mockRepo) Snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	identities := make(map[uuid.UUID]*Identity, len(m.identities))
	for k, v := range m.identities {
		identities[k] = v
	}
	doctors := make(map[uuid.UUID]*DoctorProfile, len(m.doctors))
	for k, v := range m.doctors {
		doctors[k] = v
	}
	patients := make(map[uuid.UUID]*PatientProfile, len(m.patients))
	for k, v := range m.patients {
		patients[k] = v
	}
	pharmacists := make(map[uuid.UUID]*PharmacistProfile, len(m.pharmacists))
	for k, v := range m.pharmacists {
		pharmacists[k] = v
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.identities, m.doctors, m.patients, m.pharmacists = identities, doctors, patients, pharmacists
	}
}

func (m *mockRepo) CreateIdentity(ctx context.Context, i *Identity) error {
	defer m.lock(ctx)()
	for _, existing := range m.identities {
		if existing.Email == i.Email {
			return apperr.Conflict("email already registered")
		}
	}
	i.ID = uuid.New()
	i.CreatedAt = time.Now()
	cp := *i
	m.identities[i.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Identity, error) {
	defer m.lock(ctx)()
	i, ok := m.identities[id]
	if !ok {
		return nil, apperr.NotFound("identity not found")
	}
	cp := *i
	return &cp, nil
}

func (m *mockRepo) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	defer m.lock(ctx)()
	for _, i := range m.identities {
		if i.Email == email {
			cp := *i
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("identity not found")
}

func (m *mockRepo) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	defer m.lock(ctx)()
	if _, ok := m.identities[id]; !ok {
		return apperr.NotFound("identity not found")
	}
	delete(m.identities, id)
	return nil
}

func (m *mockRepo) CreateDoctor(ctx context.Context, d *DoctorProfile) error {
	defer m.lock(ctx)()
	d.ID = uuid.New()
	m.doctors[d.ID] = d
	return nil
}

func (m *mockRepo) CreatePatient(ctx context.Context, p *PatientProfile) error {
	defer m.lock(ctx)()
	if m.failCreatePatient != nil {
		return m.failCreatePatient
	}
	p.ID = uuid.New()
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) CreatePharmacist(ctx context.Context, p *PharmacistProfile) error {
	defer m.lock(ctx)()
	p.ID = uuid.New()
	m.pharmacists[p.ID] = p
	return nil
}

func (m *mockRepo) DoctorByIdentity(ctx context.Context, identityID uuid.UUID) (*DoctorProfile, error) {
	defer m.lock(ctx)()
	for _, d := range m.doctors {
		if d.IdentityID == identityID {
			return d, nil
		}
	}
	return nil, apperr.NotFound("doctor record not found")
}

func (m *mockRepo) PatientByIdentity(ctx context.Context, identityID uuid.UUID) (*PatientProfile, error) {
	defer m.lock(ctx)()
	for _, p := range m.patients {
		if p.IdentityID == identityID {
			return p, nil
		}
	}
	return nil, apperr.NotFound("patient record not found")
}

func (m *mockRepo) PharmacistByIdentity(ctx context.Context, identityID uuid.UUID) (*PharmacistProfile, error) {
	defer m.lock(ctx)()
	for _, p := range m.pharmacists {
		if p.IdentityID == identityID {
			return p, nil
		}
	}
	return nil, apperr.NotFound("pharmacist record not found")
}

func (m *mockRepo) doctorView(d *DoctorProfile) *DoctorView {
	i := m.identities[d.IdentityID]
	return &DoctorView{
		ID:             d.ID,
		IdentityID:     d.IdentityID,
		Name:           i.Name,
		Email:          i.Email,
		Phone:          i.Phone,
		Specialization: d.Specialization,
		Department:     d.Department,
	}
}

func (m *mockRepo) GetDoctor(ctx context.Context, doctorID uuid.UUID) (*DoctorView, error) {
	defer m.lock(ctx)()
	d, ok := m.doctors[doctorID]
	if !ok {
		return nil, apperr.NotFound("doctor not found")
	}
	return m.doctorView(d), nil
}

func (m *mockRepo) DeleteDoctor(ctx context.Context, doctorID uuid.UUID) error {
	defer m.lock(ctx)()
	d, ok := m.doctors[doctorID]
	if !ok {
		return apperr.NotFound("doctor not found")
	}
	if m.booked[doctorID] {
		return apperr.Conflict("doctor has appointments on record")
	}
	delete(m.doctors, doctorID)
	delete(m.identities, d.IdentityID)
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (m *mockRepo) ListDoctors(ctx context.Context, limit, offset int) ([]*DoctorView, int, error) {
	defer m.lock(ctx)()
	all := make([]*DoctorView, 0, len(m.doctors))
	for _, d := range m.doctors {
		all = append(all, m.doctorView(d))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, limit, offset), len(all), nil
}

func (m *mockRepo) ListPharmacists(ctx context.Context, limit, offset int) ([]*PharmacistView, int, error) {
	defer m.lock(ctx)()
	all := make([]*PharmacistView, 0, len(m.pharmacists))
	for _, p := range m.pharmacists {
		i := m.identities[p.IdentityID]
		all = append(all, &PharmacistView{ID: p.ID, IdentityID: p.IdentityID, Name: i.Name, Email: i.Email, Phone: i.Phone})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, limit, offset), len(all), nil
}
