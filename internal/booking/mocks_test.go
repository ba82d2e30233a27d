package booking

import (
	"context"
	"sync"

	"github.com/rmstudio/salon-booking/internal/model"
)

// memDB is an in-memory implementation of the storage ports.  A mutex
// serializes transactions the way row locks do on the real database,
// and InTx snapshots all state up front so an error restores it,
// matching the all-or-nothing rollback of a real transaction.
type memDB struct {
	mu       sync.Mutex
	slots    map[uint64]*model.Slot
	appts    map[uint64]*model.Appointment
	services map[uint64]*model.Service
	stylists map[uint64]*model.Stylist
	nextID   uint64
}

func newMemDB() *memDB {
	return &memDB{
		slots:    make(map[uint64]*model.Slot),
		appts:    make(map[uint64]*model.Appointment),
		services: make(map[uint64]*model.Service),
		stylists: make(map[uint64]*model.Stylist),
		nextID:   1,
	}
}

func (db *memDB) InTx(ctx context.Context, fn func(s Stores) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	snapSlots := cloneSlots(db.slots)
	snapAppts := cloneAppts(db.appts)
	snapNext := db.nextID

	if err := fn(memStores{db: db}); err != nil {
		db.slots = snapSlots
		db.appts = snapAppts
		db.nextID = snapNext
		return err
	}
	return nil
}

func cloneSlots(in map[uint64]*model.Slot) map[uint64]*model.Slot {
	out := make(map[uint64]*model.Slot, len(in))
	for id, s := range in {
		c := *s
		out[id] = &c
	}
	return out
}

func cloneAppt(a *model.Appointment) *model.Appointment {
	c := *a
	if a.ServiceID != nil {
		v := *a.ServiceID
		c.ServiceID = &v
	}
	if a.SlotID != nil {
		v := *a.SlotID
		c.SlotID = &v
	}
	return &c
}

func cloneAppts(in map[uint64]*model.Appointment) map[uint64]*model.Appointment {
	out := make(map[uint64]*model.Appointment, len(in))
	for id, a := range in {
		out[id] = cloneAppt(a)
	}
	return out
}

type memStores struct{ db *memDB }

func (s memStores) Slots() SlotStore               { return memSlots{db: s.db} }
func (s memStores) Appointments() AppointmentStore { return memAppts{db: s.db} }
func (s memStores) Services() ServiceStore         { return memServices{db: s.db} }
func (s memStores) Stylists() StylistStore         { return memStylists{db: s.db} }

type memSlots struct{ db *memDB }

func (m memSlots) Get(ctx context.Context, id uint64) (*model.Slot, error) {
	s, ok := m.db.slots[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *s
	return &c, nil
}

func (m memSlots) Claim(ctx context.Context, id uint64) (bool, error) {
	s, ok := m.db.slots[id]
	if !ok || !s.Available {
		return false, nil
	}
	s.Available = false
	return true, nil
}

func (m memSlots) Release(ctx context.Context, id uint64) error {
	if s, ok := m.db.slots[id]; ok {
		s.Available = true
	}
	return nil
}

func (m memSlots) Lock(ctx context.Context, id uint64) error {
	if s, ok := m.db.slots[id]; ok {
		s.Available = false
	}
	return nil
}

type memAppts struct{ db *memDB }

func (m memAppts) Create(ctx context.Context, a *model.Appointment) error {
	a.ID = m.db.nextID
	m.db.nextID++
	m.db.appts[a.ID] = cloneAppt(a)
	return nil
}

func (m memAppts) Get(ctx context.Context, id uint64) (*model.Appointment, error) {
	a, ok := m.db.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAppt(a), nil
}

func (m memAppts) GetByToken(ctx context.Context, id uint64, token string) (*model.Appointment, error) {
	a, ok := m.db.appts[id]
	if !ok || a.Token != token {
		return nil, ErrNotFound
	}
	return cloneAppt(a), nil
}

func (m memAppts) GetByPaymentID(ctx context.Context, paymentID string) (*model.Appointment, error) {
	for _, a := range m.db.appts {
		if a.PaymentID == paymentID {
			return cloneAppt(a), nil
		}
	}
	return nil, ErrNotFound
}

func (m memAppts) Update(ctx context.Context, a *model.Appointment) error {
	if _, ok := m.db.appts[a.ID]; !ok {
		return ErrNotFound
	}
	m.db.appts[a.ID] = cloneAppt(a)
	return nil
}

type memServices struct{ db *memDB }

func (m memServices) Get(ctx context.Context, id uint64) (*model.Service, error) {
	s, ok := m.db.services[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *s
	return &c, nil
}

type memStylists struct{ db *memDB }

func (m memStylists) Get(ctx context.Context, id uint64) (*model.Stylist, error) {
	s, ok := m.db.stylists[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *s
	return &c, nil
}

// recordingMailer counts notifications per kind so tests can assert
// the at-most-once email rules.
type recordingMailer struct {
	mu        sync.Mutex
	received  int
	confirmed int
	cancelled int
	completed int
}

func (m *recordingMailer) AppointmentReceived(a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received++
	return nil
}

func (m *recordingMailer) AppointmentConfirmed(a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmed++
	return nil
}

func (m *recordingMailer) AppointmentCancelled(a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled++
	return nil
}

func (m *recordingMailer) AppointmentCompleted(a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed++
	return nil
}
