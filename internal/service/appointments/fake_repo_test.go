package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/domain"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/store"
)

// memRepo is an in-memory ClinicRepository. Transactions snapshot the maps
// and restore them when fn fails. The *Fn hooks replace a single operation.
type memRepo struct {
	mu sync.Mutex

	nextID        int64
	clients       map[int64]domain.Client
	professionals map[int64]domain.Professional
	appointments  map[int64]domain.Appointment

	lockedProfessionals []int64

	insertAppointmentFn func(ctx context.Context, a domain.Appointment) (domain.Appointment, error)
	findAppointmentsFn  func(ctx context.Context, filter store.AppointmentFilter) ([]domain.Appointment, error)
}

func newMemRepo() *memRepo {
	return &memRepo{
		clients:       map[int64]domain.Client{},
		professionals: map[int64]domain.Professional{},
		appointments:  map[int64]domain.Appointment{},
	}
}

func (r *memRepo) View(ctx context.Context, fn func(ctx context.Context, tx store.ClinicTx) error) error {
	return fn(ctx, memTx{r: r})
}

func (r *memRepo) InTransaction(ctx context.Context, fn func(ctx context.Context, tx store.ClinicTx) error) error {
	r.mu.Lock()
	clients := cloneMap(r.clients)
	professionals := cloneMap(r.professionals)
	appointments := cloneMap(r.appointments)
	r.mu.Unlock()

	if err := fn(ctx, memTx{r: r}); err != nil {
		r.mu.Lock()
		r.clients, r.professionals, r.appointments = clients, professionals, appointments
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *memRepo) InProfessionalTransaction(ctx context.Context, professionalID int64, fn func(ctx context.Context, tx store.ClinicTx) error) error {
	r.mu.Lock()
	r.lockedProfessionals = append(r.lockedProfessionals, professionalID)
	r.mu.Unlock()
	return r.InTransaction(ctx, fn)
}

func (r *memRepo) Ping(ctx context.Context) error { return nil }

func cloneMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedValues[V any](m map[int64]V, keep func(V) bool) []V {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]V, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

type memTx struct {
	r *memRepo
}

func (t memTx) id() int64 {
	t.r.nextID++
	return t.r.nextID
}

func (t memTx) GetClient(ctx context.Context, id int64) (domain.Client, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	c, ok := t.r.clients[id]
	if !ok {
		return domain.Client{}, store.ErrNotFound
	}
	return c, nil
}

func (t memTx) ListClients(ctx context.Context) ([]domain.Client, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	return sortedValues(t.r.clients, nil), nil
}

func (t memTx) FindClients(ctx context.Context, ids []int64) ([]domain.Client, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return sortedValues(t.r.clients, func(c domain.Client) bool { return want[c.ID] }), nil
}

func (t memTx) InsertClient(ctx context.Context, c domain.Client) (domain.Client, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	c.ID = t.id()
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	t.r.clients[c.ID] = c
	return c, nil
}

func (t memTx) UpdateClient(ctx context.Context, c domain.Client) (domain.Client, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	if _, ok := t.r.clients[c.ID]; !ok {
		return domain.Client{}, store.ErrNotFound
	}
	c.UpdatedAt = time.Now().UTC()
	t.r.clients[c.ID] = c
	return c, nil
}

func (t memTx) DeleteClient(ctx context.Context, id int64) error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	if _, ok := t.r.clients[id]; !ok {
		return store.ErrNotFound
	}
	for _, a := range t.r.appointments {
		if a.ClientID == id {
			return store.ErrInUse
		}
	}
	delete(t.r.clients, id)
	return nil
}

func (t memTx) GetProfessional(ctx context.Context, id int64) (domain.Professional, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	p, ok := t.r.professionals[id]
	if !ok {
		return domain.Professional{}, store.ErrNotFound
	}
	return p, nil
}

func (t memTx) ListProfessionals(ctx context.Context) ([]domain.Professional, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	return sortedValues(t.r.professionals, nil), nil
}

func (t memTx) FindProfessionals(ctx context.Context, ids []int64) ([]domain.Professional, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return sortedValues(t.r.professionals, func(p domain.Professional) bool { return want[p.ID] }), nil
}

func (t memTx) InsertProfessional(ctx context.Context, p domain.Professional) (domain.Professional, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	p.ID = t.id()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	t.r.professionals[p.ID] = p
	return p, nil
}

func (t memTx) UpdateProfessional(ctx context.Context, p domain.Professional) (domain.Professional, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	if _, ok := t.r.professionals[p.ID]; !ok {
		return domain.Professional{}, store.ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	t.r.professionals[p.ID] = p
	return p, nil
}

func (t memTx) DeleteProfessional(ctx context.Context, id int64) error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	if _, ok := t.r.professionals[id]; !ok {
		return store.ErrNotFound
	}
	for _, a := range t.r.appointments {
		if a.ProfessionalID == id {
			return store.ErrInUse
		}
	}
	delete(t.r.professionals, id)
	return nil
}

func (t memTx) GetAppointment(ctx context.Context, id int64) (domain.Appointment, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	a, ok := t.r.appointments[id]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	return a, nil
}

func (t memTx) FindAppointments(ctx context.Context, filter store.AppointmentFilter) ([]domain.Appointment, error) {
	if t.r.findAppointmentsFn != nil {
		return t.r.findAppointmentsFn(ctx, filter)
	}
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	out := sortedValues(t.r.appointments, func(a domain.Appointment) bool {
		switch {
		case filter.ClientID != 0 && a.ClientID != filter.ClientID:
			return false
		case filter.ProfessionalID != 0 && a.ProfessionalID != filter.ProfessionalID:
			return false
		case filter.ScheduledAt != nil && !a.ScheduledAt.Equal(*filter.ScheduledAt):
			return false
		case filter.ExcludeID != 0 && a.ID == filter.ExcludeID:
			return false
		}
		return true
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// slotTaken mirrors the unique (professional_id, scheduled_at) index.
func (t memTx) slotTaken(a domain.Appointment) bool {
	for _, other := range t.r.appointments {
		if other.ID != a.ID && other.ProfessionalID == a.ProfessionalID && other.ScheduledAt.Equal(a.ScheduledAt) {
			return true
		}
	}
	return false
}

func (t memTx) referencesResolve(a domain.Appointment) bool {
	_, okC := t.r.clients[a.ClientID]
	_, okP := t.r.professionals[a.ProfessionalID]
	return okC && okP
}

func (t memTx) InsertAppointment(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
	if t.r.insertAppointmentFn != nil {
		return t.r.insertAppointmentFn(ctx, a)
	}
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	if !t.referencesResolve(a) {
		return domain.Appointment{}, store.ErrBrokenReference
	}
	if t.slotTaken(a) {
		return domain.Appointment{}, store.ErrConflict
	}
	a.ID = t.id()
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	t.r.appointments[a.ID] = a
	return a, nil
}

func (t memTx) UpdateAppointment(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	if _, ok := t.r.appointments[a.ID]; !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	if !t.referencesResolve(a) {
		return domain.Appointment{}, store.ErrBrokenReference
	}
	if t.slotTaken(a) {
		return domain.Appointment{}, store.ErrConflict
	}
	a.UpdatedAt = time.Now().UTC()
	t.r.appointments[a.ID] = a
	return a, nil
}

func (t memTx) DeleteAppointment(ctx context.Context, id int64) error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	if _, ok := t.r.appointments[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.r.appointments, id)
	return nil
}

type fakeLocker struct {
	withSlotLockFn func(ctx context.Context, professionalID int64, at time.Time, fn func(ctx context.Context) error) error
}

func (f *fakeLocker) WithSlotLock(ctx context.Context, professionalID int64, at time.Time, fn func(ctx context.Context) error) error {
	if f.withSlotLockFn == nil {
		panic("WithSlotLock not configured")
	}
	return f.withSlotLockFn(ctx, professionalID, at, fn)
}
