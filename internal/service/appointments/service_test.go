package appointments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/domain"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/lock"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/store"
)

var nineAM = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memRepo, domain.Client, domain.Professional) {
	t.Helper()
	repo := newMemRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	c, err := svc.CreateClient(ctx, ClientInput{Name: "Ana", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("CreateClient error: %v", err)
	}
	p, err := svc.CreateProfessional(ctx, ProfessionalInput{Name: "Dr. Lima", Specialty: "Orthodontics", RegistrationID: "CRO-1"})
	if err != nil {
		t.Fatalf("CreateProfessional error: %v", err)
	}
	return svc, repo, c, p
}

func TestCreateAppointment_ThenGetReturnsSameFields(t *testing.T) {
	svc, repo, c, p := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: nineAM, Note: "first visit"})
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if len(repo.lockedProfessionals) != 1 || repo.lockedProfessionals[0] != p.ID {
		t.Fatalf("professional transaction = %v, want [%d]", repo.lockedProfessionals, p.ID)
	}

	got, err := svc.GetAppointment(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetAppointment error: %v", err)
	}
	if got.ClientID != c.ID || got.ProfessionalID != p.ID || !got.ScheduledAt.Equal(nineAM) || got.Note != "first visit" {
		t.Fatalf("GetAppointment = %+v", got.Appointment)
	}
	if got.Client == nil || got.Client.Name != "Ana" {
		t.Fatalf("client not resolved: %+v", got.Client)
	}
	if got.Professional == nil || got.Professional.Name != "Dr. Lima" {
		t.Fatalf("professional not resolved: %+v", got.Professional)
	}
}

func TestCreateAppointment_InvalidReference(t *testing.T) {
	cases := []struct {
		name         string
		clientID     func(c domain.Client) int64
		professional func(p domain.Professional) int64
		entity       string
	}{
		{
			name:         "unknown client",
			clientID:     func(c domain.Client) int64 { return c.ID + 100 },
			professional: func(p domain.Professional) int64 { return p.ID },
			entity:       "client",
		},
		{
			name:         "unknown professional",
			clientID:     func(c domain.Client) int64 { return c.ID },
			professional: func(p domain.Professional) int64 { return p.ID + 100 },
			entity:       "professional",
		},
		{
			name:         "zero client",
			clientID:     func(c domain.Client) int64 { return 0 },
			professional: func(p domain.Professional) int64 { return p.ID },
			entity:       "client",
		},
		{
			name:         "negative professional",
			clientID:     func(c domain.Client) int64 { return c.ID },
			professional: func(p domain.Professional) int64 { return -1 },
			entity:       "professional",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, c, p := newTestService(t)
			_, err := svc.CreateAppointment(context.Background(), AppointmentInput{
				ClientID:       tc.clientID(c),
				ProfessionalID: tc.professional(p),
				ScheduledAt:    nineAM,
			})
			if !errors.Is(err, ErrInvalidReference) {
				t.Fatalf("err = %v, want %v", err, ErrInvalidReference)
			}
			var refErr *ReferenceError
			if !errors.As(err, &refErr) || refErr.Entity != tc.entity {
				t.Fatalf("err = %#v, want ReferenceError for %s", err, tc.entity)
			}
			if len(repo.appointments) != 0 {
				t.Fatalf("appointments = %d, want 0", len(repo.appointments))
			}
		})
	}
}

func TestCreateAppointment_ConflictRegardlessOfClientOrNote(t *testing.T) {
	svc, repo, c, p := newTestService(t)
	ctx := context.Background()

	other, err := svc.CreateClient(ctx, ClientInput{Name: "Bruno"})
	if err != nil {
		t.Fatalf("CreateClient error: %v", err)
	}
	if _, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: nineAM, Note: "a"}); err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}

	// Same instant written in another zone.
	sameInstant := nineAM.In(time.FixedZone("BRT", -3*60*60))
	_, err = svc.CreateAppointment(ctx, AppointmentInput{ClientID: other.ID, ProfessionalID: p.ID, ScheduledAt: sameInstant, Note: "b"})
	if !errors.Is(err, ErrSchedulingConflict) {
		t.Fatalf("err = %v, want %v", err, ErrSchedulingConflict)
	}
	if len(repo.appointments) != 1 {
		t.Fatalf("appointments = %d, want 1", len(repo.appointments))
	}
}

func TestCreateAppointment_OtherProfessionalSameInstantIsFine(t *testing.T) {
	svc, _, c, p := newTestService(t)
	ctx := context.Background()

	p2, err := svc.CreateProfessional(ctx, ProfessionalInput{Name: "Dra. Reis"})
	if err != nil {
		t.Fatalf("CreateProfessional error: %v", err)
	}
	if _, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: nineAM}); err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	if _, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c.ID, ProfessionalID: p2.ID, ScheduledAt: nineAM}); err != nil {
		t.Fatalf("CreateAppointment other professional error: %v", err)
	}
}

func TestCreateAppointment_StoreUniqueViolationBecomesConflict(t *testing.T) {
	svc, repo, c, p := newTestService(t)
	// The check saw a free slot but a concurrent writer won the index.
	repo.insertAppointmentFn = func(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
		return domain.Appointment{}, store.ErrConflict
	}

	_, err := svc.CreateAppointment(context.Background(), AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: nineAM})
	if !errors.Is(err, ErrSchedulingConflict) {
		t.Fatalf("err = %v, want %v", err, ErrSchedulingConflict)
	}
}

func TestCreateAppointment_StoreFailurePropagates(t *testing.T) {
	svc, repo, c, p := newTestService(t)
	boom := errors.New("connection reset")
	repo.findAppointmentsFn = func(ctx context.Context, filter store.AppointmentFilter) ([]domain.Appointment, error) {
		return nil, boom
	}

	_, err := svc.CreateAppointment(context.Background(), AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: nineAM})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestCreateAppointment_Validation(t *testing.T) {
	svc, _, c, p := newTestService(t)

	_, err := svc.CreateAppointment(context.Background(), AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if vErr.Error() != "scheduled_at is required" {
		t.Fatalf("error = %q, want %q", vErr.Error(), "scheduled_at is required")
	}
}

func TestCreateAppointment_NoteLengthCountsCharacters(t *testing.T) {
	svc, _, c, p := newTestService(t)
	ctx := context.Background()

	// 2000 characters, 4000 bytes.
	accented := strings.Repeat("ã", maxNoteLength)
	a, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: nineAM, Note: accented})
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	if a.Note != accented {
		t.Fatalf("note was altered")
	}

	_, err = svc.CreateAppointment(ctx, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: nineAM.Add(time.Hour), Note: accented + "ã"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
}

func TestCreateAppointment_UsesSlotLock(t *testing.T) {
	repo := newMemRepo()
	var gotProfessional int64
	var gotAt time.Time
	locker := &fakeLocker{
		withSlotLockFn: func(ctx context.Context, professionalID int64, at time.Time, fn func(ctx context.Context) error) error {
			gotProfessional, gotAt = professionalID, at
			return fn(ctx)
		},
	}
	svc := NewService(repo, locker)
	ctx := context.Background()
	c, _ := svc.CreateClient(ctx, ClientInput{Name: "Ana"})
	p, _ := svc.CreateProfessional(ctx, ProfessionalInput{Name: "Dr. Lima"})

	local := time.Date(2024, 1, 10, 6, 0, 0, 500, time.FixedZone("BRT", -3*60*60))
	if _, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: local}); err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	if gotProfessional != p.ID || !gotAt.Equal(nineAM) || gotAt.Location() != time.UTC {
		t.Fatalf("lock = (%d, %v), want (%d, %v)", gotProfessional, gotAt, p.ID, nineAM)
	}
}

func TestCreateAppointment_SlotBusy(t *testing.T) {
	repo := newMemRepo()
	locker := &fakeLocker{
		withSlotLockFn: func(ctx context.Context, professionalID int64, at time.Time, fn func(ctx context.Context) error) error {
			return lock.ErrSlotBusy
		},
	}
	svc := NewService(repo, locker)

	_, err := svc.CreateAppointment(context.Background(), AppointmentInput{ClientID: 1, ProfessionalID: 1, ScheduledAt: nineAM})
	if !errors.Is(err, lock.ErrSlotBusy) {
		t.Fatalf("err = %v, want %v", err, lock.ErrSlotBusy)
	}
}

func TestUpdateAppointment_NoteOnlyNeverConflictsWithItself(t *testing.T) {
	svc, _, c, p := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: nineAM, Note: "a"})
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	got, err := svc.UpdateAppointment(ctx, a.ID, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: nineAM, Note: "b"})
	if err != nil {
		t.Fatalf("UpdateAppointment error: %v", err)
	}
	if got.Note != "b" || got.ID != a.ID {
		t.Fatalf("UpdateAppointment = %+v", got)
	}
}

func TestUpdateAppointment_CollisionLeavesOriginalUnmodified(t *testing.T) {
	svc, _, c, p := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: nineAM})
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	second, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: nineAM.Add(time.Hour), Note: "keep"})
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}

	_, err = svc.UpdateAppointment(ctx, second.ID, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: first.ScheduledAt, Note: "moved"})
	if !errors.Is(err, ErrSchedulingConflict) {
		t.Fatalf("err = %v, want %v", err, ErrSchedulingConflict)
	}

	got, err := svc.GetAppointment(ctx, second.ID)
	if err != nil {
		t.Fatalf("GetAppointment error: %v", err)
	}
	if !got.ScheduledAt.Equal(nineAM.Add(time.Hour)) || got.Note != "keep" {
		t.Fatalf("second appointment changed: %+v", got.Appointment)
	}
}

func TestUpdateAppointment_MoveToOtherProfessional(t *testing.T) {
	svc, repo, c, p := newTestService(t)
	ctx := context.Background()

	p2, err := svc.CreateProfessional(ctx, ProfessionalInput{Name: "Dra. Reis"})
	if err != nil {
		t.Fatalf("CreateProfessional error: %v", err)
	}
	a, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: nineAM})
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	got, err := svc.UpdateAppointment(ctx, a.ID, AppointmentInput{ClientID: c.ID, ProfessionalID: p2.ID, ScheduledAt: nineAM})
	if err != nil {
		t.Fatalf("UpdateAppointment error: %v", err)
	}
	if got.ProfessionalID != p2.ID {
		t.Fatalf("ProfessionalID = %d, want %d", got.ProfessionalID, p2.ID)
	}
	if last := repo.lockedProfessionals[len(repo.lockedProfessionals)-1]; last != p2.ID {
		t.Fatalf("update locked professional %d, want %d", last, p2.ID)
	}
}

func TestUpdateAppointment_Errors(t *testing.T) {
	svc, _, c, p := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: nineAM})
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}

	_, err = svc.UpdateAppointment(ctx, a.ID+100, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: nineAM})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id err = %v, want %v", err, ErrNotFound)
	}

	// An unknown appointment wins over a reference that could never resolve.
	_, err = svc.UpdateAppointment(ctx, a.ID+100, AppointmentInput{ClientID: 0, ProfessionalID: p.ID, ScheduledAt: nineAM})
	if !errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidReference) {
		t.Fatalf("unknown id with zero client err = %v, want %v", err, ErrNotFound)
	}

	_, err = svc.UpdateAppointment(ctx, a.ID, AppointmentInput{ClientID: 0, ProfessionalID: p.ID, ScheduledAt: nineAM})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("zero client err = %v, want %v", err, ErrInvalidReference)
	}

	_, err = svc.UpdateAppointment(ctx, a.ID, AppointmentInput{ClientID: c.ID + 100, ProfessionalID: p.ID, ScheduledAt: nineAM})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("unknown client err = %v, want %v", err, ErrInvalidReference)
	}

	_, err = svc.UpdateAppointment(ctx, a.ID, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID + 100, ScheduledAt: nineAM})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("unknown professional err = %v, want %v", err, ErrInvalidReference)
	}
}

func TestDeleteAppointment(t *testing.T) {
	svc, _, c, p := newTestService(t)
	ctx := context.Background()

	if err := svc.DeleteAppointment(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete unknown err = %v, want %v", err, ErrNotFound)
	}

	a, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: nineAM})
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	if err := svc.DeleteAppointment(ctx, a.ID); err != nil {
		t.Fatalf("DeleteAppointment error: %v", err)
	}
	if _, err := svc.GetAppointment(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete err = %v, want %v", err, ErrNotFound)
	}
}

func TestBookingScenario(t *testing.T) {
	svc, _, c1, p1 := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c1.ID, ProfessionalID: p1.ID, ScheduledAt: nineAM}); err != nil {
		t.Fatalf("first booking error: %v", err)
	}
	if _, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c1.ID, ProfessionalID: p1.ID, ScheduledAt: nineAM}); !errors.Is(err, ErrSchedulingConflict) {
		t.Fatalf("second booking err = %v, want %v", err, ErrSchedulingConflict)
	}
	if _, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c1.ID, ProfessionalID: p1.ID, ScheduledAt: nineAM.Add(30 * time.Minute)}); err != nil {
		t.Fatalf("09:30 booking error: %v", err)
	}

	list, err := svc.ListAppointments(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("ListAppointments error: %v", err)
	}
	if len(list) != 2 || list[0].ID >= list[1].ID {
		t.Fatalf("ListAppointments = %+v, want 2 ordered by id", list)
	}
	for _, d := range list {
		if d.Client == nil || d.Professional == nil {
			t.Fatalf("unresolved detail: %+v", d)
		}
	}
}

func TestListAppointments_Filter(t *testing.T) {
	svc, _, c, p := newTestService(t)
	ctx := context.Background()

	c2, _ := svc.CreateClient(ctx, ClientInput{Name: "Bruno"})
	if _, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: nineAM}); err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	if _, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c2.ID, ProfessionalID: p.ID, ScheduledAt: nineAM.Add(time.Hour)}); err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}

	list, err := svc.ListAppointments(ctx, ListFilter{ClientID: c2.ID})
	if err != nil {
		t.Fatalf("ListAppointments error: %v", err)
	}
	if len(list) != 1 || list[0].ClientID != c2.ID {
		t.Fatalf("ListAppointments(client=%d) = %+v", c2.ID, list)
	}

	if _, err := svc.ListAppointments(ctx, ListFilter{ClientID: -1}); err == nil {
		t.Fatalf("expected validation error for negative filter")
	}
}

func TestClientLifecycle(t *testing.T) {
	svc, _, c, p := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateClient(ctx, ClientInput{Name: "   "}); err == nil {
		t.Fatalf("expected validation error for blank name")
	}

	updated, err := svc.UpdateClient(ctx, c.ID, ClientInput{Name: "  Ana Souza ", Phone: "555-0100"})
	if err != nil {
		t.Fatalf("UpdateClient error: %v", err)
	}
	if updated.Name != "Ana Souza" || updated.Phone != "555-0100" || updated.ID != c.ID {
		t.Fatalf("UpdateClient = %+v", updated)
	}
	if _, err := svc.UpdateClient(ctx, c.ID+100, ClientInput{Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update unknown err = %v, want %v", err, ErrNotFound)
	}

	a, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: nineAM})
	if err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	if err := svc.DeleteClient(ctx, c.ID); !errors.Is(err, ErrInUse) {
		t.Fatalf("delete referenced client err = %v, want %v", err, ErrInUse)
	}
	if err := svc.DeleteAppointment(ctx, a.ID); err != nil {
		t.Fatalf("DeleteAppointment error: %v", err)
	}
	if err := svc.DeleteClient(ctx, c.ID); err != nil {
		t.Fatalf("DeleteClient error: %v", err)
	}
	if _, err := svc.GetClient(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get deleted client err = %v, want %v", err, ErrNotFound)
	}
	if err := svc.DeleteClient(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want %v", err, ErrNotFound)
	}
}

func TestProfessionalLifecycle(t *testing.T) {
	svc, _, c, p := newTestService(t)
	ctx := context.Background()

	list, err := svc.ListProfessionals(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListProfessionals = %+v, %v", list, err)
	}

	updated, err := svc.UpdateProfessional(ctx, p.ID, ProfessionalInput{Name: "Dr. Lima", Specialty: "Endodontics"})
	if err != nil {
		t.Fatalf("UpdateProfessional error: %v", err)
	}
	if updated.Specialty != "Endodontics" {
		t.Fatalf("Specialty = %q", updated.Specialty)
	}

	if _, err := svc.CreateAppointment(ctx, AppointmentInput{ClientID: c.ID, ProfessionalID: p.ID, ScheduledAt: nineAM}); err != nil {
		t.Fatalf("CreateAppointment error: %v", err)
	}
	if err := svc.DeleteProfessional(ctx, p.ID); !errors.Is(err, ErrInUse) {
		t.Fatalf("delete referenced professional err = %v, want %v", err, ErrInUse)
	}
	if _, err := svc.GetProfessional(ctx, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get id 0 err = %v, want %v", err, ErrNotFound)
	}
}
