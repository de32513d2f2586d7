package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/domain"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/lock"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/store"
)

const maxNoteLength = 2000

// Service owns clients, professionals and appointments. Appointment writes
// check that both references resolve and that the professional is free at
// the exact instant, all inside one professional-scoped transaction; the
// store's unique (professional, instant) index backs the check up.
type Service struct {
	repo   store.ClinicRepository
	locker lock.Locker
}

// NewService returns a Service. A nil locker disables the distributed slot
// lock.
func NewService(repo store.ClinicRepository, locker lock.Locker) *Service {
	if locker == nil {
		locker = lock.Noop{}
	}
	return &Service{repo: repo, locker: locker}
}

type AppointmentInput struct {
	ClientID       int64
	ProfessionalID int64
	ScheduledAt    time.Time
	Note           string
}

// ListFilter narrows ListAppointments; zero fields match everything.
type ListFilter struct {
	ClientID       int64
	ProfessionalID int64
}

func (s *Service) ListAppointments(ctx context.Context, filter ListFilter) ([]domain.AppointmentDetail, error) {
	if filter.ClientID < 0 || filter.ProfessionalID < 0 {
		return nil, validationError("filter ids must be positive")
	}

	var out []domain.AppointmentDetail
	err := s.repo.View(ctx, func(ctx context.Context, tx store.ClinicTx) error {
		rows, err := tx.FindAppointments(ctx, store.AppointmentFilter{
			ClientID:       filter.ClientID,
			ProfessionalID: filter.ProfessionalID,
		})
		if err != nil {
			return err
		}
		out, err = resolve(ctx, tx, rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}

func (s *Service) GetAppointment(ctx context.Context, id int64) (domain.AppointmentDetail, error) {
	if id <= 0 {
		return domain.AppointmentDetail{}, notFound("appointment", id)
	}

	var out domain.AppointmentDetail
	err := s.repo.View(ctx, func(ctx context.Context, tx store.ClinicTx) error {
		a, err := tx.GetAppointment(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return notFound("appointment", id)
		}
		if err != nil {
			return err
		}
		details, err := resolve(ctx, tx, []domain.Appointment{a})
		if err != nil {
			return err
		}
		out = details[0]
		return nil
	})
	return out, err
}

func (s *Service) CreateAppointment(ctx context.Context, in AppointmentInput) (domain.Appointment, error) {
	at, err := validateAppointment(in)
	if err != nil {
		return domain.Appointment{}, err
	}

	var created domain.Appointment
	err = s.locker.WithSlotLock(ctx, in.ProfessionalID, at, func(ctx context.Context) error {
		return s.repo.InProfessionalTransaction(ctx, in.ProfessionalID, func(ctx context.Context, tx store.ClinicTx) error {
			if err := checkReferences(ctx, tx, in.ClientID, in.ProfessionalID); err != nil {
				return err
			}
			if err := checkSlotFree(ctx, tx, in.ProfessionalID, at, 0); err != nil {
				return err
			}

			created, err = tx.InsertAppointment(ctx, domain.Appointment{
				ScheduledAt:    at,
				Note:           in.Note,
				ClientID:       in.ClientID,
				ProfessionalID: in.ProfessionalID,
			})
			return translateStoreError(err)
		})
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return created, nil
}

func (s *Service) UpdateAppointment(ctx context.Context, id int64, in AppointmentInput) (domain.Appointment, error) {
	if id <= 0 {
		return domain.Appointment{}, notFound("appointment", id)
	}
	at, err := validateAppointment(in)
	if err != nil {
		return domain.Appointment{}, err
	}

	var updated domain.Appointment
	err = s.locker.WithSlotLock(ctx, in.ProfessionalID, at, func(ctx context.Context) error {
		return s.repo.InProfessionalTransaction(ctx, in.ProfessionalID, func(ctx context.Context, tx store.ClinicTx) error {
			current, err := tx.GetAppointment(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				return notFound("appointment", id)
			}
			if err != nil {
				return err
			}
			if err := checkReferences(ctx, tx, in.ClientID, in.ProfessionalID); err != nil {
				return err
			}
			if err := checkSlotFree(ctx, tx, in.ProfessionalID, at, id); err != nil {
				return err
			}

			current.ClientID = in.ClientID
			current.ProfessionalID = in.ProfessionalID
			current.ScheduledAt = at
			current.Note = in.Note
			updated, err = tx.UpdateAppointment(ctx, current)
			if errors.Is(err, store.ErrNotFound) {
				return notFound("appointment", id)
			}
			return translateStoreError(err)
		})
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return updated, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id int64) error {
	if id <= 0 {
		return notFound("appointment", id)
	}
	return s.repo.InTransaction(ctx, func(ctx context.Context, tx store.ClinicTx) error {
		err := tx.DeleteAppointment(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return notFound("appointment", id)
		}
		return err
	})
}

func validateAppointment(in AppointmentInput) (time.Time, error) {
	if in.ScheduledAt.IsZero() {
		return time.Time{}, validationError("scheduled_at is required")
	}
	if utf8.RuneCountInString(in.Note) > maxNoteLength {
		return time.Time{}, validationError("note too long")
	}
	return domain.NormalizeScheduledAt(in.ScheduledAt), nil
}

// checkReferences runs after the appointment itself is resolved, so an
// unknown appointment reports NotFound before any reference error.
// Non-positive ids never resolve.
func checkReferences(ctx context.Context, tx store.ClinicTx, clientID, professionalID int64) error {
	if clientID <= 0 {
		return &ReferenceError{Entity: "client", ID: clientID}
	}
	if professionalID <= 0 {
		return &ReferenceError{Entity: "professional", ID: professionalID}
	}
	if _, err := tx.GetClient(ctx, clientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &ReferenceError{Entity: "client", ID: clientID}
		}
		return err
	}
	if _, err := tx.GetProfessional(ctx, professionalID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &ReferenceError{Entity: "professional", ID: professionalID}
		}
		return err
	}
	return nil
}

func checkSlotFree(ctx context.Context, tx store.ClinicTx, professionalID int64, at time.Time, excludeID int64) error {
	taken, err := tx.FindAppointments(ctx, store.AppointmentFilter{
		ProfessionalID: professionalID,
		ScheduledAt:    &at,
		ExcludeID:      excludeID,
		Limit:          1,
	})
	if err != nil {
		return err
	}
	if len(taken) > 0 {
		return ErrSchedulingConflict
	}
	return nil
}

// resolve joins appointments with their client and professional using one
// lookup per collection.
func resolve(ctx context.Context, tx store.ClinicTx, rows []domain.Appointment) ([]domain.AppointmentDetail, error) {
	out := make([]domain.AppointmentDetail, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	clientIDs := make([]int64, 0, len(rows))
	professionalIDs := make([]int64, 0, len(rows))
	seenClient := make(map[int64]struct{}, len(rows))
	seenProfessional := make(map[int64]struct{}, len(rows))
	for _, a := range rows {
		if _, ok := seenClient[a.ClientID]; !ok {
			seenClient[a.ClientID] = struct{}{}
			clientIDs = append(clientIDs, a.ClientID)
		}
		if _, ok := seenProfessional[a.ProfessionalID]; !ok {
			seenProfessional[a.ProfessionalID] = struct{}{}
			professionalIDs = append(professionalIDs, a.ProfessionalID)
		}
	}

	clients, err := tx.FindClients(ctx, clientIDs)
	if err != nil {
		return nil, err
	}
	professionals, err := tx.FindProfessionals(ctx, professionalIDs)
	if err != nil {
		return nil, err
	}

	clientByID := make(map[int64]*domain.Client, len(clients))
	for i := range clients {
		clientByID[clients[i].ID] = &clients[i]
	}
	professionalByID := make(map[int64]*domain.Professional, len(professionals))
	for i := range professionals {
		professionalByID[professionals[i].ID] = &professionals[i]
	}

	for _, a := range rows {
		out = append(out, domain.AppointmentDetail{
			Appointment:  a,
			Client:       clientByID[a.ClientID],
			Professional: professionalByID[a.ProfessionalID],
		})
	}
	return out, nil
}
