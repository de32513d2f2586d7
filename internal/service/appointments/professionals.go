package appointments

import (
	"context"
	"errors"
	"strings"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/domain"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/store"
)

type ProfessionalInput struct {
	Name           string
	Specialty      string
	RegistrationID string
}

func (in ProfessionalInput) normalize() (domain.Professional, error) {
	p := domain.Professional{
		Name:           strings.TrimSpace(in.Name),
		Specialty:      strings.TrimSpace(in.Specialty),
		RegistrationID: strings.TrimSpace(in.RegistrationID),
	}
	if p.Name == "" {
		return domain.Professional{}, validationError("name is required")
	}
	return p, nil
}

func (s *Service) ListProfessionals(ctx context.Context) ([]domain.Professional, error) {
	var out []domain.Professional
	err := s.repo.View(ctx, func(ctx context.Context, tx store.ClinicTx) error {
		var err error
		out, err = tx.ListProfessionals(ctx)
		return err
	})
	return out, err
}

func (s *Service) GetProfessional(ctx context.Context, id int64) (domain.Professional, error) {
	if id <= 0 {
		return domain.Professional{}, notFound("professional", id)
	}
	var out domain.Professional
	err := s.repo.View(ctx, func(ctx context.Context, tx store.ClinicTx) error {
		p, err := tx.GetProfessional(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return notFound("professional", id)
		}
		out = p
		return err
	})
	return out, err
}

func (s *Service) CreateProfessional(ctx context.Context, in ProfessionalInput) (domain.Professional, error) {
	p, err := in.normalize()
	if err != nil {
		return domain.Professional{}, err
	}
	var out domain.Professional
	err = s.repo.InTransaction(ctx, func(ctx context.Context, tx store.ClinicTx) error {
		var err error
		out, err = tx.InsertProfessional(ctx, p)
		return err
	})
	return out, err
}

func (s *Service) UpdateProfessional(ctx context.Context, id int64, in ProfessionalInput) (domain.Professional, error) {
	if id <= 0 {
		return domain.Professional{}, notFound("professional", id)
	}
	p, err := in.normalize()
	if err != nil {
		return domain.Professional{}, err
	}
	p.ID = id

	var out domain.Professional
	err = s.repo.InTransaction(ctx, func(ctx context.Context, tx store.ClinicTx) error {
		current, err := tx.GetProfessional(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return notFound("professional", id)
		}
		if err != nil {
			return err
		}
		p.CreatedAt = current.CreatedAt
		out, err = tx.UpdateProfessional(ctx, p)
		if errors.Is(err, store.ErrNotFound) {
			return notFound("professional", id)
		}
		return err
	})
	return out, err
}

// DeleteProfessional refuses while any appointment references the
// professional.
func (s *Service) DeleteProfessional(ctx context.Context, id int64) error {
	if id <= 0 {
		return notFound("professional", id)
	}
	return s.repo.InTransaction(ctx, func(ctx context.Context, tx store.ClinicTx) error {
		refs, err := tx.FindAppointments(ctx, store.AppointmentFilter{ProfessionalID: id, Limit: 1})
		if err != nil {
			return err
		}
		if len(refs) > 0 {
			return ErrInUse
		}
		err = tx.DeleteProfessional(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return notFound("professional", id)
		}
		return err
	})
}
