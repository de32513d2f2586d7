package appointments

import (
	"context"
	"errors"
	"strings"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/domain"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/store"
)

type ClientInput struct {
	Name       string
	Email      string
	Phone      string
	NationalID string
}

func (in ClientInput) normalize() (domain.Client, error) {
	c := domain.Client{
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		NationalID: strings.TrimSpace(in.NationalID),
	}
	if c.Name == "" {
		return domain.Client{}, validationError("name is required")
	}
	return c, nil
}

func (s *Service) ListClients(ctx context.Context) ([]domain.Client, error) {
	var out []domain.Client
	err := s.repo.View(ctx, func(ctx context.Context, tx store.ClinicTx) error {
		var err error
		out, err = tx.ListClients(ctx)
		return err
	})
	return out, err
}

func (s *Service) GetClient(ctx context.Context, id int64) (domain.Client, error) {
	if id <= 0 {
		return domain.Client{}, notFound("client", id)
	}
	var out domain.Client
	err := s.repo.View(ctx, func(ctx context.Context, tx store.ClinicTx) error {
		c, err := tx.GetClient(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return notFound("client", id)
		}
		out = c
		return err
	})
	return out, err
}

func (s *Service) CreateClient(ctx context.Context, in ClientInput) (domain.Client, error) {
	c, err := in.normalize()
	if err != nil {
		return domain.Client{}, err
	}
	var out domain.Client
	err = s.repo.InTransaction(ctx, func(ctx context.Context, tx store.ClinicTx) error {
		var err error
		out, err = tx.InsertClient(ctx, c)
		return err
	})
	return out, err
}

func (s *Service) UpdateClient(ctx context.Context, id int64, in ClientInput) (domain.Client, error) {
	if id <= 0 {
		return domain.Client{}, notFound("client", id)
	}
	c, err := in.normalize()
	if err != nil {
		return domain.Client{}, err
	}
	c.ID = id

	var out domain.Client
	err = s.repo.InTransaction(ctx, func(ctx context.Context, tx store.ClinicTx) error {
		current, err := tx.GetClient(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return notFound("client", id)
		}
		if err != nil {
			return err
		}
		c.CreatedAt = current.CreatedAt
		out, err = tx.UpdateClient(ctx, c)
		if errors.Is(err, store.ErrNotFound) {
			return notFound("client", id)
		}
		return err
	})
	return out, err
}

// DeleteClient refuses while any appointment references the client.
func (s *Service) DeleteClient(ctx context.Context, id int64) error {
	if id <= 0 {
		return notFound("client", id)
	}
	return s.repo.InTransaction(ctx, func(ctx context.Context, tx store.ClinicTx) error {
		refs, err := tx.FindAppointments(ctx, store.AppointmentFilter{ClientID: id, Limit: 1})
		if err != nil {
			return err
		}
		if len(refs) > 0 {
			return ErrInUse
		}
		err = tx.DeleteClient(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return notFound("client", id)
		}
		return err
	})
}
