package store

import (
	"context"
	"time"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/domain"
)

// AppointmentFilter narrows FindAppointments. Zero-valued fields match
// everything; results are ordered by id.
type AppointmentFilter struct {
	ClientID       int64
	ProfessionalID int64
	ScheduledAt    *time.Time
	ExcludeID      int64
	Limit          int
}

// ClinicTx is the set of record operations available inside a view or a
// transaction. Get*, Update* and Delete* return ErrNotFound for unknown ids.
type ClinicTx interface {
	GetClient(ctx context.Context, id int64) (domain.Client, error)
	ListClients(ctx context.Context) ([]domain.Client, error)
	FindClients(ctx context.Context, ids []int64) ([]domain.Client, error)
	InsertClient(ctx context.Context, c domain.Client) (domain.Client, error)
	UpdateClient(ctx context.Context, c domain.Client) (domain.Client, error)
	DeleteClient(ctx context.Context, id int64) error

	GetProfessional(ctx context.Context, id int64) (domain.Professional, error)
	ListProfessionals(ctx context.Context) ([]domain.Professional, error)
	FindProfessionals(ctx context.Context, ids []int64) ([]domain.Professional, error)
	InsertProfessional(ctx context.Context, p domain.Professional) (domain.Professional, error)
	UpdateProfessional(ctx context.Context, p domain.Professional) (domain.Professional, error)
	DeleteProfessional(ctx context.Context, id int64) error

	GetAppointment(ctx context.Context, id int64) (domain.Appointment, error)
	FindAppointments(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error)
	InsertAppointment(ctx context.Context, a domain.Appointment) (domain.Appointment, error)
	UpdateAppointment(ctx context.Context, a domain.Appointment) (domain.Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) error
}

// ClinicRepository hands out ClinicTx values. View runs fn without a
// transaction; InTransaction commits when fn returns nil and rolls back
// otherwise. InProfessionalTransaction additionally serializes writers that
// target the same professional for the lifetime of the transaction.
type ClinicRepository interface {
	View(ctx context.Context, fn func(ctx context.Context, tx ClinicTx) error) error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx ClinicTx) error) error
	InProfessionalTransaction(ctx context.Context, professionalID int64, fn func(ctx context.Context, tx ClinicTx) error) error
	Ping(ctx context.Context) error
}
