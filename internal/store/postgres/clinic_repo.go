package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/domain"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/store"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	appointmentSlotConstraint = "appointments_professional_slot_key"
)

type ClinicRepo struct {
	db *bun.DB
}

func NewClinicRepo(db *bun.DB) *ClinicRepo {
	return &ClinicRepo{db: db}
}

type clinicTx struct {
	db bun.IDB
}

func (r *ClinicRepo) View(ctx context.Context, fn func(ctx context.Context, tx store.ClinicTx) error) error {
	return fn(ctx, clinicTx{db: r.db})
}

func (r *ClinicRepo) InTransaction(ctx context.Context, fn func(ctx context.Context, tx store.ClinicTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, clinicTx{db: tx})
	})
}

func (r *ClinicRepo) InProfessionalTransaction(ctx context.Context, professionalID int64, fn func(ctx context.Context, tx store.ClinicTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockProfessionalCalendar(ctx, tx, professionalID); err != nil {
			return err
		}
		return fn(ctx, clinicTx{db: tx})
	})
}

func (r *ClinicRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func lockProfessionalCalendar(ctx context.Context, tx bun.Tx, professionalID int64) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", "professional:"+strconv.FormatInt(professionalID, 10)).Exec(ctx)
	return err
}

func (r clinicTx) GetClient(ctx context.Context, id int64) (domain.Client, error) {
	var c domain.Client
	err := r.db.NewSelect().Model(&c).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return domain.Client{}, notFound(err)
	}
	return c, nil
}

func (r clinicTx) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows := []domain.Client{}
	err := r.db.NewSelect().Model(&rows).OrderExpr("id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r clinicTx) FindClients(ctx context.Context, ids []int64) ([]domain.Client, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []domain.Client
	err := r.db.NewSelect().Model(&rows).Where("id IN (?)", bun.In(ids)).OrderExpr("id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r clinicTx) InsertClient(ctx context.Context, c domain.Client) (domain.Client, error) {
	m := domain.Client{
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		NationalID: c.NationalID,
	}
	if _, err := r.db.NewInsert().Model(&m).Returning("*").Exec(ctx); err != nil {
		return domain.Client{}, err
	}
	return m, nil
}

func (r clinicTx) UpdateClient(ctx context.Context, c domain.Client) (domain.Client, error) {
	m := c
	res, err := r.db.NewUpdate().
		Model(&m).
		Column("name", "email", "phone", "national_id", "updated_at").
		WherePK().
		Returning("*").
		Exec(ctx)
	if err := updated(res, err); err != nil {
		return domain.Client{}, err
	}
	return m, nil
}

func (r clinicTx) DeleteClient(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().
		Model((*domain.Client)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return deleted(res, err)
}

func (r clinicTx) GetProfessional(ctx context.Context, id int64) (domain.Professional, error) {
	var p domain.Professional
	err := r.db.NewSelect().Model(&p).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return domain.Professional{}, notFound(err)
	}
	return p, nil
}

func (r clinicTx) ListProfessionals(ctx context.Context) ([]domain.Professional, error) {
	rows := []domain.Professional{}
	err := r.db.NewSelect().Model(&rows).OrderExpr("id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r clinicTx) FindProfessionals(ctx context.Context, ids []int64) ([]domain.Professional, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []domain.Professional
	err := r.db.NewSelect().Model(&rows).Where("id IN (?)", bun.In(ids)).OrderExpr("id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r clinicTx) InsertProfessional(ctx context.Context, p domain.Professional) (domain.Professional, error) {
	m := domain.Professional{
		Name:           p.Name,
		Specialty:      p.Specialty,
		RegistrationID: p.RegistrationID,
	}
	if _, err := r.db.NewInsert().Model(&m).Returning("*").Exec(ctx); err != nil {
		return domain.Professional{}, err
	}
	return m, nil
}

func (r clinicTx) UpdateProfessional(ctx context.Context, p domain.Professional) (domain.Professional, error) {
	m := p
	res, err := r.db.NewUpdate().
		Model(&m).
		Column("name", "specialty", "registration_id", "updated_at").
		WherePK().
		Returning("*").
		Exec(ctx)
	if err := updated(res, err); err != nil {
		return domain.Professional{}, err
	}
	return m, nil
}

func (r clinicTx) DeleteProfessional(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().
		Model((*domain.Professional)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return deleted(res, err)
}

func (r clinicTx) GetAppointment(ctx context.Context, id int64) (domain.Appointment, error) {
	var a domain.Appointment
	err := r.db.NewSelect().Model(&a).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return domain.Appointment{}, notFound(err)
	}
	return a, nil
}

func (r clinicTx) FindAppointments(ctx context.Context, filter store.AppointmentFilter) ([]domain.Appointment, error) {
	rows := []domain.Appointment{}
	q := r.db.NewSelect().Model(&rows)
	if filter.ClientID != 0 {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.ProfessionalID != 0 {
		q = q.Where("professional_id = ?", filter.ProfessionalID)
	}
	if filter.ScheduledAt != nil {
		q = q.Where("scheduled_at = ?", domain.NormalizeScheduledAt(*filter.ScheduledAt))
	}
	if filter.ExcludeID != 0 {
		q = q.Where("id <> ?", filter.ExcludeID)
	}
	q = q.OrderExpr("id ASC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r clinicTx) InsertAppointment(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
	m := domain.Appointment{
		ScheduledAt:    domain.NormalizeScheduledAt(a.ScheduledAt),
		Note:           a.Note,
		ClientID:       a.ClientID,
		ProfessionalID: a.ProfessionalID,
	}
	if _, err := r.db.NewInsert().Model(&m).Returning("*").Exec(ctx); err != nil {
		return domain.Appointment{}, translateWriteError(err)
	}
	return m, nil
}

func (r clinicTx) UpdateAppointment(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
	m := a
	m.ScheduledAt = domain.NormalizeScheduledAt(a.ScheduledAt)
	res, err := r.db.NewUpdate().
		Model(&m).
		Column("scheduled_at", "note", "client_id", "professional_id", "updated_at").
		WherePK().
		Returning("*").
		Exec(ctx)
	if err := updated(res, translateWriteError(err)); err != nil {
		return domain.Appointment{}, err
	}
	return m, nil
}

func (r clinicTx) DeleteAppointment(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().
		Model((*domain.Appointment)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return deleted(res, err)
}

// translateWriteError maps constraint violations raised by appointment
// writes onto store sentinels.
func translateWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		if pgErr.ConstraintName == appointmentSlotConstraint {
			return store.ErrConflict
		}
	case pgForeignKeyViolation:
		return store.ErrBrokenReference
	}
	return err
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func updated(res sql.Result, err error) error {
	if err != nil {
		return notFound(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func deleted(res sql.Result, err error) error {
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return store.ErrInUse
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
