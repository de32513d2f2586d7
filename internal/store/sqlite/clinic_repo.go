package sqlite

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/domain"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/store"
)

type ClinicRepo struct {
	db *gorm.DB
}

func NewClinicRepo(db *gorm.DB) *ClinicRepo {
	return &ClinicRepo{db: db}
}

type clinicTx struct {
	db *gorm.DB
}

func (r *ClinicRepo) View(ctx context.Context, fn func(ctx context.Context, tx store.ClinicTx) error) error {
	return fn(ctx, clinicTx{db: r.db})
}

func (r *ClinicRepo) InTransaction(ctx context.Context, fn func(ctx context.Context, tx store.ClinicTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, clinicTx{db: tx})
	})
}

// InProfessionalTransaction is a plain transaction: SQLite already admits a
// single writer at a time.
func (r *ClinicRepo) InProfessionalTransaction(ctx context.Context, professionalID int64, fn func(ctx context.Context, tx store.ClinicTx) error) error {
	return r.InTransaction(ctx, fn)
}

func (r *ClinicRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r clinicTx) GetClient(ctx context.Context, id int64) (domain.Client, error) {
	var row clientRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return domain.Client{}, notFound(err)
	}
	return row.toDomain(), nil
}

func (r clinicTx) ListClients(ctx context.Context) ([]domain.Client, error) {
	var rows []clientRow
	if err := r.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Client, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r clinicTx) FindClients(ctx context.Context, ids []int64) ([]domain.Client, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []clientRow
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Client, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r clinicTx) InsertClient(ctx context.Context, c domain.Client) (domain.Client, error) {
	row := clientRow{
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		NationalID: c.NationalID,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Client{}, err
	}
	return row.toDomain(), nil
}

func (r clinicTx) UpdateClient(ctx context.Context, c domain.Client) (domain.Client, error) {
	res := r.db.WithContext(ctx).
		Model(&clientRow{ID: c.ID}).
		Select("name", "email", "phone", "national_id", "updated_at").
		Updates(clientRow{
			Name:       c.Name,
			Email:      c.Email,
			Phone:      c.Phone,
			NationalID: c.NationalID,
			UpdatedAt:  time.Now().UTC(),
		})
	if err := affected(res); err != nil {
		return domain.Client{}, err
	}
	return r.GetClient(ctx, c.ID)
}

func (r clinicTx) DeleteClient(ctx context.Context, id int64) error {
	return deleted(r.db.WithContext(ctx).Delete(&clientRow{}, id))
}

func (r clinicTx) GetProfessional(ctx context.Context, id int64) (domain.Professional, error) {
	var row professionalRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return domain.Professional{}, notFound(err)
	}
	return row.toDomain(), nil
}

func (r clinicTx) ListProfessionals(ctx context.Context) ([]domain.Professional, error) {
	var rows []professionalRow
	if err := r.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Professional, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r clinicTx) FindProfessionals(ctx context.Context, ids []int64) ([]domain.Professional, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []professionalRow
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Professional, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r clinicTx) InsertProfessional(ctx context.Context, p domain.Professional) (domain.Professional, error) {
	row := professionalRow{
		Name:           p.Name,
		Specialty:      p.Specialty,
		RegistrationID: p.RegistrationID,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Professional{}, err
	}
	return row.toDomain(), nil
}

func (r clinicTx) UpdateProfessional(ctx context.Context, p domain.Professional) (domain.Professional, error) {
	res := r.db.WithContext(ctx).
		Model(&professionalRow{ID: p.ID}).
		Select("name", "specialty", "registration_id", "updated_at").
		Updates(professionalRow{
			Name:           p.Name,
			Specialty:      p.Specialty,
			RegistrationID: p.RegistrationID,
			UpdatedAt:      time.Now().UTC(),
		})
	if err := affected(res); err != nil {
		return domain.Professional{}, err
	}
	return r.GetProfessional(ctx, p.ID)
}

func (r clinicTx) DeleteProfessional(ctx context.Context, id int64) error {
	return deleted(r.db.WithContext(ctx).Delete(&professionalRow{}, id))
}

func (r clinicTx) GetAppointment(ctx context.Context, id int64) (domain.Appointment, error) {
	var row appointmentRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return domain.Appointment{}, notFound(err)
	}
	return row.toDomain(), nil
}

func (r clinicTx) FindAppointments(ctx context.Context, filter store.AppointmentFilter) ([]domain.Appointment, error) {
	q := r.db.WithContext(ctx).Model(&appointmentRow{})
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
	q = q.Order("id asc")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var rows []appointmentRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Appointment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r clinicTx) InsertAppointment(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
	row := appointmentRow{
		ScheduledAt:    domain.NormalizeScheduledAt(a.ScheduledAt),
		Note:           a.Note,
		ClientID:       a.ClientID,
		ProfessionalID: a.ProfessionalID,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return domain.Appointment{}, translateWriteError(err)
	}
	return row.toDomain(), nil
}

func (r clinicTx) UpdateAppointment(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
	res := r.db.WithContext(ctx).
		Model(&appointmentRow{ID: a.ID}).
		Omit(clause.Associations).
		Select("scheduled_at", "note", "client_id", "professional_id", "updated_at").
		Updates(appointmentRow{
			ScheduledAt:    domain.NormalizeScheduledAt(a.ScheduledAt),
			Note:           a.Note,
			ClientID:       a.ClientID,
			ProfessionalID: a.ProfessionalID,
			UpdatedAt:      time.Now().UTC(),
		})
	if res.Error != nil {
		return domain.Appointment{}, translateWriteError(res.Error)
	}
	if err := affected(res); err != nil {
		return domain.Appointment{}, err
	}
	return r.GetAppointment(ctx, a.ID)
}

func (r clinicTx) DeleteAppointment(ctx context.Context, id int64) error {
	return deleted(r.db.WithContext(ctx).Delete(&appointmentRow{}, id))
}

// translateWriteError relies on gorm's TranslateError: the slot index is the
// only unique index on appointments besides the primary key.
func translateWriteError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return store.ErrConflict
	case isForeignKeyViolation(err):
		return store.ErrBrokenReference
	}
	return err
}

func isForeignKeyViolation(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated) || strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func deleted(res *gorm.DB) error {
	if res.Error != nil {
		if isForeignKeyViolation(res.Error) {
			return store.ErrInUse
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
