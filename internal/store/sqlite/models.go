package sqlite

import (
	"time"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/domain"
)

type clientRow struct {
	ID         int64  `gorm:"primaryKey"`
	Name       string `gorm:"not null"`
	Email      string `gorm:"not null;default:''"`
	Phone      string `gorm:"not null;default:''"`
	NationalID string `gorm:"not null;default:''"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (clientRow) TableName() string { return "clients" }

type professionalRow struct {
	ID             int64  `gorm:"primaryKey"`
	Name           string `gorm:"not null"`
	Specialty      string `gorm:"not null;default:''"`
	RegistrationID string `gorm:"not null;default:''"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (professionalRow) TableName() string { return "professionals" }

type appointmentRow struct {
	ID             int64     `gorm:"primaryKey"`
	ScheduledAt    time.Time `gorm:"not null;uniqueIndex:appointments_professional_slot_key,priority:2"`
	Note           string    `gorm:"not null;default:''"`
	ClientID       int64     `gorm:"not null;index"`
	ProfessionalID int64     `gorm:"not null;uniqueIndex:appointments_professional_slot_key,priority:1"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Client       clientRow       `gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT"`
	Professional professionalRow `gorm:"foreignKey:ProfessionalID;constraint:OnDelete:RESTRICT"`
}

func (appointmentRow) TableName() string { return "appointments" }

func (r clientRow) toDomain() domain.Client {
	return domain.Client{
		ID:         r.ID,
		Name:       r.Name,
		Email:      r.Email,
		Phone:      r.Phone,
		NationalID: r.NationalID,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

func (r professionalRow) toDomain() domain.Professional {
	return domain.Professional{
		ID:             r.ID,
		Name:           r.Name,
		Specialty:      r.Specialty,
		RegistrationID: r.RegistrationID,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

func (r appointmentRow) toDomain() domain.Appointment {
	return domain.Appointment{
		ID:             r.ID,
		ScheduledAt:    r.ScheduledAt.UTC(),
		Note:           r.Note,
		ClientID:       r.ClientID,
		ProfessionalID: r.ProfessionalID,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}
