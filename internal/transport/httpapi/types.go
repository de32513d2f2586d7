package httpapi

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/domain"
)

type clientRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"omitempty,email,max=254"`
	Phone      string `json:"phone" validate:"omitempty,max=40"`
	NationalID string `json:"national_id" validate:"omitempty,max=40"`
}

type professionalRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	Specialty      string `json:"specialty" validate:"omitempty,max=120"`
	RegistrationID string `json:"registration_id" validate:"omitempty,max=40"`
}

type appointmentRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at" validate:"required"`
	Note        string     `json:"note" validate:"max=2000"`
	// Missing ids are left to the service, which reports them like unknown ones.
	ClientID       int64 `json:"client_id"`
	ProfessionalID int64 `json:"professional_id"`
}

type clientResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	NationalID string    `json:"national_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type professionalResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Specialty      string    `json:"specialty"`
	RegistrationID string    `json:"registration_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type appointmentResponse struct {
	ID             int64                 `json:"id"`
	ScheduledAt    time.Time             `json:"scheduled_at"`
	Note           string                `json:"note"`
	ClientID       int64                 `json:"client_id"`
	ProfessionalID int64                 `json:"professional_id"`
	Client         *clientResponse       `json:"client,omitempty"`
	Professional   *professionalResponse `json:"professional,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toClientResponse(c domain.Client) clientResponse {
	return clientResponse{
		ID:         c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		NationalID: c.NationalID,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func toProfessionalResponse(p domain.Professional) professionalResponse {
	return professionalResponse{
		ID:             p.ID,
		Name:           p.Name,
		Specialty:      p.Specialty,
		RegistrationID: p.RegistrationID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toAppointmentResponse(a domain.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:             a.ID,
		ScheduledAt:    a.ScheduledAt,
		Note:           a.Note,
		ClientID:       a.ClientID,
		ProfessionalID: a.ProfessionalID,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func toAppointmentDetailResponse(d domain.AppointmentDetail) appointmentResponse {
	resp := toAppointmentResponse(d.Appointment)
	if d.Client != nil {
		c := toClientResponse(*d.Client)
		resp.Client = &c
	}
	if d.Professional != nil {
		p := toProfessionalResponse(*d.Professional)
		resp.Professional = &p
	}
	return resp
}

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
