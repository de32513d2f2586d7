package grpc

import (
	"time"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/domain"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/service/appointments"
)

type Empty struct{}

type IDRequest struct {
	ID int64 `json:"id"`
}

type Client struct {
	ID         int64     `json:"id,omitempty"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	NationalID string    `json:"national_id,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`
}

type ClientList struct {
	Clients []Client `json:"clients"`
}

type Professional struct {
	ID             int64     `json:"id,omitempty"`
	Name           string    `json:"name"`
	Specialty      string    `json:"specialty,omitempty"`
	RegistrationID string    `json:"registration_id,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
	UpdatedAt      time.Time `json:"updated_at,omitzero"`
}

type ProfessionalList struct {
	Professionals []Professional `json:"professionals"`
}

// Appointment carries Client and Professional only on reads.
type Appointment struct {
	ID             int64         `json:"id,omitempty"`
	ScheduledAt    time.Time     `json:"scheduled_at"`
	Note           string        `json:"note,omitempty"`
	ClientID       int64         `json:"client_id"`
	ProfessionalID int64         `json:"professional_id"`
	Client         *Client       `json:"client,omitempty"`
	Professional   *Professional `json:"professional,omitempty"`
	CreatedAt      time.Time     `json:"created_at,omitzero"`
	UpdatedAt      time.Time     `json:"updated_at,omitzero"`
}

type AppointmentList struct {
	Appointments []Appointment `json:"appointments"`
}

type ListAppointmentsRequest struct {
	ClientID       int64 `json:"client_id,omitempty"`
	ProfessionalID int64 `json:"professional_id,omitempty"`
}

func (c *Client) input() appointments.ClientInput {
	return appointments.ClientInput{Name: c.Name, Email: c.Email, Phone: c.Phone, NationalID: c.NationalID}
}

func (p *Professional) input() appointments.ProfessionalInput {
	return appointments.ProfessionalInput{Name: p.Name, Specialty: p.Specialty, RegistrationID: p.RegistrationID}
}

func (a *Appointment) input() appointments.AppointmentInput {
	return appointments.AppointmentInput{
		ClientID:       a.ClientID,
		ProfessionalID: a.ProfessionalID,
		ScheduledAt:    a.ScheduledAt,
		Note:           a.Note,
	}
}

func toClient(c domain.Client) *Client {
	return &Client{
		ID:         c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		NationalID: c.NationalID,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func toProfessional(p domain.Professional) *Professional {
	return &Professional{
		ID:             p.ID,
		Name:           p.Name,
		Specialty:      p.Specialty,
		RegistrationID: p.RegistrationID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toAppointment(a domain.Appointment) *Appointment {
	return &Appointment{
		ID:             a.ID,
		ScheduledAt:    a.ScheduledAt.UTC(),
		Note:           a.Note,
		ClientID:       a.ClientID,
		ProfessionalID: a.ProfessionalID,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func toAppointmentDetail(d domain.AppointmentDetail) *Appointment {
	out := toAppointment(d.Appointment)
	if d.Client != nil {
		out.Client = toClient(*d.Client)
	}
	if d.Professional != nil {
		out.Professional = toProfessional(*d.Professional)
	}
	return out
}
