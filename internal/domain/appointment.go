package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID             int64     `bun:"id,pk,autoincrement"`
	ScheduledAt    time.Time `bun:"scheduled_at,notnull"`
	Note           string    `bun:"note"`
	ClientID       int64     `bun:"client_id,notnull"`
	ProfessionalID int64     `bun:"professional_id,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,notnull"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

// AppointmentDetail is an appointment joined with the client and professional
// it references. Client or Professional is nil only when the referenced row
// vanished between reads.
type AppointmentDetail struct {
	Appointment
	Client       *Client
	Professional *Professional
}

// NormalizeScheduledAt brings a scheduling instant to the representation
// stored and compared by every store: UTC with microsecond precision.
func NormalizeScheduledAt(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
