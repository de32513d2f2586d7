package appointments

import (
	"errors"
	"fmt"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/store"
)

var (
	ErrNotFound           = store.ErrNotFound
	ErrInUse              = store.ErrInUse
	ErrInvalidReference   = errors.New("invalid client or professional reference")
	ErrSchedulingConflict = errors.New("professional already has an appointment at this date-time")
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// ReferenceError names the client or professional an appointment write
// pointed at but that does not exist.
type ReferenceError struct {
	Entity string
	ID     int64
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %d does not exist", e.Entity, e.ID)
}

func (e *ReferenceError) Is(target error) bool {
	return target == ErrInvalidReference
}

func notFound(entity string, id int64) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
}

// translateStoreError turns guard violations raised by the database into the
// errors callers see from the in-transaction checks.
func translateStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrConflict):
		return ErrSchedulingConflict
	case errors.Is(err, store.ErrBrokenReference):
		return ErrInvalidReference
	}
	return err
}
