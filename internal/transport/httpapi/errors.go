package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/lock"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/service/appointments"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeServiceError maps service outcomes onto statuses. Expected outcomes are
// logged at Info, anything else at Error with a generic body.
func (h *handler) writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	var vErr *appointments.ValidationError
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, "invalid_request", vErr.Error())
	case errors.Is(err, appointments.ErrNotFound):
		log.Info("not found", slog.Any("err", err))
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, appointments.ErrInvalidReference):
		log.Info("invalid reference", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, "invalid_reference", err.Error())
	case errors.Is(err, appointments.ErrSchedulingConflict):
		log.Info("scheduling conflict", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, "scheduling_conflict", err.Error())
	case errors.Is(err, appointments.ErrInUse):
		log.Info("delete refused", slog.Any("err", err))
		writeError(w, http.StatusConflict, "in_use", err.Error())
	case errors.Is(err, lock.ErrSlotBusy):
		log.Info("slot busy", slog.Any("err", err))
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	default:
		log.Error("request failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

const maxBodyBytes = 1 << 20

// decode reads a JSON body into dst and runs struct validation on it.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("could not parse JSON: %w", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return errors.New(describeFieldErrors(fieldErrs))
		}
		return err
	}
	return nil
}

func describeFieldErrors(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "email":
			parts = append(parts, fe.Field()+" must be a valid email")
		case "max":
			parts = append(parts, fe.Field()+" is too long")
		default:
			parts = append(parts, fe.Field()+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
