package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/service/appointments"
)

func (h *handler) opLog(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", RequestIDFromContext(r.Context())),
	)
}

// pathID parses the {id} route parameter. The route pattern already
// restricts it to digits, so a failure here is an overflow.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "unknown id")
		return 0, false
	}
	return id, true
}

func queryID(r *http.Request, key string) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (h *handler) listClients(w http.ResponseWriter, r *http.Request) {
	log := h.opLog(r, "ListClients")
	clients, err := h.svc.ListClients(r.Context())
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	out := make([]clientResponse, 0, len(clients))
	for _, c := range clients {
		out = append(out, toClientResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) getClient(w http.ResponseWriter, r *http.Request) {
	log := h.opLog(r, "GetClient")
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.svc.GetClient(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(c))
}

func (h *handler) createClient(w http.ResponseWriter, r *http.Request) {
	log := h.opLog(r, "CreateClient")
	var req clientRequest
	if err := h.decode(w, r, &req); err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	c, err := h.svc.CreateClient(r.Context(), appointments.ClientInput(req))
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	log.Info("client created", slog.Int64("client_id", c.ID))
	w.Header().Set("Location", "/clients/"+strconv.FormatInt(c.ID, 10))
	writeJSON(w, http.StatusCreated, toClientResponse(c))
}

func (h *handler) updateClient(w http.ResponseWriter, r *http.Request) {
	log := h.opLog(r, "UpdateClient")
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req clientRequest
	if err := h.decode(w, r, &req); err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	c, err := h.svc.UpdateClient(r.Context(), id, appointments.ClientInput(req))
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(c))
}

func (h *handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	log := h.opLog(r, "DeleteClient")
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteClient(r.Context(), id); err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	log.Info("client deleted", slog.Int64("client_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listProfessionals(w http.ResponseWriter, r *http.Request) {
	log := h.opLog(r, "ListProfessionals")
	professionals, err := h.svc.ListProfessionals(r.Context())
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	out := make([]professionalResponse, 0, len(professionals))
	for _, p := range professionals {
		out = append(out, toProfessionalResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) getProfessional(w http.ResponseWriter, r *http.Request) {
	log := h.opLog(r, "GetProfessional")
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetProfessional(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfessionalResponse(p))
}

func (h *handler) createProfessional(w http.ResponseWriter, r *http.Request) {
	log := h.opLog(r, "CreateProfessional")
	var req professionalRequest
	if err := h.decode(w, r, &req); err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	p, err := h.svc.CreateProfessional(r.Context(), appointments.ProfessionalInput(req))
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	log.Info("professional created", slog.Int64("professional_id", p.ID))
	w.Header().Set("Location", "/professionals/"+strconv.FormatInt(p.ID, 10))
	writeJSON(w, http.StatusCreated, toProfessionalResponse(p))
}

func (h *handler) updateProfessional(w http.ResponseWriter, r *http.Request) {
	log := h.opLog(r, "UpdateProfessional")
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req professionalRequest
	if err := h.decode(w, r, &req); err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	p, err := h.svc.UpdateProfessional(r.Context(), id, appointments.ProfessionalInput(req))
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfessionalResponse(p))
}

func (h *handler) deleteProfessional(w http.ResponseWriter, r *http.Request) {
	log := h.opLog(r, "DeleteProfessional")
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteProfessional(r.Context(), id); err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	log.Info("professional deleted", slog.Int64("professional_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listAppointments(w http.ResponseWriter, r *http.Request) {
	log := h.opLog(r, "ListAppointments")
	clientID, err := queryID(r, "client_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "client_id must be an integer")
		return
	}
	professionalID, err := queryID(r, "professional_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "professional_id must be an integer")
		return
	}

	details, err := h.svc.ListAppointments(r.Context(), appointments.ListFilter{
		ClientID:       clientID,
		ProfessionalID: professionalID,
	})
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	out := make([]appointmentResponse, 0, len(details))
	for _, d := range details {
		out = append(out, toAppointmentDetailResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) getAppointment(w http.ResponseWriter, r *http.Request) {
	log := h.opLog(r, "GetAppointment")
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := h.svc.GetAppointment(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentDetailResponse(d))
}

func (h *handler) createAppointment(w http.ResponseWriter, r *http.Request) {
	log := h.opLog(r, "CreateAppointment")
	var req appointmentRequest
	if err := h.decode(w, r, &req); err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	a, err := h.svc.CreateAppointment(r.Context(), appointments.AppointmentInput{
		ClientID:       req.ClientID,
		ProfessionalID: req.ProfessionalID,
		ScheduledAt:    *req.ScheduledAt,
		Note:           req.Note,
	})
	if err != nil {
		h.writeServiceError(w, log.With(
			slog.Int64("client_id", req.ClientID),
			slog.Int64("professional_id", req.ProfessionalID),
			slog.Time("scheduled_at", *req.ScheduledAt),
		), err)
		return
	}
	log.Info("appointment created",
		slog.Int64("appointment_id", a.ID),
		slog.Int64("professional_id", a.ProfessionalID),
		slog.Time("scheduled_at", a.ScheduledAt),
	)
	w.Header().Set("Location", "/appointments/"+strconv.FormatInt(a.ID, 10))
	writeJSON(w, http.StatusCreated, toAppointmentResponse(a))
}

func (h *handler) updateAppointment(w http.ResponseWriter, r *http.Request) {
	log := h.opLog(r, "UpdateAppointment")
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req appointmentRequest
	if err := h.decode(w, r, &req); err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	a, err := h.svc.UpdateAppointment(r.Context(), id, appointments.AppointmentInput{
		ClientID:       req.ClientID,
		ProfessionalID: req.ProfessionalID,
		ScheduledAt:    *req.ScheduledAt,
		Note:           req.Note,
	})
	if err != nil {
		h.writeServiceError(w, log.With(slog.Int64("appointment_id", id)), err)
		return
	}
	log.Info("appointment updated", slog.Int64("appointment_id", a.ID))
	writeJSON(w, http.StatusOK, toAppointmentResponse(a))
}

func (h *handler) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	log := h.opLog(r, "DeleteAppointment")
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteAppointment(r.Context(), id); err != nil {
		h.writeServiceError(w, log, err)
		return
	}
	log.Info("appointment deleted", slog.Int64("appointment_id", id))
	w.WriteHeader(http.StatusNoContent)
}
