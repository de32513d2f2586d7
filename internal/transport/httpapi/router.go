package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/domain"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/service/appointments"
)

type clinicService interface {
	ListClients(ctx context.Context) ([]domain.Client, error)
	GetClient(ctx context.Context, id int64) (domain.Client, error)
	CreateClient(ctx context.Context, in appointments.ClientInput) (domain.Client, error)
	UpdateClient(ctx context.Context, id int64, in appointments.ClientInput) (domain.Client, error)
	DeleteClient(ctx context.Context, id int64) error

	ListProfessionals(ctx context.Context) ([]domain.Professional, error)
	GetProfessional(ctx context.Context, id int64) (domain.Professional, error)
	CreateProfessional(ctx context.Context, in appointments.ProfessionalInput) (domain.Professional, error)
	UpdateProfessional(ctx context.Context, id int64, in appointments.ProfessionalInput) (domain.Professional, error)
	DeleteProfessional(ctx context.Context, id int64) error

	ListAppointments(ctx context.Context, filter appointments.ListFilter) ([]domain.AppointmentDetail, error)
	GetAppointment(ctx context.Context, id int64) (domain.AppointmentDetail, error)
	CreateAppointment(ctx context.Context, in appointments.AppointmentInput) (domain.Appointment, error)
	UpdateAppointment(ctx context.Context, id int64, in appointments.AppointmentInput) (domain.Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) error
}

type RouterConfig struct {
	Service        clinicService
	Log            *slog.Logger
	Checks         []HealthCheck
	Version        string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

type handler struct {
	svc      clinicService
	log      *slog.Logger
	validate *validator.Validate
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "http"))

	h := &handler{
		svc:      cfg.Service,
		log:      log,
		validate: newValidator(),
	}

	r := chi.NewRouter()
	r.Use(WithRequestID)
	r.Use(WithAccessLog(log))
	r.Use(middleware.Recoverer)
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	if cfg.RateLimitRPS > 0 {
		r.Use(NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware)
	}

	health := NewHealthHandler(cfg.Checks, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Group(func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.listClients)
			r.Post("/", h.createClient)
			r.Get("/{id:[0-9]+}", h.getClient)
			r.Put("/{id:[0-9]+}", h.updateClient)
			r.Delete("/{id:[0-9]+}", h.deleteClient)
		})

		r.Route("/professionals", func(r chi.Router) {
			r.Get("/", h.listProfessionals)
			r.Post("/", h.createProfessional)
			r.Get("/{id:[0-9]+}", h.getProfessional)
			r.Put("/{id:[0-9]+}", h.updateProfessional)
			r.Delete("/{id:[0-9]+}", h.deleteProfessional)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Get("/", h.listAppointments)
			r.Post("/", h.createAppointment)
			r.Get("/{id:[0-9]+}", h.getAppointment)
			r.Put("/{id:[0-9]+}", h.updateAppointment)
			r.Delete("/{id:[0-9]+}", h.deleteAppointment)
		})
	})

	return otelhttp.NewHandler(r, "clinic-http")
}
