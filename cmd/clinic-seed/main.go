package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/bootstrap"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/config"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/domain"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/service/appointments"
)

var specialties = []string{
	"General Dentistry",
	"Orthodontics",
	"Endodontics",
	"Periodontics",
	"Pediatric Dentistry",
	"Oral Surgery",
	"Prosthodontics",
	"Dermatology",
	"Cardiology",
	"General Practice",
}

type seedService interface {
	CreateClient(ctx context.Context, in appointments.ClientInput) (domain.Client, error)
	CreateProfessional(ctx context.Context, in appointments.ProfessionalInput) (domain.Professional, error)
	CreateAppointment(ctx context.Context, in appointments.AppointmentInput) (domain.Appointment, error)
}

type counts struct {
	Clients       int
	Professionals int
	Appointments  int
}

type result struct {
	Clients       int
	Professionals int
	Appointments  int
	Conflicts     int
}

func main() {
	var c counts
	var seed uint64
	flag.IntVar(&c.Clients, "clients", 50, "number of clients to create")
	flag.IntVar(&c.Professionals, "professionals", 10, "number of professionals to create")
	flag.IntVar(&c.Appointments, "appointments", 200, "number of appointments to attempt")
	flag.Uint64Var(&seed, "seed", 0, "random seed (0 picks one from the clock)")
	flag.Parse()

	log := bootstrap.NewLogger(os.Stdout, "clinic-seed", "info")

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	repo, closeRepo, err := bootstrap.OpenRepository(ctx, cfg, log)
	if err != nil {
		log.Error("database open failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := closeRepo(); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	log.Info("seed starting",
		slog.Int("clients", c.Clients),
		slog.Int("professionals", c.Professionals),
		slog.Int("appointments", c.Appointments),
		slog.Uint64("seed", seed),
	)

	res, err := run(ctx, appointments.NewService(repo, nil), gofakeit.New(seed), c, time.Now().UTC(), log)
	if err != nil {
		log.Error("seed failed", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("seed complete",
		slog.Int("clients", res.Clients),
		slog.Int("professionals", res.Professionals),
		slog.Int("appointments", res.Appointments),
		slog.Int("conflicts_skipped", res.Conflicts),
	)
}

// run creates fake records through svc. Appointments land on half-hour
// slots between 08:00 and 17:30 UTC on the 30 days after now; slots that
// are already taken are counted and skipped.
func run(ctx context.Context, svc seedService, f *gofakeit.Faker, c counts, now time.Time, log *slog.Logger) (result, error) {
	var res result

	clientIDs := make([]int64, 0, c.Clients)
	for i := 0; i < c.Clients; i++ {
		cl, err := svc.CreateClient(ctx, appointments.ClientInput{
			Name:       f.Name(),
			Email:      f.Email(),
			Phone:      f.Phone(),
			NationalID: f.Numerify("###.###.###-##"),
		})
		if err != nil {
			return res, err
		}
		clientIDs = append(clientIDs, cl.ID)
		res.Clients++
	}

	professionalIDs := make([]int64, 0, c.Professionals)
	for i := 0; i < c.Professionals; i++ {
		p, err := svc.CreateProfessional(ctx, appointments.ProfessionalInput{
			Name:           "Dr. " + f.Name(),
			Specialty:      specialties[f.Number(0, len(specialties)-1)],
			RegistrationID: f.Numerify("CRO-#####"),
		})
		if err != nil {
			return res, err
		}
		professionalIDs = append(professionalIDs, p.ID)
		res.Professionals++
	}

	if len(clientIDs) == 0 || len(professionalIDs) == 0 {
		return res, nil
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for i := 0; i < c.Appointments; i++ {
		at := day.
			AddDate(0, 0, f.Number(1, 30)).
			Add(8 * time.Hour).
			Add(time.Duration(f.Number(0, 19)) * 30 * time.Minute)

		_, err := svc.CreateAppointment(ctx, appointments.AppointmentInput{
			ClientID:       clientIDs[f.Number(0, len(clientIDs)-1)],
			ProfessionalID: professionalIDs[f.Number(0, len(professionalIDs)-1)],
			ScheduledAt:    at,
			Note:           f.Adjective() + " " + f.Noun(),
		})
		if errors.Is(err, appointments.ErrSchedulingConflict) {
			res.Conflicts++
			continue
		}
		if err != nil {
			return res, err
		}
		res.Appointments++
		if res.Appointments%100 == 0 {
			log.Info("appointments seeded", slog.Int("done", res.Appointments), slog.Int("target", c.Appointments))
		}
	}
	return res, nil
}
