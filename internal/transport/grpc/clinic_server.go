package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/domain"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/lock"
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

// ClinicServer exposes the clinic operations as unary RPCs on ServiceName.
type ClinicServer struct {
	svc clinicService
	log *slog.Logger
}

func NewClinicServer(svc clinicService, log *slog.Logger) *ClinicServer {
	if log == nil {
		log = slog.Default()
	}
	return &ClinicServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.clinic")),
	}
}

func (s *ClinicServer) ListClients(ctx context.Context, _ *Empty) (*ClientList, error) {
	rows, err := s.svc.ListClients(ctx)
	if err != nil {
		return nil, s.statusError("ListClients", err)
	}
	out := &ClientList{Clients: make([]Client, 0, len(rows))}
	for _, c := range rows {
		out.Clients = append(out.Clients, *toClient(c))
	}
	return out, nil
}

func (s *ClinicServer) GetClient(ctx context.Context, req *IDRequest) (*Client, error) {
	c, err := s.svc.GetClient(ctx, req.ID)
	if err != nil {
		return nil, s.statusError("GetClient", err)
	}
	return toClient(c), nil
}

func (s *ClinicServer) CreateClient(ctx context.Context, req *Client) (*Client, error) {
	c, err := s.svc.CreateClient(ctx, req.input())
	if err != nil {
		return nil, s.statusError("CreateClient", err)
	}
	s.log.Info("client created", slog.String("rpc", "CreateClient"), slog.Int64("client_id", c.ID))
	return toClient(c), nil
}

func (s *ClinicServer) UpdateClient(ctx context.Context, req *Client) (*Client, error) {
	c, err := s.svc.UpdateClient(ctx, req.ID, req.input())
	if err != nil {
		return nil, s.statusError("UpdateClient", err)
	}
	return toClient(c), nil
}

func (s *ClinicServer) DeleteClient(ctx context.Context, req *IDRequest) (*Empty, error) {
	if err := s.svc.DeleteClient(ctx, req.ID); err != nil {
		return nil, s.statusError("DeleteClient", err)
	}
	return &Empty{}, nil
}

func (s *ClinicServer) ListProfessionals(ctx context.Context, _ *Empty) (*ProfessionalList, error) {
	rows, err := s.svc.ListProfessionals(ctx)
	if err != nil {
		return nil, s.statusError("ListProfessionals", err)
	}
	out := &ProfessionalList{Professionals: make([]Professional, 0, len(rows))}
	for _, p := range rows {
		out.Professionals = append(out.Professionals, *toProfessional(p))
	}
	return out, nil
}

func (s *ClinicServer) GetProfessional(ctx context.Context, req *IDRequest) (*Professional, error) {
	p, err := s.svc.GetProfessional(ctx, req.ID)
	if err != nil {
		return nil, s.statusError("GetProfessional", err)
	}
	return toProfessional(p), nil
}

func (s *ClinicServer) CreateProfessional(ctx context.Context, req *Professional) (*Professional, error) {
	p, err := s.svc.CreateProfessional(ctx, req.input())
	if err != nil {
		return nil, s.statusError("CreateProfessional", err)
	}
	s.log.Info("professional created", slog.String("rpc", "CreateProfessional"), slog.Int64("professional_id", p.ID))
	return toProfessional(p), nil
}

func (s *ClinicServer) UpdateProfessional(ctx context.Context, req *Professional) (*Professional, error) {
	p, err := s.svc.UpdateProfessional(ctx, req.ID, req.input())
	if err != nil {
		return nil, s.statusError("UpdateProfessional", err)
	}
	return toProfessional(p), nil
}

func (s *ClinicServer) DeleteProfessional(ctx context.Context, req *IDRequest) (*Empty, error) {
	if err := s.svc.DeleteProfessional(ctx, req.ID); err != nil {
		return nil, s.statusError("DeleteProfessional", err)
	}
	return &Empty{}, nil
}

func (s *ClinicServer) ListAppointments(ctx context.Context, req *ListAppointmentsRequest) (*AppointmentList, error) {
	rows, err := s.svc.ListAppointments(ctx, appointments.ListFilter{
		ClientID:       req.ClientID,
		ProfessionalID: req.ProfessionalID,
	})
	if err != nil {
		return nil, s.statusError("ListAppointments", err)
	}
	out := &AppointmentList{Appointments: make([]Appointment, 0, len(rows))}
	for _, d := range rows {
		out.Appointments = append(out.Appointments, *toAppointmentDetail(d))
	}
	return out, nil
}

func (s *ClinicServer) GetAppointment(ctx context.Context, req *IDRequest) (*Appointment, error) {
	d, err := s.svc.GetAppointment(ctx, req.ID)
	if err != nil {
		return nil, s.statusError("GetAppointment", err)
	}
	return toAppointmentDetail(d), nil
}

func (s *ClinicServer) CreateAppointment(ctx context.Context, req *Appointment) (*Appointment, error) {
	a, err := s.svc.CreateAppointment(ctx, req.input())
	if err != nil {
		return nil, s.statusError("CreateAppointment", err)
	}
	s.log.Info(
		"appointment created",
		slog.String("rpc", "CreateAppointment"),
		slog.Int64("appointment_id", a.ID),
		slog.Int64("professional_id", a.ProfessionalID),
		slog.Time("scheduled_at", a.ScheduledAt),
	)
	return toAppointment(a), nil
}

func (s *ClinicServer) UpdateAppointment(ctx context.Context, req *Appointment) (*Appointment, error) {
	a, err := s.svc.UpdateAppointment(ctx, req.ID, req.input())
	if err != nil {
		return nil, s.statusError("UpdateAppointment", err)
	}
	return toAppointment(a), nil
}

func (s *ClinicServer) DeleteAppointment(ctx context.Context, req *IDRequest) (*Empty, error) {
	if err := s.svc.DeleteAppointment(ctx, req.ID); err != nil {
		return nil, s.statusError("DeleteAppointment", err)
	}
	return &Empty{}, nil
}

func (s *ClinicServer) statusError(rpc string, err error) error {
	log := s.log.With(slog.String("rpc", rpc))

	var vErr *appointments.ValidationError
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err))
		return status.Error(codes.InvalidArgument, vErr.Error())
	case errors.Is(err, appointments.ErrNotFound):
		log.Info("not found", slog.Any("err", err))
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, appointments.ErrInvalidReference):
		log.Info("invalid reference", slog.Any("err", err))
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, appointments.ErrSchedulingConflict):
		log.Info("scheduling conflict")
		return status.Error(codes.FailedPrecondition, "The professional already has an appointment at that time. Pick a different slot.")
	case errors.Is(err, appointments.ErrInUse):
		log.Info("record in use", slog.Any("err", err))
		return status.Error(codes.FailedPrecondition, "record is referenced by an appointment")
	case errors.Is(err, lock.ErrSlotBusy):
		log.Info("slot busy")
		return status.Error(codes.Aborted, "slot is being booked; retry")
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("request timed out", slog.Any("err", err))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}
	log.Error("request failed", slog.Any("err", err))
	return status.Error(codes.Internal, "internal error")
}

// unary builds a MethodDesc for a handler taking *Req. Messages travel
// through jsonCodec.
func unary[Req any, Resp any](name string, call func(s *ClinicServer, ctx context.Context, req *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(*ClinicServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

var clinicServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListClients", (*ClinicServer).ListClients),
		unary("GetClient", (*ClinicServer).GetClient),
		unary("CreateClient", (*ClinicServer).CreateClient),
		unary("UpdateClient", (*ClinicServer).UpdateClient),
		unary("DeleteClient", (*ClinicServer).DeleteClient),
		unary("ListProfessionals", (*ClinicServer).ListProfessionals),
		unary("GetProfessional", (*ClinicServer).GetProfessional),
		unary("CreateProfessional", (*ClinicServer).CreateProfessional),
		unary("UpdateProfessional", (*ClinicServer).UpdateProfessional),
		unary("DeleteProfessional", (*ClinicServer).DeleteProfessional),
		unary("ListAppointments", (*ClinicServer).ListAppointments),
		unary("GetAppointment", (*ClinicServer).GetAppointment),
		unary("CreateAppointment", (*ClinicServer).CreateAppointment),
		unary("UpdateAppointment", (*ClinicServer).UpdateAppointment),
		unary("DeleteAppointment", (*ClinicServer).DeleteAppointment),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "clinic.json",
}
