// Package grpcserver runs the service's gRPC endpoint. It carries the
// standard grpc.health.v1 service, whose status follows database
// reachability, plus server reflection for tooling.
package grpcserver

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"hirely/api-service/internal/apperr"
	"hirely/api-service/internal/logging"
)

// ServiceName is the health-checked service name. The empty name reports
// the same status.
const ServiceName = "hirely.api"

// Server wraps a grpc.Server and its health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	log    *logrus.Entry
}

// New returns a Server that starts out NOT_SERVING until SetServing(true).
func New(log logrus.FieldLogger) *Server {
	entry := logging.Component(log, "grpc")
	s := &Server{
		grpc:   grpc.NewServer(grpc.ChainUnaryInterceptor(unaryInterceptor(entry))),
		health: health.NewServer(),
		log:    entry,
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	s.SetServing(false)
	return s
}

// SetServing updates the reported health status.
func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Serve blocks accepting connections on lis.
func (s *Server) Serve(lis net.Listener) error {
	s.log.WithField("addr", lis.Addr().String()).Info("gRPC server listening")
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Stop marks the server NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

// ─── Interceptor ─────────────────────────────────────────────────────────────

// unaryInterceptor logs every call, converts panics into codes.Internal and
// maps classified errors to gRPC status codes.
func unaryInterceptor(log *logrus.Entry) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		defer func() {
			if p := recover(); p != nil {
				log.WithField("method", info.FullMethod).Errorf("panic: %v", p)
				resp, err = nil, status.Error(codes.Internal, "internal error")
			}
			entry := log.WithFields(logrus.Fields{
				"method":   info.FullMethod,
				"code":     status.Code(err).String(),
				"duration": time.Since(start).String(),
			})
			if err != nil {
				entry.WithError(err).Warn("gRPC call failed")
				return
			}
			entry.Debug("gRPC call")
		}()

		resp, err = handler(ctx, req)
		return resp, toGRPCError(err)
	}
}

// toGRPCError maps apperr kinds to gRPC status errors. Status errors and nil
// pass through.
func toGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	msg, ok := apperr.Message(err)
	if !ok {
		return status.Error(codes.Internal, "internal error")
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return status.Error(codes.InvalidArgument, msg)
	case apperr.KindUnauthenticated:
		return status.Error(codes.Unauthenticated, msg)
	case apperr.KindForbidden:
		return status.Error(codes.PermissionDenied, msg)
	case apperr.KindNotFound:
		return status.Error(codes.NotFound, msg)
	case apperr.KindConflict:
		return status.Error(codes.AlreadyExists, msg)
	}
	return status.Error(codes.Internal, msg)
}
