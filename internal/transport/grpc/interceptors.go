package grpcx

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// UnaryServerInterceptor logs health probes and turns panics into Internal.
func UnaryServerInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		start := time.Now()

		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc panic",
					"method", info.FullMethod,
					"panic", r,
					"stack", string(debug.Stack()))
				err = status.Error(codes.Internal, "internal server error")
			}
			log.Debug("grpc health check",
				"method", info.FullMethod,
				"service", probedService(req),
				"status", servingStatus(resp),
				"code", status.Code(err).String(),
				"peer", peerAddr(ctx),
				"dur", time.Since(start))
		}()

		return handler(ctx, req)
	}
}

// StreamServerInterceptor covers Health.Watch, which lives as long as the
// watcher stays subscribed.
func StreamServerInterceptor(log *slog.Logger) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) (err error) {
		start := time.Now()
		ctx := context.Background()
		if ss != nil {
			ctx = ss.Context()
		}

		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc panic",
					"method", info.FullMethod,
					"panic", r,
					"stack", string(debug.Stack()))
				err = status.Error(codes.Internal, "internal server error")
			}
			log.Debug("grpc health watch ended",
				"method", info.FullMethod,
				"code", status.Code(err).String(),
				"peer", peerAddr(ctx),
				"watched", time.Since(start))
		}()

		return handler(srv, ss)
	}
}

func probedService(req any) string {
	if r, ok := req.(*healthpb.HealthCheckRequest); ok {
		return r.GetService()
	}
	return ""
}

func servingStatus(resp any) string {
	if r, ok := resp.(*healthpb.HealthCheckResponse); ok {
		return r.GetStatus().String()
	}
	return ""
}

func peerAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return ""
}
