package grpcx

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dialBuf(t *testing.T, s *Server) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.GRPC.Serve(lis) }()
	t.Cleanup(s.GRPC.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func check(t *testing.T, c healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("check %q: %v", service, err)
	}
	return resp.GetStatus()
}

func TestHealth_ServingToggle(t *testing.T) {
	s := NewServer(quietLogger())
	c := dialBuf(t, s)

	if got := check(t, c, ServiceName); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("initial status = %v", got)
	}

	s.SetServing(true)
	for _, svc := range []string{"", ServiceName} {
		if got := check(t, c, svc); got != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("status(%q) = %v, want SERVING", svc, got)
		}
	}

	s.SetServing(false)
	if got := check(t, c, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status after toggle = %v", got)
	}
}

func TestHealth_UnknownService(t *testing.T) {
	s := NewServer(quietLogger())
	c := dialBuf(t, s)

	_, err := c.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "nope"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestUnaryInterceptor_RecoversPanic(t *testing.T) {
	icp := UnaryServerInterceptor(quietLogger())
	_, err := icp(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"},
		func(ctx context.Context, req any) (any, error) {
			panic("boom")
		})
	if status.Code(err) != codes.Internal {
		t.Fatalf("err = %v, want Internal", err)
	}
}

func TestUnaryInterceptor_LogsProbedServiceAndStatus(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := NewServer(log)
	s.SetServing(true)
	c := dialBuf(t, s)

	if got := check(t, c, ServiceName); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", got)
	}

	out := buf.String()
	for _, want := range []string{
		"grpc health check",
		"method=/grpc.health.v1.Health/Check",
		"service=" + ServiceName,
		"status=SERVING",
		"code=OK",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("%q missing from log: %s", want, out)
		}
	}
}

func TestStreamInterceptor_PassesThroughError(t *testing.T) {
	icp := StreamServerInterceptor(quietLogger())
	want := status.Error(codes.Unavailable, "down")
	err := icp(nil, nil, &grpc.StreamServerInfo{FullMethod: "/x/Z"},
		func(srv any, ss grpc.ServerStream) error { return want })
	if err != want {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
