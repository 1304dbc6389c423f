package grpcx

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestProbeHealth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(logger)
	srv.SetServing(true, "openhours.Hours")

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	go func() { _ = srv.Server.Serve(lis) }()
	defer srv.Stop()

	ctx := context.Background()
	st, err := Probe(ctx, lis.Addr().String(), "openhours.Hours", DialOptions{})
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if st != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %s", st)
	}

	srv.SetServing(false, "openhours.Hours")
	st, err = Probe(ctx, lis.Addr().String(), "openhours.Hours", DialOptions{})
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if st != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING, got %s", st)
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	if RequestIDFromContext(ctx) != "" {
		t.Fatal("expected empty id to be ignored")
	}
	ctx = WithRequestID(ctx, "req-9")
	if RequestIDFromContext(ctx) != "req-9" {
		t.Fatalf("expected req-9, got %q", RequestIDFromContext(ctx))
	}
}
