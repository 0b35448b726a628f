package api

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/burst-detector/internal/config"
)

type echoServer struct{}

func (echoServer) Detect(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if _, ok := in.GetFields()["fail"]; ok {
		return nil, status.Error(codes.InvalidArgument, "fail requested")
	}
	return structpb.NewStruct(map[string]interface{}{"method": "detect", "echo": in.AsMap()})
}

func (echoServer) Histogram(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{"method": "histogram"})
}

func startBufServer(t *testing.T) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServerWithListener(config.ServerConfig{GracefulTimeout: time.Second}, lis, echoServer{})
	go func() {
		_ = srv.Start()
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

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
	return conn
}

func TestServerRoundTrip(t *testing.T) {
	client := NewClient(startBufServer(t))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in, _ := structpb.NewStruct(map[string]interface{}{"order": 3})
	out, err := client.Detect(ctx, in)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if out.GetFields()["method"].GetStringValue() != "detect" {
		t.Fatalf("unexpected response: %v", out)
	}
	if out.GetFields()["echo"].GetStructValue().GetFields()["order"].GetNumberValue() != 3 {
		t.Fatalf("request body did not reach the handler: %v", out)
	}

	out, err = client.Histogram(ctx, &structpb.Struct{})
	if err != nil {
		t.Fatalf("histogram: %v", err)
	}
	if out.GetFields()["method"].GetStringValue() != "histogram" {
		t.Fatalf("unexpected response: %v", out)
	}
}

func TestServerPropagatesStatus(t *testing.T) {
	client := NewClient(startBufServer(t))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in, _ := structpb.NewStruct(map[string]interface{}{"fail": true})
	_, err := client.Detect(ctx, in)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestServerHealth(t *testing.T) {
	conn := startBufServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("unexpected health status: %v", resp.GetStatus())
	}
}
