package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/rbaliyan/msgbus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
)

type Ping struct {
	msgbus.Marker
	ID int
}

func startServer(t *testing.T, r *msgbus.Registry) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	New(r).Register(server)
	go server.Serve(lis)
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewClient(conn)
}

func TestServiceNew(t *testing.T) {
	svc := New(msgbus.TestRegistry())
	if svc == nil {
		t.Fatal("expected service, got nil")
	}
}

func TestServiceStatus(t *testing.T) {
	ctx := context.Background()
	r := msgbus.TestRegistry(msgbus.WithName("grpc-test"))
	msgbus.For[Ping](r).Subscribe(msgbus.NewRecorder[Ping](nil))

	resp, err := New(r).Status(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	m := resp.AsMap()
	if m["registry"] != "grpc-test" {
		t.Errorf("unexpected registry %v", m["registry"])
	}
	if m["subscribers"] != float64(1) {
		t.Errorf("expected 1 subscriber, got %v", m["subscribers"])
	}
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := msgbus.TestRegistry()
	rec := msgbus.NewRecorder[Ping](nil)
	msgbus.For[Ping](r).Subscribe(rec)
	client := startServer(t, r)

	resp, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if got := resp.AsMap()["subscribers"]; got != float64(1) {
		t.Errorf("expected 1 subscriber, got %v", got)
	}

	resp, err = client.ClearAll(ctx)
	if err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if got := resp.AsMap()["subscribers"]; got != float64(0) {
		t.Errorf("expected 0 subscribers after ClearAll, got %v", got)
	}
	msgbus.For[Ping](r).Publish(ctx, Ping{ID: 1})
	if rec.Count() != 0 {
		t.Errorf("expected no delivery after remote clear, got %d", rec.Count())
	}
}

func TestClientUnknownMethod(t *testing.T) {
	ctx := context.Background()
	client := startServer(t, msgbus.TestRegistry())

	err := client.cc.Invoke(ctx, "/"+ServiceName+"/Missing", &emptypb.Empty{}, &emptypb.Empty{})
	if status.Code(err) != codes.Unimplemented {
		t.Errorf("expected Unimplemented, got %v", err)
	}
}
