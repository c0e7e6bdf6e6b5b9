package rpc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"rotorcore/internal/catalog"
	"rotorcore/internal/config"
	"rotorcore/internal/observability"
)

const (
	hiawathaSetting = "* B Beta III IV I AXLE (HQ) (EX) (IP) (TR) (BY)"
	hiawathaCipher  = "PEHOE ARQSR STZNT RSXTE ZCO"
)

func readTestdata(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "config", "testdata", name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

func dial(t *testing.T, srv *Server) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	Register(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

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
	return NewClient(conn)
}

func TestConvertInlineConfig(t *testing.T) {
	client := dial(t, NewServer())
	resp, err := client.Convert(context.Background(), &ConvertRequest{
		Config: readTestdata(t, "default.conf"),
		Lines:  []string{hiawathaSetting, "FROM HIS SHOULDER HIAWATHA", ""},
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(resp.Lines) != 2 || resp.Lines[0] != hiawathaCipher || resp.Lines[1] != "" {
		t.Fatalf("unexpected lines %q", resp.Lines)
	}
}

func TestConvertFromCatalog(t *testing.T) {
	store := catalog.NewMemory()
	entry, err := catalog.Put(context.Background(), store, "naval", config.FormatYAML, readTestdata(t, "naval.yaml"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	tracer := observability.NewJSONTracer(nil)
	client := dial(t, NewServer(WithCatalog(store), WithTracer(tracer)))

	resp, err := client.Convert(context.Background(), &ConvertRequest{
		Catalog: "naval",
		Lines:   []string{hiawathaSetting, "PEHOEARQSRSTZNTRSXTEZCO"},
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(resp.Lines) != 1 || resp.Lines[0] != "FROMH ISSHO ULDER HIAWA THA" {
		t.Fatalf("unexpected lines %q", resp.Lines)
	}
	if resp.Revision != entry.Revision {
		t.Fatalf("revision %q, want %q", resp.Revision, entry.Revision)
	}
	if len(tracer.Entries()) == 0 {
		t.Fatalf("expected spans to be recorded")
	}

	list, err := client.ListCatalogs(context.Background(), &ListCatalogsRequest{})
	if err != nil {
		t.Fatalf("ListCatalogs: %v", err)
	}
	if len(list.Catalogs) != 1 || list.Catalogs[0].Name != "naval" || list.Catalogs[0].Format != "yaml" {
		t.Fatalf("unexpected catalogs %+v", list.Catalogs)
	}
}

func TestConvertErrorCodes(t *testing.T) {
	client := dial(t, NewServer(WithCatalog(catalog.NewMemory()), WithMaxLines(3)))
	conf := readTestdata(t, "default.conf")
	cases := []struct {
		name string
		req  *ConvertRequest
		want codes.Code
	}{
		{"no machine", &ConvertRequest{Lines: []string{"HELLO"}}, codes.InvalidArgument},
		{"both sources", &ConvertRequest{Config: conf, Catalog: "naval"}, codes.InvalidArgument},
		{"unknown catalog", &ConvertRequest{Catalog: "missing"}, codes.NotFound},
		{"bad format", &ConvertRequest{Config: conf, Format: "toml"}, codes.InvalidArgument},
		{"bad config", &ConvertRequest{Config: "ABC 2"}, codes.InvalidArgument},
		{"message first", &ConvertRequest{Config: conf, Lines: []string{"HELLO"}}, codes.InvalidArgument},
		{"unknown rotor", &ConvertRequest{Config: conf, Lines: []string{"* B Beta III IX I AXLE"}}, codes.InvalidArgument},
		{"too many lines", &ConvertRequest{Config: conf, Lines: []string{"", "", "", ""}}, codes.InvalidArgument},
		{"embedded newline", &ConvertRequest{Config: conf, Lines: []string{"* B Beta III IV I AXLE", "A\nB\nC\nD"}}, codes.InvalidArgument},
		{"embedded carriage return", &ConvertRequest{Config: conf, Lines: []string{"* B Beta III IV I AXLE", "A\rB"}}, codes.InvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.Convert(context.Background(), tc.req)
			if got := status.Code(err); got != tc.want {
				t.Fatalf("code %v, want %v (err %v)", got, tc.want, err)
			}
		})
	}
}

func TestCatalogRequiresStore(t *testing.T) {
	client := dial(t, NewServer())
	_, err := client.Convert(context.Background(), &ConvertRequest{Catalog: "naval"})
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition, got %v", err)
	}
	list, err := client.ListCatalogs(context.Background(), &ListCatalogsRequest{})
	if err != nil || len(list.Catalogs) != 0 {
		t.Fatalf("ListCatalogs = %+v, %v", list, err)
	}
}

func TestConcurrentCallsDoNotShareState(t *testing.T) {
	client := dial(t, NewServer())
	conf := readTestdata(t, "default.conf")
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.Convert(context.Background(), &ConvertRequest{
				Config: conf,
				Lines:  []string{hiawathaSetting, "FROM HIS SHOULDER HIAWATHA"},
			})
			if err != nil {
				errs <- err
				return
			}
			if resp.Lines[0] != hiawathaCipher {
				errs <- status.Errorf(codes.Internal, "got %q", resp.Lines[0])
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
