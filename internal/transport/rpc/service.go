// Package rpc exposes rotor machines over gRPC as the service
// rotorcore.v1.Enigma. Messages are JSON encoded; see CodecName.
package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName        = "rotorcore.v1.Enigma"
	ConvertMethod      = "/" + ServiceName + "/Convert"
	ListCatalogsMethod = "/" + ServiceName + "/ListCatalogs"
)

// ConvertRequest names a machine configuration, either inline (Config, in
// Format) or by catalog name, and the stream of setting and message lines
// to run through it.
type ConvertRequest struct {
	Config  string   `json:"config,omitempty"`
	Format  string   `json:"format,omitempty"`
	Catalog string   `json:"catalog,omitempty"`
	Lines   []string `json:"lines"`
}

// ConvertResponse holds one output line per input line that produces output.
type ConvertResponse struct {
	Lines    []string `json:"lines"`
	Revision string   `json:"revision,omitempty"`
}

type ListCatalogsRequest struct{}

type CatalogInfo struct {
	Name     string `json:"name"`
	Revision string `json:"revision"`
	Format   string `json:"format"`
}

type ListCatalogsResponse struct {
	Catalogs []CatalogInfo `json:"catalogs"`
}

// EnigmaServer is implemented by Server.
type EnigmaServer interface {
	Convert(context.Context, *ConvertRequest) (*ConvertResponse, error)
	ListCatalogs(context.Context, *ListCatalogsRequest) (*ListCatalogsResponse, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EnigmaServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Convert", Handler: convertHandler},
		{MethodName: "ListCatalogs", Handler: listCatalogsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rotorcore/v1/enigma",
}

// Register adds srv to a gRPC server.
func Register(s grpc.ServiceRegistrar, srv EnigmaServer) {
	s.RegisterService(&serviceDesc, srv)
}

func convertHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ConvertRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EnigmaServer).Convert(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ConvertMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EnigmaServer).Convert(ctx, req.(*ConvertRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listCatalogsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListCatalogsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EnigmaServer).ListCatalogs(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListCatalogsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EnigmaServer).ListCatalogs(ctx, req.(*ListCatalogsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls the Enigma service over a gRPC connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func (c *Client) Convert(ctx context.Context, req *ConvertRequest, opts ...grpc.CallOption) (*ConvertResponse, error) {
	out := new(ConvertResponse)
	if err := c.cc.Invoke(ctx, ConvertMethod, req, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListCatalogs(ctx context.Context, req *ListCatalogsRequest, opts ...grpc.CallOption) (*ListCatalogsResponse, error) {
	out := new(ListCatalogsResponse)
	if err := c.cc.Invoke(ctx, ListCatalogsMethod, req, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
