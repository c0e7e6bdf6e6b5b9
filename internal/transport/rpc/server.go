package rpc

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rotorcore/internal/catalog"
	"rotorcore/internal/config"
	"rotorcore/internal/observability"
	"rotorcore/internal/session"
	"rotorcore/pkg/enigma"
)

// DefaultMaxLines bounds the lines accepted by one Convert call.
const DefaultMaxLines = 10000

// Server implements EnigmaServer. Every call builds its own machine, so
// concurrent calls never share rotor state.
type Server struct {
	catalogs  catalog.Store
	hooks     observability.Hooks
	maxLines  int
	processor *session.Processor
}

// Option configures a Server.
type Option func(*Server)

// WithCatalog lets requests name a stored configuration.
func WithCatalog(s catalog.Store) Option {
	return func(srv *Server) { srv.catalogs = s }
}

func WithLogger(l observability.Logger) Option {
	return func(srv *Server) {
		if l != nil {
			srv.hooks.Logger = l
		}
	}
}

func WithMetrics(m observability.MetricsRecorder) Option {
	return func(srv *Server) {
		if m != nil {
			srv.hooks.Metrics = m
		}
	}
}

func WithTracer(t observability.Tracer) Option {
	return func(srv *Server) {
		if t != nil {
			srv.hooks.Tracer = t
		}
	}
}

// WithMaxLines overrides DefaultMaxLines. Non-positive values are ignored.
func WithMaxLines(n int) Option {
	return func(srv *Server) {
		if n > 0 {
			srv.maxLines = n
		}
	}
}

// NewServer builds a Server.
func NewServer(opts ...Option) *Server {
	srv := &Server{maxLines: DefaultMaxLines}
	for _, opt := range opts {
		opt(srv)
	}
	srv.hooks = srv.hooks.Normalize()
	srv.processor = session.New(
		session.WithLogger(srv.hooks.Logger),
		session.WithMetrics(srv.hooks.Metrics),
		session.WithTracer(srv.hooks.Tracer),
	)
	return srv
}

func (s *Server) Convert(ctx context.Context, req *ConvertRequest) (*ConvertResponse, error) {
	var resp *ConvertResponse
	err := s.hooks.Run(ctx, "rpc.convert", func(ctx context.Context) error {
		if len(req.Lines) > s.maxLines {
			return status.Errorf(codes.InvalidArgument, "request has %d lines, limit is %d", len(req.Lines), s.maxLines)
		}
		for i, line := range req.Lines {
			if strings.ContainsAny(line, "\r\n") {
				return status.Errorf(codes.InvalidArgument, "line %d contains a line break", i+1)
			}
		}
		revision, m, err := s.machine(ctx, req)
		if err != nil {
			return err
		}
		out, err := s.processor.Lines(ctx, m, req.Lines)
		if err != nil {
			return toStatus(err)
		}
		resp = &ConvertResponse{Lines: out, Revision: revision}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Server) machine(ctx context.Context, req *ConvertRequest) (string, *enigma.Machine, error) {
	switch {
	case req.Catalog != "" && strings.TrimSpace(req.Config) != "":
		return "", nil, status.Error(codes.InvalidArgument, "config and catalog are mutually exclusive")
	case req.Catalog != "":
		if s.catalogs == nil {
			return "", nil, status.Error(codes.FailedPrecondition, "server has no catalog")
		}
		e, m, err := catalog.Build(ctx, s.catalogs, req.Catalog)
		if err != nil {
			return "", nil, toStatus(err)
		}
		return e.Revision, m, nil
	case strings.TrimSpace(req.Config) != "":
		format, err := config.ParseFormat(req.Format)
		if err != nil {
			return "", nil, status.Error(codes.InvalidArgument, err.Error())
		}
		_, m, err := config.Load(strings.NewReader(req.Config), format)
		if err != nil {
			return "", nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return "", m, nil
	default:
		return "", nil, status.Error(codes.InvalidArgument, "request needs a config or a catalog name")
	}
}

func (s *Server) ListCatalogs(ctx context.Context, _ *ListCatalogsRequest) (*ListCatalogsResponse, error) {
	if s.catalogs == nil {
		return &ListCatalogsResponse{}, nil
	}
	var resp ListCatalogsResponse
	err := s.hooks.Run(ctx, "rpc.list_catalogs", func(ctx context.Context) error {
		entries, err := s.catalogs.List(ctx)
		if err != nil {
			return toStatus(err)
		}
		for _, e := range entries {
			resp.Catalogs = append(resp.Catalogs, CatalogInfo{Name: e.Name, Revision: e.Revision, Format: e.Format})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func toStatus(err error) error {
	var ee *enigma.Error
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, catalog.ErrInvalidName), errors.As(err, &ee):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
