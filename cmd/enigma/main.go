// Command enigma encrypts and decrypts message streams with a configurable
// rotor machine.
//
//	enigma [flags] CONFIG [INPUT [OUTPUT]]
//	enigma [flags] -catalog NAME [INPUT [OUTPUT]]
//
// INPUT defaults to standard input and OUTPUT to standard output. Any path
// written as blob:KEY is read from or written to the blob store selected by
// ROTORCORE_BLOB_DRIVER.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"rotorcore/internal/blob"
	"rotorcore/internal/catalog"
	"rotorcore/internal/config"
	"rotorcore/internal/observability"
	"rotorcore/internal/session"
	"rotorcore/pkg/enigma"
)

var (
	exitFunc              = os.Exit
	stdin       io.Reader = os.Stdin
	openBlob              = blob.Open
	openCatalog           = catalog.Open
)

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

type options struct {
	format      string
	catalog     string
	saveCatalog string
	logLevel    string
	logFormat   string
	trace       bool
	metrics     bool
	config      string
	input       string
	output      string
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("enigma", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintln(stderr, "usage: enigma [flags] CONFIG [INPUT [OUTPUT]]")
		_, _ = fmt.Fprintln(stderr, "       enigma [flags] -catalog NAME [INPUT [OUTPUT]]")
		fs.PrintDefaults()
	}
	var opts options
	fs.StringVar(&opts.format, "format", "", "configuration format: text or yaml (default from CONFIG extension)")
	fs.StringVar(&opts.catalog, "catalog", "", "load the configuration stored under this catalog name")
	fs.StringVar(&opts.saveCatalog, "save-catalog", "", "store CONFIG in the catalog under this name")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	fs.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	fs.BoolVar(&opts.trace, "trace", false, "write operation spans to stderr as JSON lines")
	fs.BoolVar(&opts.metrics, "metrics", false, "print operation counters to stderr on exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	rest := fs.Args()
	if opts.catalog == "" {
		if len(rest) == 0 {
			fs.Usage()
			return 2
		}
		opts.config, rest = rest[0], rest[1:]
	} else if opts.saveCatalog != "" {
		_, _ = fmt.Fprintln(stderr, "Error: -catalog and -save-catalog are mutually exclusive")
		return 2
	}
	if len(rest) > 2 {
		fs.Usage()
		return 2
	}
	if len(rest) > 0 {
		opts.input = rest[0]
	}
	if len(rest) > 1 {
		opts.output = rest[1]
	}

	if err := run(context.Background(), opts, stdout, stderr); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) (err error) {
	logger, err := observability.NewSlogLogger(opts.logLevel, opts.logFormat, stderr)
	if err != nil {
		return err
	}
	procOpts := []session.Option{session.WithLogger(logger)}
	var tracer *observability.JSONTracer
	if opts.trace {
		tracer = observability.NewJSONTracer(stderr)
		procOpts = append(procOpts, session.WithTracer(tracer))
	}
	var recorder *observability.ExpvarMetricsRecorder
	if opts.metrics {
		recorder = observability.NewExpvarMetricsRecorder("")
		procOpts = append(procOpts, session.WithMetrics(recorder))
	}

	r := &resolver{}
	defer func() {
		if cerr := r.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	m, err := r.machine(ctx, opts, logger)
	if err != nil {
		return err
	}

	in, err := r.input(ctx, opts.input)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, finish, err := r.output(ctx, opts.output, stdout)
	if err != nil {
		return err
	}
	stats, procErr := session.New(procOpts...).Process(ctx, m, in, out)
	if ferr := finish(); ferr != nil && procErr == nil {
		procErr = ferr
	}
	if recorder != nil {
		if merr := printMetrics(stderr, recorder); merr != nil && procErr == nil {
			procErr = merr
		}
	}
	if procErr != nil {
		return procErr
	}
	logger.Info("done", "lines", stats.Lines, "messages", stats.Messages)
	return nil
}

func printMetrics(w io.Writer, rec *observability.ExpvarMetricsRecorder) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec.Snapshot())
}

// resolver opens the blob store and the catalog at most once, and only when
// an argument needs them.
type resolver struct {
	blobs    blob.Store
	catalogs catalog.Store
}

func (r *resolver) blobStore(ctx context.Context) (blob.Store, error) {
	if r.blobs != nil {
		return r.blobs, nil
	}
	s, err := openBlob(ctx)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	r.blobs = s
	return s, nil
}

func (r *resolver) catalogStore(ctx context.Context) (catalog.Store, error) {
	if r.catalogs != nil {
		return r.catalogs, nil
	}
	s, err := openCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	r.catalogs = s
	return s, nil
}

func (r *resolver) close() error {
	if r.catalogs == nil {
		return nil
	}
	return r.catalogs.Close()
}

func (r *resolver) readPath(ctx context.Context, path string) ([]byte, error) {
	if key, ok := blob.ParseRef(path); ok {
		s, err := r.blobStore(ctx)
		if err != nil {
			return nil, err
		}
		return blob.ReadAll(ctx, s, key)
	}
	data, err := os.ReadFile(path) // #nosec G304: path is an operator-supplied argument
	if err != nil {
		return nil, fmt.Errorf("could not open %s", path)
	}
	return data, nil
}

func (r *resolver) machine(ctx context.Context, opts options, logger *slog.Logger) (*enigma.Machine, error) {
	if opts.catalog != "" {
		s, err := r.catalogStore(ctx)
		if err != nil {
			return nil, err
		}
		e, m, err := catalog.Build(ctx, s, opts.catalog)
		if err != nil {
			return nil, err
		}
		logger.Debug("configuration loaded from catalog", "name", e.Name, "revision", e.Revision)
		return m, nil
	}
	format := config.FormatForPath(strings.TrimPrefix(opts.config, blob.RefPrefix))
	if opts.format != "" {
		f, err := config.ParseFormat(opts.format)
		if err != nil {
			return nil, err
		}
		format = f
	}
	source, err := r.readPath(ctx, opts.config)
	if err != nil {
		return nil, err
	}
	_, m, err := config.Load(bytes.NewReader(source), format)
	if err != nil {
		return nil, err
	}
	if opts.saveCatalog != "" {
		s, err := r.catalogStore(ctx)
		if err != nil {
			return nil, err
		}
		e, err := catalog.Put(ctx, s, opts.saveCatalog, format, string(source))
		if err != nil {
			return nil, err
		}
		logger.Info("configuration saved to catalog", "name", e.Name, "revision", e.Revision)
	}
	return m, nil
}

func (r *resolver) input(ctx context.Context, path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(stdin), nil
	}
	if _, ok := blob.ParseRef(path); ok {
		data, err := r.readPath(ctx, path)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	f, err := os.Open(path) // #nosec G304: path is an operator-supplied argument
	if err != nil {
		return nil, fmt.Errorf("could not open %s", path)
	}
	return f, nil
}

// output returns the writer for path and a finish function that must run
// after processing. Blob outputs are buffered and stored by finish, so a
// failed run still stores the output produced before the failure.
func (r *resolver) output(ctx context.Context, path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	if key, ok := blob.ParseRef(path); ok {
		s, err := r.blobStore(ctx)
		if err != nil {
			return nil, nil, err
		}
		var buf bytes.Buffer
		finish := func() error {
			meta := map[string]string{blob.MetaKind: "transcript"}
			_, err := blob.Write(ctx, s, key, buf.Bytes(), blob.ContentTypeTranscript, meta)
			return err
		}
		return &buf, finish, nil
	}
	f, err := os.Create(path) // #nosec G304: path is an operator-supplied argument
	if err != nil {
		return nil, nil, fmt.Errorf("could not open %s", path)
	}
	finish := func() error {
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", path, err)
		}
		return nil
	}
	return f, finish, nil
}
