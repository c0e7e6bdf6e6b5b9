// Package session drives an enigma machine over a stream of setting lines and
// message lines.
//
// A line whose first token starts with "*" reconfigures the machine. Blank
// lines are echoed as blank lines. Every other line is a message: it is
// converted with rotor state carried over from the previous message and
// written in groups of five symbols.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"rotorcore/internal/config"
	"rotorcore/internal/observability"
	"rotorcore/pkg/enigma"
)

// GroupSize is the number of symbols per output block.
const GroupSize = 5

const (
	opConfigure = "configure"
	opConvert   = "convert"
)

// Stats summarizes a processed stream.
type Stats struct {
	Lines    int
	Settings int
	Messages int
	Symbols  int
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l observability.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.hooks.Logger = l
		}
	}
}

// WithMetrics sets the metrics recorder. A nil recorder is ignored.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(p *Processor) {
		if m != nil {
			p.hooks.Metrics = m
		}
	}
}

// WithTracer sets the tracer. A nil tracer is ignored.
func WithTracer(t observability.Tracer) Option {
	return func(p *Processor) {
		if t != nil {
			p.hooks.Tracer = t
		}
	}
}

// Processor runs message streams through machines. It holds no machine state
// of its own and may be shared across goroutines as long as each call gets
// its own Machine.
type Processor struct {
	hooks observability.Hooks
}

// New returns a Processor with noop observers unless overridden.
func New(opts ...Option) *Processor {
	p := &Processor{}
	for _, opt := range opts {
		opt(p)
	}
	p.hooks = p.hooks.Normalize()
	return p
}

// Process reads lines from in, applies them to m and writes one output line
// per input line to out. It stops at the first error; output already written
// is left in place.
func (p *Processor) Process(ctx context.Context, m *enigma.Machine, in io.Reader, out io.Writer) (Stats, error) {
	var stats Stats
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	w := bufio.NewWriter(out)
	configured := false
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, flushThen(w, err)
		}
		stats.Lines++
		line := sc.Text()
		switch {
		case config.IsSettingLine(line):
			err := p.hooks.Run(ctx, opConfigure, func(context.Context) error {
				_, err := config.Configure(m, line)
				return err
			})
			if err != nil {
				return stats, flushThen(w, fmt.Errorf("line %d: %w", stats.Lines, err))
			}
			configured = true
			stats.Settings++
			p.hooks.Logger.Debug("machine configured", "line", stats.Lines)
		case strings.TrimSpace(line) == "":
			if err := w.WriteByte('\n'); err != nil {
				return stats, err
			}
		default:
			if !configured {
				return stats, flushThen(w, fmt.Errorf("line %d: %w", stats.Lines,
					enigma.Errorf(enigma.CodeBadSetting, "message without setting")))
			}
			var converted string
			err := p.hooks.Run(ctx, opConvert, func(context.Context) error {
				var err error
				converted, err = m.ConvertString(line)
				return err
			})
			if err != nil {
				return stats, flushThen(w, fmt.Errorf("line %d: %w", stats.Lines, err))
			}
			stats.Messages++
			stats.Symbols += len([]rune(converted))
			if _, err := w.WriteString(FormatGroups(converted) + "\n"); err != nil {
				return stats, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return stats, flushThen(w, fmt.Errorf("read messages: %w", err))
	}
	if err := w.Flush(); err != nil {
		return stats, fmt.Errorf("write output: %w", err)
	}
	p.hooks.Logger.Info("stream processed", "lines", stats.Lines, "messages", stats.Messages, "symbols", stats.Symbols)
	return stats, nil
}

// Process runs a stream with a default Processor.
func Process(ctx context.Context, m *enigma.Machine, in io.Reader, out io.Writer) (Stats, error) {
	return New().Process(ctx, m, in, out)
}

// Lines runs a slice of lines through m and returns the output lines.
func (p *Processor) Lines(ctx context.Context, m *enigma.Machine, lines []string) ([]string, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	var b strings.Builder
	_, err := p.Process(ctx, m, strings.NewReader(strings.Join(lines, "\n")+"\n"), &b)
	out := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	if b.Len() == 0 {
		out = nil
	}
	return out, err
}

// FormatGroups splits msg into blocks of GroupSize symbols separated by
// single spaces. The last block may be shorter.
func FormatGroups(msg string) string {
	runes := []rune(msg)
	var b strings.Builder
	b.Grow(len(msg) + len(msg)/GroupSize)
	for i, r := range runes {
		if i > 0 && i%GroupSize == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func flushThen(w *bufio.Writer, err error) error {
	_ = w.Flush()
	return err
}
