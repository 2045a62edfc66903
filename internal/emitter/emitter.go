package emitter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/DjordjeVuckovic/csv-echo/internal/apperr"
	"github.com/DjordjeVuckovic/csv-echo/internal/delay"
	"github.com/DjordjeVuckovic/csv-echo/internal/reader"
)

// MissingPolicy decides what happens to a row that lacks the target column.
type MissingPolicy string

const (
	MissingWarn MissingPolicy = "warn"
	MissingSkip MissingPolicy = "skip"
)

func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch p := MissingPolicy(s); p {
	case MissingWarn, MissingSkip:
		return p, nil
	default:
		return "", apperr.NewValidation(fmt.Sprintf("unknown missing-value policy %q (want warn or skip)", s))
	}
}

// Summary describes a finished or interrupted run.
type Summary struct {
	Rows       int
	Emitted    int
	Skipped    int
	TotalDelay time.Duration
	Elapsed    time.Duration
}

// LineEmitter writes one column of each row to out, pausing between rows.
type LineEmitter struct {
	rows    reader.RowSource
	out     *bufio.Writer
	column  string
	policy  delay.Policy
	sleep   delay.Sleeper
	missing MissingPolicy
	logger  *slog.Logger
}

type Option func(e *LineEmitter)

func WithDelayPolicy(p delay.Policy) Option {
	return func(e *LineEmitter) {
		e.policy = p
	}
}

func WithSleeper(s delay.Sleeper) Option {
	return func(e *LineEmitter) {
		e.sleep = s
	}
}

func WithMissingPolicy(p MissingPolicy) Option {
	return func(e *LineEmitter) {
		e.missing = p
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *LineEmitter) {
		e.logger = l
	}
}

func New(rows reader.RowSource, out io.Writer, column string, opts ...Option) *LineEmitter {
	e := &LineEmitter{
		rows:    rows,
		out:     bufio.NewWriter(out),
		column:  column,
		policy:  delay.Fixed(0),
		sleep:   delay.Sleep,
		missing: MissingWarn,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run streams rows until the source is exhausted, ctx is cancelled or the
// consumer of out goes away.
func (e *LineEmitter) Run(ctx context.Context) (summary Summary, err error) {
	start := time.Now()

	headers, err := e.rows.Headers()
	if err != nil {
		return summary, err
	}
	if !slices.Contains(headers, e.column) {
		return summary, &apperr.ColumnNotFoundError{
			Column:  e.column,
			Headers: slices.Clone(headers),
		}
	}

	e.logger.Debug("Starting emitter run",
		"column", e.column,
		"headers", headers,
		"missing_policy", e.missing,
	)

	defer func() {
		summary.Elapsed = time.Since(start)
		e.logger.Debug("Emitter run completed",
			"rows", summary.Rows,
			"emitted", summary.Emitted,
			"skipped", summary.Skipped,
			"total_delay", summary.TotalDelay,
			"elapsed", summary.Elapsed,
		)
	}()

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		record, err := e.rows.Next()
		if errors.Is(err, io.EOF) {
			return summary, nil
		}
		if err != nil {
			return summary, err
		}
		summary.Rows++

		if value, ok := record.Value(e.column); ok {
			if err := e.writeLine(value); err != nil {
				return summary, err
			}
			summary.Emitted++
		} else {
			e.skip(record)
			summary.Skipped++
		}

		d := e.policy.Next()
		if err := e.sleep(ctx, d); err != nil {
			return summary, err
		}
		summary.TotalDelay += d
	}
}

func (e *LineEmitter) writeLine(value string) error {
	if _, err := e.out.WriteString(value); err != nil {
		return e.writeErr(err)
	}
	if err := e.out.WriteByte('\n'); err != nil {
		return e.writeErr(err)
	}
	if err := e.out.Flush(); err != nil {
		return e.writeErr(err)
	}
	return nil
}

func (e *LineEmitter) writeErr(err error) error {
	if apperr.IsConsumerDisconnected(err) {
		return fmt.Errorf("%w: %w", apperr.ErrConsumerDisconnected, err)
	}
	return fmt.Errorf("write output: %w", err)
}

func (e *LineEmitter) skip(record reader.Record) {
	if e.missing != MissingWarn {
		return
	}
	e.logger.Warn("Missing value for column",
		"column", e.column,
		"line", record.Line,
		"row", record.Fields,
	)
}
