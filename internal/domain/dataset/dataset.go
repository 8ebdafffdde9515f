package dataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/cupstats/internal/domain/dedupe"
	"github.com/okian/cupstats/internal/domain/model"
	"github.com/okian/cupstats/pkg/logger"
)

// Dataset holds the two base tables for one process run. Both are read-only
// after construction.
type Dataset struct {
	// Version identifies this load; caches key on it.
	Version string
	// Source is the path the data came from, empty for in-memory builds.
	Source string

	Raw     *Table
	Matches *Table

	// Dropped counts raw rows collapsed by deduplication.
	Dropped int
	// Overflow lists match keys that had more than two raw rows.
	Overflow []string

	missing map[model.Field]int
}

// Option configures Build and Load.
type Option func(*options)

type options struct {
	sheet   string
	strict  bool
	source  string
	missing map[model.Field]int
	log     logger.Logger
}

// WithSheet selects the spreadsheet sheet to read. Defaults to the first sheet.
func WithSheet(name string) Option {
	return func(o *options) { o.sheet = strings.TrimSpace(name) }
}

// WithStrictDedupe makes keys with more than two raw rows a load failure.
func WithStrictDedupe(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithLogger sets the logger used while loading.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMissing records per-column empty-cell counts observed in the source.
func WithMissing(missing map[model.Field]int) Option {
	return func(o *options) { o.missing = missing }
}

func withSource(path string) Option {
	return func(o *options) { o.source = path }
}

func newOptions(opts []Option) *options {
	o := &options{log: logger.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Build derives the deduplicated table from raw records. The first record of
// each (Year, Game #) pair in input order wins; later ones are dropped.
func Build(ctx context.Context, records []model.MatchRecord, opts ...Option) (*Dataset, error) {
	o := newOptions(opts)

	d := dedupe.NewInMemoryDeduper()
	matches := make([]model.Match, 0, len(records)/2+1)
	for _, r := range records {
		if d.SeenAndRecord(ctx, r.Key().String()) {
			continue
		}
		matches = append(matches, model.NewMatch(r))
	}

	overflow := d.Overflow()
	if len(overflow) > 0 {
		if o.strict {
			return nil, loadError(o.source, "dedupe", fmt.Errorf("%w: %s", dedupe.ErrTooManyRows, strings.Join(overflow, ", ")))
		}
		o.log.Warn(ctx, "match keys with more than two rows collapsed",
			logger.Int("keys", len(overflow)),
			logger.String("first", overflow[0]),
		)
	}

	missing := make(map[model.Field]int, len(model.RawColumns))
	for _, c := range model.RawColumns {
		missing[c.Field] = o.missing[c.Field]
	}

	ds := &Dataset{
		Version:  uuid.NewString(),
		Source:   o.source,
		Raw:      NewRawTable(records),
		Matches:  NewMatchesTable(matches),
		Dropped:  len(records) - len(matches),
		Overflow: overflow,
		missing:  missing,
	}
	o.log.Info(ctx, "dataset ready",
		logger.String("version", ds.Version),
		logger.Int("raw_rows", ds.Raw.Len()),
		logger.Int("matches", ds.Matches.Len()),
		logger.Int("dropped", ds.Dropped),
	)
	return ds, nil
}

// Missing returns the empty-cell count for field f in the source.
func (d *Dataset) Missing(f model.Field) int {
	return d.missing[f]
}
