package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okian/cupstats/internal/domain/model"
	"github.com/okian/cupstats/pkg/logger"
	"github.com/xuri/excelize/v2"
)

// Load reads the results table at path and builds the Dataset. Spreadsheets
// (.xlsx, .xlsm) are read with excelize; .csv files with encoding/csv.
// Every failure is a *LoadError.
func Load(ctx context.Context, path string, opts ...Option) (*Dataset, error) {
	o := newOptions(opts)
	o.log.Info(ctx, "loading dataset", logger.String("path", path))

	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		rows, err = readSpreadsheet(path, o.sheet)
	case ".csv":
		rows, err = readCSV(path)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		o.log.Error(ctx, "dataset read failed", logger.String("path", path), logger.Error(err))
		return nil, loadError(path, "read", err)
	}

	records, missing, err := parseRows(rows)
	if err != nil {
		return nil, loadError(path, "parse", err)
	}

	opts = append(opts, withSource(path), WithMissing(missing))
	return Build(ctx, records, opts...)
}

func readSpreadsheet(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = file.Close() }()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// parseRows maps the header onto the static schema and converts every data
// row. Extra columns are ignored; a missing required column is a SchemaError.
// Empty cells are counted as missing; a non-numeric integer cell fails.
func parseRows(rows [][]string) ([]model.MatchRecord, map[model.Field]int, error) {
	if len(rows) == 0 {
		return nil, nil, errors.New("no header row")
	}

	header := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := header[name]; !dup {
			header[name] = i
		}
	}
	idx := make(map[model.Field]int, len(model.RawColumns))
	for _, c := range model.RawColumns {
		found := false
		for _, h := range c.Field.Headers() {
			if i, ok := header[h]; ok {
				idx[c.Field] = i
				found = true
				break
			}
		}
		if !found {
			return nil, nil, model.NewSchemaError("source", string(c.Field))
		}
	}

	missing := make(map[model.Field]int, len(model.RawColumns))
	records := make([]model.MatchRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if blank(row) {
			continue
		}
		line := n + 2 // 1-based, header is line 1
		cell := func(f model.Field) string {
			i := idx[f]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		text := func(f model.Field) string {
			v := cell(f)
			if v == "" {
				missing[f]++
			}
			return v
		}
		var (
			perr  error
			empty model.FieldSet
		)
		integer := func(f model.Field) int {
			v := cell(f)
			if v == "" {
				missing[f]++
				empty = empty.With(f)
				return 0
			}
			n, err := parseInt(v)
			if err != nil && perr == nil {
				perr = fmt.Errorf("row %d: column %q: %w", line, f, err)
			}
			return n
		}

		rec := model.MatchRecord{
			Year:          integer(model.FieldYear),
			Game:          integer(model.FieldGame),
			Country:       text(model.FieldCountry),
			Stadium:       text(model.FieldStadium),
			Round:         text(model.FieldRound),
			Team:          text(model.FieldTeam),
			Opponent:      text(model.FieldOpponent),
			TeamGoals:     integer(model.FieldTeamGoals),
			OpponentGoals: integer(model.FieldOpponentGoals),
		}
		rec.Blank = empty
		if perr != nil {
			return nil, nil, perr
		}
		records = append(records, rec)
	}
	return records, missing, nil
}

// parseInt accepts plain integers and integral floats such as "2018.0".
func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
