package dataset

import (
	"math"
	"sort"

	"github.com/okian/cupstats/internal/domain/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Info is the dataset overview shown on the Dataset Info screen. It always
// describes the raw table.
type Info struct {
	Preview []model.MatchRecord `json:"preview"`
	Rows    int                 `json:"rows"`
	Columns int                 `json:"columns"`
	DTypes  []ColumnType        `json:"dtypes"`
	Missing []ColumnCount       `json:"missing"`
	Summary []ColumnStats       `json:"summary"`
}

// ColumnType pairs a column with its dtype label.
type ColumnType struct {
	Field model.Field `json:"field"`
	DType string      `json:"dtype"`
}

// ColumnCount pairs a column with a count.
type ColumnCount struct {
	Field model.Field `json:"field"`
	Count int         `json:"count"`
}

// ColumnStats is the describe() row of a numeric column. Std is nil when
// fewer than two values exist.
type ColumnStats struct {
	Field model.Field `json:"field"`
	Count int         `json:"count"`
	Mean  float64     `json:"mean"`
	Std   *float64    `json:"std,omitempty"`
	Min   float64     `json:"min"`
	Q25   float64     `json:"p25"`
	Q50   float64     `json:"p50"`
	Q75   float64     `json:"p75"`
	Max   float64     `json:"max"`
}

// Describe summarises the raw table with up to previewRows leading rows.
// Missing integer cells are left out of the summary statistics.
func (d *Dataset) Describe(previewRows int) Info {
	raw := d.Raw
	cols := raw.Columns()
	info := Info{
		Preview: raw.Head(previewRows),
		Rows:    raw.Len(),
		Columns: len(cols),
		DTypes:  make([]ColumnType, 0, len(cols)),
		Missing: make([]ColumnCount, 0, len(cols)),
	}
	for _, c := range cols {
		info.DTypes = append(info.DTypes, ColumnType{Field: c.Field, DType: c.Kind.DType()})
		info.Missing = append(info.Missing, ColumnCount{Field: c.Field, Count: d.Missing(c.Field)})
		if c.Kind != model.KindInteger {
			continue
		}
		xs := make([]float64, 0, raw.Len())
		for i := 0; i < raw.Len(); i++ {
			if v := raw.Value(i, c.Field); !v.Null {
				xs = append(xs, float64(v.Int))
			}
		}
		if len(xs) == 0 {
			continue
		}
		info.Summary = append(info.Summary, describe(c.Field, xs))
	}
	return info
}

func describe(f model.Field, xs []float64) ColumnStats {
	sort.Float64s(xs)
	mean, std := stat.MeanStdDev(xs, nil)
	s := ColumnStats{
		Field: f,
		Count: len(xs),
		Mean:  mean,
		Min:   floats.Min(xs),
		Q25:   quantile(xs, 0.25),
		Q50:   quantile(xs, 0.50),
		Q75:   quantile(xs, 0.75),
		Max:   floats.Max(xs),
	}
	if len(xs) > 1 && !math.IsNaN(std) {
		s.Std = &std
	}
	return s
}

// quantile interpolates linearly between closest ranks of sorted xs.
func quantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[i]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
