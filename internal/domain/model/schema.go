package model

import (
	"cmp"
	"strconv"
)

// Field names a column of a match table. Values match the spreadsheet headers.
type Field string

// Columns of the results spreadsheet plus the derived TotalGoals column.
const (
	FieldYear          Field = "Year"
	FieldGame          Field = "Game #"
	FieldCountry       Field = "Country"
	FieldStadium       Field = "Stadium"
	FieldRound         Field = "Round"
	FieldTeam          Field = "Team"
	FieldOpponent      Field = "Opponent"
	FieldTeamGoals     Field = "Team G"
	FieldOpponentGoals Field = "Opponent G"
	FieldTotalGoals    Field = "TotalGoals"
)

var headerAliases = map[Field][]string{
	FieldGame: {"Game#"},
}

// Headers lists the spreadsheet header spellings accepted for f.
func (f Field) Headers() []string {
	return append([]string{string(f)}, headerAliases[f]...)
}

// Kind is the semantic type of a column.
type Kind int

const (
	KindText Kind = iota
	KindInteger
)

// DType returns the dtype label shown on the dataset info screen.
func (k Kind) DType() string {
	if k == KindInteger {
		return "int64"
	}
	return "object"
}

// Column pairs a field with its semantic type.
type Column struct {
	Field Field `json:"field"`
	Kind  Kind  `json:"kind"`
}

// RawColumns is the required column set of the source spreadsheet, in file order.
var RawColumns = []Column{
	{Field: FieldYear, Kind: KindInteger},
	{Field: FieldGame, Kind: KindInteger},
	{Field: FieldCountry, Kind: KindText},
	{Field: FieldStadium, Kind: KindText},
	{Field: FieldRound, Kind: KindText},
	{Field: FieldTeam, Kind: KindText},
	{Field: FieldOpponent, Kind: KindText},
	{Field: FieldTeamGoals, Kind: KindInteger},
	{Field: FieldOpponentGoals, Kind: KindInteger},
}

// MatchColumns is RawColumns with TotalGoals appended.
var MatchColumns = append(append([]Column(nil), RawColumns...), Column{Field: FieldTotalGoals, Kind: KindInteger})

// Value is a single typed cell read from a match row. Null marks a cell
// that was empty in the source.
type Value struct {
	Kind Kind
	Text string
	Int  int64
	Null bool
}

// NullValue is a missing cell of kind k.
func NullValue(k Kind) Value { return Value{Kind: k, Null: true} }

// Empty reports whether the cell holds nothing: a missing cell or empty text.
func (v Value) Empty() bool {
	return v.Null || (v.Kind == KindText && v.Text == "")
}

// TextValue wraps a string cell.
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

// IntValue wraps an integer cell.
func IntValue(n int) Value { return Value{Kind: KindInteger, Int: int64(n)} }

// String renders the value as a label.
func (v Value) String() string {
	if v.Null {
		return "NaN"
	}
	if v.Kind == KindInteger {
		return strconv.FormatInt(v.Int, 10)
	}
	return v.Text
}

// Compare orders integers numerically and text lexically.
func (v Value) Compare(o Value) int {
	if v.Kind == KindInteger && o.Kind == KindInteger {
		return cmp.Compare(v.Int, o.Int)
	}
	return cmp.Compare(v.String(), o.String())
}

// FieldSet is a set of match fields.
type FieldSet uint16

func fieldBit(f Field) FieldSet {
	for i, c := range MatchColumns {
		if c.Field == f {
			return 1 << i
		}
	}
	return 0
}

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool {
	b := fieldBit(f)
	return b != 0 && s&b != 0
}

// With returns the set with f added.
func (s FieldSet) With(f Field) FieldSet { return s | fieldBit(f) }

// Get reads field f of the match. The second return is false for unknown
// fields. Integer cells left empty in the source come back Null.
func (m Match) Get(f Field) (Value, bool) {
	v, ok := m.get(f)
	if ok && v.Kind == KindInteger && m.Blank.Has(f) {
		return NullValue(KindInteger), true
	}
	return v, ok
}

func (m Match) get(f Field) (Value, bool) {
	switch f {
	case FieldYear:
		return IntValue(m.Year), true
	case FieldGame:
		return IntValue(m.Game), true
	case FieldCountry:
		return TextValue(m.Country), true
	case FieldStadium:
		return TextValue(m.Stadium), true
	case FieldRound:
		return TextValue(m.Round), true
	case FieldTeam:
		return TextValue(m.Team), true
	case FieldOpponent:
		return TextValue(m.Opponent), true
	case FieldTeamGoals:
		return IntValue(m.TeamGoals), true
	case FieldOpponentGoals:
		return IntValue(m.OpponentGoals), true
	case FieldTotalGoals:
		return IntValue(m.TotalGoals), true
	}
	return Value{}, false
}
