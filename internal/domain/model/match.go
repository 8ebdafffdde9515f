// Package model contains domain models passed between layers.
package model

import "strconv"

// MatchRecord is one row of the raw results table. Most physical matches
// appear twice, once from each team's perspective.
type MatchRecord struct {
	Year          int    `json:"year"`           // season identifier
	Game          int    `json:"game"`           // per-season sequence number
	Country       string `json:"country"`        // host country
	Stadium       string `json:"stadium"`        // venue
	Round         string `json:"round"`          // stage name, e.g. "Final"
	Team          string `json:"team"`           // perspective team
	Opponent      string `json:"opponent"`       // other side
	TeamGoals     int    `json:"team_goals"`     // goals scored by Team
	OpponentGoals int    `json:"opponent_goals"` // goals scored by Opponent

	// Blank marks integer cells that were empty in the source. Their int
	// fields hold zero and read back as Null values.
	Blank FieldSet `json:"-"`
}

// Cells renders the record in column order. Missing integer cells read "NaN".
func (r MatchRecord) Cells() []string {
	m := Match{MatchRecord: r}
	out := make([]string, len(RawColumns))
	for i, c := range RawColumns {
		v, _ := m.Get(c.Field)
		out[i] = v.String()
	}
	return out
}

// Key returns the identity of the physical match the record belongs to.
func (r MatchRecord) Key() MatchKey {
	return MatchKey{
		Year:      r.Year,
		Game:      r.Game,
		YearBlank: r.Blank.Has(FieldYear),
		GameBlank: r.Blank.Has(FieldGame),
	}
}

// Match is one physical match after deduplication. TotalGoals is fixed at
// dedup time and never recomputed.
type Match struct {
	MatchRecord
	TotalGoals int `json:"total_goals"`
}

// NewMatch derives a Match from the first record seen for its key. A missing
// goal cell leaves TotalGoals missing too.
func NewMatch(r MatchRecord) Match {
	if r.Blank.Has(FieldTeamGoals) || r.Blank.Has(FieldOpponentGoals) {
		r.Blank = r.Blank.With(FieldTotalGoals)
	}
	return Match{MatchRecord: r, TotalGoals: r.TeamGoals + r.OpponentGoals}
}

// MatchKey identifies a physical match. Missing parts compare equal to each
// other and to nothing else.
type MatchKey struct {
	Year      int
	Game      int
	YearBlank bool
	GameBlank bool
}

// String renders the key as "<year>#<game>", with "NaN" for a missing part.
func (k MatchKey) String() string {
	return part(k.Year, k.YearBlank) + "#" + part(k.Game, k.GameBlank)
}

func part(n int, blank bool) string {
	if blank {
		return "NaN"
	}
	return strconv.Itoa(n)
}
