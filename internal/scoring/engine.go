package scoring

import (
	"sort"
	"strings"

	"github.com/code-zealots/cp-scoreboard/internal/types"
)

// Breakdown is one user's score, split the way the leaderboard renders
// it: problem points per platform, attendance bonuses where a platform
// awards them, and the unknown-rating diagnostic counts.
type Breakdown struct {
	Codeforces              float64 `json:"codeforces"`
	Atcoder                 float64 `json:"atcoder"`
	ICPC                    float64 `json:"icpc"`
	Zealots                 float64 `json:"zealots"`
	CodeforcesParticipation float64 `json:"codeforces_participation"`
	ICPCParticipation       float64 `json:"icpc_participation"`
	UnknownCodeforces       int     `json:"unknown_codeforces"`
	UnknownAtcoder          int     `json:"unknown_atcoder"`
	Total                   float64 `json:"total"`
}

// Row is one ranked leaderboard entry. Rank is assigned exactly once,
// during Table.
type Row struct {
	Rank      int       `json:"rank"`
	Username  string    `json:"username"`
	Breakdown Breakdown `json:"breakdown"`
}

// Engine computes scores for one immutable pair of datasets under one
// ruleset. It never mutates its inputs and allocates fresh results per
// call, so a single Engine is safe for concurrent use.
type Engine struct {
	rules    Ruleset
	mappings []types.HandleMapping
	byHandle map[string][]types.Submission
}

// NewEngine indexes submissions by lower-cased handle once, so per-user
// aggregation does not rescan the full log.
func NewEngine(rules Ruleset, submissions []types.Submission, mappings []types.HandleMapping) *Engine {
	byHandle := make(map[string][]types.Submission)
	for _, sub := range submissions {
		key := strings.ToLower(sub.Handle)
		byHandle[key] = append(byHandle[key], sub)
	}
	return &Engine{
		rules:    rules,
		mappings: mappings,
		byHandle: byHandle,
	}
}

// Ruleset returns the ruleset the engine scores under.
func (e *Engine) Ruleset() Ruleset { return e.rules }

// Points computes the breakdown for one username. Unknown usernames
// and usernames without handles get an all-zero breakdown, never an
// error.
func (e *Engine) Points(username string) Breakdown {
	var b Breakdown

	mapping, ok := e.mapping(username)
	if !ok {
		return b
	}

	for _, handle := range mapping.CodeforcesHandles {
		points, unknown := e.problemPoints(handle, types.PlatformCodeforces)
		b.Codeforces += points
		b.UnknownCodeforces += unknown

		// ICPC and zealots ride on the codeforces handle list.
		icpc, _ := e.problemPoints(handle, types.PlatformICPC)
		b.ICPC += icpc
		zealots, _ := e.problemPoints(handle, types.PlatformZealots)
		b.Zealots += zealots

		b.CodeforcesParticipation += e.participation(handle, types.PlatformCodeforces)
		b.ICPCParticipation += e.participation(handle, types.PlatformICPC)
	}

	for _, handle := range mapping.AtcoderHandles {
		points, unknown := e.problemPoints(handle, types.PlatformAtcoder)
		b.Atcoder += points
		b.UnknownAtcoder += unknown
	}

	b.Total = b.Codeforces + b.Atcoder + b.ICPC + b.Zealots +
		b.CodeforcesParticipation + b.ICPCParticipation
	return b
}

// Table builds one row per handle mapping, sorted by total descending
// with competition ranks: tied totals share a rank and the first row
// of a tied block gets its 1-based position, so ranks run 1-2-2-4.
func (e *Engine) Table() []Row {
	rows := make([]Row, 0, len(e.mappings))
	for _, mapping := range e.mappings {
		rows = append(rows, Row{
			Username:  mapping.Username,
			Breakdown: e.Points(mapping.Username),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Breakdown.Total > rows[j].Breakdown.Total
	})

	for i := range rows {
		if i > 0 && rows[i].Breakdown.Total == rows[i-1].Breakdown.Total {
			rows[i].Rank = rows[i-1].Rank
		} else {
			rows[i].Rank = i + 1
		}
	}
	return rows
}

func (e *Engine) mapping(username string) (types.HandleMapping, bool) {
	for _, m := range e.mappings {
		if m.Username == username {
			return m, true
		}
	}
	return types.HandleMapping{}, false
}

// problemPoints sums the scored submissions of one handle on one
// platform. Submissions with the unknown-rating sentinel contribute
// nothing and are counted separately; the count only surfaces for the
// platforms that carry real ratings.
func (e *Engine) problemPoints(handle string, platform types.Platform) (points float64, unknown int) {
	for _, sub := range e.byHandle[strings.ToLower(handle)] {
		if sub.Platform != platform {
			continue
		}
		if ratingCarrying(platform) && sub.Rating == types.UnknownRating {
			unknown++
			continue
		}
		points += Score(e.rules, sub)
	}
	return points, unknown
}

// participation folds the attendance bonus over one handle's distinct
// contests on one platform, in first-seen order. Standings are built
// in a pre-pass so a contest counts as solved when any of its
// submissions is, upsolved or not.
func (e *Engine) participation(handle string, platform types.Platform) float64 {
	var order []string
	standings := make(map[string]*ContestStanding)

	for _, sub := range e.byHandle[strings.ToLower(handle)] {
		if sub.Platform != platform {
			continue
		}
		st, ok := standings[sub.ContestID]
		if !ok {
			st = &ContestStanding{Division: sub.Division}
			standings[sub.ContestID] = st
			order = append(order, sub.ContestID)
		}
		if sub.Solved {
			st.Solved = true
		}
		if !sub.Upsolved {
			st.Live = true
		}
	}

	running := 0.0
	for _, contestID := range order {
		running += e.rules.ParticipationBonus(platform, *standings[contestID], running)
	}
	return running
}

// ratingCarrying reports whether a platform's submissions carry a real
// difficulty rating. ICPC abuses the field as a solved flag and
// zealots has none, so neither takes part in unknown-rating
// bookkeeping.
func ratingCarrying(platform types.Platform) bool {
	return platform == types.PlatformCodeforces || platform == types.PlatformAtcoder
}
