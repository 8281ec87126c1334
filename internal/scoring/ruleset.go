package scoring

import (
	"fmt"
	"sort"

	"github.com/code-zealots/cp-scoreboard/internal/types"
)

// Ruleset is one season's scoring rules. Every method is a pure
// function of the submission; unrecognized platforms yield the neutral
// value (0 base points, 1x multipliers) so the chain stays total.
type Ruleset interface {
	Name() string

	// BasePoints maps a submission to its raw point value before
	// multipliers.
	BasePoints(sub types.Submission) float64

	// DivisionMultiplier, PartMultiplier, UpsolveMultiplier and
	// SolvedMultiplier each return an independent factor in [0, inf).
	// The factors commute.
	DivisionMultiplier(sub types.Submission) float64
	PartMultiplier(sub types.Submission) float64
	UpsolveMultiplier(sub types.Submission) float64
	SolvedMultiplier(sub types.Submission) float64

	// ParticipationBonus returns the attendance bonus for one distinct
	// contest. running is the participation already accumulated for
	// the same handle within the current fold.
	ParticipationBonus(platform types.Platform, contest ContestStanding, running float64) float64
}

// ContestStanding summarizes one handle's submissions within a single
// contest, built in a pre-pass before the per-contest bonus is
// computed.
type ContestStanding struct {
	Division int
	Solved   bool // at least one solved submission, upsolves included
	Live     bool // at least one non-upsolved submission
}

// Score applies the full multiplier chain of r to one submission.
func Score(r Ruleset, sub types.Submission) float64 {
	return r.BasePoints(sub) *
		r.DivisionMultiplier(sub) *
		r.PartMultiplier(sub) *
		r.UpsolveMultiplier(sub) *
		r.SolvedMultiplier(sub)
}

var divisionWeights = map[int]float64{
	1: 4,
	2: 1,
	3: 0.25,
	4: 0.125,
}

const (
	upsolveGraceSeconds = 604800 // 7 days past contest end

	codeforcesAttendanceBonus = 0.5

	// ICPC attendance is boosted 5x until a handle's accumulated
	// participation reaches this cap, then drops to 1x. The constant
	// is historical; it predates the rulesets kept here.
	icpcBoostCeiling = 55
	icpcBoostRate    = 5
)

// baseRules carries the multiplier chain and participation rules
// shared by all seasons. Concrete rulesets embed it and override what
// their season changed.
type baseRules struct{}

func (baseRules) DivisionMultiplier(sub types.Submission) float64 {
	if sub.Platform != types.PlatformCodeforces {
		return 1
	}
	if w, ok := divisionWeights[sub.Division]; ok {
		return w
	}
	return 1
}

func (baseRules) PartMultiplier(sub types.Submission) float64 {
	// Sub-parts like "C2" earn half credit.
	if sub.Platform == types.PlatformCodeforces && len(sub.ProblemID) > 1 {
		return 0.5
	}
	return 1
}

func (baseRules) SolvedMultiplier(sub types.Submission) float64 {
	return 1
}

func (baseRules) ParticipationBonus(platform types.Platform, contest ContestStanding, running float64) float64 {
	switch platform {
	case types.PlatformCodeforces:
		if contest.Live {
			return codeforcesAttendanceBonus
		}
		return 0
	case types.PlatformICPC:
		rate := 1.0
		if running < icpcBoostCeiling {
			rate = icpcBoostRate
		}
		solved := 0.5
		if contest.Solved {
			solved = 1
		}
		return float64(contest.Division) * solved * rate
	}
	return 0
}

// hasTiming reports whether both timestamp fields are usable; when
// they are, decay-mode upsolve scoring supersedes the boolean flag.
func hasTiming(sub types.Submission) bool {
	return sub.SubmissionTime > 0 && sub.ContestEndTime > 0
}

// decayWeight is the timestamp-decay upsolve factor: full credit inside
// the contest window, half within seven days after, nothing later.
func decayWeight(sub types.Submission) float64 {
	switch {
	case sub.SubmissionTime <= sub.ContestEndTime:
		return 1
	case sub.SubmissionTime <= sub.ContestEndTime+upsolveGraceSeconds:
		return 0.5
	default:
		return 0
	}
}

// tierPoints evaluates a rating step function: the value at index i
// applies below breakpoints[i], the last value above them all.
// breakpoints must be ascending and len(values) == len(breakpoints)+1.
func tierPoints(rating float64, breakpoints []float64, values []float64) float64 {
	for i, bp := range breakpoints {
		if rating < bp {
			return values[i]
		}
	}
	return values[len(values)-1]
}

var rulesets = map[string]func() Ruleset{
	"rating2022":  func() Ruleset { return rating2022{} },
	"rating2023":  func() Ruleset { return rating2023{} },
	"letters2024": func() Ruleset { return letters2024{} },
}

// ByName returns the ruleset registered under name.
func ByName(name string) (Ruleset, error) {
	mk, ok := rulesets[name]
	if !ok {
		return nil, fmt.Errorf("unknown ruleset %q", name)
	}
	return mk(), nil
}

// Names lists all registered ruleset names, sorted.
func Names() []string {
	names := make([]string, 0, len(rulesets))
	for name := range rulesets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the ruleset of the current season.
func Default() Ruleset { return letters2024{} }
