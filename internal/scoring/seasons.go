package scoring

import "github.com/code-zealots/cp-scoreboard/internal/types"

// Rating-tier breakpoints per platform. Codeforces and AtCoder map a
// problem rating onto 0..5; the 2023 revision collapsed codeforces to
// four coarser bands.
var (
	codeforcesTiers2022 = []float64{1000, 1500, 2000, 2500, 3000}
	atcoderTiers        = []float64{800, 1200, 1600, 2000, 2400}
	sixLevelValues      = []float64{0, 1, 2, 3, 4, 5}

	codeforcesTiers2023  = []float64{1200, 1900, 2400}
	codeforcesValues2023 = []float64{0, 0.5, 1, 2}
)

// rating2022 is the original rating-tier season: six-level tiers,
// upsolves void their points, unsolved ICPC submissions earn half
// credit.
type rating2022 struct{ baseRules }

func (rating2022) Name() string { return "rating2022" }

func (rating2022) BasePoints(sub types.Submission) float64 {
	switch sub.Platform {
	case types.PlatformCodeforces:
		return tierPoints(sub.Rating, codeforcesTiers2022, sixLevelValues)
	case types.PlatformAtcoder:
		return tierPoints(sub.Rating, atcoderTiers, sixLevelValues)
	case types.PlatformICPC:
		// Rating carries the "solved inside the contest window" flag.
		if sub.Rating == 1 {
			return 1
		}
		return 0.8
	}
	return 0
}

func (rating2022) UpsolveMultiplier(sub types.Submission) float64 {
	if sub.Upsolved {
		return 0
	}
	return 1
}

func (rating2022) SolvedMultiplier(sub types.Submission) float64 {
	if sub.Platform == types.PlatformICPC && !sub.Solved {
		return 0.5
	}
	return 1
}

// rating2023 is the coarse-band revision of the rating-tier rules:
// fewer codeforces tiers and upsolves worth half instead of nothing.
type rating2023 struct{ baseRules }

func (rating2023) Name() string { return "rating2023" }

func (rating2023) BasePoints(sub types.Submission) float64 {
	switch sub.Platform {
	case types.PlatformCodeforces:
		return tierPoints(sub.Rating, codeforcesTiers2023, codeforcesValues2023)
	case types.PlatformAtcoder:
		return tierPoints(sub.Rating, atcoderTiers, sixLevelValues)
	case types.PlatformICPC:
		if sub.Rating == 1 {
			return 1
		}
		return 0.8
	}
	return 0
}

func (rating2023) UpsolveMultiplier(sub types.Submission) float64 {
	if sub.Upsolved {
		return 0.5
	}
	return 1
}

// Point value per leading problem letter on codeforces. Letters past G
// all take the default.
var letterValues = map[byte]float64{
	'A': 0.25,
	'B': 0.5,
	'C': 1,
	'D': 1.5,
	'E': 2,
	'F': 4,
	'G': 6,
}

const letterDefault = 8

// letters2024 is the problem-difficulty season: codeforces points come
// from the problem letter, icpc and zealots are flat, and upsolve
// credit decays with the submission timestamp instead of the boolean
// flag whenever the timing fields are present.
type letters2024 struct{ baseRules }

func (letters2024) Name() string { return "letters2024" }

func (letters2024) BasePoints(sub types.Submission) float64 {
	switch sub.Platform {
	case types.PlatformCodeforces:
		if sub.ProblemID == "" {
			return 0
		}
		if v, ok := letterValues[sub.ProblemID[0]]; ok {
			return v
		}
		return letterDefault
	case types.PlatformICPC:
		return 1
	case types.PlatformZealots:
		return 0.1
	}
	return 0
}

func (letters2024) UpsolveMultiplier(sub types.Submission) float64 {
	if hasTiming(sub) {
		return decayWeight(sub)
	}
	if sub.Upsolved {
		return 0
	}
	return 1
}
