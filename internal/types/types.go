package types

// Platform identifies the judge a submission was fetched from.
type Platform string

const (
	PlatformCodeforces Platform = "codeforces"
	PlatformAtcoder    Platform = "atcoder"
	PlatformICPC       Platform = "icpc"
	PlatformZealots    Platform = "zealots"
)

// Known reports whether p is one of the platforms the updater emits.
func (p Platform) Known() bool {
	switch p {
	case PlatformCodeforces, PlatformAtcoder, PlatformICPC, PlatformZealots:
		return true
	}
	return false
}

// UnknownRating is the sentinel the updater writes when a problem has
// no difficulty rating. Such submissions score 0 and are tallied as a
// diagnostic, never treated as an error.
const UnknownRating = -1

// Submission is one accepted submission from the flat submission log.
// For icpc entries Rating encodes a "solved within the contest window"
// flag (1 or 0), not a difficulty.
type Submission struct {
	Handle         string   `json:"handle"`
	Platform       Platform `json:"platform"`
	ContestID      string   `json:"contest_id"`
	ProblemID      string   `json:"problem_id"`
	Rating         float64  `json:"rating"`
	Division       int      `json:"division"`
	Solved         bool     `json:"solved"`
	Upsolved       bool     `json:"upsolved"`
	SubmissionTime int64    `json:"submission_time"`
	ContestEndTime int64    `json:"contest_end_time"`
}

// HandleMapping links a site username to the handles it owns per
// platform. ICPC and zealots submissions are keyed under the
// codeforces handle list; no separate lists exist for them.
type HandleMapping struct {
	Username          string   `json:"username"`
	CodeforcesHandles []string `json:"codeforces_handles"`
	AtcoderHandles    []string `json:"atcoder_handles"`
}
