package models

import (
	"fmt"
	"strings"
)

// Confidence is the trust tier assigned to an automatic match, ordered High > Medium > Low > None.
type Confidence int

const (
	ConfidenceNone Confidence = iota
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// ParseConfidence parses the textual form produced by [Confidence.String].
func ParseConfidence(s string) (Confidence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return ConfidenceHigh, nil
	case "medium":
		return ConfidenceMedium, nil
	case "low":
		return ConfidenceLow, nil
	case "none", "":
		return ConfidenceNone, nil
	default:
		return ConfidenceNone, fmt.Errorf("unknown confidence %q", s)
	}
}

func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Confidence) UnmarshalText(text []byte) error {
	parsed, err := ParseConfidence(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MaxSuggestions caps the number of manual-override suggestions carried by a [MatchResult].
const MaxSuggestions = 5

// ReasonManual is the match reason recorded by [MatchResult.Override].
const ReasonManual = "Manually selected"

// MatchResult is the outcome of matching one source track.
//
// Confidence [ConfidenceNone] always comes with a nil Matched track.
type MatchResult struct {
	Source        Track      `json:"source"`
	Matched       *Track     `json:"matched,omitempty"`
	Confidence    Confidence `json:"confidence"`
	Reason        string     `json:"reason,omitempty"`
	Suggestions   []Track    `json:"suggestions"`
	AllCandidates []Track    `json:"all_candidates,omitempty"`
	Error         error      `json:"-"`
}

// NoMatch returns a result with confidence none for source.
func NoMatch(source Track) MatchResult {
	return MatchResult{Source: source, Confidence: ConfidenceNone, Suggestions: []Track{}}
}

// IsMatched reports whether a destination track was selected.
func (r MatchResult) IsMatched() bool {
	return r.Matched != nil
}

// Uncertain reports whether the result should be offered for manual review.
func (r MatchResult) Uncertain() bool {
	return r.Matched == nil || r.Confidence <= ConfidenceLow
}

// Override returns a copy of r with track selected manually.
func (r MatchResult) Override(track Track) MatchResult {
	out := r
	selected := track
	out.Matched = &selected
	out.Confidence = ConfidenceHigh
	out.Reason = ReasonManual
	return out
}

// Clear returns a copy of r with any selected track removed.
func (r MatchResult) Clear() MatchResult {
	out := r
	out.Matched = nil
	out.Confidence = ConfidenceNone
	out.Reason = ""
	return out
}

// MatchedTracks returns the selected destination tracks of results in order, skipping unmatched ones.
func MatchedTracks(results []MatchResult) []Track {
	tracks := make([]Track, 0, len(results))
	for _, r := range results {
		if r.Matched != nil {
			tracks = append(tracks, *r.Matched)
		}
	}
	return tracks
}
