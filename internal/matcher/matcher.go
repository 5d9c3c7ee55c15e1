package matcher

import (
	"sort"

	"github.com/desertthunder/xfer/internal/models"
)

// Confidence tier lower bounds.
const (
	HighThreshold   = 0.7
	MediumThreshold = 0.5
	LowThreshold    = 0.3
)

// Score weights and bonuses.
const (
	titleWeightWithArtist    = 0.6
	artistWeightWithArtist   = 0.4
	titleWeightWithoutArtist = 0.9
	artistWeightNoArtist     = 0.1

	closeDurationSeconds = 10
	closeDurationBonus   = 0.15
	nearDurationSeconds  = 30
	nearDurationBonus    = 0.05

	strongTitleThreshold = 0.85
	weakArtistThreshold  = 0.5
	strongTitleBonus     = 0.10
)

// Match reasons.
const (
	ReasonExact          = "Exact match"
	ReasonHighSimilarity = "High similarity"
	ReasonTitle          = "Title match"
	ReasonPartial        = "Partial match"
)

// Scored is a candidate with its match score and the components it was built from.
type Scored struct {
	Track       models.Track
	Score       float64
	TitleScore  float64
	ArtistScore float64
}

// Reason describes which components made the candidate score.
func (s Scored) Reason() string {
	switch {
	case s.TitleScore > 0.9 && s.ArtistScore > 0.9:
		return ReasonExact
	case s.TitleScore > 0.8 && s.ArtistScore > 0.7:
		return ReasonHighSimilarity
	case s.TitleScore > 0.6:
		return ReasonTitle
	default:
		return ReasonPartial
	}
}

// Classify maps a match score to its confidence tier.
func Classify(score float64) models.Confidence {
	switch {
	case score >= HighThreshold:
		return models.ConfidenceHigh
	case score >= MediumThreshold:
		return models.ConfidenceMedium
	case score >= LowThreshold:
		return models.ConfidenceLow
	default:
		return models.ConfidenceNone
	}
}

// SourceFields returns the title and artist used to compare source against candidates.
// Tracks from video platforms without an artist are split with [ParseTitle].
func SourceFields(source models.Track) (title, artist string) {
	if source.Platform.VideoOriented() && source.Artist == "" {
		parsed := ParseTitle(source.Title)
		return parsed.Title, parsed.Artist
	}
	return source.Title, source.Artist
}

// ScoreCandidate computes the weighted score of candidate against the source fields.
func ScoreCandidate(title, artist string, duration int, candidate models.Track) Scored {
	s := Scored{Track: candidate, TitleScore: Similarity(title, candidate.Title)}
	if artist != "" && candidate.Artist != "" {
		s.ArtistScore = Similarity(artist, candidate.Artist)
	}

	wTitle, wArtist := titleWeightWithoutArtist, artistWeightNoArtist
	if artist != "" {
		wTitle, wArtist = titleWeightWithArtist, artistWeightWithArtist
	}
	s.Score = s.TitleScore*wTitle + s.ArtistScore*wArtist

	if duration > 0 && candidate.HasDuration() {
		delta := abs(duration - candidate.Duration)
		switch {
		case delta <= closeDurationSeconds:
			s.Score += closeDurationBonus
		case delta <= nearDurationSeconds:
			s.Score += nearDurationBonus
		}
	}

	if s.TitleScore > strongTitleThreshold && s.ArtistScore < weakArtistThreshold {
		s.Score += strongTitleBonus
	}
	return s
}

// Rank scores every candidate against source and returns them by descending score.
// Candidates with equal scores keep their input order.
func Rank(source models.Track, candidates []models.Track) []Scored {
	title, artist := SourceFields(source)
	scored := make([]Scored, len(candidates))
	for i, c := range candidates {
		scored[i] = ScoreCandidate(title, artist, source.Duration, c)
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored
}

// Match selects the best of candidates for source.
//
// The winner is the highest scoring candidate, the first one seen on ties. Its score is
// classified with [Classify]; a [models.ConfidenceNone] tier discards the match. The
// result always carries every candidate in AllCandidates.
func Match(source models.Track, candidates []models.Track) models.MatchResult {
	result := models.NoMatch(source)
	if len(candidates) == 0 {
		return result
	}
	result.AllCandidates = candidates

	best := Rank(source, candidates)[0]
	confidence := Classify(best.Score)
	if confidence == models.ConfidenceNone {
		return result
	}

	matched := best.Track
	result.Matched = &matched
	result.Confidence = confidence
	result.Reason = best.Reason()
	return result
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
