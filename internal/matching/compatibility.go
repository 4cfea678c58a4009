// Package matching scores pairwise music-taste compatibility between
// profiles. Scoring is deterministic and symmetric and depends only on
// the two profile values passed in.
package matching

import (
	"sort"
	"strings"

	"tunematch/internal/domain"
)

const (
	artistWeight = 0.4
	genreWeight  = 0.3
	trackWeight  = 0.3
)

// Match pairs a candidate profile with its compatibility score.
type Match struct {
	Profile domain.Profile
	Score   float64
}

// Score returns a compatibility value in [0,1] for the two profiles.
//
// Artist and genre overlap are raw pair counts under case-insensitive
// equality, so duplicate names on either side each contribute; shared
// tracks contribute 1-|ratingA-ratingB|. Each component is normalized by
// the longer of the two lists and contributes 0 when there is no overlap
// at all, including the empty-versus-empty case: no evidence of
// similarity is not similarity.
func Score(a, b domain.Profile) float64 {
	artistScore := overlapScore(a.TopArtists, b.TopArtists)
	genreScore := overlapScore(a.TopGenres, b.TopGenres)
	trackScore := ratingScore(a.MusicPreferences, b.MusicPreferences)

	score := artistWeight*artistScore + genreWeight*genreScore + trackWeight*trackScore

	// duplicate names can push a component past 1, so clamp the total
	return clamp01(score)
}

// overlapScore counts matching pairs between the two lists and divides
// by the longer list length.
func overlapScore(listA, listB []string) float64 {
	matches := 0
	for _, itemA := range listA {
		for _, itemB := range listB {
			if strings.EqualFold(itemA, itemB) {
				matches++
			}
		}
	}
	if matches == 0 {
		return 0
	}
	return float64(matches) / float64(max(len(listA), len(listB)))
}

// ratingScore sums rating closeness over track pairs that share a
// track ID and divides by the longer preference list.
func ratingScore(prefsA, prefsB []domain.MusicPreference) float64 {
	sum := 0.0
	matched := false
	for _, prefA := range prefsA {
		for _, prefB := range prefsB {
			if prefA.TrackID == prefB.TrackID {
				diff := prefA.Rating - prefB.Rating
				if diff < 0 {
					diff = -diff
				}
				sum += 1 - diff
				matched = true
			}
		}
	}
	if !matched {
		return 0
	}
	return sum / float64(max(len(prefsA), len(prefsB)))
}

// Rank scores the requester against every candidate, drops the
// requester itself and anything under minScore, and orders the result
// descending by score. Candidate enumeration order breaks ties, so the
// ranking is stable for a given store.
func Rank(requester domain.Profile, candidates []domain.Profile, minScore float64) []Match {
	var matches []Match
	for _, candidate := range candidates {
		if candidate.UserID == requester.UserID {
			continue
		}
		score := Score(requester, candidate)
		if score >= minScore {
			matches = append(matches, Match{Profile: candidate, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
