package service

import (
	"context"
	"errors"
	"fmt"

	"tunematch/internal/matching"
	"tunematch/internal/repository"
)

// MatchService ranks other users by music-taste compatibility.
type MatchService interface {
	// FindMatches compares the user's profile against every other stored
	// profile and returns candidates scoring at least minCompatibility,
	// best first. A requester without a stored profile matches nobody.
	FindMatches(ctx context.Context, userID string, minCompatibility float64) ([]matching.Match, error)
}

type matchService struct {
	profiles repository.ProfileRepository
}

func NewMatchService(profiles repository.ProfileRepository) MatchService {
	return &matchService{profiles: profiles}
}

func (s *matchService) FindMatches(ctx context.Context, userID string, minCompatibility float64) ([]matching.Match, error) {
	if minCompatibility < 0 || minCompatibility > 1 {
		return nil, fmt.Errorf("min compatibility must be between 0 and 1")
	}

	requester, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	candidates, err := s.profiles.List(ctx)
	if err != nil {
		return nil, err
	}

	return matching.Rank(*requester, candidates, minCompatibility), nil
}
