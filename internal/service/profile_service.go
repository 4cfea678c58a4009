package service

import (
	"context"
	"errors"
	"fmt"

	"tunematch/internal/domain"
	"tunematch/internal/media"
	"tunematch/internal/repository"
)

const (
	minAge = 13
	maxAge = 120
)

// ProfileService owns persisted profile records and their pictures.
type ProfileService interface {
	// Load returns the stored profile, or nil when none was written yet.
	Load(ctx context.Context, userID string) (*domain.Profile, error)
	// Save validates and writes the full profile, last writer wins.
	Save(ctx context.Context, profile *domain.Profile) error
	// RateTrack records the user's rating for one track, replacing any
	// earlier rating of the same track.
	RateTrack(ctx context.Context, userID string, pref domain.MusicPreference) error
	SavePicture(ctx context.Context, userID, sourcePath string) (string, error)
	RemovePicture(ctx context.Context, userID string) error
}

type profileService struct {
	profiles repository.ProfileRepository
	pictures media.Store
}

func NewProfileService(profiles repository.ProfileRepository, pictures media.Store) ProfileService {
	return &profileService{
		profiles: profiles,
		pictures: pictures,
	}
}

func (s *profileService) Load(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}

func (s *profileService) Save(ctx context.Context, profile *domain.Profile) error {
	if profile == nil || profile.UserID == "" {
		return errors.New("profile user id is required")
	}
	if profile.Age != nil && (*profile.Age < minAge || *profile.Age > maxAge) {
		return fmt.Errorf("age must be between %d and %d", minAge, maxAge)
	}
	for _, pref := range profile.MusicPreferences {
		if pref.TrackID == "" {
			return errors.New("music preference track id is required")
		}
		if pref.Rating < 0 || pref.Rating > 1 {
			return fmt.Errorf("rating for track %s must be between 0 and 1", pref.TrackID)
		}
	}

	profile.MusicPreferences = dedupePreferences(profile.MusicPreferences)
	return s.profiles.Save(ctx, profile)
}

func (s *profileService) RateTrack(ctx context.Context, userID string, pref domain.MusicPreference) error {
	if pref.TrackID == "" {
		return errors.New("track id is required")
	}
	if pref.Rating < 0 || pref.Rating > 1 {
		return errors.New("rating must be between 0 and 1")
	}

	profile, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}
	if profile == nil {
		profile = &domain.Profile{
			UserID:           userID,
			MusicPreferences: []domain.MusicPreference{},
			TopArtists:       []string{},
			TopGenres:        []string{},
			TopSongs:         []domain.TrackRef{},
			TopAlbums:        []domain.TrackRef{},
		}
	}

	profile.UpsertPreference(pref)
	return s.profiles.Save(ctx, profile)
}

func (s *profileService) SavePicture(ctx context.Context, userID, sourcePath string) (string, error) {
	// resolve the profile before touching the disk so a missing profile
	// never leaves a stray picture file behind
	profile, err := s.Load(ctx, userID)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", ErrProfileNotFound
	}

	hadPicture := profile.ProfilePicturePath != ""
	path, err := s.pictures.Save(userID, sourcePath)
	if err != nil {
		return "", err
	}

	profile.ProfilePicturePath = path
	if err := s.profiles.Save(ctx, profile); err != nil {
		if !hadPicture {
			_ = s.pictures.Remove(userID)
		}
		return "", err
	}
	return path, nil
}

func (s *profileService) RemovePicture(ctx context.Context, userID string) error {
	if err := s.pictures.Remove(userID); err != nil {
		return err
	}

	profile, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}
	if profile == nil {
		return nil
	}
	profile.ProfilePicturePath = ""
	return s.profiles.Save(ctx, profile)
}

// dedupePreferences keeps the last rating written for each track while
// preserving first-seen order, matching the replace-in-place rule.
func dedupePreferences(prefs []domain.MusicPreference) []domain.MusicPreference {
	if len(prefs) < 2 {
		return prefs
	}

	index := make(map[string]int, len(prefs))
	out := prefs[:0:0]
	for _, pref := range prefs {
		if i, seen := index[pref.TrackID]; seen {
			out[i] = pref
			continue
		}
		index[pref.TrackID] = len(out)
		out = append(out, pref)
	}
	return out
}
