package domain

// MusicPreference records how much a user likes a single track.
// Rating is on a 0-1 scale. A profile holds at most one preference per
// TrackID; rating the same track again replaces the earlier entry.
type MusicPreference struct {
	TrackID string   `json:"track_id"`
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
	Album   string   `json:"album"`
	Rating  float64  `json:"rating"`
}

// TrackRef is a structured reference to a song or album pulled from the
// listening history.
type TrackRef struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
	Album   string   `json:"album,omitempty"`
}

// Profile is the music-taste and personal-info record matched upon.
// One profile exists per account, keyed by UserID. The top* lists are
// written by the listening-history integration; the favorite* lists and
// personal fields are user edited.
type Profile struct {
	UserID             string            `json:"user_id"`
	Username           string            `json:"username"`
	FirstName          string            `json:"first_name,omitempty"`
	LastName           string            `json:"last_name,omitempty"`
	Age                *int              `json:"age,omitempty"`
	Gender             string            `json:"gender,omitempty"`
	Location           string            `json:"location,omitempty"`
	Bio                string            `json:"bio,omitempty"`
	ProfilePicturePath string            `json:"profile_picture_path,omitempty"`
	MusicPreferences   []MusicPreference `json:"music_preferences"`
	TopArtists         []string          `json:"top_artists"`
	TopGenres          []string          `json:"top_genres"`
	TopSongs           []TrackRef        `json:"top_songs"`
	TopAlbums          []TrackRef        `json:"top_albums"`
	FavoriteArtists    []string          `json:"favorite_artists,omitempty"`
	FavoriteSongs      []string          `json:"favorite_songs,omitempty"`
	FavoriteGenres     []string          `json:"favorite_genres,omitempty"`
	FavoriteAlbums     []string          `json:"favorite_albums,omitempty"`
}

// UpsertPreference adds a rating or replaces the existing entry for the
// same track in place, keeping list order for all other entries.
func (p *Profile) UpsertPreference(pref MusicPreference) {
	for i := range p.MusicPreferences {
		if p.MusicPreferences[i].TrackID == pref.TrackID {
			p.MusicPreferences[i] = pref
			return
		}
	}
	p.MusicPreferences = append(p.MusicPreferences, pref)
}
