package models

import "github.com/julianstephens/dashtrack/internal/validation"

// MusicEntry records an album listened to and how it was rated.
type MusicEntry struct {
	Meta
	Artist       string `json:"artist"`
	Album        string `json:"album"`
	Rating       int    `json:"rating"`       // 1-5 stars
	ListenedDate string `json:"listenedDate"` // YYYY-MM-DD format
}

// MusicEntryInput is the insert shape for MusicEntry.
type MusicEntryInput struct {
	Artist       *string `json:"artist,omitempty"`
	Album        *string `json:"album,omitempty"`
	Rating       *int    `json:"rating,omitempty"`
	ListenedDate *string `json:"listenedDate,omitempty"`
}

// NewMusicEntry returns a MusicEntry carrying the creation defaults.
func NewMusicEntry() *MusicEntry {
	return &MusicEntry{}
}

func (in MusicEntryInput) Validate(partial bool) error {
	c := validation.New(partial)
	c.String("artist", in.Artist, true)
	c.String("album", in.Album, true)
	c.IntRange("rating", in.Rating, 1, 5, true)
	c.Date("listenedDate", in.ListenedDate, true)
	return c.Err()
}

func (in MusicEntryInput) ApplyTo(m *MusicEntry) {
	if in.Artist != nil {
		m.Artist = *in.Artist
	}
	if in.Album != nil {
		m.Album = *in.Album
	}
	if in.Rating != nil {
		m.Rating = *in.Rating
	}
	if in.ListenedDate != nil {
		m.ListenedDate = *in.ListenedDate
	}
}
