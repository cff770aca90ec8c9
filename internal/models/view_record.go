package models

import (
	"time"
)

// ViewRecord is one viewer's deduplicated interaction with one story.
// A repeat view updates ViewedAt instead of adding a record.
type ViewRecord struct {
	ID             string     `json:"id"`
	StoryID        string     `json:"story_id"`
	ViewerID       string     `json:"viewer_id"`
	ViewerName     string     `json:"viewer_name"`
	ViewedAt       time.Time  `json:"viewed_at"`
	ViewerOnline   bool       `json:"viewer_online"`
	ViewerLastSeen *time.Time `json:"viewer_last_seen,omitempty"`
}

// ViewerEntry is a ViewRecord prepared for display. ViewedAt is kept so
// callers can filter on the instant rather than on Label. Online is the
// snapshot taken with the view; Presence is the viewer's current status.
type ViewerEntry struct {
	ID             string         `json:"id"`
	StoryID        string         `json:"story_id"`
	ViewerID       string         `json:"viewer_id"`
	Name           string         `json:"name"`
	AvatarRef      string         `json:"avatar_ref"`
	ViewedAt       time.Time      `json:"viewed_at"`
	Label          string         `json:"label"`
	Online         bool           `json:"online"`
	ViewerLastSeen *time.Time     `json:"viewer_last_seen,omitempty"`
	Presence       PresenceStatus `json:"presence"`
}
