package models

import "time"

// DefaultAvatarRef is shown for viewers that are no longer in the directory.
const DefaultAvatarRef = "asset://avatars/default.png"

type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AvatarRef string    `json:"avatar_ref"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
