package models

import (
	"time"
)

// OnlineStatus is the persisted presence record of a single user.
type OnlineStatus struct {
	UserID    string     `json:"user_id"`
	IsOnline  bool       `json:"is_online"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
)

func (s OnlineStatus) Status() PresenceStatus {
	return PresenceStatusOf(s.IsOnline)
}

func PresenceStatusOf(online bool) PresenceStatus {
	if online {
		return StatusOnline
	}
	return StatusOffline
}
