package service

import (
	"slices"
)

// Activity is a single extracurricular offering and its roster.
type Activity struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// Catalog maps activity names to activities.
type Catalog map[string]Activity

// HasParticipant reports whether email is on the roster.
func (a *Activity) HasParticipant(email string) bool {
	return slices.Contains(a.Participants, email)
}

// SpotsLeft returns the number of free places, never below zero.
func (a *Activity) SpotsLeft() int {
	return max(a.MaxParticipants-len(a.Participants), 0)
}

// IsFull reports whether the roster has reached MaxParticipants.
func (a *Activity) IsFull() bool {
	return len(a.Participants) >= a.MaxParticipants
}

// Clone returns a deep copy of the activity. The participants slice of the
// copy is never nil so it always encodes as a JSON array.
func (a *Activity) Clone() Activity {
	participants := make([]string, len(a.Participants))
	copy(participants, a.Participants)
	return Activity{
		Description:     a.Description,
		Schedule:        a.Schedule,
		MaxParticipants: a.MaxParticipants,
		Participants:    participants,
	}
}

// Clone returns a deep copy of the catalog
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for name, activity := range c {
		out[name] = activity.Clone()
	}
	return out
}

// Names returns the activity names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
