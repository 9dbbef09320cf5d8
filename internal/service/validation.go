package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCatalog is returned when a seed catalog breaks a registry invariant
var ErrInvalidCatalog = errors.New("invalid activity catalog")

// ValidateCatalog checks a seed catalog before it is loaded into a registry.
// Activities are checked in name order so the reported error is stable.
func ValidateCatalog(catalog Catalog, enforceCapacity bool) error {
	for _, name := range catalog.Names() {
		activity := catalog[name]
		if err := validateActivity(name, &activity, enforceCapacity); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
		}
	}
	return nil
}

func validateActivity(name string, activity *Activity, enforceCapacity bool) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("activity name cannot be empty")
	}
	if activity.MaxParticipants <= 0 {
		return fmt.Errorf("activity %q: maxParticipants must be positive, got %d", name, activity.MaxParticipants)
	}

	seen := make(map[string]struct{}, len(activity.Participants))
	for _, email := range activity.Participants {
		if _, dup := seen[email]; dup {
			return fmt.Errorf("activity %q: participant %q is listed more than once", name, email)
		}
		seen[email] = struct{}{}
	}

	if enforceCapacity && len(activity.Participants) > activity.MaxParticipants {
		return fmt.Errorf("activity %q: %d participants exceed capacity of %d",
			name, len(activity.Participants), activity.MaxParticipants)
	}
	return nil
}
