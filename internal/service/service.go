// Package service provides the business logic for the activity registry API
package service

import (
	"context"
	"errors"
)

var (
	// ErrActivityNotFound is returned when an activity is not found
	ErrActivityNotFound = errors.New("activity not found")
	// ErrAlreadyRegistered is returned when a participant is already signed up for an activity
	ErrAlreadyRegistered = errors.New("student is already signed up")
	// ErrNotRegistered is returned when a participant is not signed up for an activity
	ErrNotRegistered = errors.New("student is not signed up for this activity")
	// ErrActivityFull is returned when an activity has reached its maximum capacity
	ErrActivityFull = errors.New("activity is full")
)

// IsConflict reports whether err is a membership conflict, i.e. the requested
// registration change is not valid given the current roster.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyRegistered) ||
		errors.Is(err, ErrNotRegistered) ||
		errors.Is(err, ErrActivityFull)
}

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go ActivityService

// ActivityService defines the interface for activity registry operations
type ActivityService interface {
	// CheckReadiness checks if the service is ready to serve requests
	CheckReadiness(ctx context.Context) error

	// ListActivities returns every activity in the registry keyed by name
	ListActivities(ctx context.Context) (Catalog, error)

	// GetActivity returns a single activity by name
	GetActivity(ctx context.Context, name string) (*Activity, error)

	// Signup adds the email to the activity's participants
	Signup(ctx context.Context, activityName, email string) error

	// Unregister removes the email from the activity's participants
	Unregister(ctx context.Context, activityName, email string) error
}
