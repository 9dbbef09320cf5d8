package app

import (
	"github.com/mergington/activity-registry/internal/service"
	"github.com/mergington/activity-registry/internal/telemetry"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// ActivityService provides the activity registry business logic
	ActivityService service.ActivityService

	// Telemetry owns the tracer and meter providers (optional)
	Telemetry *telemetry.Telemetry
}
