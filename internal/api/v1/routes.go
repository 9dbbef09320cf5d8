// Package v1 provides the activity registry REST endpoints.
package v1

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mergington/activity-registry/internal/api/common"
	"github.com/mergington/activity-registry/internal/service"
)

const (
	activityNameParam = "activityName"
	emailQueryParam   = "email"
)

// Routes handles HTTP requests for the activity endpoints.
type Routes struct {
	service service.ActivityService
}

// NewRoutes creates a new Routes instance with the given service.
func NewRoutes(svc service.ActivityService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates the router for the activity endpoints. It is mounted under /activities.
func Router(svc service.ActivityService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Get("/", routes.listActivities)
	r.Route("/{activityName}", func(r chi.Router) {
		r.Get("/", routes.getActivity)
		r.Post("/signup", routes.signup)
		r.Post("/unregister", routes.unregister)
		r.Delete("/unregister", routes.unregister)
	})

	return r
}

// listActivities handles GET /activities
func (routes *Routes) listActivities(w http.ResponseWriter, r *http.Request) {
	catalog, err := routes.service.ListActivities(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, catalog, http.StatusOK)
}

// getActivity handles GET /activities/{activityName}
func (routes *Routes) getActivity(w http.ResponseWriter, r *http.Request) {
	name, err := common.GetURLParam(r, activityNameParam)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	activity, err := routes.service.GetActivity(r.Context(), name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, activity, http.StatusOK)
}

// signup handles POST /activities/{activityName}/signup?email=...
func (routes *Routes) signup(w http.ResponseWriter, r *http.Request) {
	name, email, ok := registrationParams(w, r)
	if !ok {
		return
	}

	if err := routes.service.Signup(r.Context(), name, email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, common.MessageResponse{
		Message: fmt.Sprintf("Signed up %s for %s", email, name),
	}, http.StatusOK)
}

// unregister handles POST and DELETE /activities/{activityName}/unregister?email=...
func (routes *Routes) unregister(w http.ResponseWriter, r *http.Request) {
	name, email, ok := registrationParams(w, r)
	if !ok {
		return
	}

	if err := routes.service.Unregister(r.Context(), name, email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	common.WriteJSONResponse(w, common.MessageResponse{
		Message: fmt.Sprintf("Unregistered %s from %s", email, name),
	}, http.StatusOK)
}

// registrationParams extracts the activity name and email. The email query
// parameter must be present but may be empty.
func registrationParams(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	name, err := common.GetURLParam(r, activityNameParam)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return "", "", false
	}

	values, present := r.URL.Query()[emailQueryParam]
	if !present {
		common.WriteErrorResponse(w, "email query parameter is required", http.StatusUnprocessableEntity)
		return "", "", false
	}

	return name, values[0], true
}

// errorDetails maps service errors to their status code and client message
var errorDetails = []struct {
	err    error
	status int
	detail string
}{
	{service.ErrActivityNotFound, http.StatusNotFound, "Activity not found"},
	{service.ErrAlreadyRegistered, http.StatusBadRequest, "Student is already signed up"},
	{service.ErrNotRegistered, http.StatusBadRequest, "Student is not signed up for this activity"},
	{service.ErrActivityFull, http.StatusBadRequest, "Activity is full"},
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, d := range errorDetails {
		if errors.Is(err, d.err) {
			common.WriteErrorResponse(w, d.detail, d.status)
			return
		}
	}

	slog.ErrorContext(r.Context(), "Activity request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err)
	common.WriteErrorResponse(w, "Internal server error", http.StatusInternalServerError)
}
