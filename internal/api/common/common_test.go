package common

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteJSONResponse(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONResponse(rec, MessageResponse{Message: "Signed up a@b.edu for Chess Club"}, http.StatusOK)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"Signed up a@b.edu for Chess Club"}`, rec.Body.String())
}

func TestWriteErrorResponse(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteErrorResponse(rec, "Activity not found", http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"detail":"Activity not found"}`, rec.Body.String())
}
