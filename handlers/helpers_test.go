package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/double-elimination/brackets"
	"github.com/Dosada05/double-elimination/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("%w: upper-9-0", brackets.ErrMatchNotFound), want: http.StatusNotFound},
		{err: brackets.ErrRoundIncomplete, want: http.StatusConflict},
		{err: brackets.ErrMatchClosed, want: http.StatusConflict},
		{err: brackets.ErrTournamentCompleted, want: http.StatusConflict},
		{err: services.ErrNoActiveTournament, want: http.StatusConflict},
		{err: brackets.ErrIncompleteSeries, want: http.StatusUnprocessableEntity},
		{err: brackets.ErrInvalidOutcome, want: http.StatusUnprocessableEntity},
		{err: brackets.ErrInvalidParticipantCount, want: http.StatusUnprocessableEntity},
		{err: services.ErrInvalidConfig, want: http.StatusUnprocessableEntity},
		{err: services.ErrInvalidRoster, want: http.StatusUnprocessableEntity},
		{err: services.ErrAuthInvalidCredentials, want: http.StatusUnauthorized},
		{err: fmt.Errorf("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			mapServiceErrorToHTTP(rec, req, tt.err)

			assert.Equal(t, tt.want, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestReadJSON(t *testing.T) {
	type input struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"name":"x"}`},
		{name: "empty", body: ``, wantErr: "body must not be empty"},
		{name: "unknown field", body: `{"nope":1}`, wantErr: "unknown key"},
		{name: "wrong type", body: `{"name":1}`, wantErr: "incorrect JSON type"},
		{name: "two values", body: `{"name":"x"}{}`, wantErr: "single JSON value"},
		{name: "broken", body: `{"name":`, wantErr: "badly-formed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst input
			err := readJSON(httptest.NewRecorder(), req, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "x", dst.Name)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://board.example"})

	req := httptest.NewRequest(http.MethodGet, "/ws/tournament", nil)
	assert.True(t, check(req), "requests without Origin are allowed")

	req.Header.Set("Origin", "https://board.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
	assert.True(t, originChecker(nil)(req))
}
