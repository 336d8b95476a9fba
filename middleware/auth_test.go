package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/double-elimination/models"
)

var testSecret = []byte("test-secret")

func protected() http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := GetUserRoleFromContext(r.Context())
		w.Write([]byte(role))
	})
	return Authenticate(testSecret)(Authorize(models.RoleOrganizer)(ok))
}

func TestAuthenticateAndAuthorize(t *testing.T) {
	now := time.Now()
	organizer, err := IssueToken(testSecret, models.RoleOrganizer, now)
	require.NoError(t, err)
	viewer, err := IssueToken(testSecret, models.RoleViewer, now)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, models.RoleOrganizer, now.Add(-24*time.Hour))
	require.NoError(t, err)
	foreign, err := IssueToken([]byte("other"), models.RoleOrganizer, now)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"role": "organizer"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "organizer", header: "Bearer " + organizer, want: http.StatusOK},
		{name: "viewer", header: "Bearer " + viewer, want: http.StatusForbidden},
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, want: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + foreign, want: http.StatusUnauthorized},
		{name: "alg none", header: "Bearer " + none, want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/tournament/start", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected().ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, string(models.RoleOrganizer), rec.Body.String())
			}
		})
	}
}
