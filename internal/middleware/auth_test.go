package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ironpoint/steeltrack-backend/internal/config"
	"github.com/ironpoint/steeltrack-backend/internal/domain/identity"
	"github.com/ironpoint/steeltrack-backend/internal/middleware"
	"github.com/ironpoint/steeltrack-backend/internal/platform/logger"
	"github.com/ironpoint/steeltrack-backend/internal/requestdata"
)

const testSharedKey = "test-shared-key"

func mintAssertion(t *testing.T, actorID uuid.UUID, role, issuer string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  actorID.String(),
		"role": role,
		"iss":  issuer,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSharedKey))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func authRouter(t *testing.T) (*gin.Engine, *identity.Actor) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	t.Cleanup(log.Sync)

	am := middleware.NewAuthMiddleware(log, config.IdentityConfig{
		SharedKey: testSharedKey,
		Issuer:    "steeltrack-identity",
	})

	var seen identity.Actor
	r := gin.New()
	r.GET("/probe", am.RequireActor(), func(c *gin.Context) {
		seen = requestdata.GetActor(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	return r, &seen
}

func TestRequireActorAcceptsBearerAssertion(t *testing.T) {
	r, seen := authRouter(t)
	actorID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+mintAssertion(t, actorID, "field", "steeltrack-identity"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status: want=204 got=%d body=%s", w.Code, w.Body.String())
	}
	if seen.ID != actorID || seen.Role != identity.RoleField {
		t.Fatalf("actor on context: got %+v", *seen)
	}
}

func TestRequireActorAcceptsQueryToken(t *testing.T) {
	// EventSource clients cannot set headers.
	r, seen := authRouter(t)
	actorID := uuid.New()

	token := mintAssertion(t, actorID, "project_manager", "steeltrack-identity")
	req := httptest.NewRequest(http.MethodGet, "/probe?token="+token, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status: want=204 got=%d", w.Code)
	}
	if seen.Role != identity.RoleProjectManager {
		t.Fatalf("role: got %q", seen.Role)
	}
}

func TestRequireActorRejections(t *testing.T) {
	r, _ := authRouter(t)
	actorID := uuid.New()

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"unknown role", mintAssertion(t, actorID, "janitor", "steeltrack-identity"), http.StatusUnauthorized},
		{"wrong issuer", mintAssertion(t, actorID, "field", "someone-else"), http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status: want=%d got=%d", tc.want, w.Code)
			}
		})
	}
}
