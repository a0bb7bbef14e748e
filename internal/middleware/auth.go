package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ironpoint/steeltrack-backend/internal/config"
	"github.com/ironpoint/steeltrack-backend/internal/domain/identity"
	"github.com/ironpoint/steeltrack-backend/internal/platform/logger"
	"github.com/ironpoint/steeltrack-backend/internal/requestdata"
)

// AuthMiddleware verifies the identity assertion minted by the account
// system upstream. The token is an HS256 JWT carrying the actor id as the
// subject and a role claim; this service trusts the shared key, it does not
// manage accounts itself.
type AuthMiddleware struct {
	log      *logger.Logger
	identity config.IdentityConfig
}

func NewAuthMiddleware(log *logger.Logger, identity config.IdentityConfig) *AuthMiddleware {
	middlewareLogger := log.With("Middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, identity: identity}
}

func (am *AuthMiddleware) RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		actor, err := am.parseActor(tokenString)
		if err != nil {
			am.log.Debug("rejected identity assertion", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if actor.ID == uuid.Nil || !actor.Role.Valid() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{
			TokenString: tokenString,
			Actor:       actor,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

type identityClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (am *AuthMiddleware) parseActor(tokenString string) (identity.Actor, error) {
	var claims identityClaims
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if am.identity.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(am.identity.Issuer))
	}
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(am.identity.SharedKey), nil
	}, opts...)
	if err != nil {
		return identity.Actor{}, err
	}
	actorID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return identity.Actor{}, err
	}
	role, ok := identity.ParseRole(claims.Role)
	if !ok {
		return identity.Actor{}, jwt.ErrTokenInvalidClaims
	}
	return identity.Actor{ID: actorID, Role: role}, nil
}

func extractToken(c *gin.Context) string {
	// Query token support keeps EventSource clients working; browsers
	// cannot set headers on SSE connections.
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
