package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/fairwaylabs/swingsense-backend/internal/http/response"
	pkgerrors "github.com/fairwaylabs/swingsense-backend/internal/pkg/errors"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
)

// AdminMiddleware gates the operator endpoints behind a bearer JWT signed with
// the shared admin secret. Claims must carry scope "admin".
type AdminMiddleware struct {
	log    *logger.Logger
	secret []byte
}

func NewAdminMiddleware(log *logger.Logger, secret string) *AdminMiddleware {
	return &AdminMiddleware{log: log.With("Middleware", "AdminMiddleware"), secret: []byte(secret)}
}

func (am *AdminMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := am.authorize(c); err != nil {
			am.log.Warn("admin request denied", "path", c.FullPath(), "error", err)
			response.RespondError(c, http.StatusForbidden, string(pkgerrors.CodePolicyDenied), err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (am *AdminMiddleware) authorize(c *gin.Context) error {
	if len(am.secret) == 0 {
		return fmt.Errorf("admin surface disabled: no secret configured")
	}
	raw := bearerToken(c)
	if raw == "" {
		return fmt.Errorf("missing bearer token")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return am.secret, nil
	})
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	if scope, _ := claims["scope"].(string); scope != "admin" {
		return fmt.Errorf("token lacks admin scope")
	}
	return nil
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return h[7:]
	}
	return ""
}
