package stubapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// AuthCookie carries the session token
	AuthCookie = "auth-token"

	userContextKey = "user"
)

// Client error codes returned in the "error" field
const (
	ErrCodeLoginFail     = "LOGIN_FAIL"
	ErrCodeNoAuth        = "NO_AUTH"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeInvalidParams = "INVALID_PARAMS"
	ErrCodeServiceError  = "SERVICE_ERROR"
)

func (s *Server) respondWithError(c *gin.Context, statusCode int, err error, code string) {
	s.logger.Warn().Err(err).Str("code", code).Str("path", c.Request.URL.Path).Msg("Request rejected")
	c.AbortWithStatusJSON(statusCode, gin.H{"error": code})
}

// requireAuth resolves the auth-token cookie to a user
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(AuthCookie)
		if err != nil || token == "" {
			s.respondWithError(c, http.StatusUnauthorized, errors.New("missing auth cookie"), ErrCodeNoAuth)
			return
		}

		claims, err := s.tokens.Validate(token)
		if err != nil {
			s.clearAuthCookie(c)
			s.respondWithError(c, http.StatusUnauthorized, err, ErrCodeNoAuth)
			return
		}

		var user User
		if err := s.db.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
			s.clearAuthCookie(c)
			s.respondWithError(c, http.StatusUnauthorized, err, ErrCodeNoAuth)
			return
		}

		c.Set(userContextKey, &user)
		c.Next()
	}
}

// adminOnly ensures the authenticated user is an admin
func (s *Server) adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			s.respondWithError(c, http.StatusUnauthorized, errors.New("no session"), ErrCodeNoAuth)
			return
		}

		if user.Role != RoleAdmin {
			s.respondWithError(c, http.StatusForbidden, errors.New("not admin"), ErrCodeForbidden)
			return
		}

		c.Next()
	}
}

func currentUser(c *gin.Context) (*User, bool) {
	v, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*User)
	return user, ok
}

func (s *Server) setAuthCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AuthCookie, token, int(tokenTTL.Seconds()), "/", "", false, true)
}

func (s *Server) clearAuthCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AuthCookie, "", -1, "/", "", false, true)
}
