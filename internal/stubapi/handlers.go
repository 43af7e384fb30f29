package stubapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents a request to create an account
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// DeleteUserRequest identifies the user to remove
type DeleteUserRequest struct {
	ID string `json:"id" validate:"required,len=26"`
}

func successBody() gin.H {
	return gin.H{"result": gin.H{"success": true}}
}

// bind decodes and validates the JSON body; it writes the error response itself
func (s *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		s.respondWithError(c, http.StatusBadRequest, err, ErrCodeInvalidParams)
		return false
	}
	if err := s.validator.Struct(req); err != nil {
		s.respondWithError(c, http.StatusBadRequest, err, ErrCodeInvalidParams)
		return false
	}
	return true
}

func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if !s.bind(c, &req) {
		return
	}

	var user User
	if err := s.db.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.respondWithError(c, http.StatusUnauthorized, err, ErrCodeLoginFail)
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		s.respondWithError(c, http.StatusInternalServerError, err, ErrCodeServiceError)
		return
	}

	if err := VerifyPassword(req.Password, user.PasswordHash); err != nil {
		s.respondWithError(c, http.StatusUnauthorized, err, ErrCodeLoginFail)
		return
	}

	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		s.respondWithError(c, http.StatusInternalServerError, err, ErrCodeServiceError)
		return
	}

	s.setAuthCookie(c, token)
	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User logged in")

	c.JSON(http.StatusOK, successBody())
}

func (s *Server) logout(c *gin.Context) {
	s.clearAuthCookie(c)
	c.JSON(http.StatusOK, successBody())
}

func (s *Server) getUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		s.respondWithError(c, http.StatusUnauthorized, errors.New("no session"), ErrCodeNoAuth)
		return
	}
	c.JSON(http.StatusOK, presentUser(user))
}

func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if !s.bind(c, &req) {
		return
	}

	user, err := s.createUser(req.Name, req.Email, req.Password, RoleUser)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE") {
			c.JSON(http.StatusConflict, gin.H{"error": ErrCodeInvalidParams})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to create user")
		s.respondWithError(c, http.StatusInternalServerError, err, ErrCodeServiceError)
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered")
	c.JSON(http.StatusCreated, presentUser(user))
}

func (s *Server) listUsers(c *gin.Context) {
	var users []User
	if err := s.db.Order("created_at ASC").Find(&users).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		s.respondWithError(c, http.StatusInternalServerError, err, ErrCodeServiceError)
		return
	}

	out := make([]UserPresenter, 0, len(users))
	for i := range users {
		out = append(out, presentUser(&users[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) deleteUser(c *gin.Context) {
	var req DeleteUserRequest
	if !s.bind(c, &req) {
		return
	}

	res := s.db.Where("id = ?", req.ID).Delete(&User{})
	if res.Error != nil {
		s.logger.Error().Err(res.Error).Msg("Failed to delete user")
		s.respondWithError(c, http.StatusInternalServerError, res.Error, ErrCodeServiceError)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrCodeInvalidParams})
		return
	}

	c.JSON(http.StatusOK, successBody())
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "sessionguard-stubapi",
	})
}

func (s *Server) createUser(name, email, password, role string) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        strings.ToLower(email),
		Name:         name,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
