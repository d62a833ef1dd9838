package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"linksnap/auth"
	"linksnap/middleware"
	"linksnap/model"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	userKeyPrefix  = "user:"
	emailKeyPrefix = "user:email:" // email -> user id
)

// UserHandler is the identity surface: registration, login, token refresh
// and session state. It stands in for the external auth provider the
// dashboard used to talk to.
type UserHandler struct {
	redis      *redis.Client
	jwtManager *auth.JWTManager
}

// NewUserHandler creates a new user handler
func NewUserHandler(rdb *redis.Client, jwtManager *auth.JWTManager) *UserHandler {
	return &UserHandler{
		redis:      rdb,
		jwtManager: jwtManager,
	}
}

// Register handles POST /api/auth/register
func (uh *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		SendJSONError(w, http.StatusBadRequest, errors.New("invalid email"), "Please provide a valid email address")
		return
	}
	if len(req.Password) < 8 {
		SendJSONError(w, http.StatusBadRequest, errors.New("weak password"), "Password must be at least 8 characters")
		return
	}

	userID := uuid.New().String()

	// The email index doubles as the uniqueness constraint.
	claimed, err := uh.redis.SetNX(ctx, emailKeyPrefix+req.Email, userID, 0).Result()
	if err != nil {
		log.Error().Err(err).Msg("Failed to check email existence")
		SendJSONError(w, http.StatusServiceUnavailable, err, "Failed to process registration")
		return
	}
	if !claimed {
		SendJSONError(w, http.StatusConflict, errors.New("email exists"), "An account with this email already exists. Please login.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to process registration")
		return
	}

	user := model.User{
		ID:           userID,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
	}

	userJSON, _ := json.Marshal(user)
	if err := uh.redis.Set(ctx, userKeyPrefix+userID, userJSON, 0).Err(); err != nil {
		log.Error().Err(err).Msg("Failed to save user")
		uh.redis.Del(ctx, emailKeyPrefix+req.Email)
		SendJSONError(w, http.StatusServiceUnavailable, err, "Failed to process registration")
		return
	}

	log.Info().
		Str("email", req.Email).
		Str("user_id", userID).
		Msg("User registered")

	SendJSONSuccess(w, http.StatusCreated, user.ToResponse())
}

// Login handles POST /api/auth/login
func (uh *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := uh.userByEmail(ctx, req.Email)
	if err == redis.Nil {
		SendJSONError(w, http.StatusUnauthorized, errors.New("invalid credentials"), "Invalid email or password")
		return
	} else if err != nil {
		log.Error().Err(err).Msg("Failed to load user")
		SendJSONError(w, http.StatusServiceUnavailable, err, "Login failed")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		SendJSONError(w, http.StatusUnauthorized, errors.New("invalid credentials"), "Invalid email or password")
		return
	}

	accessToken, err := uh.jwtManager.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate access token")
		SendJSONError(w, http.StatusInternalServerError, err, "Login failed")
		return
	}
	refreshToken, err := uh.jwtManager.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate refresh token")
		SendJSONError(w, http.StatusInternalServerError, err, "Login failed")
		return
	}

	user.LastLoginAt = time.Now()
	userJSON, _ := json.Marshal(user)
	uh.redis.Set(ctx, userKeyPrefix+user.ID, userJSON, 0)

	log.Info().
		Str("email", user.Email).
		Str("user_id", user.ID).
		Msg("User logged in")

	SendJSONSuccess(w, http.StatusOK, model.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.ToResponse(),
	})
}

// RefreshToken handles POST /api/auth/refresh
func (uh *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	claims, err := uh.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil {
		SendJSONError(w, http.StatusUnauthorized, err, "Invalid or expired refresh token")
		return
	}

	accessToken, err := uh.jwtManager.GenerateAccessToken(claims.UserID, claims.Email)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate access token")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to refresh token")
		return
	}

	SendJSONSuccess(w, http.StatusOK, map[string]string{
		"accessToken": accessToken,
	})
}

// Me handles GET /api/auth/me - the session-state probe the dashboard
// calls to decide whether a user is signed in.
func (uh *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID := middleware.GetUserID(r)
	if userID == "" {
		SendJSONError(w, http.StatusUnauthorized, errors.New("unauthorized"), "Authentication required")
		return
	}

	userData, err := uh.redis.Get(ctx, userKeyPrefix+userID).Result()
	if err == redis.Nil {
		SendJSONError(w, http.StatusNotFound, errors.New("user not found"), "")
		return
	} else if err != nil {
		log.Error().Err(err).Msg("Failed to load user")
		SendJSONError(w, http.StatusServiceUnavailable, err, "Failed to load user")
		return
	}

	var user model.User
	if err := json.Unmarshal([]byte(userData), &user); err != nil {
		log.Error().Err(err).Msg("Failed to parse user")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to load user")
		return
	}

	SendJSONSuccess(w, http.StatusOK, user.ToResponse())
}

func (uh *UserHandler) userByEmail(ctx context.Context, email string) (*model.User, error) {
	userID, err := uh.redis.Get(ctx, emailKeyPrefix+email).Result()
	if err != nil {
		return nil, err
	}

	userData, err := uh.redis.Get(ctx, userKeyPrefix+userID).Result()
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal([]byte(userData), &user); err != nil {
		return nil, err
	}
	return &user, nil
}
