package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quakepredict/quakepredict-go/internal/datastore"
	"github.com/quakepredict/quakepredict-go/internal/security"
)

// RegisterRequest is the body of POST /api/v1/auth/register. Username is an
// optional display handle; email is the account identity.
type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password"`
}

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// UserResponse is the public view of a user account.
type UserResponse struct {
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleRegister creates a new user account.
//
// POST /api/v1/auth/register
func (c *Controller) HandleRegister(ctx echo.Context) error {
	var req RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Password == "" {
		return c.HandleError(ctx, nil, "email and password are required", http.StatusBadRequest)
	}

	if existing, err := c.DS.GetUserByEmail(req.Email); err != nil {
		return c.HandleError(ctx, err, "Failed to check existing accounts", http.StatusInternalServerError)
	} else if existing != nil {
		return c.HandleError(ctx, nil, "An account with this email already exists", http.StatusConflict)
	}
	if req.Username != "" {
		if existing, err := c.DS.GetUserByUsername(req.Username); err != nil {
			return c.HandleError(ctx, err, "Failed to check existing accounts", http.StatusInternalServerError)
		} else if existing != nil {
			return c.HandleError(ctx, nil, "This username is already taken", http.StatusConflict)
		}
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to create account", http.StatusInternalServerError)
	}

	user := &datastore.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if req.Username != "" {
		user.Username = &req.Username
	}
	if err := c.DS.CreateUser(user); err != nil {
		return c.HandleError(ctx, err, "Failed to create account", http.StatusInternalServerError)
	}

	c.apiLogger.Info("User registered", "email", user.Email)
	return ctx.JSON(http.StatusCreated, userResponse(user))
}

// HandleLogin verifies credentials and issues an access token whose subject
// is the account email.
//
// POST /api/v1/auth/login
func (c *Controller) HandleLogin(ctx echo.Context) error {
	var req LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	user, err := c.DS.GetUserByEmail(email)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to look up account", http.StatusInternalServerError)
	}
	// Unknown account and wrong password answer identically.
	if user == nil {
		return c.HandleError(ctx, nil, "Invalid email or password", http.StatusUnauthorized)
	}
	if err := security.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return c.HandleError(ctx, nil, "Invalid email or password", http.StatusUnauthorized)
	}

	token, err := c.tokens.IssueToken(user.Email)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to issue access token", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(c.tokens.TokenExpiry().Seconds()),
	})
}

// HandleMe returns the account behind the presented access token.
//
// GET /api/v1/auth/me
func (c *Controller) HandleMe(ctx echo.Context) error {
	email, _ := ctx.Get(contextKeyEmail).(string)
	user, err := c.DS.GetUserByEmail(email)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to look up account", http.StatusInternalServerError)
	}
	if user == nil {
		return c.HandleError(ctx, nil, "Account no longer exists", http.StatusUnauthorized)
	}
	return ctx.JSON(http.StatusOK, userResponse(user))
}

const contextKeyEmail = "auth_email"

// AuthMiddleware validates the Bearer token and stores the subject email in
// the request context.
func (c *Controller) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := ctx.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return c.HandleError(ctx, nil, "Missing bearer token", http.StatusUnauthorized)
			}

			email, err := c.tokens.ValidateToken(token)
			if err != nil {
				return c.HandleError(ctx, err, "Invalid or expired token", http.StatusUnauthorized)
			}

			ctx.Set(contextKeyEmail, email)
			return next(ctx)
		}
	}
}

func userResponse(user *datastore.User) UserResponse {
	resp := UserResponse{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
	if user.Username != nil {
		resp.Username = *user.Username
	}
	return resp
}
