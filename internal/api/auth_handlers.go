package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/planetarium/planetarium-server/internal/domain"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/register",
		Summary:     "Register user",
		Description: "Creates a user and its book-tracking account",
		Tags:        []string{"Auth"},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Log in",
		Description: "Verifies credentials and issues an access token",
		Tags:        []string{"Auth"},
	}, s.handleLogin)

	// Token-obtain alias for clients that speak the classic token flow.
	huma.Register(s.api, huma.Operation{
		OperationID: "issueToken",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/token",
		Summary:     "Issue token",
		Description: "Verifies credentials and issues an access token carrying the username and email as claims",
		Tags:        []string{"Auth"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user",
		Tags:        []string{"Auth"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)
}

// UserResponse contains public user data in API responses.
type UserResponse struct {
	ID        string    `json:"id" doc:"User ID"`
	Username  string    `json:"username" doc:"Unique username"`
	Email     string    `json:"email" doc:"Email address"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=64" doc:"Unique username"`
	Email    string `json:"email" validate:"required,email" doc:"Email address"`
	Password string `json:"password" validate:"required,min=8,max=1024" doc:"Password"`
}

type RegisterInput struct {
	Body RegisterRequest
}

type UserOutput struct {
	Body UserResponse
}

type LoginRequest struct {
	Username string `json:"username" validate:"required" doc:"Username"`
	Password string `json:"password" validate:"required" doc:"Password"`
}

type LoginInput struct {
	Body LoginRequest
}

type AuthResponse struct {
	AccessToken string       `json:"access_token" doc:"PASETO v4 access token"`
	User        UserResponse `json:"user" doc:"Authenticated user"`
}

type AuthOutput struct {
	Body AuthResponse
}

type GetCurrentUserInput struct {
	Authorization string `header:"Authorization"`
}

func mapUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*UserOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	user, err := s.services.Auth.Register(ctx, input.Body.Username, input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	token, user, err := s.services.Auth.Login(ctx, input.Body.Username, input.Body.Password)
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: AuthResponse{
		AccessToken: token,
		User:        mapUserResponse(user),
	}}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, input *GetCurrentUserInput) (*UserOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, huma.Error401Unauthorized("Authentication is disabled")
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}
