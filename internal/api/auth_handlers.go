package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fablesound/fable-server/internal/auth"
	"github.com/fablesound/fable-server/internal/domain"
	"github.com/fablesound/fable-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	limited := huma.Middlewares{s.rateLimitAuth}

	huma.Register(s.api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/register",
		Summary:     "Register new user",
		Description: "Creates a new account and signs it in.",
		Tags:        []string{"Authentication"},
		Middlewares: limited,
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user and returns an access token.",
		Tags:        []string{"Authentication"},
		Middlewares: limited,
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Drops the active identity back to anonymous.",
		Tags:        []string{"Authentication"},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "requestPasswordReset",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/reset",
		Summary:     "Request password reset",
		Description: "Issues a reset token for the account, if it exists.",
		Tags:        []string{"Authentication"},
		Middlewares: limited,
	}, s.handleRequestPasswordReset)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetPassword",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/reset/confirm",
		Summary:     "Reset password",
		Description: "Redeems a reset token and sets a new password.",
		Tags:        []string{"Authentication"},
		Middlewares: limited,
	}, s.handleResetPassword)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPatch,
		Path:        "/api/v1/auth/profile",
		Summary:     "Update display name",
		Tags:        []string{"Authentication"},
	}, s.handleUpdateProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePassword",
		Method:      http.MethodPatch,
		Path:        "/api/v1/auth/password",
		Summary:     "Change password",
		Tags:        []string{"Authentication"},
	}, s.handleUpdatePassword)
}

// rateLimitAuth rejects over-limit auth attempts by client IP.
func (s *Server) rateLimitAuth(ctx huma.Context, next func(huma.Context)) {
	key := ctx.RemoteAddr()
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			key = xff[:i]
		} else {
			key = xff
		}
	}
	if !s.authLimiter.Allow(key) {
		s.logger.Warn("Rate limit exceeded", "ip", key, "path", ctx.URL().Path)
		huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}
	next(ctx)
}

// === DTOs ===

// RegisterInput wraps the registration request for huma.
type RegisterInput struct {
	Body service.RegisterRequest
}

// LoginInput wraps the login request for huma.
type LoginInput struct {
	Body service.LoginRequest
}

// AuthOutput wraps an auth response for huma.
type AuthOutput struct {
	Body service.AuthResponse
}

// MessageOutput is a plain confirmation message.
type MessageOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

// ResetRequestInput asks for a password reset token.
type ResetRequestInput struct {
	Body struct {
		Email string `json:"email" doc:"Account email"`
	}
}

// ResetConfirmInput redeems a reset token.
type ResetConfirmInput struct {
	Body struct {
		Token    string `json:"token" doc:"Reset token"`
		Password string `json:"password" doc:"New password"`
	}
}

// UpdateProfileInput changes the display name of the authenticated account.
type UpdateProfileInput struct {
	Authorization string `header:"Authorization" doc:"Bearer access token"`
	Body          struct {
		DisplayName string `json:"display_name" doc:"New display name"`
	}
}

// UserOutput wraps a user for huma.
type UserOutput struct {
	Body domain.User
}

// UpdatePasswordInput changes the password of the authenticated account.
type UpdatePasswordInput struct {
	Authorization string `header:"Authorization" doc:"Bearer access token"`
	Body          struct {
		CurrentPassword string `json:"current_password" doc:"Current password"`
		NewPassword     string `json:"new_password" doc:"New password"`
	}
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	resp, err := s.authService.Register(ctx, input.Body)
	if err != nil {
		return nil, huma.Error400BadRequest("registration failed", err)
	}
	return &AuthOutput{Body: *resp}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	resp, err := s.authService.Login(ctx, input.Body)
	if err != nil {
		return nil, huma.Error401Unauthorized("login failed", err)
	}
	return &AuthOutput{Body: *resp}, nil
}

func (s *Server) handleLogout(_ context.Context, _ *struct{}) (*MessageOutput, error) {
	s.authService.Logout()
	out := &MessageOutput{}
	out.Body.Message = "logged out"
	return out, nil
}

func (s *Server) handleRequestPasswordReset(ctx context.Context, input *ResetRequestInput) (*MessageOutput, error) {
	if err := s.authService.RequestPasswordReset(ctx, input.Body.Email); err != nil {
		return nil, huma.Error500InternalServerError("reset request failed", err)
	}
	out := &MessageOutput{}
	out.Body.Message = "if the account exists, a reset token has been issued"
	return out, nil
}

func (s *Server) handleResetPassword(ctx context.Context, input *ResetConfirmInput) (*MessageOutput, error) {
	if err := s.authService.ResetPassword(ctx, input.Body.Token, input.Body.Password); err != nil {
		return nil, huma.Error400BadRequest("reset failed", err)
	}
	out := &MessageOutput{}
	out.Body.Message = "password updated"
	return out, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*UserOutput, error) {
	claims, err := s.verifyBearer(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	user, err := s.authService.UpdateDisplayName(ctx, claims.UserID, input.Body.DisplayName)
	if err != nil {
		return nil, huma.Error400BadRequest("update failed", err)
	}
	return &UserOutput{Body: *user}, nil
}

func (s *Server) handleUpdatePassword(ctx context.Context, input *UpdatePasswordInput) (*MessageOutput, error) {
	claims, err := s.verifyBearer(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	if err := s.authService.UpdatePassword(ctx, claims.UserID, input.Body.CurrentPassword, input.Body.NewPassword); err != nil {
		return nil, huma.Error400BadRequest("update failed", err)
	}
	out := &MessageOutput{}
	out.Body.Message = "password updated"
	return out, nil
}

// verifyBearer validates an Authorization header value for huma handlers.
func (s *Server) verifyBearer(ctx context.Context, header string) (*auth.AccessClaims, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, huma.Error401Unauthorized("missing or invalid authorization header")
	}
	claims, err := s.authService.VerifyAccessToken(ctx, parts[1])
	if err != nil {
		return nil, huma.Error401Unauthorized("invalid or expired token")
	}
	return claims, nil
}
