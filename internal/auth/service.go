package auth

import (
	"context"
	"time"

	"github.com/planetarium/planetarium-server/internal/domain"
	apperr "github.com/planetarium/planetarium-server/internal/errors"
	"github.com/planetarium/planetarium-server/internal/id"
	"github.com/planetarium/planetarium-server/internal/logger"
	"github.com/planetarium/planetarium-server/internal/store"
)

// Store is the persistence surface the auth service needs.
// *sqlite.Store satisfies it.
type Store interface {
	CreateUser(ctx context.Context, u *domain.User) error
	CreateAccount(ctx context.Context, a *domain.Account) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// Service registers users and issues access tokens.
type Service struct {
	store  Store
	tokens *TokenService
	logger *logger.Logger
}

// NewService creates an auth service.
func NewService(st Store, tokens *TokenService, log *logger.Logger) *Service {
	return &Service{
		store:  st,
		tokens: tokens,
		logger: log,
	}
}

// Register creates a user and its book-tracking account.
// Returns a conflict error when the username is taken.
func (s *Service) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "generate user ID")
	}

	now := time.Now()
	user := &domain.User{
		ID:           userID,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.CreateUser(ctx, user)
	if err == store.ErrAlreadyExists {
		return nil, apperr.Conflictf("username %q is taken", username)
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "create user")
	}

	account := &domain.Account{UserID: userID, Username: username, CreatedAt: now}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "create account")
	}

	s.logger.Info("registered user", "username", username)
	return user, nil
}

// Login verifies credentials and issues an access token.
// Missing users and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err == store.ErrNotFound {
		return "", nil, apperr.InvalidCredentials("invalid username or password")
	}
	if err != nil {
		return "", nil, apperr.Wrap(err, apperr.CodeInternal, "look up user")
	}

	ok, err := VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return "", nil, apperr.Wrap(err, apperr.CodeInternal, "verify password")
	}
	if !ok {
		return "", nil, apperr.InvalidCredentials("invalid username or password")
	}

	token, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return "", nil, apperr.Wrap(err, apperr.CodeInternal, "issue token")
	}

	return token, user, nil
}

// UserFromToken verifies an access token and loads its user.
func (s *Service) UserFromToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.tokens.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, apperr.Unauthorized("invalid or expired token")
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err == store.ErrNotFound {
		return nil, apperr.Unauthorized("token user no longer exists")
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "load token user")
	}
	return user, nil
}
