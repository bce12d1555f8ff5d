// Package network aggregates book collections across friendship edges.
package network

import (
	"context"

	"github.com/planetarium/planetarium-server/internal/domain"
	apperr "github.com/planetarium/planetarium-server/internal/errors"
	"github.com/planetarium/planetarium-server/internal/logger"
	"github.com/planetarium/planetarium-server/internal/store"
)

// Store is the persistence surface the aggregator needs.
// *sqlite.Store satisfies it.
type Store interface {
	GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error)
	ListFriendIDs(ctx context.Context, accountID string) ([]string, error)
	ListBooksByAccount(ctx context.Context, accountID string) ([]*domain.Book, error)
	ListBooksByAccounts(ctx context.Context, accountIDs []string) ([]*domain.Book, error)
}

// Books is the aggregated view of one account's reading network.
// UserBooks and FriendsBooks are independent sets: a book the user and a
// friend both hold appears in both.
type Books struct {
	User         string         `json:"user"`
	UserBooks    []*domain.Book `json:"user_books"`
	FriendsBooks []*domain.Book `json:"friends_books"`
}

// Service aggregates books over an account's outgoing friendship edges.
type Service struct {
	store  Store
	logger *logger.Logger
}

// NewService creates a network aggregation service.
func NewService(store Store, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		logger: log,
	}
}

// NetworkBooks resolves the account for username and returns the user's
// own books next to the union of their friends' books.
//
// Traversal covers outgoing edges only. An account that lists this user
// as a friend without a reciprocal edge contributes nothing. The call is
// read-only, so repeating it without intervening writes gives the same
// answer.
func (s *Service) NetworkBooks(ctx context.Context, username string) (*Books, error) {
	account, err := s.store.GetAccountByUsername(ctx, username)
	if err == store.ErrNotFound {
		return nil, apperr.NotFoundf("user %q not found", username)
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "resolve account")
	}

	userBooks, err := s.store.ListBooksByAccount(ctx, account.UserID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "list user books")
	}

	friendIDs, err := s.store.ListFriendIDs(ctx, account.UserID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "list friends")
	}

	var friendsBooks []*domain.Book
	if len(friendIDs) > 0 {
		friendsBooks, err = s.store.ListBooksByAccounts(ctx, friendIDs)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.CodeInternal, "list friends books")
		}
	}

	s.logger.Debug("aggregated network books",
		"user", username,
		"friends", len(friendIDs),
		"user_books", len(userBooks),
		"friends_books", len(friendsBooks))

	return &Books{
		User:         account.Username,
		UserBooks:    dedupeByID(userBooks),
		FriendsBooks: dedupeByID(friendsBooks),
	}, nil
}

// dedupeByID collapses books sharing an ID, keeping first occurrence
// order. The result is never nil so empty sets serialize as [].
func dedupeByID(books []*domain.Book) []*domain.Book {
	out := make([]*domain.Book, 0, len(books))
	seen := make(map[string]bool, len(books))
	for _, b := range books {
		if seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		out = append(out, b)
	}
	return out
}
