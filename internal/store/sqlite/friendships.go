package sqlite

import (
	"context"
	"fmt"

	"github.com/planetarium/planetarium-server/internal/domain"
	"github.com/planetarium/planetarium-server/internal/id"
	"github.com/planetarium/planetarium-server/internal/store"
)

// CreateFriendship inserts one directed friendship edge.
// The reverse edge is never created implicitly; callers wanting symmetric
// friendship insert both directions themselves.
// Returns store.ErrAlreadyExists if the edge already exists.
func (s *Store) CreateFriendship(ctx context.Context, userID, friendID string) (*domain.Friendship, error) {
	edgeID, err := id.Generate("friend")
	if err != nil {
		return nil, fmt.Errorf("generate friendship ID: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO friendships (id, user_id, friend_id)
		VALUES (?, ?, ?)`,
		edgeID,
		userID,
		friendID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrAlreadyExists
		}
		return nil, err
	}

	return &domain.Friendship{
		ID:       edgeID,
		UserID:   userID,
		FriendID: friendID,
	}, nil
}

// DeleteFriendship removes one directed edge. The reverse edge, if any,
// is untouched.
// Returns store.ErrNotFound if the edge does not exist.
func (s *Store) DeleteFriendship(ctx context.Context, userID, friendID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM friendships WHERE user_id = ? AND friend_id = ?`,
		userID, friendID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListFriendIDs returns the account IDs on the far end of the account's
// outgoing edges. Accounts that only point AT this account are not included.
func (s *Store) ListFriendIDs(ctx context.Context, accountID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT friend_id FROM friendships WHERE user_id = ? ORDER BY friend_id ASC`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friendIDs []string
	for rows.Next() {
		var friendID string
		if err := rows.Scan(&friendID); err != nil {
			return nil, err
		}
		friendIDs = append(friendIDs, friendID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return friendIDs, nil
}
