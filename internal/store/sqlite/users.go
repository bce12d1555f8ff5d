package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/planetarium/planetarium-server/internal/domain"
	"github.com/planetarium/planetarium-server/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, created_at, updated_at, username, email, password_hash`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var u domain.User

	var (
		createdAt    string
		updatedAt    string
		passwordHash sql.NullString
	)

	err := scanner.Scan(
		&u.ID,
		&createdAt,
		&updatedAt,
		&u.Username,
		&u.Email,
		&passwordHash,
	)
	if err != nil {
		return nil, err
	}

	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	u.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	if passwordHash.Valid {
		u.PasswordHash = passwordHash.String
	}

	return &u, nil
}

// CreateUser inserts a new user into the database.
// Returns store.ErrAlreadyExists if the user ID or username already exists.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, created_at, updated_at, username, email, password_hash)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID,
		formatTime(u.CreatedAt),
		formatTime(u.UpdatedAt),
		u.Username,
		u.Email,
		nullString(u.PasswordHash),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetUser retrieves a user by ID.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByUsername retrieves a user by username.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUser performs a full row update on an existing user.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			updated_at = ?,
			username = ?,
			email = ?,
			password_hash = ?
		WHERE id = ?`,
		formatTime(u.UpdatedAt),
		u.Username,
		u.Email,
		nullString(u.PasswordHash),
		u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
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

// CreateAccount inserts the book-tracking account for a user.
// Returns store.ErrAlreadyExists if the user already has an account.
func (s *Store) CreateAccount(ctx context.Context, a *domain.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (user_id, created_at)
		VALUES (?, ?)`,
		a.UserID,
		formatTime(a.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetAccountByUsername resolves an account by the owning user's username.
// Returns store.ErrNotFound if the user or the account does not exist.
func (s *Store) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT a.user_id, u.username, a.created_at
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		WHERE u.username = ?`, username)

	var a domain.Account
	var createdAt string
	err := row.Scan(&a.UserID, &a.Username, &createdAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	a.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse account created_at: %w", err)
	}
	return &a, nil
}

// GetAccount resolves an account by its user ID.
// Returns store.ErrNotFound if the account does not exist.
func (s *Store) GetAccount(ctx context.Context, userID string) (*domain.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT a.user_id, u.username, a.created_at
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		WHERE a.user_id = ?`, userID)

	var a domain.Account
	var createdAt string
	err := row.Scan(&a.UserID, &a.Username, &createdAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	a.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse account created_at: %w", err)
	}
	return &a, nil
}

// ListAccounts returns every book-tracking account ordered by username.
func (s *Store) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.user_id, u.username, a.created_at
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		ORDER BY u.username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		var a domain.Account
		var createdAt string
		if err := rows.Scan(&a.UserID, &a.Username, &createdAt); err != nil {
			return nil, err
		}
		a.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse account created_at: %w", err)
		}
		accounts = append(accounts, &a)
	}
	return accounts, rows.Err()
}
