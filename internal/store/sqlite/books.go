package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/planetarium/planetarium-server/internal/domain"
	"github.com/planetarium/planetarium-server/internal/id"
	"github.com/planetarium/planetarium-server/internal/store"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `id, name, author`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a domain.Book.
func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var b domain.Book
	if err := scanner.Scan(&b.ID, &b.Name, &b.Author); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBook inserts a new book into the catalog.
// Returns store.ErrAlreadyExists if the book ID or name already exists.
func (s *Store) CreateBook(ctx context.Context, b *domain.Book) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (id, name, author)
		VALUES (?, ?, ?)`,
		b.ID,
		b.Name,
		b.Author,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetBook retrieves a book by ID.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id)

	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBookByName retrieves a book by its unique name.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) GetBookByName(ctx context.Context, name string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE name = ?`, name)

	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetOrCreateBook retrieves an existing book by name or creates a new one.
// When creating, it generates an ID. A concurrent insert of the same name
// resolves to the winning row.
func (s *Store) GetOrCreateBook(ctx context.Context, name, author string) (*domain.Book, error) {
	existing, err := s.GetBookByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if err != store.ErrNotFound {
		return nil, err
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	b := &domain.Book{ID: bookID, Name: name, Author: author}
	err = s.CreateBook(ctx, b)
	if err == store.ErrAlreadyExists {
		// Lost the race; the row exists now.
		return s.GetBookByName(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// AddBookToAccount records that an account holds a book.
// Returns store.ErrAlreadyExists if the account already holds it.
func (s *Store) AddBookToAccount(ctx context.Context, accountID, bookID string) (*domain.BookOwnership, error) {
	ownershipID, err := id.Generate("own")
	if err != nil {
		return nil, fmt.Errorf("generate ownership ID: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_books (id, account_id, book_id)
		VALUES (?, ?, ?)`,
		ownershipID,
		accountID,
		bookID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrAlreadyExists
		}
		return nil, err
	}

	return &domain.BookOwnership{
		ID:        ownershipID,
		AccountID: accountID,
		BookID:    bookID,
	}, nil
}

// RemoveBookFromAccount deletes the ownership edge for an account and book.
// Returns store.ErrNotFound if the account does not hold the book.
func (s *Store) RemoveBookFromAccount(ctx context.Context, accountID, bookID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM user_books WHERE account_id = ? AND book_id = ?`,
		accountID, bookID)
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

// ListBooksByAccount returns the books held by a single account, sorted by name.
func (s *Store) ListBooksByAccount(ctx context.Context, accountID string) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.name, b.author
		FROM books b
		JOIN user_books ub ON ub.book_id = b.id
		WHERE ub.account_id = ?
		ORDER BY b.name ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// ListBooksByAccounts returns the union of books held by any of the given
// accounts, sorted by name. A book held by several accounts appears once.
// An empty account list returns no books.
func (s *Store) ListBooksByAccounts(ctx context.Context, accountIDs []string) ([]*domain.Book, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(accountIDs)), ", ")
	args := make([]any, len(accountIDs))
	for i, accountID := range accountIDs {
		args[i] = accountID
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT b.id, b.name, b.author
		FROM books b
		JOIN user_books ub ON ub.book_id = b.id
		WHERE ub.account_id IN (`+placeholders+`)
		ORDER BY b.name ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}
