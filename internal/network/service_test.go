package network

import (
	"context"
	"io"
	"reflect"
	"testing"

	"github.com/planetarium/planetarium-server/internal/domain"
	apperr "github.com/planetarium/planetarium-server/internal/errors"
	"github.com/planetarium/planetarium-server/internal/logger"
	"github.com/planetarium/planetarium-server/internal/store"
)

// fakeStore is an in-memory Store for aggregator tests.
type fakeStore struct {
	accounts map[string]*domain.Account // by username
	friends  map[string][]string        // accountID -> friend accountIDs
	books    map[string][]*domain.Book  // accountID -> books
}

func (f *fakeStore) GetAccountByUsername(_ context.Context, username string) (*domain.Account, error) {
	a, ok := f.accounts[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a, nil
}

func (f *fakeStore) ListFriendIDs(_ context.Context, accountID string) ([]string, error) {
	return f.friends[accountID], nil
}

func (f *fakeStore) ListBooksByAccount(_ context.Context, accountID string) ([]*domain.Book, error) {
	return f.books[accountID], nil
}

func (f *fakeStore) ListBooksByAccounts(_ context.Context, accountIDs []string) ([]*domain.Book, error) {
	var out []*domain.Book
	for _, accountID := range accountIDs {
		out = append(out, f.books[accountID]...)
	}
	return out, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Writer: io.Discard, Format: "json"})
}

func book(id, name string) *domain.Book {
	return &domain.Book{ID: id, Name: name}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: map[string]*domain.Account{},
		friends:  map[string][]string{},
		books:    map[string][]*domain.Book{},
	}
}

func (f *fakeStore) addAccount(username string) string {
	accountID := "acct-" + username
	f.accounts[username] = &domain.Account{UserID: accountID, Username: username}
	return accountID
}

func TestNetworkBooksUnknownUser(t *testing.T) {
	svc := NewService(newFakeStore(), testLogger())

	_, err := svc.NetworkBooks(context.Background(), "nobody")
	if !apperr.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestNetworkBooksUnionAndOwnBooks(t *testing.T) {
	f := newFakeStore()
	alice := f.addAccount("alice")
	bob := f.addAccount("bob")
	carol := f.addAccount("carol")

	f.friends[alice] = []string{bob, carol}
	f.books[alice] = []*domain.Book{book("b1", "Berserk")}
	f.books[bob] = []*domain.Book{book("b2", "Monster"), book("b3", "Vagabond")}
	f.books[carol] = []*domain.Book{book("b3", "Vagabond"), book("b4", "Vinland Saga")}

	svc := NewService(f, testLogger())
	got, err := svc.NetworkBooks(context.Background(), "alice")
	if err != nil {
		t.Fatalf("network books: %v", err)
	}

	if got.User != "alice" {
		t.Errorf("user = %q, want alice", got.User)
	}
	if len(got.UserBooks) != 1 || got.UserBooks[0].ID != "b1" {
		t.Errorf("user books = %v", got.UserBooks)
	}

	// b3 is held by both friends but appears once.
	wantIDs := []string{"b2", "b3", "b4"}
	var gotIDs []string
	for _, b := range got.FriendsBooks {
		gotIDs = append(gotIDs, b.ID)
	}
	if !reflect.DeepEqual(gotIDs, wantIDs) {
		t.Errorf("friends books = %v, want %v", gotIDs, wantIDs)
	}
}

func TestNetworkBooksNoCrossSetDedup(t *testing.T) {
	f := newFakeStore()
	alice := f.addAccount("alice")
	bob := f.addAccount("bob")

	f.friends[alice] = []string{bob}
	shared := book("b1", "Berserk")
	f.books[alice] = []*domain.Book{shared}
	f.books[bob] = []*domain.Book{shared}

	svc := NewService(f, testLogger())
	got, err := svc.NetworkBooks(context.Background(), "alice")
	if err != nil {
		t.Fatalf("network books: %v", err)
	}

	// The shared book stays in both sets.
	if len(got.UserBooks) != 1 || len(got.FriendsBooks) != 1 {
		t.Errorf("user=%d friends=%d, want 1 and 1", len(got.UserBooks), len(got.FriendsBooks))
	}
}

func TestNetworkBooksAsymmetry(t *testing.T) {
	f := newFakeStore()
	alice := f.addAccount("alice")
	bob := f.addAccount("bob")

	// Bob points at alice; alice has no outgoing edges.
	f.friends[bob] = []string{alice}
	f.books[bob] = []*domain.Book{book("b1", "Monster")}

	svc := NewService(f, testLogger())
	got, err := svc.NetworkBooks(context.Background(), "alice")
	if err != nil {
		t.Fatalf("network books: %v", err)
	}
	if len(got.FriendsBooks) != 0 {
		t.Errorf("friends books = %v, want none (incoming edges ignored)", got.FriendsBooks)
	}

	// From bob's side the edge is visible.
	got, err = svc.NetworkBooks(context.Background(), "bob")
	if err != nil {
		t.Fatalf("network books: %v", err)
	}
	if len(got.UserBooks) != 1 {
		t.Errorf("bob's own books = %v", got.UserBooks)
	}
}

func TestNetworkBooksEmptySetsSerializeAsArrays(t *testing.T) {
	f := newFakeStore()
	f.addAccount("loner")

	svc := NewService(f, testLogger())
	got, err := svc.NetworkBooks(context.Background(), "loner")
	if err != nil {
		t.Fatalf("network books: %v", err)
	}
	if got.UserBooks == nil || got.FriendsBooks == nil {
		t.Error("expected non-nil empty slices")
	}
	if len(got.UserBooks) != 0 || len(got.FriendsBooks) != 0 {
		t.Errorf("expected empty sets, got %v and %v", got.UserBooks, got.FriendsBooks)
	}
}

func TestNetworkBooksSelfEdge(t *testing.T) {
	f := newFakeStore()
	alice := f.addAccount("alice")

	// Degenerate self edge: own books also appear as friends' books.
	f.friends[alice] = []string{alice}
	f.books[alice] = []*domain.Book{book("b1", "Berserk")}

	svc := NewService(f, testLogger())
	got, err := svc.NetworkBooks(context.Background(), "alice")
	if err != nil {
		t.Fatalf("network books: %v", err)
	}
	if len(got.UserBooks) != 1 || len(got.FriendsBooks) != 1 {
		t.Errorf("user=%d friends=%d, want 1 and 1", len(got.UserBooks), len(got.FriendsBooks))
	}
}

func TestNetworkBooksIsStableAcrossCalls(t *testing.T) {
	f := newFakeStore()
	alice := f.addAccount("alice")
	bob := f.addAccount("bob")
	carol := f.addAccount("carol")

	f.friends[alice] = []string{bob, carol}
	f.books[alice] = []*domain.Book{book("b1", "Berserk")}
	f.books[bob] = []*domain.Book{book("b3", "Vagabond"), book("b2", "Monster")}
	f.books[carol] = []*domain.Book{book("b3", "Vagabond")}

	svc := NewService(f, testLogger())

	first, err := svc.NetworkBooks(context.Background(), "alice")
	if err != nil {
		t.Fatalf("network books: %v", err)
	}
	second, err := svc.NetworkBooks(context.Background(), "alice")
	if err != nil {
		t.Fatalf("network books again: %v", err)
	}

	// With no intervening writes the two aggregations are identical,
	// ordering included.
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ between calls:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}
