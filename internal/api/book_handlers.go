package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/planetarium/planetarium-server/internal/domain"
	domainerrors "github.com/planetarium/planetarium-server/internal/errors"
	"github.com/planetarium/planetarium-server/internal/store"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listUserBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{username}/books",
		Summary:     "List user books",
		Description: "Returns the books in a user's collection",
		Tags:        []string{"Books"},
	}, s.handleListUserBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "addUserBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/users/{username}/books",
		Summary:     "Add book to collection",
		Description: "Adds a book to a user's collection, creating the book if needed",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddUserBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeUserBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/{username}/books/{bookID}",
		Summary:     "Remove book from collection",
		Description: "Removes a book from a user's collection",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveUserBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFriends",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{username}/friends",
		Summary:     "List friends",
		Description: "Returns the usernames this user lists as friends",
		Tags:        []string{"Friends"},
	}, s.handleListFriends)

	huma.Register(s.api, huma.Operation{
		OperationID: "addFriend",
		Method:      http.MethodPost,
		Path:        "/api/v1/users/{username}/friends",
		Summary:     "Add friend",
		Description: "Adds a one-way friendship edge from this user to another",
		Tags:        []string{"Friends"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddFriend)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFriend",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/{username}/friends/{friendUsername}",
		Summary:     "Remove friend",
		Description: "Removes this user's edge to a friend; the reverse edge is untouched",
		Tags:        []string{"Friends"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveFriend)
}

// BookResponse contains book data in API responses.
type BookResponse struct {
	ID     string `json:"id" doc:"Book ID"`
	Name   string `json:"name" doc:"Unique book name"`
	Author string `json:"author" doc:"Author"`
}

type ListUserBooksInput struct {
	Username string `path:"username" doc:"Username"`
}

type ListBooksResponse struct {
	Books []BookResponse `json:"books" doc:"Books in the collection"`
}

type ListBooksOutput struct {
	Body ListBooksResponse
}

type AddBookRequest struct {
	Name   string `json:"name" validate:"required,max=500" doc:"Book name"`
	Author string `json:"author" validate:"required,max=200" doc:"Author"`
}

type AddUserBookInput struct {
	Authorization string `header:"Authorization"`
	Username      string `path:"username" doc:"Username"`
	Body          AddBookRequest
}

type BookOutput struct {
	Body BookResponse
}

type RemoveUserBookInput struct {
	Authorization string `header:"Authorization"`
	Username      string `path:"username" doc:"Username"`
	BookID        string `path:"bookID" doc:"Book ID"`
}

type ListFriendsInput struct {
	Username string `path:"username" doc:"Username"`
}

type ListFriendsResponse struct {
	Friends []string `json:"friends" doc:"Friend usernames, outgoing edges only"`
}

type ListFriendsOutput struct {
	Body ListFriendsResponse
}

type AddFriendRequest struct {
	FriendUsername string `json:"friend_username" validate:"required" doc:"Username to befriend"`
}

type AddFriendInput struct {
	Authorization string `header:"Authorization"`
	Username      string `path:"username" doc:"Username"`
	Body          AddFriendRequest
}

type RemoveFriendInput struct {
	Authorization  string `header:"Authorization"`
	Username       string `path:"username" doc:"Username"`
	FriendUsername string `path:"friendUsername" doc:"Friend username"`
}

func mapBookResponses(books []*domain.Book) []BookResponse {
	resp := make([]BookResponse, len(books))
	for i, b := range books {
		resp[i] = BookResponse{ID: b.ID, Name: b.Name, Author: b.Author}
	}
	return resp
}

// resolveAccount looks up the account behind a username.
func (s *Server) resolveAccount(ctx context.Context, username string) (*domain.Account, error) {
	account, err := s.store.GetAccountByUsername(ctx, username)
	if err == store.ErrNotFound {
		return nil, domainerrors.NotFoundf("user %q not found", username)
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// === Handlers ===

func (s *Server) handleListUserBooks(ctx context.Context, input *ListUserBooksInput) (*ListBooksOutput, error) {
	account, err := s.resolveAccount(ctx, input.Username)
	if err != nil {
		return nil, err
	}

	books, err := s.store.ListBooksByAccount(ctx, account.UserID)
	if err != nil {
		return nil, err
	}

	return &ListBooksOutput{Body: ListBooksResponse{Books: mapBookResponses(books)}}, nil
}

func (s *Server) handleAddUserBook(ctx context.Context, input *AddUserBookInput) (*BookOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	account, err := s.resolveAccount(ctx, input.Username)
	if err != nil {
		return nil, err
	}

	book, err := s.store.GetOrCreateBook(ctx, input.Body.Name, input.Body.Author)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.AddBookToAccount(ctx, account.UserID, book.ID); err != nil {
		if err == store.ErrAlreadyExists {
			return nil, domainerrors.Conflictf("book %q is already in %s's collection", book.Name, input.Username)
		}
		return nil, err
	}

	return &BookOutput{Body: BookResponse{ID: book.ID, Name: book.Name, Author: book.Author}}, nil
}

func (s *Server) handleRemoveUserBook(ctx context.Context, input *RemoveUserBookInput) (*MessageOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	account, err := s.resolveAccount(ctx, input.Username)
	if err != nil {
		return nil, err
	}

	if err := s.store.RemoveBookFromAccount(ctx, account.UserID, input.BookID); err != nil {
		if err == store.ErrNotFound {
			return nil, domainerrors.NotFoundf("book %q is not in %s's collection", input.BookID, input.Username)
		}
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Book removed"}}, nil
}

func (s *Server) handleListFriends(ctx context.Context, input *ListFriendsInput) (*ListFriendsOutput, error) {
	account, err := s.resolveAccount(ctx, input.Username)
	if err != nil {
		return nil, err
	}

	friendIDs, err := s.store.ListFriendIDs(ctx, account.UserID)
	if err != nil {
		return nil, err
	}

	friends := make([]string, 0, len(friendIDs))
	for _, id := range friendIDs {
		friend, err := s.store.GetAccount(ctx, id)
		if err != nil {
			return nil, err
		}
		friends = append(friends, friend.Username)
	}

	return &ListFriendsOutput{Body: ListFriendsResponse{Friends: friends}}, nil
}

func (s *Server) handleAddFriend(ctx context.Context, input *AddFriendInput) (*MessageOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	account, err := s.resolveAccount(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	friend, err := s.resolveAccount(ctx, input.Body.FriendUsername)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.CreateFriendship(ctx, account.UserID, friend.UserID); err != nil {
		if err == store.ErrAlreadyExists {
			return nil, domainerrors.Conflictf("%s already lists %s as a friend", input.Username, input.Body.FriendUsername)
		}
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Friend added"}}, nil
}

func (s *Server) handleRemoveFriend(ctx context.Context, input *RemoveFriendInput) (*MessageOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	account, err := s.resolveAccount(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	friend, err := s.resolveAccount(ctx, input.FriendUsername)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteFriendship(ctx, account.UserID, friend.UserID); err != nil {
		if err == store.ErrNotFound {
			return nil, domainerrors.NotFoundf("%s does not list %s as a friend", input.Username, input.FriendUsername)
		}
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Friend removed"}}, nil
}
