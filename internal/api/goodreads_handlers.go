package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerGoodreadsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listAccounts",
		Method:      http.MethodGet,
		Path:        "/api/v1/goodreads",
		Summary:     "List accounts",
		Description: "Returns every book-tracking account",
		Tags:        []string{"Goodreads"},
	}, s.handleListAccounts)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAccount",
		Method:      http.MethodGet,
		Path:        "/api/v1/goodreads/{username}",
		Summary:     "Get account",
		Description: "Returns one account with its books and friends",
		Tags:        []string{"Goodreads"},
	}, s.handleGetAccount)

	huma.Register(s.api, huma.Operation{
		OperationID: "getNetworkBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/goodreads/{username}/network_books",
		Summary:     "Get network books",
		Description: "Returns the user's books next to the union of their friends' books",
		Tags:        []string{"Goodreads"},
	}, s.handleGetNetworkBooks)
}

// AccountSummary identifies one account in listings.
type AccountSummary struct {
	Username  string    `json:"username" doc:"Owning user's username"`
	CreatedAt time.Time `json:"created_at" doc:"Account creation time"`
}

type ListAccountsResponse struct {
	Accounts []AccountSummary `json:"accounts" doc:"Accounts ordered by username"`
}

type ListAccountsOutput struct {
	Body ListAccountsResponse
}

type GetAccountInput struct {
	Username string `path:"username" doc:"Username"`
}

type AccountResponse struct {
	Username  string         `json:"username" doc:"Owning user's username"`
	CreatedAt time.Time      `json:"created_at" doc:"Account creation time"`
	Books     []BookResponse `json:"books" doc:"Books in the collection"`
	Friends   []string       `json:"friends" doc:"Friend usernames, outgoing edges only"`
}

type AccountOutput struct {
	Body AccountResponse
}

type GetNetworkBooksInput struct {
	Username string `path:"username" doc:"Username"`
}

type NetworkBooksResponse struct {
	User         string         `json:"user" doc:"Username the sets belong to"`
	UserBooks    []BookResponse `json:"user_books" doc:"The user's own books"`
	FriendsBooks []BookResponse `json:"friends_books" doc:"Union of friends' books, deduplicated by ID"`
}

type NetworkBooksOutput struct {
	Body NetworkBooksResponse
}

func (s *Server) handleListAccounts(ctx context.Context, _ *struct{}) (*ListAccountsOutput, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]AccountSummary, len(accounts))
	for i, a := range accounts {
		summaries[i] = AccountSummary{Username: a.Username, CreatedAt: a.CreatedAt}
	}

	return &ListAccountsOutput{Body: ListAccountsResponse{Accounts: summaries}}, nil
}

func (s *Server) handleGetAccount(ctx context.Context, input *GetAccountInput) (*AccountOutput, error) {
	account, err := s.resolveAccount(ctx, input.Username)
	if err != nil {
		return nil, err
	}

	books, err := s.store.ListBooksByAccount(ctx, account.UserID)
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

	return &AccountOutput{Body: AccountResponse{
		Username:  account.Username,
		CreatedAt: account.CreatedAt,
		Books:     mapBookResponses(books),
		Friends:   friends,
	}}, nil
}

func (s *Server) handleGetNetworkBooks(ctx context.Context, input *GetNetworkBooksInput) (*NetworkBooksOutput, error) {
	books, err := s.services.Network.NetworkBooks(ctx, input.Username)
	if err != nil {
		return nil, err
	}

	return &NetworkBooksOutput{Body: NetworkBooksResponse{
		User:         books.User,
		UserBooks:    mapBookResponses(books.UserBooks),
		FriendsBooks: mapBookResponses(books.FriendsBooks),
	}}, nil
}
