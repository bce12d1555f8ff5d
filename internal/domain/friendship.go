package domain

// Friendship is a directed edge between two accounts.
//
// The intended semantics are symmetric, but the store holds one row per
// ordered pair and enforces nothing about the reverse direction. An
// account referenced only as someone else's friend is not visible from
// this side of the edge. Traversal is over outgoing edges only.
type Friendship struct {
	ID string `json:"id"`
	// UserID is the account that owns the edge.
	UserID string `json:"user_id"`
	// FriendID is the account designated as a friend.
	FriendID string `json:"friend_id"`
}
