package domain

// Book is a catalog entry with immutable identity.
// Name is unique across the catalog; two books never share a name,
// but deduplication elsewhere is always by ID, never by name.
type Book struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Author string `json:"author"`
}

// BookOwnership records that an account holds a book in its collection.
// Unique on (AccountID, BookID). Created and removed independently of
// friendship edges.
type BookOwnership struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	BookID    string `json:"book_id"`
}
