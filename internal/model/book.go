package model

// Book is a catalog entry as stored in the `books` table.  CreatorID is set
// from the authenticated identity on creation and never changes afterwards.
// The JSON shape matches the public API: {id, title, author, creator,
// publicationYear, isbn}.
type Book struct {
    ID              uint64 `json:"id"`              // books.id
    Title           string `json:"title"`           // books.title
    Author          string `json:"author"`          // books.author
    CreatorID       uint64 `json:"creator"`         // books.creator_id (references users.id)
    PublicationYear int    `json:"publicationYear"` // books.publication_year
    ISBN            string `json:"isbn"`            // books.isbn
}
