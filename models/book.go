package models

import "time"

// BookStatus is the reading state of a book.
type BookStatus string

const (
	StatusRead       BookStatus = "read"
	StatusWantToRead BookStatus = "want_to_read"
)

// Valid reports whether s is one of the known statuses.
func (s BookStatus) Valid() bool {
	return s == StatusRead || s == StatusWantToRead
}

type Book struct {
	ID            int64      `bson:"_id" json:"id"`
	UserID        int64      `bson:"userId" json:"-"`
	Title         string     `bson:"title" json:"title"`
	Author        *string    `bson:"author" json:"author"`
	Status        BookStatus `bson:"status" json:"status"`
	AmazonURL     *string    `bson:"amazonUrl" json:"amazon_url"`
	CoverImageURL *string    `bson:"coverImageUrl" json:"cover_image_url"`
	CoverKey      string     `bson:"coverKey,omitempty" json:"-"` // object key of an uploaded cover
	NoteMarkdown  *string    `bson:"noteMarkdown" json:"note_markdown"`
	StartedAt     *Date      `bson:"startedAt" json:"started_at"`
	FinishedAt    *Date      `bson:"finishedAt" json:"finished_at"`
	TitleGuess    *string    `bson:"titleGuess" json:"title_guess"`
	CreatedAt     time.Time  `bson:"createdAt" json:"created_at"`
	UpdatedAt     time.Time  `bson:"updatedAt" json:"updated_at"`
}

// Chapter is an ordered section of a book with its own notes.
type Chapter struct {
	ID           int64     `bson:"_id" json:"id"`
	BookID       int64     `bson:"bookId" json:"book_id"`
	Title        string    `bson:"title" json:"title"`
	Order        int       `bson:"order" json:"order"`
	NoteMarkdown *string   `bson:"noteMarkdown" json:"note_markdown"`
	CreatedAt    time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updated_at"`
}

// NotePage is a rich-text page attached to a book. Content is HTML produced
// by the client editor and is stored as-is.
type NotePage struct {
	ID        int64     `bson:"_id" json:"id"`
	BookID    int64     `bson:"bookId" json:"book_id"`
	Title     string    `bson:"title" json:"title"`
	SortOrder int       `bson:"sortOrder" json:"sort_order"`
	Content   *string   `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updated_at"`
}
