// Package store defines the persistence contract shared by the SQLite and
// MongoDB backends.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/kevinaaaquil/bookmemory/models"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate")
)

// Store is implemented by every backend. Methods that create rows fill in the
// generated ID on the passed model. Owned* lookups are scoped to the owning
// user of the root book and return ErrNotFound for rows owned by someone else.
type Store interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id int64) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)

	// ListBooks returns the user's books newest first. An empty status means all.
	ListBooks(ctx context.Context, userID int64, status models.BookStatus) ([]models.Book, error)
	InsertBook(ctx context.Context, b *models.Book) error
	BookByID(ctx context.Context, id int64) (*models.Book, error)
	OwnedBook(ctx context.Context, id, userID int64) (*models.Book, error)
	UpdateBook(ctx context.Context, b *models.Book) error
	// DeleteBook removes the book with its chapters, note pages and comments.
	DeleteBook(ctx context.Context, id int64) error

	ListChapters(ctx context.Context, bookID int64) ([]models.Chapter, error)
	InsertChapter(ctx context.Context, c *models.Chapter) error
	OwnedChapter(ctx context.Context, id, userID int64) (*models.Chapter, error)
	UpdateChapter(ctx context.Context, c *models.Chapter) error
	DeleteChapter(ctx context.Context, id int64) error

	ListNotePages(ctx context.Context, bookID int64) ([]models.NotePage, error)
	InsertNotePage(ctx context.Context, n *models.NotePage) error
	OwnedNotePage(ctx context.Context, id, userID int64) (*models.NotePage, error)
	UpdateNotePage(ctx context.Context, n *models.NotePage) error
	DeleteNotePage(ctx context.Context, id int64) error

	// ListComments returns the book's comments newest first with Author set.
	ListComments(ctx context.Context, bookID int64) ([]models.Comment, error)
	InsertComment(ctx context.Context, c *models.Comment) error
	CommentByID(ctx context.Context, id int64) (*models.Comment, error)
	DeleteComment(ctx context.Context, id int64) error

	// Follow creates the edge and reports false if it already existed.
	Follow(ctx context.Context, followerID, followingID int64, at time.Time) (bool, error)
	// Unfollow removes the edge and reports false if there was none.
	Unfollow(ctx context.Context, followerID, followingID int64) (bool, error)
	// Following and Followers return edges oldest first with both users set.
	Following(ctx context.Context, userID int64) ([]models.Follow, error)
	Followers(ctx context.Context, userID int64) ([]models.Follow, error)

	InsertMessage(ctx context.Context, m *models.Message) error
	// Conversation returns every message between the two users oldest first
	// with Sender and Receiver set.
	Conversation(ctx context.Context, userID, otherID int64) ([]models.Message, error)

	// BookStats counts the user's books by status and the books started and
	// finished in the calendar month containing now.
	BookStats(ctx context.Context, userID int64, now time.Time) (*models.Stats, error)
}
