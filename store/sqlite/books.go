package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kevinaaaquil/bookmemory/models"
)

const bookColumns = `id, user_id, title, author, status, amazon_url, cover_image_url,
	cover_key, note_markdown, started_at, finished_at, title_guess, created_at, updated_at`

func scanBook(sc scanner) (*models.Book, error) {
	var (
		b                      models.Book
		author, amazonURL      sql.NullString
		coverURL, noteMarkdown sql.NullString
		startedAt, finishedAt  sql.NullString
		titleGuess             sql.NullString
		status                 string
		createdAt, updatedAt   string
	)
	err := sc.Scan(&b.ID, &b.UserID, &b.Title, &author, &status, &amazonURL, &coverURL,
		&b.CoverKey, &noteMarkdown, &startedAt, &finishedAt, &titleGuess, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	b.Status = models.BookStatus(status)
	b.Author = stringPtr(author)
	b.AmazonURL = stringPtr(amazonURL)
	b.CoverImageURL = stringPtr(coverURL)
	b.NoteMarkdown = stringPtr(noteMarkdown)
	b.TitleGuess = stringPtr(titleGuess)
	if b.StartedAt, err = datePtr(startedAt); err != nil {
		return nil, err
	}
	if b.FinishedAt, err = datePtr(finishedAt); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) queryBooks(ctx context.Context, query string, args ...any) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()
	books := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

func (s *Store) ListBooks(ctx context.Context, userID int64, status models.BookStatus) ([]models.Book, error) {
	if status == "" {
		return s.queryBooks(ctx, `SELECT `+bookColumns+` FROM books WHERE user_id = ?
			ORDER BY created_at DESC, id DESC`, userID)
	}
	return s.queryBooks(ctx, `SELECT `+bookColumns+` FROM books WHERE user_id = ? AND status = ?
		ORDER BY created_at DESC, id DESC`, userID, string(status))
}

func (s *Store) InsertBook(ctx context.Context, b *models.Book) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO books (user_id, title, author, status, amazon_url,
		cover_image_url, cover_key, note_markdown, started_at, finished_at, title_guess, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.Title, nullableString(b.Author), string(b.Status), nullableString(b.AmazonURL),
		nullableString(b.CoverImageURL), b.CoverKey, nullableString(b.NoteMarkdown),
		nullableDate(b.StartedAt), nullableDate(b.FinishedAt), nullableString(b.TitleGuess),
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	b.ID, err = res.LastInsertId()
	return err
}

func (s *Store) BookByID(ctx context.Context, id int64) (*models.Book, error) {
	b, err := scanBook(s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

func (s *Store) OwnedBook(ctx context.Context, id, userID int64) (*models.Book, error) {
	b, err := scanBook(s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

func (s *Store) UpdateBook(ctx context.Context, b *models.Book) error {
	res, err := s.db.ExecContext(ctx, `UPDATE books SET title = ?, author = ?, status = ?, amazon_url = ?,
		cover_image_url = ?, cover_key = ?, note_markdown = ?, started_at = ?, finished_at = ?,
		title_guess = ?, updated_at = ?
		WHERE id = ?`,
		b.Title, nullableString(b.Author), string(b.Status), nullableString(b.AmazonURL),
		nullableString(b.CoverImageURL), b.CoverKey, nullableString(b.NoteMarkdown),
		nullableDate(b.StartedAt), nullableDate(b.FinishedAt), nullableString(b.TitleGuess),
		formatTime(b.UpdatedAt), b.ID)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	return updated(res)
}

// DeleteBook relies on ON DELETE CASCADE for chapters, note pages and comments.
func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "books", id)
}

func (s *Store) BookStats(ctx context.Context, userID int64, now time.Time) (*models.Stats, error) {
	first, next := models.MonthBounds(now)
	var st models.Stats
	err := s.db.QueryRowContext(ctx, `SELECT
			COUNT(CASE WHEN status = 'read' THEN 1 END),
			COUNT(CASE WHEN status = 'want_to_read' THEN 1 END),
			COUNT(CASE WHEN started_at >= ?1 AND started_at < ?2 THEN 1 END),
			COUNT(CASE WHEN finished_at >= ?1 AND finished_at < ?2 THEN 1 END)
		FROM books WHERE user_id = ?3`,
		first.String(), next.String(), userID,
	).Scan(&st.TotalRead, &st.TotalWantToRead, &st.ReadThisMonth, &st.FinishedThisMonth)
	if err != nil {
		return nil, fmt.Errorf("book stats: %w", err)
	}
	return &st, nil
}
