package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kevinaaaquil/bookmemory/models"
)

const chapterColumns = `c.id, c.book_id, c.title, c.position, c.note_markdown, c.created_at, c.updated_at`

func scanChapter(sc scanner) (*models.Chapter, error) {
	var (
		c                    models.Chapter
		note                 sql.NullString
		createdAt, updatedAt string
	)
	if err := sc.Scan(&c.ID, &c.BookID, &c.Title, &c.Order, &note, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.NoteMarkdown = stringPtr(note)
	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListChapters(ctx context.Context, bookID int64) ([]models.Chapter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+chapterColumns+` FROM chapters c
		WHERE c.book_id = ? ORDER BY c.position, c.id`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query chapters: %w", err)
	}
	defer rows.Close()
	chapters := []models.Chapter{}
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		chapters = append(chapters, *c)
	}
	return chapters, rows.Err()
}

func (s *Store) InsertChapter(ctx context.Context, c *models.Chapter) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO chapters (book_id, title, position, note_markdown, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.BookID, c.Title, c.Order, nullableString(c.NoteMarkdown), formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert chapter: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// OwnedChapter resolves the chapter through its book's owner.
func (s *Store) OwnedChapter(ctx context.Context, id, userID int64) (*models.Chapter, error) {
	c, err := scanChapter(s.db.QueryRowContext(ctx, `SELECT `+chapterColumns+` FROM chapters c
		JOIN books b ON b.id = c.book_id
		WHERE c.id = ? AND b.user_id = ?`, id, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (s *Store) UpdateChapter(ctx context.Context, c *models.Chapter) error {
	res, err := s.db.ExecContext(ctx, `UPDATE chapters SET title = ?, position = ?, note_markdown = ?, updated_at = ?
		WHERE id = ?`,
		c.Title, c.Order, nullableString(c.NoteMarkdown), formatTime(c.UpdatedAt), c.ID)
	if err != nil {
		return fmt.Errorf("update chapter: %w", err)
	}
	return updated(res)
}

func (s *Store) DeleteChapter(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "chapters", id)
}

const notePageColumns = `n.id, n.book_id, n.title, n.sort_order, n.content, n.created_at, n.updated_at`

func scanNotePage(sc scanner) (*models.NotePage, error) {
	var (
		n                    models.NotePage
		content              sql.NullString
		createdAt, updatedAt string
	)
	if err := sc.Scan(&n.ID, &n.BookID, &n.Title, &n.SortOrder, &content, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	n.Content = stringPtr(content)
	var err error
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if n.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Store) ListNotePages(ctx context.Context, bookID int64) ([]models.NotePage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+notePageColumns+` FROM note_pages n
		WHERE n.book_id = ? ORDER BY n.sort_order, n.id`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query note pages: %w", err)
	}
	defer rows.Close()
	pages := []models.NotePage{}
	for rows.Next() {
		n, err := scanNotePage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note page: %w", err)
		}
		pages = append(pages, *n)
	}
	return pages, rows.Err()
}

func (s *Store) InsertNotePage(ctx context.Context, n *models.NotePage) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO note_pages (book_id, title, sort_order, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.BookID, n.Title, n.SortOrder, nullableString(n.Content), formatTime(n.CreatedAt), formatTime(n.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert note page: %w", err)
	}
	n.ID, err = res.LastInsertId()
	return err
}

func (s *Store) OwnedNotePage(ctx context.Context, id, userID int64) (*models.NotePage, error) {
	n, err := scanNotePage(s.db.QueryRowContext(ctx, `SELECT `+notePageColumns+` FROM note_pages n
		JOIN books b ON b.id = n.book_id
		WHERE n.id = ? AND b.user_id = ?`, id, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return n, nil
}

func (s *Store) UpdateNotePage(ctx context.Context, n *models.NotePage) error {
	res, err := s.db.ExecContext(ctx, `UPDATE note_pages SET title = ?, sort_order = ?, content = ?, updated_at = ?
		WHERE id = ?`,
		n.Title, n.SortOrder, nullableString(n.Content), formatTime(n.UpdatedAt), n.ID)
	if err != nil {
		return fmt.Errorf("update note page: %w", err)
	}
	return updated(res)
}

func (s *Store) DeleteNotePage(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "note_pages", id)
}
