package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/kevinaaaquil/bookmemory/models"
)

func (s *Store) ListComments(ctx context.Context, bookID int64) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT c.id, c.book_id, c.user_id, c.content, c.created_at, u.username
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.book_id = ?
		ORDER BY c.created_at DESC, c.id DESC`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()
	comments := []models.Comment{}
	for rows.Next() {
		var (
			c         models.Comment
			createdAt string
			username  string
		)
		if err := rows.Scan(&c.ID, &c.BookID, &c.UserID, &c.Content, &createdAt, &username); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		c.Author = profile(c.UserID, username)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Store) InsertComment(ctx context.Context, c *models.Comment) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO comments (book_id, user_id, content, created_at) VALUES (?, ?, ?, ?)`,
		c.BookID, c.UserID, c.Content, formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (s *Store) CommentByID(ctx context.Context, id int64) (*models.Comment, error) {
	var (
		c         models.Comment
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, book_id, user_id, content, created_at FROM comments WHERE id = ?`, id).
		Scan(&c.ID, &c.BookID, &c.UserID, &c.Content, &createdAt)
	if err != nil {
		return nil, notFound(err)
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "comments", id)
}

func (s *Store) Follow(ctx context.Context, followerID, followingID int64, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO follows (follower_id, following_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (follower_id, following_id) DO NOTHING`,
		followerID, followingID, formatTime(at))
	if err != nil {
		return false, fmt.Errorf("insert follow: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Store) Unfollow(ctx context.Context, followerID, followingID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM follows WHERE follower_id = ? AND following_id = ?`,
		followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("delete follow: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const followQuery = `SELECT f.id, f.follower_id, fr.username, f.following_id, fg.username, f.created_at
	FROM follows f
	JOIN users fr ON fr.id = f.follower_id
	JOIN users fg ON fg.id = f.following_id`

func (s *Store) Following(ctx context.Context, userID int64) ([]models.Follow, error) {
	return s.queryFollows(ctx, followQuery+` WHERE f.follower_id = ? ORDER BY f.created_at, f.id`, userID)
}

func (s *Store) Followers(ctx context.Context, userID int64) ([]models.Follow, error) {
	return s.queryFollows(ctx, followQuery+` WHERE f.following_id = ? ORDER BY f.created_at, f.id`, userID)
}

func (s *Store) queryFollows(ctx context.Context, query string, args ...any) ([]models.Follow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query follows: %w", err)
	}
	defer rows.Close()
	follows := []models.Follow{}
	for rows.Next() {
		var (
			f                   models.Follow
			follower, following string
			createdAt           string
		)
		if err := rows.Scan(&f.ID, &f.FollowerID, &follower, &f.FollowingID, &following, &createdAt); err != nil {
			return nil, fmt.Errorf("scan follow: %w", err)
		}
		if f.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		f.Follower = profile(f.FollowerID, follower)
		f.Following = profile(f.FollowingID, following)
		follows = append(follows, f)
	}
	return follows, rows.Err()
}

func (s *Store) InsertMessage(ctx context.Context, m *models.Message) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO messages (sender_id, receiver_id, content, created_at) VALUES (?, ?, ?, ?)`,
		m.SenderID, m.ReceiverID, m.Content, formatTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	m.ID, err = res.LastInsertId()
	return err
}

func (s *Store) Conversation(ctx context.Context, userID, otherID int64) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT m.id, m.sender_id, su.username, m.receiver_id, ru.username, m.content, m.created_at
		FROM messages m
		JOIN users su ON su.id = m.sender_id
		JOIN users ru ON ru.id = m.receiver_id
		WHERE (m.sender_id = ?1 AND m.receiver_id = ?2) OR (m.sender_id = ?2 AND m.receiver_id = ?1)
		ORDER BY m.created_at, m.id`, userID, otherID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()
	messages := []models.Message{}
	for rows.Next() {
		var (
			m                models.Message
			sender, receiver string
			createdAt        string
		)
		if err := rows.Scan(&m.ID, &m.SenderID, &sender, &m.ReceiverID, &receiver, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		m.Sender = profile(m.SenderID, sender)
		m.Receiver = profile(m.ReceiverID, receiver)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
