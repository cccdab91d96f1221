package handlers

import (
	"time"

	"github.com/kevinaaaquil/bookmemory/models"
)

// UserOut is the public view of a user.
type UserOut struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type TokenOut struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// BookOut adds the child collections on the single-book endpoint.
type BookOut struct {
	models.Book
	Chapters *[]models.Chapter  `json:"chapters,omitempty"`
	Notes    *[]models.NotePage `json:"notes,omitempty"`
}

type CommentOut struct {
	ID        int64     `json:"id"`
	BookID    int64     `json:"book_id"`
	User      UserOut   `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type FollowOut struct {
	Follower  UserOut   `json:"follower"`
	Following UserOut   `json:"following"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageOut struct {
	ID        int64     `json:"id"`
	Sender    UserOut   `json:"sender"`
	Receiver  UserOut   `json:"receiver"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func userOut(u *models.User) UserOut {
	if u == nil {
		return UserOut{}
	}
	return UserOut{ID: u.ID, Username: u.Username}
}

func commentOut(c *models.Comment) CommentOut {
	return CommentOut{
		ID:        c.ID,
		BookID:    c.BookID,
		User:      userOut(c.Author),
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

func followsOut(follows []models.Follow) []FollowOut {
	out := make([]FollowOut, 0, len(follows))
	for i := range follows {
		out = append(out, FollowOut{
			Follower:  userOut(follows[i].Follower),
			Following: userOut(follows[i].Following),
			CreatedAt: follows[i].CreatedAt,
		})
	}
	return out
}

func messageOut(m *models.Message) MessageOut {
	return MessageOut{
		ID:        m.ID,
		Sender:    userOut(m.Sender),
		Receiver:  userOut(m.Receiver),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
