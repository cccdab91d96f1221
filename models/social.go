package models

import "time"

// Comment is immutable once written; it can only be deleted by its author.
// Author is filled in by list queries.
type Comment struct {
	ID        int64     `bson:"_id" json:"id"`
	BookID    int64     `bson:"bookId" json:"book_id"`
	UserID    int64     `bson:"userId" json:"-"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`

	Author *User `bson:"-" json:"-"`
}

// Follow is a directed edge from FollowerID to FollowingID.
type Follow struct {
	ID          int64     `bson:"_id" json:"-"`
	FollowerID  int64     `bson:"followerId" json:"-"`
	FollowingID int64     `bson:"followingId" json:"-"`
	CreatedAt   time.Time `bson:"createdAt" json:"created_at"`

	Follower  *User `bson:"-" json:"-"`
	Following *User `bson:"-" json:"-"`
}

// Message is a direct message. There is no conversation entity; a
// conversation is every message exchanged between two users.
type Message struct {
	ID         int64     `bson:"_id" json:"id"`
	SenderID   int64     `bson:"senderId" json:"-"`
	ReceiverID int64     `bson:"receiverId" json:"-"`
	Content    string    `bson:"content" json:"content"`
	CreatedAt  time.Time `bson:"createdAt" json:"created_at"`

	Sender   *User `bson:"-" json:"-"`
	Receiver *User `bson:"-" json:"-"`
}

// Stats is the per-user reading overview.
type Stats struct {
	TotalRead         int64 `json:"total_read"`
	TotalWantToRead   int64 `json:"total_want_to_read"`
	ReadThisMonth     int64 `json:"read_this_month"`
	FinishedThisMonth int64 `json:"finished_this_month"`
}
