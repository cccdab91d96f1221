package mongo

import (
	"context"
	"time"

	"github.com/kevinaaaquil/bookmemory/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (db *DB) ListComments(ctx context.Context, bookID int64) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := findAll(ctx, db.Comments(), bson.M{"bookId": bookID}, &comments,
		sorted(bson.E{Key: "createdAt", Value: -1}, bson.E{Key: "_id", Value: -1}))
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}
	users, err := db.usersByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		comments[i].Author = users[comments[i].UserID]
	}
	return comments, nil
}

func (db *DB) InsertComment(ctx context.Context, c *models.Comment) error {
	id, err := db.nextID(ctx, "comments")
	if err != nil {
		return err
	}
	c.ID = id
	_, err = db.Comments().InsertOne(ctx, c)
	return err
}

func (db *DB) CommentByID(ctx context.Context, id int64) (*models.Comment, error) {
	var c models.Comment
	if err := findOne(ctx, db.Comments(), bson.M{"_id": id}, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) DeleteComment(ctx context.Context, id int64) error {
	return deleteOne(ctx, db.Comments(), id)
}

// Follow relies on the unique (followerId, followingId) index: a duplicate
// key means the edge already exists.
func (db *DB) Follow(ctx context.Context, followerID, followingID int64, at time.Time) (bool, error) {
	id, err := db.nextID(ctx, "follows")
	if err != nil {
		return false, err
	}
	f := models.Follow{ID: id, FollowerID: followerID, FollowingID: followingID, CreatedAt: at}
	if _, err := db.Follows().InsertOne(ctx, f); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (db *DB) Unfollow(ctx context.Context, followerID, followingID int64) (bool, error) {
	res, err := db.Follows().DeleteOne(ctx, bson.M{"followerId": followerID, "followingId": followingID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (db *DB) Following(ctx context.Context, userID int64) ([]models.Follow, error) {
	return db.follows(ctx, bson.M{"followerId": userID})
}

func (db *DB) Followers(ctx context.Context, userID int64) ([]models.Follow, error) {
	return db.follows(ctx, bson.M{"followingId": userID})
}

func (db *DB) follows(ctx context.Context, filter bson.M) ([]models.Follow, error) {
	follows := []models.Follow{}
	err := findAll(ctx, db.Follows(), filter, &follows,
		sorted(bson.E{Key: "createdAt", Value: 1}, bson.E{Key: "_id", Value: 1}))
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, 2*len(follows))
	for _, f := range follows {
		ids = append(ids, f.FollowerID, f.FollowingID)
	}
	users, err := db.usersByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range follows {
		follows[i].Follower = users[follows[i].FollowerID]
		follows[i].Following = users[follows[i].FollowingID]
	}
	return follows, nil
}

func (db *DB) InsertMessage(ctx context.Context, m *models.Message) error {
	id, err := db.nextID(ctx, "messages")
	if err != nil {
		return err
	}
	m.ID = id
	_, err = db.Messages().InsertOne(ctx, m)
	return err
}

func (db *DB) Conversation(ctx context.Context, userID, otherID int64) ([]models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"senderId": userID, "receiverId": otherID},
		bson.M{"senderId": otherID, "receiverId": userID},
	}}
	messages := []models.Message{}
	err := findAll(ctx, db.Messages(), filter, &messages,
		sorted(bson.E{Key: "createdAt", Value: 1}, bson.E{Key: "_id", Value: 1}))
	if err != nil {
		return nil, err
	}
	users, err := db.usersByID(ctx, []int64{userID, otherID})
	if err != nil {
		return nil, err
	}
	for i := range messages {
		messages[i].Sender = users[messages[i].SenderID]
		messages[i].Receiver = users[messages[i].ReceiverID]
	}
	return messages, nil
}
