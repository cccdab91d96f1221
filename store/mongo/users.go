package mongo

import (
	"context"

	"github.com/kevinaaaquil/bookmemory/models"
	"github.com/kevinaaaquil/bookmemory/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	id, err := db.nextID(ctx, "users")
	if err != nil {
		return err
	}
	user.ID = id
	if _, err := db.Users().InsertOne(ctx, user); err != nil {
		user.ID = 0
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (db *DB) UserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := findOne(ctx, db.Users(), bson.M{"_id": id}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := findOne(ctx, db.Users(), bson.M{"username": username}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// usersByID loads the given users in one round trip, keyed by id.
func (db *DB) usersByID(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	out := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := findAll(ctx, db.Users(), bson.M{"_id": bson.M{"$in": ids}}, &users); err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}
