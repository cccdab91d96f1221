// Package mongo is the MongoDB store backend. Integer ids come from a
// counters collection so both backends expose the same ids on the wire.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kevinaaaquil/bookmemory/store"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ store.Store = (*DB)(nil)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	db := &DB{
		Client:   client,
		Database: client.Database(dbName),
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	log.Info().Str("db", dbName).Msg("connected to MongoDB")
	return db, nil
}

func (db *DB) Users() *mongo.Collection     { return db.Database.Collection("users") }
func (db *DB) Books() *mongo.Collection     { return db.Database.Collection("books") }
func (db *DB) Chapters() *mongo.Collection  { return db.Database.Collection("chapters") }
func (db *DB) NotePages() *mongo.Collection { return db.Database.Collection("note_pages") }
func (db *DB) Comments() *mongo.Collection  { return db.Database.Collection("comments") }
func (db *DB) Follows() *mongo.Collection   { return db.Database.Collection("follows") }
func (db *DB) Messages() *mongo.Collection  { return db.Database.Collection("messages") }
func (db *DB) Counters() *mongo.Collection  { return db.Database.Collection("counters") }

// EnsureIndexes creates the unique and lookup indexes the store relies on.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{db.Users(), mongo.IndexModel{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{db.Books(), mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{db.Chapters(), mongo.IndexModel{Keys: bson.D{{Key: "bookId", Value: 1}, {Key: "order", Value: 1}}}},
		{db.NotePages(), mongo.IndexModel{Keys: bson.D{{Key: "bookId", Value: 1}, {Key: "sortOrder", Value: 1}}}},
		{db.Comments(), mongo.IndexModel{Keys: bson.D{{Key: "bookId", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{db.Follows(), mongo.IndexModel{
			Keys:    bson.D{{Key: "followerId", Value: 1}, {Key: "followingId", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{db.Follows(), mongo.IndexModel{Keys: bson.D{{Key: "followingId", Value: 1}}}},
		{db.Messages(), mongo.IndexModel{Keys: bson.D{{Key: "senderId", Value: 1}, {Key: "receiverId", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("%s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

// nextID atomically increments the named sequence and returns the new value.
func (db *DB) nextID(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := db.Counters().FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return doc.Seq, nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.Client.Ping(ctx, nil)
}

func (db *DB) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client.Disconnect(ctx)
}

// findOne decodes a single document, mapping ErrNoDocuments to store.ErrNotFound.
func findOne(ctx context.Context, coll *mongo.Collection, filter any, out any) error {
	err := coll.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

// findAll decodes every matching document into out, which must point to a slice.
func findAll(ctx context.Context, coll *mongo.Collection, filter any, out any, opts ...*options.FindOptions) error {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	return cur.All(ctx, out)
}

// deleteOne removes a document by id and reports ErrNotFound when none matched.
func deleteOne(ctx context.Context, coll *mongo.Collection, id int64) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// replaceOne replaces a document by id and reports ErrNotFound when none matched.
func replaceOne(ctx context.Context, coll *mongo.Collection, id int64, doc any) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// sorted builds find options with an ordered sort document.
func sorted(keys ...bson.E) *options.FindOptions {
	return options.Find().SetSort(bson.D(keys))
}
