package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/kevinaaaquil/bookmemory/models"
	"go.mongodb.org/mongo-driver/bson"
)

func (db *DB) ListBooks(ctx context.Context, userID int64, status models.BookStatus) ([]models.Book, error) {
	filter := bson.M{"userId": userID}
	if status != "" {
		filter["status"] = status
	}
	books := []models.Book{}
	err := findAll(ctx, db.Books(), filter, &books,
		sorted(bson.E{Key: "createdAt", Value: -1}, bson.E{Key: "_id", Value: -1}))
	if err != nil {
		return nil, err
	}
	return books, nil
}

func (db *DB) InsertBook(ctx context.Context, book *models.Book) error {
	id, err := db.nextID(ctx, "books")
	if err != nil {
		return err
	}
	book.ID = id
	_, err = db.Books().InsertOne(ctx, book)
	return err
}

func (db *DB) BookByID(ctx context.Context, id int64) (*models.Book, error) {
	var book models.Book
	if err := findOne(ctx, db.Books(), bson.M{"_id": id}, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (db *DB) OwnedBook(ctx context.Context, id, userID int64) (*models.Book, error) {
	var book models.Book
	if err := findOne(ctx, db.Books(), bson.M{"_id": id, "userId": userID}, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (db *DB) UpdateBook(ctx context.Context, book *models.Book) error {
	return replaceOne(ctx, db.Books(), book.ID, book)
}

// DeleteBook removes the book's children first so a failure never leaves
// orphans pointing at a missing book.
func (db *DB) DeleteBook(ctx context.Context, id int64) error {
	children := bson.M{"bookId": id}
	for _, coll := range [...]string{"chapters", "note_pages", "comments"} {
		if _, err := db.Database.Collection(coll).DeleteMany(ctx, children); err != nil {
			return fmt.Errorf("delete %s of book %d: %w", coll, id, err)
		}
	}
	return deleteOne(ctx, db.Books(), id)
}

func (db *DB) BookStats(ctx context.Context, userID int64, now time.Time) (*models.Stats, error) {
	first, next := models.MonthBounds(now)
	month := bson.M{"$gte": first.String(), "$lt": next.String()}
	var st models.Stats
	counts := []struct {
		dst    *int64
		filter bson.M
	}{
		{&st.TotalRead, bson.M{"userId": userID, "status": models.StatusRead}},
		{&st.TotalWantToRead, bson.M{"userId": userID, "status": models.StatusWantToRead}},
		{&st.ReadThisMonth, bson.M{"userId": userID, "startedAt": month}},
		{&st.FinishedThisMonth, bson.M{"userId": userID, "finishedAt": month}},
	}
	for _, c := range counts {
		n, err := db.Books().CountDocuments(ctx, c.filter)
		if err != nil {
			return nil, fmt.Errorf("book stats: %w", err)
		}
		*c.dst = n
	}
	return &st, nil
}
