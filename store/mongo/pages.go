package mongo

import (
	"context"

	"github.com/kevinaaaquil/bookmemory/models"
	"go.mongodb.org/mongo-driver/bson"
)

func (db *DB) ListChapters(ctx context.Context, bookID int64) ([]models.Chapter, error) {
	chapters := []models.Chapter{}
	err := findAll(ctx, db.Chapters(), bson.M{"bookId": bookID}, &chapters,
		sorted(bson.E{Key: "order", Value: 1}, bson.E{Key: "_id", Value: 1}))
	if err != nil {
		return nil, err
	}
	return chapters, nil
}

func (db *DB) InsertChapter(ctx context.Context, c *models.Chapter) error {
	id, err := db.nextID(ctx, "chapters")
	if err != nil {
		return err
	}
	c.ID = id
	_, err = db.Chapters().InsertOne(ctx, c)
	return err
}

// OwnedChapter resolves the chapter and then checks its book belongs to userID.
func (db *DB) OwnedChapter(ctx context.Context, id, userID int64) (*models.Chapter, error) {
	var c models.Chapter
	if err := findOne(ctx, db.Chapters(), bson.M{"_id": id}, &c); err != nil {
		return nil, err
	}
	if _, err := db.OwnedBook(ctx, c.BookID, userID); err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) UpdateChapter(ctx context.Context, c *models.Chapter) error {
	return replaceOne(ctx, db.Chapters(), c.ID, c)
}

func (db *DB) DeleteChapter(ctx context.Context, id int64) error {
	return deleteOne(ctx, db.Chapters(), id)
}

func (db *DB) ListNotePages(ctx context.Context, bookID int64) ([]models.NotePage, error) {
	pages := []models.NotePage{}
	err := findAll(ctx, db.NotePages(), bson.M{"bookId": bookID}, &pages,
		sorted(bson.E{Key: "sortOrder", Value: 1}, bson.E{Key: "_id", Value: 1}))
	if err != nil {
		return nil, err
	}
	return pages, nil
}

func (db *DB) InsertNotePage(ctx context.Context, n *models.NotePage) error {
	id, err := db.nextID(ctx, "note_pages")
	if err != nil {
		return err
	}
	n.ID = id
	_, err = db.NotePages().InsertOne(ctx, n)
	return err
}

func (db *DB) OwnedNotePage(ctx context.Context, id, userID int64) (*models.NotePage, error) {
	var n models.NotePage
	if err := findOne(ctx, db.NotePages(), bson.M{"_id": id}, &n); err != nil {
		return nil, err
	}
	if _, err := db.OwnedBook(ctx, n.BookID, userID); err != nil {
		return nil, err
	}
	return &n, nil
}

func (db *DB) UpdateNotePage(ctx context.Context, n *models.NotePage) error {
	return replaceOne(ctx, db.NotePages(), n.ID, n)
}

func (db *DB) DeleteNotePage(ctx context.Context, id int64) error {
	return deleteOne(ctx, db.NotePages(), id)
}
