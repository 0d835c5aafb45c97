package repository

import (
	"context"

	"commutesurvey/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionRepo stores survey session snapshots durably
type SessionRepo interface {
	Save(ctx context.Context, snap *model.SessionSnapshot) error
	GetByID(ctx context.Context, id string) (*model.SessionSnapshot, error)
	Delete(ctx context.Context, id string) error
	ListByTokenOrSlug(ctx context.Context, tokenOrSlug string, limit int64) ([]*model.SessionSnapshot, error)
	EnsureIndexes(ctx context.Context) error
}

type sessionRepo struct {
	collection *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("survey_sessions"),
	}
}

// Save replaces the stored snapshot, inserting it on first write
func (r *sessionRepo) Save(ctx context.Context, snap *model.SessionSnapshot) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": snap.ID}, snap, options.Replace().SetUpsert(true))
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.SessionSnapshot, error) {
	var snap model.SessionSnapshot
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&snap)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListByTokenOrSlug returns the most recent sessions opened with a token or slug
func (r *sessionRepo) ListByTokenOrSlug(ctx context.Context, tokenOrSlug string, limit int64) ([]*model.SessionSnapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.collection.Find(ctx, bson.M{"tokenOrSlug": tokenOrSlug}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var snaps []*model.SessionSnapshot
	if err := cursor.All(ctx, &snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

func (r *sessionRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tokenOrSlug", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	return err
}
