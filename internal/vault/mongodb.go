package vault

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "totp"

// MongoStorage implements Storage on top of a MongoDB collection.
type MongoStorage struct {
	coll *mongo.Collection
}

// NewMongoStorage returns a Storage backed by the named collection.
func NewMongoStorage(db *mongo.Database, collection string) *MongoStorage {
	if collection == "" {
		collection = DefaultCollection
	}
	return &MongoStorage{coll: db.Collection(collection)}
}

func (s *MongoStorage) FindByID(ctx context.Context, id string) (Record, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return Record{}, ErrInvalidID
	}

	var rec Record
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Record{}, ErrNotFound
		}
		return Record{}, errors.Join(ErrStoreUnavailable, err)
	}
	return rec, nil
}

func (s *MongoStorage) FindByLabel(ctx context.Context, label string) (Record, error) {
	var rec Record
	if err := s.coll.FindOne(ctx, bson.M{"label": label}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Record{}, ErrNotFound
		}
		return Record{}, errors.Join(ErrStoreUnavailable, err)
	}
	return rec, nil
}

func (s *MongoStorage) List(ctx context.Context) ([]Record, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	var records []Record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return records, nil
}

func (s *MongoStorage) Upsert(ctx context.Context, rec Record) error {
	update := bson.M{"$set": bson.M{
		"label":     rec.Label,
		"secret":    rec.Secret,
		"issuer":    rec.Issuer,
		"note":      rec.Note,
		"algorithm": rec.Algorithm,
		"digits":    rec.Digits,
		"period":    rec.Period,
		"updatedAt": rec.UpdatedAt,
	}}

	_, err := s.coll.UpdateOne(ctx, bson.M{"label": rec.Label}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *MongoStorage) UpdateNote(ctx context.Context, id, note string, at time.Time) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}

	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"note": note, "updatedAt": at}},
	)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStorage) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}

	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
