package store

import (
	"context"
	"errors"

	"civicsync-issues/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
)

const userCollectionName = "users"

type MongoUserStore struct {
	coll *mongo.Collection
	opts options
}

func NewMongoUserStore(db *mongo.Database, opts ...Option) *MongoUserStore {
	return &MongoUserStore{coll: db.Collection(userCollectionName), opts: newOptions(opts)}
}

// EnsureIndexes creates a unique index on email.
func (s *MongoUserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: mongoopts.Index().SetUnique(true),
	})
	if err != nil {
		return storageErr("create user indexes", err)
	}
	return nil
}

func (s *MongoUserStore) CreateUser(ctx context.Context, u *models.User) error {
	count, err := s.coll.CountDocuments(ctx, bson.M{"email": u.Email})
	if err != nil {
		return storageErr("count users", err)
	}
	if count > 0 {
		return ErrEmailTaken
	}

	u.ID = primitive.NewObjectID()
	u.CreatedAt = s.opts.stamp()
	u.UpdatedAt = u.CreatedAt

	if _, err := s.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return storageErr("insert user", err)
	}
	return nil
}

func (s *MongoUserStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoUserStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, storageErr("find user", err)
	}
	return &user, nil
}
