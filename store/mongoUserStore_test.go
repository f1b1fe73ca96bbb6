package store

import (
	"context"
	"testing"

	"civicsync-issues/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func countResponse(n int32) bson.D {
	return mtest.CreateCursorResponse(0, "civicsync.users", mtest.FirstBatch, bson.D{{Key: "n", Value: n}})
}

func TestMongoUserStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create user", func(mt *mtest.T) {
		s := NewMongoUserStore(mt.DB)
		mt.AddMockResponses(countResponse(0), mtest.CreateSuccessResponse())

		u := &models.User{Username: "ada", Email: "ada@example.com"}
		require.NoError(mt, s.CreateUser(context.Background(), u))
		assert.False(mt, u.ID.IsZero())
	})

	mt.Run("existing email", func(mt *mtest.T) {
		s := NewMongoUserStore(mt.DB)
		mt.AddMockResponses(countResponse(1))

		err := s.CreateUser(context.Background(), &models.User{Email: "ada@example.com"})
		assert.ErrorIs(mt, err, ErrEmailTaken)
	})

	mt.Run("duplicate key race", func(mt *mtest.T) {
		s := NewMongoUserStore(mt.DB)
		mt.AddMockResponses(countResponse(0), mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error",
		}))

		err := s.CreateUser(context.Background(), &models.User{Email: "ada@example.com"})
		assert.ErrorIs(mt, err, ErrEmailTaken)
	})

	mt.Run("find by email", func(mt *mtest.T) {
		s := NewMongoUserStore(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "civicsync.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "username", Value: "ada"},
			{Key: "email", Value: "ada@example.com"},
		}))

		u, err := s.FindUserByEmail(context.Background(), "ada@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, id, u.ID)
	})

	mt.Run("unknown user", func(mt *mtest.T) {
		s := NewMongoUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "civicsync.users", mtest.FirstBatch))

		_, err := s.FindUserByID(context.Background(), primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrUserNotFound)
	})
}
