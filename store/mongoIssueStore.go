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

const issueCollectionName = "issues"

// MongoIssueStore keeps issues in the "issues" collection.
type MongoIssueStore struct {
	coll *mongo.Collection
	opts options
}

func NewMongoIssueStore(db *mongo.Database, opts ...Option) *MongoIssueStore {
	return &MongoIssueStore{coll: db.Collection(issueCollectionName), opts: newOptions(opts)}
}

// EnsureIndexes creates the createdAt index used by the default listing order.
func (s *MongoIssueStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return storageErr("create issue indexes", err)
	}
	return nil
}

func (s *MongoIssueStore) Create(ctx context.Context, rec *models.IssueRecord) (*models.IssueRecord, error) {
	stored := *rec
	stored.ID = primitive.NewObjectID()
	stored.CreatedAt = s.opts.stamp()
	stored.UpdatedAt = stored.CreatedAt

	if _, err := s.coll.InsertOne(ctx, stored); err != nil {
		return nil, storageErr("insert issue", err)
	}
	return &stored, nil
}

func (s *MongoIssueStore) Get(ctx context.Context, id string) (*models.IssueRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}

	var rec models.IssueRecord
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&rec)
	if err != nil {
		return nil, notFoundOr("find issue", err)
	}
	return &rec, nil
}

func (s *MongoIssueStore) ListAll(ctx context.Context) ([]models.IssueRecord, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, storageErr("find issues", err)
	}
	defer cursor.Close(ctx)

	issues := []models.IssueRecord{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, storageErr("decode issues", err)
	}
	return issues, nil
}

func (s *MongoIssueStore) Update(ctx context.Context, id string, patch models.IssuePatch) (*models.IssueRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}

	opts := mongoopts.FindOneAndUpdate().SetReturnDocument(mongoopts.After)
	var rec models.IssueRecord
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, s.patchPipeline(patch), opts).Decode(&rec)
	if err != nil {
		return nil, notFoundOr("update issue", err)
	}
	return &rec, nil
}

func (s *MongoIssueStore) Delete(ctx context.Context, id string) (*models.IssueRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}

	var rec models.IssueRecord
	if err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&rec); err != nil {
		return nil, notFoundOr("delete issue", err)
	}
	return &rec, nil
}

// patchPipeline builds the update for patch. updatedAt never moves backwards
// and advances by at least a millisecond, matching IssuePatch.Apply. Values
// are wrapped in $literal so text starting with "$" is stored verbatim.
func (s *MongoIssueStore) patchPipeline(patch models.IssuePatch) mongo.Pipeline {
	set := bson.M{"updatedAt": bson.M{"$max": bson.A{
		s.opts.stamp(),
		bson.M{"$add": bson.A{"$updatedAt", 1}},
	}}}
	for k, v := range patchFields(patch) {
		set[k] = bson.M{"$literal": v}
	}
	return mongo.Pipeline{{{Key: "$set", Value: set}}}
}

// patchFields maps the fields set in patch to document keys. Image fields are never part of it.
func patchFields(patch models.IssuePatch) bson.M {
	set := bson.M{}
	put := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	put("title", patch.Title)
	put("category", patch.Category)
	put("location", patch.Location)
	put("description", patch.Description)
	put("address", patch.Address)
	put("city", patch.City)
	put("state", patch.State)
	put("zipCode", patch.ZipCode)
	put("country", patch.Country)
	if patch.Priority != nil {
		set["priority"] = *patch.Priority
	}
	if patch.Coordinates != nil {
		set["coordinates"] = *patch.Coordinates
	}
	return set
}

func notFoundOr(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	return storageErr(op, err)
}
