package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DatabaseName is the database holding every collection of the bot.
	DatabaseName = "Școală"
	// HomeworksCollection is the collection name for homework documents.
	HomeworksCollection = "Homeworks"
)

// MongoRepository is a Repository backed by MongoDB.
type MongoRepository interface {
	Repository
	Disconnect(ctx context.Context) error
}

type mongoRepository struct {
	client    *mongo.Client
	homeworks *mongo.Collection
}

type homeworkDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Subject        string             `bson:"subject"`
	Assignment     string             `bson:"assignment"`
	ExpirationDate *time.Time         `bson:"expiration_date,omitempty"`
}

func (d homeworkDocument) homework() Homework {
	return Homework{
		ID:             d.ID.Hex(),
		Subject:        d.Subject,
		Assignment:     d.Assignment,
		ExpirationDate: d.ExpirationDate,
	}
}

// NewMongoRepository connects to uri and uses the Homeworks collection.
func NewMongoRepository(ctx context.Context, uri string) (MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect to mongodb")
	}
	err = client.Ping(ctx, nil)
	if err != nil {
		client.Disconnect(ctx)
		return nil, errors.Wrap(err, "unable to ping mongodb")
	}
	return &mongoRepository{
		client:    client,
		homeworks: client.Database(DatabaseName).Collection(HomeworksCollection),
	}, nil
}

func (r *mongoRepository) Disconnect(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *mongoRepository) Get(ctx context.Context, id string) (Homework, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// Anything that is not an ObjectID can't be stored here.
		return Homework{}, ErrNotFound
	}
	var doc homeworkDocument
	err = r.homeworks.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Homework{}, ErrNotFound
		}
		return Homework{}, errors.Wrapf(err, "error finding homework: %s", id)
	}
	return doc.homework(), nil
}

func (r *mongoRepository) List(ctx context.Context) ([]Homework, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoRepository) find(ctx context.Context, filter bson.M) ([]Homework, error) {
	cursor, err := r.homeworks.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "error listing homework")
	}
	defer cursor.Close(ctx)

	var docs []homeworkDocument
	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding homework")
	}
	out := make([]Homework, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.homework())
	}
	SortHomeworks(out)
	return out, nil
}

func (r *mongoRepository) Insert(ctx context.Context, homework Homework) (Homework, error) {
	if err := homework.Validate(); err != nil {
		return Homework{}, err
	}
	doc := homeworkDocument{
		ID:             primitive.NewObjectID(),
		Subject:        homework.Subject,
		Assignment:     homework.Assignment,
		ExpirationDate: homework.ExpirationDate,
	}
	_, err := r.homeworks.InsertOne(ctx, doc)
	if err != nil {
		return Homework{}, errors.Wrapf(err, "unable to insert homework: %+v", homework)
	}
	return doc.homework(), nil
}

func (r *mongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.homeworks.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrapf(err, "unable to delete homework: %s", id)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoRepository) DeleteExpired(ctx context.Context, now time.Time) ([]Homework, error) {
	filter := bson.M{"expiration_date": bson.M{"$lte": now}}
	expired, err := r.find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "error finding expired homework")
	}
	if len(expired) == 0 {
		return nil, nil
	}
	ids := make([]primitive.ObjectID, 0, len(expired))
	for _, homework := range expired {
		oid, err := primitive.ObjectIDFromHex(homework.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid homework id: %s", homework.ID)
		}
		ids = append(ids, oid)
	}
	// Only what was read gets deleted, so the returned list matches.
	_, err = r.homeworks.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errors.Wrap(err, "unable to delete expired homework")
	}
	return expired, nil
}
