package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	perrors "github.com/evsingleline/singleline/pkg/errors"
	"github.com/evsingleline/singleline/pkg/survey"
)

// MongoConfig configures [NewMongoStore].
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore keeps one document per survey. The snapshot is stored as a
// native sub-document so it can be queried from the Mongo shell.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// mongoDoc is the stored document shape.
type mongoDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
	Panels    int       `bson:"panels"`
	Breakers  int       `bson:"breakers"`
	Survey    bson.D    `bson:"survey"`
}

// NewMongoStore connects to MongoDB and pings the server.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "singleline"
	}
	if cfg.Collection == "" {
		cfg.Collection = "surveys"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}, nil
}

// Get loads one survey.
func (s *MongoStore) Get(ctx context.Context, id string) (Record, error) {
	if err := perrors.ValidateSurveyID(id); err != nil {
		return Record{}, err
	}
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("find survey %s: %w", id, err)
	}
	return fromDoc(doc)
}

// Put upserts r, keeping the creation time of an existing document.
func (s *MongoStore) Put(ctx context.Context, r Record) (Record, error) {
	var created time.Time
	if r.ID != "" {
		if err := perrors.ValidateSurveyID(r.ID); err != nil {
			return Record{}, err
		}
		var prev mongoDoc
		opts := options.FindOne().SetProjection(bson.M{"createdAt": 1})
		if err := s.coll.FindOne(ctx, bson.M{"_id": r.ID}, opts).Decode(&prev); err == nil {
			created = prev.CreatedAt
		}
	}
	r, err := prepare(r, created, s.now())
	if err != nil {
		return Record{}, err
	}
	doc, err := toDoc(r)
	if err != nil {
		return Record{}, err
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": r.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return Record{}, fmt.Errorf("save survey %s: %w", r.ID, err)
	}
	return r, nil
}

// Delete removes one survey.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := perrors.ValidateSurveyID(id); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete survey %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List returns summaries without loading snapshots.
func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"survey": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer cur.Close(ctx)

	var out []Summary
	for cur.Next(ctx) {
		var doc mongoDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode survey: %w", err)
		}
		out = append(out, Summary{
			ID:        doc.ID,
			Name:      doc.Name,
			UpdatedAt: doc.UpdatedAt,
			Panels:    doc.Panels,
			Breakers:  doc.Breakers,
		})
	}
	return out, cur.Err()
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// toDoc converts the snapshot through its JSON form so the stored field
// names match the JSON API.
func toDoc(r Record) (mongoDoc, error) {
	data, err := json.Marshal(r.Survey)
	if err != nil {
		return mongoDoc{}, fmt.Errorf("encode survey: %w", err)
	}
	var sd bson.D
	if err := bson.UnmarshalExtJSON(data, false, &sd); err != nil {
		return mongoDoc{}, fmt.Errorf("convert survey: %w", err)
	}
	sum := r.Summarize()
	return mongoDoc{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Panels:    sum.Panels,
		Breakers:  sum.Breakers,
		Survey:    sd,
	}, nil
}

func fromDoc(doc mongoDoc) (Record, error) {
	data, err := bson.MarshalExtJSON(doc.Survey, false, false)
	if err != nil {
		return Record{}, fmt.Errorf("convert survey %s: %w", doc.ID, err)
	}
	var sv survey.Survey
	if err := json.Unmarshal(data, &sv); err != nil {
		return Record{}, fmt.Errorf("decode survey %s: %w", doc.ID, err)
	}
	return Record{
		ID:        doc.ID,
		Name:      doc.Name,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		Survey:    sv,
	}, nil
}

var _ Store = (*MongoStore)(nil)
