package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps each collection in a MongoDB collection of the same name.
// The document id is stored as _id.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	inTx   bool
}

// ConnectMongo dials uri, pings the server and returns a store on database dbName.
func ConnectMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(timeoutCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(timeoutCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return NewMongoStore(client, client.Database(dbName)), nil
}

func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{client: client, db: db}
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	disconnectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(disconnectCtx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	return nil
}

func (s *MongoStore) collection(name string) (*mongo.Collection, error) {
	if err := checkCollection(name); err != nil {
		return nil, err
	}
	return s.db.Collection(name), nil
}

func (s *MongoStore) Get(ctx context.Context, collection, id string, out any) error {
	coll, err := s.collection(collection)
	if err != nil {
		return err
	}
	err = coll.FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (s *MongoStore) Find(ctx context.Context, collection string, q Query, out any) error {
	coll, err := s.collection(collection)
	if err != nil {
		return err
	}
	filter, err := mongoFilter(q.Filters)
	if err != nil {
		return err
	}

	opts := options.Find()
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return cursor.All(ctx, out)
}

func (s *MongoStore) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	coll, err := s.collection(collection)
	if err != nil {
		return "", err
	}
	if doc.DocumentID() == "" {
		doc.SetDocumentID(newID())
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("docstore: duplicate id %s in %s: %w", doc.DocumentID(), collection, err)
		}
		return "", err
	}
	return doc.DocumentID(), nil
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, set map[string]any, expect ...Filter) error {
	coll, err := s.collection(collection)
	if err != nil {
		return err
	}
	if err := checkFields(set); err != nil {
		return err
	}
	filter, err := mongoFilter(expect)
	if err != nil {
		return err
	}
	filter["_id"] = id

	fields := bson.M{}
	for k, v := range set {
		fields[k] = normalize(v)
	}
	res, err := coll.UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if len(expect) == 0 {
		return ErrNotFound
	}

	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrPreconditionFailed
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	coll, err := s.collection(collection)
	if err != nil {
		return err
	}
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RunInTransaction needs a replica set or sharded cluster.
func (s *MongoStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	tx := &MongoStore{client: s.client, db: s.db, inTx: true}
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, tx)
	})
	return err
}

var mongoOps = map[Op]string{
	OpEq:  "$eq",
	OpNe:  "$ne",
	OpLt:  "$lt",
	OpLte: "$lte",
	OpGt:  "$gt",
	OpGte: "$gte",
}

// mongoFilter groups filters by field: {"price": {"$gte": 1, "$lt": 9}}.
func mongoFilter(filters []Filter) (bson.M, error) {
	if err := checkFilters(filters); err != nil {
		return nil, err
	}
	out := bson.M{}
	for _, f := range filters {
		field := f.Field
		if field == "id" {
			field = "_id"
		}
		ops, ok := out[field].(bson.M)
		if !ok {
			ops = bson.M{}
			out[field] = ops
		}
		ops[mongoOps[f.Op]] = normalize(f.Value)
	}
	return out, nil
}
