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

	"github.com/abhisek/prelims/internal/docstore"
)

// versionField holds the document version inside each Mongo document.
const versionField = "_version"

// MongoConfig holds the connection settings for the Mongo backend.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// Mongo stores each docstore collection as a Mongo collection, one Mongo
// document per id.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ docstore.Store = (*Mongo)(nil)

// OpenMongo connects to MongoDB and verifies the connection.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo: URI is required")
	}
	if cfg.Database == "" {
		cfg.Database = "prelims"
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Mongo{client: client, db: client.Database(cfg.Database)}, nil
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *Mongo) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var raw bson.Raw
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return docstore.Document{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Document{}, fmt.Errorf("find document: %w", err)
	}
	return decodeMongo(raw)
}

func (m *Mongo) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	fields, err := docstore.Normalize(doc.Fields)
	if err != nil {
		return err
	}
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}

	// Keep the version counter across overwrites. $literal stops string
	// values that start with "$" from being read as field paths.
	pipeline := mongo.Pipeline{
		{{Key: "$replaceWith", Value: bson.M{
			"$mergeObjects": bson.A{
				bson.M{"$literal": set},
				bson.M{"_id": id, versionField: bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$" + versionField, 0}}, 1}}},
			},
		}}},
	}
	_, err = m.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, pipeline, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	return nil
}

func (m *Mongo) Update(ctx context.Context, collection, id string, upd docstore.Update) error {
	update, err := mongoUpdate(upd)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": id}
	if upd.IfVersion != 0 {
		filter[versionField] = upd.IfVersion
	}

	coll := m.db.Collection(collection)
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Nothing matched: tell a missing document from a stale version.
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("count document: %w", err)
	}
	if n == 0 {
		return docstore.ErrNotFound
	}
	return docstore.ErrConflict
}

// mongoUpdate translates field operations into $set, $inc and $push.
func mongoUpdate(upd docstore.Update) (bson.M, error) {
	set := bson.M{}
	inc := bson.M{versionField: int64(1)}
	push := bson.M{}

	for _, fu := range upd.Fields {
		if fu.Field == "_id" || fu.Field == versionField {
			return nil, fmt.Errorf("field %q is reserved", fu.Field)
		}
		v, err := plainValue(fu.Value)
		if err != nil {
			return nil, err
		}
		switch fu.Op {
		case docstore.OpReplace:
			set[fu.Field] = v
		case docstore.OpIncrement:
			n, ok := docstore.ToInt64(fu.Value)
			if !ok {
				return nil, fmt.Errorf("%w: increment %q by %T", docstore.ErrFieldType, fu.Field, fu.Value)
			}
			inc[fu.Field] = n
		case docstore.OpAppend:
			push[fu.Field] = v
		default:
			return nil, fmt.Errorf("unknown operation %v on %q", fu.Op, fu.Field)
		}
	}

	out := bson.M{"$inc": inc}
	if len(set) > 0 {
		out["$set"] = set
	}
	if len(push) > 0 {
		out["$push"] = push
	}
	return out, nil
}

// plainValue reduces v to JSON-native values so structs are stored with
// their JSON field names.
func plainValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return out, nil
}

// decodeMongo converts a stored document through relaxed extended JSON so
// callers see the same value shapes as the other backends.
func decodeMongo(raw bson.Raw) (docstore.Document, error) {
	js, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("decode document: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(js, &fields); err != nil {
		return docstore.Document{}, fmt.Errorf("decode document: %w", err)
	}

	version, _ := docstore.ToInt64(fields[versionField])
	delete(fields, versionField)
	delete(fields, "_id")
	return docstore.Document{Fields: fields, Version: version}, nil
}
