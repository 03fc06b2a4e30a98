package catalog

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig addresses a document database speaking the MongoDB wire protocol,
// such as Cosmos DB for MongoDB where Account is the username and Key the password.
type MongoConfig struct {
	URI        string
	Key        string
	Account    string
	Database   string
	Collection string
}

type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{client: coll.Database().Client(), coll: coll}
}

func OpenMongo(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.Key != "" {
		account := cfg.Account
		if account == "" {
			account = accountFromURI(cfg.URI)
		}
		opts.SetAuth(options.Credential{Username: account, Password: cfg.Key})
	}

	var client *mongo.Client
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var err error
		client, err = mongo.Connect(ctx, opts)
		return err
	})
	if err != nil {
		return nil, storageErr("connect", err)
	}

	s := NewMongoStore(client.Database(cfg.Database).Collection(cfg.Collection))
	if err := s.Ping(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// accountFromURI returns the first label of the host, which is the account name
// for hosted endpoints like <account>.mongo.cosmos.azure.com.
func accountFromURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.User != nil && u.User.Username() != "" {
		return u.User.Username()
	}
	host := u.Hostname()
	if i := strings.IndexByte(host, '.'); i > 0 {
		return host[:i]
	}
	return host
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return storageErr("ping", withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.client.Ping(ctx, readpref.Primary())
	}))
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Create(ctx context.Context, p Product) error {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.coll.InsertOne(ctx, p)
		return err
	})
	if err == nil {
		return nil
	}
	return &StorageError{Op: "create", Err: err, Conflict: mongo.IsDuplicateKeyError(err)}
}

func (s *MongoStore) ListAll(ctx context.Context) ([]Product, error) {
	out := make([]Product, 0, 16)

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		cur, err := s.coll.Find(ctx, bson.D{})
		if err != nil {
			return err
		}
		return cur.All(ctx, &out)
	})

	if err != nil {
		return nil, storageErr("list", err)
	}
	return out, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (Product, error) {
	var p Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&p)
	})

	if errors.Is(err, mongo.ErrNoDocuments) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, storageErr("get", err)
	}
	return p, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	var deleted int64

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
		if err != nil {
			return err
		}
		deleted = res.DeletedCount
		return nil
	})

	if err != nil {
		return storageErr("delete", err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}
