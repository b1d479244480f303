package mongostore

import (
	"context"
	"crypto/tls"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// Config holds MongoDB connection settings
type Config struct {
	URI         string
	Database    string
	Timeout     time.Duration // Per-operation timeout, 0 for the driver default
	TLSInsecure bool          // Accept invalid server certificates
	AppName     string
}

// Store is a domain.Store backed by a MongoDB database
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// Connect dials MongoDB with the stable server API and verifies the
// connection with a ping
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.URI == "" {
		return nil, domain.InvalidArgumentf("mongo URI must not be empty")
	}
	if cfg.Database == "" {
		return nil, domain.InvalidArgumentf("mongo database name must not be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	if cfg.Timeout > 0 {
		opts.SetTimeout(cfg.Timeout)
	}
	if cfg.AppName != "" {
		opts.SetAppName(cfg.AppName)
	}
	if cfg.TLSInsecure {
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: true})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, classify("connect", "", err)
	}
	store := NewStore(client, cfg.Database, logger)
	if err := store.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	logger.Info("connected to mongo", zap.String("database", cfg.Database))
	return store, nil
}

// NewStore wraps an existing client
func NewStore(client *mongo.Client, database string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, db: client.Database(database), logger: logger}
}

func (s *Store) Collection(name string) domain.CollectionHandle {
	return &collection{name: name, coll: s.db.Collection(name)}
}

func (s *Store) Ping(ctx context.Context) error {
	return classify("ping", "", s.client.Ping(ctx, readpref.Primary()))
}

func (s *Store) Close(ctx context.Context) error {
	return classify("close", "", s.client.Disconnect(ctx))
}

// EnsureIndex creates an ascending single-field index
func (s *Store) EnsureIndex(ctx context.Context, coll, field string) error {
	if field == "" {
		return domain.InvalidArgumentf("index field must not be empty")
	}
	_, err := s.db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: field, Value: 1}},
	})
	if err != nil {
		return classify("create index", coll, err)
	}
	s.logger.Info("index ensured", zap.String("collection", coll), zap.String("field", field))
	return nil
}

// Indexes lists the leading key of every index except the _id index
func (s *Store) Indexes(ctx context.Context, coll string) ([]string, error) {
	cursor, err := s.db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		return nil, classify("list indexes", coll, err)
	}
	var specs []bson.M
	if err := cursor.All(ctx, &specs); err != nil {
		return nil, classify("list indexes", coll, err)
	}
	return indexFields(specs), nil
}

func indexFields(specs []bson.M) []string {
	fields := []string{}
	for _, spec := range specs {
		switch keys := spec["key"].(type) {
		case bson.D:
			if len(keys) > 0 && keys[0].Key != domain.FieldInternalID {
				fields = append(fields, keys[0].Key)
			}
		case bson.M:
			for k := range keys {
				if k != domain.FieldInternalID {
					fields = append(fields, k)
				}
			}
		}
	}
	sort.Strings(fields)
	return fields
}

// classify wraps driver errors, marking connectivity failures unavailable
func classify(op, coll string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) {
		return domain.NewUnavailableError(op, coll, err)
	}
	return domain.NewStoreError(op, coll, err)
}
