// Package docstore keeps ledger records in a MongoDB collection and turns
// its change stream into a snapshot feed.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"groupledger/internal/core"
	"groupledger/internal/ledger"
)

type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type Store struct {
	logger     *slog.Logger
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

var (
	_ ledger.Store = (*Store)(nil)
	_ ledger.Feed  = (*Store)(nil)
)

func Connect(ctx context.Context, logger *slog.Logger, cfg Config) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Store{
		logger:     logger,
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		now:        time.Now,
	}, nil
}

func (s *Store) Create(ctx context.Context, in core.Input) (core.Record, error) {
	if err := in.Validate(); err != nil {
		return core.Record{}, err
	}
	// BSON datetimes carry milliseconds.
	rec := core.NewRecord(uuid.NewString(), in, s.now().UTC().Truncate(time.Millisecond))
	if _, err := s.collection.InsertOne(ctx, toDocument(rec)); err != nil {
		s.logger.Error("Failed to create record", "item", in.Item, "error", err)
		return core.Record{}, fmt.Errorf("failed to create record: %w", err)
	}
	return rec, nil
}

func (s *Store) Update(ctx context.Context, id string, p core.Patch) error {
	if p.IsPaid != nil && !*p.IsPaid {
		return core.ErrIllegalTransition
	}
	set := setFields(p)
	if len(set) == 0 {
		return core.ErrEmptyPatch
	}
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		s.logger.Error("Failed to update record", "record_id", id, "error", err)
		return fmt.Errorf("failed to update record: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ledger.ErrRecordNotFound, id)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		s.logger.Error("Failed to delete record", "record_id", id, "error", err)
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ledger.ErrRecordNotFound, id)
	}
	return nil
}

// List returns every valid record. Documents that do not decode into a
// valid record are logged and skipped.
func (s *Store) List(ctx context.Context) ([]core.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []core.Record
	for cursor.Next(ctx) {
		var doc document
		if err := cursor.Decode(&doc); err != nil {
			s.logger.Warn("Skipping undecodable document", "error", err)
			continue
		}
		rec, err := doc.toRecord()
		if err != nil {
			s.logger.Warn("Skipping invalid document", "record_id", doc.ID, "error", err)
			continue
		}
		records = append(records, rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}

// Subscribe watches the collection and sends a full snapshot first and
// after every change event. Change streams need a replica set.
func (s *Store) Subscribe(ctx context.Context) (<-chan core.Snapshot, error) {
	stream, err := s.collection.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, fmt.Errorf("failed to watch collection: %w", err)
	}
	records, err := s.List(ctx)
	if err != nil {
		stream.Close(ctx)
		return nil, err
	}

	out := make(chan core.Snapshot, 1)
	seq := uint64(1)
	out <- core.Snapshot{Seq: seq, Records: records}

	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			records, err := s.List(ctx)
			if err != nil {
				s.logger.Error("Failed to reload records after change", "error", err)
				continue
			}
			seq++
			offer(out, core.Snapshot{Seq: seq, Records: records})
		}
		if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("Change stream ended", "error", err)
		}
	}()
	return out, nil
}

// offer delivers snap, replacing a snapshot the reader has not taken yet.
// out must have a single sender.
func offer(out chan core.Snapshot, snap core.Snapshot) {
	select {
	case out <- snap:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	out <- snap
}

func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	s.logger.Info("Closed MongoDB connection")
	return nil
}
