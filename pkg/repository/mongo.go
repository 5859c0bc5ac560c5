package repository

import (
	"context"
	"time"

	"github.com/example/pharmacart/pkg/config"
	"github.com/example/pharmacart/pkg/txid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	auditCollection     = "transaction_logs"
	searchLogCollection = "product_search_logs"
)

type MongoRepository struct {
	client   *mongo.Client
	database *mongo.Database
	logger   *zap.Logger
}

func NewMongoRepository(cfg *config.MongoDBConfig, logger *zap.Logger) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return &MongoRepository{
		client:   client,
		database: client.Database(cfg.Database),
		logger:   logger,
	}, nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// AuditEvent is one structured pipeline event, keyed by transaction id.
type AuditEvent struct {
	ID        string    `bson:"_id,omitempty"`
	TxID      string    `bson:"tx_id"`
	EventType string    `bson:"event_type"`
	Level     string    `bson:"level"`
	Message   string    `bson:"message"`
	Payload   bson.M    `bson:"payload,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

// Record is fire-and-forget: the write happens on a detached context and a
// failure is logged, never surfaced into the caller's transaction.
func (m *MongoRepository) Record(ctx context.Context, eventType, level, message string, payload map[string]interface{}) {
	event := AuditEvent{
		TxID:      txid.FromContext(ctx),
		EventType: eventType,
		Level:     level,
		Message:   message,
		Payload:   bson.M(payload),
		CreatedAt: time.Now(),
	}

	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		collection := m.database.Collection(auditCollection)
		if _, err := collection.InsertOne(writeCtx, event); err != nil {
			m.logger.Warn("failed to record audit event",
				zap.String("event_type", eventType), zap.Error(err))
		}
	}()
}

type searchLogEntry struct {
	MinStock  int       `bson:"min_stock"`
	TxID      string    `bson:"tx_id"`
	CreatedAt time.Time `bson:"created_at"`
}

func (m *MongoRepository) RecordSearch(ctx context.Context, minStock int, txID string) error {
	collection := m.database.Collection(searchLogCollection)
	_, err := collection.InsertOne(ctx, searchLogEntry{
		MinStock:  minStock,
		TxID:      txID,
		CreatedAt: time.Now(),
	})
	return err
}

// AuditTrail returns the most recent events for a transaction id, newest
// first.
func (m *MongoRepository) AuditTrail(ctx context.Context, txID string, limit int64) ([]*AuditEvent, error) {
	collection := m.database.Collection(auditCollection)

	filter := bson.M{"tx_id": txID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*AuditEvent
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	return events, nil
}
