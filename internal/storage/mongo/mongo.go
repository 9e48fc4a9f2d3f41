// Package mongo persists user collections as one MongoDB document per user.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SchemaVersion is the document layout written by this build.
const SchemaVersion = 1

var ErrUnsupportedSchema = errors.New("unsupported collection schema version")

// Collection is the subset of *mongo.Collection the repository uses.
type Collection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	ReplaceOne(ctx context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
}

type collectionDoc struct {
	UserID        string           `bson:"_id"`
	SchemaVersion int              `bson:"schemaVersion"`
	Transactions  []transactionDoc `bson:"transactions"`
	UpdatedAt     time.Time        `bson:"updatedAt"`
}

type transactionDoc struct {
	ID          string    `bson:"id"`
	Amount      string    `bson:"amount"`
	Category    string    `bson:"category"`
	Description string    `bson:"description"`
	Date        string    `bson:"date"`
	Type        string    `bson:"type"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

type Repository struct {
	coll   Collection
	client *mongo.Client
}

// NewRepository wraps an existing collection handle.
func NewRepository(coll Collection) *Repository {
	return &Repository{coll: coll}
}

// Connect dials uri, verifies the connection and returns a repository bound
// to database.collection.
func Connect(ctx context.Context, uri, database, collection string) (*Repository, error) {
	slog.DebugContext(ctx, "Connecting to MongoDB", "database", database, "collection", collection)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	slog.InfoContext(ctx, "Connected to MongoDB", "database", database)
	return &Repository{
		coll:   client.Database(database).Collection(collection),
		client: client,
	}, nil
}

func (r *Repository) Load(ctx context.Context, userID string) ([]core.Transaction, bool, error) {
	var doc collectionDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find collection: %w", err)
	}
	if doc.SchemaVersion > SchemaVersion {
		return nil, false, fmt.Errorf("%w: %d", ErrUnsupportedSchema, doc.SchemaVersion)
	}

	txs := make([]core.Transaction, 0, len(doc.Transactions))
	for _, d := range doc.Transactions {
		t, err := fromDoc(d, userID)
		if err != nil {
			return nil, false, fmt.Errorf("decode transaction %s: %w", d.ID, err)
		}
		txs = append(txs, t)
	}
	return txs, true, nil
}

// Save replaces the user's document, creating it when absent.
func (r *Repository) Save(ctx context.Context, userID string, txs []core.Transaction) error {
	doc := collectionDoc{
		UserID:        userID,
		SchemaVersion: SchemaVersion,
		Transactions:  make([]transactionDoc, len(txs)),
		UpdatedAt:     time.Now().UTC(),
	}
	for i, t := range txs {
		doc.Transactions[i] = toDoc(t)
	}

	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": userID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace collection: %w", err)
	}

	slog.DebugContext(ctx, "Collection saved to MongoDB", "user_id", userID, "count", len(txs))
	return nil
}

// Ping checks the server when the repository owns a client.
func (r *Repository) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx, nil)
}

func (r *Repository) Close() error {
	if r.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func toDoc(t core.Transaction) transactionDoc {
	return transactionDoc{
		ID:          t.ID,
		Amount:      t.Amount.String(),
		Category:    string(t.Category),
		Description: t.Description,
		Date:        t.Date.String(),
		Type:        string(t.Type),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func fromDoc(d transactionDoc, userID string) (core.Transaction, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount: %w", err)
	}
	date, err := core.ParseDate(d.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date: %w", err)
	}
	return core.Transaction{
		ID:          d.ID,
		Amount:      amount,
		Category:    core.Category(d.Category),
		Description: d.Description,
		Date:        date,
		Type:        core.TransactionType(d.Type),
		UserID:      userID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}
