package mongo

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// fakeCollection keeps marshalled documents keyed by _id.
type fakeCollection struct {
	docs       map[string]bson.Raw
	replaceErr error
	upserts    int
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{docs: map[string]bson.Raw{}}
}

func (f *fakeCollection) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	id := filter.(bson.M)["_id"].(string)
	raw, ok := f.docs[id]
	if !ok {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(raw, nil, nil)
}

func (f *fakeCollection) ReplaceOne(_ context.Context, filter interface{}, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	if f.replaceErr != nil {
		return nil, f.replaceErr
	}
	if len(opts) == 0 || opts[0].Upsert == nil || !*opts[0].Upsert {
		return nil, errors.New("expected upsert")
	}
	raw, err := bson.Marshal(replacement)
	if err != nil {
		return nil, err
	}
	f.docs[filter.(bson.M)["_id"].(string)] = raw
	f.upserts++
	return &mongo.UpdateResult{UpsertedCount: 1}, nil
}

func TestRepositoryLoadMissing(t *testing.T) {
	repo := NewRepository(newFakeCollection())
	txs, found, err := repo.Load(context.Background(), "u1")
	if err != nil || found || txs != nil {
		t.Fatalf("unexpected load: txs=%v found=%v err=%v", txs, found, err)
	}
}

func TestRepositorySaveLoadRoundTrip(t *testing.T) {
	coll := newFakeCollection()
	repo := NewRepository(coll)
	ctx := context.Background()
	want := core.SeedTransactions("u1")

	if err := repo.Save(ctx, "u1", want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, found, err := repo.Load(ctx, "u1")
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d transactions, got %d", len(want), len(got))
	}
	for i := range want {
		w, g := want[i], got[i]
		if g.ID != w.ID || !g.Amount.Equal(w.Amount) || g.Category != w.Category ||
			g.Date.String() != w.Date.String() || g.Type != w.Type || g.UserID != "u1" ||
			!g.CreatedAt.Equal(w.CreatedAt) {
			t.Errorf("row %d mismatch:\n got %+v\nwant %+v", i, g, w)
		}
	}

	var header struct {
		SchemaVersion int `bson:"schemaVersion"`
	}
	if err := bson.Unmarshal(coll.docs["u1"], &header); err != nil || header.SchemaVersion != SchemaVersion {
		t.Fatalf("expected schema version %d, got %d (err=%v)", SchemaVersion, header.SchemaVersion, err)
	}
}

func TestRepositorySaveReplaces(t *testing.T) {
	coll := newFakeCollection()
	repo := NewRepository(coll)
	ctx := context.Background()

	_ = repo.Save(ctx, "u1", core.SeedTransactions("u1"))
	if err := repo.Save(ctx, "u1", []core.Transaction{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, found, err := repo.Load(ctx, "u1")
	if err != nil || !found || len(got) != 0 {
		t.Fatalf("expected empty collection, got found=%v len=%d err=%v", found, len(got), err)
	}
	if coll.upserts != 2 {
		t.Fatalf("expected 2 replaces, got %d", coll.upserts)
	}
}

func TestRepositorySaveError(t *testing.T) {
	coll := newFakeCollection()
	coll.replaceErr = errors.New("server selection timeout")
	repo := NewRepository(coll)

	err := repo.Save(context.Background(), "u1", core.SeedTransactions("u1"))
	if !errors.Is(err, coll.replaceErr) {
		t.Fatalf("expected wrapped replace error, got %v", err)
	}
}

func TestRepositoryRejectsNewerSchema(t *testing.T) {
	coll := newFakeCollection()
	raw, _ := bson.Marshal(bson.M{"_id": "u1", "schemaVersion": SchemaVersion + 1, "transactions": bson.A{}})
	coll.docs["u1"] = raw

	_, _, err := NewRepository(coll).Load(context.Background(), "u1")
	if !errors.Is(err, ErrUnsupportedSchema) {
		t.Fatalf("expected ErrUnsupportedSchema, got %v", err)
	}
}

func TestPingWithoutClient(t *testing.T) {
	if err := NewRepository(newFakeCollection()).Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
