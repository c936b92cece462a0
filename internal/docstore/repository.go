package docstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"donghaeng/internal/analytics"
	"donghaeng/internal/core"
	"donghaeng/internal/ports"
)

const (
	TransactionsCollection = "transactions"
	ProfilesCollection     = "user_profiles"
	MappingsCollection     = "category_mappings"
	GapsCollection         = "mapping_gaps"
)

type transactionDoc struct {
	ID          string    `bson:"_id"`
	OwnerID     string    `bson:"ownerId"`
	Amount      int64     `bson:"amount"`
	RawCategory string    `bson:"rawCategory"`
	Category    string    `bson:"category"`
	OccurredOn  string    `bson:"occurredOn"` // YYYY-MM-DD, sorts lexically
	Description string    `bson:"description,omitempty"`
	CreatedAt   time.Time `bson:"createdAt"`
}

type profileDoc struct {
	OwnerID   string    `bson:"_id"`
	Age       int       `bson:"age"`
	Gender    string    `bson:"gender"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type mappingDoc struct {
	Key      string `bson:"_id"`
	Label    string `bson:"label"`
	Category string `bson:"category"`
}

type gapDoc struct {
	Key      string    `bson:"_id"`
	Label    string    `bson:"label"`
	Count    int64     `bson:"count"`
	LastSeen time.Time `bson:"lastSeen"`
}

// MongoRepository implements ports.Store on MongoDB.
type MongoRepository struct {
	provider CollectionProvider
}

// NewMongoRepository creates a new MongoRepository.
func NewMongoRepository(provider CollectionProvider) *MongoRepository {
	return &MongoRepository{provider: provider}
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.provider.Ping(ctx)
}

func (r *MongoRepository) AddTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	doc := transactionDoc{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Amount:      t.Amount,
		RawCategory: t.RawCategory,
		Category:    string(t.Category),
		OccurredOn:  t.OccurredOn.String(),
		Description: t.Description,
		CreatedAt:   t.CreatedAt.UTC(),
	}
	if _, err := r.provider.Collection(TransactionsCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *MongoRepository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := r.provider.Collection(TransactionsCollection).DeleteOne(ctx, bson.M{"_id": id, "ownerId": ownerID})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if res == nil || res.DeletedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *MongoRepository) ListTransactions(ctx context.Context, ownerID string, from, to core.Date) ([]core.Transaction, error) {
	filter := bson.M{
		"ownerId":    ownerID,
		"occurredOn": bson.M{"$gte": from.String(), "$lte": to.String()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "occurredOn", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	var docs []transactionDoc
	if err := r.findAll(ctx, TransactionsCollection, filter, &docs, opts); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(docs))
	for _, d := range docs {
		date, err := core.ParseDate(d.OccurredOn)
		if err != nil {
			return nil, fmt.Errorf("transaction %s has bad date %q: %w", d.ID, d.OccurredOn, err)
		}
		out = append(out, core.Transaction{
			ID:          d.ID,
			OwnerID:     d.OwnerID,
			Amount:      d.Amount,
			RawCategory: d.RawCategory,
			Category:    core.Category(d.Category),
			OccurredOn:  date,
			Description: d.Description,
			CreatedAt:   d.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func (r *MongoRepository) GetProfile(ctx context.Context, ownerID string) (core.UserProfile, error) {
	var docs []profileDoc
	if err := r.findAll(ctx, ProfilesCollection, bson.M{"_id": ownerID}, &docs, options.Find().SetLimit(1)); err != nil {
		return core.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}
	if len(docs) == 0 {
		return core.UserProfile{}, ports.ErrNotFound
	}
	d := docs[0]
	return core.UserProfile{OwnerID: d.OwnerID, Age: d.Age, Gender: core.Gender(d.Gender), UpdatedAt: d.UpdatedAt.UTC()}, nil
}

func (r *MongoRepository) SaveProfile(ctx context.Context, p core.UserProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{"age": p.Age, "gender": string(p.Gender), "updatedAt": p.UpdatedAt.UTC()}}
	_, err := r.provider.Collection(ProfilesCollection).UpdateOne(ctx, bson.M{"_id": p.OwnerID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (r *MongoRepository) ListMappings(ctx context.Context) ([]analytics.Mapping, error) {
	var docs []mappingDoc
	if err := r.findAll(ctx, MappingsCollection, bson.M{}, &docs, options.Find().SetSort(bson.D{{Key: "label", Value: 1}})); err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	out := make([]analytics.Mapping, 0, len(docs))
	for _, d := range docs {
		if c := core.Category(d.Category); c.IsValid() {
			out = append(out, analytics.Mapping{Label: d.Label, Category: c})
		}
	}
	return out, nil
}

func (r *MongoRepository) SaveMapping(ctx context.Context, m analytics.Mapping) error {
	key := analytics.MappingKey(m.Label)
	if key == "" {
		return core.ErrEmptyCategory
	}
	if !m.Category.IsValid() {
		return core.ErrInvalidCategory
	}
	update := bson.M{"$set": bson.M{"label": strings.TrimSpace(m.Label), "category": string(m.Category)}}
	if _, err := r.provider.Collection(MappingsCollection).UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("save mapping: %w", err)
	}
	return nil
}

func (r *MongoRepository) DeleteMapping(ctx context.Context, label string) error {
	res, err := r.provider.Collection(MappingsCollection).DeleteOne(ctx, bson.M{"_id": analytics.MappingKey(label)})
	if err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}
	if res == nil || res.DeletedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *MongoRepository) RecordMappingGap(ctx context.Context, label string, seenAt time.Time) error {
	key := analytics.MappingKey(label)
	if key == "" {
		return core.ErrEmptyCategory
	}
	update := bson.M{
		"$inc": bson.M{"count": 1},
		"$set": bson.M{"label": strings.TrimSpace(label)},
		"$max": bson.M{"lastSeen": seenAt.UTC()},
	}
	if _, err := r.provider.Collection(GapsCollection).UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("record mapping gap: %w", err)
	}
	return nil
}

func (r *MongoRepository) ListMappingGaps(ctx context.Context) ([]ports.MappingGap, error) {
	var docs []gapDoc
	opts := options.Find().SetSort(bson.D{{Key: "count", Value: -1}, {Key: "label", Value: 1}})
	if err := r.findAll(ctx, GapsCollection, bson.M{}, &docs, opts); err != nil {
		return nil, fmt.Errorf("list mapping gaps: %w", err)
	}
	out := make([]ports.MappingGap, 0, len(docs))
	for _, d := range docs {
		out = append(out, ports.MappingGap{Label: d.Label, Count: d.Count, LastSeen: d.LastSeen.UTC()})
	}
	return out, nil
}

func (r *MongoRepository) findAll(ctx context.Context, collection string, filter interface{}, out interface{}, opts ...*options.FindOptions) error {
	cur, err := r.provider.Collection(collection).Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

var (
	_ ports.Store = (*MongoRepository)(nil)
	_ DataStore   = (*mongo.Collection)(nil)
)
