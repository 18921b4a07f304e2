package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/campuskart/marketplace-api/internal/core/domain"
)

const collectionListings = "listings"

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(collectionListings)}
}

type mongoListing struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID     string             `bson:"owner_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Price       float64            `bson:"price"`
	Status      string             `bson:"status"`
	IsAvailable bool               `bson:"is_available"`
	ReservedFor string             `bson:"reserved_for,omitempty"`
	Views       int64              `bson:"views"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (ml mongoListing) toDomain() *domain.Listing {
	return &domain.Listing{
		ID:          ml.ID.Hex(),
		OwnerID:     ml.OwnerID,
		Title:       ml.Title,
		Description: ml.Description,
		Price:       ml.Price,
		Status:      domain.ListingStatus(ml.Status),
		IsAvailable: ml.IsAvailable,
		ReservedFor: ml.ReservedFor,
		Views:       ml.Views,
		CreatedAt:   ml.CreatedAt,
		UpdatedAt:   ml.UpdatedAt,
	}
}

func listingID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrListingNotFound
	}
	return oid, nil
}

func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoListing{
		OwnerID:     l.OwnerID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Status:      string(l.Status),
		IsAvailable: l.IsAvailable,
		ReservedFor: l.ReservedFor,
		Views:       l.Views,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert listing: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	oid, err := listingID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ml mongoListing
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&ml); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return ml.toDomain(), nil
}

func (r *ListingRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	return r.list(ctx, bson.M{"owner_id": ownerID})
}

// ListAvailable returns every listing buyers can currently purchase,
// newest first.
func (r *ListingRepository) ListAvailable(ctx context.Context) ([]*domain.Listing, error) {
	return r.list(ctx, bson.M{"is_available": true})
}

func (r *ListingRepository) list(ctx context.Context, filter bson.M) ([]*domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer cur.Close(ctx)

	var listings []*domain.Listing
	for cur.Next(ctx) {
		var ml mongoListing
		if err := cur.Decode(&ml); err != nil {
			return nil, fmt.Errorf("decode listing: %w", err)
		}
		listings = append(listings, ml.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listings, nil
}

// UpdateStatus applies the transition with a compare-and-swap: the filter
// requires the stored status to be one of from, so a concurrent writer that
// got there first makes this update match nothing. A post-hoc existence check
// distinguishes a lost race from a missing listing.
func (r *ListingRepository) UpdateStatus(ctx context.Context, id string, from []domain.ListingStatus, to domain.ListingStatus, reservedFor string) (*domain.Listing, error) {
	oid, err := listingID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	statuses := make(bson.A, 0, len(from))
	for _, s := range from {
		statuses = append(statuses, string(s))
	}

	filter := bson.M{
		"_id":    oid,
		"status": bson.M{"$in": statuses},
	}
	set := bson.M{
		"status":       string(to),
		"is_available": to.Available(),
		"updated_at":   time.Now(),
	}
	update := bson.M{"$set": set}
	if to == domain.ListingReserved {
		set["reserved_for"] = reservedFor
	} else {
		update["$unset"] = bson.M{"reserved_for": ""}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var ml mongoListing
	err = r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ml)
	if err == nil {
		return ml.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update listing status: %w", err)
	}

	n, cerr := r.col.CountDocuments(ctx, bson.M{"_id": oid})
	if cerr != nil {
		return nil, fmt.Errorf("check listing: %w", cerr)
	}
	if n == 0 {
		return nil, domain.ErrListingNotFound
	}
	return nil, domain.ErrConflict
}

func (r *ListingRepository) IncrementViews(ctx context.Context, id string) error {
	oid, err := listingID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the listings collection.
func (r *ListingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
