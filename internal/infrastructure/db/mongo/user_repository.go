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
	"github.com/campuskart/marketplace-api/internal/core/ports"
)

const collectionUsers = "users"

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type mongoRefreshCredential struct {
	ID        string    `bson:"id"`
	TokenHash string    `bson:"token_hash"`
	IssuedAt  time.Time `bson:"issued_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

type mongoHostel struct {
	Hostel string `bson:"hostel,omitempty"`
	Room   string `bson:"room,omitempty"`
	Notes  string `bson:"notes,omitempty"`
}

type mongoUser struct {
	ID                    primitive.ObjectID       `bson:"_id,omitempty"`
	Name                  string                   `bson:"name"`
	Username              string                   `bson:"username"`
	Email                 string                   `bson:"email"`
	PasswordHash          string                   `bson:"password_hash"`
	Roles                 []string                 `bson:"roles"`
	DomainVerified        bool                     `bson:"domain_verified"`
	IsVerified            bool                     `bson:"is_verified"`
	Phone                 string                   `bson:"phone,omitempty"`
	Whatsapp              string                   `bson:"whatsapp,omitempty"`
	Hostel                mongoHostel              `bson:"hostel_location,omitempty"`
	RefreshCredentials    []mongoRefreshCredential `bson:"refresh_credentials,omitempty"`
	VerificationTokenHash string                   `bson:"verification_token_hash,omitempty"`
	ResetTokenHash        string                   `bson:"reset_token_hash,omitempty"`
	ResetTokenExpires     time.Time                `bson:"reset_token_expires,omitempty"`
	CreatedAt             time.Time                `bson:"created_at"`
	UpdatedAt             time.Time                `bson:"updated_at"`
}

func toMongoUser(u *domain.User) mongoUser {
	creds := make([]mongoRefreshCredential, 0, len(u.RefreshCredentials))
	for _, c := range u.RefreshCredentials {
		creds = append(creds, mongoRefreshCredential(c))
	}
	return mongoUser{
		Name:                  u.Name,
		Username:              u.Username,
		Email:                 u.Email,
		PasswordHash:          u.PasswordHash,
		Roles:                 u.Roles,
		DomainVerified:        u.DomainVerified,
		IsVerified:            u.IsVerified,
		Phone:                 u.Phone,
		Whatsapp:              u.Whatsapp,
		Hostel:                mongoHostel(u.Hostel),
		RefreshCredentials:    creds,
		VerificationTokenHash: u.VerificationTokenHash,
		ResetTokenHash:        u.ResetTokenHash,
		ResetTokenExpires:     u.ResetTokenExpires,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

func (mu mongoUser) toDomain() *domain.User {
	creds := make([]domain.RefreshCredential, 0, len(mu.RefreshCredentials))
	for _, c := range mu.RefreshCredentials {
		creds = append(creds, domain.RefreshCredential(c))
	}
	return &domain.User{
		ID:                    mu.ID.Hex(),
		Name:                  mu.Name,
		Username:              mu.Username,
		Email:                 mu.Email,
		PasswordHash:          mu.PasswordHash,
		Roles:                 mu.Roles,
		DomainVerified:        mu.DomainVerified,
		IsVerified:            mu.IsVerified,
		Phone:                 mu.Phone,
		Whatsapp:              mu.Whatsapp,
		Hostel:                domain.HostelLocation(mu.Hostel),
		RefreshCredentials:    creds,
		VerificationTokenHash: mu.VerificationTokenHash,
		ResetTokenHash:        mu.ResetTokenHash,
		ResetTokenExpires:     mu.ResetTokenExpires,
		CreatedAt:             mu.CreatedAt,
		UpdatedAt:             mu.UpdatedAt,
	}
}

func userID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrUserNotFound
	}
	return oid, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toMongoUser(user)
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := userID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	or := bson.A{}
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"$or": or})
}

func (r *UserRepository) FindByVerificationTokenHash(ctx context.Context, hash string) (*domain.User, error) {
	u, err := r.findOne(ctx, bson.M{"verification_token_hash": hash})
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrVerificationInvalid
	}
	return u, err
}

func (r *UserRepository) FindByResetTokenHash(ctx context.Context, hash string) (*domain.User, error) {
	filter := bson.M{
		"reset_token_hash":    hash,
		"reset_token_expires": bson.M{"$gt": time.Now()},
	}
	u, err := r.findOne(ctx, filter)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrResetInvalid
	}
	return u, err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.col.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update ports.ProfileUpdate) (*domain.User, error) {
	set := bson.M{"updated_at": time.Now()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	if update.Whatsapp != nil {
		set["whatsapp"] = *update.Whatsapp
	}
	if update.Hostel != nil {
		set["hostel_location"] = mongoHostel(*update.Hostel)
	}
	return r.findOneAndSet(ctx, id, set)
}

func (r *UserRepository) UpdateRoles(ctx context.Context, id string, roles domain.RoleSet) (*domain.User, error) {
	return r.findOneAndSet(ctx, id, bson.M{
		"roles":      []string(roles),
		"updated_at": time.Now(),
	})
}

func (r *UserRepository) findOneAndSet(ctx context.Context, id string, set bson.M) (*domain.User, error) {
	oid, err := userID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mu mongoUser
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&mu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	return r.updateOne(ctx, id, bson.M{
		"$set": bson.M{
			"password_hash": passwordHash,
			"updated_at":    time.Now(),
		},
		"$unset": bson.M{
			"reset_token_hash":    "",
			"reset_token_expires": "",
		},
	})
}

func (r *UserRepository) SetVerificationToken(ctx context.Context, id, hash string) error {
	return r.updateOne(ctx, id, bson.M{
		"$set": bson.M{
			"verification_token_hash": hash,
			"updated_at":              time.Now(),
		},
	})
}

func (r *UserRepository) SetResetToken(ctx context.Context, id, hash string, expires time.Time) error {
	return r.updateOne(ctx, id, bson.M{
		"$set": bson.M{
			"reset_token_hash":    hash,
			"reset_token_expires": expires,
			"updated_at":          time.Now(),
		},
	})
}

func (r *UserRepository) MarkVerified(ctx context.Context, id string, domainVerified bool) error {
	return r.updateOne(ctx, id, bson.M{
		"$set": bson.M{
			"is_verified":     true,
			"domain_verified": domainVerified,
			"updated_at":      time.Now(),
		},
		"$unset": bson.M{
			"verification_token_hash": "",
		},
	})
}

// AppendRefreshCredential pushes the credential and trims the sequence to the
// newest max entries in a single update, so concurrent logins cannot lose an
// entry or grow the sequence past the bound.
func (r *UserRepository) AppendRefreshCredential(ctx context.Context, id string, cred domain.RefreshCredential, max int) error {
	return r.updateOne(ctx, id, bson.M{
		"$push": bson.M{
			"refresh_credentials": bson.M{
				"$each":  bson.A{mongoRefreshCredential(cred)},
				"$slice": -max,
			},
		},
		"$set": bson.M{"updated_at": time.Now()},
	})
}

func (r *UserRepository) RemoveRefreshCredential(ctx context.Context, id, tokenHash string) error {
	return r.updateOne(ctx, id, bson.M{
		"$pull": bson.M{
			"refresh_credentials": bson.M{"token_hash": tokenHash},
		},
		"$set": bson.M{"updated_at": time.Now()},
	})
}

func (r *UserRepository) ClearRefreshCredentials(ctx context.Context, id string) error {
	return r.updateOne(ctx, id, bson.M{
		"$set": bson.M{
			"refresh_credentials": bson.A{},
			"updated_at":          time.Now(),
		},
	})
}

func (r *UserRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	oid, err := userID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, filter ports.UserListFilter) ([]*domain.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.Search != "" {
		re := primitive.Regex{Pattern: filter.Search, Options: "i"}
		query["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"username": re},
			bson.M{"email": re},
		}
	}
	if filter.Role != "" {
		query["roles"] = filter.Role
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var users []*domain.User
	for cur.Next(ctx) {
		var mu mongoUser
		if err := cur.Decode(&mu); err != nil {
			return nil, 0, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, mu.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := userID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the users collection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "verification_token_hash", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "reset_token_hash", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
