package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goil-app/notifications-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const accountCollection = "Account"

// UserRepository reads simplified account records.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a repository over the account database.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(accountCollection)}
}

type accountDoc struct {
	ID           primitive.ObjectID  `bson:"_id"`
	Phone        string              `bson:"phone"`
	CreationDate *time.Time          `bson:"creationDate"`
	AccountType  *primitive.ObjectID `bson:"accountType"`
	BusinessID   *primitive.ObjectID `bson:"businessId"`
}

func accountProjection() bson.M {
	return bson.M{
		"_id":          1,
		"phone":        1,
		"creationDate": 1,
		"accountType":  1,
		"businessId":   1,
	}
}

func docToSimplifiedUser(doc *accountDoc) domain.SimplifiedUser {
	u := domain.SimplifiedUser{
		ID:    doc.ID.Hex(),
		Phone: doc.Phone,
	}
	if doc.CreationDate != nil {
		u.CreationDate = doc.CreationDate.UTC()
	}
	if doc.AccountType != nil {
		u.AccountType = doc.AccountType.Hex()
	}
	if doc.BusinessID != nil {
		u.BusinessID = doc.BusinessID.Hex()
	}
	return u
}

// FindSimplifiedByID fetches the caller's account scoped to its business.
func (r *UserRepository) FindSimplifiedByID(ctx context.Context, id, businessID string) (*domain.SimplifiedUser, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid account id %q: %w", id, err)
	}
	bid, err := primitive.ObjectIDFromHex(businessID)
	if err != nil {
		return nil, fmt.Errorf("invalid business id %q: %w", businessID, err)
	}

	opts := options.FindOne().SetProjection(accountProjection())

	var doc accountDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid, "businessId": bid}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	u := docToSimplifiedUser(&doc)
	return &u, nil
}

// FindByIDAndBusinessIDs fetches one account across a set of businesses.
func (r *UserRepository) FindByIDAndBusinessIDs(ctx context.Context, id string, businessIDs []string) (*domain.SimplifiedUser, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid account id %q: %w", id, err)
	}
	bids, err := toObjectIDs(businessIDs)
	if err != nil {
		return nil, err
	}

	opts := options.FindOne().SetProjection(accountProjection())

	var doc accountDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid, "businessId": bson.M{"$in": bids}}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	u := docToSimplifiedUser(&doc)
	return &u, nil
}

// FindByPhoneAndBusinessIDs returns every account registered with the given
// raw phone number across the business set. Accounts store phones in clear,
// so callers pass the raw number here and hash the results afterwards.
func (r *UserRepository) FindByPhoneAndBusinessIDs(ctx context.Context, phone string, businessIDs []string) ([]domain.SimplifiedUser, error) {
	bids, err := toObjectIDs(businessIDs)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetProjection(accountProjection())

	cursor, err := r.coll.Find(ctx, bson.M{"phone": phone, "businessId": bson.M{"$in": bids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by phone: %w", err)
	}
	defer cursor.Close(ctx)

	var users []domain.SimplifiedUser
	for cursor.Next(ctx) {
		var doc accountDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode account: %w", err)
		}
		users = append(users, docToSimplifiedUser(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error on accounts: %w", err)
	}
	return users, nil
}

func toObjectIDs(ids []string) ([]primitive.ObjectID, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("invalid business id %q: %w", id, err)
		}
		oids = append(oids, oid)
	}
	return oids, nil
}
