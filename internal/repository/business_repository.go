package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/goil-app/notifications-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const businessCollection = "Business"

// BusinessRepository reads business display data.
type BusinessRepository struct {
	coll *mongo.Collection
}

// NewBusinessRepository creates a repository over the client database.
func NewBusinessRepository(db *mongo.Database) *BusinessRepository {
	return &BusinessRepository{coll: db.Collection(businessCollection)}
}

// FindByID fetches a business by id.
func (r *BusinessRepository) FindByID(ctx context.Context, id string) (*domain.Business, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid business id %q: %w", id, err)
	}

	opts := options.FindOne().SetProjection(bson.M{"name": 1})

	var doc struct {
		Name string `bson:"name"`
	}
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find business: %w", err)
	}

	return &domain.Business{Name: doc.Name}, nil
}
