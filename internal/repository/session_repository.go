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

const sessionCollection = "AccountSessionInfo"

// SessionRepository validates live sessions against the client database.
type SessionRepository struct {
	coll *mongo.Collection
}

// NewSessionRepository creates a repository over the client database.
func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{coll: db.Collection(sessionCollection)}
}

type sessionDoc struct {
	ID       primitive.ObjectID `bson:"_id"`
	Language string             `bson:"language"`
}

// FindByIDAndBusinessID looks up a session scoped to its business. Absence
// means the session has been revoked or never existed.
func (r *SessionRepository) FindByIDAndBusinessID(ctx context.Context, sessionID, businessID string) (*domain.Session, error) {
	sid, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", sessionID, err)
	}
	bid, err := primitive.ObjectIDFromHex(businessID)
	if err != nil {
		return nil, fmt.Errorf("invalid business id %q: %w", businessID, err)
	}

	opts := options.FindOne().SetProjection(bson.M{"_id": 1, "language": 1})

	var doc sessionDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": sid, "businessId": bid}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return &domain.Session{ID: doc.ID.Hex(), Language: doc.Language}, nil
}
