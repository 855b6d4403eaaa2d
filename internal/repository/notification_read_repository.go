package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const notificationReadCollection = "NotificationRead"

// NotificationReadRepository reads the per-phone read log from the analytics
// database. The read log stores hashed phones.
type NotificationReadRepository struct {
	coll *mongo.Collection
}

// NewNotificationReadRepository creates a repository over the analytics
// database.
func NewNotificationReadRepository(db *mongo.Database) *NotificationReadRepository {
	return &NotificationReadRepository{coll: db.Collection(notificationReadCollection)}
}

// FindReadIDs returns the ids of notifications already read for the hashed
// phone across the business set.
func (r *NotificationReadRepository) FindReadIDs(ctx context.Context, hashedPhone string, businessIDs []string) ([]string, error) {
	if hashedPhone == "" || len(businessIDs) == 0 {
		return nil, nil
	}
	bids, err := toObjectIDs(businessIDs)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetProjection(bson.M{"notificationId": 1})

	cursor, err := r.coll.Find(ctx, bson.M{"phone": hashedPhone, "businessId": bson.M{"$in": bids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query read log: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			NotificationID primitive.ObjectID `bson:"notificationId"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode read entry: %w", err)
		}
		ids = append(ids, doc.NotificationID.Hex())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error on read log: %w", err)
	}
	return ids, nil
}
