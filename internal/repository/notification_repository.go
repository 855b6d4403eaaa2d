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

const notificationCollection = "Notification"

// typeExternalHidden notifications never count towards reachability.
const typeExternalHidden = 17

// reachableLimit bounds the reachability result set.
const reachableLimit = 1000

// NotificationRepository reads notifications from the primary store.
type NotificationRepository struct {
	coll *mongo.Collection
}

// NewNotificationRepository creates a repository over the notifications
// database.
func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{coll: db.Collection(notificationCollection)}
}

type i18nEntry struct {
	Lang string `bson:"lang"`
	Text string `bson:"text"`
}

type linkedDoc struct {
	Type     int                 `bson:"type"`
	ObjectID *primitive.ObjectID `bson:"objectId"`
	Object   bson.M              `bson:"object"`
}

type notificationDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Title        string             `bson:"title"`
	Body         string             `bson:"body"`
	I18nTitle    []i18nEntry        `bson:"i18nTitle"`
	I18nBody     []i18nEntry        `bson:"i18nBody"`
	ImagePath    []string           `bson:"imagePath"`
	URL          string             `bson:"url"`
	UserTargets  []string           `bson:"userTargets"`
	Topic        *string            `bson:"topic"`
	Type         *int               `bson:"type"`
	CreationDate *time.Time         `bson:"creationDate"`
	PayloadType  *int               `bson:"payloadType"`
	Browser      *int               `bson:"browser"`
	Linked       *linkedDoc         `bson:"linked"`
}

// FindByID fetches one notification scoped to the caller's business,
// excluding soft-deleted records, and localizes title/body for the request
// language.
func (r *NotificationRepository) FindByID(ctx context.Context, id, businessID, language string) (*domain.Notification, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid notification id %q: %w", id, err)
	}
	bid, err := primitive.ObjectIDFromHex(businessID)
	if err != nil {
		return nil, fmt.Errorf("invalid business id %q: %w", businessID, err)
	}

	filter := bson.M{
		"_id":        oid,
		"businessId": bid,
		"deleted":    bson.M{"$ne": true},
	}

	var doc notificationDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}

	return docToNotification(&doc, language)
}

// docToNotification maps a stored document onto the domain read model,
// applying the i18n fallback and the store's field defaults.
func docToNotification(doc *notificationDoc, language string) (*domain.Notification, error) {
	n := &domain.Notification{
		ID:          doc.ID.Hex(),
		Title:       localize(doc.I18nTitle, language, doc.Title),
		Body:        localize(doc.I18nBody, language, doc.Body),
		ImagePaths:  doc.ImagePath,
		URL:         doc.URL,
		UserTargets: doc.UserTargets,
		Type:        1,
		PayloadType: 1,
		Browser:     2,
	}
	if doc.Topic != nil {
		n.Topic = *doc.Topic
	}
	if doc.Type != nil {
		n.Type = *doc.Type
	}
	if doc.PayloadType != nil {
		n.PayloadType = *doc.PayloadType
	}
	if doc.Browser != nil {
		n.Browser = *doc.Browser
	}
	if doc.CreationDate != nil {
		n.CreationDate = doc.CreationDate.UTC()
	} else {
		n.CreationDate = time.Now().UTC()
	}
	if doc.Linked != nil {
		n.Linked.Type = doc.Linked.Type
		if doc.Linked.ObjectID != nil {
			n.Linked.ObjectID = doc.Linked.ObjectID.Hex()
		}
		if doc.Linked.Object != nil {
			raw, err := bson.MarshalExtJSON(doc.Linked.Object, false, false)
			if err != nil {
				return nil, fmt.Errorf("failed to encode linked object: %w", err)
			}
			n.Linked.Object = raw
		}
	}
	return n, nil
}

// localize picks the i18n text for the language, falling back to the
// non-localized field.
func localize(entries []i18nEntry, language, fallback string) string {
	for _, e := range entries {
		if e.Lang == language {
			return e.Text
		}
	}
	return fallback
}

// FindReachableIDs returns the deduplicated ids of notifications any cohort
// member could have received within the business set. Cohort phones must
// already be SHA-512 hashed. An empty targeting disjunction short-circuits
// to the empty set without touching the store.
func (r *NotificationRepository) FindReachableIDs(ctx context.Context, cohort []domain.SimplifiedUser, businessIDs []string) ([]string, error) {
	filter, ok := reachabilityFilter(cohort, businessIDs)
	if !ok {
		return nil, nil
	}

	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetLimit(reachableLimit)

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query reachable notifications: %w", err)
	}
	defer cursor.Close(ctx)

	seen := make(map[string]struct{})
	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode notification id: %w", err)
		}
		hex := doc.ID.Hex()
		if _, dup := seen[hex]; dup {
			continue
		}
		seen[hex] = struct{}{}
		ids = append(ids, hex)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error on reachable notifications: %w", err)
	}
	return ids, nil
}

// reachabilityFilter builds the reachability query for a cohort. It returns
// ok=false when the query cannot match anything: no valid business ids, no
// cohort, or every targeting sub-clause empty. Sub-clauses with empty value
// sets are omitted rather than emitted as empty $in matches.
func reachabilityFilter(cohort []domain.SimplifiedUser, businessIDs []string) (bson.M, bool) {
	if len(cohort) == 0 {
		return nil, false
	}

	bids := make([]primitive.ObjectID, 0, len(businessIDs))
	for _, id := range businessIDs {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		bids = append(bids, oid)
	}
	if len(bids) == 0 {
		return nil, false
	}

	var (
		accountTypes []string
		userIDs      []string
		phones       []string
		oldest       time.Time
	)
	seenTypes := make(map[string]struct{})
	seenPhones := make(map[string]struct{})
	for i, u := range cohort {
		if i == 0 || u.CreationDate.Before(oldest) {
			oldest = u.CreationDate
		}
		if u.ID != "" {
			userIDs = append(userIDs, u.ID)
		}
		if u.AccountType != "" {
			if _, dup := seenTypes[u.AccountType]; !dup {
				seenTypes[u.AccountType] = struct{}{}
				accountTypes = append(accountTypes, u.AccountType)
			}
		}
		if u.Phone != "" {
			if _, dup := seenPhones[u.Phone]; !dup {
				seenPhones[u.Phone] = struct{}{}
				phones = append(phones, u.Phone)
			}
		}
	}

	broadcastTopics := make([]string, 0, len(businessIDs))
	for _, id := range businessIDs {
		broadcastTopics = append(broadcastTopics, "all_"+id)
	}

	var or []bson.M
	if len(accountTypes) > 0 {
		or = append(or, bson.M{"topic": bson.M{"$in": accountTypes}})
	}
	if len(broadcastTopics) > 0 {
		or = append(or, bson.M{"topic": bson.M{"$in": broadcastTopics}})
	}
	if len(userIDs) > 0 {
		or = append(or, bson.M{"userTargets": bson.M{"$in": userIDs}})
	}
	if len(accountTypes) > 0 {
		or = append(or, bson.M{"accountTypeTargets": bson.M{"$in": accountTypes}})
	}
	if len(userIDs) > 0 {
		or = append(or, bson.M{"userTargetsChannel": bson.M{"$in": userIDs}})
	}
	if len(phones) > 0 {
		or = append(or, bson.M{"phones": bson.M{"$in": phones}})
	}
	if len(or) == 0 {
		return nil, false
	}

	return bson.M{
		"businessId":   bson.M{"$in": bids},
		"creationDate": bson.M{"$gt": oldest},
		"deleted":      bson.M{"$ne": true},
		"type":         bson.M{"$ne": typeExternalHidden},
		"$or":          or,
	}, true
}
