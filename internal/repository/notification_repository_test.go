package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/goil-app/notifications-api/internal/domain"
)

const (
	bizA = "64f000000000000000000aaa"
	bizB = "64f000000000000000000bbb"
)

func user(id, phone, accountType string, created time.Time) domain.SimplifiedUser {
	return domain.SimplifiedUser{
		ID:           id,
		Phone:        phone,
		AccountType:  accountType,
		CreationDate: created,
	}
}

func TestReachabilityFilter(t *testing.T) {
	now := time.Now().UTC()

	t.Run("empty cohort yields no filter", func(t *testing.T) {
		_, ok := reachabilityFilter(nil, []string{bizA})
		assert.False(t, ok)
	})

	t.Run("no valid business ids yields no filter", func(t *testing.T) {
		cohort := []domain.SimplifiedUser{user("u1", "hash1", "t1", now)}
		_, ok := reachabilityFilter(cohort, []string{"not-an-oid"})
		assert.False(t, ok)
	})

	t.Run("cohort with no targeting values yields no filter", func(t *testing.T) {
		cohort := []domain.SimplifiedUser{{CreationDate: now}}
		_, ok := reachabilityFilter(cohort, []string{bizA})
		assert.False(t, ok)
	})

	t.Run("full cohort builds all clauses", func(t *testing.T) {
		cohort := []domain.SimplifiedUser{
			user("u1", "hash1", "t1", now.Add(-time.Hour)),
			user("u2", "hash2", "t2", now),
		}
		filter, ok := reachabilityFilter(cohort, []string{bizA, bizB})
		require.True(t, ok)

		assert.Equal(t, bson.M{"$ne": true}, filter["deleted"])
		assert.Equal(t, bson.M{"$ne": typeExternalHidden}, filter["type"])
		assert.Equal(t, bson.M{"$gt": now.Add(-time.Hour)}, filter["creationDate"])

		bids := filter["businessId"].(bson.M)["$in"].([]primitive.ObjectID)
		assert.Len(t, bids, 2)

		or := filter["$or"].([]bson.M)
		require.Len(t, or, 6)
		assert.Equal(t, bson.M{"topic": bson.M{"$in": []string{"t1", "t2"}}}, or[0])
		assert.Equal(t, bson.M{"topic": bson.M{"$in": []string{"all_" + bizA, "all_" + bizB}}}, or[1])
		assert.Equal(t, bson.M{"userTargets": bson.M{"$in": []string{"u1", "u2"}}}, or[2])
		assert.Equal(t, bson.M{"accountTypeTargets": bson.M{"$in": []string{"t1", "t2"}}}, or[3])
		assert.Equal(t, bson.M{"userTargetsChannel": bson.M{"$in": []string{"u1", "u2"}}}, or[4])
		assert.Equal(t, bson.M{"phones": bson.M{"$in": []string{"hash1", "hash2"}}}, or[5])
	})

	t.Run("empty sub-clauses are omitted", func(t *testing.T) {
		cohort := []domain.SimplifiedUser{
			{ID: "u1", CreationDate: now},
		}
		filter, ok := reachabilityFilter(cohort, []string{bizA})
		require.True(t, ok)

		or := filter["$or"].([]bson.M)
		// broadcast topics, userTargets and userTargetsChannel only
		require.Len(t, or, 3)
		assert.Equal(t, bson.M{"topic": bson.M{"$in": []string{"all_" + bizA}}}, or[0])
		assert.Equal(t, bson.M{"userTargets": bson.M{"$in": []string{"u1"}}}, or[1])
		assert.Equal(t, bson.M{"userTargetsChannel": bson.M{"$in": []string{"u1"}}}, or[2])
	})

	t.Run("oldest cohort member bounds the window", func(t *testing.T) {
		oldest := now.Add(-48 * time.Hour)
		cohort := []domain.SimplifiedUser{
			user("u1", "hash1", "t1", now),
			user("u2", "hash2", "t1", oldest),
			user("u3", "hash3", "t1", now.Add(-time.Hour)),
		}
		filter, ok := reachabilityFilter(cohort, []string{bizA})
		require.True(t, ok)
		assert.Equal(t, bson.M{"$gt": oldest}, filter["creationDate"])
	})

	t.Run("duplicate account types and phones collapse", func(t *testing.T) {
		cohort := []domain.SimplifiedUser{
			user("u1", "hash1", "t1", now),
			user("u2", "hash1", "t1", now),
		}
		filter, ok := reachabilityFilter(cohort, []string{bizA})
		require.True(t, ok)

		or := filter["$or"].([]bson.M)
		assert.Equal(t, bson.M{"topic": bson.M{"$in": []string{"t1"}}}, or[0])
		assert.Equal(t, bson.M{"phones": bson.M{"$in": []string{"hash1"}}}, or[5])
	})
}

func TestDocToNotification(t *testing.T) {
	oid := primitive.NewObjectID()
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	t.Run("defaults applied for absent fields", func(t *testing.T) {
		n, err := docToNotification(&notificationDoc{ID: oid, Title: "t", Body: "b"}, "es")
		require.NoError(t, err)
		assert.Equal(t, oid.Hex(), n.ID)
		assert.Equal(t, 1, n.Type)
		assert.Equal(t, 1, n.PayloadType)
		assert.Equal(t, 2, n.Browser)
		assert.False(t, n.CreationDate.IsZero())
	})

	t.Run("stored values win over defaults", func(t *testing.T) {
		typ, payload, browser := 5, 2, 1
		topic := "news"
		n, err := docToNotification(&notificationDoc{
			ID:           oid,
			Topic:        &topic,
			Type:         &typ,
			PayloadType:  &payload,
			Browser:      &browser,
			CreationDate: &created,
		}, "es")
		require.NoError(t, err)
		assert.Equal(t, "news", n.Topic)
		assert.Equal(t, 5, n.Type)
		assert.Equal(t, 2, n.PayloadType)
		assert.Equal(t, 1, n.Browser)
		assert.Equal(t, created, n.CreationDate)
	})

	t.Run("i18n text preferred for request language", func(t *testing.T) {
		doc := &notificationDoc{
			ID:    oid,
			Title: "fallback title",
			Body:  "fallback body",
			I18nTitle: []i18nEntry{
				{Lang: "en", Text: "english title"},
				{Lang: "es", Text: "titulo"},
			},
			I18nBody: []i18nEntry{
				{Lang: "en", Text: "english body"},
			},
		}

		n, err := docToNotification(doc, "es")
		require.NoError(t, err)
		assert.Equal(t, "titulo", n.Title)
		assert.Equal(t, "fallback body", n.Body)

		n, err = docToNotification(doc, "fr")
		require.NoError(t, err)
		assert.Equal(t, "fallback title", n.Title)
	})

	t.Run("linked sub-record mapped", func(t *testing.T) {
		linkedOID := primitive.NewObjectID()
		n, err := docToNotification(&notificationDoc{
			ID: oid,
			Linked: &linkedDoc{
				Type:     3,
				ObjectID: &linkedOID,
				Object:   bson.M{"kind": "offer"},
			},
		}, "es")
		require.NoError(t, err)
		assert.Equal(t, 3, n.Linked.Type)
		assert.Equal(t, linkedOID.Hex(), n.Linked.ObjectID)
		assert.JSONEq(t, `{"kind":"offer"}`, string(n.Linked.Object))
	})
}

func TestToObjectIDs(t *testing.T) {
	ids, err := toObjectIDs([]string{bizA, bizB})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	_, err = toObjectIDs([]string{"nope"})
	assert.Error(t, err)
}
