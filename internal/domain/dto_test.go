package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope(t *testing.T) {
	t.Run("success envelope", func(t *testing.T) {
		env := OK(map[string]string{"k": "v"})
		assert.NotZero(t, env.Timestamp)
		assert.Empty(t, env.Message)

		raw, err := json.Marshal(env)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "message")
	})

	t.Run("error envelope", func(t *testing.T) {
		env := Error("Not Authorized")
		assert.NotZero(t, env.Timestamp)
		assert.Equal(t, "Not Authorized", env.Message)

		raw, err := json.Marshal(env)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "data")
	})
}

func TestToNotificationDTO(t *testing.T) {
	t.Run("full mapping", func(t *testing.T) {
		created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		n := &Notification{
			ID:           "n1",
			Title:        "t",
			Body:         "b",
			ImagePaths:   []string{"notifications/images/a.png"},
			URL:          "https://example.com",
			UserTargets:  []string{"u1"},
			Topic:        "news",
			Type:         5,
			CreationDate: created,
			PayloadType:  2,
			Browser:      1,
			Linked: Linked{
				Type:     3,
				ObjectID: "o1",
				Object:   json.RawMessage(`{"kind":"offer"}`),
			},
		}

		dto := ToNotificationDTO(n, []string{"https://signed/a.png"})
		assert.Equal(t, "n1", dto.ID)
		assert.Equal(t, []string{"https://signed/a.png"}, dto.ImageURLs)
		assert.Equal(t, []string{"notifications/images/a.png"}, dto.ImagePath)
		assert.Equal(t, "2026-01-02T03:04:05.000Z", dto.CreationDate)
		assert.False(t, dto.IsRead)
		assert.Equal(t, []string{}, dto.AccountTypesIDs)
		require.NotNil(t, dto.Linked.ObjectID)
		assert.Equal(t, "o1", *dto.Linked.ObjectID)
	})

	t.Run("nil slices become empty arrays", func(t *testing.T) {
		dto := ToNotificationDTO(&Notification{ID: "n1"}, nil)
		raw, err := json.Marshal(dto)
		require.NoError(t, err)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, []interface{}{}, decoded["imageUrls"])
		assert.Equal(t, []interface{}{}, decoded["imagePath"])
		assert.Equal(t, []interface{}{}, decoded["userTargets"])
		assert.Equal(t, []interface{}{}, decoded["accountTypesIds"])
	})

	t.Run("zero creation date omitted", func(t *testing.T) {
		dto := ToNotificationDTO(&Notification{ID: "n1"}, nil)
		raw, err := json.Marshal(dto)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "creationDate")
	})

	t.Run("linked object id omitted when empty", func(t *testing.T) {
		dto := ToNotificationDTO(&Notification{ID: "n1"}, nil)
		assert.Nil(t, dto.Linked.ObjectID)

		raw, err := json.Marshal(dto)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"objectId":null`)
	})
}
