package domain

import (
	"encoding/json"
	"time"
)

// Envelope is the wire format shared by every response: data on success,
// message on error, epoch-millis timestamp on both.
type Envelope struct {
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// OK wraps a payload in a success envelope.
func OK(data interface{}) Envelope {
	return Envelope{Timestamp: time.Now().UnixMilli(), Data: data}
}

// Error wraps a short literal message in an error envelope.
func Error(message string) Envelope {
	return Envelope{Timestamp: time.Now().UnixMilli(), Message: message}
}

// NotificationData is the success payload for the single-notification fetch.
type NotificationData struct {
	Notification NotificationDTO `json:"notification"`
	Badge        int             `json:"badge"`
	BusinessName string          `json:"businessName"`
	BusinessID   string          `json:"businessId"`
}

// NotificationDTO mirrors the mobile client's expected camelCase shape.
// IsRead is always false; per-notification read state is never projected.
type NotificationDTO struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	ImageURLs       []string  `json:"imageUrls"`
	URL             string    `json:"url"`
	Browser         int       `json:"browser"`
	ImagePath       []string  `json:"imagePath"`
	UserTargets     []string  `json:"userTargets"`
	Topic           string    `json:"topic"`
	Type            int       `json:"type"`
	CreationDate    string    `json:"creationDate,omitempty"`
	PayloadType     int       `json:"payloadType"`
	IsRead          bool      `json:"isRead"`
	AccountTypesIDs []string  `json:"accountTypesIds"`
	Linked          LinkedDTO `json:"linked"`
}

// LinkedDTO is the response shape of Notification.Linked.
type LinkedDTO struct {
	Type     int             `json:"type"`
	ObjectID *string         `json:"objectId"`
	Object   json.RawMessage `json:"object,omitempty"`
}

// ToNotificationDTO maps the domain notification to its response shape.
// imageURLs are the pre-signed counterparts of ImagePaths and must have the
// same cardinality.
func ToNotificationDTO(n *Notification, imageURLs []string) NotificationDTO {
	dto := NotificationDTO{
		ID:              n.ID,
		Title:           n.Title,
		Body:            n.Body,
		ImageURLs:       imageURLs,
		URL:             n.URL,
		Browser:         n.Browser,
		ImagePath:       n.ImagePaths,
		UserTargets:     n.UserTargets,
		Topic:           n.Topic,
		Type:            n.Type,
		PayloadType:     n.PayloadType,
		IsRead:          false,
		AccountTypesIDs: []string{},
		Linked: LinkedDTO{
			Type:   n.Linked.Type,
			Object: n.Linked.Object,
		},
	}
	if dto.ImageURLs == nil {
		dto.ImageURLs = []string{}
	}
	if dto.ImagePath == nil {
		dto.ImagePath = []string{}
	}
	if dto.UserTargets == nil {
		dto.UserTargets = []string{}
	}
	if n.Linked.ObjectID != "" {
		objectID := n.Linked.ObjectID
		dto.Linked.ObjectID = &objectID
	}
	if !n.CreationDate.IsZero() {
		dto.CreationDate = n.CreationDate.UTC().Format("2006-01-02T15:04:05.000Z")
	}
	return dto
}
