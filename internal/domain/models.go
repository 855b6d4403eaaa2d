package domain

import (
	"encoding/json"
	"time"
)

// Linked is the optional sub-record tying a notification to another object.
// Object carries an opaque JSON payload of unknown schema; it is passed
// through to the response untouched.
type Linked struct {
	Type     int
	ObjectID string
	Object   json.RawMessage
}

// Notification is the read model for a single notification, either loaded
// from the primary store or synthesized from an external chat message.
type Notification struct {
	ID           string
	Title        string
	Body         string
	ImagePaths   []string
	URL          string
	UserTargets  []string
	Topic        string
	Type         int
	CreationDate time.Time
	PayloadType  int
	Linked       Linked
	Browser      int
}

// SimplifiedUser is the account projection used by the badge pipeline.
// Phone is raw on retrieval; the cohort pass replaces it with its SHA-512
// hex before the reachability query.
type SimplifiedUser struct {
	ID           string
	Phone        string
	CreationDate time.Time
	AccountType  string
	BusinessID   string
}

// Business carries the tenant display name.
type Business struct {
	Name string
}

// Session is the stored session record; only the language survives the
// projection.
type Session struct {
	ID       string
	Language string
}

// TrackEvent is the payload enqueued when a primary-store notification is
// viewed.
type TrackEvent struct {
	ID                string `json:"id"`
	BusinessID        string `json:"businessId,omitempty"`
	AccountID         string `json:"accountId,omitempty"`
	DeviceClientType  string `json:"deviceClientType,omitempty"`
	DeviceClientModel string `json:"deviceClientModel,omitempty"`
	DeviceClientOS    string `json:"deviceClientOS,omitempty"`
	SessionID         string `json:"sessionId,omitempty"`
}

// ForwardHeaders are the client headers forwarded verbatim to the tracking
// queue endpoint.
type ForwardHeaders struct {
	Authorization  string
	ClientPlatform string
	ClientOS       string
	ClientDevice   string
	ClientID       string
}
