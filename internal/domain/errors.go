package domain

import "errors"

// ErrNotFound is returned by repositories when a record does not exist.
// Callers decide whether absence is terminal (the notification itself) or
// degrades to a default (user, business, unread count).
var ErrNotFound = errors.New("not found")
