package domain

import (
	"context"
	"time"
)

// PermissionStatus is the answer of the platform when asked to deliver local notifications.
type PermissionStatus string

const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
)

// NotificationData is the payload consumed by the navigation layer on tap.
type NotificationData struct {
	URL string `json:"url"`
}

// Notification is a local reminder scheduled for a point in time.
type Notification struct {
	Title  string           `json:"title"`
	Data   NotificationData `json:"data"`
	FireAt time.Time        `json:"fire_at"`
}

// NotificationScheduler schedules and cancels local notifications.
type NotificationScheduler interface {
	Schedule(ctx context.Context, n Notification) (id string, err error)
	// Cancel returns ErrNotFound when id is unknown or has already fired.
	Cancel(ctx context.Context, id string) error
}

// PermissionRequester asks for permission to deliver notifications.
type PermissionRequester interface {
	RequestPermission(ctx context.Context) (PermissionStatus, error)
}

// NotificationDeliverer is invoked when a scheduled notification fires.
type NotificationDeliverer interface {
	Deliver(ctx context.Context, n Notification) error
}

// HapticFeedback emits a selection cue on platforms that support it.
type HapticFeedback interface {
	Selection()
}
