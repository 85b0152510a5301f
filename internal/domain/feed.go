package domain

import (
	"context"
	"time"
	"unicode/utf8"
)

// MaxFeedImages is the maximum number of images a post may carry.
const MaxFeedImages = 4

// MaxFeedContentLength caps a post's text, in characters.
const MaxFeedContentLength = 500

// MaxFeedImageURLLength caps each image URL, in bytes.
const MaxFeedImageURLLength = 512

// FeedUserProfile is the author profile joined onto a post at fetch time.
type FeedUserProfile struct {
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// FeedPost is a user-submitted text/photo update scoped to one event.
// swagger:model FeedPost
type FeedPost struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	EventID     string           `json:"event_id"`
	Content     string           `json:"content"`
	ImageURLs   []string         `json:"image_urls"`
	CreatedAt   time.Time        `json:"created_at"`
	UserProfile *FeedUserProfile `json:"user_profile,omitempty"`
}

// CreateFeedPostInput is the payload to create a post.
type CreateFeedPostInput struct {
	EventID   string   `json:"event_id"`
	Content   string   `json:"content"`
	ImageURLs []string `json:"image_urls"`
}

// Validate returns error messages for an invalid input; nil means valid.
func (in CreateFeedPostInput) Validate() []string {
	var errs []string
	if in.EventID == "" {
		errs = append(errs, "event_id is required")
	}
	if in.Content == "" {
		errs = append(errs, "content is required")
	}
	if utf8.RuneCountInString(in.Content) > MaxFeedContentLength {
		errs = append(errs, "content must be at most 500 characters")
	}
	if len(in.ImageURLs) > MaxFeedImages {
		errs = append(errs, "at most 4 images are allowed")
	}
	for _, u := range in.ImageURLs {
		if len(u) > MaxFeedImageURLLength {
			errs = append(errs, "image url is too long")
			break
		}
	}
	return errs
}

// FeedChangeType is the kind of row-level change delivered by the realtime channel.
type FeedChangeType string

const (
	FeedChangeInsert FeedChangeType = "INSERT"
	FeedChangeUpdate FeedChangeType = "UPDATE"
	FeedChangeDelete FeedChangeType = "DELETE"
)

// FeedChange is one row-level change on the posts table.
type FeedChange struct {
	EventType FeedChangeType `json:"eventType"`
	New       *FeedPost      `json:"new,omitempty"`
	Old       *FeedPost      `json:"old,omitempty"`
}

// FeedRepository stores feed posts. Ownership of deletes is enforced here, not by callers.
type FeedRepository interface {
	// ListByEventID returns the event's posts newest first with author profiles joined.
	ListByEventID(ctx context.Context, eventID string) ([]FeedPost, error)
	Create(ctx context.Context, userID string, input CreateFeedPostInput) (*FeedPost, error)
	// Delete removes postID if it belongs to userID; ErrNotFound otherwise.
	Delete(ctx context.Context, postID, userID string) error
	// EnsureProfile creates the author profile if it does not exist yet.
	EnsureProfile(ctx context.Context, user *User) error
}

// FeedChangeSource opens a realtime change feed for one event. The channel is
// closed when ctx is cancelled.
type FeedChangeSource interface {
	Listen(ctx context.Context, eventID string) (<-chan FeedChange, error)
}

// ImageStorage uploads binary objects and returns their public URL.
type ImageStorage interface {
	Upload(ctx context.Context, path, contentType string, data []byte) (publicURL string, err error)
}
