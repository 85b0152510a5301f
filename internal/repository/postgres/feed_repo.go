package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/lib/pq"

	"conferencecompanion/internal/domain"
)

// channelHashLen keeps "feed_" plus the hex digest well under the 63 byte
// Postgres identifier limit.
const channelHashLen = 32

// maxNotifyPayload is the pg_notify payload limit (8000 bytes) minus headroom.
const maxNotifyPayload = 7900

// ChannelName returns the LISTEN/NOTIFY channel carrying changes for one
// event. Distinct event ids map to distinct channels.
func ChannelName(eventID string) string {
	sum := sha256.Sum256([]byte(eventID))
	return "feed_" + hex.EncodeToString(sum[:])[:channelHashLen]
}

type feedRepository struct {
	DB     *sql.DB
	logger *slog.Logger
}

func NewFeedRepository(db *sql.DB, logger *slog.Logger) domain.FeedRepository {
	return &feedRepository{DB: db, logger: logger}
}

func (r *feedRepository) ListByEventID(ctx context.Context, eventID string) ([]domain.FeedPost, error) {
	query := `
		SELECT p.id, p.user_id, p.event_id, p.content, p.image_urls, p.created_at, pr.name, pr.avatar_url
		FROM feed_posts p
		LEFT JOIN profiles pr ON pr.id = p.user_id
		WHERE p.event_id = $1
		ORDER BY p.created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []domain.FeedPost{}
	for rows.Next() {
		var p domain.FeedPost
		var name, avatar sql.NullString
		if err := rows.Scan(&p.ID, &p.UserID, &p.EventID, &p.Content, pq.Array(&p.ImageURLs), &p.CreatedAt, &name, &avatar); err != nil {
			return nil, err
		}
		p.UserProfile = profileFrom(name, avatar)
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *feedRepository) Create(ctx context.Context, userID string, input domain.CreateFeedPostInput) (*domain.FeedPost, error) {
	query := `
		WITH inserted AS (
			INSERT INTO feed_posts (user_id, event_id, content, image_urls)
			VALUES ($1, $2, $3, $4)
			RETURNING id, user_id, event_id, content, image_urls, created_at
		)
		SELECT i.id, i.user_id, i.event_id, i.content, i.image_urls, i.created_at, pr.name, pr.avatar_url
		FROM inserted i
		LEFT JOIN profiles pr ON pr.id = i.user_id
	`
	images := input.ImageURLs
	if images == nil {
		images = []string{}
	}
	p := &domain.FeedPost{}
	var name, avatar sql.NullString
	err := r.DB.QueryRowContext(ctx, query, userID, input.EventID, input.Content, pq.Array(images)).
		Scan(&p.ID, &p.UserID, &p.EventID, &p.Content, pq.Array(&p.ImageURLs), &p.CreatedAt, &name, &avatar)
	if err != nil {
		return nil, err
	}
	p.UserProfile = profileFrom(name, avatar)
	r.publish(ctx, p.EventID, domain.FeedChange{EventType: domain.FeedChangeInsert, New: p})
	return p, nil
}

func (r *feedRepository) Delete(ctx context.Context, postID, userID string) error {
	query := `
		DELETE FROM feed_posts
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, event_id, content, image_urls, created_at
	`
	p := &domain.FeedPost{}
	err := r.DB.QueryRowContext(ctx, query, postID, userID).
		Scan(&p.ID, &p.UserID, &p.EventID, &p.Content, pq.Array(&p.ImageURLs), &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	r.publish(ctx, p.EventID, domain.FeedChange{EventType: domain.FeedChangeDelete, Old: p})
	return nil
}

func (r *feedRepository) EnsureProfile(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO profiles (id, name, avatar_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query, u.ID, u.DisplayName(), u.AvatarURL)
	return err
}

// publish notifies listeners of the event's channel. The write has already
// committed, so a failed notify is logged rather than returned.
func (r *feedRepository) publish(ctx context.Context, eventID string, change domain.FeedChange) {
	payload, err := json.Marshal(change)
	if err != nil {
		r.logger.ErrorContext(ctx, "encode feed change", "err", err)
		return
	}
	if len(payload) > maxNotifyPayload {
		r.logger.ErrorContext(ctx, "feed change too large to publish", "event_id", eventID, "type", change.EventType, "bytes", len(payload))
		return
	}
	if _, err := r.DB.ExecContext(ctx, `SELECT pg_notify($1, $2)`, ChannelName(eventID), string(payload)); err != nil {
		r.logger.WarnContext(ctx, "publish feed change", "event_id", eventID, "type", change.EventType, "err", err)
	}
}

func profileFrom(name, avatar sql.NullString) *domain.FeedUserProfile {
	if !name.Valid && !avatar.Valid {
		return nil
	}
	return &domain.FeedUserProfile{Name: name.String, AvatarURL: avatar.String}
}
