package services

import "conferencecompanion/internal/domain"

// ApplyFeedChange returns the post list after applying one realtime change.
// posts is not modified. INSERT prepends unless the id is already present,
// UPDATE replaces by id, DELETE removes by id; unknown types are ignored.
func ApplyFeedChange(posts []domain.FeedPost, change domain.FeedChange) []domain.FeedPost {
	switch change.EventType {
	case domain.FeedChangeInsert:
		if change.New == nil {
			return posts
		}
		for _, p := range posts {
			if p.ID == change.New.ID {
				return posts
			}
		}
		out := make([]domain.FeedPost, 0, len(posts)+1)
		out = append(out, *change.New)
		return append(out, posts...)

	case domain.FeedChangeUpdate:
		if change.New == nil {
			return posts
		}
		out := make([]domain.FeedPost, len(posts))
		for i, p := range posts {
			if p.ID == change.New.ID {
				out[i] = *change.New
				continue
			}
			out[i] = p
		}
		return out

	case domain.FeedChangeDelete:
		if change.Old == nil {
			return posts
		}
		return removePost(posts, change.Old.ID)
	}
	return posts
}

func removePost(posts []domain.FeedPost, postID string) []domain.FeedPost {
	out := make([]domain.FeedPost, 0, len(posts))
	for _, p := range posts {
		if p.ID != postID {
			out = append(out, p)
		}
	}
	return out
}
