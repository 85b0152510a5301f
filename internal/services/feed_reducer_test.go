package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"conferencecompanion/internal/domain"
)

func post(id, content string) domain.FeedPost {
	return domain.FeedPost{ID: id, EventID: "e1", UserID: "u1", Content: content}
}

func TestApplyFeedChange(t *testing.T) {
	base := []domain.FeedPost{post("p2", "two"), post("p1", "one")}
	p3 := post("p3", "three")
	p1Edited := post("p1", "one, edited")

	tests := []struct {
		name   string
		change domain.FeedChange
		want   []string
	}{
		{
			name:   "insert prepends",
			change: domain.FeedChange{EventType: domain.FeedChangeInsert, New: &p3},
			want:   []string{"p3:three", "p2:two", "p1:one"},
		},
		{
			name:   "insert of known id is ignored",
			change: domain.FeedChange{EventType: domain.FeedChangeInsert, New: &domain.FeedPost{ID: "p1", Content: "dup"}},
			want:   []string{"p2:two", "p1:one"},
		},
		{
			name:   "update replaces in place",
			change: domain.FeedChange{EventType: domain.FeedChangeUpdate, New: &p1Edited},
			want:   []string{"p2:two", "p1:one, edited"},
		},
		{
			name:   "update of unknown id changes nothing",
			change: domain.FeedChange{EventType: domain.FeedChangeUpdate, New: &p3},
			want:   []string{"p2:two", "p1:one"},
		},
		{
			name:   "delete removes",
			change: domain.FeedChange{EventType: domain.FeedChangeDelete, Old: &domain.FeedPost{ID: "p2"}},
			want:   []string{"p1:one"},
		},
		{
			name:   "delete without old row is ignored",
			change: domain.FeedChange{EventType: domain.FeedChangeDelete},
			want:   []string{"p2:two", "p1:one"},
		},
		{
			name:   "unknown type is ignored",
			change: domain.FeedChange{EventType: "TRUNCATE"},
			want:   []string{"p2:two", "p1:one"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := append([]domain.FeedPost(nil), base...)
			got := ApplyFeedChange(input, tt.change)

			var ids []string
			for _, p := range got {
				ids = append(ids, p.ID+":"+p.Content)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, base, input, "input is not modified")
		})
	}
}

func TestApplyFeedChange_Sequence(t *testing.T) {
	a, b := post("a", "A"), post("b", "B")
	var posts []domain.FeedPost
	for _, c := range []domain.FeedChange{
		{EventType: domain.FeedChangeInsert, New: &a},
		{EventType: domain.FeedChangeInsert, New: &b},
		{EventType: domain.FeedChangeInsert, New: &a},
		{EventType: domain.FeedChangeDelete, Old: &b},
	} {
		posts = ApplyFeedChange(posts, c)
	}
	assert.Equal(t, []domain.FeedPost{a}, posts)
}
