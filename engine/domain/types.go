// Package domain defines the normalized forum model every upstream schema is
// converted into, the paging/search controls, and the error taxonomy shared by
// the adapter and the thread engine.
package domain

import "time"

// Instance is a remote forum host, e.g. "lemmy.ml" or "127.0.0.1:8536".
type Instance string

func (i Instance) String() string { return string(i) }

// Votes carries the score fields exactly as the upstream schema supplied them.
// A nil field means the schema did not send it.
type Votes struct {
	Score     *int64 `json:"score,omitempty"`
	Upvotes   *int64 `json:"upvotes,omitempty"`
	Downvotes *int64 `json:"downvotes,omitempty"`
}

// Normalize fills Score from the vote counts when the schema omitted it and
// both counts are present. Vote counts are never derived from a score.
func (v Votes) Normalize() Votes {
	if v.Score == nil && v.Upvotes != nil && v.Downvotes != nil {
		s := *v.Upvotes - *v.Downvotes
		v.Score = &s
	}
	return v
}

// Community is a topical sub-forum within one instance. ID is only unique
// within that instance.
type Community struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Title           string  `json:"title"`
	Description     *string `json:"description,omitempty"`
	SubscriberCount int64   `json:"subscriber_count"`
	PostCount       int64   `json:"post_count"`
	CommentCount    int64   `json:"comment_count"`
	HotRank         int64   `json:"hot_rank"`
}

// Post is a top-level submission within a community.
type Post struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	URL           *string   `json:"url,omitempty"`
	Body          *string   `json:"body,omitempty"`
	CreatorID     int64     `json:"creator_id"`
	CreatorName   string    `json:"creator_name"`
	CommunityName string    `json:"community_name"`
	Published     time.Time `json:"published"`
	Stickied      bool      `json:"stickied"`
	CommentCount  int64     `json:"comment_count"`
	Votes
}

// Comment is a reply to a post. ParentID is nil for top-level comments.
type Comment struct {
	ID          int64     `json:"id"`
	CreatorID   int64     `json:"creator_id"`
	CreatorName string    `json:"creator_name"`
	PostID      int64     `json:"post_id"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	Content     string    `json:"content"`
	Published   time.Time `json:"published"`
	Votes
}

// PersonSummary holds a user's public activity counters.
type PersonSummary struct {
	Name         string `json:"name"`
	PostCount    int64  `json:"post_count"`
	PostScore    int64  `json:"post_score"`
	CommentCount int64  `json:"comment_count"`
	CommentScore int64  `json:"comment_score"`
}

// SearchResult aggregates every entity family a search can return, plus the
// content type filter it was requested with.
type SearchResult struct {
	Type        ContentType     `json:"type"`
	Communities []Community     `json:"communities"`
	Posts       []Post          `json:"posts"`
	Comments    []Comment       `json:"comments"`
	Persons     []PersonSummary `json:"persons"`
}

// CommunityDetail is a community together with its staff.
type CommunityDetail struct {
	Community  Community       `json:"community"`
	Moderators []string        `json:"moderators"`
	Admins     []PersonSummary `json:"admins,omitempty"`
	Online     int64           `json:"online"`
}

// PostDetail is a post with its flat comment list in upstream order.
type PostDetail struct {
	Post     Post      `json:"post"`
	Comments []Comment `json:"comments"`
}

// PersonDetail is a user profile with a page of their posts and comments.
type PersonDetail struct {
	Person   PersonSummary `json:"person"`
	Posts    []Post        `json:"posts"`
	Comments []Comment     `json:"comments"`
}
