package models

import "time"

// Analytics event names emitted by feed actions
const (
	EventBookmarkPost       = "bookmark post"
	EventRemovePostBookmark = "remove post bookmark"
	EventUpvotePost         = "upvote post"
	EventRemovePostUpvote   = "remove post upvote"
)

// AnalyticsPost is the post snapshot carried by an analytics event
type AnalyticsPost struct {
	ID       string `json:"id" bson:"id"`
	Title    string `json:"title,omitempty" bson:"title,omitempty"`
	AuthorID uint   `json:"author_id,omitempty" bson:"author_id,omitempty"`
}

// AnalyticsExtra holds where in the product the event originated
type AnalyticsExtra struct {
	Origin string `json:"origin" bson:"origin"`
	Feed   string `json:"feed" bson:"feed"`
}

// AnalyticsEvent is a single user action record, stored in MongoDB
type AnalyticsEvent struct {
	ID        string         `json:"id" bson:"_id"`
	EventName string         `json:"event_name" bson:"event_name"`
	UserID    uint           `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Post      AnalyticsPost  `json:"post" bson:"post"`
	Columns   int            `json:"columns" bson:"columns"`
	Column    int            `json:"column" bson:"column"`
	Row       int            `json:"row" bson:"row"`
	Extra     AnalyticsExtra `json:"extra" bson:"extra"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}
