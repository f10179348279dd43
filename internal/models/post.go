package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a feed post stored in MongoDB
type Post struct {
	ID                primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID            uint               `json:"user_id" bson:"user_id"` // author, Postgres user ID
	Title             string             `json:"title" bson:"title"`
	Content           string             `json:"content,omitempty" bson:"content,omitempty"`
	Image             string             `json:"image,omitempty" bson:"image,omitempty"`
	Permalink         string             `json:"permalink" bson:"permalink"`
	CommentsPermalink string             `json:"comments_permalink,omitempty" bson:"comments_permalink,omitempty"`
	ReadTime          int                `json:"read_time,omitempty" bson:"read_time,omitempty"` // minutes
	LikesCount        int                `json:"likes_count" bson:"likes_count"`
	CommentsCount     int                `json:"comments_count" bson:"comments_count"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
}

// FeedPost is a post as rendered in a viewer's feed, with viewer-specific flags
type FeedPost struct {
	ID                string      `json:"id"`
	Title             string      `json:"title"`
	Image             string      `json:"image,omitempty"`
	Permalink         string      `json:"permalink"`
	CommentsPermalink string      `json:"comments_permalink,omitempty"`
	ReadTime          int         `json:"read_time,omitempty"`
	Author            UserCompact `json:"author"`
	NumUpvotes        int         `json:"num_upvotes"`
	NumComments       int         `json:"num_comments"`
	Upvoted           bool        `json:"upvoted"`
	Commented         bool        `json:"commented"`
	Bookmarked        bool        `json:"bookmarked"`
	CreatedAt         time.Time   `json:"created_at"`
}

// ToFeedPost builds the feed view of a stored post. Viewer flags are left unset.
func (p Post) ToFeedPost(author UserCompact) FeedPost {
	return FeedPost{
		ID:                p.ID.Hex(),
		Title:             p.Title,
		Image:             p.Image,
		Permalink:         p.Permalink,
		CommentsPermalink: p.CommentsPermalink,
		ReadTime:          p.ReadTime,
		Author:            author,
		NumUpvotes:        p.LikesCount,
		NumComments:       p.CommentsCount,
		CreatedAt:         p.CreatedAt,
	}
}
