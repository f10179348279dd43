package models

// BookmarkRequest defines the request body for toggling a bookmark on a feed item
type BookmarkRequest struct {
	Row        int   `json:"row" validate:"min=0"`
	Column     int   `json:"column" validate:"min=0"`
	Bookmarked *bool `json:"bookmarked" validate:"required"`
}

// UpvoteRequest defines the request body for toggling an upvote on a feed item
type UpvoteRequest struct {
	Row     int   `json:"row" validate:"min=0"`
	Column  int   `json:"column" validate:"min=0"`
	Upvoted *bool `json:"upvoted" validate:"required"`
}

// LoginPrompt tells the client to open the login flow instead of performing an action
type LoginPrompt struct {
	Origin  string `json:"origin"`
	Display string `json:"display"`
}
