package models

// PostEdge wraps a post inside a paginated collection
type PostEdge struct {
	Node FeedPost `json:"node"`
}

// PageInfo describes the position of a fetched page
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor,omitempty"`
}

// PostPage is one fetched page of a post collection
type PostPage struct {
	Edges    []PostEdge `json:"edges"`
	PageInfo PageInfo   `json:"page_info"`
}

// PostConnection is a paginated collection of posts as held by the query cache,
// e.g. a user's bookmarks.
type PostConnection struct {
	Pages []PostPage `json:"pages"`
}

// Clone returns a deep copy so cached entries are never shared with callers
func (c PostConnection) Clone() PostConnection {
	pages := make([]PostPage, len(c.Pages))
	for i, p := range c.Pages {
		edges := make([]PostEdge, len(p.Edges))
		copy(edges, p.Edges)
		pages[i] = PostPage{Edges: edges, PageInfo: p.PageInfo}
	}
	return PostConnection{Pages: pages}
}

// Count returns how many edges of the first page hold the given post
func (c PostConnection) Count(postID string) int {
	if len(c.Pages) == 0 {
		return 0
	}
	n := 0
	for _, e := range c.Pages[0].Edges {
		if e.Node.ID == postID {
			n++
		}
	}
	return n
}
