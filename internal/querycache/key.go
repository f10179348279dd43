package querycache

import "fmt"

// CollectionBookmarks names the per-user bookmarks collection
const CollectionBookmarks = "bookmarks"

// Key addresses one cached collection
type Key struct {
	Collection string
	UserID     string
}

// BookmarksKey is the key of a user's bookmarks list
func BookmarksKey(userID string) Key {
	return Key{Collection: CollectionBookmarks, UserID: userID}
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Collection, k.UserID)
}
