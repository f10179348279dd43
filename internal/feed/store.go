package feed

import (
	"errors"
	"fmt"
	"sync"

	"github.com/anonto42/nano-midea/feedgate/internal/models"
)

// ErrItemNotFound is returned for feed positions that hold no post
var ErrItemNotFound = errors.New("feed item not found")

// Item is a post at its position in the feed
type Item struct {
	Post  models.FeedPost `json:"post"`
	Page  int             `json:"page"`
	Index int             `json:"index"`
}

// Store holds the pages of posts rendered in one feed. Items are addressed either by
// (page, index) or by their flat position across pages.
type Store struct {
	mu    sync.RWMutex
	pages [][]models.FeedPost
}

// NewStore creates a new empty Store
func NewStore() *Store {
	return &Store{}
}

// AppendPage adds the next page and returns its number
func (s *Store) AppendPage(posts []models.FeedPost) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := make([]models.FeedPost, len(posts))
	copy(page, posts)
	s.pages = append(s.pages, page)
	return len(s.pages) - 1
}

// Pages returns how many pages are loaded
func (s *Store) Pages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}

// Len returns the number of items across all pages
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.pages {
		n += len(p)
	}
	return n
}

// Offset returns the flat position of the first item on page
func (s *Store) Offset(page int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for i := 0; i < page && i < len(s.pages); i++ {
		n += len(s.pages[i])
	}
	return n
}

// Items returns every item in feed order
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []Item
	for page, posts := range s.pages {
		for index, post := range posts {
			items = append(items, Item{Post: post, Page: page, Index: index})
		}
	}
	return items
}

// Item returns the item at flat position i
func (s *Store) Item(i int) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page, index, ok := s.locateLocked(i)
	if !ok {
		return Item{}, fmt.Errorf("%w: %d", ErrItemNotFound, i)
	}
	return Item{Post: s.pages[page][index], Page: page, Index: index}, nil
}

// UpdatePost replaces the post at (page, index)
func (s *Store) UpdatePost(page, index int, post models.FeedPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page < 0 || page >= len(s.pages) || index < 0 || index >= len(s.pages[page]) {
		return fmt.Errorf("%w: page %d index %d", ErrItemNotFound, page, index)
	}
	s.pages[page][index] = post
	return nil
}

// Update rewrites the post at flat position i with fn, returning the values before and after
func (s *Store) Update(i int, fn func(models.FeedPost) models.FeedPost) (prev, next models.FeedPost, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, index, ok := s.locateLocked(i)
	if !ok {
		return prev, next, fmt.Errorf("%w: %d", ErrItemNotFound, i)
	}
	prev = s.pages[page][index]
	next = fn(prev)
	s.pages[page][index] = next
	return prev, next, nil
}

func (s *Store) locateLocked(i int) (page, index int, ok bool) {
	if i < 0 {
		return 0, 0, false
	}
	for page, posts := range s.pages {
		if i < len(posts) {
			return page, i, true
		}
		i -= len(posts)
	}
	return 0, 0, false
}
