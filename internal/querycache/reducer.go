package querycache

import "github.com/anonto42/nano-midea/feedgate/internal/models"

// Action is a state transition applied to a cached post collection
type Action interface {
	reduce(state models.PostConnection) (models.PostConnection, bool)
}

// AddEdge appends the post to the first page unless a record with its ID is already there
type AddEdge struct {
	Post models.FeedPost
}

// RemoveEdges drops every record of the post from the first page
type RemoveEdges struct {
	PostID string
}

// Reduce applies the action to a copy of state. The bool reports whether anything changed;
// when it is false the returned value is state itself.
func Reduce(state models.PostConnection, action Action) (models.PostConnection, bool) {
	if len(state.Pages) == 0 {
		return state, false
	}
	return action.reduce(state)
}

func (a AddEdge) reduce(state models.PostConnection) (models.PostConnection, bool) {
	if state.Count(a.Post.ID) > 0 {
		return state, false
	}
	next := state.Clone()
	next.Pages[0].Edges = append(next.Pages[0].Edges, models.PostEdge{Node: a.Post})
	return next, true
}

func (a RemoveEdges) reduce(state models.PostConnection) (models.PostConnection, bool) {
	if state.Count(a.PostID) == 0 {
		return state, false
	}
	next := state.Clone()
	kept := next.Pages[0].Edges[:0]
	for _, e := range next.Pages[0].Edges {
		if e.Node.ID != a.PostID {
			kept = append(kept, e)
		}
	}
	next.Pages[0].Edges = kept
	return next, true
}

// Inverse returns the action that undoes a change made by action. Removing several duplicate
// records is undone by a single re-add, which keeps the first page free of duplicates.
func Inverse(action Action, post models.FeedPost) Action {
	switch action.(type) {
	case AddEdge:
		return RemoveEdges{PostID: post.ID}
	default:
		return AddEdge{Post: post}
	}
}
