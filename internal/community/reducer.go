package community

import (
	"github.com/ppiankov/safelink/internal/model"
	"github.com/ppiankov/safelink/internal/reconcile"
	"github.com/ppiankov/safelink/internal/urlnorm"
)

// Entry is one result in a viewer's local state plus its unsent input
type Entry struct {
	Result        model.ScanResult
	Draft         string
	PendingImages []string
}

// State is a viewer's local state keyed by result id. Reduce never mutates
// a State; treat it as a value.
type State struct {
	Entries map[string]Entry
}

// NewState returns an empty state
func NewState() State {
	return State{Entries: map[string]Entry{}}
}

// Results returns the results in state (unordered)
func (s State) Results() []model.ScanResult {
	out := make([]model.ScanResult, 0, len(s.Entries))
	for _, e := range s.Entries {
		out = append(out, e.Result)
	}
	return out
}

// Event is an input to Reduce
type Event interface{ event() }

// Scanned adds a freshly scored result
type Scanned struct{ Result model.ScanResult }

// Reconciled replaces a result with its reconciled version
type Reconciled struct{ Result model.ScanResult }

// Reacted applies the viewer's reaction optimistically
type Reacted struct {
	ID       string
	Reaction model.Reaction
}

// Commented appends the viewer's comment and clears their input
type Commented struct {
	ID      string
	Comment model.Comment
}

// DraftChanged updates unsent comment text
type DraftChanged struct {
	ID   string
	Text string
}

// ImagesStaged replaces the pending attachments
type ImagesStaged struct {
	ID     string
	Images []string
}

// RemoteChanged carries link state pushed from the store. ViewerReaction is
// nil when the store has no reaction on record for this viewer.
type RemoteChanged struct {
	Link           Link
	ViewerReaction *model.Reaction
}

func (Scanned) event()       {}
func (Reconciled) event()    {}
func (Reacted) event()       {}
func (Commented) event()     {}
func (DraftChanged) event()  {}
func (ImagesStaged) event()  {}
func (RemoteChanged) event() {}

// Reduce returns the state that results from applying ev to s.
//
// RemoteChanged merges per field: the store wins for counters and comments,
// local input wins for draft text and pending images, and the viewer's
// reaction comes from the store when it has one.
func Reduce(s State, ev Event) State {
	next := s.copy()

	switch e := ev.(type) {
	case Scanned:
		next.Entries[e.Result.ID] = Entry{Result: e.Result.Clone()}

	case Reconciled:
		entry, ok := next.Entries[e.Result.ID]
		if !ok || reconcile.Done(entry.Result) || !reconcile.Done(e.Result) {
			return s
		}
		updated := e.Result.Clone()
		updated.Likes = entry.Result.Likes
		updated.Dislikes = entry.Result.Dislikes
		updated.Reaction = entry.Result.Reaction
		updated.Comments = entry.Result.Comments
		entry.Result = updated
		next.Entries[e.Result.ID] = entry

	case Reacted:
		entry, ok := next.Entries[e.ID]
		if !ok || !e.Reaction.Valid() {
			return s
		}
		entry.Result = toggleReaction(entry.Result, e.Reaction)
		next.Entries[e.ID] = entry

	case Commented:
		entry, ok := next.Entries[e.ID]
		if !ok {
			return s
		}
		entry.Result.Comments = append(append([]model.Comment(nil), entry.Result.Comments...), e.Comment)
		entry.Draft = ""
		entry.PendingImages = nil
		next.Entries[e.ID] = entry

	case DraftChanged:
		entry, ok := next.Entries[e.ID]
		if !ok {
			return s
		}
		entry.Draft = e.Text
		next.Entries[e.ID] = entry

	case ImagesStaged:
		entry, ok := next.Entries[e.ID]
		if !ok {
			return s
		}
		entry.PendingImages = append([]string(nil), e.Images...)
		next.Entries[e.ID] = entry

	case RemoteChanged:
		for id, entry := range next.Entries {
			if urlnorm.StorageKey(entry.Result.URL) != e.Link.Key {
				continue
			}
			entry.Result.Likes = e.Link.Likes
			entry.Result.Dislikes = e.Link.Dislikes
			entry.Result.Comments = append([]model.Comment(nil), e.Link.Comments...)
			if e.ViewerReaction != nil {
				entry.Result.Reaction = *e.ViewerReaction
			}
			next.Entries[id] = entry
		}

	default:
		return s
	}

	return next
}

// toggleReaction mirrors Service.React locally: the same reaction twice clears it
func toggleReaction(r model.ScanResult, reaction model.Reaction) model.ScanResult {
	switch r.Reaction {
	case model.ReactionLike:
		r.Likes = max(0, r.Likes-1)
	case model.ReactionDislike:
		r.Dislikes = max(0, r.Dislikes-1)
	}

	if r.Reaction == reaction {
		r.Reaction = model.ReactionNone
		return r
	}

	r.Reaction = reaction
	switch reaction {
	case model.ReactionLike:
		r.Likes++
	case model.ReactionDislike:
		r.Dislikes++
	}
	return r
}

func (s State) copy() State {
	next := State{Entries: make(map[string]Entry, len(s.Entries))}
	for id, e := range s.Entries {
		next.Entries[id] = e
	}
	return next
}
