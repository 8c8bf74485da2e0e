// Package community holds shared per-link state (reactions and comments),
// the scan history log, and the reducers that fold both into a viewer's
// local state.
package community

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ppiankov/safelink/internal/attach"
	"github.com/ppiankov/safelink/internal/model"
	"github.com/ppiankov/safelink/internal/store"
	"github.com/ppiankov/safelink/internal/urlnorm"
)

// MaxCommentLength is the longest accepted comment, in runes
const MaxCommentLength = 1000

var (
	ErrEmptyComment  = errors.New("comment text is empty")
	ErrLongComment   = errors.New("comment text is too long")
	ErrMissingViewer = errors.New("viewer id is required")
	ErrBadReaction   = errors.New("reaction must be like or dislike")
)

// LinkRecord is the stored community state for a canonical key.
// UserReaction is the last reaction written by anyone; it is kept for
// layout compatibility and never read back.
type LinkRecord struct {
	Likes        int            `json:"likes"`
	Dislikes     int            `json:"dislikes"`
	UserReaction model.Reaction `json:"userReaction,omitempty"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// Link is community state as seen by one viewer
type Link struct {
	Key      string          `json:"key"`
	URL      string          `json:"url"`
	Likes    int             `json:"likes"`
	Dislikes int             `json:"dislikes"`
	Reaction model.Reaction  `json:"reaction,omitempty"` // The viewer's own reaction
	Comments []model.Comment `json:"comments"`
}

// NewComment is the input for AddComment
type NewComment struct {
	UserID string
	Text   string
	Images []string // Data URIs from attach.Encode
}

// Service reads and writes community state through a Store
type Service struct {
	store store.Store
	now   func() time.Time
	newID func() string
	warn  io.Writer
}

// NewService creates a community service over s
func NewService(s store.Store) *Service {
	return &Service{
		store: s,
		now:   time.Now,
		newID: uuid.NewString,
		warn:  os.Stderr,
	}
}

// SetWarnings redirects warnings about unreadable link state (stderr by default)
func (s *Service) SetWarnings(w io.Writer) {
	if w != nil {
		s.warn = w
	}
}

// Link loads the community state for rawURL as seen by viewerID
func (s *Service) Link(ctx context.Context, rawURL, viewerID string) (Link, error) {
	key := urlnorm.StorageKey(rawURL)
	link := Link{
		Key:      key,
		URL:      urlnorm.Canonical(rawURL),
		Comments: []model.Comment{},
	}

	var record LinkRecord
	err := store.GetJSON(ctx, s.store, store.LinkPath(key), &record)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return link, fmt.Errorf("load link: %w", err)
	}
	link.Likes = record.Likes
	link.Dislikes = record.Dislikes

	if viewerID != "" {
		reaction, err := s.viewerReaction(ctx, key, viewerID)
		if err != nil {
			return link, err
		}
		link.Reaction = reaction
	}

	comments, err := s.comments(ctx, key)
	if err != nil {
		return link, err
	}
	link.Comments = comments

	return link, nil
}

func (s *Service) viewerReaction(ctx context.Context, key, viewerID string) (model.Reaction, error) {
	var reaction model.Reaction
	err := store.GetJSON(ctx, s.store, store.Join(store.ReactionsPath(key), viewerID), &reaction)
	if errors.Is(err, store.ErrNotFound) {
		return model.ReactionNone, nil
	}
	if err != nil {
		return model.ReactionNone, fmt.Errorf("load reaction: %w", err)
	}
	return reaction, nil
}

func (s *Service) comments(ctx context.Context, key string) ([]model.Comment, error) {
	entries, err := s.store.List(ctx, store.CommentsPath(key))
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}

	comments := make([]model.Comment, 0, len(entries))
	for _, e := range entries {
		var c model.Comment
		if err := decode(e.Value, &c); err != nil {
			// Skip unreadable comments rather than hide the whole thread
			continue
		}
		comments = append(comments, c)
	}
	return comments, nil
}

// React sets viewerID's reaction on rawURL. Reacting again with the current
// reaction clears it. Counters are recomputed from every viewer's reaction.
func (s *Service) React(ctx context.Context, rawURL, viewerID string, reaction model.Reaction) (Link, error) {
	viewerID = strings.TrimSpace(viewerID)
	if viewerID == "" || strings.Contains(viewerID, "/") {
		return Link{}, ErrMissingViewer
	}
	if reaction != model.ReactionLike && reaction != model.ReactionDislike {
		return Link{}, ErrBadReaction
	}

	key := urlnorm.StorageKey(rawURL)
	current, err := s.viewerReaction(ctx, key, viewerID)
	if err != nil {
		return Link{}, err
	}

	next := reaction
	if current == reaction {
		next = model.ReactionNone
	}

	if err := store.PutJSON(ctx, s.store, store.Join(store.ReactionsPath(key), viewerID), next); err != nil {
		return Link{}, fmt.Errorf("save reaction: %w", err)
	}

	likes, dislikes, err := s.countReactions(ctx, key)
	if err != nil {
		return Link{}, err
	}

	record := LinkRecord{
		Likes:        likes,
		Dislikes:     dislikes,
		UserReaction: next,
		UpdatedAt:    s.now().UTC(),
	}
	if err := store.PutJSON(ctx, s.store, store.LinkPath(key), record); err != nil {
		return Link{}, fmt.Errorf("save link: %w", err)
	}

	return s.Link(ctx, rawURL, viewerID)
}

func (s *Service) countReactions(ctx context.Context, key string) (int, int, error) {
	entries, err := s.store.List(ctx, store.ReactionsPath(key))
	if err != nil {
		return 0, 0, fmt.Errorf("load reactions: %w", err)
	}

	likes, dislikes := 0, 0
	for _, e := range entries {
		var r model.Reaction
		if err := decode(e.Value, &r); err != nil {
			continue
		}
		switch r {
		case model.ReactionLike:
			likes++
		case model.ReactionDislike:
			dislikes++
		}
	}
	return likes, dislikes, nil
}

// AddComment validates and appends a comment to rawURL's thread
func (s *Service) AddComment(ctx context.Context, rawURL string, in NewComment) (model.Comment, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" && len(in.Images) == 0 {
		return model.Comment{}, ErrEmptyComment
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return model.Comment{}, fmt.Errorf("%w: max %d characters", ErrLongComment, MaxCommentLength)
	}
	if err := attach.Validate(in.Images); err != nil {
		return model.Comment{}, err
	}

	comment := model.Comment{
		ID:        s.newID(),
		Text:      text,
		Timestamp: s.now().UTC(),
		UserID:    strings.TrimSpace(in.UserID),
		Images:    in.Images,
	}

	key := urlnorm.StorageKey(rawURL)
	if _, err := store.AppendJSON(ctx, s.store, store.CommentsPath(key), comment); err != nil {
		return model.Comment{}, fmt.Errorf("save comment: %w", err)
	}

	return comment, nil
}

// Watch streams viewerID's view of rawURL's community state each time it
// changes, until ctx is done.
func (s *Service) Watch(ctx context.Context, rawURL, viewerID string) (<-chan Link, error) {
	key := urlnorm.StorageKey(rawURL)
	changes, err := s.store.Subscribe(ctx, store.LinkPath(key))
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan Link, 1)
	go func() {
		defer close(out)
		for range changes {
			link, err := s.Link(ctx, rawURL, viewerID)
			if err != nil {
				continue
			}
			select {
			case out <- link:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
