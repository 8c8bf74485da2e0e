package community

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/safelink/internal/attach"
	"github.com/ppiankov/safelink/internal/model"
	"github.com/ppiankov/safelink/internal/rank"
	"github.com/ppiankov/safelink/internal/score"
	"github.com/ppiankov/safelink/internal/store"
)

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	s := store.NewMemoryStore(0)
	t.Cleanup(func() { _ = s.Close() })

	svc := NewService(s)
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, s
}

func TestService_ReactCountsPerViewer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.React(ctx, "https://example.com/login", "alice", model.ReactionLike); err != nil {
		t.Fatalf("React: %v", err)
	}
	if _, err := svc.React(ctx, "example.com/login/", "bob", model.ReactionLike); err != nil {
		t.Fatalf("React: %v", err)
	}
	link, err := svc.React(ctx, "http://EXAMPLE.com/login", "carol", model.ReactionDislike)
	if err != nil {
		t.Fatalf("React: %v", err)
	}

	if link.Likes != 2 || link.Dislikes != 1 {
		t.Errorf("counts = %d/%d, want 2/1", link.Likes, link.Dislikes)
	}
	if link.Reaction != model.ReactionDislike {
		t.Errorf("carol's reaction = %q", link.Reaction)
	}

	alice, err := svc.Link(ctx, "https://example.com/login", "alice")
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if alice.Reaction != model.ReactionLike {
		t.Errorf("alice's reaction = %q, want like (per-viewer, not shared)", alice.Reaction)
	}
}

func TestService_ReactToggleAndSwitch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	url := "https://shop.example.com"

	link, _ := svc.React(ctx, url, "alice", model.ReactionLike)
	if link.Likes != 1 {
		t.Fatalf("likes = %d", link.Likes)
	}

	link, _ = svc.React(ctx, url, "alice", model.ReactionDislike)
	if link.Likes != 0 || link.Dislikes != 1 || link.Reaction != model.ReactionDislike {
		t.Errorf("after switch: %+v", link)
	}

	link, _ = svc.React(ctx, url, "alice", model.ReactionDislike)
	if link.Dislikes != 0 || link.Reaction != model.ReactionNone {
		t.Errorf("after toggle off: %+v", link)
	}
}

func TestService_ReactValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.React(ctx, "example.com", "", model.ReactionLike); !errors.Is(err, ErrMissingViewer) {
		t.Errorf("missing viewer: %v", err)
	}
	if _, err := svc.React(ctx, "example.com", "a/b", model.ReactionLike); !errors.Is(err, ErrMissingViewer) {
		t.Errorf("viewer with slash: %v", err)
	}
	if _, err := svc.React(ctx, "example.com", "alice", model.Reaction("love")); !errors.Is(err, ErrBadReaction) {
		t.Errorf("bad reaction: %v", err)
	}
}

func TestService_SharedUserReactionIgnoredOnRead(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	_, _ = svc.React(ctx, "example.com", "alice", model.ReactionLike)
	_, _ = svc.React(ctx, "example.com", "bob", model.ReactionDislike)

	var record LinkRecord
	if err := store.GetJSON(ctx, s, store.LinkPath("example_com"), &record); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if record.UserReaction != model.ReactionDislike {
		t.Errorf("shared field = %q, want last writer's reaction", record.UserReaction)
	}

	alice, _ := svc.Link(ctx, "example.com", "alice")
	if alice.Reaction != model.ReactionLike {
		t.Errorf("alice sees %q, the shared field must not leak", alice.Reaction)
	}
}

func TestService_Comments(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	url := "https://example.com/promo"

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	img, err := attach.Encode(png)
	if err != nil {
		t.Fatal(err)
	}

	first, err := svc.AddComment(ctx, url, NewComment{UserID: "u1", Text: "  looks fake  "})
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if first.Text != "looks fake" || first.ID == "" {
		t.Errorf("comment = %+v", first)
	}
	if _, err := svc.AddComment(ctx, url, NewComment{UserID: "u2", Images: []string{img}}); err != nil {
		t.Fatalf("AddComment image-only: %v", err)
	}

	link, err := svc.Link(ctx, url, "")
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if len(link.Comments) != 2 {
		t.Fatalf("comments = %d, want 2", len(link.Comments))
	}
	if link.Comments[0].UserID != "u1" || link.Comments[1].UserID != "u2" {
		t.Error("comments should be in append order")
	}
}

func TestService_CommentValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   NewComment
		want error
	}{
		{"empty", NewComment{Text: "   "}, ErrEmptyComment},
		{"too long", NewComment{Text: strings.Repeat("a", MaxCommentLength+1)}, ErrLongComment},
		{"bad image", NewComment{Text: "x", Images: []string{"data:text/plain;base64,aGk="}}, attach.ErrUnsupportedType},
		{"too many images", NewComment{Text: "x", Images: []string{"a", "b", "c", "d"}}, attach.ErrTooMany},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AddComment(ctx, "example.com", tt.in); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestService_HistoryJoinsAndRanks(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	results := []model.ScanResult{
		{ID: "safe", URL: "https://www.google.com/", Safety: 10, Timestamp: base},
		{ID: "risky", URL: "http://badsite-login.com/verify-account", Safety: 0, Timestamp: base.Add(time.Minute)},
		{ID: "careful-old", URL: "http://example.com", Safety: 6, Timestamp: base},
		{ID: "careful-new", URL: "http://example.org", Safety: 5, Timestamp: base.Add(time.Hour)},
	}
	for _, r := range results {
		score.ApplyTier(&r)
		r.Likes = 99 // never persisted
		if err := svc.SaveResult(ctx, r); err != nil {
			t.Fatalf("SaveResult: %v", err)
		}
	}
	_, _ = svc.React(ctx, "example.com", "alice", model.ReactionDislike)

	history, err := svc.History(ctx, rank.ViewPrimary, "alice")
	if err != nil {
		t.Fatalf("History: %v", err)
	}

	want := []string{"risky", "careful-old", "careful-new", "safe"}
	for i, id := range want {
		if history[i].ID != id {
			t.Fatalf("history[%d] = %s, want %s", i, history[i].ID, id)
		}
	}
	if history[1].Dislikes != 1 || history[1].Reaction != model.ReactionDislike {
		t.Errorf("careful-old community state = %d dislikes, reaction %q", history[1].Dislikes, history[1].Reaction)
	}
	if history[3].Likes != 0 {
		t.Errorf("likes = %d; stored snapshot must not be used", history[3].Likes)
	}
}

func TestService_Result(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Result(ctx, "nope", ""); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing result: %v", err)
	}

	r := model.ScanResult{ID: "r1", URL: "https://example.com", Safety: 6}
	score.ApplyTier(&r)
	_ = svc.SaveResult(ctx, r)
	_, _ = svc.AddComment(ctx, "example.com", NewComment{Text: "hello"})

	got, err := svc.Result(ctx, "r1", "")
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if len(got.Comments) != 1 || got.Tier != model.TierBeCareful {
		t.Errorf("Result = %+v", got)
	}
}

func TestService_Watch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := svc.Watch(ctx, "https://example.com/login", "bob")
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if _, err := svc.React(context.Background(), "example.com/login", "alice", model.ReactionLike); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case link := <-updates:
			if link.Likes == 1 {
				if link.Reaction != model.ReactionNone {
					t.Errorf("bob's reaction = %q", link.Reaction)
				}
				return
			}
		case <-deadline:
			t.Fatal("no update with the new like")
		}
	}
}

func TestService_LongURLOnDiskStore(t *testing.T) {
	disk, err := store.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	svc := NewService(disk)
	ctx := context.Background()

	if _, err := svc.React(ctx, "https://www.google.com/", "alice", model.ReactionLike); err != nil {
		t.Fatalf("React short: %v", err)
	}

	long := "https://example.com/" + strings.Repeat("a", 300)
	scored := score.NewScorer(nil).Score(long)
	if err := svc.SaveResult(ctx, scored); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	if _, err := svc.React(ctx, long, strings.Repeat("v", 300), model.ReactionDislike); err != nil {
		t.Fatalf("React long: %v", err)
	}
	if _, err := svc.AddComment(ctx, long, NewComment{UserID: "alice", Text: "fake login page"}); err != nil {
		t.Fatalf("AddComment long: %v", err)
	}

	history, err := svc.History(ctx, rank.ViewPrimary, "")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].Dislikes != 1 || len(history[0].Comments) != 1 {
		t.Errorf("history = %+v", history)
	}

	r, err := svc.Result(ctx, scored.ID, "")
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if r.Dislikes != 1 {
		t.Errorf("Result dislikes = %d", r.Dislikes)
	}
}

// unreadableLinks fails every read under links/ while history stays readable
type unreadableLinks struct {
	store.Store
}

func (u unreadableLinks) Get(ctx context.Context, path string) ([]byte, error) {
	if strings.HasPrefix(path, "links/") {
		return nil, errors.New("disk on fire")
	}
	return u.Store.Get(ctx, path)
}

func (u unreadableLinks) List(ctx context.Context, prefix string) ([]store.Entry, error) {
	if strings.HasPrefix(prefix, "links/") {
		return nil, errors.New("disk on fire")
	}
	return u.Store.List(ctx, prefix)
}

func TestService_HistoryDegradesOnLinkErrors(t *testing.T) {
	mem := store.NewMemoryStore(0)
	t.Cleanup(func() { _ = mem.Close() })

	svc := NewService(unreadableLinks{mem})
	var warn strings.Builder
	svc.SetWarnings(&warn)
	ctx := context.Background()

	scorer := score.NewScorer(nil)
	safe := scorer.Score("https://www.google.com/")
	risky := scorer.Score("http://badsite-login.com/verify-account")
	for _, r := range []model.ScanResult{safe, risky} {
		if err := svc.SaveResult(ctx, r); err != nil {
			t.Fatalf("SaveResult: %v", err)
		}
	}

	history, err := svc.History(ctx, rank.ViewPrimary, "")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 || history[0].ID != risky.ID {
		t.Fatalf("history = %+v", history)
	}
	if history[0].Comments == nil || history[0].Likes != 0 {
		t.Errorf("expected empty community state, got %+v", history[0])
	}

	if _, err := svc.Result(ctx, safe.ID, ""); err != nil {
		t.Errorf("Result: %v", err)
	}
	if !strings.Contains(warn.String(), "Warning: community state unavailable") {
		t.Errorf("warnings = %q", warn.String())
	}
}
