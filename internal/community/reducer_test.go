package community

import (
	"testing"
	"time"

	"github.com/ppiankov/safelink/internal/model"
	"github.com/ppiankov/safelink/internal/reconcile"
	"github.com/ppiankov/safelink/internal/reputation"
	"github.com/ppiankov/safelink/internal/score"
)

func scanned(id, url string, safety int) model.ScanResult {
	r := model.ScanResult{ID: id, URL: url, Safety: safety, Timestamp: time.Unix(1700000000, 0)}
	score.ApplyTier(&r)
	return r
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	s0 := NewState()
	s1 := Reduce(s0, Scanned{Result: scanned("a", "https://example.com", 5)})
	if len(s0.Entries) != 0 {
		t.Fatal("Scanned mutated the input state")
	}

	s2 := Reduce(s1, Reacted{ID: "a", Reaction: model.ReactionLike})
	if s1.Entries["a"].Result.Likes != 0 {
		t.Error("Reacted mutated the input state")
	}
	if s2.Entries["a"].Result.Likes != 1 {
		t.Errorf("likes = %d, want 1", s2.Entries["a"].Result.Likes)
	}
}

func TestReduce_ReactedToggles(t *testing.T) {
	s := Reduce(NewState(), Scanned{Result: scanned("a", "https://example.com", 5)})

	steps := []struct {
		reaction model.Reaction
		likes    int
		dislikes int
		want     model.Reaction
	}{
		{model.ReactionLike, 1, 0, model.ReactionLike},
		{model.ReactionDislike, 0, 1, model.ReactionDislike},
		{model.ReactionDislike, 0, 0, model.ReactionNone},
	}
	for i, step := range steps {
		s = Reduce(s, Reacted{ID: "a", Reaction: step.reaction})
		r := s.Entries["a"].Result
		if r.Likes != step.likes || r.Dislikes != step.dislikes || r.Reaction != step.want {
			t.Errorf("step %d: likes=%d dislikes=%d reaction=%q", i, r.Likes, r.Dislikes, r.Reaction)
		}
	}
}

func TestReduce_ReconciledIsSingleShot(t *testing.T) {
	r := scanned("a", "https://example.com", 5)
	s := Reduce(NewState(), Scanned{Result: r})
	s = Reduce(s, Reacted{ID: "a", Reaction: model.ReactionDislike})

	// Not yet reconciled: ignored
	if got := Reduce(s, Reconciled{Result: r}); got.Entries["a"].Result.APICheck != nil {
		t.Error("unreconciled result should be ignored")
	}

	done := reconcile.Apply(r, &reputation.Verdict{FinalVerdict: "malicious"}, nil)
	s = Reduce(s, Reconciled{Result: done})
	got := s.Entries["a"].Result
	if got.Safety != 1 || got.Tier != model.TierHighRisk {
		t.Errorf("reconciled result = %d %s", got.Safety, got.Tier)
	}
	if got.Dislikes != 1 {
		t.Error("community fields must survive reconciliation")
	}

	again := reconcile.Apply(scanned("a", "https://example.com", 5), &reputation.Verdict{FinalVerdict: "clean", Summary: "later"}, nil)
	s = Reduce(s, Reconciled{Result: again})
	if s.Entries["a"].Result.Safety != 1 {
		t.Error("second reconciliation must be ignored")
	}
}

func TestReduce_DraftImagesAndComment(t *testing.T) {
	s := Reduce(NewState(), Scanned{Result: scanned("a", "https://example.com", 8)})
	s = Reduce(s, DraftChanged{ID: "a", Text: "be careful"})
	s = Reduce(s, ImagesStaged{ID: "a", Images: []string{"img1"}})

	e := s.Entries["a"]
	if e.Draft != "be careful" || len(e.PendingImages) != 1 {
		t.Fatalf("entry = %+v", e)
	}

	s = Reduce(s, Commented{ID: "a", Comment: model.Comment{ID: "c1", Text: "be careful"}})
	e = s.Entries["a"]
	if e.Draft != "" || e.PendingImages != nil {
		t.Error("Commented should clear draft and pending images")
	}
	if len(e.Result.Comments) != 1 {
		t.Errorf("comments = %d", len(e.Result.Comments))
	}
}

func TestReduce_RemoteChangedMergePolicy(t *testing.T) {
	s := NewState()
	s = Reduce(s, Scanned{Result: scanned("a", "https://example.com/login", 5)})
	s = Reduce(s, Scanned{Result: scanned("b", "http://EXAMPLE.com/login/", 5)})
	s = Reduce(s, Scanned{Result: scanned("c", "https://other.com", 5)})
	s = Reduce(s, Reacted{ID: "a", Reaction: model.ReactionLike})
	s = Reduce(s, DraftChanged{ID: "a", Text: "typing..."})
	s = Reduce(s, ImagesStaged{ID: "a", Images: []string{"pending"}})

	remote := Link{
		Key:      "example_com_login",
		Likes:    7,
		Dislikes: 2,
		Comments: []model.Comment{{ID: "r1", Text: "remote"}},
	}

	// No per-viewer record: local reaction is kept
	merged := Reduce(s, RemoteChanged{Link: remote})
	a := merged.Entries["a"]
	if a.Result.Likes != 7 || a.Result.Dislikes != 2 || len(a.Result.Comments) != 1 {
		t.Errorf("remote should win for counters and comments: %+v", a.Result)
	}
	if a.Draft != "typing..." || len(a.PendingImages) != 1 {
		t.Error("local should win for draft and pending images")
	}
	if a.Result.Reaction != model.ReactionLike {
		t.Errorf("reaction = %q, want local like", a.Result.Reaction)
	}
	if merged.Entries["b"].Result.Likes != 7 {
		t.Error("every result for the same key should merge")
	}
	if merged.Entries["c"].Result.Likes != 0 {
		t.Error("other keys must not change")
	}

	// Per-viewer record present: it wins
	none := model.ReactionNone
	merged = Reduce(s, RemoteChanged{Link: remote, ViewerReaction: &none})
	if merged.Entries["a"].Result.Reaction != model.ReactionNone {
		t.Error("remote per-viewer reaction should win when present")
	}
}

func TestReduce_UnknownIDIsNoop(t *testing.T) {
	s := Reduce(NewState(), Scanned{Result: scanned("a", "https://example.com", 5)})
	for _, ev := range []Event{
		Reacted{ID: "zzz", Reaction: model.ReactionLike},
		DraftChanged{ID: "zzz", Text: "x"},
		ImagesStaged{ID: "zzz"},
		Commented{ID: "zzz"},
	} {
		if got := Reduce(s, ev); len(got.Entries) != 1 {
			t.Errorf("%T added an entry", ev)
		}
	}
}
