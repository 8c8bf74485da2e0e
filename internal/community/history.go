package community

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ppiankov/safelink/internal/model"
	"github.com/ppiankov/safelink/internal/rank"
	"github.com/ppiankov/safelink/internal/store"
	"github.com/ppiankov/safelink/internal/urlnorm"
)

// SaveResult writes r to the history log. Community fields are not part of
// the record; they are joined in from link state on read.
func (s *Service) SaveResult(ctx context.Context, r model.ScanResult) error {
	r = r.Clone()
	r.Likes, r.Dislikes, r.Comments = 0, 0, nil
	if err := store.PutJSON(ctx, s.store, store.HistoryPath(r.ID), r); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// Result loads one result with its community state
func (s *Service) Result(ctx context.Context, id, viewerID string) (model.ScanResult, error) {
	var r model.ScanResult
	if err := store.GetJSON(ctx, s.store, store.HistoryPath(id), &r); err != nil {
		return r, err
	}

	return withLink(r, s.linkOrEmpty(ctx, r.URL, viewerID)), nil
}

// History returns every stored result joined with its link's community
// state and ordered for view.
func (s *Service) History(ctx context.Context, view rank.View, viewerID string) ([]model.ScanResult, error) {
	entries, err := s.store.List(ctx, store.HistoryRoot)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	links := make(map[string]Link)
	results := make([]model.ScanResult, 0, len(entries))
	for _, e := range entries {
		var r model.ScanResult
		if err := decode(e.Value, &r); err != nil {
			continue
		}

		key := urlnorm.StorageKey(r.URL)
		link, ok := links[key]
		if !ok {
			link = s.linkOrEmpty(ctx, r.URL, viewerID)
			links[key] = link
		}

		results = append(results, withLink(r, link))
	}

	rank.Sort(results, view)
	return results, nil
}

// linkOrEmpty loads rawURL's link state. A read failure is reported as a
// warning and yields empty state, so one bad record never hides the rest.
func (s *Service) linkOrEmpty(ctx context.Context, rawURL, viewerID string) Link {
	link, err := s.Link(ctx, rawURL, viewerID)
	if err != nil {
		_, _ = fmt.Fprintf(s.warn, "Warning: community state unavailable for %s: %v\n", rawURL, err)
		return Link{
			Key:      urlnorm.StorageKey(rawURL),
			URL:      urlnorm.Canonical(rawURL),
			Comments: []model.Comment{},
		}
	}
	return link
}

func withLink(r model.ScanResult, link Link) model.ScanResult {
	r.Likes = link.Likes
	r.Dislikes = link.Dislikes
	r.Reaction = link.Reaction
	r.Comments = link.Comments
	return r
}

func decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
