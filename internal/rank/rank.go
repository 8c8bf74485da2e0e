// Package rank orders scan results for display.
package rank

import (
	"sort"

	"github.com/ppiankov/safelink/internal/model"
)

// View names a ranking variant
type View string

const (
	ViewPrimary   View = "primary"
	ViewCommunity View = "community"
)

// ParseView maps a user-supplied view name to a View (primary by default)
func ParseView(s string) View {
	if View(s) == ViewCommunity {
		return ViewCommunity
	}
	return ViewPrimary
}

// Sort orders results in place for the given view
func Sort(results []model.ScanResult, view View) {
	if view == ViewCommunity {
		SortCommunity(results)
		return
	}
	SortPrimary(results)
}

// SortPrimary orders riskiest first, then most disliked, then newest.
// ID breaks exact ties so the order is total.
func SortPrimary(results []model.ScanResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if sa, sb := a.Tier.Severity(), b.Tier.Severity(); sa != sb {
			return sa < sb
		}
		if a.Dislikes != b.Dislikes {
			return a.Dislikes > b.Dislikes
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID < b.ID
	})
}

// SortCommunity is SortPrimary with likes (descending) consulted before time
func SortCommunity(results []model.ScanResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if sa, sb := a.Tier.Severity(), b.Tier.Severity(); sa != sb {
			return sa < sb
		}
		if a.Dislikes != b.Dislikes {
			return a.Dislikes > b.Dislikes
		}
		if a.Likes != b.Likes {
			return a.Likes > b.Likes
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID < b.ID
	})
}
