package schema

import (
	"sort"

	"niftydash/internal/domain"
)

// Selection is a set of indicator ids. Methods that change it return a new
// value; the receiver is never modified.
type Selection struct {
	ids map[string]bool
}

// NewSelection returns a selection holding ids.
func NewSelection(ids ...string) Selection {
	s := Selection{ids: make(map[string]bool, len(ids))}
	for _, id := range ids {
		s.ids[id] = true
	}
	return s
}

func (s Selection) Has(id string) bool { return s.ids[id] }
func (s Selection) Len() int { return len(s.ids) }

// Toggle returns a copy with id added or removed.
func (s Selection) Toggle(id string) Selection {
	out := Selection{ids: make(map[string]bool, len(s.ids)+1)}
	for k := range s.ids {
		out.ids[k] = true
	}
	if out.ids[id] {
		delete(out.ids, id)
	} else {
		out.ids[id] = true
	}
	return out
}

// Ordered returns the selected ids in the order the visible checkboxes for
// tf are listed. Ids that are not visible are appended in lexical order.
func (s Selection) Ordered(c Catalogue, tf domain.Timeframe) []string {
	if len(s.ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(s.ids))
	placed := make(map[string]bool, len(s.ids))
	for _, ind := range c.VisibleIndicators(tf) {
		if s.ids[ind.ID] {
			out = append(out, ind.ID)
			placed[ind.ID] = true
		}
	}
	var rest []string
	for id := range s.ids {
		if !placed[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
