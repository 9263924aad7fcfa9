package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// MaxTagSuggestions caps SearchTags results.
const MaxTagSuggestions = 10

// AllTags returns every distinct tag, original case preserved, sorted
// case-insensitively.
func (s *Store) AllTags(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw []string
	if err := s.db.SelectContext(ctx, &raw, `SELECT tags FROM clip_items WHERE tags <> '[]'`); err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range raw {
		var tags []string
		if err := json.Unmarshal([]byte(r), &tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
		for _, t := range tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i]), strings.ToLower(out[j])
		if li != lj {
			return li < lj
		}
		return out[i] < out[j]
	})
	return out, nil
}

// SearchTags returns up to MaxTagSuggestions tags containing query,
// case-insensitively.
func (s *Store) SearchTags(ctx context.Context, query string) ([]string, error) {
	all, err := s.AllTags(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := []string{}
	for _, t := range all {
		if strings.Contains(strings.ToLower(t), q) {
			out = append(out, t)
			if len(out) == MaxTagSuggestions {
				break
			}
		}
	}
	return out, nil
}
