package store

import (
	"context"
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"

	"go.klb.dev/clipkeep/internal/item"
)

// foldFunc is the SQL name of a Unicode-aware LOWER. The built-in LOWER only
// folds ASCII, which would never match a query lowered with strings.ToLower.
const foldFunc = "clipkeep_fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, fold)
}

func fold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	}
	return args[0], nil
}

// Query prefixes recognised by Search.
const (
	prefixTag  = "tag:"
	prefixHash = "#"
	prefixType = "type:"
)

// Search runs query against stored items with the List ordering.
//
//	tag:<name> or #<name>  case-insensitive exact match on any tag
//	type:<kind>            content type filter (plain|text, rich|html, image, file|files)
//	anything else          case-insensitive substring of preview text or content
//
// An empty query behaves like List. An unknown type yields no results.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]item.ClipItem, error) {
	q := strings.TrimSpace(query)
	lower := strings.ToLower(q)

	var (
		where string
		args  []any
	)
	switch {
	case q == "":
	case strings.HasPrefix(lower, prefixTag):
		where, args = tagFilter(strings.TrimSpace(lower[len(prefixTag):]))
	case strings.HasPrefix(lower, prefixHash):
		where, args = tagFilter(strings.TrimSpace(lower[len(prefixHash):]))
	case strings.HasPrefix(lower, prefixType):
		ct, ok := item.ParseContentType(lower[len(prefixType):])
		if !ok {
			return []item.ClipItem{}, nil
		}
		where, args = `content_type = ?`, []any{string(ct)}
	default:
		pattern := "%" + escapeLike(lower) + "%"
		where = `(` + foldFunc + `(preview_text) LIKE ? ESCAPE '\' OR ` + foldFunc + `(content) LIKE ? ESCAPE '\')`
		args = []any{pattern, pattern}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(ctx, where, args, limit, 0)
}

func tagFilter(tag string) (string, []any) {
	return `EXISTS (SELECT 1 FROM json_each(clip_items.tags) WHERE ` + foldFunc + `(json_each.value) = ?)`, []any{tag}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern using '\' as the
// escape character.
func escapeLike(s string) string { return likeEscaper.Replace(s) }
