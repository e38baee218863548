package entry

import (
	"sort"
	"strings"

	"github.com/frahmantamala/pennytrack/internal/core/date"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/shopspring/decimal"
)

// Predicate selects entries in Store.Query.
type Predicate func(*Entry) bool

func matchAll(e *Entry, preds []Predicate) bool {
	for _, p := range preds {
		if p != nil && !p(e) {
			return false
		}
	}
	return true
}

func OfKind(k Kind) Predicate {
	return func(e *Entry) bool { return e.Kind == k }
}

func Expenses() Predicate { return OfKind(KindExpense) }

// InCategory matches the category exactly, case included.
func InCategory(category string) Predicate {
	return func(e *Entry) bool { return e.Category == category }
}

// CategoryFold matches the category ignoring case.
func CategoryFold(category string) Predicate {
	return func(e *Entry) bool { return strings.EqualFold(e.Category, category) }
}

func InMonth(m date.Month) Predicate {
	return func(e *Entry) bool { return m.Contains(e.Date) }
}

// Between matches dates in [from, to]. A zero bound is open.
func Between(from, to date.Date) Predicate {
	return func(e *Entry) bool { return e.Date.Within(from, to) }
}

// AmountBetween matches amounts in [min, max]. A nil bound is open.
func AmountBetween(min, max *decimal.Decimal) Predicate {
	return func(e *Entry) bool {
		if min != nil && e.Amount.LessThan(*min) {
			return false
		}
		if max != nil && e.Amount.GreaterThan(*max) {
			return false
		}
		return true
	}
}

// NoteContains matches a case-insensitive substring of the note.
func NoteContains(keyword string) Predicate {
	keyword = strings.ToLower(keyword)
	return func(e *Entry) bool { return strings.Contains(strings.ToLower(e.Note), keyword) }
}

// NoteMatches matches when the characters of term appear in order in the
// note or category, ignoring case ("cofe" matches "Coffee beans").
func NoteMatches(term string) Predicate {
	return func(e *Entry) bool {
		return fuzzy.MatchFold(term, e.Note) || fuzzy.MatchFold(term, e.Category)
	}
}

// SuggestCategory ranks known categories by fuzzy closeness to input.
func SuggestCategory(input string, known []string) []string {
	ranks := fuzzy.RankFindFold(input, known)
	sort.Sort(ranks)
	out := make([]string, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, r.Target)
	}
	return out
}
