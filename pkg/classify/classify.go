// Package classify tags memory text with a kind and categories using an
// ordered list of phrase rules.
package classify

import (
	"slices"
	"strings"
	"unicode"

	"github.com/papercomputeco/sassy/pkg/storage"
)

// Rule maps a set of phrases to a kind and a category.
type Rule struct {
	Name     string
	Kind     string
	Category string
	Phrases  []string
}

// Result is the outcome of classifying one text.
type Result struct {
	Kind       string
	Categories []string
}

// DefaultRules is the priority ordered rule list. An explicit request to
// remember outranks the facts it contains; commands come last.
var DefaultRules = []Rule{
	{
		Name:     "reminder",
		Kind:     storage.KindReminder,
		Category: "reminder",
		Phrases:  []string{"recuerda que", "no olvides que", "remember that", "don't forget that", "do not forget that"},
	},
	{
		Name:     "name",
		Kind:     storage.KindPersonalFact,
		Category: "name",
		Phrases:  []string{"me llamo", "mi nombre es", "my name is", "call me"},
	},
	{
		Name:     "location",
		Kind:     storage.KindPersonalFact,
		Category: "location",
		Phrases:  []string{"vivo en", "soy de", "mi ciudad", "mi país", "mi pais", "i live in", "i'm from", "i am from", "my city"},
	},
	{
		Name:     "birthday",
		Kind:     storage.KindPersonalFact,
		Category: "birthday",
		Phrases:  []string{"cumpleaños", "cumpleanos", "nací", "naci", "fecha de nacimiento", "my birthday", "i was born", "date of birth"},
	},
	{
		Name:     "preference",
		Kind:     storage.KindPreference,
		Category: "likes",
		Phrases:  []string{"me gusta", "me gustan", "prefiero", "odio", "amo", "favorito", "favorita", "i like", "i prefer", "i hate", "i love", "favorite", "favourite"},
	},
	{
		Name:     "command",
		Kind:     storage.KindCommand,
		Category: "command",
		Phrases:  []string{"comando", "ejecuta", "abre", "cierra", "run", "open", "close", "execute"},
	},
}

// Classifier evaluates rules in order. The first matching rule decides the
// kind; every matching rule contributes its category.
type Classifier struct {
	rules []compiledRule
}

type compiledRule struct {
	Rule
	needles []string
}

// New compiles rules. A nil slice uses DefaultRules.
func New(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules
	}

	c := &Classifier{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		cr := compiledRule{Rule: r}
		for _, p := range r.Phrases {
			if n := normalize(p); strings.TrimSpace(n) != "" {
				cr.needles = append(cr.needles, n)
			}
		}
		c.rules = append(c.rules, cr)
	}
	return c
}

// Classify tags text. When no rule matches the kind is defaultKind and the
// category list is empty.
func (c *Classifier) Classify(text, defaultKind string) Result {
	res := Result{Kind: defaultKind, Categories: []string{}}
	haystack := normalize(text)

	matched := false
	for _, r := range c.rules {
		if !r.matches(haystack) {
			continue
		}
		if !matched {
			res.Kind = r.Kind
			matched = true
		}
		if r.Category != "" && !slices.Contains(res.Categories, r.Category) {
			res.Categories = append(res.Categories, r.Category)
		}
	}
	return res
}

func (r compiledRule) matches(haystack string) bool {
	for _, n := range r.needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// normalize lower-cases s, drops apostrophes, turns every other rune that is
// not a letter or digit into a single space and pads both ends, so phrases
// only match on word boundaries.
func normalize(s string) string {
	var b strings.Builder
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r == '\'' || r == '’':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		case !space:
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}
