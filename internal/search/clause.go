package search

import (
	"fmt"
	"regexp"
	"strings"
)

// clause is one typed SQL fragment: text with :name placeholders plus the
// values bound to them. Caller values only ever travel through args, never
// through text.
type clause struct {
	text string
	args map[string]any
}

func expr(text string) clause {
	return clause{text: text}
}

func bind(text string, args map[string]any) clause {
	return clause{text: text, args: args}
}

// andGroup joins clauses as "((a) AND (b))", the uniform predicate shape
// used for both WHERE and HAVING.
func andGroup(clauses []clause) clause {
	texts := make([]string, 0, len(clauses))
	merged := map[string]any{}
	for _, c := range clauses {
		texts = append(texts, c.text)
		for k, v := range c.args {
			merged[k] = v
		}
	}
	return clause{
		text: "((" + strings.Join(texts, ") AND (") + "))",
		args: merged,
	}
}

var placeholderRe = regexp.MustCompile(`:[a-zA-Z][a-zA-Z0-9_]*`)

// render flattens the clause sequence into driver-ready SQL: every :name
// placeholder becomes a ? and its bound value is appended to the ordered
// argument list. A name used more than once has its value repeated, which
// is what the ? protocol requires.
func render(clauses []clause) (string, []any, error) {
	texts := make([]string, 0, len(clauses))
	merged := map[string]any{}
	for _, c := range clauses {
		texts = append(texts, c.text)
		for k, v := range c.args {
			merged[k] = v
		}
	}
	raw := strings.Join(texts, " ")

	var args []any
	var missing string
	sql := placeholderRe.ReplaceAllStringFunc(raw, func(name string) string {
		v, ok := merged[name[1:]]
		if !ok {
			missing = name
			return name
		}
		args = append(args, v)
		return "?"
	})
	if missing != "" {
		return "", nil, fmt.Errorf("unbound query placeholder %s", missing)
	}
	return sql, args, nil
}
