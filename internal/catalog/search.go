package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"storefront/pkg/models"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// NormalizeText folds s for matching: lowercase, accents removed, anything
// other than ASCII word characters, whitespace and '-' dropped.
func NormalizeText(s string) string {
	folded, _, err := transform.String(stripMarks, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if isASCIIWord(r) || unicode.IsSpace(r) || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func isASCIIWord(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// Matches reports whether title contains the query as a whole, or every
// query token somewhere. An empty query matches everything.
func Matches(title, query string) bool {
	q := NormalizeText(query)
	if q == "" {
		return true
	}
	t := NormalizeText(title)
	if strings.Contains(t, q) {
		return true
	}
	for _, tok := range strings.Fields(q) {
		if !strings.Contains(t, tok) {
			return false
		}
	}
	return true
}

// Highlight HTML-escapes title and wraps every word that contains a query
// token in <span class="highlight">.
func Highlight(title, query string) string {
	q := NormalizeText(query)
	if q == "" {
		return escapeHTML(title)
	}
	tokens := uniqueFields(q)

	var b strings.Builder
	for _, part := range splitWordRuns(title) {
		np := NormalizeText(part)
		hit := false
		for _, tok := range tokens {
			if np != "" && strings.Contains(np, tok) {
				hit = true
				break
			}
		}
		if hit {
			b.WriteString(`<span class="highlight">`)
			b.WriteString(escapeHTML(part))
			b.WriteString(`</span>`)
		} else {
			b.WriteString(escapeHTML(part))
		}
	}
	return b.String()
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func escapeHTML(s string) string { return htmlEscaper.Replace(s) }

func uniqueFields(s string) []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range strings.Fields(s) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// splitWordRuns cuts s into alternating runs of word and non-word runes.
func splitWordRuns(s string) []string {
	var (
		parts  []string
		cur    []rune
		inWord bool
	)
	for i, r := range s {
		w := unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.Is(unicode.Mn, r)
		if i > 0 && w != inWord && len(cur) > 0 {
			parts = append(parts, string(cur))
			cur = cur[:0]
		}
		inWord = w
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		parts = append(parts, string(cur))
	}
	return parts
}

// Hit is a product that matched a search, with its highlighted title.
type Hit struct {
	Product   models.Product `json:"product"`
	Highlight string         `json:"highlight"`
}

// Search filters products by title, keeping catalog order.
func Search(products []models.Product, query string) []Hit {
	hits := make([]Hit, 0)
	for _, p := range products {
		if !Matches(p.Title, query) {
			continue
		}
		hits = append(hits, Hit{Product: p, Highlight: Highlight(p.Title, query)})
	}
	return hits
}
