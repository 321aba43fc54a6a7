package ingest

import (
	"strings"

	"golang.org/x/net/html"
)

// Tags whose text never makes useful evidence.
var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"noscript": true,
	"form":     true,
}

// Block-level tags that delimit passages.
var passageTags = map[string]bool{
	"p":          true,
	"li":         true,
	"blockquote": true,
	"td":         true,
	"h1":         true,
	"h2":         true,
	"h3":         true,
}

// ExtractPassages pulls candidate evidence passages out of an HTML
// document. Each block element becomes one passage; passages shorter
// than minWords are dropped.
func ExtractPassages(htmlContent string, minWords int) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	var passages []string
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skippedTags[n.Data] {
				return
			}
			if passageTags[n.Data] {
				if text := collapseText(n); wordCount(text) >= minWords {
					passages = append(passages, text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return dedupePassages(passages), nil
}

// SplitPlainText splits a plain-text document into passages on blank
// lines, dropping passages shorter than minWords.
func SplitPlainText(text string, minWords int) []string {
	var passages []string
	for _, block := range strings.Split(text, "\n\n") {
		passage := strings.Join(strings.Fields(block), " ")
		if wordCount(passage) >= minWords {
			passages = append(passages, passage)
		}
	}
	return dedupePassages(passages)
}

// collapseText concatenates all text under n, skipping excluded
// subtrees, with whitespace collapsed to single spaces.
func collapseText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode && skippedTags[n.Data] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func dedupePassages(passages []string) []string {
	seen := make(map[string]bool, len(passages))
	var unique []string
	for _, p := range passages {
		if !seen[p] {
			seen[p] = true
			unique = append(unique, p)
		}
	}
	return unique
}
