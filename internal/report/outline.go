package report

import (
	"strings"

	"golang.org/x/net/html"

	apperrors "github.com/herbario-cl/herbario/internal/errors"
)

// Outline parses rendered HTML and returns its heading texts in document
// order. A parse failure means the renderer produced a broken artifact.
func Outline(htmlDoc string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(htmlDoc))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryValidation, apperrors.SeverityError, "failed to parse rendered report HTML")
	}

	var headings []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && isHeading(n.Data) {
			headings = append(headings, textContent(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return headings, nil
}

func isHeading(tag string) bool {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
