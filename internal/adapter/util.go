package adapter

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// plainText returns the visible text of an HTML fragment with whitespace
// collapsed. Markup that arrives entity-escaped is parsed a second time.
func plainText(fragment string) string {
	text := htmlText(fragment)
	if strings.ContainsAny(text, "<>") {
		text = htmlText(text)
	}
	return strings.Join(strings.Fields(text), " ")
}

func htmlText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return doc.Text()
}
