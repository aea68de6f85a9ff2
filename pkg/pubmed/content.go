package pubmed

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"pubmedscraper/pkg/errors"
)

// ContentBlock returns the text of the first <pre> element in an HTML page.
// found is false when the page has none, which marks the end of results.
// Markup nested in the block is replaced by line breaks so addresses on
// either side of a tag stay apart.
func ContentBlock(body []byte) (text string, found bool, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", false, errors.Wrap(errors.ErrorTypeParsing,
			fmt.Sprintf("failed to parse HTML: %v", err), err)
	}

	pre := doc.Find("pre").First()
	if pre.Length() == 0 {
		return "", false, nil
	}

	var b strings.Builder
	blockText(pre, &b)
	return b.String(), true, nil
}

func blockText(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		switch goquery.NodeName(child) {
		case "#text":
			b.WriteString(child.Text())
		case "#comment":
			b.WriteByte('\n')
		default:
			b.WriteByte('\n')
			blockText(child, b)
			b.WriteByte('\n')
		}
	})
}
