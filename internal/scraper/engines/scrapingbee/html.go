package scrapingbee

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Tags that never carry ad content and only add noise downstream.
var noiseTags = []string{
	"script", "style", "noscript", "iframe", "object", "embed",
	"form", "input", "button", "select", "textarea",
	"nav", "header", "footer", "aside", "menu",
	"svg", "path", "meta", "link",
}

var multiBlankLines = regexp.MustCompile(`\n{3,}`)

// ExtractLinks returns the href of every anchor in the HTML, deduplicated in
// document order. Relative hrefs are resolved against base.
func ExtractLinks(html, base string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var links []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		if strings.HasPrefix(href, "/") && base != "" {
			href = base + href
		}
		if _, ok := seen[href]; ok {
			return
		}
		seen[href] = struct{}{}
		links = append(links, href)
	})

	return links, nil
}

// HTMLToMarkdown reduces an HTML page to plain markdown-ish text suitable for
// LLM extraction: noise tags removed, headings marked, blocks separated by
// blank lines.
func HTMLToMarkdown(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	for _, tag := range noiseTags {
		doc.Find(tag).Remove()
	}

	var sb strings.Builder

	doc.Find("h1, h2, h3, h4, p, li, td, div").Each(func(_ int, sel *goquery.Selection) {
		// Only leaf-ish blocks; a div containing other blocks would duplicate text
		if sel.Is("div") && sel.ChildrenFiltered("h1, h2, h3, h4, p, li, td, div").Length() > 0 {
			return
		}

		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}

		if sel.Is("h1") {
			sb.WriteString("# ")
		} else if sel.Is("h2") {
			sb.WriteString("## ")
		} else if sel.Is("h3") || sel.Is("h4") {
			sb.WriteString("### ")
		} else if sel.Is("li") {
			sb.WriteString("- ")
		}

		sb.WriteString(text)
		sb.WriteString("\n\n")
	})

	out := multiBlankLines.ReplaceAllString(sb.String(), "\n\n")
	return strings.TrimSpace(out), nil
}
