package scraper

import (
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/odyssey/internal/models"
)

var (
	spaceRegex   = regexp.MustCompile(`[ \t]+`)
	newlineRegex = regexp.MustCompile(`\n{3,}`)
	// Loose textual date, e.g. "January 5, 2024", "5 Jan 2024", "2024-01-05"
	dateRegex = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}|\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{4})\b`)
)

const (
	maxLinks    = 25
	maxImages   = 10
	maxHeadings = 20
)

// extract parses the HTML body and populates the scraped document's
// structured fields. Truncation to maxContent happens last; the original
// length is recorded first.
func extract(doc *models.ScrapedDoc, body string, base *url.URL, maxContent int) {
	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		doc.Error = "failed to parse html: " + err.Error()
		return
	}

	doc.Title = strings.TrimSpace(parsed.Find("title").First().Text())
	if og := metaContent(parsed, `meta[property='og:title']`); doc.Title == "" && og != "" {
		doc.Title = og
	}

	doc.Description = metaContent(parsed, `meta[name='description']`)
	if doc.Description == "" {
		doc.Description = metaContent(parsed, `meta[property='og:description']`)
	}

	doc.Publisher = metaContent(parsed, `meta[property='og:site_name']`)
	doc.OGType = metaContent(parsed, `meta[property='og:type']`)
	doc.TwitterCard = metaContent(parsed, `meta[name='twitter:card']`)
	doc.FeaturedImage = resolveURL(base, metaContent(parsed, `meta[property='og:image']`))
	doc.Author = extractAuthor(parsed)
	doc.PublishedDate = extractPublishedDate(parsed)

	main := mainContent(parsed)

	main.Find("h1, h2, h3, h4").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			doc.Headings = append(doc.Headings, text)
		}
		return len(doc.Headings) < maxHeadings
	})

	main.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		abs := resolveURL(base, href)
		if abs != "" && text != "" {
			doc.Links = append(doc.Links, models.ScrapedLink{Text: text, URL: abs})
		}
		return len(doc.Links) < maxLinks
	})

	main.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if abs := resolveURL(base, src); abs != "" {
			doc.Images = append(doc.Images, abs)
		}
		return len(doc.Images) < maxImages
	})

	// Markdown rendition of the main content, preferred by the aggregator prompt
	if html, err := main.Html(); err == nil {
		converter := md.NewConverter(base.String(), true, nil)
		if markdown, err := converter.ConvertString(html); err == nil {
			doc.Markdown = truncate(markdown, maxContent)
		}
	}

	text := cleanWhitespace(textContent(main))
	doc.ContentLength = len(text)
	doc.Content = truncate(text, maxContent)

	// Fall back to body text when the published date was not in metadata
	if doc.PublishedDate == "" {
		if m := dateRegex.FindString(doc.Content); m != "" {
			doc.PublishedDate = m
		}
	}
}

// mainContent picks the best content container: article, then main, then
// common content/article/post wrappers, then body.
func mainContent(parsed *goquery.Document) *goquery.Selection {
	for _, selector := range []string{
		"article",
		"main",
		"[role=main]",
		"#content, .content, #article, .article, .post, #post",
	} {
		if sel := parsed.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	body := parsed.Find("body").First()
	if body.Length() == 0 {
		return parsed.Selection
	}
	return body
}

func textContent(sel *goquery.Selection) string {
	clone := sel.Clone()
	clone.Find("script, style, noscript, nav, header, footer, aside").Remove()
	return clone.Text()
}

func metaContent(parsed *goquery.Document, selector string) string {
	content, _ := parsed.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func extractAuthor(parsed *goquery.Document) string {
	for _, selector := range []string{
		`meta[name='author']`,
		`meta[property='article:author']`,
		`meta[name='twitter:creator']`,
	} {
		if v := metaContent(parsed, selector); v != "" {
			return v
		}
	}
	for _, selector := range []string{"[rel=author]", ".author", ".byline"} {
		if v := strings.TrimSpace(parsed.Find(selector).First().Text()); v != "" {
			return v
		}
	}
	return ""
}

func extractPublishedDate(parsed *goquery.Document) string {
	if v := metaContent(parsed, `meta[property='article:published_time']`); v != "" {
		return v
	}
	if v, ok := parsed.Find(`[itemprop=datePublished]`).First().Attr("content"); ok && v != "" {
		return v
	}
	if v, ok := parsed.Find("time[datetime]").First().Attr("datetime"); ok && v != "" {
		return v
	}
	return ""
}

func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "data:") {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(parsed).String()
}

func cleanWhitespace(text string) string {
	text = spaceRegex.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	text = strings.Join(lines, "\n")
	text = newlineRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func truncate(text string, max int) string {
	if max > 0 && len(text) > max {
		return text[:max]
	}
	return text
}
