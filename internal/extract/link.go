package extract

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// LinkExtractor fetches a web page and strips it down to its visible
// text. Script and style subtrees are dropped entirely.
type LinkExtractor struct {
	client *http.Client
}

func NewLinkExtractor(timeout time.Duration) *LinkExtractor {
	return &LinkExtractor{
		client: &http.Client{Timeout: timeout},
	}
}

func (e *LinkExtractor) Extract(ctx context.Context, location string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "docsense/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, location)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	collectVisibleText(root, &b)
	return collapseWhitespace(b.String()), nil
}

func collectVisibleText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "head":
			return
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteString(" ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectVisibleText(c, b)
	}
	// Block elements end a line so paragraph boundaries survive for the chunker.
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6", "tr":
			b.WriteString("\n")
		}
	}
}

func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
