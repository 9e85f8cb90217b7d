// Package linkcheck verifies that internal references in a built
// documentation site resolve to files inside the output tree. External
// links are reported but never fetched.
package linkcheck

import (
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Link is one extracted reference from a site page.
type Link struct {
	URL       string
	Tag       string
	Attribute string
	// Page is the site-relative path of the page the link appeared on.
	Page string
}

// BrokenLink is an internal reference that does not resolve in the tree.
type BrokenLink struct {
	Page   string
	URL    string
	Reason string
}

// Result summarizes one site check.
type Result struct {
	Pages    int
	Links    int
	External int
	Broken   []BrokenLink
}

// OK reports whether every internal reference resolved.
func (r *Result) OK() bool { return len(r.Broken) == 0 }

// Checker walks a built site directory and validates its internal links.
type Checker struct {
	root string
}

// NewChecker creates a checker over the site output directory.
func NewChecker(root string) *Checker {
	return &Checker{root: root}
}

// Check parses every HTML page under the root and verifies internal
// references against the files actually present.
func (c *Checker) Check() (*Result, error) {
	result := &Result{}

	err := filepath.WalkDir(c.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".html") {
			return nil
		}
		rel, err := filepath.Rel(c.root, p)
		if err != nil {
			return err
		}
		result.Pages++

		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("open page %s: %w", rel, err)
		}
		links, perr := ExtractLinks(f, filepath.ToSlash(rel))
		f.Close()
		if perr != nil {
			return fmt.Errorf("parse page %s: %w", rel, perr)
		}

		for _, link := range links {
			result.Links++
			c.checkLink(link, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Checker) checkLink(link Link, result *Result) {
	raw := link.URL
	if skippable(raw) {
		return
	}
	u, err := url.Parse(raw)
	if err != nil {
		result.Broken = append(result.Broken, BrokenLink{
			Page: link.Page, URL: raw, Reason: "unparseable URL",
		})
		return
	}
	if u.Scheme != "" || u.Host != "" {
		result.External++
		return
	}
	if u.Path == "" {
		// Fragment-only reference within the same page.
		return
	}

	target := u.Path
	if strings.HasPrefix(target, "/") {
		target = strings.TrimPrefix(target, "/")
	} else {
		target = path.Join(path.Dir(link.Page), target)
	}
	if strings.Contains(target, "..") {
		result.Broken = append(result.Broken, BrokenLink{
			Page: link.Page, URL: raw, Reason: "reference escapes site root",
		})
		return
	}

	full := filepath.Join(c.root, filepath.FromSlash(target))
	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		info, err = os.Stat(filepath.Join(full, "index.html"))
	}
	if err != nil {
		result.Broken = append(result.Broken, BrokenLink{
			Page: link.Page, URL: raw, Reason: "target not found",
		})
	}
}

// skippable reports whether a reference is outside the checker's scope.
func skippable(raw string) bool {
	if raw == "" || strings.HasPrefix(raw, "#") {
		return true
	}
	for _, prefix := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(raw, prefix) {
			return true
		}
	}
	return false
}

// linkAttrs maps element names to the attribute carrying their reference.
var linkAttrs = map[string]string{
	"a":      "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
	"video":  "src",
	"audio":  "src",
	"source": "src",
}

// ExtractLinks parses HTML from r and returns every reference found in
// anchor, asset and media elements. page is recorded on each link for
// reporting.
func ExtractLinks(r io.Reader, page string) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttrs[n.Data]; ok {
				if val := getAttr(n, attr); val != "" {
					links = append(links, Link{
						URL:       val,
						Tag:       n.Data,
						Attribute: attr,
						Page:      page,
					})
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return links, nil
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
