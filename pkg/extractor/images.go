package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ImageFilter decides which img elements count as listing photos.
type ImageFilter struct {
	// Attrs are tried in order; the first non-empty one is the image URL.
	Attrs []string
	// SkipPrefixes and SkipSubstrings drop placeholders and site chrome.
	SkipPrefixes   []string
	SkipSubstrings []string
}

// DefaultImageFilter prefers the lazy-load "rel" attribute and skips gif placeholders and logos.
var DefaultImageFilter = ImageFilter{
	Attrs:          []string{"rel", "src"},
	SkipPrefixes:   []string{"data:image/gif"},
	SkipSubstrings: []string{"logo"},
}

// Images collects image URLs below sel, de-duplicated in first-seen order.
// Relative URLs are resolved against base when base is non-nil.
func Images(sel *goquery.Selection, base *url.URL, filter ImageFilter) []string {
	seen := make(map[string]struct{})
	images := []string{}

	sel.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := ""
		for _, attr := range filter.Attrs {
			if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" {
				src = strings.TrimSpace(v)
				break
			}
		}
		if src == "" || filter.skip(src) {
			return
		}

		src = resolve(base, src)
		if _, dup := seen[src]; dup {
			return
		}
		seen[src] = struct{}{}
		images = append(images, src)
	})

	return images
}

func (f ImageFilter) skip(src string) bool {
	for _, prefix := range f.SkipPrefixes {
		if strings.HasPrefix(src, prefix) {
			return true
		}
	}
	for _, sub := range f.SkipSubstrings {
		if strings.Contains(src, sub) {
			return true
		}
	}
	return false
}

func resolve(base *url.URL, ref string) string {
	if base == nil || strings.HasPrefix(ref, "data:") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
