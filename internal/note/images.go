package note

import (
	"regexp"
)

var imgSrcRe = regexp.MustCompile(`<img[^>]+src="([^"]+)"`)

// ExtractImageURLs pulls the embedded image references out of the rich-text
// markup. The content itself stays an opaque blob; only the URLs are lifted
// into the projection for listing and cleanup.
func ExtractImageURLs(content string) []string {
	matches := imgSrcRe.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := map[string]struct{}{}
	out := make([]string, 0, len(matches))

	for _, m := range matches {
		if len(m) < 2 {
			continue
		}
		u := m[1]
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)

		if len(out) >= 50 { // cap
			break
		}
	}

	return out
}
