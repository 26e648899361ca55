// Package rubric extracts per-metric reference rubrics from authoritative
// instructional videos via the external analyzer.
package rubric

import (
	"net/url"
	"regexp"
	"strings"

	pkgerrors "github.com/fairwaylabs/swingsense-backend/internal/pkg/errors"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,20}$`)

// VideoID extracts the canonical video id from the supported URL shapes:
// watch?v=, youtu.be/, /shorts/ and /embed/ paths. Returns invalid_reference
// when no id can be extracted.
func VideoID(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", pkgerrors.Newf(pkgerrors.CodeInvalidReference, "unparsable video URL %q", raw)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = pathSegment(u.Path, "/shorts/")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = pathSegment(u.Path, "/embed/")
		}
	}

	if !videoIDPattern.MatchString(id) {
		return "", pkgerrors.Newf(pkgerrors.CodeInvalidReference, "no video id in %q", raw)
	}
	return id, nil
}

func pathSegment(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	if idx := strings.Index(rest, "/"); idx >= 0 {
		rest = rest[:idx]
	}
	return rest
}
