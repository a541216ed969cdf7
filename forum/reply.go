package forum

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RemovedBody is the placeholder the forum substitutes for the body of a
// moderated-away reply.
const RemovedBody = "[removed]"

// Thing-kind prefixes used in fullnames and parent references.
const (
	KindPost  = "t3"
	KindReply = "t1"
)

// RawReply is a reply as returned by the forum API, before any filtering.
type RawReply struct {
	ID        string
	Author    string
	Body      string
	CreatedAt time.Time
	Permalink string
	ParentRef string
}

// IsRemoved reports whether the reply body has already been redacted.
func (r RawReply) IsRemoved() bool {
	return r.Body == RemovedBody
}

// ParseRef splits a fullname like "t3_abc123" into its kind tag and id.
func ParseRef(ref string) (string, string, error) {
	kind, id, found := strings.Cut(ref, "_")
	if !found || kind == "" || id == "" {
		return "", "", fmt.Errorf("malformed reference: %q", ref)
	}
	return kind, id, nil
}

// IsPostRef reports whether a parent reference points at a root post, which
// makes the referencing reply top-level.
func IsPostRef(ref string) bool {
	kind, _, err := ParseRef(ref)
	return err == nil && kind == KindPost
}

// ReplyFullname prefixes a bare reply id with its kind tag, as required by
// the by-id lookup endpoint.
func ReplyFullname(id string) (string, error) {
	if id == "" || strings.Contains(id, "_") {
		return "", errors.New("not a bare reply id")
	}
	return KindReply + "_" + id, nil
}

// ConstructReplyURL turns a site-relative permalink into an absolute URL.
func ConstructReplyURL(baseURL string, permalink string) string {
	return strings.TrimSuffix(baseURL, "/") + permalink
}
