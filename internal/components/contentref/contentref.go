// Package contentref parses shared-content references and classifies them
// into the closed set of lookup strategies the ingestor dispatches on.
package contentref

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Well-known provider authorities and collections.
const (
	MediaDocumentsAuthority     = "com.android.providers.media.documents"
	DownloadsDocumentsAuthority = "com.android.providers.downloads.documents"

	// ImagesContentURI is the external images collection of the media index.
	ImagesContentURI = "content://media/external/images/media"

	// PublicDownloadsURI is the base locator for downloads rows. Row ids are
	// appended as a trailing path segment.
	PublicDownloadsURI = "content://downloads/public_downloads"

	SchemeContent = "content"
	SchemeFile    = "file"
)

// ErrEmptyReference is returned by Parse for blank input.
var ErrEmptyReference = errors.New("empty content reference")

// Kind identifies which lookup strategy applies to a reference.
type Kind int

const (
	// KindUnsupported covers any scheme other than content and file.
	KindUnsupported Kind = iota
	KindMediaDocument
	KindDownloadsDocument
	// KindOtherDocument is a document reference from a provider with no
	// known lookup. It never falls back to the generic content lookup.
	KindOtherDocument
	KindContent
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindMediaDocument:
		return "media_document"
	case KindDownloadsDocument:
		return "downloads_document"
	case KindOtherDocument:
		return "other_document"
	case KindContent:
		return "content"
	case KindFile:
		return "file"
	default:
		return "unsupported"
	}
}

// Reference is a parsed shared-content reference.
type Reference struct {
	// Raw is the reference exactly as delivered by the share event.
	Raw string

	// Scheme is the URI scheme as written (comparison rules differ per scheme).
	Scheme string

	// Authority is the provider authority (host[:port]) for content references.
	Authority string

	// Path is the decoded path hint.
	Path string

	// DocumentID is set for document references only.
	DocumentID string

	document bool
}

// Parse parses a raw reference string.
func Parse(raw string) (*Reference, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyReference
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid content reference %q: %w", raw, err)
	}

	ref := &Reference{
		Raw:       raw,
		Authority: u.Host,
		Path:      u.Path,
	}

	// url.Parse lowercases the scheme; keep it as written.
	if u.Scheme != "" {
		ref.Scheme = raw[:len(u.Scheme)]
	}

	// Opaque forms like "file:relative/x" carry the path in Opaque.
	if ref.Path == "" && u.Opaque != "" {
		ref.Path = u.Opaque
	}

	if strings.EqualFold(ref.Scheme, SchemeContent) {
		ref.DocumentID, ref.document = documentID(u)
	}

	return ref, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(raw string) *Reference {
	ref, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return ref
}

// documentID extracts the provider document id from a document-shaped path:
// /document/<id> or /tree/<treeId>/document/<id>.
func documentID(u *url.URL) (string, bool) {
	escaped := strings.TrimPrefix(u.EscapedPath(), "/")
	if escaped == "" {
		return "", false
	}
	segments := strings.Split(escaped, "/")

	var raw string
	switch {
	case len(segments) == 2 && segments[0] == "document":
		raw = segments[1]
	case len(segments) == 4 && segments[0] == "tree" && segments[2] == "document":
		raw = segments[3]
	default:
		return "", false
	}

	id, err := url.PathUnescape(raw)
	if err != nil {
		return "", false
	}
	return id, true
}

// IsDocument reports whether the reference is provider-document backed.
func (r *Reference) IsDocument() bool {
	return r.document
}

// Kind classifies the reference. The first matching case wins.
func (r *Reference) Kind() Kind {
	switch {
	case r.document && r.Authority == MediaDocumentsAuthority:
		return KindMediaDocument
	case r.document && r.Authority == DownloadsDocumentsAuthority:
		return KindDownloadsDocument
	case r.document:
		return KindOtherDocument
	case strings.EqualFold(r.Scheme, SchemeContent):
		return KindContent
	case r.Scheme == SchemeFile:
		return KindFile
	default:
		return KindUnsupported
	}
}

// LastSegment returns the text after the final "/" of p, or p itself when it
// has no slash. Trailing slashes are ignored, so "/sdcard/dir/" yields "dir".
func LastSegment(p string) string {
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// WithAppendedID returns base with id appended as a trailing path segment.
func WithAppendedID(base string, id int64) string {
	return fmt.Sprintf("%s/%d", strings.TrimSuffix(base, "/"), id)
}

// Locator returns the reference without query or fragment, with the scheme
// lowercased. Content index rows are addressed by this form.
func (r *Reference) Locator() string {
	u := url.URL{Scheme: strings.ToLower(r.Scheme), Host: r.Authority, Path: r.Path}
	return u.String()
}

// String returns the raw reference.
func (r *Reference) String() string {
	return r.Raw
}
