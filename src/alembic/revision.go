package alembic

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// maxSlugLength matches alembic's default truncate_slug_length.
const maxSlugLength = 40

var (
	// Version files are named <revision>_<slug>.py with a 12-hex revision id.
	filenameRe = regexp.MustCompile(`^([0-9a-f]{12})_(.+)\.py$`)

	// Module attributes in the generated file body. Newer alembic templates
	// annotate them (revision: str = '...'), older ones do not.
	revisionRe     = regexp.MustCompile(`(?m)^revision(?:\s*:[^=]+)?\s*=\s*['"]([0-9a-f]+)['"]`)
	downRevisionRe = regexp.MustCompile(`(?m)^down_revision(?:\s*:[^=]+)?\s*=\s*(?:(None)|['"]([0-9a-f]+)['"])`)
)

// Revision is one version file in the migration history.
type Revision struct {
	// ID is the revision identifier, e.g. "e2412789c190".
	ID string
	// DownID is the parent revision id; empty for a base revision.
	DownID string
	// Slug is the message-derived part of the filename.
	Slug string
	// Filename is the base name of the version file.
	Filename string
}

// IsBase reports whether the revision has no parent.
func (r *Revision) IsBase() bool {
	return r.DownID == ""
}

// ParseFilename splits a version file name into revision id and slug.
func ParseFilename(name string) (id, slug string, ok bool) {
	m := filenameRe.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// ParseFile reads a version file and extracts its revision linkage.
func ParseFile(path string) (*Revision, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read version file: %w", err)
	}
	rev, err := ParseSource(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	name := path
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	rev.Filename = name
	if _, slug, ok := ParseFilename(name); ok {
		rev.Slug = slug
	}
	return rev, nil
}

// ParseSource extracts the revision and down_revision attributes from a
// version file body.
func ParseSource(data []byte) (*Revision, error) {
	m := revisionRe.FindSubmatch(data)
	if m == nil {
		return nil, fmt.Errorf("no revision attribute found")
	}
	rev := &Revision{ID: string(m[1])}

	d := downRevisionRe.FindSubmatch(data)
	if d == nil {
		return nil, fmt.Errorf("no down_revision attribute found")
	}
	if len(d[2]) > 0 {
		rev.DownID = string(d[2])
	}
	return rev, nil
}

// Slugify renders a migration message the way alembic does for filenames:
// lowercase, non-alphanumeric runs collapsed to single underscores, truncated.
func Slugify(message string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(message) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			b.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	slug := strings.Trim(b.String(), "_")
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "_")
	}
	return slug
}
