package alembic

import (
	"fmt"
	"path/filepath"

	"github.com/sashakt-platform/sashakt-ops/src/pkg/utils"
)

// History is the revision graph read from a versions directory.
type History struct {
	// Revisions in filename order.
	Revisions []*Revision

	byID map[string]*Revision
}

// LoadHistory parses every version file in dir. Files that do not follow the
// <revision>_<slug>.py naming are ignored, they are not part of the history.
func LoadHistory(dir string) (*History, error) {
	names, err := utils.ListFilesWithExt(dir, ".py")
	if err != nil {
		return nil, err
	}

	h := &History{byID: make(map[string]*Revision)}
	for _, name := range names {
		if _, _, ok := ParseFilename(name); !ok {
			continue
		}
		rev, err := ParseFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		h.Revisions = append(h.Revisions, rev)
		if _, dup := h.byID[rev.ID]; !dup {
			h.byID[rev.ID] = rev
		}
	}
	return h, nil
}

// Get returns the revision with the given id, or nil.
func (h *History) Get(id string) *Revision {
	return h.byID[id]
}

// Bases returns the revisions with no parent. A linear history has one.
func (h *History) Bases() []*Revision {
	var bases []*Revision
	for _, rev := range h.Revisions {
		if rev.IsBase() {
			bases = append(bases, rev)
		}
	}
	return bases
}

// Heads returns the revisions no other revision descends from. More than one
// head means the history has branched and alembic will refuse to upgrade.
func (h *History) Heads() []*Revision {
	hasChild := make(map[string]bool, len(h.Revisions))
	for _, rev := range h.Revisions {
		if rev.DownID != "" {
			hasChild[rev.DownID] = true
		}
	}
	var heads []*Revision
	for _, rev := range h.Revisions {
		if !hasChild[rev.ID] {
			heads = append(heads, rev)
		}
	}
	return heads
}

// Lint returns human-readable problems in the revision graph: duplicate ids,
// parents that do not exist, branched heads, multiple bases.
func (h *History) Lint() []string {
	var problems []string

	seen := make(map[string]string, len(h.Revisions))
	for _, rev := range h.Revisions {
		if first, dup := seen[rev.ID]; dup {
			problems = append(problems,
				fmt.Sprintf("duplicate revision %s in %s and %s", rev.ID, first, rev.Filename))
			continue
		}
		seen[rev.ID] = rev.Filename
	}

	for _, rev := range h.Revisions {
		if rev.DownID != "" && h.byID[rev.DownID] == nil {
			problems = append(problems,
				fmt.Sprintf("%s references missing parent revision %s", rev.Filename, rev.DownID))
		}
	}

	if len(h.Revisions) > 0 {
		if heads := h.Heads(); len(heads) > 1 {
			names := make([]string, len(heads))
			for i, rev := range heads {
				names[i] = rev.ID
			}
			problems = append(problems, fmt.Sprintf("history has %d heads: %v", len(heads), names))
		}
		if bases := h.Bases(); len(bases) > 1 {
			names := make([]string, len(bases))
			for i, rev := range bases {
				names[i] = rev.ID
			}
			problems = append(problems, fmt.Sprintf("history has %d base revisions: %v", len(bases), names))
		}
	}
	return problems
}
