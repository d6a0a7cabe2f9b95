// ABOUTME: ContentFile and FileSet: physical file references and grouping
// ABOUTME: FileSet membership is by content identity; ContentFile tracks weak back-references

package docmodel

// ContentFile carries a file-system location, a MIME type, an optional
// "representative" flag, and the set of struct nodes that reference it.
// backRefs are weak (non-owning): the owning FileSet is the sole owner.
type ContentFile struct {
	Location      string
	MimeType      string
	Representative bool

	backRefs map[*StructNode]bool
	group    *VirtualFileGroup
}

// NewContentFile constructs a ContentFile at the given location.
func NewContentFile(location, mimeType string) *ContentFile {
	return &ContentFile{
		Location: location,
		MimeType: mimeType,
		backRefs: make(map[*StructNode]bool),
	}
}

// BackReferences returns the struct nodes currently referencing this file,
// in no particular order.
func (cf *ContentFile) BackReferences() []*StructNode {
	if cf == nil {
		return nil
	}
	out := make([]*StructNode, 0, len(cf.backRefs))
	for n := range cf.backRefs {
		out = append(out, n)
	}
	return out
}

func (cf *ContentFile) addBackRef(n *StructNode) {
	if cf.backRefs == nil {
		cf.backRefs = make(map[*StructNode]bool)
	}
	cf.backRefs[n] = true
}

func (cf *ContentFile) removeBackRef(n *StructNode) {
	delete(cf.backRefs, n)
}

// Group returns the VirtualFileGroup cf currently belongs to, or nil if
// it has not been assigned to one.
func (cf *ContentFile) Group() *VirtualFileGroup {
	if cf == nil {
		return nil
	}
	return cf.group
}

// Equals compares two content files by their identifying fields (location,
// mime type, representative flag). Back-references are identity-bearing
// and excluded, matching StructNode.copy's treatment of content files.
func (cf *ContentFile) Equals(other *ContentFile) bool {
	if cf == nil || other == nil {
		return cf == other
	}
	return cf.Location == other.Location &&
		cf.MimeType == other.MimeType &&
		cf.Representative == other.Representative
}

// ContentFileRef pairs a ContentFile with an optional area qualifier
// (e.g. a crop region within the file), as stored on a StructNode.
type ContentFileRef struct {
	File *ContentFile
	Area string
}

func (r ContentFileRef) equals(other ContentFileRef) bool {
	return r.File.Equals(other.File) && r.Area == other.Area
}

// FileSet is a set of ContentFiles; inclusion is by content identity
// (same pointer), matching the source's weak-map semantics.
type FileSet struct {
	files map[*ContentFile]bool
	order []*ContentFile
}

// NewFileSet constructs an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{files: make(map[*ContentFile]bool)}
}

// Add inserts cf into the set if not already present. Returns true if the
// set was modified.
func (fs *FileSet) Add(cf *ContentFile) bool {
	if fs.files == nil {
		fs.files = make(map[*ContentFile]bool)
	}
	if fs.files[cf] {
		return false
	}
	fs.files[cf] = true
	fs.order = append(fs.order, cf)
	return true
}

// Remove deletes cf from the set. Returns true if it was present.
func (fs *FileSet) Remove(cf *ContentFile) bool {
	if !fs.files[cf] {
		return false
	}
	delete(fs.files, cf)
	for i, f := range fs.order {
		if f == cf {
			fs.order = append(fs.order[:i], fs.order[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether cf is a member of the set.
func (fs *FileSet) Contains(cf *ContentFile) bool {
	return fs != nil && fs.files[cf]
}

// Files returns the set's members in insertion order.
func (fs *FileSet) Files() []*ContentFile {
	if fs == nil {
		return nil
	}
	out := make([]*ContentFile, len(fs.order))
	copy(out, fs.order)
	return out
}

// Len returns the number of files in the set.
func (fs *FileSet) Len() int {
	if fs == nil {
		return 0
	}
	return len(fs.order)
}

// VirtualFileGroup is a named subset of a FileSet, corresponding to a METS
// fileGrp: a USE label (e.g. "LOCAL", "THUMBS", "DEFAULT") grouping the
// content files that share that use. A ContentFile belongs to at most one
// group at a time; adding it to a new group detaches it from its prior one,
// mirroring StructNode's single-parent discipline.
type VirtualFileGroup struct {
	Use string

	files map[*ContentFile]bool
	order []*ContentFile
}

// NewVirtualFileGroup constructs an empty group under the given USE label.
func NewVirtualFileGroup(use string) *VirtualFileGroup {
	return &VirtualFileGroup{Use: use, files: make(map[*ContentFile]bool)}
}

// Add inserts cf into the group, detaching it from any group it previously
// belonged to. Returns true if the group's membership changed.
func (g *VirtualFileGroup) Add(cf *ContentFile) bool {
	if cf == nil {
		return false
	}
	if g.files == nil {
		g.files = make(map[*ContentFile]bool)
	}
	if cf.group == g {
		return false
	}
	if cf.group != nil {
		cf.group.remove(cf)
	}
	g.files[cf] = true
	g.order = append(g.order, cf)
	cf.group = g
	return true
}

// Remove deletes cf from the group. Returns true if it was present.
func (g *VirtualFileGroup) Remove(cf *ContentFile) bool {
	if cf == nil || !g.files[cf] {
		return false
	}
	g.remove(cf)
	cf.group = nil
	return true
}

func (g *VirtualFileGroup) remove(cf *ContentFile) {
	delete(g.files, cf)
	for i, f := range g.order {
		if f == cf {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// Contains reports whether cf is a member of the group.
func (g *VirtualFileGroup) Contains(cf *ContentFile) bool {
	return g != nil && g.files[cf]
}

// Files returns the group's members in insertion order.
func (g *VirtualFileGroup) Files() []*ContentFile {
	if g == nil {
		return nil
	}
	out := make([]*ContentFile, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of files in the group.
func (g *VirtualFileGroup) Len() int {
	if g == nil {
		return 0
	}
	return len(g.order)
}
