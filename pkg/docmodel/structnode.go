// ABOUTME: StructNode: one node of the logical or physical tree
// ABOUTME: Holds metadata/persons/groups, content-file refs, cross-references, children and parent

package docmodel

import "github.com/nainya/digdoc/pkg/ruleset"

// AmdSec is an administrative-metadata section: an opaque bundle of
// TechMd XML fragments, attached to a Document and optionally referenced
// by nodes. The fragments themselves are black-box to digdoc's core; only
// a FileFormat adapter interprets them.
type AmdSec struct {
	ID      string
	TechMds []*TechMd
}

// TechMd is one opaque technical-metadata XML fragment inside an AmdSec.
type TechMd struct {
	ID      string
	MdType  string
	Content []byte
}

// StructNode is one node of the logical or physical tree.
type StructNode struct {
	Type *ruleset.StructType

	ID               string
	ReferenceToAnchor string

	Logical  bool
	Physical bool

	// PointerStub marks a node produced by CopyTruncated as a pure
	// METS-pointer stub: a structural placeholder with no metadata of
	// its own class, skipped by GetAllRealSuccessors.
	PointerStub bool

	children []*StructNode
	parent   *StructNode

	metadata []*Metadata
	persons  []*Person
	groups   []*MetadataGroup

	contentFileRefs []ContentFileRef

	outRefs []*Reference
	inRefs  []*Reference

	AmdSecRef *AmdSec
	TechMds   []*TechMd

	doc *Document
}

// Parent returns the node's parent, or nil if it is a tree root.
func (n *StructNode) Parent() *StructNode { return n.parent }

// Children returns the node's children in order. The returned slice must
// not be mutated by the caller.
func (n *StructNode) Children() []*StructNode { return n.children }

// Document returns the owning Document, or nil if the node was never
// created through Document.CreateStructNode.
func (n *StructNode) Document() *Document { return n.doc }

// Metadata, Persons and Groups return the node's ordered attached lists.
func (n *StructNode) Metadata() []*Metadata       { return n.metadata }
func (n *StructNode) Persons() []*Person          { return n.persons }
func (n *StructNode) Groups() []*MetadataGroup    { return n.groups }
func (n *StructNode) ContentFileRefs() []ContentFileRef { return n.contentFileRefs }
func (n *StructNode) OutRefs() []*Reference       { return n.outRefs }
func (n *StructNode) InRefs() []*Reference        { return n.inRefs }

// AnchorClass returns the node's struct type's anchor class label, or "".
func (n *StructNode) AnchorClass() string {
	if n == nil || n.Type == nil {
		return ""
	}
	return n.Type.AnchorClass
}

func (n *StructNode) typeName() string {
	if n == nil || n.Type == nil {
		return ""
	}
	return n.Type.Name
}

// ---- Tree mutation ----

// AddChild attaches child as the last child of n (or at index, if given),
// after detaching it from any prior parent. Fails if the rule set does not
// list child's type as an allowed child of n's type.
func (n *StructNode) AddChild(child *StructNode, index ...int) error {
	if n.Type != nil && !n.Type.AllowsChild(child.typeName()) {
		return &TypeNotAllowedAsChildError{ChildType: child.typeName()}
	}

	if child.parent != nil {
		child.parent.detachChild(child)
	}

	child.parent = n
	propagateFlags(child, n.Logical, n.Physical)

	if len(index) > 0 {
		pos := clamp(index[0], 0, len(n.children))
		n.children = append(n.children, nil)
		copy(n.children[pos+1:], n.children[pos:])
		n.children[pos] = child
	} else {
		n.children = append(n.children, child)
	}
	return nil
}

func (n *StructNode) detachChild(child *StructNode) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// RemoveChild detaches child from n. Returns whether child was actually a
// child of n.
func (n *StructNode) RemoveChild(child *StructNode) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// MoveChild stably repositions child within n's child list, clamping
// position to [0, len(children)]. Returns whether child was found.
func (n *StructNode) MoveChild(child *StructNode, position int) bool {
	idx := -1
	for i, c := range n.children {
		if c == child {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}

	n.children = append(n.children[:idx], n.children[idx+1:]...)
	pos := clamp(position, 0, len(n.children))
	n.children = append(n.children, nil)
	copy(n.children[pos+1:], n.children[pos:])
	n.children[pos] = child
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func propagateFlags(n *StructNode, logical, physical bool) {
	n.Logical = logical
	n.Physical = physical
	for _, c := range n.children {
		propagateFlags(c, logical, physical)
	}
}

// ---- Metadata mutation ----

func (n *StructNode) countMetadataOfType(name string) int {
	count := 0
	for _, m := range n.metadata {
		if m.TypeName() == name {
			count++
		}
	}
	return count
}

func (n *StructNode) countPersonsOfType(name string) int {
	count := 0
	for _, p := range n.persons {
		if p.TypeName() == name {
			count++
		}
	}
	return count
}

func (n *StructNode) countGroupsOfType(name string) int {
	count := 0
	for _, g := range n.groups {
		if g.typeName() == name {
			count++
		}
	}
	return count
}

// checkCardinality verifies adding one more instance of mdTypeName (current
// count currentCount) would not exceed the node's rule-set cardinality.
// Hidden types (leading "_") are unrestricted.
func checkCardinality(n *StructNode, mdTypeName string, currentCount int) error {
	if ruleset.IsHidden(mdTypeName) {
		return nil
	}
	card, declared := n.cardinalityFor(mdTypeName)
	if !declared {
		return &MetadataTypeNotAllowedError{MetadataType: mdTypeName, OnStructType: n.typeName()}
	}
	switch card {
	case ruleset.CardOptional, ruleset.CardMandatory:
		if currentCount >= 1 {
			return &MetadataTypeNotAllowedError{MetadataType: mdTypeName, OnStructType: n.typeName()}
		}
	case ruleset.CardAny, ruleset.CardAtLeastOne:
		// present-or-more: unlimited upper bound, §9 open question (a).
	}
	return nil
}

func (n *StructNode) cardinalityFor(mdTypeName string) (ruleset.Cardinality, bool) {
	if n.Type == nil {
		return "", false
	}
	for _, am := range n.Type.AllowedMetadata {
		if am.TypeName == mdTypeName {
			return am.Cardinality, true
		}
	}
	return "", false
}

func (n *StructNode) groupCardinalityFor(groupTypeName string) (ruleset.Cardinality, bool) {
	if n.Type == nil {
		return "", false
	}
	for _, ag := range n.Type.AllowedGroups {
		if ag.TypeName == groupTypeName {
			return ag.Cardinality, true
		}
	}
	return "", false
}

// canonicalMetadataType returns the canonical *ruleset.MetadataType of the
// same name from the rule set of n's Document, falling back to the
// passed-in type when n has no document or the rule set doesn't declare
// that name at all (e.g. hidden types).
func (n *StructNode) canonicalMetadataType(want *ruleset.MetadataType) *ruleset.MetadataType {
	if n.doc != nil && n.doc.rules != nil {
		if canon := n.doc.rules.MetadataTypeByName(want.Name); canon != nil {
			return canon
		}
	}
	return want
}

// AddMetadata attaches md to n. Fails with DocStructHasNoTypeError if n has
// no type, or MetadataTypeNotAllowedError if the type isn't declared (and
// isn't hidden) or the cardinality would be exceeded. On success, md's type
// reference is rebound to the rule set's canonical type of the same name
// (see canonicalMetadataType).
func (n *StructNode) AddMetadata(md *Metadata) error {
	if n.Type == nil {
		return &DocStructHasNoTypeError{}
	}
	name := md.TypeName()
	if !ruleset.IsHidden(name) {
		if err := checkCardinality(n, name, n.countMetadataOfType(name)); err != nil {
			return err
		}
	}
	md.Type = n.canonicalMetadataType(md.Type)
	md.node = n
	n.metadata = append(n.metadata, md)
	return nil
}

// AddPerson attaches p to n, following the same rules as AddMetadata. Fails
// with IncompletePersonObjectError if p has no PersonType set (§7).
func (n *StructNode) AddPerson(p *Person) error {
	if n.Type == nil {
		return &DocStructHasNoTypeError{}
	}
	if p.PersonType == "" {
		return &IncompletePersonObjectError{}
	}
	name := p.TypeName()
	if !ruleset.IsHidden(name) {
		if err := checkCardinality(n, name, n.countPersonsOfType(name)); err != nil {
			return err
		}
	}
	p.Type = n.canonicalMetadataType(p.Type)
	p.node = n
	n.persons = append(n.persons, p)
	return nil
}

// AddMetadataGroup attaches g to n, honoring the group cardinality rule.
func (n *StructNode) AddMetadataGroup(g *MetadataGroup) error {
	if n.Type == nil {
		return &DocStructHasNoTypeError{}
	}
	name := g.typeName()
	card, declared := n.groupCardinalityFor(name)
	if !declared {
		return &MetadataTypeNotAllowedError{MetadataType: name, OnStructType: n.typeName()}
	}
	switch card {
	case ruleset.CardOptional, ruleset.CardMandatory:
		if n.countGroupsOfType(name) >= 1 {
			return &MetadataTypeNotAllowedError{MetadataType: name, OnStructType: n.typeName()}
		}
	}
	g.node = n
	n.groups = append(n.groups, g)
	return nil
}

// RemoveMetadata detaches md from n's list if present. Does not enforce
// "1m"/"+" minima; see CanMetadataBeRemoved for that check.
func (n *StructNode) RemoveMetadata(md *Metadata) bool {
	for i, m := range n.metadata {
		if m == md {
			m.node = nil
			n.metadata = append(n.metadata[:i], n.metadata[i+1:]...)
			return true
		}
	}
	return false
}

// RemovePerson detaches p from n's list if present. Fails with
// IncompletePersonObjectError, without removing p, if p has no PersonType
// set (§7): such a person should never have been added in the first place,
// so removal surfaces the same defect rather than silently discarding it.
func (n *StructNode) RemovePerson(p *Person) (bool, error) {
	if p.PersonType == "" {
		return false, &IncompletePersonObjectError{}
	}
	for i, x := range n.persons {
		if x == p {
			x.node = nil
			n.persons = append(n.persons[:i], n.persons[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// RemoveMetadataGroup detaches g from n's list if present.
func (n *StructNode) RemoveMetadataGroup(g *MetadataGroup) bool {
	for i, x := range n.groups {
		if x == g {
			x.node = nil
			n.groups = append(n.groups[:i], n.groups[i+1:]...)
			return true
		}
	}
	return false
}

// CanMetadataBeRemoved reports whether one instance of mdTypeName can be
// removed without violating the node's declared minimum cardinality ("1m"
// or "+"); it returns false when removal would violate that minimum.
func (n *StructNode) CanMetadataBeRemoved(mdTypeName string) bool {
	card, declared := n.cardinalityFor(mdTypeName)
	if !declared {
		return true
	}
	count := n.countMetadataOfType(mdTypeName) + n.countPersonsOfType(mdTypeName)
	switch card {
	case ruleset.CardMandatory:
		return count > 1
	case ruleset.CardAtLeastOne:
		return count > 1
	default:
		return true
	}
}

// ChangeMetadata replaces oldMd with newMd in place, preserving list
// position. Valid only when both share the same metadata-type name.
func (n *StructNode) ChangeMetadata(oldMd, newMd *Metadata) error {
	if oldMd.TypeName() != newMd.TypeName() {
		return &MetadataTypeNotAllowedError{MetadataType: newMd.TypeName(), OnStructType: n.typeName()}
	}
	for i, m := range n.metadata {
		if m == oldMd {
			newMd.Type = n.canonicalMetadataType(newMd.Type)
			newMd.node = n
			oldMd.node = nil
			n.metadata[i] = newMd
			return nil
		}
	}
	return &MetadataTypeNotAllowedError{MetadataType: newMd.TypeName(), OnStructType: n.typeName()}
}

// ---- Cross-references ----

// AddReferenceTo creates a Reference of the given type from n to target and
// inserts it into both endpoints' lists atomically.
func (n *StructNode) AddReferenceTo(target *StructNode, refType string) *Reference {
	ref := newReference(refType, n, target)
	n.outRefs = append(n.outRefs, ref)
	target.inRefs = append(target.inRefs, ref)
	return ref
}

// AddReferenceFrom creates a Reference of the given type from source to n.
func (n *StructNode) AddReferenceFrom(source *StructNode, refType string) *Reference {
	return source.AddReferenceTo(n, refType)
}

// RemoveReferenceTo removes every outgoing edge from n to target, and the
// matching incoming edges on target.
func (n *StructNode) RemoveReferenceTo(target *StructNode) {
	kept := n.outRefs[:0:0]
	for _, r := range n.outRefs {
		if r.Target == target {
			target.removeInRef(r)
			continue
		}
		kept = append(kept, r)
	}
	n.outRefs = kept
}

// RemoveReferenceFrom removes every incoming edge from source to n, and the
// matching outgoing edges on source.
func (n *StructNode) RemoveReferenceFrom(source *StructNode) {
	source.RemoveReferenceTo(n)
}

func (n *StructNode) removeInRef(ref *Reference) {
	kept := n.inRefs[:0:0]
	for _, r := range n.inRefs {
		if r == ref {
			continue
		}
		kept = append(kept, r)
	}
	n.inRefs = kept
}

// ---- Content files ----

// AddContentFile links cf to n (with an optional area qualifier), ensuring
// the owning Document has a FileSet and registering n in cf's back-refs.
func (n *StructNode) AddContentFile(cf *ContentFile, area ...string) error {
	if n.doc != nil {
		if n.doc.Files == nil {
			n.doc.Files = NewFileSet()
		}
		n.doc.Files.Add(cf)
	}
	a := ""
	if len(area) > 0 {
		a = area[0]
	}
	n.contentFileRefs = append(n.contentFileRefs, ContentFileRef{File: cf, Area: a})
	cf.addBackRef(n)
	return nil
}

// RemoveContentFile unlinks every (cf, *) reference from n and deregisters
// n from cf's back-refs. Fails if cf was never referenced by n.
func (n *StructNode) RemoveContentFile(cf *ContentFile) error {
	found := false
	kept := n.contentFileRefs[:0:0]
	for _, r := range n.contentFileRefs {
		if r.File == cf {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return &ContentFileNotLinkedError{Location: cf.Location}
	}
	n.contentFileRefs = kept
	cf.removeBackRef(n)
	return nil
}

// ---- Queries ----

// GetAllChildrenByTypeAndMetadataType returns the direct children of n whose
// struct-type name matches structName and which carry at least one metadata
// entry of type mdName. "*" matches any value for either predicate.
func (n *StructNode) GetAllChildrenByTypeAndMetadataType(structName, mdName string) []*StructNode {
	var out []*StructNode
	for _, c := range n.children {
		if structName != "*" && c.typeName() != structName {
			continue
		}
		if mdName == "*" {
			out = append(out, c)
			continue
		}
		if c.countMetadataOfType(mdName) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// GetAllRealSuccessors descends through children of the same anchor class
// as n and returns the first descendant on each branch that either changes
// anchor class or has no anchor class at all, skipping pure pointer stubs.
func (n *StructNode) GetAllRealSuccessors() []*StructNode {
	var out []*StructNode
	myClass := n.AnchorClass()
	for _, c := range n.children {
		out = append(out, realSuccessorsOf(c, myClass)...)
	}
	return out
}

func realSuccessorsOf(n *StructNode, ancestorClass string) []*StructNode {
	if n.PointerStub {
		var out []*StructNode
		for _, c := range n.children {
			out = append(out, realSuccessorsOf(c, ancestorClass)...)
		}
		return out
	}
	if n.AnchorClass() != ancestorClass {
		return []*StructNode{n}
	}
	var out []*StructNode
	for _, c := range n.children {
		out = append(out, realSuccessorsOf(c, ancestorClass)...)
	}
	return out
}

// ---- Copy ----

// Copy deep-copies the subtree rooted at n. copyMetadata controls whether
// metadata/persons/groups are copied field-by-field; recursive is tri-state:
// true copies all descendants, nil copies only descendants sharing n's
// anchor class, false copies no descendants. Content-file references,
// cross-references and the AmdSec pointer are identity-bearing and are
// never copied.
func (n *StructNode) Copy(copyMetadata bool, recursive *bool) *StructNode {
	cp := &StructNode{
		Type:              n.Type,
		ID:                n.ID,
		ReferenceToAnchor: n.ReferenceToAnchor,
		Logical:           n.Logical,
		Physical:          n.Physical,
		PointerStub:       n.PointerStub,
		doc:               n.doc,
	}

	if copyMetadata {
		for _, m := range n.metadata {
			cp.metadata = append(cp.metadata, withNode(m.copy(), cp))
		}
		for _, p := range n.persons {
			cp.persons = append(cp.persons, withPersonNode(p.copy(), cp))
		}
		for _, g := range n.groups {
			gc := g.copy()
			gc.node = cp
			cp.groups = append(cp.groups, gc)
		}
	}

	switch {
	case recursive != nil && !*recursive:
		// No descendants copied.
	case recursive != nil && *recursive:
		for _, c := range n.children {
			childCopy := c.Copy(copyMetadata, recursive)
			childCopy.parent = cp
			cp.children = append(cp.children, childCopy)
		}
	default:
		// recursive == nil: only descendants sharing n's anchor class.
		for _, c := range n.children {
			if c.AnchorClass() != n.AnchorClass() {
				continue
			}
			childCopy := c.Copy(copyMetadata, recursive)
			childCopy.parent = cp
			cp.children = append(cp.children, childCopy)
		}
	}

	return cp
}

func withNode(m *Metadata, n *StructNode) *Metadata {
	if m == nil {
		return nil
	}
	m.node = n
	return m
}

func withPersonNode(p *Person, n *StructNode) *Person {
	if p == nil {
		return nil
	}
	p.node = n
	return p
}

// mptrAllowList names the foreign metadata/attribute types CopyTruncated
// retains on a stub one level below the anchor boundary: the METS-pointer
// element type and the label/orderlabel attribute types.
var mptrAllowList = map[string]bool{
	"MetsPointer": true,
	"label":       true,
	"orderlabel":  true,
}

// CopyTruncated produces a partial copy of the subtree rooted at n, which
// the caller is expected to invoke directly on the node of the anchor
// class whose sub-document is being produced. n itself keeps all its
// metadata/persons/groups; n's direct children are retained as structural
// stubs carrying only the allow-listed foreign types (the METS-pointer
// element type and the label/orderlabel attribute types); everything
// below that is a cutoff — stubs with no metadata and no further
// descendants. anchorClass is accepted for symmetry with the source API
// and to label the call's intent, but the truncation boundary is purely
// structural (depth from n), not a re-check of each descendant's own
// anchor class — a descendant can legitimately share n's anchor class
// (see the Article-under-Volume case) without being treated as a new root.
func (n *StructNode) CopyTruncated(anchorClass string, parent *StructNode) *StructNode {
	return n.copyTruncatedAt(parent, 0)
}

func (n *StructNode) copyTruncatedAt(parent *StructNode, depth int) *StructNode {
	cp := &StructNode{
		Type:              n.Type,
		ID:                n.ID,
		ReferenceToAnchor: n.ReferenceToAnchor,
		Logical:           n.Logical,
		Physical:          n.Physical,
		doc:               n.doc,
		parent:            parent,
	}

	switch depth {
	case 0:
		for _, m := range n.metadata {
			cp.metadata = append(cp.metadata, withNode(m.copy(), cp))
		}
		for _, p := range n.persons {
			cp.persons = append(cp.persons, withPersonNode(p.copy(), cp))
		}
		for _, g := range n.groups {
			gc := g.copy()
			gc.node = cp
			cp.groups = append(cp.groups, gc)
		}
		for _, c := range n.children {
			cp.children = append(cp.children, c.copyTruncatedAt(cp, depth+1))
		}
	case 1:
		cp.PointerStub = true
		for _, m := range n.metadata {
			if mptrAllowList[m.TypeName()] {
				cp.metadata = append(cp.metadata, withNode(m.copy(), cp))
			}
		}
		for _, c := range n.children {
			cp.children = append(cp.children, c.copyTruncatedAt(cp, depth+1))
		}
	default:
		cp.PointerStub = true
		// One level below the boundary is the cutoff: no further
		// descendants and no metadata are retained.
	}

	return cp
}

// ---- Equality ----

type pairKey struct{ a, b *StructNode }

// Equals implements the cycle-safe structural-equality relation of §4.2.
func (n *StructNode) Equals(other *StructNode) bool {
	return nodeEquals(n, other, make(map[pairKey]bool), make(map[pairKey]bool))
}

func nodeEquals(a, b *StructNode, visitedOut, visitedIn map[pairKey]bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Logical != b.Logical || a.Physical != b.Physical {
		return false
	}
	if a.ReferenceToAnchor != b.ReferenceToAnchor {
		return false
	}
	if a.typeName() != b.typeName() || a.AnchorClass() != b.AnchorClass() {
		return false
	}

	if !metadataSetEqual(a.metadata, b.metadata) {
		return false
	}
	if !groupSetEqual(a.groups, b.groups) {
		return false
	}
	if !personSetEqual(a.persons, b.persons) {
		return false
	}

	if len(a.children) != len(b.children) {
		return false
	}
	for i := range a.children {
		if !nodeEquals(a.children[i], b.children[i], visitedOut, visitedIn) {
			return false
		}
	}

	if len(a.contentFileRefs) != len(b.contentFileRefs) {
		return false
	}
	for i := range a.contentFileRefs {
		if !a.contentFileRefs[i].equals(b.contentFileRefs[i]) {
			return false
		}
	}

	if !refSetEqual(a.outRefs, b.outRefs, visitedOut, visitedIn, true) {
		return false
	}
	if !refSetEqual(a.inRefs, b.inRefs, visitedOut, visitedIn, false) {
		return false
	}

	return true
}

// refSetEqual implements point 5 of the equality relation: for every edge
// on the left, some edge on the right must have an equal endpoint node.
// outgoing selects whether Target (true) or Source (false) is compared.
// The outgoing and incoming traversals each keep their own visited map, so
// a cycle through out-refs and one through in-refs can't mask each other.
func refSetEqual(a, b []*Reference, visitedOut, visitedIn map[pairKey]bool, outgoing bool) bool {
	if len(a) != len(b) {
		return false
	}
	own := visitedIn
	if outgoing {
		own = visitedOut
	}
	used := make([]bool, len(b))
	for _, ra := range a {
		found := false
		for i, rb := range b {
			if used[i] || ra.Type != rb.Type {
				continue
			}
			var ea, eb *StructNode
			if outgoing {
				ea, eb = ra.Target, rb.Target
			} else {
				ea, eb = ra.Source, rb.Source
			}
			if endpointEquals(ea, eb, own, visitedOut, visitedIn) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func endpointEquals(a, b *StructNode, own, visitedOut, visitedIn map[pairKey]bool) bool {
	key := pairKey{a, b}
	if own[key] {
		return true
	}
	own[key] = true
	defer delete(own, key)

	return nodeEquals(a, b, visitedOut, visitedIn)
}
