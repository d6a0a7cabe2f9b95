// ABOUTME: Document: owns the two tree roots, the file set and the AmdSec
// ABOUTME: Provides the struct-node factory, recursive sort and deep copy

package docmodel

import (
	"github.com/google/uuid"

	"github.com/nainya/digdoc/pkg/ruleset"
)

// Document owns a logical root (optional), a physical root (optional), a
// FileSet, and an optional administrative-metadata section.
type Document struct {
	LogicalRoot  *StructNode
	PhysicalRoot *StructNode
	Files        *FileSet
	AmdSec       *AmdSec

	rules *ruleset.RuleSet
}

// New constructs an empty Document bound to rs. rs is consulted by
// CreateStructNode and SortMetadataRecursively; it is never mutated.
func New(rs *ruleset.RuleSet) *Document {
	return &Document{rules: rs, Files: NewFileSet()}
}

// RuleSet returns the RuleSet the document was constructed with.
func (d *Document) RuleSet() *ruleset.RuleSet { return d.rules }

// CreateStructNode returns a fresh node bound to this document, of the
// given struct type. The node is assigned a random UUID as its default ID;
// callers that need a stable, format-derived ID (e.g. a METS xml:id) set
// StructNode.ID themselves after creation.
func (d *Document) CreateStructNode(st *ruleset.StructType) *StructNode {
	return &StructNode{ID: uuid.NewString(), Type: st, doc: d}
}

// CreateStructNodeByName looks up st by name in the document's rule set and
// creates a node of that type. Fails with TypeNotAllowedForParentError if
// the rule set has no such struct type.
func (d *Document) CreateStructNodeByName(typeName string) (*StructNode, error) {
	st := d.rules.StructTypeByName(typeName)
	if st == nil {
		return nil, &TypeNotAllowedForParentError{ChildType: typeName}
	}
	return d.CreateStructNode(st), nil
}

// SetLogicalRoot installs root as the logical tree root, propagating
// Logical=true/Physical=false to the whole subtree.
func (d *Document) SetLogicalRoot(root *StructNode) {
	d.LogicalRoot = root
	if root == nil {
		return
	}
	root.parent = nil
	root.doc = d
	propagateFlags(root, true, false)
}

// SetPhysicalRoot installs root as the physical tree root, propagating
// Logical=false/Physical=true to the whole subtree.
func (d *Document) SetPhysicalRoot(root *StructNode) {
	d.PhysicalRoot = root
	if root == nil {
		return
	}
	root.parent = nil
	root.doc = d
	propagateFlags(root, false, true)
}

// SortMetadataRecursively walks both trees and, at each node, reorders its
// metadata and persons so their order matches the declaration order of
// their types on the node's StructType in rs. Items whose type isn't
// declared there are appended at the end in their original relative order.
func (d *Document) SortMetadataRecursively(rs *ruleset.RuleSet) {
	if d.LogicalRoot != nil {
		sortNodeRecursively(d.LogicalRoot, rs)
	}
	if d.PhysicalRoot != nil {
		sortNodeRecursively(d.PhysicalRoot, rs)
	}
}

func sortNodeRecursively(n *StructNode, rs *ruleset.RuleSet) {
	if n.Type != nil {
		order := ruleset.DeclOrderIndex(n.Type)
		n.metadata = stablePartitionMetadata(n.metadata, order)
		n.persons = stablePartitionPersons(n.persons, order)
	}
	for _, c := range n.children {
		sortNodeRecursively(c, rs)
	}
}

// stablePartitionMetadata performs the two-pass declared-order sort: first
// pass emits declared types in declaration order (each type's own entries
// keep relative order among themselves), second pass appends leftovers
// (types absent from order) in their original relative order.
func stablePartitionMetadata(items []*Metadata, order map[string]int) []*Metadata {
	declared := make([]*Metadata, 0, len(items))
	leftover := make([]*Metadata, 0)
	for _, m := range items {
		if _, ok := order[m.TypeName()]; ok {
			declared = append(declared, m)
		} else {
			leftover = append(leftover, m)
		}
	}
	sortByDeclOrder(declared, order, func(m *Metadata) string { return m.TypeName() })
	return append(declared, leftover...)
}

func stablePartitionPersons(items []*Person, order map[string]int) []*Person {
	declared := make([]*Person, 0, len(items))
	leftover := make([]*Person, 0)
	for _, p := range items {
		if _, ok := order[p.TypeName()]; ok {
			declared = append(declared, p)
		} else {
			leftover = append(leftover, p)
		}
	}
	sortByDeclOrder(declared, order, func(p *Person) string { return p.TypeName() })
	return append(declared, leftover...)
}

// sortByDeclOrder stable-sorts items by order[key(item)] using a plain
// insertion sort: the lists involved are the handful of metadata entries on
// one node, never large enough to warrant sort.Slice's overhead.
func sortByDeclOrder[T any](items []T, order map[string]int, key func(T) string) {
	for i := 1; i < len(items); i++ {
		j := i
		for j > 0 && order[key(items[j-1])] > order[key(items[j])] {
			items[j-1], items[j] = items[j], items[j-1]
			j--
		}
	}
}

// SortMetadataRecursivelyAbcdefg reorders every node's metadata and persons
// lexicographically by type name, ignoring the rule set's declared order.
func (d *Document) SortMetadataRecursivelyAbcdefg() {
	if d.LogicalRoot != nil {
		sortNodeLexically(d.LogicalRoot)
	}
	if d.PhysicalRoot != nil {
		sortNodeLexically(d.PhysicalRoot)
	}
}

func sortNodeLexically(n *StructNode) {
	for i := 1; i < len(n.metadata); i++ {
		j := i
		for j > 0 && n.metadata[j-1].TypeName() > n.metadata[j].TypeName() {
			n.metadata[j-1], n.metadata[j] = n.metadata[j], n.metadata[j-1]
			j--
		}
	}
	for i := 1; i < len(n.persons); i++ {
		j := i
		for j > 0 && n.persons[j-1].TypeName() > n.persons[j].TypeName() {
			n.persons[j-1], n.persons[j] = n.persons[j], n.persons[j-1]
			j--
		}
	}
	for _, c := range n.children {
		sortNodeLexically(c)
	}
}

// Equals compares two documents: both logical roots must be structurally
// equal (§4.2), and both physical roots must be. A fast path handles the
// (nil, nil)/(nil, non-nil)/(non-nil, nil) cases before recursing.
func (d *Document) Equals(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	return rootsEqual(d.LogicalRoot, other.LogicalRoot) && rootsEqual(d.PhysicalRoot, other.PhysicalRoot)
}

func rootsEqual(a, b *StructNode) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equals(b)
}

// Copy deep-copies the whole document: both trees, the file set, and the
// cross-tree reference graph (remapped so that references in the copy
// point at the copy's own nodes). The AmdSec is reattached by reference,
// not copied, since it carries opaque XML fragments that are not the
// document model's to duplicate.
func (d *Document) Copy() *Document {
	cp := &Document{rules: d.rules, AmdSec: d.AmdSec}

	fileMap := make(map[*ContentFile]*ContentFile)
	cp.Files = NewFileSet()
	if d.Files != nil {
		for _, f := range d.Files.Files() {
			nf := &ContentFile{Location: f.Location, MimeType: f.MimeType, Representative: f.Representative}
			fileMap[f] = nf
			cp.Files.Add(nf)
		}
	}

	nodeMap := make(map[*StructNode]*StructNode)
	if d.LogicalRoot != nil {
		cp.LogicalRoot = cloneStructure(d.LogicalRoot, nil, cp, nodeMap)
	}
	if d.PhysicalRoot != nil {
		cp.PhysicalRoot = cloneStructure(d.PhysicalRoot, nil, cp, nodeMap)
	}

	for orig, copied := range nodeMap {
		for _, r := range orig.contentFileRefs {
			nf := fileMap[r.File]
			copied.contentFileRefs = append(copied.contentFileRefs, ContentFileRef{File: nf, Area: r.Area})
			if nf != nil {
				nf.addBackRef(copied)
			}
		}
	}
	for orig, copied := range nodeMap {
		for _, r := range orig.outRefs {
			if tgt, ok := nodeMap[r.Target]; ok {
				copied.AddReferenceTo(tgt, r.Type)
			}
		}
	}

	return cp
}

// cloneStructure recursively clones the tree/metadata skeleton (not
// content-file refs or cross-references, which need the full node map
// built first) and records orig -> copy in nodeMap.
func cloneStructure(orig, parent *StructNode, doc *Document, nodeMap map[*StructNode]*StructNode) *StructNode {
	cp := &StructNode{
		Type:              orig.Type,
		ID:                orig.ID,
		ReferenceToAnchor: orig.ReferenceToAnchor,
		Logical:           orig.Logical,
		Physical:          orig.Physical,
		PointerStub:       orig.PointerStub,
		AmdSecRef:         orig.AmdSecRef,
		TechMds:           orig.TechMds,
		doc:               doc,
		parent:            parent,
	}
	nodeMap[orig] = cp

	for _, m := range orig.metadata {
		cp.metadata = append(cp.metadata, withNode(m.copy(), cp))
	}
	for _, p := range orig.persons {
		cp.persons = append(cp.persons, withPersonNode(p.copy(), cp))
	}
	for _, g := range orig.groups {
		gc := g.copy()
		gc.node = cp
		cp.groups = append(cp.groups, gc)
	}
	for _, c := range orig.children {
		cp.children = append(cp.children, cloneStructure(c, cp, doc, nodeMap))
	}
	return cp
}
