// ABOUTME: Typed value carriers attached to struct nodes: Metadata, Person, MetadataGroup
// ABOUTME: Person is composed from the shared Entry fields rather than inheriting Metadata

package docmodel

import "github.com/nainya/digdoc/pkg/ruleset"

// Entry holds the fields common to both a plain Metadata value and a
// Person: the rule-set type, the owning node back-pointer, the optional
// qualifier pair, and the optional authority triple. Metadata and Person
// compose Entry instead of one inheriting from the other (ugh's Person
// extends Metadata; digdoc keeps them as sibling variants sharing a field
// set, per the rule-set's own isPerson flag distinguishing them).
type Entry struct {
	Type *ruleset.MetadataType

	Qualifier     string
	QualifierType string

	AuthorityID    string
	AuthorityURI   string
	AuthorityValue string

	node *StructNode
}

// TypeName returns the entry's metadata-type name, or "" if untyped.
func (e *Entry) TypeName() string {
	if e == nil || e.Type == nil {
		return ""
	}
	return e.Type.Name
}

// HasAuthority reports whether this entry carries an authority triple.
func (e *Entry) HasAuthority() bool {
	return e.AuthorityID != "" || e.AuthorityURI != "" || e.AuthorityValue != ""
}

func entryEquals(a, b *Entry) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.TypeName() != b.TypeName() {
		return false
	}
	return a.Qualifier == b.Qualifier &&
		a.QualifierType == b.QualifierType &&
		a.AuthorityID == b.AuthorityID &&
		a.AuthorityURI == b.AuthorityURI &&
		a.AuthorityValue == b.AuthorityValue
}

// Metadata is a (type, value, owning node) triple, optionally augmented
// with a qualifier pair and an authority triple.
type Metadata struct {
	Entry
	Value string
}

// NewMetadata constructs a detached Metadata value for the given type.
func NewMetadata(t *ruleset.MetadataType, value string) *Metadata {
	return &Metadata{Entry: Entry{Type: t}, Value: value}
}

// Node returns the struct node this metadata is attached to, or nil.
func (m *Metadata) Node() *StructNode {
	if m == nil {
		return nil
	}
	return m.node
}

// Equals implements the field-by-field, null-safe comparison used by the
// structural-equality relation (§4.2 of the model).
func (m *Metadata) Equals(other *Metadata) bool {
	if m == nil || other == nil {
		return m == other
	}
	return entryEquals(&m.Entry, &other.Entry) && m.Value == other.Value
}

// copy returns a detached, field-by-field copy (not attached to any node).
func (m *Metadata) copy() *Metadata {
	if m == nil {
		return nil
	}
	cp := *m
	cp.node = nil
	return &cp
}

// Person extends the shared Entry with person-specific fields. Role
// defaults to the owning metadata type's name when left blank.
type Person struct {
	Entry

	FirstName   string
	LastName    string
	DisplayName string
	Affiliation string
	Institution string
	Role        string
	PersonType  string
	IsCorporation bool
}

// NewPerson constructs a detached Person for the given type. Role defaults
// to the type's name, matching the source's default-role behavior.
func NewPerson(t *ruleset.MetadataType) *Person {
	p := &Person{Entry: Entry{Type: t}}
	if t != nil {
		p.Role = t.Name
	}
	return p
}

// Node returns the struct node this person is attached to, or nil.
func (p *Person) Node() *StructNode {
	if p == nil {
		return nil
	}
	return p.node
}

// Equals implements field-by-field, null-safe comparison.
func (p *Person) Equals(other *Person) bool {
	if p == nil || other == nil {
		return p == other
	}
	return entryEquals(&p.Entry, &other.Entry) &&
		p.FirstName == other.FirstName &&
		p.LastName == other.LastName &&
		p.DisplayName == other.DisplayName &&
		p.Affiliation == other.Affiliation &&
		p.Institution == other.Institution &&
		p.Role == other.Role &&
		p.PersonType == other.PersonType &&
		p.IsCorporation == other.IsCorporation
}

func (p *Person) copy() *Person {
	if p == nil {
		return nil
	}
	cp := *p
	cp.node = nil
	return &cp
}

// MetadataGroup is a labeled bundle of Metadata and Person entries sharing
// a MetadataGroupType.
type MetadataGroup struct {
	Type     *ruleset.MetadataGroupType
	Metadata []*Metadata
	Persons  []*Person

	node *StructNode
}

// NewMetadataGroup constructs a detached, empty group of the given type.
func NewMetadataGroup(t *ruleset.MetadataGroupType) *MetadataGroup {
	return &MetadataGroup{Type: t}
}

// Node returns the struct node this group is attached to, or nil.
func (g *MetadataGroup) Node() *StructNode {
	if g == nil {
		return nil
	}
	return g.node
}

func (g *MetadataGroup) typeName() string {
	if g == nil || g.Type == nil {
		return ""
	}
	return g.Type.Name
}

// Equals compares two groups by type name and order-insensitive set
// equality of their member entries.
func (g *MetadataGroup) Equals(other *MetadataGroup) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.typeName() != other.typeName() {
		return false
	}
	if len(g.Metadata) != len(other.Metadata) || len(g.Persons) != len(other.Persons) {
		return false
	}
	if !metadataSetEqual(g.Metadata, other.Metadata) {
		return false
	}
	return personSetEqual(g.Persons, other.Persons)
}

func (g *MetadataGroup) copy() *MetadataGroup {
	if g == nil {
		return nil
	}
	cp := &MetadataGroup{Type: g.Type}
	for _, m := range g.Metadata {
		cp.Metadata = append(cp.Metadata, m.copy())
	}
	for _, p := range g.Persons {
		cp.Persons = append(cp.Persons, p.copy())
	}
	return cp
}

func metadataSetEqual(a, b []*Metadata) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, x := range a {
		found := false
		for i, y := range b {
			if used[i] {
				continue
			}
			if x.Equals(y) {
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

func personSetEqual(a, b []*Person) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, x := range a {
		found := false
		for i, y := range b {
			if used[i] {
				continue
			}
			if x.Equals(y) {
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

func groupSetEqual(a, b []*MetadataGroup) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, x := range a {
		found := false
		for i, y := range b {
			if used[i] {
				continue
			}
			if x.Equals(y) {
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
