// ABOUTME: RuleSet catalog: lookup of struct/metadata/group types by name
// ABOUTME: Read-only once loaded; LoadFromFile (load.go) parses it from disk

package ruleset

// RuleSet is the externally loaded schema that governs which struct types
// may contain which children, which metadata types may appear on which
// struct types, and with what cardinality. It is immutable after loading;
// digdoc's core never mutates a RuleSet, only queries it.
type RuleSet struct {
	structTypes   map[string]*StructType
	metadataTypes map[string]*MetadataType
	groupTypes    map[string]*MetadataGroupType
}

// New builds a RuleSet from already-parsed type catalogs. Concrete adapters
// (e.g. a rule-set-XML reader) are responsible for producing these slices;
// New just indexes them by name.
func New(structTypes []*StructType, metadataTypes []*MetadataType, groupTypes []*MetadataGroupType) *RuleSet {
	rs := &RuleSet{
		structTypes:   make(map[string]*StructType, len(structTypes)),
		metadataTypes: make(map[string]*MetadataType, len(metadataTypes)),
		groupTypes:    make(map[string]*MetadataGroupType, len(groupTypes)),
	}
	for _, st := range structTypes {
		rs.structTypes[st.Name] = st
	}
	for _, mt := range metadataTypes {
		rs.metadataTypes[mt.Name] = mt
	}
	for _, gt := range groupTypes {
		rs.groupTypes[gt.Name] = gt
	}
	return rs
}

// StructTypeByName looks up a StructType by its stable name.
func (rs *RuleSet) StructTypeByName(name string) *StructType {
	if rs == nil {
		return nil
	}
	return rs.structTypes[name]
}

// MetadataTypeByName looks up a MetadataType by its stable name.
func (rs *RuleSet) MetadataTypeByName(name string) *MetadataType {
	if rs == nil {
		return nil
	}
	return rs.metadataTypes[name]
}

// MetadataGroupTypeByName looks up a MetadataGroupType by its stable name.
func (rs *RuleSet) MetadataGroupTypeByName(name string) *MetadataGroupType {
	if rs == nil {
		return nil
	}
	return rs.groupTypes[name]
}

// AllStructTypes returns every declared StructType, in no particular order.
func (rs *RuleSet) AllStructTypes() []*StructType {
	out := make([]*StructType, 0, len(rs.structTypes))
	for _, st := range rs.structTypes {
		out = append(out, st)
	}
	return out
}

// AllowedMetadataTypes returns the metadata-type names declared on st, in
// declaration order.
func (rs *RuleSet) AllowedMetadataTypes(st *StructType) []string {
	if st == nil {
		return nil
	}
	out := make([]string, 0, len(st.AllowedMetadata))
	for _, am := range st.AllowedMetadata {
		out = append(out, am.TypeName)
	}
	return out
}

// CardinalityOf returns the declared cardinality for a metadata type on a
// struct type, and whether the type is declared at all.
func (rs *RuleSet) CardinalityOf(st *StructType, mdTypeName string) (Cardinality, bool) {
	if st == nil {
		return "", false
	}
	rule := st.metadataRule(mdTypeName)
	if rule == nil {
		return "", false
	}
	return rule.Cardinality, true
}

// GroupCardinalityOf returns the declared cardinality for a metadata-group
// type on a struct type, and whether the type is declared at all.
func (rs *RuleSet) GroupCardinalityOf(st *StructType, groupTypeName string) (Cardinality, bool) {
	if st == nil {
		return "", false
	}
	rule := st.groupRule(groupTypeName)
	if rule == nil {
		return "", false
	}
	return rule.Cardinality, true
}

// DefaultDisplay returns the metadata-type names flagged default-display on
// a struct type, in declaration order.
func (rs *RuleSet) DefaultDisplay(st *StructType) []string {
	if st == nil {
		return nil
	}
	var out []string
	for _, am := range st.AllowedMetadata {
		if am.DefaultDisplay {
			out = append(out, am.TypeName)
		}
	}
	return out
}

// DeclOrderIndex returns a lookup from metadata-type name to its declared
// position on st (used by Document.SortMetadataRecursively). Types not
// declared on st are absent from the map.
func DeclOrderIndex(st *StructType) map[string]int {
	idx := make(map[string]int, len(st.AllowedMetadata))
	for i, am := range st.AllowedMetadata {
		idx[am.TypeName] = i
	}
	return idx
}
