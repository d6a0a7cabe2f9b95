// ABOUTME: LoadFromFile parses an on-disk rule-set document into a RuleSet
// ABOUTME: Uses stdlib encoding/xml: the schema is digdoc's own, not a third-party wire format

package ruleset

import (
	"encoding/xml"
	"fmt"
	"os"
)

// xmlRuleSet mirrors the on-disk shape of a rule-set file: a flat list of
// struct types, metadata types and metadata-group types. Unlike the METS/MODS
// and RDF document formats, which are genuinely external wire formats and
// belong behind the fileformat.FileFormat adapter boundary, the rule-set file
// is digdoc's own schema-description format — there is no third-party parser
// in the corpus for a schema shaped like this, so stdlib encoding/xml is used
// directly rather than introduced as an adapter.
type xmlRuleSet struct {
	XMLName       xml.Name        `xml:"RuleSet"`
	StructTypes   []xmlStructType `xml:"StructType"`
	MetadataTypes []xmlMDType     `xml:"MetadataType"`
	GroupTypes    []xmlGroupType  `xml:"MetadataGroupType"`
}

type xmlStructType struct {
	Name            string             `xml:"name,attr"`
	AnchorClass     string             `xml:"anchorClass,attr"`
	AllowedChildren []string           `xml:"AllowedChild"`
	AllowedMetadata []xmlAllowedMDType `xml:"AllowedMetadata"`
	AllowedGroups   []xmlAllowedGroup  `xml:"AllowedGroup"`
}

type xmlAllowedMDType struct {
	TypeName       string `xml:"typeName,attr"`
	Cardinality    string `xml:"cardinality,attr"`
	DefaultDisplay bool   `xml:"defaultDisplay,attr"`
}

type xmlAllowedGroup struct {
	TypeName    string `xml:"typeName,attr"`
	Cardinality string `xml:"cardinality,attr"`
}

type xmlMDType struct {
	Name         string     `xml:"name,attr"`
	IsPerson     bool       `xml:"isPerson,attr"`
	IsIdentifier bool       `xml:"isIdentifier,attr"`
	Labels       []xmlLabel `xml:"Label"`
}

type xmlGroupType struct {
	Name    string     `xml:"name,attr"`
	Labels  []xmlLabel `xml:"Label"`
	Members []string   `xml:"Member"`
}

type xmlLabel struct {
	Lang  string `xml:"lang,attr"`
	Value string `xml:",chardata"`
}

func labelMap(labels []xmlLabel) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	out := make(map[string]string, len(labels))
	for _, l := range labels {
		out[l.Lang] = l.Value
	}
	return out
}

// LoadFromFile reads and parses a rule-set document at path, returning the
// assembled RuleSet. It fails with a wrapped error on I/O failure or on
// malformed XML; it does not validate cross-references (e.g. an
// AllowedChild naming a struct type that doesn't exist) — such a name is
// loaded as-is and simply never matches a node's type.
func LoadFromFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ruleset: read %s: %w", path, err)
	}

	var parsed xmlRuleSet
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("ruleset: parse %s: %w", path, err)
	}

	structTypes := make([]*StructType, 0, len(parsed.StructTypes))
	for _, st := range parsed.StructTypes {
		allowedMD := make([]AllowedMetadata, 0, len(st.AllowedMetadata))
		for _, am := range st.AllowedMetadata {
			allowedMD = append(allowedMD, AllowedMetadata{
				TypeName:       am.TypeName,
				Cardinality:    Cardinality(am.Cardinality),
				DefaultDisplay: am.DefaultDisplay,
			})
		}
		allowedGroups := make([]AllowedGroup, 0, len(st.AllowedGroups))
		for _, ag := range st.AllowedGroups {
			allowedGroups = append(allowedGroups, AllowedGroup{
				TypeName:    ag.TypeName,
				Cardinality: Cardinality(ag.Cardinality),
			})
		}
		structTypes = append(structTypes, &StructType{
			Name:            st.Name,
			AnchorClass:     st.AnchorClass,
			AllowedChildren: append([]string{}, st.AllowedChildren...),
			AllowedMetadata: allowedMD,
			AllowedGroups:   allowedGroups,
		})
	}

	metadataTypes := make([]*MetadataType, 0, len(parsed.MetadataTypes))
	for _, mt := range parsed.MetadataTypes {
		metadataTypes = append(metadataTypes, &MetadataType{
			Name:         mt.Name,
			Labels:       labelMap(mt.Labels),
			IsPerson:     mt.IsPerson,
			IsIdentifier: mt.IsIdentifier,
		})
	}

	groupTypes := make([]*MetadataGroupType, 0, len(parsed.GroupTypes))
	for _, gt := range parsed.GroupTypes {
		groupTypes = append(groupTypes, &MetadataGroupType{
			Name:    gt.Name,
			Labels:  labelMap(gt.Labels),
			Members: append([]string{}, gt.Members...),
		})
	}

	return New(structTypes, metadataTypes, groupTypes), nil
}
