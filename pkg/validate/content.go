// ABOUTME: Content-validator: mandatory-field and reference-completeness checks
// ABOUTME: Violations are collected and reported but never abort the walk

package validate

import (
	"fmt"

	"github.com/nainya/digdoc/pkg/docmodel"
	"github.com/nainya/digdoc/pkg/ruleset"
)

// ContentReport collects every violation found by ContentValidator.Validate.
// A report with no violations is not itself "ok" unless the logical root
// existed in the first place; see ContentReport.OK.
type ContentReport struct {
	DocumentID string
	Violations []string
}

// OK reports whether the document passed content validation: a logical
// root was present and no violation was recorded.
func (r *ContentReport) OK() bool {
	return r != nil && len(r.Violations) == 0
}

func (r *ContentReport) add(format string, args ...interface{}) {
	r.Violations = append(r.Violations, fmt.Sprintf(format, args...))
}

// ContentValidator checks mandatory-field cardinality and cross-tree
// reference completeness against a RuleSet.
type ContentValidator struct{}

// Validate runs the content checks against doc under rs, identifying the
// document as id in the resulting report. Every violation is recorded;
// none of them abort the walk.
func (ContentValidator) Validate(doc *docmodel.Document, rs *ruleset.RuleSet, id string) *ContentReport {
	report := &ContentReport{DocumentID: id}

	if doc == nil || doc.LogicalRoot == nil {
		report.add("document %s: logical root is missing", id)
		return report
	}

	walkLogical(doc.LogicalRoot, rs, report)
	checkPageIncomingRefs(doc, report)

	return report
}

func walkLogical(n *docmodel.StructNode, rs *ruleset.RuleSet, report *ContentReport) {
	if n.AnchorClass() == "" && len(n.OutRefs()) == 0 {
		report.add("logical node %s (%s): no outgoing reference to a page", n.ID, typeNameOf(n))
	}

	checkCardinalities(n, rs, report)

	for _, c := range n.Children() {
		walkLogical(c, rs, report)
	}
}

func checkCardinalities(n *docmodel.StructNode, rs *ruleset.RuleSet, report *ContentReport) {
	if n.Type == nil {
		return
	}
	for _, am := range n.Type.AllowedMetadata {
		count := 0
		emptyMandatory := false
		for _, m := range n.Metadata() {
			if m.TypeName() != am.TypeName {
				continue
			}
			count++
			if am.Cardinality == ruleset.CardMandatory && m.Value == "" {
				emptyMandatory = true
			}
		}
		for _, p := range n.Persons() {
			if p.TypeName() == am.TypeName {
				count++
			}
		}

		switch am.Cardinality {
		case ruleset.CardMandatory:
			if count != 1 {
				report.add("node %s (%s): %q must occur exactly once, found %d", n.ID, typeNameOf(n), am.TypeName, count)
			}
			if emptyMandatory {
				report.add("node %s (%s): mandatory field %q is empty", n.ID, typeNameOf(n), am.TypeName)
			}
		case ruleset.CardOptional:
			if count > 1 {
				report.add("node %s (%s): %q allows at most one occurrence, found %d", n.ID, typeNameOf(n), am.TypeName, count)
			}
		case ruleset.CardAtLeastOne:
			if count < 1 {
				report.add("node %s (%s): %q requires at least one occurrence, found %d", n.ID, typeNameOf(n), am.TypeName, count)
			}
		}
	}
}

func checkPageIncomingRefs(doc *docmodel.Document, report *ContentReport) {
	if doc.PhysicalRoot == nil {
		return
	}
	var walk func(n *docmodel.StructNode)
	walk = func(n *docmodel.StructNode) {
		if len(n.Children()) == 0 {
			if !hasLogicalIncomingRef(n) {
				report.add("page %s: no incoming reference from a logical node", n.ID)
			}
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(doc.PhysicalRoot)
}

func hasLogicalIncomingRef(n *docmodel.StructNode) bool {
	for _, r := range n.InRefs() {
		if r.Source != nil && r.Source.Logical {
			return true
		}
	}
	return false
}

func typeNameOf(n *docmodel.StructNode) string {
	if n == nil || n.Type == nil {
		return ""
	}
	return n.Type.Name
}
