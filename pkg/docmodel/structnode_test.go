// ABOUTME: Tests for StructNode mutation, rule-checked metadata, equality and copy
// ABOUTME: Covers the concrete scenarios from the cardinality/child-type/equality contract

package docmodel

import (
	"testing"

	"github.com/nainya/digdoc/pkg/ruleset"
)

func testRuleSet() *ruleset.RuleSet {
	monograph := &ruleset.StructType{
		Name:            "Monograph",
		AllowedChildren: []string{"Chapter"},
		AllowedMetadata: []ruleset.AllowedMetadata{
			{TypeName: "TitleDocMain", Cardinality: ruleset.CardMandatory},
			{TypeName: "Author", Cardinality: ruleset.CardAny},
		},
	}
	chapter := &ruleset.StructType{Name: "Chapter"}
	page := &ruleset.StructType{Name: "Page", AllowedMetadata: []ruleset.AllowedMetadata{
		{TypeName: "physPageNumber", Cardinality: ruleset.CardMandatory},
		{TypeName: "logicalPageNumber", Cardinality: ruleset.CardMandatory},
	}}

	title := &ruleset.MetadataType{Name: "TitleDocMain"}
	author := &ruleset.MetadataType{Name: "Author", IsPerson: true}
	pp := &ruleset.MetadataType{Name: "physPageNumber"}
	lp := &ruleset.MetadataType{Name: "logicalPageNumber"}

	return ruleset.New(
		[]*ruleset.StructType{monograph, chapter, page},
		[]*ruleset.MetadataType{title, author, pp, lp},
		nil,
	)
}

func TestAddChildRejectsDisallowedType(t *testing.T) {
	rs := testRuleSet()
	doc := New(rs)

	mono, _ := doc.CreateStructNodeByName("Monograph")
	page, _ := doc.CreateStructNodeByName("Page")

	err := mono.AddChild(page)
	if err == nil {
		t.Fatalf("expected TypeNotAllowedAsChildError adding Page under Monograph")
	}
	if _, ok := err.(*TypeNotAllowedAsChildError); !ok {
		t.Errorf("expected TypeNotAllowedAsChildError, got %T", err)
	}
	if len(mono.Children()) != 0 {
		t.Errorf("expected Monograph.children unchanged, got %d children", len(mono.Children()))
	}
}

func TestAddChildDetachesFromPriorParent(t *testing.T) {
	rs := testRuleSet()
	doc := New(rs)

	monoA, _ := doc.CreateStructNodeByName("Monograph")
	monoB, _ := doc.CreateStructNodeByName("Monograph")
	chapter, _ := doc.CreateStructNodeByName("Chapter")

	if err := monoA.AddChild(chapter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := monoB.AddChild(chapter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if chapter.Parent() != monoB {
		t.Errorf("expected chapter's parent to be monoB")
	}
	if len(monoA.Children()) != 0 {
		t.Errorf("expected chapter detached from monoA, got %d children", len(monoA.Children()))
	}
	if len(monoB.Children()) != 1 {
		t.Errorf("expected chapter attached to monoB")
	}
}

func TestRemoveChildAndMoveChild(t *testing.T) {
	rs := testRuleSet()
	doc := New(rs)
	mono, _ := doc.CreateStructNodeByName("Monograph")
	c1, _ := doc.CreateStructNodeByName("Chapter")
	c2, _ := doc.CreateStructNodeByName("Chapter")
	c3, _ := doc.CreateStructNodeByName("Chapter")
	mono.AddChild(c1)
	mono.AddChild(c2)
	mono.AddChild(c3)

	if !mono.MoveChild(c3, 0) {
		t.Fatalf("expected MoveChild to find c3")
	}
	got := mono.Children()
	if got[0] != c3 || got[1] != c1 || got[2] != c2 {
		t.Errorf("unexpected order after move: %v", got)
	}

	if !mono.RemoveChild(c1) {
		t.Fatalf("expected RemoveChild to find c1")
	}
	if c1.Parent() != nil {
		t.Errorf("expected c1.parent to be nil after removal")
	}
	if len(mono.Children()) != 2 {
		t.Errorf("expected 2 children remaining, got %d", len(mono.Children()))
	}

	if mono.RemoveChild(c1) {
		t.Errorf("expected second RemoveChild(c1) to report not-found")
	}
}

func TestAddMetadataCardinalityRejection(t *testing.T) {
	rs := testRuleSet()
	doc := New(rs)
	mono, _ := doc.CreateStructNodeByName("Monograph")

	md1 := NewMetadata(rs.MetadataTypeByName("TitleDocMain"), "A")
	if err := mono.AddMetadata(md1); err != nil {
		t.Fatalf("unexpected error adding first title: %v", err)
	}

	md2 := NewMetadata(rs.MetadataTypeByName("TitleDocMain"), "B")
	err := mono.AddMetadata(md2)
	if err == nil {
		t.Fatalf("expected MetadataTypeNotAllowedError on second mandatory title")
	}
	if _, ok := err.(*MetadataTypeNotAllowedError); !ok {
		t.Errorf("expected MetadataTypeNotAllowedError, got %T", err)
	}

	count := 0
	for _, m := range mono.Metadata() {
		if m.TypeName() == "TitleDocMain" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly 1 TitleDocMain, got %d", count)
	}
}

func TestAddMetadataRebindsCanonicalType(t *testing.T) {
	rs := testRuleSet()
	doc := New(rs)
	mono, _ := doc.CreateStructNodeByName("Monograph")

	// A detached type object with the same name but a different pointer.
	detached := &ruleset.MetadataType{Name: "TitleDocMain"}
	md := NewMetadata(detached, "Hello")
	if err := mono.AddMetadata(md); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if md.Type != rs.MetadataTypeByName("TitleDocMain") {
		t.Errorf("expected md.Type to be rebound to the canonical rule-set type")
	}
	if md.TypeName() != "TitleDocMain" {
		t.Errorf("expected type name unchanged, got %q", md.TypeName())
	}
}

func TestAddMetadataOnUntypedNode(t *testing.T) {
	n := &StructNode{}
	md := NewMetadata(&ruleset.MetadataType{Name: "X"}, "v")
	err := n.AddMetadata(md)
	if _, ok := err.(*DocStructHasNoTypeError); !ok {
		t.Errorf("expected DocStructHasNoTypeError, got %T", err)
	}
}

func TestHiddenMetadataUnlimited(t *testing.T) {
	rs := testRuleSet()
	doc := New(rs)
	mono, _ := doc.CreateStructNodeByName("Monograph")

	for i := 0; i < 3; i++ {
		md := NewMetadata(&ruleset.MetadataType{Name: "_note"}, "v")
		if err := mono.AddMetadata(md); err != nil {
			t.Fatalf("unexpected error adding hidden metadata #%d: %v", i, err)
		}
	}
}

func TestAddPersonRejectsMissingPersonType(t *testing.T) {
	rs := testRuleSet()
	doc := New(rs)
	mono, _ := doc.CreateStructNodeByName("Monograph")

	p := NewPerson(rs.MetadataTypeByName("Author"))
	err := mono.AddPerson(p)
	if _, ok := err.(*IncompletePersonObjectError); !ok {
		t.Fatalf("expected IncompletePersonObjectError, got %T (%v)", err, err)
	}
	if len(mono.Persons()) != 0 {
		t.Errorf("expected no person attached after rejected AddPerson")
	}

	p.PersonType = "author"
	if err := mono.AddPerson(p); err != nil {
		t.Fatalf("unexpected error once PersonType is set: %v", err)
	}
	if len(mono.Persons()) != 1 {
		t.Errorf("expected person attached once PersonType is set")
	}
}

func TestRemovePersonRejectsMissingPersonType(t *testing.T) {
	rs := testRuleSet()
	doc := New(rs)
	mono, _ := doc.CreateStructNodeByName("Monograph")

	p := NewPerson(rs.MetadataTypeByName("Author"))
	p.PersonType = "author"
	if err := mono.AddPerson(p); err != nil {
		t.Fatalf("unexpected error adding person: %v", err)
	}

	p.PersonType = ""
	ok, err := mono.RemovePerson(p)
	if ok || err == nil {
		t.Fatalf("expected removal to be rejected once PersonType is cleared, got ok=%v err=%v", ok, err)
	}
	if _, isIncomplete := err.(*IncompletePersonObjectError); !isIncomplete {
		t.Errorf("expected IncompletePersonObjectError, got %T", err)
	}
	if len(mono.Persons()) != 1 {
		t.Errorf("expected person to remain attached after rejected removal")
	}

	p.PersonType = "author"
	ok, err = mono.RemovePerson(p)
	if !ok || err != nil {
		t.Fatalf("expected successful removal, got ok=%v err=%v", ok, err)
	}
	if len(mono.Persons()) != 0 {
		t.Errorf("expected no persons remaining")
	}
}

func TestReferenceAddAndRemoveIsSymmetric(t *testing.T) {
	rs := testRuleSet()
	doc := New(rs)
	a, _ := doc.CreateStructNodeByName("Monograph")
	b, _ := doc.CreateStructNodeByName("Page")

	ref := a.AddReferenceTo(b, "logical_physical")
	if len(a.OutRefs()) != 1 || a.OutRefs()[0] != ref {
		t.Fatalf("expected ref in a.OutRefs()")
	}
	if len(b.InRefs()) != 1 || b.InRefs()[0] != ref {
		t.Fatalf("expected ref in b.InRefs()")
	}

	a.RemoveReferenceTo(b)
	if len(a.OutRefs()) != 0 {
		t.Errorf("expected a.OutRefs() empty after removal")
	}
	if len(b.InRefs()) != 0 {
		t.Errorf("expected b.InRefs() empty after removal")
	}
}

func TestContentFileLifecycle(t *testing.T) {
	rs := testRuleSet()
	doc := New(rs)
	page, _ := doc.CreateStructNodeByName("Page")

	cf := NewContentFile("/scans/0001.tif", "image/tiff")
	if err := page.AddContentFile(cf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Files.Contains(cf) {
		t.Errorf("expected document FileSet to contain cf")
	}
	if len(cf.BackReferences()) != 1 {
		t.Errorf("expected 1 back-reference, got %d", len(cf.BackReferences()))
	}

	if err := page.RemoveContentFile(cf); err != nil {
		t.Fatalf("unexpected error removing content file: %v", err)
	}
	if len(page.ContentFileRefs()) != 0 {
		t.Errorf("expected no content file refs remaining")
	}
	if len(cf.BackReferences()) != 0 {
		t.Errorf("expected back-reference removed")
	}

	err := page.RemoveContentFile(cf)
	if _, ok := err.(*ContentFileNotLinkedError); !ok {
		t.Errorf("expected ContentFileNotLinkedError on double removal, got %T", err)
	}
}

func TestCycleSafeEquality(t *testing.T) {
	rs := testRuleSet()
	docA := New(rs)
	lA, _ := docA.CreateStructNodeByName("Monograph")
	pA, _ := docA.CreateStructNodeByName("Page")
	lA.AddReferenceTo(pA, "x")
	pA.AddReferenceTo(lA, "y")

	docB := New(rs)
	lB, _ := docB.CreateStructNodeByName("Monograph")
	pB, _ := docB.CreateStructNodeByName("Page")
	lB.AddReferenceTo(pB, "x")
	pB.AddReferenceTo(lB, "y")

	if !lA.Equals(lB) {
		t.Errorf("expected cyclic reference graphs to compare equal")
	}

	// Differing reference type must break equality.
	docC := New(rs)
	lC, _ := docC.CreateStructNodeByName("Monograph")
	pC, _ := docC.CreateStructNodeByName("Page")
	lC.AddReferenceTo(pC, "x")
	pC.AddReferenceTo(lC, "different")

	if lA.Equals(lC) {
		t.Errorf("expected differing reference type to break equality")
	}
}

func TestCopyRecursiveTrueMatchesOriginal(t *testing.T) {
	rs := testRuleSet()
	doc := New(rs)
	mono, _ := doc.CreateStructNodeByName("Monograph")
	ch, _ := doc.CreateStructNodeByName("Chapter")
	mono.AddChild(ch)
	md := NewMetadata(rs.MetadataTypeByName("TitleDocMain"), "Hello")
	mono.AddMetadata(md)

	allTrue := true
	cp := mono.Copy(true, &allTrue)

	if !mono.Equals(cp) {
		t.Errorf("expected full copy to be structurally equal to original")
	}
}

func TestCopyWithoutMetadataDropsValues(t *testing.T) {
	rs := testRuleSet()
	doc := New(rs)
	mono, _ := doc.CreateStructNodeByName("Monograph")
	md := NewMetadata(rs.MetadataTypeByName("TitleDocMain"), "Hello")
	mono.AddMetadata(md)

	allTrue := true
	cp := mono.Copy(false, &allTrue)

	if len(cp.Metadata()) != 0 {
		t.Errorf("expected no metadata copied, got %d", len(cp.Metadata()))
	}
	if mono.Equals(cp) {
		t.Errorf("expected original and metadata-less copy to differ")
	}
}

func TestGetAllChildrenByTypeAndMetadataType(t *testing.T) {
	rs := testRuleSet()
	doc := New(rs)
	mono, _ := doc.CreateStructNodeByName("Monograph")
	c1, _ := doc.CreateStructNodeByName("Chapter")
	c2, _ := doc.CreateStructNodeByName("Chapter")
	mono.AddChild(c1)
	mono.AddChild(c2)

	md := NewMetadata(&ruleset.MetadataType{Name: "_tag"}, "x")
	c1.AddMetadata(md)

	got := mono.GetAllChildrenByTypeAndMetadataType("Chapter", "_tag")
	if len(got) != 1 || got[0] != c1 {
		t.Errorf("expected only c1 to match, got %v", got)
	}

	all := mono.GetAllChildrenByTypeAndMetadataType("*", "*")
	if len(all) != 2 {
		t.Errorf("expected wildcard match to return both children, got %d", len(all))
	}
}
