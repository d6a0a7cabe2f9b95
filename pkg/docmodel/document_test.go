// ABOUTME: Tests for Document: sort, deep copy, anchor-class traversal, truncated copy
// ABOUTME: Covers the anchor-interruption and truncated-copy scenarios from the spec

package docmodel

import (
	"testing"

	"github.com/nainya/digdoc/pkg/ruleset"
)

func TestSortMetadataRecursivelyMatchesDeclarationOrder(t *testing.T) {
	mono := &ruleset.StructType{
		Name: "Monograph",
		AllowedMetadata: []ruleset.AllowedMetadata{
			{TypeName: "TitleDocMain", Cardinality: ruleset.CardMandatory},
			{TypeName: "PlaceOfPublication", Cardinality: ruleset.CardOptional},
			{TypeName: "Author", Cardinality: ruleset.CardAny},
		},
	}
	rs := ruleset.New([]*ruleset.StructType{mono}, []*ruleset.MetadataType{
		{Name: "TitleDocMain"}, {Name: "PlaceOfPublication"}, {Name: "Author"},
	}, nil)

	doc := New(rs)
	root := doc.CreateStructNode(mono)
	doc.SetLogicalRoot(root)

	// Inserted out of declared order, plus one undeclared leftover.
	root.AddMetadata(NewMetadata(rs.MetadataTypeByName("Author"), "Doe"))
	root.AddMetadata(NewMetadata(&ruleset.MetadataType{Name: "_extra"}, "x"))
	root.AddMetadata(NewMetadata(rs.MetadataTypeByName("TitleDocMain"), "Hello"))
	root.AddMetadata(NewMetadata(rs.MetadataTypeByName("PlaceOfPublication"), "Berlin"))

	doc.SortMetadataRecursively(rs)

	got := root.Metadata()
	want := []string{"TitleDocMain", "PlaceOfPublication", "Author", "_extra"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, name := range want {
		if got[i].TypeName() != name {
			t.Errorf("position %d: expected %q, got %q", i, name, got[i].TypeName())
		}
	}

	// Idempotent.
	before := append([]*Metadata{}, root.Metadata()...)
	doc.SortMetadataRecursively(rs)
	for i := range before {
		if before[i] != root.Metadata()[i] {
			t.Errorf("sort was not idempotent at position %d", i)
		}
	}
}

func TestDeepCopyEqualsOriginal(t *testing.T) {
	rs := testRuleSet()
	doc := New(rs)
	mono, _ := doc.CreateStructNodeByName("Monograph")
	doc.SetLogicalRoot(mono)
	page, _ := doc.CreateStructNodeByName("Page")
	doc.SetPhysicalRoot(page)

	mono.AddReferenceTo(page, "logical_physical")
	page.AddReferenceTo(mono, "physical_logical")
	mono.AddMetadata(NewMetadata(rs.MetadataTypeByName("TitleDocMain"), "Hello"))

	cf := NewContentFile("/scans/1.tif", "image/tiff")
	page.AddContentFile(cf, "full")

	cp := doc.Copy()

	if !doc.Equals(cp) {
		t.Fatalf("expected deep copy to equal original")
	}
	if cp.AmdSec != doc.AmdSec {
		t.Errorf("expected AmdSec reattached by reference")
	}
	if cp.LogicalRoot == doc.LogicalRoot {
		t.Errorf("expected copy's logical root to be a distinct node")
	}
}

func TestAnchorInterruptionFails(t *testing.T) {
	journal := &ruleset.StructType{Name: "Journal", AnchorClass: "J", AllowedChildren: []string{"Volume"}}
	volume := &ruleset.StructType{Name: "Volume", AllowedChildren: []string{"Article"}}
	article := &ruleset.StructType{Name: "Article", AnchorClass: "J"}

	rs := ruleset.New([]*ruleset.StructType{journal, volume, article}, nil, nil)
	doc := New(rs)

	j := doc.CreateStructNode(journal)
	v := doc.CreateStructNode(volume)
	a := doc.CreateStructNode(article)
	j.AddChild(v)
	v.AddChild(a)
	doc.SetLogicalRoot(j)

	_, err := j.GetAllAnchorClasses()
	if err == nil {
		t.Fatalf("expected PreferencesError for interrupted anchor hierarchy")
	}
	pe, ok := err.(*PreferencesError)
	if !ok {
		t.Fatalf("expected *PreferencesError, got %T", err)
	}
	if pe.Detail != "interruption of anchor hierarchy" {
		t.Errorf("unexpected detail: %q", pe.Detail)
	}
}

func TestAnchorClassesNoInterruption(t *testing.T) {
	journal := &ruleset.StructType{Name: "Journal", AnchorClass: "J", AllowedChildren: []string{"Volume"}}
	volume := &ruleset.StructType{Name: "Volume", AnchorClass: "V", AllowedChildren: []string{"Article"}}
	article := &ruleset.StructType{Name: "Article"}

	rs := ruleset.New([]*ruleset.StructType{journal, volume, article}, nil, nil)
	doc := New(rs)

	j := doc.CreateStructNode(journal)
	v := doc.CreateStructNode(volume)
	a := doc.CreateStructNode(article)
	j.AddChild(v)
	v.AddChild(a)
	doc.SetLogicalRoot(j)

	chain, err := j.GetAllAnchorClasses()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"J", "V"}
	if len(chain) != len(want) {
		t.Fatalf("expected chain %v, got %v", want, chain)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], chain[i])
		}
	}
}

func TestCopyTruncated(t *testing.T) {
	journal := &ruleset.StructType{Name: "Journal", AnchorClass: "J", AllowedChildren: []string{"Volume"}}
	volume := &ruleset.StructType{Name: "Volume", AllowedChildren: []string{"Article"}}
	article := &ruleset.StructType{Name: "Article", AnchorClass: "J", AllowedChildren: []string{"Section"}}
	section := &ruleset.StructType{Name: "Section"}

	title := &ruleset.MetadataType{Name: "TitleDocMain"}
	rs := ruleset.New(
		[]*ruleset.StructType{journal, volume, article, section},
		[]*ruleset.MetadataType{title},
		nil,
	)

	doc := New(rs)
	j := doc.CreateStructNode(journal)
	v := doc.CreateStructNode(volume)
	a := doc.CreateStructNode(article)
	s := doc.CreateStructNode(section)
	j.AddChild(v)
	v.AddChild(a)
	a.AddChild(s)
	doc.SetLogicalRoot(j)

	journal.AllowedMetadata = []ruleset.AllowedMetadata{{TypeName: "TitleDocMain", Cardinality: ruleset.CardMandatory}}
	j.AddMetadata(NewMetadata(title, "My Journal"))

	cp := j.CopyTruncated("J", nil)

	if len(cp.Metadata()) != 1 {
		t.Errorf("expected root's metadata fully copied, got %d entries", len(cp.Metadata()))
	}
	if len(cp.Children()) != 1 {
		t.Fatalf("expected Volume stub retained")
	}
	volStub := cp.Children()[0]
	if !volStub.PointerStub {
		t.Errorf("expected Volume to be retained as a pointer stub")
	}
	if len(volStub.Children()) != 1 {
		t.Fatalf("expected Article stub retained under Volume")
	}
	artStub := volStub.Children()[0]
	if !artStub.PointerStub {
		t.Errorf("expected Article to be retained as a pointer stub")
	}
	if len(artStub.Children()) != 0 {
		t.Errorf("expected Section not present, one level below the anchor boundary is the cutoff")
	}
}
