// ABOUTME: FileFormat: the abstract read/write contract the core exposes to adapters
// ABOUTME: Concrete METS/MODS, RDF and XStream readers/writers are external collaborators

package fileformat

import "github.com/nainya/digdoc/pkg/docmodel"

// FileFormat is the capability a serialization adapter implements so the
// conversion driver can treat METS/MODS, RDF and XStream readers/writers
// uniformly. digdoc's core never parses or emits XML itself; it only
// depends on this interface.
type FileFormat interface {
	// Read parses path and populates the format's internal Document.
	// Implementations fail with a *docmodel.ReadError wrapping
	// os.ErrNotExist on a missing file, or wrapping a parse error
	// otherwise. A PreferencesError indicates path references types not
	// declared in the RuleSet the adapter was constructed with.
	Read(path string) (bool, error)

	// Write serializes the format's current Document to path. Fails with
	// a *docmodel.WriteError.
	Write(path string) (bool, error)

	// Update attempts an in-place update of path; adapters that don't
	// support incremental rewriting may always return false, nil.
	Update(path string) (bool, error)

	// Document returns the format's current Document.
	Document() *docmodel.Document

	// SetDocument installs doc as the format's current Document, allowing
	// two formats (e.g. a source RDF format and a target METS format) to
	// share the same in-memory Document for a read/sort/write pipeline.
	SetDocument(doc *docmodel.Document)
}
