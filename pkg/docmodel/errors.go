// ABOUTME: Tagged error kinds for digdoc's document object model
// ABOUTME: Mirrors the rule-checked failure modes of StructNode/Document mutation

package docmodel

import "fmt"

// TypeNotAllowedAsChildError reports that childType may not be added as a
// child of a struct type under the rule set in effect.
type TypeNotAllowedAsChildError struct {
	ChildType string
}

func (e *TypeNotAllowedAsChildError) Error() string {
	return fmt.Sprintf("digdoc: type %q not allowed as child", e.ChildType)
}

// TypeNotAllowedForParentError is used only by the node-construction path
// (Document.CreateStructNodeByName), when the rule set declares no struct
// type of the requested name, before any node object exists to report it
// against.
type TypeNotAllowedForParentError struct {
	ChildType string
}

func (e *TypeNotAllowedForParentError) Error() string {
	return fmt.Sprintf("digdoc: type %q not allowed for parent", e.ChildType)
}

// MetadataTypeNotAllowedError reports that a metadata type may not be added
// to a struct type, either because the schema doesn't declare it there or
// because adding it would exceed the declared cardinality.
type MetadataTypeNotAllowedError struct {
	MetadataType string
	OnStructType string
}

func (e *MetadataTypeNotAllowedError) Error() string {
	return fmt.Sprintf("digdoc: metadata type %q not allowed on struct type %q", e.MetadataType, e.OnStructType)
}

// DocStructHasNoTypeError reports an operation attempted on a node whose
// StructType is unset.
type DocStructHasNoTypeError struct{}

func (e *DocStructHasNoTypeError) Error() string {
	return "digdoc: struct node has no type"
}

// IncompletePersonObjectError reports a Person with no PersonType set,
// added or removed.
type IncompletePersonObjectError struct{}

func (e *IncompletePersonObjectError) Error() string {
	return "digdoc: person object is incomplete (no type)"
}

// ContentFileNotLinkedError reports removeContentFile called on a file the
// node never referenced.
type ContentFileNotLinkedError struct {
	Location string
}

func (e *ContentFileNotLinkedError) Error() string {
	return fmt.Sprintf("digdoc: content file %q is not linked to this node", e.Location)
}

// PreferencesError reports a rule-set inconsistency discovered during
// traversal, e.g. conflicting anchor classes at one tree level.
type PreferencesError struct {
	Detail string
}

func (e *PreferencesError) Error() string {
	return fmt.Sprintf("digdoc: preferences error: %s", e.Detail)
}

// ReadError wraps an adapter-level read failure.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("digdoc: read %q: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError wraps an adapter-level write failure.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("digdoc: write %q: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
