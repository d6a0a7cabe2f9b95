// ABOUTME: Equals-validator: structural equivalence between two documents
// ABOUTME: Fast-paths the nil/non-nil combinations before recursing into StructNode.Equals

package validate

import "github.com/nainya/digdoc/pkg/docmodel"

// Equals reports whether both documents' logical roots are structurally
// equal (§4.2 of the model), and both physical roots are. A nil root on
// one side and a present root on the other is never equal; nil on both
// sides is equal.
func Equals(a, b *docmodel.Document) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equals(b)
}
