// ABOUTME: Anchor-class traversal and the METS-pointer policy derived from it
// ABOUTME: getAllAnchorClasses walks level by level and rejects interrupted hierarchies

package docmodel

// GetAllAnchorClasses walks the subtree rooted at n level by level,
// collecting the anchor class of each "real successor" frontier. At every
// level, all nodes that have an anchor class must share the same one, or
// this fails with a PreferencesError ("different anchor classes at the
// same level"). No anchor class may appear twice in the returned chain; a
// repeat means descendants of one anchor file were interrupted by
// descendants of another, and fails with a PreferencesError ("interruption
// of anchor hierarchy").
func (n *StructNode) GetAllAnchorClasses() ([]string, error) {
	var chain []string
	seen := make(map[string]bool)

	frontier := []*StructNode{n}
	if cls := n.AnchorClass(); cls != "" {
		chain = append(chain, cls)
		seen[cls] = true
	}

	for len(frontier) > 0 {
		var next []*StructNode
		levelClass := ""
		haveClass := false

		for _, node := range frontier {
			successors := node.GetAllRealSuccessors()
			next = append(next, successors...)
		}

		for _, node := range next {
			cls := node.AnchorClass()
			if cls == "" {
				continue
			}
			if !haveClass {
				levelClass = cls
				haveClass = true
				continue
			}
			if cls != levelClass {
				return nil, &PreferencesError{Detail: "different anchor classes at the same level"}
			}
		}

		if haveClass {
			if seen[levelClass] {
				return nil, &PreferencesError{Detail: "interruption of anchor hierarchy"}
			}
			seen[levelClass] = true
			chain = append(chain, levelClass)
		}

		frontier = next
	}

	return chain, nil
}

// MustWriteDownwardPointer reports whether n must write a downward METS
// pointer for file class fileClass: n's parent has anchor class fileClass
// and n itself does not.
func (n *StructNode) MustWriteDownwardPointer(fileClass string) bool {
	if n.parent == nil {
		return false
	}
	return n.parent.AnchorClass() == fileClass && n.AnchorClass() != fileClass
}

// MustWriteUpwardPointer reports whether n must write an upward METS
// pointer for file class fileClass, given the document's anchor chain (from
// root downward). fileClass must differ from n's own anchor class, and
// either (a) n is the tree root and its class differs from fileClass, or
// (b) n's parent has an anchor class different from n's own, and fileClass
// appears after the parent's class in the chain.
func (n *StructNode) MustWriteUpwardPointer(fileClass string, anchorChain []string) bool {
	if fileClass == n.AnchorClass() {
		return false
	}
	if n.parent == nil {
		return n.AnchorClass() != fileClass
	}
	parentClass := n.parent.AnchorClass()
	if parentClass == "" || parentClass == n.AnchorClass() {
		return false
	}
	return appearsAfter(anchorChain, parentClass, fileClass)
}

// appearsAfter reports whether target appears strictly after anchor in
// chain. A nil/empty link (the sentinel appended past the end of a real
// traversal, §9 open question (b)) never matches and yields false rather
// than panicking.
func appearsAfter(chain []string, anchor, target string) bool {
	anchorIdx := -1
	for i, c := range chain {
		if c == anchor {
			anchorIdx = i
			break
		}
	}
	if anchorIdx == -1 {
		return false
	}
	for i := anchorIdx + 1; i < len(chain); i++ {
		if chain[i] == target {
			return true
		}
	}
	return false
}
