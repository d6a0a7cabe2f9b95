// ABOUTME: Tokenizer-validator: byte-level streaming comparison of two XML files
// ABOUTME: Ignores insignificant whitespace and attribute ordering

package validate

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// TokenizerReport carries the outcome of a tokenizer comparison plus a
// human-readable diagnostic on mismatch.
type TokenizerReport struct {
	Equal      bool
	Diagnostic string
}

// TokenizerValidator performs a token-level comparison of two XML files,
// the way a content-aware diff would: start/end element names and
// attributes (order-insensitive), and character data with insignificant
// whitespace collapsed.
type TokenizerValidator struct{}

// Validate compares the XML documents at pathA and pathB.
func (TokenizerValidator) Validate(pathA, pathB string) (*TokenizerReport, error) {
	fa, err := os.Open(pathA)
	if err != nil {
		return nil, fmt.Errorf("validate: open %s: %w", pathA, err)
	}
	defer fa.Close()

	fb, err := os.Open(pathB)
	if err != nil {
		return nil, fmt.Errorf("validate: open %s: %w", pathB, err)
	}
	defer fb.Close()

	return compareTokenStreams(fa, fb, pathA, pathB)
}

func compareTokenStreams(ra, rb io.Reader, nameA, nameB string) (*TokenizerReport, error) {
	da := xml.NewDecoder(ra)
	db := xml.NewDecoder(rb)

	for {
		ta, errA := nextSignificantToken(da)
		tb, errB := nextSignificantToken(db)

		if errA == io.EOF && errB == io.EOF {
			return &TokenizerReport{Equal: true}, nil
		}
		if errA == io.EOF || errB == io.EOF {
			return &TokenizerReport{
				Equal:      false,
				Diagnostic: fmt.Sprintf("%s and %s have different lengths", nameA, nameB),
			}, nil
		}
		if errA != nil {
			return nil, fmt.Errorf("validate: decode %s: %w", nameA, errA)
		}
		if errB != nil {
			return nil, fmt.Errorf("validate: decode %s: %w", nameB, errB)
		}

		if eq, diag := tokensEqual(ta, tb); !eq {
			return &TokenizerReport{
				Equal:      false,
				Diagnostic: fmt.Sprintf("%s vs %s: %s", nameA, nameB, diag),
			}, nil
		}
	}
}

// nextSignificantToken skips whitespace-only character data (insignificant
// whitespace between tags) and comments/directives/processing instructions,
// which the tokenizer contract doesn't compare.
func nextSignificantToken(d *xml.Decoder) (xml.Token, error) {
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			if len(strings.TrimSpace(string(t))) == 0 {
				continue
			}
			return xml.CopyToken(t), nil
		case xml.Comment, xml.ProcInst, xml.Directive:
			continue
		default:
			return xml.CopyToken(tok), nil
		}
	}
}

func tokensEqual(a, b xml.Token) (bool, string) {
	switch ta := a.(type) {
	case xml.StartElement:
		tb, ok := b.(xml.StartElement)
		if !ok {
			return false, fmt.Sprintf("expected start element %s, got %T", ta.Name.Local, b)
		}
		if ta.Name != tb.Name {
			return false, fmt.Sprintf("element name %v != %v", ta.Name, tb.Name)
		}
		if !attrsEqual(ta.Attr, tb.Attr) {
			return false, fmt.Sprintf("attributes of %v differ: %v vs %v", ta.Name, ta.Attr, tb.Attr)
		}
		return true, ""
	case xml.EndElement:
		tb, ok := b.(xml.EndElement)
		if !ok {
			return false, fmt.Sprintf("expected end element %s, got %T", ta.Name.Local, b)
		}
		if ta.Name != tb.Name {
			return false, fmt.Sprintf("end element name %v != %v", ta.Name, tb.Name)
		}
		return true, ""
	case xml.CharData:
		tb, ok := b.(xml.CharData)
		if !ok {
			return false, "expected character data"
		}
		if normalizeSpace(string(ta)) != normalizeSpace(string(tb)) {
			return false, fmt.Sprintf("character data %q != %q", string(ta), string(tb))
		}
		return true, ""
	default:
		return true, ""
	}
}

func attrsEqual(a, b []xml.Attr) bool {
	if len(a) != len(b) {
		return false
	}
	sa := sortedAttrs(a)
	sb := sortedAttrs(b)
	for i := range sa {
		if sa[i].Name != sb[i].Name || sa[i].Value != sb[i].Value {
			return false
		}
	}
	return true
}

func sortedAttrs(attrs []xml.Attr) []xml.Attr {
	out := append([]xml.Attr{}, attrs...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name.Space != out[j].Name.Space {
			return out[i].Name.Space < out[j].Name.Space
		}
		return out[i].Name.Local < out[j].Name.Local
	})
	return out
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
