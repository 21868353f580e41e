package bundle

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// lookupKeySeparator joins option values into the platform's variant title
// convention ("Matte Black / 24x36").
const lookupKeySeparator = " / "

// internalPropertyPrefix marks storefront-internal properties that never
// describe a customer selection.
const internalPropertyPrefix = "_"

// NormalizeText canonicalizes free-form storefront text: Unicode NFC,
// surrounding whitespace trimmed, internal whitespace runs collapsed to a
// single space. Case is preserved.
func NormalizeText(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// ParseProperties filters and normalizes raw line-item properties into a
// selection. Properties whose name starts with an underscore are
// storefront-internal and skipped, as are properties with an empty name or
// value after normalization. Duplicate names keep the last value.
func ParseProperties(props []Property) (Selection, error) {
	sel := make(Selection, len(props))
	for _, p := range props {
		name := NormalizeText(p.Name)
		if name == "" || strings.HasPrefix(name, internalPropertyPrefix) {
			continue
		}
		value := NormalizeText(p.Value)
		if value == "" {
			continue
		}
		sel[name] = value
	}
	if len(sel) == 0 {
		return nil, ErrNoSelection
	}
	return sel, nil
}

// LookupKey derives the deterministic variant lookup key for a product:
// the selected option values joined in the product's declared option order.
// Option names in optionOrder are matched after normalization; options the
// selection does not cover are skipped so partial selections still derive
// the key the platform would build from the chosen options.
func (s Selection) LookupKey(optionOrder []string) string {
	values := make([]string, 0, len(optionOrder))
	for _, opt := range optionOrder {
		if v, ok := s[NormalizeText(opt)]; ok {
			values = append(values, v)
		}
	}
	return strings.Join(values, lookupKeySeparator)
}
