package record

import (
	"strings"

	"golang.org/x/text/cases"
)

// Kind is the set of categories a section label maps to. A label may belong
// to more than one category, e.g. "Addendum 173-2: Revised Containment".
type Kind uint8

const (
	KindDescription Kind = 1 << iota
	KindContainment
	KindAddendum

	KindOther Kind = 0
)

// Has reports whether every category in c is present in k.
func (k Kind) Has(c Kind) bool {
	return c != 0 && k&c == c
}

func (k Kind) String() string {
	if k == KindOther {
		return "other"
	}
	var names []string
	for _, c := range []struct {
		kind Kind
		name string
	}{
		{KindDescription, "description"},
		{KindContainment, "containment"},
		{KindAddendum, "addendum"},
	} {
		if k.Has(c.kind) {
			names = append(names, c.name)
		}
	}
	return strings.Join(names, "+")
}

// Classify maps a raw section label to its Kind. Matching is case-insensitive:
// a label equal to "description" is a description, a label containing
// "containment" is containment and a label containing "addendum" is an
// addendum. The last two checks are independent.
func Classify(label string) Kind {
	l := cases.Fold().String(strings.TrimSpace(label))
	var k Kind
	if l == "description" {
		k |= KindDescription
	}
	if strings.Contains(l, "containment") {
		k |= KindContainment
	}
	if strings.Contains(l, "addendum") {
		k |= KindAddendum
	}
	return k
}
