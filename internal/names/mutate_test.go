package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutateWithoutSecond(t *testing.T) {
	n := StructuredName{First: "john", Last: "smith"}

	assert.Equal(t, []string{"jsmith"}, InitialLast(n).Sorted())
	assert.Equal(t, []string{"j.smith"}, InitialDotLast(n).Sorted())
	assert.Equal(t, []string{"smithj"}, LastInitial(n).Sorted())
	assert.Equal(t, []string{"john.smith"}, FirstDotLast(n).Sorted())
	assert.Equal(t, []string{"johns"}, FirstInitial(n).Sorted())
	assert.Equal(t, []string{"john"}, FirstOnly(n).Sorted())

	for scheme, set := range All(n) {
		assert.Len(t, set, 1, "scheme %s", scheme)
	}
}

func TestMutateWithSecond(t *testing.T) {
	n := StructuredName{First: "jane", Second: "obrien", Last: "smith"}

	assert.Equal(t, []string{"jobrien", "jsmith"}, InitialLast(n).Sorted())
	assert.Equal(t, []string{"j.obrien", "j.smith"}, InitialDotLast(n).Sorted())
	assert.Equal(t, []string{"obrienj", "smithj"}, LastInitial(n).Sorted())
	assert.Equal(t, []string{"jane.obrien", "jane.smith"}, FirstDotLast(n).Sorted())
	assert.Equal(t, []string{"janeo", "janes"}, FirstInitial(n).Sorted())
	assert.Equal(t, []string{"jane"}, FirstOnly(n).Sorted())
}

func TestMutateCollapsesCoincidingVariants(t *testing.T) {
	n := StructuredName{First: "ann", Second: "lee", Last: "lee"}
	assert.Len(t, InitialLast(n), 1)
	assert.Len(t, FirstInitial(n), 1)
}

func TestMutateUnknownScheme(t *testing.T) {
	_, ok := Mutate(Scheme("nope"), StructuredName{First: "a", Last: "b"})
	assert.False(t, ok)

	set, ok := Mutate(SchemeFirstDot, StructuredName{First: "a", Last: "b"})
	require.True(t, ok)
	assert.Equal(t, []string{"a.b"}, set.Sorted())
}

func TestParseScheme(t *testing.T) {
	for _, s := range Schemes {
		got, ok := ParseScheme(string(s))
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}
	_, ok := ParseScheme("last.first")
	assert.False(t, ok)
}

func TestFromDisplayNamesSkipsUnstructuredNames(t *testing.T) {
	set := FromDisplayNames(SchemeInitialLast, []string{"John Smith", "X", "Jane Smith", "john smith"})
	assert.Equal(t, []string{"jsmith"}, set.Sorted())
}

func TestMutateHandBuiltNameWithEmptyParts(t *testing.T) {
	n := StructuredName{Last: "smith"}
	assert.NotPanics(t, func() { All(n) })
	assert.Equal(t, []string{"smith"}, InitialLast(n).Sorted())
	assert.Equal(t, []string{""}, FirstInitial(StructuredName{First: "", Last: ""}).Sorted())
}
