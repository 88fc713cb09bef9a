package spec_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/combspec/core"
	"github.com/katalvlaran/combspec/spec"
)

func sampleSpec(t *testing.T) *spec.Specification {
	t.Helper()
	f := newFixture(t)
	f.verify("A", "atom")
	f.verify("E", "empty word")
	f.union("W", "W'", "reverse")
	f.rule("W'", core.DisjointUnion, "empty or not", "E", "N")
	f.rule("N", core.Decomposition, "first letter", "A", "W")

	s, err := f.extract("W")
	require.NoError(t, err)

	return s
}

func TestMarshal_RoundTripIsByteIdentical(t *testing.T) {
	s := sampleSpec(t)

	first, err := spec.Marshal(s, spec.NamedCodec{})
	require.NoError(t, err)

	back, err := spec.Unmarshal(first, spec.NamedCodec{})
	require.NoError(t, err)
	assert.True(t, s.Equal(back))
	assert.NoError(t, back.Validate())

	second, err := spec.Marshal(back, spec.NamedCodec{})
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestUnmarshal_RelinksAncestors(t *testing.T) {
	s := sampleSpec(t)
	data, err := spec.Marshal(s, spec.NamedCodec{})
	require.NoError(t, err)
	back, err := spec.Unmarshal(data, spec.NamedCodec{})
	require.NoError(t, err)

	var rec *spec.Node
	for n := range back.Nodes() {
		if n.Recursive {
			rec = n
		}
		assert.Equal(t, core.NoLabel, n.InLabel)
	}
	require.NotNil(t, rec)
	assert.Same(t, back.Root, rec.Ancestor)
}

func TestUnmarshal_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":         `{`,
		"unknown field":    `{"formal_step":"x","in_class":"A","out_class":"A","colour":1}`,
		"dangling recurse": `{"formal_step":"recursion","in_class":"A","out_class":"A","recurse":true,"ancestor":0}`,
		"bad constructor":  `{"formal_step":"x","in_class":"A","out_class":"A","constructor":"product","children":[{"formal_step":"v","in_class":"B","out_class":"B","verified":true}]}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := spec.Unmarshal([]byte(data), spec.NamedCodec{})
			assert.True(t, errors.Is(err, core.ErrType), "got %v", err)
		})
	}
}

func TestEqual_IgnoresLabels(t *testing.T) {
	a := sampleSpec(t)
	b := sampleSpec(t)
	b.Root.InLabel = 99
	assert.True(t, a.Equal(b))

	b.Root.FormalStep = "different"
	assert.False(t, a.Equal(b))
}
