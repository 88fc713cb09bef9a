package core_test

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/combspec/core"
)

func TestConstructor_CheckArity(t *testing.T) {
	cases := []struct {
		name string
		c    core.Constructor
		n    int
		ok   bool
	}{
		{"equivalence one", core.Equivalence, 1, true},
		{"equivalence two", core.Equivalence, 2, false},
		{"union one", core.DisjointUnion, 1, true},
		{"union none", core.DisjointUnion, 0, false},
		{"decomposition single child", core.Decomposition, 1, false},
		{"decomposition pair", core.Decomposition, 2, true},
		{"unknown", core.Constructor(9), 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.c.CheckArity(tc.n)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, core.ErrType), "want ErrType, got %v", err)
			}
		})
	}
}

func TestConstructor_TextRoundTrip(t *testing.T) {
	for _, c := range []core.Constructor{core.Equivalence, core.DisjointUnion, core.Decomposition} {
		b, err := json.Marshal(c)
		require.NoError(t, err)
		var back core.Constructor
		require.NoError(t, json.Unmarshal(b, &back))
		assert.Equal(t, c, back)
	}

	_, err := core.ParseConstructor("product")
	assert.True(t, errors.Is(err, core.ErrType))
}

func TestCheckLabels(t *testing.T) {
	assert.NoError(t, core.CheckLabels(0, 3, 7))
	err := core.CheckLabels(1, -2)
	assert.True(t, errors.Is(err, core.ErrType))
	assert.Contains(t, err.Error(), "-2")
}

func TestKeyOf(t *testing.T) {
	k, err := core.KeyOf(core.Named("R"))
	require.NoError(t, err)
	assert.Equal(t, "R", k)

	_, err = core.KeyOf(nil)
	assert.True(t, errors.Is(err, core.ErrType))
}
