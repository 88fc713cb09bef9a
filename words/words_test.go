package words_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/combspec/core"
	"github.com/katalvlaran/combspec/searcher"
	"github.com/katalvlaran/combspec/words"
)

func TestKeys_AreCanonical(t *testing.T) {
	assert.Equal(t, words.Words{Alphabet: "ab"}.Key(), words.Words{Alphabet: "bba"}.Key())
	assert.Equal(t, "letters(abc)", words.Letters{Alphabet: "cab"}.Key())
	assert.Equal(t, "reversed(words(ab))", words.Reversed{Inner: words.Words{Alphabet: "ba"}}.Key())
	assert.NotEqual(t, words.Words{Alphabet: "ab"}.Key(), words.NonEmpty{Alphabet: "ab"}.Key())
}

func TestEnumerator_Counts(t *testing.T) {
	var e words.Enumerator
	cases := []struct {
		class core.Class
		want  []int
	}{
		{words.Epsilon{}, []int{1, 0, 0, 0}},
		{words.Nothing{}, []int{0, 0, 0, 0}},
		{words.Letters{Alphabet: "abc"}, []int{0, 3, 0, 0}},
		{words.Words{Alphabet: "ab"}, []int{1, 2, 4, 8}},
		{words.NonEmpty{Alphabet: "ab"}, []int{0, 2, 4, 8}},
		{words.Reversed{Inner: words.Words{Alphabet: "abc"}}, []int{1, 3, 9, 27}},
		{words.Words{Alphabet: ""}, []int{1, 0, 0, 0}},
	}
	for _, tc := range cases {
		for n, want := range tc.want {
			objs, err := e.ObjectsOfSize(tc.class, n)
			require.NoError(t, err)
			assert.Len(t, objs, want, "%s at size %d", tc.class.Key(), n)
		}
	}
}

func TestEnumerator_Order(t *testing.T) {
	objs, err := words.Enumerator{}.ObjectsOfSize(words.Words{Alphabet: "ba"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []core.Object{"aa", "ab", "ba", "bb"}, objs)
}

func TestEnumerator_Errors(t *testing.T) {
	_, err := words.Enumerator{}.ObjectsOfSize(words.Words{Alphabet: "a"}, -1)
	assert.ErrorIs(t, err, core.ErrType)

	_, err = words.Enumerator{}.ObjectsOfSize(core.Named("x"), 1)
	assert.ErrorIs(t, err, core.ErrUnknown)
}

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		class core.Class
		want  bool
	}{
		{words.Nothing{}, true},
		{words.Letters{Alphabet: ""}, true},
		{words.Reversed{Inner: words.Nothing{}}, true},
		{words.Epsilon{}, false},
		{words.Words{Alphabet: ""}, false},
		{words.NonEmpty{Alphabet: "a"}, false},
		{words.Reversed{Inner: words.Words{Alphabet: "a"}}, false},
	}
	for _, tc := range cases {
		got, err := words.IsEmpty(tc.class)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.class.Key())
	}

	_, err := words.IsEmpty(core.Named("x"))
	assert.Error(t, err)
}

func TestClosedForm(t *testing.T) {
	f, ok := words.ClosedForm(words.Letters{Alphabet: "abc"})
	require.True(t, ok)
	assert.Equal(t, "3*x", f)

	f, ok = words.ClosedForm(words.Words{Alphabet: "ab"})
	require.True(t, ok)
	assert.Equal(t, "1/(1-2*x)", f)

	_, ok = words.ClosedForm(words.NonEmpty{Alphabet: "ab"})
	assert.False(t, ok)
}

func TestReverse(t *testing.T) {
	assert.Equal(t, "cba", words.Reverse("abc"))
	assert.Equal(t, "", words.Reverse(""))
}

func TestPack_FindsSpecification(t *testing.T) {
	s, err := searcher.New(words.Words{Alphabet: "ab"}, words.Pack())
	require.NoError(t, err)

	out, err := s.Search(context.Background())
	require.NoError(t, err)
	require.Equal(t, searcher.StatusFound, out.Status)
	require.NoError(t, out.Specification.Validate())
	assert.NoError(t, s.Failures())
}
