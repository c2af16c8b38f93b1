package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_BestMatchAboveThreshold(t *testing.T) {
	left := []string{"Apple Inc", "Microsoft Corp", "Zzz"}
	right := []string{"apple inc", "microsoft corporation", "", "Zenith Bank"}

	got := Merge(left, right, DefaultThreshold, DefaultLimit)
	require.Len(t, got, 3)

	assert.Equal(t, "Apple Inc", got[0].Value)
	assert.Equal(t, "apple inc", got[0].Matches)
	assert.Equal(t, 100, got[0].BestScore())

	assert.Equal(t, "microsoft corporation", got[1].Matches)
	assert.Equal(t, 90, got[1].BestScore())

	assert.Equal(t, "", got[2].Matches)
	assert.Len(t, got[2].Candidates, 1)
}

func TestMerge_DuplicatesAndLimit(t *testing.T) {
	right := []string{"apple inc", "apple inc", "pear ltd"}

	got := Merge([]string{"Apple Inc"}, right, 80, 2)
	require.Len(t, got, 1)
	assert.Equal(t, "apple inc, apple inc", got[0].Matches)
	assert.Len(t, got[0].Candidates, 2)
}

func TestMerge_NoLimitConsidersAll(t *testing.T) {
	got := Merge([]string{"acme"}, []string{"acme", "acme co", "zzz"}, 0, 0)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Candidates, 3)
	assert.Equal(t, "acme", got[0].Candidates[0].Value)
}

func TestMerge_EmptyRightValues(t *testing.T) {
	got := Merge([]string{"acme"}, []string{"", "  ", "--"}, 0, 1)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Candidates)
	assert.Equal(t, "", got[0].Matches)
	assert.Equal(t, 0, got[0].BestScore())
}

func TestMerge_EmptyLeftValue(t *testing.T) {
	got := Merge([]string{""}, []string{"acme"}, 0, 1)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Candidates)
}

func TestMerge_NilInputs(t *testing.T) {
	assert.Empty(t, Merge(nil, []string{"a"}, 80, 1))
	got := Merge([]string{"a"}, nil, 80, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].Matches)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 100, Score("Acme", "ACME"))
	assert.Equal(t, 100, Score("Acme, Inc.", "acme inc"))
	assert.Equal(t, 0, Score("", "acme"))
	assert.Equal(t, 0, Score("acme", "!!!"))
}

func TestScore_TokenOrderInsensitive(t *testing.T) {
	assert.GreaterOrEqual(t, Score("Bank of America", "America Bank of"), 95)
}

func TestProcess(t *testing.T) {
	assert.Equal(t, "acme inc", process("  ACME, Inc. "))
	assert.Equal(t, "", process("--"))
}
