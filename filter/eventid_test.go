package filter

import (
	"testing"

	"github.com/corvidsec/eventsleuth/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileEventIDSpecEmptyMatchesAll(t *testing.T) {
	pred, err := CompileEventIDSpec("")
	require.NoError(t, err)
	assert.True(t, pred.Match(1))
	assert.True(t, pred.Match(999999))
}

func TestCompileEventIDSpecRangeAndNegation(t *testing.T) {
	pred, err := CompileEventIDSpec("100-200,!150")
	require.NoError(t, err)

	matches := map[uint32]bool{99: false, 100: true, 150: false, 200: true, 201: false}
	for id, want := range matches {
		assert.Equalf(t, want, pred.Match(id), "id=%d", id)
	}
}

func TestCompileEventIDSpecInvertedRangeIsFilterParseError(t *testing.T) {
	_, err := CompileEventIDSpec("!5-1")
	require.Error(t, err)
	var parseErr *record.FilterParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestCompileEventIDSpecSingleIDs(t *testing.T) {
	pred, err := CompileEventIDSpec("4624, 4625")
	require.NoError(t, err)
	assert.True(t, pred.Match(4624))
	assert.True(t, pred.Match(4625))
	assert.False(t, pred.Match(4626))
}

func TestCompileEventIDSpecRawPreservesOriginalText(t *testing.T) {
	const spec = "1-10,!5"
	pred, err := CompileEventIDSpec(spec)
	require.NoError(t, err)
	assert.Equal(t, spec, pred.Raw())
}
