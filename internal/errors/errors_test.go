package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransientFileIsRecovered(t *testing.T) {
	cause := errors.New("permission denied")
	err := TransientFile("prepareFile", "0:docs/a.md", cause)

	assert.Equal(t, KindTransientFile, err.Kind)
	assert.Equal(t, SeverityRecovered, err.Severity())
	assert.False(t, IsFatal(err))
	require.ErrorIs(t, err, cause)
}

func TestDatabaseErrorEscalatesToFatal(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := Database("flushPreparedFiles", cause, true)

	assert.Equal(t, SeverityFatal, err.Severity())
	assert.True(t, IsFatal(err))
}

func TestErrorsIsMatchesByKind(t *testing.T) {
	a := Invariant("upsert", "0:x.go", "dimension mismatch")
	b := Invariant("search", "", "stored key outside directories")

	assert.True(t, errors.Is(a, b))
}

func TestGetKind(t *testing.T) {
	err := ParseChunker("chunk", "0:x.md", errors.New("bad utf8"))
	assert.Equal(t, KindParseChunker, GetKind(err))
	assert.Equal(t, Kind(""), GetKind(errors.New("plain")))
}
