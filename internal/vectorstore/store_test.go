package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPgVector_Format(t *testing.T) {
	got := pgVector([]float32{1, 0.5, -2})
	assert.Equal(t, "[1,0.5,-2]", got)
}

func TestNullableString(t *testing.T) {
	assert.Nil(t, nullableString(""))
	assert.Equal(t, "map-1", nullableString("map-1"))
}
