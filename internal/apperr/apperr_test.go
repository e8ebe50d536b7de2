package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	cause := errors.New("connection reset")
	err := E(KindStore, "upload", "guide.pdf", cause)

	assert.Equal(t, "upload: store (guide.pdf): connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindStore, KindOf(err))
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", E(KindNotFound, "get", "42", nil))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(nil, KindUnknown))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestValidation(t *testing.T) {
	err := Validation("list", "page", "must be positive, got %d", 0)

	assert.Equal(t, KindValidation, err.Kind)
	assert.Equal(t, "list: validation (page): must be positive, got 0", err.Error())
}

func TestKind_String(t *testing.T) {
	for k, want := range map[Kind]string{
		KindUnknown:       "unknown",
		KindNotFound:      "not_found",
		KindConflict:      "conflict",
		KindValidation:    "validation",
		KindStore:         "store",
		KindIO:            "io",
		KindDataIntegrity: "data_integrity",
	} {
		assert.Equal(t, want, k.String())
	}
}
