package attrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	kv := []any{"project_id", "P-1", "available", 3, 42, "ignored", "dangling"}

	assert.Equal(t, "P-1", String(kv, "project_id"))
	assert.Empty(t, String(kv, "available"), "non-string value")
	assert.Empty(t, String(kv, "missing"))
	assert.Empty(t, String(kv, "dangling"), "key without value")
}

func TestFirstString(t *testing.T) {
	kv := []any{"registration_id", "R-1", "project_id", ""}

	assert.Equal(t, "R-1", FirstString(kv, "project_id", "registration_id"))
	assert.Empty(t, FirstString(kv, "actor"))
}
