package tagging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Dedupe([]string{"b", "a", "b", "a"}))
	assert.Equal(t, []string{"Go", "go"}, Dedupe([]string{"go", "Go"}))
	assert.Empty(t, Dedupe(nil))
}

func TestDedupe_DoesNotMutateInput(t *testing.T) {
	in := []string{"z", "a"}
	_ = Dedupe(in)
	assert.Equal(t, []string{"z", "a"}, in)
}

func TestNormalize(t *testing.T) {
	got := Normalize([]string{" rust ", "", "go", "   ", "go"})
	assert.Equal(t, []string{"go", "rust"}, got)
}

func TestNewPlan(t *testing.T) {
	tests := []struct {
		name      string
		requested []string
		existing  []string
		create    []string
		attach    []string
	}{
		{
			name:      "all new",
			requested: []string{"b", "a"},
			create:    []string{"a", "b"},
			attach:    []string{"a", "b"},
		},
		{
			name:      "reuse existing",
			requested: []string{"a", "c", "a"},
			existing:  []string{"a"},
			create:    []string{"c"},
			attach:    []string{"a", "c"},
		},
		{
			name:      "all existing",
			requested: []string{"x"},
			existing:  []string{"x", "y"},
			attach:    []string{"x"},
		},
		{
			name:   "clear",
			attach: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlan(tt.requested, tt.existing)
			assert.Equal(t, tt.create, p.Create)
			assert.Equal(t, tt.attach, p.Attach)
		})
	}
}

func TestNewPlan_Idempotent(t *testing.T) {
	first := NewPlan([]string{"a", "b"}, nil)
	second := NewPlan([]string{"a", "b"}, first.Attach)
	assert.Empty(t, second.Create)
	assert.Equal(t, first.Attach, second.Attach)
}
