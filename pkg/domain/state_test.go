package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_ValueStore(t *testing.T) {
	s := NewState("Fighting", "engaged with a target")

	require.NoError(t, s.SetValue("target", "slime"))
	require.NoError(t, s.SetValue("combo", 3))

	v, err := s.Value("target")
	require.NoError(t, err)
	assert.Equal(t, "slime", v)

	assert.Equal(t, 3, s.ValueOr("combo", 0))
	assert.Equal(t, "none", s.ValueOr("missing", "none"))

	got, ok := s.LookupValue("combo")
	assert.True(t, ok)
	assert.Equal(t, 3, got)

	_, ok = s.LookupValue("missing")
	assert.False(t, ok)

	assert.True(t, s.HasValue("target"))
	assert.ElementsMatch(t, []string{"target", "combo"}, s.Keys())

	removed, err := s.RemoveValue("target")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.RemoveValue("target")
	require.NoError(t, err)
	assert.False(t, removed, "second removal reports the key was already gone")
}

func TestState_EmptyKeyIsValidationError(t *testing.T) {
	s := NewState("Idle", "")

	assert.True(t, IsValidationError(s.SetValue("", 1)))
	assert.True(t, IsValidationError(s.SetValue("   ", 1)))

	_, err := s.Value("")
	assert.True(t, IsValidationError(err))

	_, err = s.RemoveValue("")
	assert.True(t, IsValidationError(err))

	// The error-free accessors cannot reject; an empty key reads as absent
	// since SetValue can never store one.
	assert.Equal(t, "fallback", s.ValueOr("", "fallback"))
	_, ok := s.LookupValue("")
	assert.False(t, ok)
	assert.False(t, s.HasValue(""))
}

func TestState_ClearValues_NoopWhenEmpty(t *testing.T) {
	s := NewState("Idle", "")
	before := s.UpdatedAt

	s.ClearValues()
	assert.Equal(t, before, s.UpdatedAt, "clearing an empty store must not touch UpdatedAt")

	require.NoError(t, s.SetValue("k", 1))
	s.ClearValues()
	assert.Empty(t, s.Values())
	assert.False(t, s.UpdatedAt.Before(before))
}

func TestState_ValuesReturnsCopy(t *testing.T) {
	s := NewState("Idle", "")
	require.NoError(t, s.SetValue("k", 1))

	values := s.Values()
	values["k"] = 99
	values["injected"] = true

	v, err := s.Value("k")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.False(t, s.HasValue("injected"))
}

func TestState_Validate(t *testing.T) {
	s := NewState("", "")
	errs := s.Validate()
	require.Len(t, errs, 1)
	assert.True(t, IsValidationError(errs[0]))

	assert.Empty(t, NewState("Idle", "").Validate())
}

func TestState_Clone(t *testing.T) {
	s := NewState("Fighting", "engaged")
	s.Deactivate()
	require.NoError(t, s.SetValue("target", "slime"))

	c := s.Clone()
	assert.NotEqual(t, s.ID, c.ID, "clone must get a fresh id")
	assert.Equal(t, s.Name, c.Name)
	assert.Equal(t, s.Description, c.Description)
	assert.Equal(t, s.Active, c.Active)
	assert.Equal(t, s.Values(), c.Values())

	// Deep copy: mutating the clone leaves the source alone.
	require.NoError(t, c.SetValue("target", "wolf"))
	v, err := s.Value("target")
	require.NoError(t, err)
	assert.Equal(t, "slime", v)
}

func TestState_MergeWith(t *testing.T) {
	t.Run("inactive source is a no-op", func(t *testing.T) {
		dst := NewState("A", "")
		require.NoError(t, dst.SetValue("k", "old"))

		src := NewState("B", "")
		require.NoError(t, src.SetValue("k", "new"))
		src.Deactivate()

		dst.MergeWith(src)
		assert.Equal(t, "old", dst.ValueOr("k", nil))
	})

	t.Run("last writer wins, untouched keys survive", func(t *testing.T) {
		dst := NewState("A", "")
		require.NoError(t, dst.SetValue("k", "old"))
		require.NoError(t, dst.SetValue("keep", true))

		src := NewState("B", "")
		require.NoError(t, src.SetValue("k", "new"))
		require.NoError(t, src.SetValue("extra", 7))

		dst.MergeWith(src)
		assert.Equal(t, "new", dst.ValueOr("k", nil))
		assert.Equal(t, true, dst.ValueOr("keep", nil))
		assert.Equal(t, 7, dst.ValueOr("extra", nil))
	})

	t.Run("nil source is a no-op", func(t *testing.T) {
		dst := NewState("A", "")
		assert.NotPanics(t, func() { dst.MergeWith(nil) })
	})
}
