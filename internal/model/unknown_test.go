package model_test

import (
	"encoding/json"
	"testing"

	"github.com/jkindrix/claude-snatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectUnknown_PreservesFirstSeenOrder(t *testing.T) {
	raw := json.RawMessage(`{"zeta": 1, "alpha": 2, "known": true, "mu": 3}`)
	u, err := model.CollectUnknown(raw, map[string]bool{"known": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mu"}, u.Keys())
	assert.Equal(t, 3, u.Len())
}

func TestCollectUnknown_DropsKnownFields(t *testing.T) {
	raw := json.RawMessage(`{"uuid": "u1", "extra": "keep me"}`)
	u, err := model.CollectUnknown(raw, map[string]bool{"uuid": true})
	require.NoError(t, err)
	_, ok := u.Get("uuid")
	assert.False(t, ok)
	v, ok := u.Get("extra")
	require.True(t, ok)
	assert.JSONEq(t, `"keep me"`, string(v))
}

func TestUnknownFields_SetOverwritesWithoutDuplicatingOrder(t *testing.T) {
	var u model.UnknownFields
	u.Set("a", json.RawMessage(`1`))
	u.Set("b", json.RawMessage(`2`))
	u.Set("a", json.RawMessage(`99`))

	assert.Equal(t, []string{"a", "b"}, u.Keys())
	v, ok := u.Get("a")
	require.True(t, ok)
	assert.Equal(t, `99`, string(v))
}

func TestUnknownFields_WriteToEmitsEveryPair(t *testing.T) {
	var u model.UnknownFields
	u.Set("x", json.RawMessage(`"one"`))
	u.Set("y", json.RawMessage(`"two"`))

	enc := map[string]json.RawMessage{}
	u.WriteTo(enc)
	assert.Len(t, enc, 2)
	assert.Equal(t, `"one"`, string(enc["x"]))
}

func TestUnknownFields_NilReceiverIsSafe(t *testing.T) {
	var u *model.UnknownFields
	assert.Equal(t, 0, u.Len())
	assert.Nil(t, u.Keys())
	_, ok := u.Get("anything")
	assert.False(t, ok)
	enc := map[string]json.RawMessage{}
	u.WriteTo(enc)
	assert.Empty(t, enc)
}
