package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexOp_EncodeDecodeRoundTrip(t *testing.T) {
	op := IndexOp{Action: ActionUpdate, Name: "users", Type: "user", Keys: []string{"1", "2"}}

	data, err := op.Encode()
	require.NoError(t, err)

	decoded, err := DecodeIndexOp(data)
	require.NoError(t, err)
	assert.Equal(t, op, decoded)
}

func TestIndexOp_EncodeNormalizesNilKeysToEmptySlice(t *testing.T) {
	op := IndexOp{Action: ActionCreate, Name: "topics", Type: "topic"}

	data, err := op.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"CREATE","name":"topics","type":"topic","keys":[]}`, string(data))

	decoded, err := DecodeIndexOp(data)
	require.NoError(t, err)
	assert.True(t, decoded.AllKeys())
}

func TestDecodeIndexOp_RejectsUnknownAction(t *testing.T) {
	_, err := DecodeIndexOp([]byte(`{"action":"PURGE","name":"users","type":"user","keys":[]}`))
	require.ErrorIs(t, err, ErrDecode)
}

func TestDecodeIndexOp_RejectsMissingNameOrType(t *testing.T) {
	_, err := DecodeIndexOp([]byte(`{"action":"UPDATE","name":"","type":"user","keys":[]}`))
	require.ErrorIs(t, err, ErrDecode)

	_, err = DecodeIndexOp([]byte(`{"action":"UPDATE","name":"users","type":"","keys":[]}`))
	require.ErrorIs(t, err, ErrDecode)
}

func TestDecodeIndexOp_RejectsMalformedJSON(t *testing.T) {
	_, err := DecodeIndexOp([]byte(`not json`))
	require.ErrorIs(t, err, ErrDecode)
}

func TestIndexAction_Valid(t *testing.T) {
	assert.True(t, ActionCreate.Valid())
	assert.True(t, ActionUpdate.Valid())
	assert.True(t, ActionDelete.Valid())
	assert.False(t, IndexAction("PURGE").Valid())
	assert.False(t, IndexAction("").Valid())
}

func TestIndexOp_AllKeys(t *testing.T) {
	assert.True(t, IndexOp{Keys: nil}.AllKeys())
	assert.True(t, IndexOp{Keys: []string{}}.AllKeys())
	assert.False(t, IndexOp{Keys: []string{"1"}}.AllKeys())
}
