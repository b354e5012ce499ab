package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayloadVariants(t *testing.T) {
	payload, err := DecodePayload(EventAPICall, json.RawMessage(`{"data_size": 2048}`))
	require.NoError(t, err)
	assert.Equal(t, Deltas{APICalls: 1, DataProcessed: 2048}, payload.Deltas())

	payload, err = DecodePayload(EventStorageUpload, json.RawMessage(`{"size": 100}`))
	require.NoError(t, err)
	assert.Equal(t, Deltas{StorageUsed: 100}, payload.Deltas())

	// absent fields default to zero
	payload, err = DecodePayload(EventStorageUpload, nil)
	require.NoError(t, err)
	assert.Equal(t, Deltas{}, payload.Deltas())

	payload, err = DecodePayload(EventUserSession, json.RawMessage(`{"ignored": true}`))
	require.NoError(t, err)
	assert.Equal(t, Deltas{UserSessions: 1}, payload.Deltas())

	payload, err = DecodePayload(EventCustomQuery, nil)
	require.NoError(t, err)
	assert.Equal(t, Deltas{CustomQueries: 1}, payload.Deltas())
}

func TestDecodePayloadRejections(t *testing.T) {
	_, err := DecodePayload("page_view", nil)
	assert.ErrorIs(t, err, ErrInvalidEventType)

	_, err = DecodePayload(EventAPICall, json.RawMessage(`{"data_size": -5}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = DecodePayload(EventAPICall, json.RawMessage(`not json`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
