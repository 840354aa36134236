package auction

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/keeper/domain"
)

func TestParseStatus(t *testing.T) {
	for s, name := range statusNames {
		got, err := ParseStatus(name)
		require.NoError(t, err)
		require.Equal(t, s, got)
	}

	got, err := ParseStatus("Settled")
	require.NoError(t, err)
	require.Equal(t, StatusSettled, got)

	_, err = ParseStatus("expired")
	require.True(t, errors.Is(err, domain.ErrBadParamInput))
}

func TestStatusJson(t *testing.T) {
	b, err := json.Marshal(struct {
		Status Status `json:"status"`
	}{StatusFinalized})
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"finalized"}`, string(b))

	var v struct {
		Status Status `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"cancelled"}`), &v))
	require.Equal(t, StatusCancelled, v.Status)

	require.Error(t, json.Unmarshal([]byte(`{"status":"gone"}`), &v))
}

func TestStatusBsonKeepsNumber(t *testing.T) {
	b, err := bson.Marshal(bson.M{"status": StatusSettled})
	require.NoError(t, err)

	var raw bson.M
	require.NoError(t, bson.Unmarshal(b, &raw))
	require.Equal(t, int32(StatusSettled), raw["status"])
}

func TestStatusIsTerminal(t *testing.T) {
	require.False(t, StatusCreated.IsTerminal())
	require.False(t, StatusActive.IsTerminal())
	require.False(t, StatusFinalized.IsTerminal())
	require.True(t, StatusSettled.IsTerminal())
	require.True(t, StatusClaimed.IsTerminal())
	require.True(t, StatusCancelled.IsTerminal())
	require.Equal(t, "unknown", Status(42).String())
	require.False(t, Status(42).IsValid())
}
