package mongoclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/keeper/base/ptr"
)

func TestMakeBsonM(t *testing.T) {
	type patchable struct {
		Winner        *string `bson:"winner,omitempty"`
		Status        *int32  `bson:"status,omitempty"`
		WinningAmount string  `bson:"winningAmount"`
		Seller        string  `bson:"seller"`
		Skipped       string  `bson:"-"`
	}

	p := &patchable{
		Winner:  ptr.To(""),
		Status:  ptr.To(int32(2)),
		Seller:  "0xabc",
		Skipped: "ignored",
	}

	updater, err := MakeBsonM(p)

	assert.NoError(t, err)
	assert.Equal(
		t,
		bson.M{
			"winner": "",
			"status": int32(2),
			// winningAmount is empty, so ignore
			"seller": "0xabc",
		},
		updater,
	)
}

func TestMakeBsonMRejectsNonStruct(t *testing.T) {
	_, err := MakeBsonM(map[string]string{"status": "settled"})
	assert.ErrorIs(t, err, ErrNotStruct)
}
