package mongodb

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type amounts struct {
	Stake  decimal.Decimal  `bson:"stake"`
	Refund *decimal.Decimal `bson:"refund,omitempty"`
}

func TestDecimalCodecRoundTrip(t *testing.T) {
	reg := NewRegistry()
	refund := decimal.RequireFromString("0.02")
	in := amounts{Stake: decimal.RequireFromString("1234.50"), Refund: &refund}

	raw, err := bson.MarshalWithRegistry(reg, in)
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	_, isDecimal := doc["stake"].(primitive.Decimal128)
	assert.True(t, isDecimal, "stake stored as Decimal128")

	var out amounts
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &out))
	assert.True(t, out.Stake.Equal(in.Stake))
	require.NotNil(t, out.Refund)
	assert.True(t, out.Refund.Equal(refund))
}

func TestDecimalCodecNilPointerOmitted(t *testing.T) {
	reg := NewRegistry()
	raw, err := bson.MarshalWithRegistry(reg, amounts{Stake: decimal.NewFromInt(5)})
	require.NoError(t, err)

	var out amounts
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &out))
	assert.Nil(t, out.Refund)
	assert.True(t, out.Stake.Equal(decimal.NewFromInt(5)))
}

func TestDecimalCodecAcceptsLegacyDoubles(t *testing.T) {
	reg := NewRegistry()
	raw, err := bson.Marshal(bson.M{"stake": 12.5})
	require.NoError(t, err)

	var out amounts
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &out))
	assert.True(t, out.Stake.Equal(decimal.RequireFromString("12.5")))
}
