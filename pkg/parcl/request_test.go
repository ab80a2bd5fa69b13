package parcl

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeObject(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestModifyPositionPayload(t *testing.T) {
	owner := solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	t.Run("zero bps is sent verbatim", func(t *testing.T) {
		p := NewModifyPositionPayload(owner, MarginAccountByID(0), 23, 1_000_000, SlippageToleranceBps(0))
		obj := decodeObject(t, p)

		assert.Equal(t, []string{
			"acceptable_price",
			"exchange_id",
			"margin_account_id",
			"market_id",
			"owner",
			"priority_fee_percentile",
			"size_delta",
			"slippage_tolerance_bps",
		}, keys(obj))
		assert.Equal(t, float64(0), obj["slippage_tolerance_bps"])
		assert.Nil(t, obj["acceptable_price"])
		assert.Equal(t, "1000000", obj["size_delta"])
		assert.Equal(t, "0", obj["margin_account_id"])
		assert.Equal(t, float64(23), obj["market_id"])
		assert.Equal(t, owner.String(), obj["owner"])
	})

	t.Run("no protection sends nulls", func(t *testing.T) {
		obj := decodeObject(t, NewModifyPositionPayload(owner, MarginAccountByID(1), 2, -5, NoSlippageProtection()))
		assert.Contains(t, obj, "acceptable_price")
		assert.Contains(t, obj, "slippage_tolerance_bps")
		assert.Nil(t, obj["acceptable_price"])
		assert.Nil(t, obj["slippage_tolerance_bps"])
		assert.Equal(t, "-5", obj["size_delta"])
	})

	t.Run("acceptable price is a string", func(t *testing.T) {
		obj := decodeObject(t, NewModifyPositionPayload(owner, MarginAccountByID(1), 2, 5, AcceptablePrice(123456789)))
		assert.Equal(t, "123456789", obj["acceptable_price"])
		assert.Nil(t, obj["slippage_tolerance_bps"])
	})
}

func TestQuotePayloadHasNoPriorityFee(t *testing.T) {
	obj := decodeObject(t, ModifyPositionQuotePayload{})
	assert.NotContains(t, obj, "priority_fee_percentile")
	assert.Contains(t, obj, "exchange_id")
}

func TestWithdrawPayloadOptionalFields(t *testing.T) {
	tip := uint64(5000)
	obj := decodeObject(t, WithdrawMarginPayload{Margin: 10, KeeperTip: &tip})
	assert.Nil(t, obj["settlement_request_id"])
	assert.Equal(t, float64(5000), obj["keeper_tip"])
	assert.Contains(t, obj, "settlement_request_id")
}
