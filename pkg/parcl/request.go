package parcl

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
)

// quotedUint64 is a u64 carried as a JSON string.
type quotedUint64 uint64

func (q quotedUint64) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatUint(uint64(q), 10))), nil
}

func quoted(v *uint64) *quotedUint64 {
	if v == nil {
		return nil
	}
	q := quotedUint64(*v)
	return &q
}

// Request bodies. Field sets mirror the API documentation exactly; optional
// values are sent as null rather than omitted.

type MarginAccountsPayload struct {
	MarginAccounts []solana.PublicKey  `json:"margin_accounts"`
	ExchangeID     *ExchangeIdentifier `json:"exchange_id"`
}

type MarketsPayload struct {
	MarketIDs  []MarketIdentifier  `json:"market_ids"`
	ExchangeID *ExchangeIdentifier `json:"exchange_id"`
}

type CreateMarginAccountPayload struct {
	Owner                 solana.PublicKey    `json:"owner"`
	MarginAccountID       *MarginAccountID    `json:"margin_account_id"`
	ExchangeID            *ExchangeIdentifier `json:"exchange_id"`
	PriorityFeePercentile *uint16             `json:"priority_fee_percentile"`
}

type CloseMarginAccountPayload struct {
	Owner                 solana.PublicKey        `json:"owner"`
	MarginAccountID       MarginAccountIdentifier `json:"margin_account_id"`
	ExchangeID            *ExchangeIdentifier     `json:"exchange_id"`
	PriorityFeePercentile *uint16                 `json:"priority_fee_percentile"`
}

type DepositMarginPayload struct {
	Owner                 solana.PublicKey        `json:"owner"`
	MarginAccountID       MarginAccountIdentifier `json:"margin_account_id"`
	Margin                uint64                  `json:"margin"`
	ExchangeID            *ExchangeIdentifier     `json:"exchange_id"`
	PriorityFeePercentile *uint16                 `json:"priority_fee_percentile"`
}

type WithdrawMarginPayload struct {
	Owner                 solana.PublicKey        `json:"owner"`
	MarginAccountID       MarginAccountIdentifier `json:"margin_account_id"`
	Margin                uint64                  `json:"margin"`
	SettlementRequestID   *SettlementRequestID    `json:"settlement_request_id"`
	KeeperTip             *uint64                 `json:"keeper_tip"`
	ExchangeID            *ExchangeIdentifier     `json:"exchange_id"`
	PriorityFeePercentile *uint16                 `json:"priority_fee_percentile"`
}

type ModifyPositionPayload struct {
	Owner                 solana.PublicKey        `json:"owner"`
	MarginAccountID       MarginAccountIdentifier `json:"margin_account_id"`
	MarketID              MarketID                `json:"market_id"`
	SizeDelta             int64                   `json:"size_delta,string"`
	AcceptablePrice       *quotedUint64           `json:"acceptable_price"`
	SlippageToleranceBps  *uint16                 `json:"slippage_tolerance_bps"`
	ExchangeID            *ExchangeIdentifier     `json:"exchange_id"`
	PriorityFeePercentile *uint16                 `json:"priority_fee_percentile"`
}

// NewModifyPositionPayload fills the slippage fields from setting and leaves
// exchange and priority fee unset.
func NewModifyPositionPayload(
	owner solana.PublicKey,
	marginAccountID MarginAccountIdentifier,
	marketID MarketID,
	sizeDelta int64,
	setting SlippageSetting,
) ModifyPositionPayload {
	price, bps := setting.requestFields()
	return ModifyPositionPayload{
		Owner:                owner,
		MarginAccountID:      marginAccountID,
		MarketID:             marketID,
		SizeDelta:            sizeDelta,
		AcceptablePrice:      quoted(price),
		SlippageToleranceBps: bps,
	}
}

type ModifyPositionQuotePayload struct {
	Owner                solana.PublicKey        `json:"owner"`
	MarginAccountID      MarginAccountIdentifier `json:"margin_account_id"`
	MarketID             MarketID                `json:"market_id"`
	SizeDelta            int64                   `json:"size_delta,string"`
	AcceptablePrice      *quotedUint64           `json:"acceptable_price"`
	SlippageToleranceBps *uint16                 `json:"slippage_tolerance_bps"`
	ExchangeID           *ExchangeIdentifier     `json:"exchange_id"`
}

type ClosePositionPayload struct {
	Owner                 solana.PublicKey        `json:"owner"`
	MarginAccountID       MarginAccountIdentifier `json:"margin_account_id"`
	MarketID              MarketID                `json:"market_id"`
	AcceptablePrice       *quotedUint64           `json:"acceptable_price"`
	SlippageToleranceBps  *uint16                 `json:"slippage_tolerance_bps"`
	ExchangeID            *ExchangeIdentifier     `json:"exchange_id"`
	PriorityFeePercentile *uint16                 `json:"priority_fee_percentile"`
}

type LiquidatePayload struct {
	MarginAccountToLiquidate  solana.PublicKey        `json:"margin_account_to_liquidate"`
	Liquidator                solana.PublicKey        `json:"liquidator"`
	LiquidatorMarginAccountID MarginAccountIdentifier `json:"liquidator_margin_account_id"`
	ExchangeID                *ExchangeIdentifier     `json:"exchange_id"`
	PriorityFeePercentile     *uint16                 `json:"priority_fee_percentile"`
}
