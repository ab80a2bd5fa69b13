package parcl

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

func (c *Client) modifyPositionPayload(owner solana.PublicKey, id MarginAccountIdentifier, market MarketID, sizeDelta int64, slippage SlippageSetting) ModifyPositionPayload {
	p := NewModifyPositionPayload(owner, id, market, sizeDelta, slippage)
	p.ExchangeID = c.exchangeIDParam()
	p.PriorityFeePercentile = c.priorityFeePercentile
	return p
}

// GetModifyPositionTransaction asks the API for an unsigned transaction that
// changes the position in market by sizeDelta (positive grows long, negative
// grows short). Size bounds and market existence are checked server-side.
func (c *Client) GetModifyPositionTransaction(ctx context.Context, owner solana.PublicKey, id MarginAccountIdentifier, market MarketID, sizeDelta int64, slippage SlippageSetting) (*TransactionInfo, error) {
	var out TransactionInfo
	if err := c.post(ctx, EndpointModifyPositionTransaction, c.modifyPositionPayload(owner, id, market, sizeDelta, slippage), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetModifyPositionInstructions(ctx context.Context, owner solana.PublicKey, id MarginAccountIdentifier, market MarketID, sizeDelta int64, slippage SlippageSetting) (*InstructionInfo, error) {
	var out InstructionInfo
	if err := c.post(ctx, EndpointModifyPositionInstructions, c.modifyPositionPayload(owner, id, market, sizeDelta, slippage), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetModifyPositionQuote previews a position change without building a
// transaction.
func (c *Client) GetModifyPositionQuote(ctx context.Context, owner solana.PublicKey, id MarginAccountIdentifier, market MarketID, sizeDelta int64, slippage SlippageSetting) (*ModifyPositionQuote, error) {
	price, bps := slippage.requestFields()
	payload := ModifyPositionQuotePayload{
		Owner:                owner,
		MarginAccountID:      id,
		MarketID:             market,
		SizeDelta:            sizeDelta,
		AcceptablePrice:      quoted(price),
		SlippageToleranceBps: bps,
		ExchangeID:           c.exchangeIDParam(),
	}
	var out ModifyPositionQuote
	if err := c.post(ctx, EndpointModifyPositionQuote, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) closePositionPayload(owner solana.PublicKey, id MarginAccountIdentifier, market MarketID, slippage SlippageSetting) ClosePositionPayload {
	price, bps := slippage.requestFields()
	return ClosePositionPayload{
		Owner:                 owner,
		MarginAccountID:       id,
		MarketID:              market,
		AcceptablePrice:       quoted(price),
		SlippageToleranceBps:  bps,
		ExchangeID:            c.exchangeIDParam(),
		PriorityFeePercentile: c.priorityFeePercentile,
	}
}

func (c *Client) GetClosePositionTransaction(ctx context.Context, owner solana.PublicKey, id MarginAccountIdentifier, market MarketID, slippage SlippageSetting) (*TransactionInfo, error) {
	var out TransactionInfo
	if err := c.post(ctx, EndpointClosePositionTransaction, c.closePositionPayload(owner, id, market, slippage), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetClosePositionInstructions(ctx context.Context, owner solana.PublicKey, id MarginAccountIdentifier, market MarketID, slippage SlippageSetting) (*InstructionInfo, error) {
	var out InstructionInfo
	if err := c.post(ctx, EndpointClosePositionInstructions, c.closePositionPayload(owner, id, market, slippage), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) liquidatePayload(target, liquidator solana.PublicKey, liquidatorAccount MarginAccountIdentifier) LiquidatePayload {
	return LiquidatePayload{
		MarginAccountToLiquidate:  target,
		Liquidator:                liquidator,
		LiquidatorMarginAccountID: liquidatorAccount,
		ExchangeID:                c.exchangeIDParam(),
		PriorityFeePercentile:     c.priorityFeePercentile,
	}
}

// GetLiquidateTransaction builds a liquidation of target, crediting the
// liquidator's margin account.
func (c *Client) GetLiquidateTransaction(ctx context.Context, target, liquidator solana.PublicKey, liquidatorAccount MarginAccountIdentifier) (*TransactionInfo, error) {
	var out TransactionInfo
	if err := c.post(ctx, EndpointLiquidateTransaction, c.liquidatePayload(target, liquidator, liquidatorAccount), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetLiquidateInstructions(ctx context.Context, target, liquidator solana.PublicKey, liquidatorAccount MarginAccountIdentifier) (*InstructionInfo, error) {
	var out InstructionInfo
	if err := c.post(ctx, EndpointLiquidateInstructions, c.liquidatePayload(target, liquidator, liquidatorAccount), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
