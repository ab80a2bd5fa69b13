package parcl

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

func (c *Client) GetExchange(ctx context.Context) (*ExchangeInfo, error) {
	var out ExchangeInfo
	if err := c.get(ctx, EndpointExchange, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetExponents returns the price/size exponent table keyed by name.
func (c *Client) GetExponents(ctx context.Context) (map[string]int32, error) {
	var out map[string]int32
	if err := c.get(ctx, EndpointExponents, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getMarketIDs(ctx context.Context, kind MarketIDsResponseKind, out any) error {
	return c.get(ctx, EndpointMarketIDs, map[string]string{"response_kind": string(kind)}, out)
}

func (c *Client) GetMarketIDs(ctx context.Context) ([]MarketID, error) {
	var out []MarketID
	if err := c.getMarketIDs(ctx, MarketIDsIDs, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetMarketIDsMap(ctx context.Context) (map[MarketID]solana.PublicKey, error) {
	var out map[MarketID]solana.PublicKey
	if err := c.getMarketIDs(ctx, MarketIDsMap, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetMarketAddresses(ctx context.Context) ([]solana.PublicKey, error) {
	var out []solana.PublicKey
	if err := c.getMarketIDs(ctx, MarketIDsAddresses, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetMarket(ctx context.Context, market MarketIdentifier) (*MarketInfo, error) {
	var out MarketInfo
	if err := c.get(ctx, EndpointMarket, map[string]string{"market_id": market.String()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetMarketFromID(ctx context.Context, id MarketID) (*MarketInfo, error) {
	return c.GetMarket(ctx, MarketByID(id))
}

func (c *Client) GetMarketFromAddress(ctx context.Context, address solana.PublicKey) (*MarketInfo, error) {
	return c.GetMarket(ctx, MarketByAddress(address))
}

func (c *Client) GetMarkets(ctx context.Context, markets []MarketIdentifier) ([]MarketInfo, error) {
	var out []MarketInfo
	payload := MarketsPayload{MarketIDs: markets, ExchangeID: c.exchangeIDParam()}
	if err := c.post(ctx, EndpointMarkets, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetMarketsFromIDs(ctx context.Context, ids []MarketID) ([]MarketInfo, error) {
	markets := make([]MarketIdentifier, 0, len(ids))
	for _, id := range ids {
		markets = append(markets, MarketByID(id))
	}
	return c.GetMarkets(ctx, markets)
}

func (c *Client) GetMarketsFromAddresses(ctx context.Context, addresses []solana.PublicKey) ([]MarketInfo, error) {
	markets := make([]MarketIdentifier, 0, len(addresses))
	for _, address := range addresses {
		markets = append(markets, MarketByAddress(address))
	}
	return c.GetMarkets(ctx, markets)
}
