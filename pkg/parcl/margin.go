package parcl

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// GetMarginAccount looks up a margin account. owner is required when the
// account is identified by id and ignored otherwise.
func (c *Client) GetMarginAccount(ctx context.Context, id MarginAccountIdentifier, owner *solana.PublicKey) (*MarginAccountInfo, error) {
	params := map[string]string{"margin_account_id": id.String()}
	if owner != nil {
		params["owner"] = owner.String()
	}
	var out MarginAccountInfo
	if err := c.get(ctx, EndpointMarginAccount, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetMarginAccountFromID(ctx context.Context, owner solana.PublicKey, id MarginAccountID) (*MarginAccountInfo, error) {
	return c.GetMarginAccount(ctx, MarginAccountByID(id), &owner)
}

func (c *Client) GetMarginAccountFromAddress(ctx context.Context, address solana.PublicKey) (*MarginAccountInfo, error) {
	return c.GetMarginAccount(ctx, MarginAccountByAddress(address), nil)
}

// GetMarginAccounts fetches several accounts at once. Accounts that do not
// exist come back as nil entries, in request order.
func (c *Client) GetMarginAccounts(ctx context.Context, addresses []solana.PublicKey) ([]*MarginAccountInfo, error) {
	var out []*MarginAccountInfo
	payload := MarginAccountsPayload{MarginAccounts: addresses, ExchangeID: c.exchangeIDParam()}
	if err := c.post(ctx, EndpointMarginAccounts, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetUnhealthyMarginAccounts lists accounts eligible for liquidation.
// Entries that are not valid addresses are dropped.
func (c *Client) GetUnhealthyMarginAccounts(ctx context.Context) ([]solana.PublicKey, error) {
	var raw []string
	if err := c.get(ctx, EndpointUnhealthyMarginAccounts, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]solana.PublicKey, 0, len(raw))
	for _, s := range raw {
		pk, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			c.log.WithField("address", s).Debug("skipping unparsable unhealthy margin account")
			continue
		}
		out = append(out, pk)
	}
	return out, nil
}

func (c *Client) createMarginAccountPayload(owner solana.PublicKey, id *MarginAccountID) CreateMarginAccountPayload {
	return CreateMarginAccountPayload{
		Owner:                 owner,
		MarginAccountID:       id,
		ExchangeID:            c.exchangeIDParam(),
		PriorityFeePercentile: c.priorityFeePercentile,
	}
}

// GetCreateMarginAccountTransaction builds a transaction creating a margin
// account for owner. A nil id lets the server pick the next free one.
func (c *Client) GetCreateMarginAccountTransaction(ctx context.Context, owner solana.PublicKey, id *MarginAccountID) (*CreateMarginAccountTransactionResponse, error) {
	var out CreateMarginAccountTransactionResponse
	if err := c.post(ctx, EndpointCreateMarginAccountTransaction, c.createMarginAccountPayload(owner, id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCreateMarginAccountInstructions(ctx context.Context, owner solana.PublicKey, id *MarginAccountID) (*CreateMarginAccountInstructionsResponse, error) {
	var out CreateMarginAccountInstructionsResponse
	if err := c.post(ctx, EndpointCreateMarginAccountInstructions, c.createMarginAccountPayload(owner, id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) closeMarginAccountPayload(owner solana.PublicKey, id MarginAccountIdentifier) CloseMarginAccountPayload {
	return CloseMarginAccountPayload{
		Owner:                 owner,
		MarginAccountID:       id,
		ExchangeID:            c.exchangeIDParam(),
		PriorityFeePercentile: c.priorityFeePercentile,
	}
}

func (c *Client) GetCloseMarginAccountTransaction(ctx context.Context, owner solana.PublicKey, id MarginAccountIdentifier) (*TransactionInfo, error) {
	var out TransactionInfo
	if err := c.post(ctx, EndpointCloseMarginAccountTransaction, c.closeMarginAccountPayload(owner, id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCloseMarginAccountInstructions(ctx context.Context, owner solana.PublicKey, id MarginAccountIdentifier) (*InstructionInfo, error) {
	var out InstructionInfo
	if err := c.post(ctx, EndpointCloseMarginAccountInstructions, c.closeMarginAccountPayload(owner, id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) depositMarginPayload(owner solana.PublicKey, id MarginAccountIdentifier, margin uint64) DepositMarginPayload {
	return DepositMarginPayload{
		Owner:                 owner,
		MarginAccountID:       id,
		Margin:                margin,
		ExchangeID:            c.exchangeIDParam(),
		PriorityFeePercentile: c.priorityFeePercentile,
	}
}

// GetDepositMarginTransaction moves margin (collateral base units) into the
// account.
func (c *Client) GetDepositMarginTransaction(ctx context.Context, owner solana.PublicKey, id MarginAccountIdentifier, margin uint64) (*TransactionInfo, error) {
	var out TransactionInfo
	if err := c.post(ctx, EndpointDepositMarginTransaction, c.depositMarginPayload(owner, id, margin), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetDepositMarginInstructions(ctx context.Context, owner solana.PublicKey, id MarginAccountIdentifier, margin uint64) (*InstructionInfo, error) {
	var out InstructionInfo
	if err := c.post(ctx, EndpointDepositMarginInstructions, c.depositMarginPayload(owner, id, margin), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WithdrawOptions are the optional settlement fields of a withdrawal.
type WithdrawOptions struct {
	SettlementRequestID *SettlementRequestID
	KeeperTip           *uint64
}

func (c *Client) withdrawMarginPayload(owner solana.PublicKey, id MarginAccountIdentifier, margin uint64, opts WithdrawOptions) WithdrawMarginPayload {
	return WithdrawMarginPayload{
		Owner:                 owner,
		MarginAccountID:       id,
		Margin:                margin,
		SettlementRequestID:   opts.SettlementRequestID,
		KeeperTip:             opts.KeeperTip,
		ExchangeID:            c.exchangeIDParam(),
		PriorityFeePercentile: c.priorityFeePercentile,
	}
}

func (c *Client) GetWithdrawMarginTransaction(ctx context.Context, owner solana.PublicKey, id MarginAccountIdentifier, margin uint64, opts WithdrawOptions) (*TransactionInfo, error) {
	var out TransactionInfo
	if err := c.post(ctx, EndpointWithdrawMarginTransaction, c.withdrawMarginPayload(owner, id, margin, opts), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetWithdrawMarginInstructions(ctx context.Context, owner solana.PublicKey, id MarginAccountIdentifier, margin uint64, opts WithdrawOptions) (*InstructionInfo, error) {
	var out InstructionInfo
	if err := c.post(ctx, EndpointWithdrawMarginInstructions, c.withdrawMarginPayload(owner, id, margin, opts), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
