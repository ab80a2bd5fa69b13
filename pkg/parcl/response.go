package parcl

import (
	"encoding/json"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// TransactionInfo carries an unsigned, serialized transaction and its cost
// estimate. Transaction is base64 on the wire.
type TransactionInfo struct {
	Transaction             []byte `json:"transaction"`
	TotalRequiredLamports   uint64 `json:"total_required_lamports"`
	RequiredComputeLamports uint64 `json:"required_compute_lamports"`
	RequiredRentLamports    uint64 `json:"required_rent_lamports"`
	CULimit                 uint32 `json:"cu_limit"`
}

type InstructionInfo struct {
	Instructions            Instructions `json:"instructions"`
	TotalRequiredLamports   uint64       `json:"total_required_lamports"`
	RequiredComputeLamports uint64       `json:"required_compute_lamports"`
	RequiredRentLamports    uint64       `json:"required_rent_lamports"`
	CULimit                 uint32       `json:"cu_limit"`
}

type Instructions struct {
	V3Instructions            []*solana.GenericInstruction
	ComputeBudgetInstructions []*solana.GenericInstruction
}

type wireAccountMeta struct {
	Pubkey     solana.PublicKey `json:"pubkey"`
	IsSigner   bool             `json:"is_signer"`
	IsWritable bool             `json:"is_writable"`
}

type wireInstruction struct {
	ProgramID solana.PublicKey  `json:"program_id"`
	Accounts  []wireAccountMeta `json:"accounts"`
	Data      []byte            `json:"data"`
}

func (w wireInstruction) instruction() *solana.GenericInstruction {
	metas := make(solana.AccountMetaSlice, 0, len(w.Accounts))
	for _, a := range w.Accounts {
		metas = append(metas, solana.NewAccountMeta(a.Pubkey, a.IsWritable, a.IsSigner))
	}
	return solana.NewInstruction(w.ProgramID, metas, w.Data)
}

func (ixs *Instructions) UnmarshalJSON(data []byte) error {
	var wire struct {
		V3Instructions            []wireInstruction `json:"v3_instructions"`
		ComputeBudgetInstructions []wireInstruction `json:"compute_budget_instructions"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	ixs.V3Instructions = make([]*solana.GenericInstruction, 0, len(wire.V3Instructions))
	for _, w := range wire.V3Instructions {
		ixs.V3Instructions = append(ixs.V3Instructions, w.instruction())
	}
	ixs.ComputeBudgetInstructions = make([]*solana.GenericInstruction, 0, len(wire.ComputeBudgetInstructions))
	for _, w := range wire.ComputeBudgetInstructions {
		ixs.ComputeBudgetInstructions = append(ixs.ComputeBudgetInstructions, w.instruction())
	}
	return nil
}

// All returns compute budget instructions followed by the v3 instructions,
// the order they must appear in a transaction.
func (ixs Instructions) All() []solana.Instruction {
	out := make([]solana.Instruction, 0, len(ixs.ComputeBudgetInstructions)+len(ixs.V3Instructions))
	for _, ix := range ixs.ComputeBudgetInstructions {
		out = append(out, ix)
	}
	for _, ix := range ixs.V3Instructions {
		out = append(out, ix)
	}
	return out
}

type CreateMarginAccountTransactionResponse struct {
	Transaction             []byte           `json:"transaction"`
	TotalRequiredLamports   uint64           `json:"total_required_lamports"`
	RequiredComputeLamports uint64           `json:"required_compute_lamports"`
	RequiredRentLamports    uint64           `json:"required_rent_lamports"`
	MarginAccountAddress    solana.PublicKey `json:"margin_account_address"`
	MarginAccountID         MarginAccountID  `json:"margin_account_id"`
}

type CreateMarginAccountInstructionsResponse struct {
	Instructions            Instructions     `json:"instructions"`
	TotalRequiredLamports   uint64           `json:"total_required_lamports"`
	RequiredComputeLamports uint64           `json:"required_compute_lamports"`
	RequiredRentLamports    uint64           `json:"required_rent_lamports"`
	MarginAccountAddress    solana.PublicKey `json:"margin_account_address"`
	MarginAccountID         MarginAccountID  `json:"margin_account_id"`
}

type ExchangeInfo struct {
	Address                         solana.PublicKey       `json:"address"`
	Accounting                      ExchangeInfoAccounting `json:"accounting"`
	Settings                        ExchangeInfoSettings   `json:"settings"`
	ID                              ExchangeID             `json:"id,string"`
	MarketIDs                       []MarketID             `json:"market_ids"`
	OracleConfigs                   []OracleConfig         `json:"oracle_configs"`
	Status                          uint16                 `json:"status"`
	CollateralExpo                  int16                  `json:"collateral_expo"`
	CollateralMint                  solana.PublicKey       `json:"collateral_mint"`
	CollateralVault                 solana.PublicKey       `json:"collateral_vault"`
	Admin                           solana.PublicKey       `json:"admin"`
	NominatedAdmin                  solana.PublicKey       `json:"nominated_admin"`
	AuthorizedSettler               solana.PublicKey       `json:"authorized_settler"`
	AuthorizedProtocolFeesCollector solana.PublicKey       `json:"authorized_protocol_fees_collector"`
}

type ExchangeInfoAccounting struct {
	NotionalOpenInterest                          decimal.Decimal `json:"notional_open_interest"`
	LastTimeLockedOpenInterestAccountingRefreshed uint64          `json:"last_time_locked_open_interest_accounting_refreshed,string"`
	Balance                                       uint64          `json:"balance,string"`
	MarginBalance                                 uint64          `json:"margin_balance,string"`
	LPBalance                                     uint64          `json:"lp_balance,string"`
	LPShares                                      uint64          `json:"lp_shares,string"`
	ProtocolFees                                  uint64          `json:"protocol_fees,string"`
	UnsettledCollateralAmount                     uint64          `json:"unsettled_collateral_amount,string"`
}

type ExchangeInfoSettings struct {
	MinLPDuration                        uint64 `json:"min_lp_duration"`
	SettlementDelay                      uint64 `json:"settlement_delay"`
	MinLiquidationFee                    uint64 `json:"min_liquidation_fee,string"`
	MaxLiquidationFee                    uint64 `json:"max_liquidation_fee,string"`
	LockedOpenInterestStalenessThreshold uint64 `json:"locked_open_interest_staleness_threshold"`
	ProtocolFeeRate                      uint16 `json:"protocol_fee_rate"`
	LockedOpenInterestRatio              uint16 `json:"locked_open_interest_ratio"`
	MaxKeeperTipRate                     uint16 `json:"max_keeper_tip_rate"`
}

type OracleKind string

const (
	OracleKindPyth   OracleKind = "Pyth"
	OracleKindParcl  OracleKind = "Parcl"
	OracleKindPythV2 OracleKind = "PythV2"
)

type OracleConfig struct {
	Kind      OracleKind       `json:"kind"`
	ProgramID solana.PublicKey `json:"program_id"`
}

type MarginAccountInfo struct {
	Address         solana.PublicKey `json:"address"`
	ID              MarginAccountID  `json:"id"`
	ActiveMarketIDs []MarketID       `json:"active_market_ids"`
	Positions       []PositionInfo   `json:"positions"`
	Margins         Margins          `json:"margins"`
	Margin          uint64           `json:"margin,string"`
	ExcessMargin    uint64           `json:"excess_margin,string"`
	Exchange        solana.PublicKey `json:"exchange"`
	Owner           solana.PublicKey `json:"owner"`
	Delegate        solana.PublicKey `json:"delegate"`
	CanClose        bool             `json:"can_close"`
	CanLiquidate    bool             `json:"can_liquidate"`
	InLiquidation   bool             `json:"in_liquidation"`
}

type Margins struct {
	AvailableMargin              decimal.Decimal `json:"available_margin"`
	TotalRequiredMargin          uint64          `json:"total_required_margin,string"`
	RequiredInitialMargin        uint64          `json:"required_initial_margin,string"`
	RequiredMaintenanceMargin    uint64          `json:"required_maintenance_margin,string"`
	RequiredLiquidationFeeMargin uint64          `json:"required_liquidation_fee_margin,string"`
	AccumulatedLiquidationFees   uint64          `json:"accumulated_liquidation_fees,string"`
}

type PositionInfo struct {
	Size                          decimal.Decimal `json:"size"`
	LastInteractionPrice          decimal.Decimal `json:"last_interaction_price"`
	LastInteractionFundingPerUnit string          `json:"last_interaction_funding_per_unit"`
	MarketID                      MarketID        `json:"market_id"`
}

type MarketInfo struct {
	Address       solana.PublicKey     `json:"address"`
	PriceFeedInfo PriceFeedInfo        `json:"price_feed_info"`
	Accounting    MarketInfoAccounting `json:"accounting"`
	Settings      MarketInfoSettings   `json:"settings"`
	ID            MarketID             `json:"id"`
	Exchange      solana.PublicKey     `json:"exchange"`
	PriceFeed     solana.PublicKey     `json:"price_feed"`
	Status        uint8                `json:"status"`
}

type PriceFeedInfo struct {
	Price uint64 `json:"price,string"`
	Expo  int32  `json:"expo"`
}

// Decimal scales the raw feed price by its exponent.
func (p PriceFeedInfo) Decimal() decimal.Decimal {
	return decimal.New(int64(p.Price), p.Expo)
}

type MarketInfoAccounting struct {
	LastUtilizedLiquidationCapacity    decimal.Decimal `json:"last_utilized_liquidation_capacity"`
	Size                               decimal.Decimal `json:"size"`
	Skew                               decimal.Decimal `json:"skew"`
	LastFundingRate                    string          `json:"last_funding_rate"`
	LastFundingPerUnit                 string          `json:"last_funding_per_unit"`
	LastTimeFundingUpdated             uint64          `json:"last_time_funding_updated"`
	FirstLiquidationEpochStartTime     uint64          `json:"first_liquidation_epoch_start_time"`
	LastLiquidationEpochIndex          uint64          `json:"last_liquidation_epoch_index"`
	LastTimeLiquidationCapacityUpdated uint64          `json:"last_time_liquidation_capacity_updated"`
}

type MarketInfoSettings struct {
	MinPositionMargin                         decimal.Decimal  `json:"min_position_margin"`
	SkewScale                                 decimal.Decimal  `json:"skew_scale"`
	MaxSideSize                               decimal.Decimal  `json:"max_side_size"`
	MaxLiquidationLimitAccumulationMultiplier uint64           `json:"max_liquidation_limit_accumulation_multiplier"` // bps
	MaxSecondsInLiquidationEpoch              uint64           `json:"max_seconds_in_liquidation_epoch"`
	InitialMarginRatio                        uint32           `json:"initial_margin_ratio"`
	MakerFeeRate                              uint16           `json:"maker_fee_rate"`
	TakerFeeRate                              uint16           `json:"taker_fee_rate"`
	MaxFundingVelocity                        uint16           `json:"max_funding_velocity"`
	LiquidationFeeRate                        uint16           `json:"liquidation_fee_rate"`
	MinInitialMarginRatio                     uint16           `json:"min_initial_margin_ratio"`
	MaintenanceMarginProportion               uint16           `json:"maintenance_margin_proportion"`
	MaxLiquidationPD                          uint16           `json:"max_liquidation_pd"`
	AuthorizedLiquidator                      solana.PublicKey `json:"authorized_liquidator"`
}

// ModifyPositionQuote is the server's preview of a position change. The
// typed fields cover what the quote route documents; Raw keeps the full body.
type ModifyPositionQuote struct {
	MarketID      MarketID        `json:"market_id"`
	SizeDelta     decimal.Decimal `json:"size_delta"`
	FillPrice     decimal.Decimal `json:"fill_price"`
	Fees          decimal.Decimal `json:"fees"`
	MarginsBefore *Margins        `json:"margins_before"`
	MarginsAfter  *Margins        `json:"margins_after"`
	IsValid       bool            `json:"is_valid"`

	Raw json.RawMessage `json:"-"`
}

func (q *ModifyPositionQuote) UnmarshalJSON(data []byte) error {
	type plain ModifyPositionQuote
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*q = ModifyPositionQuote(p)
	q.Raw = append(json.RawMessage(nil), data...)
	return nil
}
