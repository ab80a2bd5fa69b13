package parcl

// API routes, relative to the base URL.
const (
	EndpointExchange                = "/exchange"
	EndpointExponents               = "/exponents"
	EndpointMarketIDs               = "/market-ids"
	EndpointMarket                  = "/market"
	EndpointMarkets                 = "/markets"
	EndpointMarginAccount           = "/margin-account"
	EndpointMarginAccounts          = "/margin-accounts"
	EndpointUnhealthyMarginAccounts = "/unhealthy-margin-accounts"
	EndpointModifyPositionQuote     = "/modify-position-quote"

	EndpointCreateMarginAccountTransaction  = "/create-margin-account-transaction"
	EndpointCreateMarginAccountInstructions = "/create-margin-account-instructions"
	EndpointCloseMarginAccountTransaction   = "/close-margin-account-transaction"
	EndpointCloseMarginAccountInstructions  = "/close-margin-account-instructions"
	EndpointDepositMarginTransaction        = "/deposit-margin-transaction"
	EndpointDepositMarginInstructions       = "/deposit-margin-instructions"
	EndpointWithdrawMarginTransaction       = "/withdraw-margin-transaction"
	EndpointWithdrawMarginInstructions      = "/withdraw-margin-instructions"
	EndpointModifyPositionTransaction       = "/modify-position-transaction"
	EndpointModifyPositionInstructions      = "/modify-position-instructions"
	EndpointClosePositionTransaction        = "/close-position-transaction"
	EndpointClosePositionInstructions       = "/close-position-instructions"
	EndpointLiquidateTransaction            = "/liquidate-transaction"
	EndpointLiquidateInstructions           = "/liquidate-instructions"
)
