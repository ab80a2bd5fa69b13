package parcl

import "fmt"

type slippageKind uint8

const (
	slippageNone slippageKind = iota
	slippageToleranceBps
	slippageAcceptablePrice
)

// SlippageSetting bounds the price a position change may fill at. A
// tolerance of zero basis points is a real (zero) tolerance and is sent as
// such.
type SlippageSetting struct {
	kind  slippageKind
	bps   uint16
	price uint64
}

// NoSlippageProtection leaves both slippage fields null in the request.
func NoSlippageProtection() SlippageSetting { return SlippageSetting{kind: slippageNone} }

func SlippageToleranceBps(bps uint16) SlippageSetting {
	return SlippageSetting{kind: slippageToleranceBps, bps: bps}
}

// AcceptablePrice sets a hard price bound in the market's price precision.
func AcceptablePrice(price uint64) SlippageSetting {
	return SlippageSetting{kind: slippageAcceptablePrice, price: price}
}

// requestFields returns the acceptable_price and slippage_tolerance_bps
// values, nil meaning null.
func (s SlippageSetting) requestFields() (*uint64, *uint16) {
	switch s.kind {
	case slippageToleranceBps:
		bps := s.bps
		return nil, &bps
	case slippageAcceptablePrice:
		price := s.price
		return &price, nil
	default:
		return nil, nil
	}
}

func (s SlippageSetting) String() string {
	switch s.kind {
	case slippageToleranceBps:
		return fmt.Sprintf("tolerance=%dbps", s.bps)
	case slippageAcceptablePrice:
		return fmt.Sprintf("acceptable_price=%d", s.price)
	default:
		return "none"
	}
}
