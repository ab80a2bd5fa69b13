package parcl

import (
	"encoding/json"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

type (
	ExchangeID          = uint64
	MarginAccountID     = uint32
	MarketID            = uint32
	SettlementRequestID = uint64
)

// idOrAddress is the shared shape of the API's untagged identifiers: either a
// small integer id or an account address. Both forms travel as JSON strings.
type idOrAddress struct {
	id        uint64
	address   solana.PublicKey
	isAddress bool
}

func (v idOrAddress) String() string {
	if v.isAddress {
		return v.address.String()
	}
	return strconv.FormatUint(v.id, 10)
}

func (v *idOrAddress) parse(s string, bits int) error {
	if id, err := strconv.ParseUint(s, 10, bits); err == nil {
		*v = idOrAddress{id: id}
		return nil
	}
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return errors.Errorf("identifier %q is neither an id nor an address", s)
	}
	*v = idOrAddress{address: pk, isAddress: true}
	return nil
}

func unmarshalIdentifier(data []byte, bits int, v *idOrAddress) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Ids are occasionally sent as bare numbers.
		var n json.Number
		if err2 := json.Unmarshal(data, &n); err2 != nil {
			return err
		}
		s = n.String()
	}
	return v.parse(s, bits)
}

// ExchangeIdentifier selects the exchange a request runs against.
// The zero value is exchange id 0.
type ExchangeIdentifier struct{ v idOrAddress }

func ExchangeByID(id ExchangeID) ExchangeIdentifier { return ExchangeIdentifier{idOrAddress{id: id}} }

func ExchangeByAddress(address solana.PublicKey) ExchangeIdentifier {
	return ExchangeIdentifier{idOrAddress{address: address, isAddress: true}}
}

func (e ExchangeIdentifier) ID() (ExchangeID, bool) { return e.v.id, !e.v.isAddress }
func (e ExchangeIdentifier) Address() (solana.PublicKey, bool) { return e.v.address, e.v.isAddress }
func (e ExchangeIdentifier) String() string { return e.v.String() }
func (e ExchangeIdentifier) MarshalJSON() ([]byte, error) { return json.Marshal(e.v.String()) }
func (e *ExchangeIdentifier) UnmarshalJSON(data []byte) error { return unmarshalIdentifier(data, 64, &e.v) }

// MarginAccountIdentifier names a margin account either by its id, which is
// scoped to the owning wallet, or by the account address itself.
type MarginAccountIdentifier struct{ v idOrAddress }

func MarginAccountByID(id MarginAccountID) MarginAccountIdentifier {
	return MarginAccountIdentifier{idOrAddress{id: uint64(id)}}
}

func MarginAccountByAddress(address solana.PublicKey) MarginAccountIdentifier {
	return MarginAccountIdentifier{idOrAddress{address: address, isAddress: true}}
}

func (m MarginAccountIdentifier) ID() (MarginAccountID, bool) {
	return MarginAccountID(m.v.id), !m.v.isAddress
}
func (m MarginAccountIdentifier) Address() (solana.PublicKey, bool) { return m.v.address, m.v.isAddress }
func (m MarginAccountIdentifier) String() string { return m.v.String() }
func (m MarginAccountIdentifier) MarshalJSON() ([]byte, error) { return json.Marshal(m.v.String()) }
func (m *MarginAccountIdentifier) UnmarshalJSON(data []byte) error {
	return unmarshalIdentifier(data, 32, &m.v)
}

// MarketIdentifier names a market by id or by market account address.
type MarketIdentifier struct{ v idOrAddress }

func MarketByID(id MarketID) MarketIdentifier { return MarketIdentifier{idOrAddress{id: uint64(id)}} }

func MarketByAddress(address solana.PublicKey) MarketIdentifier {
	return MarketIdentifier{idOrAddress{address: address, isAddress: true}}
}

func (m MarketIdentifier) ID() (MarketID, bool) { return MarketID(m.v.id), !m.v.isAddress }
func (m MarketIdentifier) Address() (solana.PublicKey, bool) { return m.v.address, m.v.isAddress }
func (m MarketIdentifier) String() string { return m.v.String() }
func (m MarketIdentifier) MarshalJSON() ([]byte, error) { return json.Marshal(m.v.String()) }
func (m *MarketIdentifier) UnmarshalJSON(data []byte) error { return unmarshalIdentifier(data, 32, &m.v) }

// ParseExchangeIdentifier accepts a decimal id or a base58 address.
func ParseExchangeIdentifier(s string) (ExchangeIdentifier, error) {
	var e ExchangeIdentifier
	if err := e.v.parse(s, 64); err != nil {
		return ExchangeIdentifier{}, err
	}
	return e, nil
}

func ParseMarginAccountIdentifier(s string) (MarginAccountIdentifier, error) {
	var m MarginAccountIdentifier
	if err := m.v.parse(s, 32); err != nil {
		return MarginAccountIdentifier{}, err
	}
	return m, nil
}

func ParseMarketIdentifier(s string) (MarketIdentifier, error) {
	var m MarketIdentifier
	if err := m.v.parse(s, 32); err != nil {
		return MarketIdentifier{}, err
	}
	return m, nil
}

// MarketIDsResponseKind picks the shape of the /market-ids response.
type MarketIDsResponseKind string

const (
	MarketIDsMap       MarketIDsResponseKind = "map"
	MarketIDsAddresses MarketIDsResponseKind = "addresses"
	MarketIDsIDs       MarketIDsResponseKind = "ids"
)
