package parcl

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

// DecodeTransaction parses the wire form of a transaction as returned in
// TransactionInfo.Transaction. Trailing bytes are an error.
func DecodeTransaction(blob []byte) (*solana.Transaction, error) {
	if len(blob) == 0 {
		return nil, &DeserializationError{Stage: StageTransaction, Err: errors.New("empty transaction blob")}
	}
	dec := bin.NewBinDecoder(blob)
	tx, err := solana.TransactionFromDecoder(dec)
	if err != nil {
		return nil, &DeserializationError{Stage: StageTransaction, Err: err}
	}
	if n := dec.Remaining(); n > 0 {
		return nil, &DeserializationError{
			Stage: StageTransaction,
			Err:   errors.Errorf("%d trailing bytes after transaction", n),
		}
	}
	return tx, nil
}

// EncodeTransaction serializes tx to its wire form.
func EncodeTransaction(tx *solana.Transaction) ([]byte, error) {
	data, err := tx.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "encode transaction")
	}
	return data, nil
}

// AssembleTransaction decodes an API transaction, points it at blockhash and
// signs it. Every required signer slot must be covered by exactly one of
// signers, and no signer may be outside the required set.
func AssembleTransaction(blob []byte, blockhash solana.Hash, signers ...solana.PrivateKey) (*solana.Transaction, error) {
	tx, err := DecodeTransaction(blob)
	if err != nil {
		return nil, err
	}
	if err := SignTransaction(tx, blockhash, signers...); err != nil {
		return nil, err
	}
	return tx, nil
}

// SignTransaction sets the recent blockhash of tx and fills its signature
// slots. Existing signatures are dropped when the blockhash changes since
// they no longer cover the message.
func SignTransaction(tx *solana.Transaction, blockhash solana.Hash, signers ...solana.PrivateKey) error {
	required := int(tx.Message.Header.NumRequiredSignatures)
	if required > len(tx.Message.AccountKeys) {
		return &SigningError{Reason: "message requires more signers than it has account keys"}
	}
	if len(signers) == 0 && required > 0 {
		return &SigningError{Reason: "no signers provided"}
	}

	if tx.Message.RecentBlockhash != blockhash {
		tx.Message.RecentBlockhash = blockhash
		tx.Signatures = nil
	}
	sigs := make([]solana.Signature, required)
	copy(sigs, tx.Signatures)

	slots := tx.Message.AccountKeys[:required]
	filled := make([]bool, required)

	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return &SigningError{Reason: "serialize message", Err: err}
	}

	for _, key := range signers {
		pub := key.PublicKey()
		idx := slotOf(slots, pub)
		if idx < 0 {
			return &SigningError{Signer: pub.String(), Reason: "signer is not a required signer of this transaction"}
		}
		if filled[idx] {
			return &SigningError{Signer: pub.String(), Reason: "duplicate signer"}
		}
		sig, err := key.Sign(msg)
		if err != nil {
			return &SigningError{Signer: pub.String(), Reason: "sign message", Err: err}
		}
		sigs[idx] = sig
		filled[idx] = true
	}
	for i, ok := range filled {
		if !ok {
			return &SigningError{Signer: slots[i].String(), Reason: "missing signature for required signer"}
		}
	}

	tx.Signatures = sigs
	return nil
}

func slotOf(slots solana.PublicKeySlice, pub solana.PublicKey) int {
	for i, k := range slots {
		if k.Equals(pub) {
			return i
		}
	}
	return -1
}

// BuildTransaction composes an unsigned transaction from the instruction
// form of an API response. Compute budget instructions come first.
func (info *InstructionInfo) BuildTransaction(payer solana.PublicKey, blockhash solana.Hash) (*solana.Transaction, error) {
	return buildTransaction(info.Instructions, payer, blockhash)
}

func (r *CreateMarginAccountInstructionsResponse) BuildTransaction(payer solana.PublicKey, blockhash solana.Hash) (*solana.Transaction, error) {
	return buildTransaction(r.Instructions, payer, blockhash)
}

func buildTransaction(ixs Instructions, payer solana.PublicKey, blockhash solana.Hash) (*solana.Transaction, error) {
	all := ixs.All()
	if len(all) == 0 {
		return nil, errors.New("build transaction: no instructions")
	}
	tx, err := solana.NewTransaction(all, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, errors.Wrap(err, "build transaction")
	}
	return tx, nil
}
