package parcl

import (
	"crypto/ed25519"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var zeroHash = solana.MustHashFromBase58("11111111111111111111111111111111")

// unsignedBlob builds the kind of blob the API returns: a legacy message
// with zeroed signature placeholders for every required signer.
func unsignedBlob(t *testing.T, blockhash solana.Hash, signers ...solana.PublicKey) []byte {
	t.Helper()
	metas := make(solana.AccountMetaSlice, 0, len(signers))
	for _, s := range signers {
		metas = append(metas, solana.NewAccountMeta(s, true, true))
	}
	ix := solana.NewInstruction(solana.MemoProgramID, metas, []byte("parcl"))
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, blockhash, solana.TransactionPayer(signers[0]))
	require.NoError(t, err)
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	blob, err := tx.MarshalBinary()
	require.NoError(t, err)
	return blob
}

func newKey(t *testing.T) solana.PrivateKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key
}

func TestDecodeTransaction(t *testing.T) {
	key := newKey(t)
	blob := unsignedBlob(t, zeroHash, key.PublicKey())

	t.Run("round trip is byte identical", func(t *testing.T) {
		tx, err := DecodeTransaction(blob)
		require.NoError(t, err)
		out, err := EncodeTransaction(tx)
		require.NoError(t, err)
		assert.Equal(t, blob, out)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := DecodeTransaction([]byte{0x01, 0x02, 0x03})
		var dErr *DeserializationError
		require.True(t, errors.As(err, &dErr))
		assert.Equal(t, StageTransaction, dErr.Stage)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := DecodeTransaction(nil)
		var dErr *DeserializationError
		assert.True(t, errors.As(err, &dErr))
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := DecodeTransaction(append(append([]byte{}, blob...), 0xff))
		var dErr *DeserializationError
		require.True(t, errors.As(err, &dErr))
		assert.Contains(t, dErr.Error(), "trailing")
	})
}

func TestAssembleTransaction(t *testing.T) {
	key := newKey(t)
	blockhash := solana.Hash(newKey(t).PublicKey())
	blob := unsignedBlob(t, zeroHash, key.PublicKey())

	t.Run("sets blockhash and signs the message", func(t *testing.T) {
		tx, err := AssembleTransaction(blob, blockhash, key)
		require.NoError(t, err)
		assert.Equal(t, blockhash, tx.Message.RecentBlockhash)
		require.Len(t, tx.Signatures, 1)

		msg, err := tx.Message.MarshalBinary()
		require.NoError(t, err)
		pub := key.PublicKey()
		assert.True(t, ed25519.Verify(ed25519.PublicKey(pub[:]), msg, tx.Signatures[0][:]))
	})

	t.Run("deterministic", func(t *testing.T) {
		a, err := AssembleTransaction(blob, blockhash, key)
		require.NoError(t, err)
		b, err := AssembleTransaction(blob, blockhash, key)
		require.NoError(t, err)
		aBytes, err := EncodeTransaction(a)
		require.NoError(t, err)
		bBytes, err := EncodeTransaction(b)
		require.NoError(t, err)
		assert.Equal(t, aBytes, bBytes)
	})

	t.Run("keeps blockhash when unchanged", func(t *testing.T) {
		tx, err := AssembleTransaction(blob, zeroHash, key)
		require.NoError(t, err)
		assert.Equal(t, zeroHash, tx.Message.RecentBlockhash)
	})

	t.Run("signer not in transaction", func(t *testing.T) {
		_, err := AssembleTransaction(blob, blockhash, newKey(t))
		var sErr *SigningError
		require.True(t, errors.As(err, &sErr))
		assert.Contains(t, sErr.Reason, "not a required signer")
	})

	t.Run("no signers", func(t *testing.T) {
		_, err := AssembleTransaction(blob, blockhash)
		var sErr *SigningError
		assert.True(t, errors.As(err, &sErr))
	})

	t.Run("malformed blob", func(t *testing.T) {
		_, err := AssembleTransaction([]byte("nope"), blockhash, key)
		var dErr *DeserializationError
		assert.True(t, errors.As(err, &dErr))
	})
}

func TestAssembleTransactionMultipleSigners(t *testing.T) {
	payer := newKey(t)
	cosigner := newKey(t)
	blockhash := solana.Hash(newKey(t).PublicKey())
	blob := unsignedBlob(t, zeroHash, payer.PublicKey(), cosigner.PublicKey())

	t.Run("missing cosigner", func(t *testing.T) {
		_, err := AssembleTransaction(blob, blockhash, payer)
		var sErr *SigningError
		require.True(t, errors.As(err, &sErr))
		assert.Equal(t, cosigner.PublicKey().String(), sErr.Signer)
	})

	t.Run("any order fills the right slots", func(t *testing.T) {
		tx, err := AssembleTransaction(blob, blockhash, cosigner, payer)
		require.NoError(t, err)
		require.Len(t, tx.Signatures, 2)

		msg, err := tx.Message.MarshalBinary()
		require.NoError(t, err)
		for i, key := range []solana.PrivateKey{payer, cosigner} {
			pub := key.PublicKey()
			assert.Equal(t, pub, tx.Message.AccountKeys[i])
			assert.True(t, ed25519.Verify(ed25519.PublicKey(pub[:]), msg, tx.Signatures[i][:]))
		}
	})

	t.Run("duplicate signer", func(t *testing.T) {
		_, err := AssembleTransaction(blob, blockhash, payer, payer)
		var sErr *SigningError
		require.True(t, errors.As(err, &sErr))
		assert.Equal(t, "duplicate signer", sErr.Reason)
	})
}

func TestInstructionInfoBuildTransaction(t *testing.T) {
	payer := newKey(t).PublicKey()
	budget := solana.NewInstruction(solana.ComputeBudget, solana.AccountMetaSlice{}, []byte{2, 0x40, 0x0d, 0x03, 0x00})
	v3 := solana.NewInstruction(solana.MemoProgramID, solana.AccountMetaSlice{solana.NewAccountMeta(payer, true, true)}, []byte("x"))

	info := &InstructionInfo{Instructions: Instructions{
		V3Instructions:            []*solana.GenericInstruction{v3},
		ComputeBudgetInstructions: []*solana.GenericInstruction{budget},
	}}
	tx, err := info.BuildTransaction(payer, zeroHash)
	require.NoError(t, err)
	require.Len(t, tx.Message.Instructions, 2)

	first, err := tx.Message.ResolveProgramIDIndex(tx.Message.Instructions[0].ProgramIDIndex)
	require.NoError(t, err)
	assert.Equal(t, solana.ComputeBudget, first)
	assert.Equal(t, payer, tx.Message.AccountKeys[0])

	_, err = (&InstructionInfo{}).BuildTransaction(payer, zeroHash)
	assert.Error(t, err)
}
