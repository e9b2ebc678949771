package assets

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/aml-oracle-backend/interfaces"
)

func TestMintAndTransfer(t *testing.T) {
	v := NewVault()
	alice := common.HexToAddress("0x01")
	bob := common.HexToAddress("0x02")
	token := interfaces.AssetID(common.HexToAddress("0xaa"))

	v.Mint(alice, interfaces.NativeAsset, big.NewInt(100))
	v.Mint(alice, token, big.NewInt(7))

	require.NoError(t, v.Transfer(alice, bob, interfaces.NativeAsset, big.NewInt(30)))
	assert.Equal(t, int64(70), v.BalanceOf(alice, interfaces.NativeAsset).Int64())
	assert.Equal(t, int64(30), v.BalanceOf(bob, interfaces.NativeAsset).Int64())

	// Balances are tracked per asset.
	assert.Equal(t, int64(7), v.BalanceOf(alice, token).Int64())
	assert.Equal(t, int64(0), v.BalanceOf(bob, token).Int64())
}

func TestTransferInsufficientFunds(t *testing.T) {
	v := NewVault()
	alice := common.HexToAddress("0x01")
	bob := common.HexToAddress("0x02")

	v.Mint(alice, interfaces.NativeAsset, big.NewInt(10))

	err := v.Transfer(alice, bob, interfaces.NativeAsset, big.NewInt(11))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// Failed transfers leave both sides untouched.
	assert.Equal(t, int64(10), v.BalanceOf(alice, interfaces.NativeAsset).Int64())
	assert.Equal(t, int64(0), v.BalanceOf(bob, interfaces.NativeAsset).Int64())
}

func TestTransferZeroIsNoop(t *testing.T) {
	v := NewVault()
	alice := common.HexToAddress("0x01")
	bob := common.HexToAddress("0x02")

	require.NoError(t, v.Transfer(alice, bob, interfaces.NativeAsset, big.NewInt(0)))
	assert.ErrorIs(t, v.Transfer(alice, bob, interfaces.NativeAsset, big.NewInt(-1)), interfaces.ErrInvalidAmount)
}
