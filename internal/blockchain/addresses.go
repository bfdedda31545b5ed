package blockchain

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/tyler-smith/go-bip32"
	bip39 "github.com/tyler-smith/go-bip39"

	"investment-platform/internal/models"
)

// AddressGenerator derives per-user deposit addresses from one HD seed.
// Without a mnemonic every chain falls back to simulated addresses.
type AddressGenerator struct {
	masterKey *bip32.Key
}

// NewAddressGenerator builds a generator from a BIP39 mnemonic (may be empty)
func NewAddressGenerator(mnemonic string) (*AddressGenerator, error) {
	if mnemonic == "" {
		return &AddressGenerator{}, nil
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid wallet mnemonic")
	}

	seed := bip39.NewSeed(mnemonic, "")
	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	return &AddressGenerator{masterKey: masterKey}, nil
}

// Simulated reports whether addresses are fake
func (g *AddressGenerator) Simulated() bool {
	return g.masterKey == nil
}

// Address returns the deposit address for chain at index
func (g *AddressGenerator) Address(chain models.Chain, index uint32) (string, error) {
	if g.masterKey == nil || chain == models.ChainSimulated {
		return SimulatedAddress()
	}

	switch chain {
	case models.ChainEVM:
		return g.evmAddress(index)
	case models.ChainSolana:
		return g.solanaAddress(index)
	default:
		return "", fmt.Errorf("unsupported chain %q", chain)
	}
}

// derive walks purpose'/coin'/account'/change/index
func (g *AddressGenerator) derive(path ...uint32) (*bip32.Key, error) {
	key := g.masterKey
	for _, idx := range path {
		child, err := key.NewChildKey(idx)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child key: %w", err)
		}
		key = child
	}
	return key, nil
}

// evmAddress derives m/44'/60'/0'/0/index
func (g *AddressGenerator) evmAddress(index uint32) (string, error) {
	key, err := g.derive(
		bip32.FirstHardenedChild+44,
		bip32.FirstHardenedChild+60,
		bip32.FirstHardenedChild+0,
		0,
		index,
	)
	if err != nil {
		return "", err
	}

	privKey, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return "", fmt.Errorf("failed to convert key: %w", err)
	}
	return crypto.PubkeyToAddress(privKey.PublicKey).Hex(), nil
}

// solanaAddress seeds an ed25519 key with the secp256k1 child at m/44'/501'/0'/0/index.
// Not wallet-compatible derivation, but recoverable from the same mnemonic.
func (g *AddressGenerator) solanaAddress(index uint32) (string, error) {
	key, err := g.derive(
		bip32.FirstHardenedChild+44,
		bip32.FirstHardenedChild+501,
		bip32.FirstHardenedChild+0,
		0,
		index,
	)
	if err != nil {
		return "", err
	}

	priv := solana.PrivateKey(ed25519.NewKeyFromSeed(key.Key))
	return priv.PublicKey().String(), nil
}

// SimulatedAddress returns a random "sim_" address for test networks
func SimulatedAddress() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate address: %w", err)
	}
	return "sim_" + base58.Encode(b), nil
}

// ValidateAddress checks that address is well-formed for chain
func ValidateAddress(chain models.Chain, address string) error {
	switch chain {
	case models.ChainEVM:
		if !common.IsHexAddress(address) {
			return fmt.Errorf("invalid EVM address")
		}
	case models.ChainSolana:
		if _, err := solana.PublicKeyFromBase58(address); err != nil {
			return fmt.Errorf("invalid Solana address")
		}
	case models.ChainSimulated:
		if len(address) < 8 || len(address) > 128 {
			return fmt.Errorf("invalid address")
		}
	default:
		return fmt.Errorf("unsupported chain %q", chain)
	}
	return nil
}
