package blockchain

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var lamportsPerSOL = decimal.NewFromInt(1_000_000_000)

// SolanaClient handles read-only Solana RPC lookups for deposit addresses
type SolanaClient struct {
	rpcClient *rpc.Client
	network   string
}

// NewSolanaClient creates a client for a cluster name or a full RPC URL
func NewSolanaClient(network string) *SolanaClient {
	var rpcURL string
	switch network {
	case "mainnet-beta":
		rpcURL = rpc.MainNetBeta_RPC
	case "testnet":
		rpcURL = rpc.TestNet_RPC
	case "devnet", "":
		rpcURL = rpc.DevNet_RPC
	default:
		rpcURL = network
	}

	zap.L().Info("Solana client configured", zap.String("rpc", rpcURL))

	return &SolanaClient{
		rpcClient: rpc.New(rpcURL),
		network:   network,
	}
}

// GetSOLBalance gets the SOL balance for a wallet
func (s *SolanaClient) GetSOLBalance(ctx context.Context, walletAddress string) (decimal.Decimal, error) {
	pubKey, err := solana.PublicKeyFromBase58(walletAddress)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid address: %w", err)
	}

	balance, err := s.rpcClient.GetBalance(ctx, pubKey, rpc.CommitmentConfirmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}

	return decimal.NewFromInt(int64(balance.Value)).Div(lamportsPerSOL), nil
}

// IsTransactionConfirmed reports whether the signature reached confirmed or finalized commitment
func (s *SolanaClient) IsTransactionConfirmed(ctx context.Context, txHash string) (bool, error) {
	sig, err := solana.SignatureFromBase58(txHash)
	if err != nil {
		return false, fmt.Errorf("invalid signature: %w", err)
	}

	resp, err := s.rpcClient.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return false, fmt.Errorf("failed to get signature status: %w", err)
	}
	if resp == nil || len(resp.Value) == 0 || resp.Value[0] == nil {
		return false, nil
	}

	status := resp.Value[0]
	if status.Err != nil {
		return false, nil
	}
	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		return true, nil
	}
	return false, nil
}
