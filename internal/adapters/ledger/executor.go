package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/daniel0ar/maci-platform/internal/config"
	"github.com/daniel0ar/maci-platform/internal/domain"
	"github.com/daniel0ar/maci-platform/internal/usecase"
)

// ExecutorAdapter submits creation transactions and state-changing calls
// through an Ethereum JSON-RPC endpoint and waits for finalization. All
// mutating operations go through the single configured identity, so their
// ordering follows the nonce sequence.
type ExecutorAdapter struct {
	cfg    *config.RuntimeConfig
	log    *slog.Logger
	client *ethclient.Client
	signer types.Signer

	chainID *big.Int
	key     *ecdsa.PrivateKey
	from    common.Address
}

// NewExecutorAdapter creates a disconnected executor. Connect must be called
// before any submission.
func NewExecutorAdapter(cfg *config.RuntimeConfig, log *slog.Logger) *ExecutorAdapter {
	return &ExecutorAdapter{cfg: cfg, log: log}
}

// Connect dials the endpoint, cross-checks the chain ID and loads the
// deployer key.
func (e *ExecutorAdapter) Connect(ctx context.Context, rpcURL string, chainID uint64) error {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RPC: %w", err)
	}
	e.client = client

	networkChainID, err := client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain ID: %w", err)
	}
	if chainID != 0 && networkChainID.Uint64() != chainID {
		return fmt.Errorf("chain ID mismatch: expected %d, got %d", chainID, networkChainID.Uint64())
	}
	e.chainID = networkChainID
	e.signer = types.LatestSignerForChainID(networkChainID)

	keyHex, err := e.cfg.Project.PrivateKeyHex()
	if err != nil {
		return err
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return fmt.Errorf("invalid deployer key: %w", err)
	}
	e.key = key
	e.from = crypto.PubkeyToAddress(key.PublicKey)

	e.log.Debug("connected to network", "chainId", e.chainID, "sender", e.from.Hex())
	return nil
}

// Sender returns the submitting identity.
func (e *ExecutorAdapter) Sender() common.Address {
	return e.from
}

// Create submits a contract creation and blocks until it is mined. The
// resulting address is derived from (sender, nonce) and cross-checked
// against the receipt.
func (e *ExecutorAdapter) Create(ctx context.Context, initCode []byte) (common.Address, *types.Receipt, error) {
	if e.client == nil {
		return common.Address{}, nil, fmt.Errorf("not connected to a network")
	}

	nonce, err := e.client.PendingNonceAt(ctx, e.from)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("failed to fetch nonce: %w", err)
	}

	tx, err := e.buildAndSend(ctx, nonce, nil, initCode)
	if err != nil {
		return common.Address{}, nil, err
	}

	receipt, err := e.waitMined(ctx, tx)
	if err != nil {
		return common.Address{}, nil, err
	}

	address := crypto.CreateAddress(e.from, nonce)
	if receipt.ContractAddress != (common.Address{}) && receipt.ContractAddress != address {
		return common.Address{}, nil, fmt.Errorf("created address %s does not match expected %s",
			receipt.ContractAddress.Hex(), address.Hex())
	}

	e.log.Debug("contract created", "address", address.Hex(), "tx", tx.Hash().Hex(), "gasUsed", receipt.GasUsed)
	return address, receipt, nil
}

// Call submits a state-changing call and blocks until it is mined.
func (e *ExecutorAdapter) Call(ctx context.Context, to common.Address, calldata []byte) (*types.Receipt, error) {
	if e.client == nil {
		return nil, fmt.Errorf("not connected to a network")
	}

	nonce, err := e.client.PendingNonceAt(ctx, e.from)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce: %w", err)
	}

	tx, err := e.buildAndSend(ctx, nonce, &to, calldata)
	if err != nil {
		return nil, err
	}

	receipt, err := e.waitMined(ctx, tx)
	if err != nil {
		return nil, err
	}

	e.log.Debug("call mined", "to", to.Hex(), "tx", tx.Hash().Hex(), "gasUsed", receipt.GasUsed)
	return receipt, nil
}

// CodeAt returns the code deployed at an address.
func (e *ExecutorAdapter) CodeAt(ctx context.Context, address common.Address) ([]byte, error) {
	if e.client == nil {
		return nil, fmt.Errorf("not connected to a network")
	}
	return e.client.CodeAt(ctx, address, nil)
}

// buildAndSend assembles an EIP-1559 transaction, signs it and submits it.
// A send-side rejection is terminal for the run.
func (e *ExecutorAdapter) buildAndSend(ctx context.Context, nonce uint64, to *common.Address, data []byte) (*types.Transaction, error) {
	gasTipCap, err := e.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gas tip: %w", err)
	}

	head, err := e.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch head: %w", err)
	}
	gasFeeCap := new(big.Int).Set(gasTipCap)
	if head.BaseFee != nil {
		gasFeeCap.Add(gasFeeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	gas, err := e.client.EstimateGas(ctx, ethereum.CallMsg{
		From:      e.from,
		To:        to,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Data:      data,
	})
	if err != nil {
		// Estimation runs the transaction; a revert here is a ledger
		// rejection before any cost is paid.
		return nil, &domain.LedgerRejectionError{Reason: fmt.Sprintf("gas estimation failed: %v", err)}
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   e.chainID,
		Nonce:     nonce,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Gas:       gas + gas/5,
		To:        to,
		Data:      data,
	})

	signed, err := types.SignTx(tx, e.signer, e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := e.client.SendTransaction(ctx, signed); err != nil {
		return nil, &domain.LedgerRejectionError{TxHash: signed.Hash().Hex(), Reason: err.Error()}
	}

	return signed, nil
}

// waitMined blocks until the transaction is included and maps a failed
// receipt to a LedgerRejectionError.
func (e *ExecutorAdapter) waitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, e.client, tx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for transaction %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &domain.LedgerRejectionError{TxHash: tx.Hash().Hex(), Reason: "execution reverted"}
	}
	return receipt, nil
}

var _ usecase.Ledger = (*ExecutorAdapter)(nil)
