package chain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Likith-Yadav/PayCoreX/internal/config"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/dto"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/model"
	"github.com/Likith-Yadav/PayCoreX/internal/domain/provider"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/fbsobreira/gotron-sdk/pkg/address"
	"go.uber.org/zap"
)

const (
	KindEVM  = "evm"
	KindTron = "tron"

	// DefaultNetwork is used when a payment or config names none
	DefaultNetwork = "ethereum"
)

var (
	ErrUnknownNetwork  = errors.New("unsupported network")
	ErrInvalidAddress  = errors.New("invalid address")
	ErrNoNetworkClient = errors.New("no rpc client configured for network")
	ErrInvalidTxHash   = errors.New("not a transaction hash")
)

// ReceiptReader is the part of ethclient.Client the verifier needs.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

type network struct {
	name          string
	kind          string
	confirmations uint64
	client        ReceiptReader
}

// Registry knows the supported networks and their RPC clients. It is read-only
// after construction.
type Registry struct {
	networks map[string]*network
	logger   *zap.Logger
}

// NewRegistry builds the registry from config, dialing every network with an RPC url.
func NewRegistry(ctx context.Context, cfgs []config.NetworkConfig, logger *zap.Logger) (*Registry, error) {
	r := &Registry{
		networks: make(map[string]*network, len(cfgs)),
		logger:   logger,
	}

	for _, cfg := range cfgs {
		name := strings.ToLower(cfg.Name)
		kind := strings.ToLower(cfg.Kind)
		if kind == "" {
			kind = KindEVM
		}
		if kind != KindEVM && kind != KindTron {
			return nil, fmt.Errorf("network %s: unknown kind %q", name, cfg.Kind)
		}

		n := &network{name: name, kind: kind, confirmations: cfg.Confirmations}
		if kind == KindEVM && cfg.RPCURL != "" {
			client, err := ethclient.DialContext(ctx, cfg.RPCURL)
			if err != nil {
				return nil, fmt.Errorf("failed to dial %s rpc: %w", name, err)
			}
			n.client = client
		}
		r.networks[name] = n

		logger.Info("Crypto network registered",
			zap.String("network", name),
			zap.String("kind", kind),
			zap.Bool("rpc", n.client != nil))
	}

	return r, nil
}

// WithClient returns a copy of the registry using client for an EVM network.
func (r *Registry) WithClient(name string, client ReceiptReader) *Registry {
	cp := &Registry{networks: make(map[string]*network, len(r.networks)), logger: r.logger}
	for k, n := range r.networks {
		dup := *n
		cp.networks[k] = &dup
	}
	if n, ok := cp.networks[strings.ToLower(name)]; ok {
		n.client = client
	}
	return cp
}

// Networks lists the registered network names in order.
func (r *Registry) Networks() []string {
	names := make([]string, 0, len(r.networks))
	for name := range r.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) lookup(name string) (*network, error) {
	if name == "" {
		name = DefaultNetwork
	}
	n, ok := r.networks[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, name)
	}
	return n, nil
}

// ValidateAddress checks address against the network's address format. EVM
// addresses in mixed case must carry a valid EIP-55 checksum.
func (r *Registry) ValidateAddress(networkName, addr string) error {
	n, err := r.lookup(networkName)
	if err != nil {
		return err
	}

	switch n.kind {
	case KindEVM:
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("%w for %s", ErrInvalidAddress, n.name)
		}
		body := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
		if body != strings.ToLower(body) && body != strings.ToUpper(body) {
			if common.HexToAddress(addr).Hex() != "0x"+body {
				return fmt.Errorf("%w for %s: bad checksum", ErrInvalidAddress, n.name)
			}
		}
		return nil
	case KindTron:
		if _, err := address.Base58ToAddress(addr); err != nil {
			return fmt.Errorf("%w for %s: %v", ErrInvalidAddress, n.name, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownNetwork, n.name)
}

func isTxHash(s string) bool {
	body := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(body) != 2*common.HashLength {
		return false
	}
	for _, c := range body {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

func (r *Registry) rpcNetwork(name string) (*network, error) {
	n, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if n.kind != KindEVM || n.client == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoNetworkClient, n.name)
	}
	return n, nil
}

// TransactionStatus reads a transaction's receipt from the network's RPC node. An
// unmined transaction is pending. A mined one is confirming until it has the
// network's required confirmations.
func (r *Registry) TransactionStatus(ctx context.Context, networkName, txHash string) (*dto.CryptoTxStatus, error) {
	n, err := r.rpcNetwork(networkName)
	if err != nil {
		return nil, err
	}
	if !isTxHash(txHash) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTxHash, txHash)
	}
	return r.receiptStatus(ctx, n, common.HexToHash(txHash))
}

func (r *Registry) receiptStatus(ctx context.Context, n *network, hash common.Hash) (*dto.CryptoTxStatus, error) {
	status := &dto.CryptoTxStatus{TxHash: hash.Hex(), Network: n.name, Status: dto.TxStatusPending}

	receipt, err := n.client.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return status, nil
	}
	if err != nil {
		r.logger.Error("Failed to fetch transaction receipt",
			zap.String("network", n.name),
			zap.String("tx_hash", hash.Hex()),
			zap.Error(err))
		return nil, &provider.ProviderError{
			Provider: n.name,
			Code:     "RPC_ERROR",
			Message:  "receipt lookup failed",
			Details:  err.Error(),
		}
	}

	if receipt.BlockNumber != nil {
		mined := receipt.BlockNumber.Uint64()
		status.BlockNumber = &mined

		head, err := n.client.BlockNumber(ctx)
		if err != nil {
			return nil, &provider.ProviderError{
				Provider: n.name,
				Code:     "RPC_ERROR",
				Message:  "block number lookup failed",
				Details:  err.Error(),
			}
		}
		if head >= mined {
			status.Confirmations = head - mined + 1
		}
	}

	switch {
	case receipt.Status != types.ReceiptStatusSuccessful:
		status.Status = dto.TxStatusFailed
	case status.Confirmations < n.confirmations:
		status.Status = dto.TxStatusConfirming
	default:
		status.Status = dto.TxStatusConfirmed
	}
	return status, nil
}

// ReceiptVerifier reports a transaction hash as captured once its receipt succeeded
// with enough confirmations.
type ReceiptVerifier struct {
	registry *Registry
	logger   *zap.Logger
}

func NewReceiptVerifier(registry *Registry, logger *zap.Logger) *ReceiptVerifier {
	return &ReceiptVerifier{registry: registry, logger: logger}
}

func (v *ReceiptVerifier) Fetch(ctx context.Context, cfg *model.MerchantPaymentConfig, reference string) (*provider.GatewayStatus, error) {
	n, err := v.registry.rpcNetwork(cfg.SettingString("network"))
	if err != nil {
		return nil, err
	}
	if !isTxHash(reference) {
		return nil, &provider.ProviderError{
			Provider: n.name,
			Code:     "INVALID_REFERENCE",
			Message:  "reference is not a transaction hash",
			Details:  reference,
		}
	}

	status, err := v.registry.receiptStatus(ctx, n, common.HexToHash(reference))
	if err != nil {
		return nil, err
	}

	raw := status.Status
	if raw == dto.TxStatusFailed {
		raw = "reverted"
	}
	v.logger.Debug("Transaction receipt checked",
		zap.String("network", n.name),
		zap.String("tx_hash", status.TxHash),
		zap.String("status", raw),
		zap.Uint64("confirmations", status.Confirmations))
	return &provider.GatewayStatus{
		Captured:          status.Status == dto.TxStatusConfirmed,
		RawStatus:         raw,
		ProviderReference: status.TxHash,
	}, nil
}
