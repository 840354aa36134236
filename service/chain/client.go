package chain

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/xerrors"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	bEthereum "github.com/x-xyz/keeper/base/ethereum"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/domain"
	"github.com/x-xyz/keeper/domain/auction"
	domainChain "github.com/x-xyz/keeper/domain/chain"
)

var ErrUnsupportedChain = errors.New("unsupported chain")

const (
	defaultReceiptTimeout = 2 * time.Minute
	defaultMaxInflight    = 8
)

type ClientCfg struct {
	// PrivateKey signs every keeper transaction. Read-only clients leave it empty.
	PrivateKey     string
	ReceiptTimeout time.Duration
	MaxInflight    int
	RevertPatterns RevertPatterns
}

type Client interface {
	// Call runs a read-only contract method and returns its unpacked outputs.
	Call(bCtx.Ctx, domain.ChainId, common.Address, *big.Int, abi.ABI, string, ...interface{}) ([]interface{}, error)
	// Transact signs and submits a contract method. Gas estimation reverts come back classified.
	Transact(bCtx.Ctx, domain.ChainId, common.Address, abi.ABI, string, ...interface{}) (auction.PendingTx, error)
	EthClient(domain.ChainId) (domain.EthClientRepo, error)
	// WsClient is nil, nil for chains without a websocket endpoint.
	WsClient(domain.ChainId) (domain.EthClientRepo, error)
	ChainIds() []domain.ChainId
	Sender() common.Address
	Close()
}

type clientImpl struct {
	clients   map[domain.ChainId]domain.EthClientRepo
	wsClients map[domain.ChainId]domain.EthClientRepo
	txLocks   map[domain.ChainId]*sync.Mutex

	key            *ecdsa.PrivateKey
	sender         common.Address
	receiptTimeout time.Duration
	patterns       RevertPatterns
}

// NewClient dials the rpc (and websocket, when configured) endpoint of every chain in the registry.
func NewClient(ctx bCtx.Ctx, registry *domainChain.Registry, cfg *ClientCfg) (Client, error) {
	inflight := cfg.MaxInflight
	if inflight <= 0 {
		inflight = defaultMaxInflight
	}
	c := &clientImpl{
		clients:        make(map[domain.ChainId]domain.EthClientRepo),
		wsClients:      make(map[domain.ChainId]domain.EthClientRepo),
		txLocks:        make(map[domain.ChainId]*sync.Mutex),
		receiptTimeout: cfg.ReceiptTimeout,
		patterns:       cfg.RevertPatterns.withDefaults(),
	}
	if c.receiptTimeout <= 0 {
		c.receiptTimeout = defaultReceiptTimeout
	}
	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			return nil, xerrors.Errorf("%w: bad private key: %v", domain.ErrInvalidConfig, err)
		}
		c.key = key
		c.sender = crypto.PubkeyToAddress(key.PublicKey)
	}

	for _, chainCfg := range registry.All() {
		logger := ctx.WithFields(log.Fields{"chainId": chainCfg.Id, "chain": chainCfg.Key})
		client, err := bEthereum.Dial(ctx, chainCfg.RpcUrl, inflight)
		if err != nil {
			logger.WithField("err", err).Error("failed to dial rpc")
			c.Close()
			return nil, err
		}
		c.clients[chainCfg.Id] = client
		c.txLocks[chainCfg.Id] = &sync.Mutex{}

		if chainCfg.WsUrl == "" {
			continue
		}
		wsClient, err := bEthereum.Dial(ctx, chainCfg.WsUrl, inflight)
		if err != nil {
			// soft warning, the tracker falls back to polling
			logger.WithField("err", err).Warn("failed to dial websocket")
			continue
		}
		c.wsClients[chainCfg.Id] = wsClient
	}
	return c, nil
}

// NewClientWithBackends builds a client over already connected backends, e.g. simulated ones.
func NewClientWithBackends(backends map[domain.ChainId]domain.EthClientRepo, key *ecdsa.PrivateKey, cfg *ClientCfg) Client {
	c := &clientImpl{
		clients:        backends,
		wsClients:      make(map[domain.ChainId]domain.EthClientRepo),
		txLocks:        make(map[domain.ChainId]*sync.Mutex),
		receiptTimeout: cfg.ReceiptTimeout,
		patterns:       cfg.RevertPatterns.withDefaults(),
		key:            key,
	}
	if c.receiptTimeout <= 0 {
		c.receiptTimeout = defaultReceiptTimeout
	}
	if key != nil {
		c.sender = crypto.PubkeyToAddress(key.PublicKey)
	}
	for id := range backends {
		c.txLocks[id] = &sync.Mutex{}
	}
	return c
}

func (c *clientImpl) EthClient(chainId domain.ChainId) (domain.EthClientRepo, error) {
	client, ok := c.clients[chainId]
	if !ok {
		return nil, xerrors.Errorf("%w: %d", ErrUnsupportedChain, chainId)
	}
	return client, nil
}

func (c *clientImpl) WsClient(chainId domain.ChainId) (domain.EthClientRepo, error) {
	if _, ok := c.clients[chainId]; !ok {
		return nil, xerrors.Errorf("%w: %d", ErrUnsupportedChain, chainId)
	}
	return c.wsClients[chainId], nil
}

func (c *clientImpl) ChainIds() []domain.ChainId {
	ids := make([]domain.ChainId, 0, len(c.clients))
	for id := range c.clients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c *clientImpl) Sender() common.Address {
	return c.sender
}

func (c *clientImpl) Close() {
	for _, client := range c.clients {
		client.Close()
	}
	for _, client := range c.wsClients {
		client.Close()
	}
}

func (c *clientImpl) Call(ctx bCtx.Ctx, chainId domain.ChainId, addr common.Address, blk *big.Int, _abi abi.ABI, method string, params ...interface{}) ([]interface{}, error) {
	client, err := c.EthClient(chainId)
	if err != nil {
		return nil, err
	}

	data, err := _abi.Pack(method, params...)
	if err != nil {
		ctx.WithFields(log.Fields{
			"method": method,
			"params": params,
			"err":    err,
		}).Error("abi.Pack failed")
		return nil, err
	}
	msg := ethereum.CallMsg{
		To:   &addr,
		Data: data,
	}
	res, err := client.CallContract(ctx, msg, blk)
	if err != nil {
		ctx.WithFields(log.Fields{"err": err, "method": method}).Error("client.CallContract failed")
		return nil, err
	}
	unpacked, err := _abi.Unpack(method, res)
	if err != nil {
		ctx.WithFields(log.Fields{"err": err, "method": method}).Error("abi.Unpack failed")
		return nil, err
	}
	return unpacked, nil
}

func (c *clientImpl) Transact(ctx bCtx.Ctx, chainId domain.ChainId, addr common.Address, _abi abi.ABI, method string, params ...interface{}) (auction.PendingTx, error) {
	if c.key == nil {
		return nil, xerrors.Errorf("%w: no signing key configured", domain.ErrInvalidConfig)
	}
	client, err := c.EthClient(chainId)
	if err != nil {
		return nil, err
	}
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, big.NewInt(int64(chainId)))
	if err != nil {
		return nil, err
	}
	opts.Context = ctx

	logger := ctx.WithFields(log.Fields{"chainId": chainId, "contract": addr.Hex(), "method": method})

	// one sender per chain, so nonces are assigned one transaction at a time
	lock := c.txLocks[chainId]
	lock.Lock()
	tx, err := bind.NewBoundContract(addr, _abi, client, client, client).Transact(opts, method, params...)
	lock.Unlock()
	if err != nil {
		classified := c.patterns.Classify(err)
		logger.WithField("err", classified).Warn("transact failed")
		return nil, classified
	}

	logger.WithField("txHash", tx.Hash().Hex()).Info("transaction sent")
	return &pendingTx{
		client:   client,
		tx:       tx,
		from:     c.sender,
		timeout:  c.receiptTimeout,
		patterns: c.patterns,
	}, nil
}
