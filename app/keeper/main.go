package main

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	bCtx "github.com/x-xyz/keeper/base/ctx"
	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/base/validator"
	"github.com/x-xyz/keeper/domain"
)

func main() {
	root := &cobra.Command{
		Use:          "keeper",
		Short:        "Settles cross-chain NFT auctions",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", defaultConfigPath, "config file path")
	root.PersistentFlags().Bool("debug", false, "development logging")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Track auction events, settle ended auctions and serve the ops api",
		RunE:  runKeeper,
	})

	ingestCmd := &cobra.Command{
		Use:   "ingest-tx",
		Short: "Ingest the auction events of one transaction",
		RunE:  runIngestTx,
	}
	ingestCmd.Flags().String("chain", "", "chain key or chain id")
	ingestCmd.Flags().String("tx", "", "transaction hash")
	_ = ingestCmd.MarkFlagRequired("chain")
	_ = ingestCmd.MarkFlagRequired("tx")
	root.AddCommand(ingestCmd)

	refundCmd := &cobra.Command{
		Use:   "retry-refunds",
		Short: "Retry the failed refunds of a settled auction",
		RunE:  runRetryRefunds,
	}
	refundCmd.Flags().String("intent", "", "auction intent id")
	_ = refundCmd.MarkFlagRequired("intent")
	root.AddCommand(refundCmd)

	if err := root.Execute(); err != nil {
		log.Sync()
		os.Exit(1)
	}
	log.Sync()
}

// setup loads the config and applies its logging settings.
func setup(cmd *cobra.Command) (*Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(path, cmd.Flags())
	if err != nil {
		return nil, err
	}
	log.Setup(cfg.Debug)
	if err := log.SetLevel(cfg.LogLevel); err != nil {
		return nil, xerrors.Errorf("%w: log level %q", domain.ErrInvalidConfig, cfg.LogLevel)
	}
	if cfg.Debug {
		log.Log().Info("keeper runs in debug mode")
	}
	return cfg, nil
}

func runIngestTx(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	chainKey, _ := cmd.Flags().GetString("chain")
	txArg, _ := cmd.Flags().GetString("tx")
	if len(common.FromHex(txArg)) != common.HashLength {
		return xerrors.Errorf("%w: tx %q is not a transaction hash", domain.ErrBadParamInput, txArg)
	}

	ctx := bCtx.Background()
	d, err := buildDeps(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer d.close()

	chainCfg, err := d.registry.Lookup(chainKey)
	if err != nil {
		return err
	}
	client, err := d.chains.EthClient(chainCfg.Id)
	if err != nil {
		return err
	}
	ingester, err := d.ingester(chainCfg.Id)
	if err != nil {
		return err
	}

	cCtx, cancel := bCtx.WithTimeout(ctx, cfg.Context.Timeout)
	defer cancel()
	receipt, err := client.TransactionReceipt(cCtx, common.HexToHash(txArg))
	if err != nil {
		return xerrors.Errorf("fetch receipt of %s on %s: %w", txArg, chainCfg.DisplayName(), err)
	}
	n, err := ingester.IngestReceipt(ctx, receipt, contractAddrs(chainCfg.AuctionHub, chainCfg.BidManager)...)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ingested %d auction events from %s on %s\n", n, txArg, chainCfg.DisplayName())
	return nil
}

func runRetryRefunds(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := cfg.requireSigner(); err != nil {
		return err
	}
	intent, _ := cmd.Flags().GetString("intent")
	if !validator.IsValidIntentId(intent) {
		return xerrors.Errorf("%w: intent %q is not a bytes32 id", domain.ErrBadParamInput, intent)
	}

	ctx := bCtx.Background()
	d, err := buildDeps(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer d.close()

	n, err := d.settler.RetryRefunds(ctx, domain.IntentId(intent))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d refunds still failing for %s\n", n, intent)
	return nil
}

// contractAddrs is what ingestion filters receipts by.
func contractAddrs(hub, bm domain.Address) []common.Address {
	return []common.Address{common.HexToAddress(hub.ToLowerStr()), common.HexToAddress(bm.ToLowerStr())}
}
