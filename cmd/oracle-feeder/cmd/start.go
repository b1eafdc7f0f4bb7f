package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/paw-chain/paw-oracle/feeder"
)

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start [config-file]",
		Short: "Start the oracle feeder",
		Long: `Start the oracle feeder with the given TOML or YAML config file. Every
setting may be overridden with an ORACLE_FEEDER_ prefixed environment variable,
for example ORACLE_FEEDER_RPC_ENDPOINT.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := getLogger(cmd, os.Stderr)
			if err != nil {
				return err
			}

			cfg, err := feeder.ParseConfig(args[0])
			if err != nil {
				return err
			}

			sdkConfig := sdk.GetConfig()
			sdkConfig.SetBech32PrefixForAccount(cfg.Bech32Prefix, cfg.Bech32Prefix+sdk.PrefixPublic)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metrics := feeder.NewFeederMetrics(reg)

			source, err := feeder.BuildSource(logger, cfg, metrics)
			if err != nil {
				return err
			}

			signer, err := feeder.NewSignerFromConfig(cfg)
			if err != nil {
				return err
			}

			chain, err := feeder.NewRPCChainClient(cfg.RPC.Endpoint)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer closeCancel()
				if err := chain.Close(closeCtx); err != nil {
					logger.Error("failed to close rpc client", "error", err)
				}
			}()

			agent := feeder.NewAgent(logger, chain, source, signer, feeder.AgentOptions{
				SubmitRate:        cfg.SubmitRate,
				ResubmitEachBlock: cfg.ResubmitEachBlock,
				TickTimeout:       feeder.Duration(cfg.RPC.Timeout),
			}, metrics)
			srv := feeder.NewServer(logger, cfg.Server, agent, reg)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return agent.Run(gctx) })
			g.Go(func() error { return srv.Serve(gctx) })

			return g.Wait()
		},
	}
}
