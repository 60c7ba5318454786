// Command bridge-relayer runs the two-way asset bridge relay daemon: it
// watches the main and side chains for confirmed logs, drives the three
// relay job state machines, and persists its progress to a checkpoint file.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lyfeloopinc/bridge-relayer/internal/bridge"
	"github.com/lyfeloopinc/bridge-relayer/internal/chainclient"
	"github.com/lyfeloopinc/bridge-relayer/internal/checkpoint"
	"github.com/lyfeloopinc/bridge-relayer/internal/config"
	"github.com/lyfeloopinc/bridge-relayer/internal/contracts"
	"github.com/lyfeloopinc/bridge-relayer/internal/logstream"
	"github.com/lyfeloopinc/bridge-relayer/internal/metrics"
	"github.com/lyfeloopinc/bridge-relayer/internal/relay"
	"github.com/lyfeloopinc/bridge-relayer/internal/relaystream"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bridge-relayer: %+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("bridge-relayer", pflag.ExitOnError)
	v := viper.New()
	config.RegisterFlags(flags, v)
	flags.String("metrics-addr", ":9090", "address to serve Prometheus metrics on")
	v.BindPFlag("metrics-addr", flags.Lookup("metrics-addr"))
	if err := flags.Parse(os.Args[1:]); err != nil {
		return errors.Wrap(err, "parse flags")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return errors.Wrap(err, "build logger")
	}
	defer logger.Sync()

	cfg, err := config.Load(v)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := &checkpoint.TOMLStore{Path: cfg.CheckpointPath}
	initial, err := store.Load()
	if err != nil {
		logger.Warn("no existing checkpoint, starting from zero", zap.Error(err))
		initial = checkpoint.State{
			MainContractAddress: cfg.Main.ContractAddress,
			SideContractAddress: cfg.Side.ContractAddress,
		}
	}

	mainTransport, err := chainclient.Dial(ctx, cfg.Main.Endpoint, cfg.Main.Account, cfg.Main.RequestTimeout, "main", logger.Named("main-chain"))
	if err != nil {
		return errors.Wrap(err, "dial main chain")
	}
	sideTransport, err := chainclient.Dial(ctx, cfg.Side.Endpoint, cfg.Side.Account, cfg.Side.RequestTimeout, "side", logger.Named("side-chain"))
	if err != nil {
		return errors.Wrap(err, "dial side chain")
	}

	relaySideTxGas := contracts.GasConfig{Gas: cfg.Txs.SideToMainSignatures.Gas, GasPrice: cfg.Txs.SideToMainSignatures.GasPrice}
	acceptGas := contracts.GasConfig{Gas: cfg.Txs.MainToSideSign.Gas, GasPrice: cfg.Txs.MainToSideSign.GasPrice}
	submitSignatureGas := contracts.GasConfig{Gas: cfg.Txs.SideToMainSign.Gas, GasPrice: cfg.Txs.SideToMainSign.GasPrice}

	mainContract := contracts.NewMainContract(mainTransport, cfg.Main.ContractAddress, cfg.Main.Account, relaySideTxGas)
	sideContract, err := contracts.NewSideContract(sideTransport, cfg.Side.ContractAddress, cfg.Side.Account, acceptGas, submitSignatureGas)
	if err != nil {
		return errors.Wrap(err, "build side contract")
	}

	mainDepositLogs := logstream.New(mainTransport, logger.Named("main-to-side-logs"), logstream.Options{
		Address:       cfg.Main.ContractAddress,
		Topics:        [][]common.Hash{{contracts.RelayMessageTopic}},
		PollInterval:  cfg.Main.PollInterval,
		Confirmations: cfg.Main.RequiredConfirmations,
		After:         initial.CheckedMainToSideSign,
		Chain:         "main",
	})
	sideWithdrawLogs := logstream.New(sideTransport, logger.Named("side-to-main-sign-logs"), logstream.Options{
		Address:       cfg.Side.ContractAddress,
		Topics:        [][]common.Hash{{contracts.WithdrawTopic}},
		PollInterval:  cfg.Side.PollInterval,
		Confirmations: cfg.Side.RequiredConfirmations,
		After:         initial.CheckedSideToMainSign,
		Chain:         "side",
	})
	sideSignaturesLogs := logstream.New(sideTransport, logger.Named("side-to-main-signatures-logs"), logstream.Options{
		Address:       cfg.Side.ContractAddress,
		Topics:        [][]common.Hash{{contracts.CollectedSignaturesTopic}},
		PollInterval:  cfg.Side.PollInterval,
		Confirmations: cfg.Side.RequiredConfirmations,
		After:         initial.CheckedSideToMainSignatures,
		Chain:         "side",
	})

	mainToSideSignStream := relaystream.New(mainDepositLogs, func(log types.Log) relaystream.Job {
		job, err := relay.NewMainToSideSign(log, mainContract, sideContract, logger.Named("main-to-side-sign"))
		if err != nil {
			logger.Error("undecodable RelayMessage log", zap.Error(err))
			return failedJob{err: err}
		}
		return job
	}, metrics.DirectionMainToSideSign, logger.Named("main-to-side-sign-stream"))

	sideToMainSignStream := relaystream.New(sideWithdrawLogs, func(log types.Log) relaystream.Job {
		job, err := relay.NewSideToMainSign(log, sideContract, logger.Named("side-to-main-sign"))
		if err != nil {
			logger.Error("undecodable Withdraw log", zap.Error(err))
			return failedJob{err: err}
		}
		return job
	}, metrics.DirectionSideToMainSign, logger.Named("side-to-main-sign-stream"))

	sigOpts := relay.SideToMainSignaturesOptions{
		RequiredSignatures:   cfg.Authorities.RequiredSignatures,
		VerifyValueCoversGas: cfg.VerifyValueCoversGas,
		RelaySideTxGas:       relaySideTxGas,
	}
	sideToMainSignaturesStream := relaystream.New(sideSignaturesLogs, func(log types.Log) relaystream.Job {
		job, err := relay.NewSideToMainSignatures(log, sideTransport, mainContract, sideContract, sigOpts, logger.Named("side-to-main-signatures"))
		if err != nil {
			logger.Error("undecodable CollectedSignatures log", zap.Error(err))
			return failedJob{err: err}
		}
		return job
	}, metrics.DirectionSideToMainSignatures, logger.Named("side-to-main-signatures-stream"))

	mux := bridge.New(mainToSideSignStream, sideToMainSignStream, sideToMainSignaturesStream, initial, logger.Named("bridge"))

	go func() {
		mainDepositLogs.Run(ctx)
	}()
	go func() {
		sideWithdrawLogs.Run(ctx)
	}()
	go func() {
		sideSignaturesLogs.Run(ctx)
	}()
	go mux.Run(ctx)

	go func() {
		mux2 := http.NewServeMux()
		mux2.Handle("/metrics", promhttp.Handler())
		addr := v.GetString("metrics-addr")
		if err := http.ListenAndServe(addr, mux2); err != nil {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	for st := range mux.States() {
		if err := store.Save(st); err != nil {
			logger.Error("failed to persist checkpoint", zap.Error(err))
		}
	}

	if err := mux.Err(); err != nil {
		return errors.Wrap(err, "bridge multiplexer")
	}
	return nil
}

// failedJob carries a decode error into the relay stream so it fails the
// job's range instead of silently treating an unparseable log as handled.
type failedJob struct{ err error }

func (j failedJob) Step(ctx context.Context) (bool, error) { return false, j.err }
