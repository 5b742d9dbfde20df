// Command courier-broker runs the cluster relay.
//
// Addresses come from the environment or a courier.yaml cluster file; see
// the config package. The broker runs until interrupted.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/courierbus/courier/core/broker"
	"github.com/courierbus/courier/core/config"
	"github.com/courierbus/courier/core/logger"
)

func main() {
	cluster := flag.String("cluster", config.DefaultCluster, "cluster section to load addresses for")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	addrs, err := config.LoadCluster(*cluster, config.WithLogger(log))
	if err != nil {
		log.Error("cannot resolve addresses", logger.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []broker.Option{broker.WithLogger(log)}
	if addrs.DebugAddr != "" {
		opts = append(opts, broker.WithDebugAddr(addrs.DebugAddr))
	}

	b := broker.New(addrs.PubAddr, addrs.SubAddr, opts...)
	if err := b.Run(ctx); err != nil {
		log.Error("broker terminated", logger.Error(err))
		os.Exit(1)
	}
}
