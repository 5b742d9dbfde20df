// Command courier-monitor taps the broker's debug mirror.
//
// It subscribes to the mirror feed, decodes every envelope, and prints
// one-line summaries. With -listen it additionally serves the decoded
// stream to websocket clients, for watching cluster traffic from a
// browser.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-zeromq/zmq4"

	"github.com/courierbus/courier/core/config"
	"github.com/courierbus/courier/core/logger"
	"github.com/courierbus/courier/core/market"
	"github.com/courierbus/courier/core/wire"
)

func main() {
	cluster := flag.String("cluster", config.DefaultCluster, "cluster section to load addresses for")
	listen := flag.String("listen", "", "serve the decoded stream to websocket clients on this address")
	quiet := flag.Bool("q", false, "suppress per-envelope stdout lines")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	addrs, err := config.LoadCluster(*cluster, config.WithLogger(log))
	if err != nil {
		log.Error("cannot resolve addresses", logger.Error(err))
		os.Exit(1)
	}
	feed := addrs.DebugAddr
	if feed == "" {
		// No mirror configured; watch the subscriber side instead.
		feed = addrs.SubAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub := zmq4.NewSub(ctx)
	if err := sub.Dial(feed); err != nil {
		log.Error("cannot dial feed", logger.Endpoint(feed), logger.Error(err))
		os.Exit(1)
	}
	defer sub.Close()
	if err := sub.SetOption(zmq4.OptionSubscribe, ""); err != nil {
		log.Error("cannot subscribe", logger.Error(err))
		os.Exit(1)
	}
	go func() {
		// Closing the socket unblocks the tap loop below.
		<-ctx.Done()
		_ = sub.Close()
	}()

	var tap *hub
	if *listen != "" {
		tap = newHub(log)
		go tap.run(ctx)
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", tap.serveWS)
		server := &http.Server{Addr: *listen, Handler: mux}
		go func() {
			<-ctx.Done()
			_ = server.Close()
		}()
		go func() {
			log.Info("websocket tap listening", logger.Endpoint(*listen))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("websocket tap failed", logger.Error(err))
			}
		}()
	}

	codec := wire.NewCodec(wire.WithRegistry(market.Defaults()))
	log.Info("watching feed", logger.Endpoint(feed))

	for {
		msg, err := sub.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("feed terminated", logger.Error(err))
			os.Exit(1)
		}
		env, err := codec.Decode(msg.Frames)
		if err != nil {
			log.Warn("skipping undecodable message", logger.Error(err))
			continue
		}
		if !*quiet {
			fmt.Printf("%.6f  %-32s  %-12s  %v\n", env.TS, env.Topic, env.Origin, env.Data)
		}
		if tap != nil {
			if line, err := json.Marshal(env); err == nil {
				tap.publish(line)
			}
		}
	}
}
