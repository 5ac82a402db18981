package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Hadz2009/buspro-ac/internal/app"
	"github.com/Hadz2009/buspro-ac/internal/listener"
)

func newListenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Receive status broadcasts and log state changes",
		Long: `Binds one UDP socket per configured gateway port and decodes status
broadcasts into the state store until interrupted. With prime_status
enabled, every configured device is asked for its state on startup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			sink, err := engine.newSink()
			if err != nil {
				return err
			}
			defer sink.Close()

			ctx, stop := signal.NotifyContext(context.Background(),
				syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if engine.cfg.PrimeStatus {
				go engine.controller().PrimeStatus(ctx,
					engine.cfg.DeviceAddresses(), app.PrimeSpacing)
			}

			l := listener.New(engine.layout, engine.store, sink, engine.counters, engine.log)
			if err := l.Listen(ctx, engine.router.Ports()); err != nil {
				return err
			}

			snap := engine.counters.Snapshot()
			engine.log.Info().
				Uint64("frames", snap.FramesReceived).
				Uint64("decoded", snap.EventsDecoded).
				Uint64("checksum_failures", snap.ChecksumFailures).
				Uint64("other_traffic", snap.UnrecognizedFrames).
				Msg("listener shut down")
			return nil
		},
	}
}
