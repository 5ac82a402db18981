package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Hadz2009/buspro-ac/internal/app"
	"github.com/Hadz2009/buspro-ac/internal/listener"
	"github.com/Hadz2009/buspro-ac/internal/tui"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live terminal view of every panel's state",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			l := listener.New(engine.layout, engine.store, nil, engine.counters, engine.log)
			listenErr := make(chan error, 1)
			go func() {
				listenErr <- l.Listen(ctx, engine.router.Ports())
			}()

			if engine.cfg.PrimeStatus {
				go engine.controller().PrimeStatus(ctx,
					engine.cfg.DeviceAddresses(), app.PrimeSpacing)
			}

			model := tui.NewModel(engine.store, engine.counters, engine.cfg.DeviceName)
			if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
				return err
			}

			cancel()
			return <-listenErr
		},
	}
}
