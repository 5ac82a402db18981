package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hadz2009/buspro-ac/internal/catalog"
	"github.com/Hadz2009/buspro-ac/internal/config"
	"github.com/Hadz2009/buspro-ac/internal/protocol"
)

func newValidateCmd() *cobra.Command {
	var catalogPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check every catalog template and run discovery",
		Long: `Loads the catalog, re-verifies every template's checksum, and runs
protocol discovery. Exits non-zero on the first inconsistency.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := catalogPath
			if path == "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				path = cfg.Catalog
			}
			cat, err := catalog.Load(path)
			if err != nil {
				return err
			}

			for _, label := range cat.Labels() {
				packet, _ := cat.Template(label)
				_, frame, err := protocol.SplitPacket(packet)
				if err != nil {
					return fmt.Errorf("template %q: %w", label, err)
				}
				if err := protocol.VerifyFrame(frame); err != nil {
					return fmt.Errorf("template %q: %w", label, err)
				}
				fmt.Printf("ok  %-16s %d bytes\n", label, len(packet))
			}

			if _, err := cat.Layout(); err != nil {
				return err
			}
			fmt.Printf("catalog %s: %d templates, discovery consistent\n",
				path, len(cat.Labels()))
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog to validate (default: the configured one)")
	return cmd
}
