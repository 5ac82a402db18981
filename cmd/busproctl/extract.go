package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hadz2009/buspro-ac/internal/pcap"
)

func newExtractCmd() *cobra.Command {
	var (
		pcapPath string
		skeleton bool
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Pull checksum-valid frames out of a packet capture",
		Long: `Scans a pcap file of vendor-tool traffic for checksum-valid BusPro
frames. Use --skeleton to print a catalog skeleton; relabel the
entries by hand (off, cool, temp_24, ...) before using it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := pcap.ExtractTemplates(pcapPath)
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				return fmt.Errorf("no checksum-valid frames in %s", pcapPath)
			}

			if skeleton {
				fmt.Println("version: 1")
				fmt.Printf("name: extracted-from-%s\n", pcapPath)
				fmt.Println("reference_address: \"0.0\" # fill in the captured panel's address")
				fmt.Println("templates:")
				for i, c := range candidates {
					fmt.Printf("  unknown_%d: %s # %dx from %s\n", i, c.Hex(), c.Count, c.Source)
				}
				return nil
			}

			for _, c := range candidates {
				fmt.Printf("%4dx  %-22s %s\n", c.Count, c.Source, c.Hex())
			}
			fmt.Printf("%d distinct frames\n", len(candidates))
			return nil
		},
	}
	cmd.Flags().StringVar(&pcapPath, "pcap", "", "capture file to scan")
	cmd.Flags().BoolVar(&skeleton, "skeleton", false, "print a catalog skeleton instead of a listing")
	cmd.MarkFlagRequired("pcap")
	return cmd
}
