package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Hadz2009/buspro-ac/internal/catalog"
	"github.com/Hadz2009/buspro-ac/internal/config"
	"github.com/Hadz2009/buspro-ac/internal/protocol"
)

func newDiscoverCmd() *cobra.Command {
	var catalogPath string
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Run protocol discovery and print the derived layout",
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
			layout, err := cat.Layout()
			if err != nil {
				return err
			}

			fmt.Printf("catalog:      %s (%s, reference %s)\n", path, cat.Name, cat.Reference)
			fmt.Printf("frame length: %d bytes\n", layout.FrameLen())
			fmt.Printf("prefix:       %X\n", layout.Prefix())
			fmt.Printf("subnet byte:  offset %d\n", layout.SubnetOffset())
			fmt.Printf("device byte:  offset %d\n", layout.DeviceOffset())
			fmt.Printf("mode byte:    offset %d\n", layout.ModeOffset())

			modeValues := layout.ModeValues()
			names := make([]string, 0, len(modeValues))
			for m := range modeValues {
				names = append(names, string(m))
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  %-10s 0x%02X\n", name, modeValues[protocol.Mode(name)])
			}

			slope, intercept := layout.TemperatureEncoding()
			fmt.Printf("temp byte:    offset %d, raw = %d*°C%+d\n",
				layout.TemperatureOffset(), slope, intercept)

			if layout.HasFanSpeed() {
				fmt.Printf("fan byte:     offset %d\n", layout.FanSpeedOffset())
			} else {
				fmt.Println("fan byte:     not in catalog")
			}
			if layout.HasStatusRequest() {
				fmt.Println("status poll:  available")
			} else {
				fmt.Println("status poll:  not in catalog")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog to discover (default: the configured one)")
	return cmd
}
