package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hadz2009/buspro-ac/internal/protocol"
)

func newPollCmd() *cobra.Command {
	var device string
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Ask a panel to broadcast its current state",
		Long: `Sends a status request to one panel. The panel answers with a
broadcast; run "busproctl listen" or "busproctl watch" to receive it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := protocol.ParseAddress(device)
			if err != nil {
				return err
			}
			engine, err := loadEngine()
			if err != nil {
				return err
			}
			defer engine.Close()
			if err := engine.controller().RequestStatus(addr); err != nil {
				return err
			}
			fmt.Printf("status requested from %s\n", addr)
			return nil
		},
	}
	cmd.Flags().StringVarP(&device, "device", "d", "", "target device address, subnet.device")
	cmd.MarkFlagRequired("device")
	return cmd
}
