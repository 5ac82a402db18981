package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hadz2009/buspro-ac/internal/protocol"
)

type sendFlags struct {
	device      string
	mode        string
	temperature int
	fan         string
}

func newSendCmd() *cobra.Command {
	flags := &sendFlags{}
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one state change command to a panel",
		Example: `  busproctl send --device 1.14 --mode cool --temp 24
  busproctl send --device 1.14 --mode off
  busproctl send --device 2.7 --mode fan_only --fan high`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(flags)
		},
	}
	cmd.Flags().StringVarP(&flags.device, "device", "d", "", "target device address, subnet.device")
	cmd.Flags().StringVarP(&flags.mode, "mode", "m", "", "operating mode: off, cool, fan_only, dry")
	cmd.Flags().IntVarP(&flags.temperature, "temp", "t", 0, "setpoint in °C (16..30); omit to keep the panel's setpoint")
	cmd.Flags().StringVarP(&flags.fan, "fan", "f", "", "fan speed: auto, high, medium, low")
	cmd.MarkFlagRequired("device")
	cmd.MarkFlagRequired("mode")
	return cmd
}

func runSend(flags *sendFlags) error {
	addr, err := protocol.ParseAddress(flags.device)
	if err != nil {
		return err
	}
	command := protocol.Command{
		Address:     addr,
		Mode:        protocol.Mode(flags.mode),
		Temperature: flags.temperature,
	}
	if flags.fan != "" {
		command.FanSpeed, err = protocol.ParseFanSpeed(flags.fan)
		if err != nil {
			return err
		}
	}

	engine, err := loadEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	if flags.fan != "" && !engine.layout.HasFanSpeed() {
		return fmt.Errorf("catalog %s has no fan_high template; fan control is unavailable", engine.cfg.Catalog)
	}
	return engine.controller().SetState(command)
}
