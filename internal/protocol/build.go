package protocol

import "fmt"

func encodingErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrEncoding, fmt.Sprintf(format, args...))
}

// Build synthesizes a command packet for cmd by patching the discovered
// field offsets into a copy of the matching mode template and resealing
// the checksum. The returned packet includes the transport prefix and
// is ready to send. Build never mutates the templates.
func (l *FieldLayout) Build(cmd Command) ([]byte, error) {
	if !cmd.Address.Valid() {
		return nil, encodingErr("address %s out of range", cmd.Address)
	}
	if !cmd.Mode.Valid() {
		return nil, encodingErr("unknown mode %q", cmd.Mode)
	}
	base, ok := l.baseFrames[cmd.Mode]
	if !ok {
		return nil, encodingErr("no template for mode %q", cmd.Mode)
	}
	if cmd.Temperature != 0 {
		if !cmd.Mode.SupportsTemperature() {
			return nil, encodingErr("mode %q does not take a temperature", cmd.Mode)
		}
		if cmd.Temperature < MinTemperature || cmd.Temperature > MaxTemperature {
			return nil, encodingErr("temperature %d°C outside %d..%d",
				cmd.Temperature, MinTemperature, MaxTemperature)
		}
	}

	frame := append([]byte(nil), base...)
	frame[l.subnetOffset] = cmd.Address.Subnet
	frame[l.deviceOffset] = cmd.Address.Device
	if cmd.Temperature != 0 {
		raw := l.tempSlope*cmd.Temperature + l.tempIntercept
		if raw < 0 || raw > 0xFF {
			return nil, encodingErr("temperature %d°C encodes to raw %d, outside one byte",
				cmd.Temperature, raw)
		}
		frame[l.temperatureOffset] = byte(raw)
	}
	if l.fanSpeedOffset >= 0 && cmd.Mode != ModeOff {
		frame[l.fanSpeedOffset] = byte(cmd.FanSpeed)
	}
	sealFrame(frame)

	return append(l.Prefix(), frame...), nil
}

// BuildStatusRequest synthesizes a status poll packet for addr. It
// fails when the catalog carries no status_request template.
func (l *FieldLayout) BuildStatusRequest(addr DeviceAddress) ([]byte, error) {
	if l.statusRequest == nil {
		return nil, encodingErr("catalog has no status_request template")
	}
	if !addr.Valid() {
		return nil, encodingErr("address %s out of range", addr)
	}
	frame := append([]byte(nil), l.statusRequest...)
	frame[l.subnetOffset] = addr.Subnet
	frame[l.deviceOffset] = addr.Device
	sealFrame(frame)
	return append(l.Prefix(), frame...), nil
}
