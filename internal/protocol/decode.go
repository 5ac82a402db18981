package protocol

import "fmt"

// DecodeStatus interprets one inbound datagram as an AC status frame.
//
// Validation failures (bad marker, length, checksum) are returned as
// frame errors for the caller to count. Frames that validate but do not
// match the discovered command shape are other bus traffic and come
// back as ErrUnrecognizedFrame; callers discard those without logging.
func (l *FieldLayout) DecodeStatus(datagram []byte) (StatusEvent, error) {
	_, frame, err := SplitPacket(datagram)
	if err != nil {
		return StatusEvent{}, err
	}
	if err := VerifyFrame(frame); err != nil {
		return StatusEvent{}, err
	}

	if len(frame) != l.frameLen {
		return StatusEvent{}, fmt.Errorf("%w: %d byte frame, layout expects %d",
			ErrUnrecognizedFrame, len(frame), l.frameLen)
	}

	// Every byte outside the variable fields must match the template
	// shape. The checksum bytes were already verified.
	reference := l.baseFrames[ModeCool]
	for i := 0; i < l.frameLen-checksumLen; i++ {
		if l.variableOffset(i) {
			continue
		}
		if frame[i] != reference[i] {
			return StatusEvent{}, fmt.Errorf("%w: fixed byte %02X at offset %d, expected %02X",
				ErrUnrecognizedFrame, frame[i], i, reference[i])
		}
	}

	mode, ok := l.modeByValue[frame[l.modeOffset]]
	if !ok {
		return StatusEvent{}, fmt.Errorf("%w: mode byte %02X not in the discovered enumeration",
			ErrUnrecognizedFrame, frame[l.modeOffset])
	}

	raw := int(frame[l.temperatureOffset])
	if (raw-l.tempIntercept)%l.tempSlope != 0 {
		return StatusEvent{}, fmt.Errorf("%w: temperature byte %02X does not decode under raw=%d*C%+d",
			ErrUnrecognizedFrame, raw, l.tempSlope, l.tempIntercept)
	}

	event := StatusEvent{
		Address: DeviceAddress{
			Subnet: frame[l.subnetOffset],
			Device: frame[l.deviceOffset],
		},
		Mode:        mode,
		Temperature: (raw - l.tempIntercept) / l.tempSlope,
	}
	if l.fanSpeedOffset >= 0 {
		event.FanSpeed = FanSpeed(frame[l.fanSpeedOffset])
	}
	return event, nil
}

func (l *FieldLayout) variableOffset(i int) bool {
	return i == l.subnetOffset || i == l.deviceOffset ||
		i == l.modeOffset || i == l.temperatureOffset ||
		(l.fanSpeedOffset >= 0 && i == l.fanSpeedOffset)
}
