// Package midi reconstructs discrete MIDI messages from the two transports
// the instrument supports: a raw running-status byte stream and a packetized
// transport carrying 4-byte event records. Both feed a common dispatch path,
// so every handled message, the sustain pedal included, behaves identically
// regardless of which transport delivered it.
package midi

// Control change numbers the instrument responds to.
const (
	CCVolume         = 7
	CCSustain        = 64
	CCEngine         = 70
	CCResonance      = 71
	CCRelease        = 72
	CCAttack         = 73
	CCCutoff         = 74
	CCTimbre         = 75
	CCColor          = 76
	CCFMDepth        = 77
	CCTimbreModDepth = 78
	CCColorModDepth  = 79
	CCFilterMix      = 80
)

// Dispatcher receives the decoded messages. NoteOn is never called with a
// zero velocity; a note-on with velocity 0 is dispatched as NoteOff per the
// protocol. PitchBend is given the bend as a signed offset from center,
// -8192..8191.
type Dispatcher interface {
	NoteOn(pitch, velocity byte)
	NoteOff(pitch byte)
	ControlChange(controller, value byte)
	ProgramChange(program byte)
	PitchBend(bend int16)
}

const (
	statusNoteOff         = 0x80
	statusNoteOn          = 0x90
	statusPolyPressure    = 0xA0
	statusControlChange   = 0xB0
	statusProgramChange   = 0xC0
	statusChannelPressure = 0xD0
	statusPitchBend       = 0xE0

	firstRealtimeByte = 0xF8
)

// dataLength returns how many data bytes a channel message with the given
// status carries.
func dataLength(status byte) int {
	switch status & 0xF0 {
	case statusProgramChange, statusChannelPressure:
		return 1
	}
	return 2
}

// dispatch routes one complete (status, data1, data2) triple. Messages on the
// wrong channel and message types with no handler are dropped silently;
// transport framing never reaches the dispatcher.
func dispatch(d Dispatcher, channel int, status, data1, data2 byte) {
	if status&0xF0 == 0xF0 {
		return // system messages carry no channel and are not handled
	}
	if int(status&0x0F) != channel-1 {
		return
	}
	switch status & 0xF0 {
	case statusNoteOff:
		d.NoteOff(data1)
	case statusNoteOn:
		if data2 == 0 {
			d.NoteOff(data1)
		} else {
			d.NoteOn(data1, data2)
		}
	case statusControlChange:
		d.ControlChange(data1, data2)
	case statusProgramChange:
		d.ProgramChange(data1)
	case statusPitchBend:
		d.PitchBend(int16(uint16(data1)|uint16(data2)<<7) - 8192)
	}
	// poly pressure and channel pressure are framed correctly but have no
	// destination in this instrument
}

// StreamDecoder reassembles messages from a serial byte stream with no
// framing guarantees. Running status is honored: after a complete message the
// data accumulator resets but the status byte persists, so subsequent
// status-less messages of the same type decode correctly. Realtime bytes may
// be interleaved anywhere and disturb neither the running status nor the
// accumulator. A malformed or short message is discarded by the next status
// byte, which always restarts data collection.
type StreamDecoder struct {
	dispatcher Dispatcher
	channel    int // 1-based
	status     byte
	data       [2]byte
	have       int
}

func NewStreamDecoder(dispatcher Dispatcher, channel int) *StreamDecoder {
	return &StreamDecoder{dispatcher: dispatcher, channel: channel}
}

// SetChannel changes the 1-based channel the decoder accepts messages on.
func (s *StreamDecoder) SetChannel(channel int) { s.channel = channel }

// Feed consumes one byte from the wire.
func (s *StreamDecoder) Feed(b byte) {
	if b >= firstRealtimeByte {
		return
	}
	if b&0x80 != 0 {
		s.status = b
		s.have = 0
		return
	}
	if s.status == 0 {
		return // data byte with no status to attach to
	}
	s.data[s.have] = b
	s.have++
	if s.have >= dataLength(s.status) {
		s.complete()
	}
}

// Write consumes a chunk of wire bytes, so the decoder can sit behind
// anything that hands out []byte reads.
func (s *StreamDecoder) Write(p []byte) (int, error) {
	for _, b := range p {
		s.Feed(b)
	}
	return len(p), nil
}

func (s *StreamDecoder) complete() {
	dispatch(s.dispatcher, s.channel, s.status, s.data[0], s.data[1])
	s.have = 0
}

// PacketDecoder accepts 4-byte event records from a packetized transport.
// The low nibble of the first byte is the event code; only codes 0x8..0xE,
// the channel voice messages, are accepted, everything else is dropped
// without touching any state.
type PacketDecoder struct {
	dispatcher Dispatcher
	channel    int // 1-based
}

func NewPacketDecoder(dispatcher Dispatcher, channel int) *PacketDecoder {
	return &PacketDecoder{dispatcher: dispatcher, channel: channel}
}

func (p *PacketDecoder) SetChannel(channel int) { p.channel = channel }

// Feed consumes one 4-byte event record.
func (p *PacketDecoder) Feed(packet [4]byte) {
	code := packet[0] & 0x0F
	if code < 0x8 || code > 0xE {
		return
	}
	status := packet[1]
	if status&0x80 == 0 {
		return
	}
	dispatch(p.dispatcher, p.channel, status, packet[2], packet[3])
}
