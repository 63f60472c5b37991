package control

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	pedalfx "github.com/cbegin/pedalfx-go"
	"gitlab.com/gomidi/midi"
	"gitlab.com/gomidi/rtmididrv"
)

var ErrNoMIDIPort = errors.New("no matching MIDI input")

// AnyChannel in a Binding matches control changes on every channel.
const AnyChannel = -1

// ControlChange is a decoded MIDI CC message. Channel is 0-based.
type ControlChange struct {
	Channel    int
	Controller int
	Value      int
}

// DecodeControlChange reports whether data starts with a control change.
func DecodeControlChange(data []byte) (ControlChange, bool) {
	if len(data) < 3 || data[0]&0xF0 != 0xB0 {
		return ControlChange{}, false
	}
	return ControlChange{
		Channel:    int(data[0] & 0x0F),
		Controller: int(data[1] & 0x7F),
		Value:      int(data[2] & 0x7F),
	}, true
}

// Binding maps one controller onto a parameter of the effect at Index.
// CC values 0..127 scale linearly onto [Min, Max].
type Binding struct {
	Channel    int
	Controller int
	Index      int
	Param      string
	Min, Max   float64
}

// ParseBinding reads "channel:controller=index:param:min:max". Channel is
// 1-based or "*" for any.
func ParseBinding(s string) (Binding, error) {
	src, dst, ok := strings.Cut(s, "=")
	if !ok {
		return Binding{}, fmt.Errorf("binding %q: missing '='", s)
	}
	ch, cc, ok := strings.Cut(src, ":")
	if !ok {
		return Binding{}, fmt.Errorf("binding %q: expected channel:controller", s)
	}
	parts := strings.Split(dst, ":")
	if len(parts) != 4 {
		return Binding{}, fmt.Errorf("binding %q: expected index:param:min:max", s)
	}
	b := Binding{Channel: AnyChannel, Param: parts[1]}
	var err error
	if ch != "*" {
		if b.Channel, err = strconv.Atoi(ch); err != nil || b.Channel < 1 || b.Channel > 16 {
			return Binding{}, fmt.Errorf("binding %q: channel must be 1..16 or *", s)
		}
		b.Channel--
	}
	if b.Controller, err = strconv.Atoi(cc); err != nil || b.Controller < 0 || b.Controller > 127 {
		return Binding{}, fmt.Errorf("binding %q: controller must be 0..127", s)
	}
	if b.Index, err = strconv.Atoi(parts[0]); err != nil || b.Index < 0 {
		return Binding{}, fmt.Errorf("binding %q: bad effect index", s)
	}
	if b.Min, err = strconv.ParseFloat(parts[2], 64); err != nil {
		return Binding{}, fmt.Errorf("binding %q: min: %w", s, err)
	}
	if b.Max, err = strconv.ParseFloat(parts[3], 64); err != nil {
		return Binding{}, fmt.Errorf("binding %q: max: %w", s, err)
	}
	return b, nil
}

func (b Binding) matches(cc ControlChange) bool {
	return cc.Controller == b.Controller && (b.Channel == AnyChannel || b.Channel == cc.Channel)
}

// Scale maps a 7-bit controller value onto the binding's range.
func (b Binding) Scale(value int) float64 {
	return b.Min + (b.Max-b.Min)*float64(value)/127
}

// Mapper turns incoming MIDI messages into chain parameter updates.
type Mapper struct {
	Chain    *pedalfx.Chain
	Bindings []Binding
}

// Handle applies every binding that matches data and returns how many did.
func (m *Mapper) Handle(data []byte) (int, error) {
	cc, ok := DecodeControlChange(data)
	if !ok {
		return 0, nil
	}
	var applied int
	var errs []error
	for _, b := range m.Bindings {
		if !b.matches(cc) {
			continue
		}
		if err := m.Chain.SetParameterAt(b.Index, b.Param, b.Scale(cc.Value)); err != nil {
			errs = append(errs, fmt.Errorf("cc %d -> %d.%s: %w", cc.Controller, b.Index, b.Param, err))
			continue
		}
		applied++
	}
	return applied, errors.Join(errs...)
}

// Run handles messages until ctx is done or messages is closed.
func (m *Mapper) Run(ctx context.Context, messages <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-messages:
			if !ok {
				return nil
			}
			if _, err := m.Handle(data); err != nil {
				log.Printf("midi: %v", err)
			}
		}
	}
}

// SelectPort picks the input whose name contains name, or the first input
// when name is empty.
func SelectPort(ins []midi.In, name string) (midi.In, error) {
	for _, in := range ins {
		if name == "" || strings.Contains(strings.ToLower(in.String()), strings.ToLower(name)) {
			return in, nil
		}
	}
	if name == "" {
		return nil, ErrNoMIDIPort
	}
	return nil, fmt.Errorf("%q: %w", name, ErrNoMIDIPort)
}

// ListenMIDI opens a MIDI input and delivers its raw messages until ctx is
// done. Messages arriving while the channel is full are dropped.
func ListenMIDI(ctx context.Context, port string) (<-chan []byte, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("initialize MIDI driver: %w", err)
	}
	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("list MIDI inputs: %w", err)
	}
	in, err := SelectPort(ins, port)
	if err != nil {
		drv.Close()
		return nil, err
	}
	if err := in.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("open %s: %w", in, err)
	}
	ch := make(chan []byte, 256)
	if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
		msg := append([]byte(nil), data...)
		select {
		case ch <- msg:
		default:
		}
	}); err != nil {
		in.Close()
		drv.Close()
		return nil, fmt.Errorf("listen on %s: %w", in, err)
	}
	log.Printf("listening on MIDI IN %s", in)
	go func() {
		<-ctx.Done()
		if err := in.StopListening(); err != nil {
			log.Printf("failed to stop listening: %v", err)
		}
		if err := in.Close(); err != nil {
			log.Printf("failed to close MIDI IN: %v", err)
		}
		if err := drv.Close(); err != nil {
			log.Printf("failed to close MIDI driver: %v", err)
		}
		close(ch)
	}()
	return ch, nil
}
