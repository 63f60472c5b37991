package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	pedalfx "github.com/cbegin/pedalfx-go"
	"github.com/cbegin/pedalfx-go/internal/audio"
	"github.com/cbegin/pedalfx-go/internal/cli"
	"github.com/cbegin/pedalfx-go/internal/control"
	"github.com/cbegin/pedalfx-go/internal/meter"
	"golang.org/x/sync/errgroup"
)

// CLI defines the command-line interface.
type CLI struct {
	SampleRate int      `default:"44100" help:"Sample rate in Hz"`
	BlockSize  int      `default:"1024" help:"Frames per processing block"`
	Backend    string   `default:"oto" enum:"oto,ebiten,pcm" help:"Output: oto, ebiten or pcm (raw s16le)"`
	Output     string   `short:"o" type:"path" help:"File for the pcm backend (default stdout)"`
	Input      string   `default:"tone" enum:"tone,pcm" help:"Input: generated tone or raw s16le PCM"`
	InputFile  string   `short:"i" type:"path" help:"File for pcm input (default stdin)"`
	Wave       string   `default:"sine" help:"Tone waveform: sine, square, triangle, saw, impulse, silence"`
	Freq       float64  `default:"220" help:"Tone frequency in Hz"`
	Amplitude  float64  `default:"0.5" help:"Tone amplitude"`
	Seconds    float64  `help:"Stop the tone after this many seconds (0 runs until interrupted)"`
	Fx         []string `short:"f" sep:"none" help:"Effect to append, e.g. \"plate mix=0.3 decay=1.5\" (repeatable)"`
	Muted      bool     `help:"Start with output muted"`
	Meter      bool     `help:"Print output levels once per second"`
	MidiPort   string   `help:"MIDI input to read control changes from (substring match)"`
	MidiMap    []string `sep:"none" help:"Controller binding channel:cc=index:param:min:max (repeatable)"`
	NoConsole  bool     `help:"Do not read commands from stdin"`
}

func main() {
	log.SetFlags(log.Lshortfile)
	args := &CLI{}
	kong.Parse(args,
		kong.Name("play_fx"),
		kong.Description("Run audio through a chain of pedal effects"),
		kong.UsageOnError(),
	)
	if err := run(args); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

func run(args *CLI) error {
	sr := float64(args.SampleRate)
	chain := pedalfx.NewChain()
	for _, def := range args.Fx {
		e, err := pedalfx.ParseEffect(def, sr)
		if err != nil {
			return fmt.Errorf("--fx %q: %w", def, err)
		}
		chain.Append(e)
	}
	var bindings []control.Binding
	for _, m := range args.MidiMap {
		b, err := control.ParseBinding(m)
		if err != nil {
			return err
		}
		bindings = append(bindings, b)
	}

	in, err := openInput(args)
	if err != nil {
		return err
	}
	out, err := openOutput(args)
	if err != nil {
		return err
	}

	opts := []pedalfx.SessionOption{
		pedalfx.WithSampleRate(args.SampleRate),
		pedalfx.WithBlockSize(args.BlockSize),
		pedalfx.WithMuted(args.Muted),
	}
	var m *meter.Meter
	if args.Meter {
		if m, err = meter.New(sr, 4096, 0); err != nil {
			return err
		}
		opts = append(opts, pedalfx.WithSampleTap(m.Tap))
	}
	session, err := pedalfx.NewSession(chain, in, out, opts...)
	if err != nil {
		return err
	}

	descs := make([]string, 0, chain.Len())
	for _, e := range chain.Effects() {
		descs = append(descs, pedalfx.DescribeEffect(e))
	}
	cli.PrintChain(os.Stderr, fmt.Sprintf("pedalfx %d Hz / %d frames", args.SampleRate, args.BlockSize), descs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)
	go func() {
		select {
		case sig := <-signalCh:
			log.Printf("caught signal %s: shutting down...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := session.Start(); err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return session.Wait()
	})
	g.Go(func() error {
		<-ctx.Done()
		return session.Stop()
	})
	if !args.NoConsole && !(args.Input == "pcm" && args.InputFile == "") {
		console := &control.Console{Chain: chain, Session: session, SampleRate: sr, Out: os.Stderr}
		g.Go(func() error {
			return console.Run(ctx, os.Stdin)
		})
	}
	if args.MidiPort != "" || len(bindings) > 0 {
		messages, err := control.ListenMIDI(ctx, args.MidiPort)
		if err != nil {
			log.Printf("MIDI disabled: %v", err)
		} else {
			mapper := &control.Mapper{Chain: chain, Bindings: bindings}
			g.Go(func() error {
				return mapper.Run(ctx, messages)
			})
		}
	}
	if m != nil {
		g.Go(func() error {
			return reportLevels(ctx, m)
		})
	}
	err = g.Wait()
	stats := session.Stats()
	log.Printf("processed %d blocks (%d silent, %d dropped)", stats.Blocks, stats.Silent, stats.Dropped)
	return err
}

func openInput(args *CLI) (pedalfx.InputStream, error) {
	if args.Input == "pcm" {
		var r io.Reader = os.Stdin
		if args.InputFile != "" {
			f, err := os.Open(args.InputFile)
			if err != nil {
				return nil, err
			}
			r = f
		}
		return audio.NewReaderInput(r, 4), nil
	}
	wave, err := audio.ParseWaveform(args.Wave)
	if err != nil {
		return nil, err
	}
	cfg := audio.ToneConfig{
		Wave:      wave,
		Freq:      args.Freq,
		Amplitude: args.Amplitude,
		Paced:     args.Backend != "pcm",
	}
	if args.Seconds > 0 {
		cfg.Blocks = int(args.Seconds*float64(args.SampleRate)/float64(args.BlockSize) + 0.5)
	} else if args.Backend == "pcm" {
		return nil, errors.New("--seconds is required when rendering a tone to pcm")
	}
	return audio.NewToneInput(cfg), nil
}

func openOutput(args *CLI) (pedalfx.OutputStream, error) {
	switch args.Backend {
	case "ebiten":
		return audio.NewEbitenOutput(4, 50*time.Millisecond), nil
	case "pcm":
		var w io.Writer = os.Stdout
		if args.Output != "" {
			f, err := os.Create(args.Output)
			if err != nil {
				return nil, err
			}
			w = f
		}
		return audio.NewWriterOutput(w), nil
	default:
		return audio.NewOtoOutput(4), nil
	}
}

func reportLevels(ctx context.Context, m *meter.Meter) error {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			l := m.Levels()
			freq, _, err := m.PeakFrequency()
			if err != nil {
				continue
			}
			fmt.Fprintln(os.Stderr, cli.FormatLevels(l.PeakDB(), l.RMSDB(), freq))
		}
	}
}
