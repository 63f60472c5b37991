package control

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strconv"
	"strings"

	pedalfx "github.com/cbegin/pedalfx-go"
)

var ErrUnknownCommand = errors.New("unknown command")

// Switches is the part of a session the console can toggle.
type Switches interface {
	SetMuted(bool)
	Muted() bool
	SetListening(bool)
	Listening() bool
}

// Console applies text commands to a chain and its session.
type Console struct {
	Chain      *pedalfx.Chain
	Session    Switches
	SampleRate float64
	Out        io.Writer
}

// ParseCommand splits a line on spaces and unescapes each field, so values
// may carry %20 or + for spaces.
func ParseCommand(line string) ([]string, error) {
	var fields []string
	for _, item := range strings.Fields(line) {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		fields = append(fields, escaped)
	}
	return fields, nil
}

// Execute runs one parsed command. Empty commands are ignored.
func (c *Console) Execute(args []string) error {
	if len(args) == 0 {
		return nil
	}
	switch args[0] {
	case "add":
		if len(args) < 2 {
			return fmt.Errorf("usage: add <kind> [name=value...]")
		}
		e, err := pedalfx.ParseEffect(strings.Join(args[1:], " "), c.SampleRate)
		if err != nil {
			return err
		}
		c.Chain.Append(e)
		c.printf("%d: %s\n", c.Chain.Len()-1, pedalfx.DescribeEffect(e))
	case "remove", "rm":
		i, err := index(args, 2)
		if err != nil {
			return err
		}
		e, err := c.Chain.RemoveAt(i)
		if err != nil {
			return err
		}
		c.printf("removed %s\n", pedalfx.DescribeEffect(e))
	case "set":
		i, err := index(args, 4)
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return fmt.Errorf("value %q: %w", args[3], pedalfx.ErrConfiguration)
		}
		return c.Chain.SetParameterAt(i, args[2], v)
	case "mute":
		on, err := onOff(args)
		if err != nil {
			return err
		}
		c.Session.SetMuted(on)
	case "listen":
		on, err := onOff(args)
		if err != nil {
			return err
		}
		c.Session.SetListening(on)
	case "list", "ls":
		for i, e := range c.Chain.Effects() {
			c.printf("%d: %s\n", i, pedalfx.DescribeEffect(e))
		}
		c.printf("muted=%t listening=%t\n", c.Session.Muted(), c.Session.Listening())
	case "params":
		i, err := index(args, 2)
		if err != nil {
			return err
		}
		e, err := c.Chain.At(i)
		if err != nil {
			return err
		}
		for _, p := range e.Params() {
			c.printf("%-10s %g %s  %s\n", p.Name, p.Value, p.Unit, p.Range())
		}
	case "reset":
		c.Chain.Reset()
	default:
		return fmt.Errorf("%q: %w", args[0], ErrUnknownCommand)
	}
	return nil
}

var usage = map[string]string{
	"remove": "remove <index>",
	"rm":     "rm <index>",
	"set":    "set <index> <name> <value>",
	"params": "params <index>",
}

// index parses args[1] as an effect index after checking the arity.
func index(args []string, arity int) (int, error) {
	if len(args) != arity {
		return 0, fmt.Errorf("usage: %s", usage[args[0]])
	}
	i, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("index %q: %w", args[1], pedalfx.ErrConfiguration)
	}
	return i, nil
}

func onOff(args []string) (bool, error) {
	if len(args) == 2 {
		switch args[1] {
		case "on", "1", "true":
			return true, nil
		case "off", "0", "false":
			return false, nil
		}
	}
	return false, fmt.Errorf("usage: %s on|off", args[0])
}

func (c *Console) printf(format string, a ...any) {
	if c.Out != nil {
		fmt.Fprintf(c.Out, format, a...)
	}
}

// Run reads commands line by line until ctx is done or r is exhausted.
// A bad command is reported and skipped.
func (c *Console) Run(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()
	for {
		select {
		case <-ctx.Done():
			log.Println("command loop interrupted")
			return nil
		case err := <-errc:
			log.Println("command input ended")
			return err
		case line := <-lines:
			args, err := ParseCommand(line)
			if err == nil {
				err = c.Execute(args)
			}
			if err != nil {
				log.Printf("command %q: %v", line, err)
				c.printf("error: %v\n", err)
			}
		}
	}
}
