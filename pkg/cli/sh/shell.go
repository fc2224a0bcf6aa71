// Package sh provides an interactive shell driving an in-process wire.
package sh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/wire.go/pkg/phy"
	"github.com/robotalks/wire.go/pkg/scope"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell *ishell.Shell
	Sim   *Sim
}

const (
	shellKey = "$shell"
	prompt   = "wire > "

	defaultTraceLen = 80
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&AttachCmd,
		&DetachCmd,
		&SendCmd,
		&VoltageCmd,
		&DevicesCmd,
		&NoiseCmd,
		&TraceCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(conf *phy.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell: ishell.New(),
		Sim:   NewSim(conf),
	}
	s.Sim.OnFrame = s.printFrame
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// ParsePayload parses a payload given as 0xHEX or text.
func ParsePayload(args []string) ([]byte, error) {
	text := strings.Join(args, " ")
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		return hex.DecodeString(strings.ReplaceAll(text[2:], " ", ""))
	}
	return []byte(text), nil
}

func (s *Shell) printFrame(device string, frame *phy.Frame) {
	if s.OutputJSON {
		out, _ := json.Marshal(map[string]interface{}{
			"device":  device,
			"payload": frame.Payload(),
		})
		s.Shell.Println(string(out))
		return
	}
	s.Shell.Printf("%s received %s %q\n", device, frame, frame.Payload())
}

// print writes v as JSON or with the text func.
func (s *Shell) print(c *ishell.Context, v interface{}, text func()) {
	if !s.OutputJSON {
		text()
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	s.Sim.Start(context.Background())
	defer s.Sim.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func requireArgs(c *ishell.Context, n int, usage string) bool {
	if len(c.Args) < n {
		c.Err(fmt.Errorf("usage: %s", usage))
		return false
	}
	return true
}

var (
	// AttachCmd attaches an endpoint.
	AttachCmd = ishell.Cmd{
		Name:    "attach",
		Aliases: []string{"a"},
		Help:    "NAME",
		Func: func(c *ishell.Context) {
			if !requireArgs(c, 1, "attach NAME") {
				return
			}
			if _, err := ShellFrom(c).Sim.Attach(strings.Join(c.Args, " ")); err != nil {
				c.Err(err)
			}
		},
	}

	// DetachCmd detaches an endpoint.
	DetachCmd = ishell.Cmd{
		Name: "detach",
		Help: "NAME",
		Func: func(c *ishell.Context) {
			if !requireArgs(c, 1, "detach NAME") {
				return
			}
			if err := ShellFrom(c).Sim.Detach(strings.Join(c.Args, " ")); err != nil {
				c.Err(err)
			}
		},
	}

	// SendCmd sends a frame from an endpoint.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "NAME TEXT|0xHEX",
		Func: func(c *ishell.Context) {
			if !requireArgs(c, 1, "send NAME TEXT|0xHEX") {
				return
			}
			payload, err := ParsePayload(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			s := ShellFrom(c)
			if err := s.Sim.Send(context.Background(), c.Args[0], payload); err != nil {
				c.Err(err)
				return
			}
			s.print(c, map[string]interface{}{"sent": len(payload)}, func() {
				c.Printf("%s sent %d bytes\n", c.Args[0], len(payload))
			})
		},
	}

	// VoltageCmd prints the voltage on the wire.
	VoltageCmd = ishell.Cmd{
		Name:    "voltage",
		Aliases: []string{"v"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			voltage, devices := s.Sim.Medium.Snapshot()
			s.print(c, map[string]interface{}{"voltage": voltage, "devices": devices}, func() {
				c.Printf("%.3f V\n", voltage)
				for _, name := range s.Sim.Medium.Devices() {
					c.Printf("  %s: %.3f V\n", name, devices[name])
				}
			})
		},
	}

	// DevicesCmd lists attached endpoints.
	DevicesCmd = ishell.Cmd{
		Name:    "devices",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			names := s.Sim.Endpoints()
			s.print(c, names, func() {
				if len(names) == 0 {
					c.Println("No devices attached")
					return
				}
				for _, name := range names {
					c.Println(name)
				}
			})
		},
	}

	// NoiseCmd sets the thermal noise.
	NoiseCmd = ishell.Cmd{
		Name: "noise",
		Help: "STDDEV",
		Func: func(c *ishell.Context) {
			if !requireArgs(c, 1, "noise STDDEV") {
				return
			}
			stddev, err := strconv.ParseFloat(c.Args[0], 64)
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).Sim.SetNoise(stddev)
		},
	}

	// TraceCmd plots recent samples of the wire.
	TraceCmd = ishell.Cmd{
		Name:    "trace",
		Aliases: []string{"t"},
		Help:    "[SAMPLES]",
		Func: func(c *ishell.Context) {
			n := defaultTraceLen
			if len(c.Args) > 0 {
				var err error
				if n, err = strconv.Atoi(c.Args[0]); err != nil || n <= 0 {
					c.Err(fmt.Errorf("invalid sample count %q", c.Args[0]))
					return
				}
			}
			s := ShellFrom(c)
			samples := s.Sim.Scope.History()
			if len(samples) > n {
				samples = samples[len(samples)-n:]
			}
			s.print(c, samples, func() {
				c.Println(scope.Plot(samples))
			})
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(phy.Default()).Run(flag.Args()...)
}
