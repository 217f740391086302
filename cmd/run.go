package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sarchlab/chargersim/config"
	"github.com/sarchlab/chargersim/hal"
	"github.com/sarchlab/chargersim/simulation"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reference charger against the simulated battery.",
		Long: `Run the reference charger against the simulated battery. ` +
			`Settings come from the preset, then from .env and CHARGERSIM_ ` +
			`environment variables, then from flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd.Flags())
			if err != nil {
				return err
			}

			return runSimulation(cmd, cfg)
		},
	}

	addRunFlags(cmd.Flags())

	return cmd
}

func addRunFlags(f *pflag.FlagSet) {
	d := config.Default()

	f.String("preset", "overcharge", "Preset to start from (see `presets`)")
	f.String("env-file", ".env", "File with CHARGERSIM_ variables, skipped if missing")
	f.Uint64("max-iterations", d.MaxIterations, "Iterations to run, 0 runs until interrupted")
	f.Duration("pace", d.Pace, "Wall-clock pause after every iteration")
	f.Int("threshold", d.Threshold, "Voltage pin reading above which the battery is overcharged")
	f.Uint64("grace", d.GraceIterations, "Iterations before the voltage pin is published")
	f.Int("start-voltage", d.StartVoltage, "Battery voltage at iteration 0")
	f.Int("start-temperature", d.StartTemperature, "Battery temperature at iteration 0")
	f.String("plant", d.Plant, "Battery model: overcharge or linear")
	f.Bool("fast-charge-heats", d.FastChargeHeats, "Fast charge keeps heating an overcharged battery")
	f.Bool("latched-digital", d.LatchedDigital, "Ignore controller writes to discrete pins")
	f.Uint8("digital-default", uint8(d.DigitalDefault), "Initial level of every discrete pin")
	f.Bool("no-battery", !d.BatteryPresent, "Leave the battery-present pin at its default level")
	f.Bool("record", d.Record, "Record every iteration into a sqlite file")
	f.String("record-path", d.RecordPath, "Recording file, a fresh name if empty")
	f.Bool("monitor", d.Monitor, "Serve the monitor over HTTP")
	f.Int("monitor-port", d.MonitorPort, "Monitor port, random if 0")
	f.Bool("open-browser", d.OpenBrowser, "Open the monitor in a browser")
	f.Bool("no-cursor", !d.CursorHome, "Print reports one after another instead of in place")
	f.Bool("show-sensors", d.ShowSensors, "Add the battery state to the report")
	f.String("clock", d.Clock, "Controller clock: virtual or host")
	f.String("serial-port", d.SerialPort, "Mirror the controller console to a serial device")
	f.Int("serial-baud", d.SerialBaud, "Baud rate of the serial device")
	f.Bool("trace-events", d.TraceEvents, "Log every engine event")
	f.Bool("trace-pins", d.TracePins, "Log every pin write")
}

func resolveConfig(f *pflag.FlagSet) (config.Config, error) {
	envFile, _ := f.GetString("env-file")

	env, err := config.ReadEnv(envFile)
	if err != nil {
		return config.Config{}, err
	}

	presetName, _ := f.GetString("preset")
	if p, ok := env[config.EnvPrefix+"PRESET"]; ok && !f.Changed("preset") {
		presetName = p
	}

	cfg, err := config.Preset(presetName)
	if err != nil {
		return config.Config{}, err
	}

	if err := config.ApplyEnv(&cfg, env); err != nil {
		return config.Config{}, err
	}

	applyFlags(f, &cfg)

	return cfg, cfg.Validate()
}

func applyFlags(f *pflag.FlagSet, c *config.Config) {
	setters := map[string]func(){
		"max-iterations":    func() { c.MaxIterations, _ = f.GetUint64("max-iterations") },
		"pace":              func() { c.Pace, _ = f.GetDuration("pace") },
		"threshold":         func() { c.Threshold, _ = f.GetInt("threshold") },
		"grace":             func() { c.GraceIterations, _ = f.GetUint64("grace") },
		"start-voltage":     func() { c.StartVoltage, _ = f.GetInt("start-voltage") },
		"start-temperature": func() { c.StartTemperature, _ = f.GetInt("start-temperature") },
		"plant":             func() { c.Plant, _ = f.GetString("plant") },
		"fast-charge-heats": func() { c.FastChargeHeats, _ = f.GetBool("fast-charge-heats") },
		"latched-digital":   func() { c.LatchedDigital, _ = f.GetBool("latched-digital") },
		"digital-default": func() {
			v, _ := f.GetUint8("digital-default")
			c.DigitalDefault = hal.Level(v)
		},
		"no-battery": func() {
			v, _ := f.GetBool("no-battery")
			c.BatteryPresent = !v
		},
		"record":       func() { c.Record, _ = f.GetBool("record") },
		"record-path":  func() { c.RecordPath, _ = f.GetString("record-path") },
		"monitor":      func() { c.Monitor, _ = f.GetBool("monitor") },
		"monitor-port": func() { c.MonitorPort, _ = f.GetInt("monitor-port") },
		"open-browser": func() { c.OpenBrowser, _ = f.GetBool("open-browser") },
		"no-cursor": func() {
			v, _ := f.GetBool("no-cursor")
			c.CursorHome = !v
		},
		"show-sensors": func() { c.ShowSensors, _ = f.GetBool("show-sensors") },
		"clock":        func() { c.Clock, _ = f.GetString("clock") },
		"serial-port":  func() { c.SerialPort, _ = f.GetString("serial-port") },
		"serial-baud":  func() { c.SerialBaud, _ = f.GetInt("serial-baud") },
		"trace-events": func() { c.TraceEvents, _ = f.GetBool("trace-events") },
		"trace-pins":   func() { c.TracePins, _ = f.GetBool("trace-pins") },
	}

	f.Visit(func(flag *pflag.Flag) {
		if set, ok := setters[flag.Name]; ok {
			set()
		}
	})
}

func runSimulation(cmd *cobra.Command, cfg config.Config) (err error) {
	s, err := simulation.MakeBuilder().
		WithConfig(cfg).
		WithConsole(cmd.OutOrStdout()).
		WithLogOutput(cmd.ErrOrStderr()).
		Build()
	if err != nil {
		return err
	}
	defer terminate(s, &err)

	ctx, stop := signal.NotifyContext(
		contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	status, err := s.Run(ctx)
	if err != nil {
		return err
	}

	loop := s.DriveLoop()
	fmt.Fprintf(cmd.ErrOrStderr(),
		"Simulation ended after %d iterations, voltage %d, temperature %d, %s\n",
		loop.Iterations(), status.Sensors.Voltage, status.Sensors.Temperature,
		status.Phase)

	if at, tripped := loop.Latch().TrippedAt(); tripped {
		fmt.Fprintf(cmd.ErrOrStderr(), "Overcharge detected at iteration %d\n", at)
	}

	steps := s.Steps()
	for _, name := range steps.StepNames() {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %-12s %d iterations\n",
			name, steps.StepCount(name))
	}

	return nil
}

type terminator interface {
	Terminate() error
}

// terminate releases t and adds a release failure to *err, so that a
// recording that could not be flushed fails the command.
func terminate(t terminator, err *error) {
	*err = errors.Join(*err, t.Terminate())
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
