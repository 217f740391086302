package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sarchlab/chargersim/hal"
)

// EnvPrefix starts the name of every environment variable the configuration
// reads.
const EnvPrefix = "CHARGERSIM_"

// ReadEnv collects CHARGERSIM_ variables from the given .env files and the
// process environment. The process environment wins. Missing files are
// skipped.
func ReadEnv(files ...string) (map[string]string, error) {
	env := make(map[string]string)

	for _, file := range files {
		values, err := godotenv.Read(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}

		for k, v := range values {
			if strings.HasPrefix(k, EnvPrefix) {
				env[k] = v
			}
		}
	}

	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}

	return env, nil
}

// ApplyEnv overrides fields of c with the values found in env. Keys are
// without the prefix in upper snake case, e.g. CHARGERSIM_THRESHOLD.
func ApplyEnv(c *Config, env map[string]string) error {
	setters := map[string]func(string) error{
		"PLANT":               str(&c.Plant),
		"THRESHOLD":           integer(&c.Threshold),
		"FAST_CHARGE_HEATS":   boolean(&c.FastChargeHeats),
		"GRACE":               unsigned(&c.GraceIterations),
		"MAX_ITERATIONS":      unsigned(&c.MaxIterations),
		"START_VOLTAGE":       integer(&c.StartVoltage),
		"START_TEMPERATURE":   integer(&c.StartTemperature),
		"SEED_VOLTAGE":        integer(&c.SeedVoltage),
		"SEED_THERMISTOR":     integer(&c.SeedThermistor),
		"PACE":                duration(&c.Pace),
		"DIGITAL_DEFAULT":     level(&c.DigitalDefault),
		"LATCHED_DIGITAL":     boolean(&c.LatchedDigital),
		"BATTERY_PRESENT":     boolean(&c.BatteryPresent),
		"CLOCK":               str(&c.Clock),
		"SERIAL_PORT":         str(&c.SerialPort),
		"SERIAL_BAUD":         integer(&c.SerialBaud),
		"RECORD":              boolean(&c.Record),
		"RECORD_PATH":         str(&c.RecordPath),
		"MONITOR":             boolean(&c.Monitor),
		"MONITOR_PORT":        integer(&c.MonitorPort),
		"OPEN_BROWSER":        boolean(&c.OpenBrowser),
		"CURSOR_HOME":         boolean(&c.CursorHome),
		"SHOW_SENSORS":        boolean(&c.ShowSensors),
		"TRACE_EVENTS":        boolean(&c.TraceEvents),
		"TRACE_PINS":          boolean(&c.TracePins),
		"PIN_CHARGE":          integer(&c.Pins.Charge),
		"PIN_FAST_CHARGE":     integer(&c.Pins.FastCharge),
		"PIN_BATTERY_PRESENT": integer(&c.Pins.BatteryPresent),
		"PIN_THERMISTOR":      integer(&c.Pins.Thermistor),
		"PIN_VOLTAGE":         integer(&c.Pins.Voltage),
	}

	for key, value := range env {
		name, ok := strings.CutPrefix(key, EnvPrefix)
		if !ok {
			continue
		}

		set, ok := setters[name]
		if !ok {
			continue
		}

		if err := set(value); err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalid, key, value, err)
		}
	}

	return nil
}

func str(p *string) func(string) error {
	return func(s string) error {
		*p = s
		return nil
	}
}

func integer(p *int) func(string) error {
	return func(s string) error {
		v, err := strconv.Atoi(s)
		if err != nil {
			return err
		}

		*p = v

		return nil
	}
}

func unsigned(p *uint64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return err
		}

		*p = v

		return nil
	}
}

func boolean(p *bool) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}

		*p = v

		return nil
	}
}

func duration(p *time.Duration) func(string) error {
	return func(s string) error {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}

		*p = v

		return nil
	}
}

func level(p *hal.Level) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return err
		}

		*p = hal.Level(v)

		return nil
	}
}
