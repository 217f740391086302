package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/chargersim/config"
	"github.com/sarchlab/chargersim/hal"
	"github.com/sarchlab/chargersim/plant"
)

var _ = Describe("Config", func() {
	It("should have valid defaults", func() {
		c := config.Default()

		Expect(c.Validate()).To(Succeed())
		Expect(c.Threshold).To(Equal(591))
		Expect(c.GraceIterations).To(Equal(uint64(4)))
		Expect(c.StartVoltage).To(Equal(500))
		Expect(c.StartTemperature).To(Equal(620))
		Expect(c.Pins).To(Equal(hal.DefaultPinMap()))
	})

	It("should list presets", func() {
		Expect(config.PresetNames()).To(Equal([]string{"latched", "linear", "overcharge"}))

		for _, name := range config.PresetNames() {
			Expect(config.PresetDescription(name)).NotTo(BeEmpty())

			c, err := config.Preset(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Validate()).To(Succeed())
		}
	})

	It("should latch the discrete pins high", func() {
		c, err := config.Preset("latched")

		Expect(err).NotTo(HaveOccurred())
		Expect(c.LatchedDigital).To(BeTrue())
		Expect(c.DigitalDefault).To(Equal(hal.High))
	})

	It("should select the linear plant", func() {
		c, err := config.Preset("linear")

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Plant).To(Equal(plant.VariantLinear))
	})

	It("should reject unknown presets", func() {
		_, err := config.Preset("lead-acid")

		Expect(err).To(MatchError(config.ErrUnknownPreset))
	})

	DescribeTable("invalid settings",
		func(modify func(c *config.Config), sentinel error) {
			c := config.Default()
			modify(&c)

			Expect(c.Validate()).To(MatchError(sentinel))
		},
		Entry("pin out of range",
			func(c *config.Config) { c.Pins.Charge = 10 }, hal.ErrInvalidPinMap),
		Entry("unknown plant",
			func(c *config.Config) { c.Plant = "nimh" }, plant.ErrUnknownVariant),
		Entry("digital default",
			func(c *config.Config) { c.DigitalDefault = 2 }, config.ErrInvalid),
		Entry("negative pace",
			func(c *config.Config) { c.Pace = -time.Second }, config.ErrInvalid),
		Entry("unknown clock",
			func(c *config.Config) { c.Clock = "atomic" }, config.ErrInvalid),
		Entry("serial without baud", func(c *config.Config) {
			c.SerialPort = "/dev/ttyUSB0"
			c.SerialBaud = 0
		}, config.ErrInvalid),
		Entry("monitor port",
			func(c *config.Config) { c.MonitorPort = 70000 }, config.ErrInvalid),
		Entry("browser without monitor",
			func(c *config.Config) { c.OpenBrowser = true }, config.ErrInvalid),
		Entry("record path without recording",
			func(c *config.Config) { c.RecordPath = "run.sqlite3" }, config.ErrInvalid),
	)
})

var _ = Describe("Environment", func() {
	It("should apply variables", func() {
		c := config.Default()

		err := config.ApplyEnv(&c, map[string]string{
			"CHARGERSIM_THRESHOLD":       "600",
			"CHARGERSIM_MAX_ITERATIONS":  "120",
			"CHARGERSIM_PACE":            "250ms",
			"CHARGERSIM_LATCHED_DIGITAL": "true",
			"CHARGERSIM_DIGITAL_DEFAULT": "1",
			"CHARGERSIM_PIN_VOLTAGE":     "5",
			"CHARGERSIM_PLANT":           "linear",
			"CHARGERSIM_UNKNOWN":         "ignored",
			"HOME":                       "/root",
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Threshold).To(Equal(600))
		Expect(c.MaxIterations).To(Equal(uint64(120)))
		Expect(c.Pace).To(Equal(250 * time.Millisecond))
		Expect(c.LatchedDigital).To(BeTrue())
		Expect(c.DigitalDefault).To(Equal(hal.High))
		Expect(c.Pins.Voltage).To(Equal(5))
		Expect(c.Plant).To(Equal(plant.VariantLinear))
	})

	It("should reject malformed values", func() {
		c := config.Default()

		err := config.ApplyEnv(&c, map[string]string{"CHARGERSIM_GRACE": "-1"})

		Expect(err).To(MatchError(config.ErrInvalid))
	})

	It("should read .env files and let the process environment win", func() {
		dir := GinkgoT().TempDir()
		file := filepath.Join(dir, ".env")
		Expect(os.WriteFile(file, []byte(
			"CHARGERSIM_THRESHOLD=650\n"+
				"CHARGERSIM_GRACE=2\n"+
				"OTHER=1\n"), 0o644)).To(Succeed())
		GinkgoT().Setenv("CHARGERSIM_GRACE", "7")

		env, err := config.ReadEnv(file, filepath.Join(dir, "missing.env"))

		Expect(err).NotTo(HaveOccurred())
		Expect(env).To(HaveKeyWithValue("CHARGERSIM_THRESHOLD", "650"))
		Expect(env).To(HaveKeyWithValue("CHARGERSIM_GRACE", "7"))
		Expect(env).NotTo(HaveKey("OTHER"))
	})
})
