package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
)

// EnvPrefix prefixes every environment override, e.g. PARALLAX_MQTT_BROKER.
const EnvPrefix = "PARALLAX_"

// ErrMissingKey is wrapped when a required setting is empty.
var ErrMissingKey = errors.New("missing required config key")

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string `env:"MQTT_BROKER"`
	MQTTClientIDProducer string `env:"MQTT_CLIENT_ID_PRODUCER"`
	MQTTClientIDWeb      string `env:"MQTT_CLIENT_ID_WEB"`
	MQTTClientIDConsole  string `env:"MQTT_CLIENT_ID_CONSOLE"`
	MQTTClientIDDisplay  string `env:"MQTT_CLIENT_ID_DISPLAY"`

	// Topics
	TopicOffset        string `env:"TOPIC_OFFSET"`
	TopicOrientation   string `env:"TOPIC_ORIENTATION"`
	TopicOrientationIn string `env:"TOPIC_ORIENTATION_IN"`

	// Pipeline: "accelerometer" or "gyroscope". Unset range and strength
	// values fall back to the variant's preset.
	PipelineVariant string   `env:"PIPELINE_VARIANT"`
	RemapTable      string   `env:"REMAP_TABLE"`
	ZeroOnUnknown   bool     `env:"ZERO_ON_UNKNOWN"`
	MotionRangeMin  *float64 `env:"MOTION_RANGE_MIN"`
	MotionRangeMax  *float64 `env:"MOTION_RANGE_MAX"`
	MotionStrength  *float64 `env:"MOTION_STRENGTH"`
	SampleInterval  int      `env:"SAMPLE_INTERVAL"` // milliseconds, 0 = preset

	// Sources: MOTION_SOURCE is "mock" or "mpu9250"; ORIENTATION_SOURCE is
	// "gravity", "mqtt" or "mock".
	MotionSource      string `env:"MOTION_SOURCE"`
	OrientationSource string `env:"ORIENTATION_SOURCE"`

	// IMU Hardware
	IMUSPIDevice string `env:"IMU_SPI_DEVICE"`
	IMUCSPin     string `env:"IMU_CS_PIN"`

	// Enablement policy
	LowPower         bool   `env:"LOW_POWER"`
	ReduceMotion     bool   `env:"REDUCE_MOTION"`
	PowerProfilePath string `env:"POWER_PROFILE_PATH"`
	PreferencesPath  string `env:"PREFERENCES_PATH"`

	// Web Server
	WebServerPort int `env:"WEB_SERVER_PORT"`

	// Display
	DisplayI2CAddr        uint16 `env:"DISPLAY_I2C_ADDR"`
	DisplayUpdateInterval int    `env:"DISPLAY_UPDATE_INTERVAL"` // milliseconds

	LogLevel string `env:"LOG_LEVEL"`
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns the configuration used for keys the file leaves out.
func Defaults() Config {
	return Config{
		MQTTBroker:            "tcp://localhost:1883",
		TopicOffset:           "parallax/offset",
		TopicOrientation:      "parallax/orientation",
		TopicOrientationIn:    "parallax/orientation/set",
		PipelineVariant:       "gyroscope",
		MotionSource:          "mock",
		OrientationSource:     "mock",
		IMUSPIDevice:          "/dev/spidev0.0",
		IMUCSPin:              "8",
		PowerProfilePath:      "/sys/firmware/acpi/platform_profile",
		WebServerPort:         8080,
		DisplayI2CAddr:        0x3C,
		DisplayUpdateInterval: 33,
		LogLevel:              "info",
	}
}

// Load reads the configuration file, applies environment overrides and
// returns the validated Config.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.fillClientIDs()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from PARALLAX_-prefixed environment variables.
// Variables that are not set leave the field untouched.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

// fillClientIDs gives every MQTT client without a configured ID a unique one,
// so several instances can share a broker.
func (c *Config) fillClientIDs() {
	for _, id := range []*string{
		&c.MQTTClientIDProducer,
		&c.MQTTClientIDWeb,
		&c.MQTTClientIDConsole,
		&c.MQTTClientIDDisplay,
	} {
		if *id == "" {
			*id = "parallax-" + uuid.NewString()
		}
	}
}

func parseFloat(key, value string) (*float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return &f, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_OFFSET":
		c.TopicOffset = value
	case "TOPIC_ORIENTATION":
		c.TopicOrientation = value
	case "TOPIC_ORIENTATION_IN":
		c.TopicOrientationIn = value

	// Pipeline
	case "PIPELINE_VARIANT":
		if value != "accelerometer" && value != "gyroscope" {
			return fmt.Errorf("PIPELINE_VARIANT must be accelerometer or gyroscope, got %q", value)
		}
		c.PipelineVariant = value
	case "REMAP_TABLE":
		c.RemapTable = value
	case "ZERO_ON_UNKNOWN":
		c.ZeroOnUnknown, err = parseBool(key, value)
	case "MOTION_RANGE_MIN":
		c.MotionRangeMin, err = parseFloat(key, value)
	case "MOTION_RANGE_MAX":
		c.MotionRangeMax, err = parseFloat(key, value)
	case "MOTION_STRENGTH":
		c.MotionStrength, err = parseFloat(key, value)
	case "SAMPLE_INTERVAL":
		interval, perr := strconv.Atoi(value)
		if perr != nil {
			return fmt.Errorf("invalid SAMPLE_INTERVAL %q: %w", value, perr)
		}
		if interval < 0 {
			return fmt.Errorf("SAMPLE_INTERVAL must not be negative, got %d", interval)
		}
		c.SampleInterval = interval

	// Sources
	case "MOTION_SOURCE":
		c.MotionSource = value
	case "ORIENTATION_SOURCE":
		c.OrientationSource = value

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value

	// Enablement policy
	case "LOW_POWER":
		c.LowPower, err = parseBool(key, value)
	case "REDUCE_MOTION":
		c.ReduceMotion, err = parseBool(key, value)
	case "POWER_PROFILE_PATH":
		c.PowerProfilePath = value
	case "PREFERENCES_PATH":
		c.PreferencesPath = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, perr := strconv.Atoi(value)
		if perr != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, perr)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_I2C_ADDR":
		addr, perr := strconv.ParseUint(value, 0, 16)
		if perr != nil {
			return fmt.Errorf("invalid DISPLAY_I2C_ADDR %q: %w", value, perr)
		}
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		interval, perr := strconv.Atoi(value)
		if perr != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, perr)
		}
		c.DisplayUpdateInterval = interval

	case "LOG_LEVEL":
		c.LogLevel = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that all required fields are set and consistent.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("%w: MQTT_BROKER", ErrMissingKey)
	}
	if c.TopicOffset == "" {
		return fmt.Errorf("%w: TOPIC_OFFSET", ErrMissingKey)
	}
	switch c.MotionSource {
	case "mock", "mpu9250":
	default:
		return fmt.Errorf("MOTION_SOURCE must be mock or mpu9250, got %q", c.MotionSource)
	}
	switch c.OrientationSource {
	case "gravity", "mqtt", "mock":
	default:
		return fmt.Errorf("ORIENTATION_SOURCE must be gravity, mqtt or mock, got %q", c.OrientationSource)
	}
	if c.OrientationSource == "mqtt" && c.TopicOrientationIn == "" {
		return fmt.Errorf("%w: TOPIC_ORIENTATION_IN (required by ORIENTATION_SOURCE=mqtt)", ErrMissingKey)
	}
	if c.MotionRangeMin != nil && c.MotionRangeMax != nil && *c.MotionRangeMin > *c.MotionRangeMax {
		return fmt.Errorf("MOTION_RANGE_MIN %v exceeds MOTION_RANGE_MAX %v", *c.MotionRangeMin, *c.MotionRangeMax)
	}
	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive, got %d", c.DisplayUpdateInterval)
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Only the first
// call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance, or nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
