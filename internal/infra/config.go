package infra

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProductConfig binds one tradable product to its settlement estimator.
type ProductConfig struct {
	Name      string  `yaml:"name"`
	Estimator string  `yaml:"estimator"` // weather_sum | eisbach_call | etf | static
	Strike    float64 `yaml:"strike"`    // eisbach_call only
	Value     float64 `yaml:"value"`     // static only
}

// Config holds the full agent configuration. Secrets are overridden from
// environment variables after the file is parsed.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Trading struct {
		Mode                string  `yaml:"mode"` // TEST or REAL
		PositionLimit       int64   `yaml:"position_limit"`
		OrderVolume         int64   `yaml:"order_volume"`
		SpreadPct           float64 `yaml:"spread_pct"`
		SkewIntensity       float64 `yaml:"skew_intensity"`
		ThrottleIntervalSec int     `yaml:"throttle_interval_sec"`
		PollIntervalSec     int     `yaml:"poll_interval_sec"`
		ReconcileOnTrade    bool    `yaml:"reconcile_on_trade"`
	} `yaml:"trading"`

	Exchange struct {
		Test struct {
			RestURL string `yaml:"rest_url"`
			WSURL   string `yaml:"ws_url"`
		} `yaml:"test"`
		Real struct {
			RestURL string `yaml:"rest_url"`
			WSURL   string `yaml:"ws_url"`
		} `yaml:"real"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"exchange"`

	Estimate struct {
		RefreshMinuteMarks []int   `yaml:"refresh_minute_marks"`
		OpenMeteoURL       string  `yaml:"open_meteo_url"`
		Latitude           float64 `yaml:"latitude"`
		Longitude          float64 `yaml:"longitude"`
		GaugeLevelURL      string  `yaml:"gauge_level_url"`
		GaugeFlowURL       string  `yaml:"gauge_flow_url"`
		Fundamentals       struct {
			EisbachFlow    float64 `yaml:"eisbach_flow"`
			EisbachLevel   float64 `yaml:"eisbach_level"`
			MunichTemp     float64 `yaml:"munich_temp"`
			MunichHumidity float64 `yaml:"munich_humidity"`
			AirportMetric  float64 `yaml:"airport_metric"`
		} `yaml:"fundamentals"`
	} `yaml:"estimate"`

	Products []ProductConfig `yaml:"products"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the config file, applies environment
// overrides, fills defaults, and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// RestURL returns the exchange REST endpoint for the configured mode.
func (c *Config) RestURL() string {
	if strings.EqualFold(c.Trading.Mode, "REAL") {
		return c.Exchange.Real.RestURL
	}
	return c.Exchange.Test.RestURL
}

// WSURL returns the exchange event-feed endpoint for the configured mode.
func (c *Config) WSURL() string {
	if strings.EqualFold(c.Trading.Mode, "REAL") {
		return c.Exchange.Real.WSURL
	}
	return c.Exchange.Test.WSURL
}

func (c *Config) applyDefaults() {
	if c.Trading.ThrottleIntervalSec == 0 {
		c.Trading.ThrottleIntervalSec = 1
	}
	if c.Trading.PollIntervalSec == 0 {
		c.Trading.PollIntervalSec = 10
	}
	if len(c.Estimate.RefreshMinuteMarks) == 0 {
		c.Estimate.RefreshMinuteMarks = []int{0, 15, 30, 45}
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	mode := strings.ToUpper(c.Trading.Mode)
	if mode != "TEST" && mode != "REAL" {
		return fmt.Errorf("trading mode must be TEST or REAL, got %q", c.Trading.Mode)
	}

	if c.Trading.PositionLimit <= 0 {
		return fmt.Errorf("position_limit must be positive, got %d", c.Trading.PositionLimit)
	}
	if c.Trading.OrderVolume <= 0 {
		return fmt.Errorf("order_volume must be positive, got %d", c.Trading.OrderVolume)
	}
	if c.Trading.SpreadPct < 0 || c.Trading.SpreadPct > 100 {
		return fmt.Errorf("spread_pct must be within [0, 100], got %v", c.Trading.SpreadPct)
	}
	if c.Trading.SkewIntensity < 0 {
		return fmt.Errorf("skew_intensity must be non-negative, got %v", c.Trading.SkewIntensity)
	}
	if c.Trading.ThrottleIntervalSec <= 0 {
		return fmt.Errorf("throttle_interval_sec must be positive, got %d", c.Trading.ThrottleIntervalSec)
	}
	if c.Trading.PollIntervalSec <= 0 {
		return fmt.Errorf("poll_interval_sec must be positive, got %d", c.Trading.PollIntervalSec)
	}

	restURL := c.RestURL()
	if !strings.HasPrefix(restURL, "http://") && !strings.HasPrefix(restURL, "https://") {
		return fmt.Errorf("invalid exchange REST URL: %q", restURL)
	}
	wsURL := c.WSURL()
	if !strings.HasPrefix(wsURL, "ws://") && !strings.HasPrefix(wsURL, "wss://") {
		return fmt.Errorf("invalid exchange WS URL: %q", wsURL)
	}

	if len(c.Products) == 0 {
		return fmt.Errorf("at least one product is required")
	}
	for _, p := range c.Products {
		if p.Name == "" {
			return fmt.Errorf("product with empty name")
		}
		switch p.Estimator {
		case "weather_sum", "eisbach_call", "etf", "static":
		default:
			return fmt.Errorf("product %s: unknown estimator %q", p.Name, p.Estimator)
		}
	}

	for _, mark := range c.Estimate.RefreshMinuteMarks {
		if mark < 0 || mark > 59 {
			return fmt.Errorf("refresh minute mark out of range: %d", mark)
		}
	}

	return nil
}

// overrideWithEnv applies environment variables over file values.
// Environment always wins for credentials, so the config file never needs
// to carry them.
func overrideWithEnv(cfg *Config) {
	if cfg.Exchange.Password != "" {
		fmt.Println("WARNING: exchange password found in config file.")
		fmt.Println("  Recommendation: use IMCITY_USERNAME / IMCITY_PASSWORD environment variables instead.")
	}

	if v := os.Getenv("IMCITY_USERNAME"); v != "" {
		cfg.Exchange.Username = v
	}
	if v := os.Getenv("IMCITY_PASSWORD"); v != "" {
		cfg.Exchange.Password = v
	}
	if v := os.Getenv("IMCITY_TEST_EXCHANGE"); v != "" {
		cfg.Exchange.Test.RestURL = v
	}
	if v := os.Getenv("IMCITY_REAL_EXCHANGE"); v != "" {
		cfg.Exchange.Real.RestURL = v
	}
}
