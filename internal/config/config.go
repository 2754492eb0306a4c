package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"rebalance-bot/internal/strategy"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log      LoggingConfig  `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	REST     RESTConfig     `yaml:"rest"`
	WS       WSConfig       `yaml:"ws"`
	State    StateConfig    `yaml:"state"`
	History  HistoryConfig  `yaml:"history"`
	Telegram TelegramConfig `yaml:"telegram"`
	Strategy StrategyConfig `yaml:"strategy"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

type RESTConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type WSConfig struct {
	URL            string        `yaml:"url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	PingInterval   time.Duration `yaml:"ping_interval"`
}

type StateConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type HistoryConfig struct {
	Enabled   bool   `yaml:"enabled"`
	DSN       string `yaml:"dsn"`
	Schema    string `yaml:"schema"`
	QueueSize int    `yaml:"queue_size"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
}

type StrategyConfig struct {
	Pair       string `yaml:"pair"`
	BaseAsset  string `yaml:"base_asset"`
	QuoteAsset string `yaml:"quote_asset"`

	PriceCeiling float64 `yaml:"price_ceiling"`
	PriceFloor   float64 `yaml:"price_floor"`

	TargetBasePct         float64 `yaml:"target_base_pct"`
	TargetQuotePct        float64 `yaml:"target_quote_pct"`
	RebalanceTolerancePct float64 `yaml:"rebalance_tolerance_pct"`

	OrderRefreshPeriod  time.Duration `yaml:"order_refresh_period"`
	MaxOrderAge         time.Duration `yaml:"max_order_age"`
	FilledOrderCooldown time.Duration `yaml:"filled_order_cooldown"`

	PriceType         string `yaml:"price_type"`
	PriceDelegatePair string `yaml:"price_delegate_pair"`

	OrderLevels      int     `yaml:"order_levels"`
	OrderLevelAmount float64 `yaml:"order_level_amount"`

	HangingCancelTolerance    float64 `yaml:"hanging_cancel_tolerance"`
	WaitForCancelConfirmation *bool   `yaml:"wait_for_cancel_confirmation"`

	TickInterval         time.Duration `yaml:"tick_interval"`
	StatusReportInterval time.Duration `yaml:"status_report_interval"`
}

// WaitForCancel defaults to true: submissions are withheld until cancel
// requests are confirmed, so balances are not double-counted.
func (s StrategyConfig) WaitForCancel() bool {
	return s.WaitForCancelConfirmation == nil || *s.WaitForCancelConfirmation
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, validate(&cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = ":9091"
	}
	if cfg.REST.Timeout == 0 {
		cfg.REST.Timeout = 10 * time.Second
	}
	if cfg.WS.ReconnectDelay == 0 {
		cfg.WS.ReconnectDelay = 3 * time.Second
	}
	if cfg.WS.PingInterval == 0 {
		cfg.WS.PingInterval = 30 * time.Second
	}
	if cfg.State.SQLitePath == "" {
		cfg.State.SQLitePath = "data/rebalance-bot.db"
	}
	if cfg.History.Schema == "" {
		cfg.History.Schema = "public"
	}

	s := &cfg.Strategy
	if s.BaseAsset == "" || s.QuoteAsset == "" {
		if base, quote, ok := strings.Cut(s.Pair, "/"); ok {
			if s.BaseAsset == "" {
				s.BaseAsset = base
			}
			if s.QuoteAsset == "" {
				s.QuoteAsset = quote
			}
		}
	}
	if s.TargetBasePct != 0 && s.TargetQuotePct == 0 {
		s.TargetQuotePct = 100 - s.TargetBasePct
	}
	if s.TargetQuotePct != 0 && s.TargetBasePct == 0 {
		s.TargetBasePct = 100 - s.TargetQuotePct
	}
	if s.OrderRefreshPeriod == 0 {
		s.OrderRefreshPeriod = 30 * time.Second
	}
	if s.MaxOrderAge == 0 {
		s.MaxOrderAge = 30 * time.Second
	}
	if s.FilledOrderCooldown == 0 {
		s.FilledOrderCooldown = 60 * time.Second
	}
	if s.PriceType == "" {
		s.PriceType = string(strategy.PriceTypeMid)
	}
	if s.OrderLevels == 0 {
		s.OrderLevels = 1
	}
	if s.HangingCancelTolerance == 0 {
		s.HangingCancelTolerance = 0.1
	}
	if s.TickInterval == 0 {
		s.TickInterval = time.Second
	}
	if s.StatusReportInterval == 0 {
		s.StatusReportInterval = 15 * time.Minute
	}
}

func validate(cfg *Config) error {
	s := cfg.Strategy
	if s.Pair == "" {
		return errors.New("strategy.pair is required")
	}
	if s.BaseAsset == "" || s.QuoteAsset == "" {
		return errors.New("strategy.base_asset and strategy.quote_asset are required (or use a BASE/QUOTE pair)")
	}
	if s.TargetBasePct <= 0 || s.TargetBasePct >= 100 {
		return errors.New("strategy.target_base_pct must be in (0, 100)")
	}
	if math.Abs(s.TargetBasePct+s.TargetQuotePct-100) > 1e-9 {
		return errors.New("strategy.target_base_pct and strategy.target_quote_pct must sum to 100")
	}
	if s.RebalanceTolerancePct <= 0 {
		return errors.New("strategy.rebalance_tolerance_pct must be > 0")
	}
	if s.PriceCeiling < 0 || s.PriceFloor < 0 {
		return errors.New("strategy price bounds must be >= 0")
	}
	if s.PriceCeiling > 0 && s.PriceFloor > 0 && s.PriceFloor >= s.PriceCeiling {
		return errors.New("strategy.price_floor must be below strategy.price_ceiling")
	}
	if s.OrderLevels < 1 {
		return errors.New("strategy.order_levels must be >= 1")
	}
	if s.HangingCancelTolerance <= 0 {
		return errors.New("strategy.hanging_cancel_tolerance must be > 0")
	}
	if _, err := strategy.ParsePriceType(s.PriceType); err != nil {
		return fmt.Errorf("strategy.price_type: %w", err)
	}
	if cfg.REST.BaseURL == "" {
		return errors.New("rest.base_url is required")
	}
	if cfg.WS.URL == "" {
		return errors.New("ws.url is required")
	}
	if cfg.History.Enabled && cfg.History.DSN == "" {
		return errors.New("history.dsn is required when history is enabled")
	}
	return nil
}
