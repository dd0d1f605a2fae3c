package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "FLASHMONITOR_CONFIG"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	agentBinEnv       = "AGENT_BIN"
	agentSessionEnv   = "AGENT_SESSION"
)

// Config holds high-level settings required across the application.
type Config struct {
	Feed          FeedConfig         `yaml:"feed"`
	Paths         PathsConfig        `yaml:"paths"`
	Dedup         DedupConfig        `yaml:"dedup"`
	Filters       FiltersConfig      `yaml:"filters"`
	Analysis      AnalysisConfig     `yaml:"analysis"`
	Technicals    TechnicalsConfig   `yaml:"technicals"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// FeedConfig describes the watched feed page and the poll cadence.
type FeedConfig struct {
	URL           string `yaml:"url"`
	PollSeconds   int    `yaml:"pollSeconds"`
	LoadSeconds   int    `yaml:"loadSeconds"`
	SettleSeconds int    `yaml:"settleSeconds"`
}

// PollInterval returns the fixed inter-tick sleep.
func (f FeedConfig) PollInterval() time.Duration { return time.Duration(f.PollSeconds) * time.Second }

// LoadTimeout bounds page navigation.
func (f FeedConfig) LoadTimeout() time.Duration { return time.Duration(f.LoadSeconds) * time.Second }

// SettleDelay is how long to let the page render after navigation.
func (f FeedConfig) SettleDelay() time.Duration {
	return time.Duration(f.SettleSeconds) * time.Second
}

// PathsConfig locates the three durable records.
type PathsConfig struct {
	Dir string `yaml:"dir"`
}

// LockFile is the single-instance lock resource.
func (p PathsConfig) LockFile() string { return filepath.Join(p.Dir, ".lock") }

// DedupFile is the fingerprint table.
func (p PathsConfig) DedupFile() string { return filepath.Join(p.Dir, "dedup.json") }

// StateFile is the operational-state record.
func (p PathsConfig) StateFile() string { return filepath.Join(p.Dir, "state.json") }

// DedupConfig controls the retention horizon of the fingerprint table.
type DedupConfig struct {
	RetentionHours int `yaml:"retentionHours"`
}

// Retention returns the garbage-collection horizon.
func (d DedupConfig) Retention() time.Duration {
	return time.Duration(d.RetentionHours) * time.Hour
}

// FiltersConfig carries the classification pattern lists as data so they can
// be tuned without redeploying logic.
type FiltersConfig struct {
	AdPatterns          []string `yaml:"adPatterns"`
	PlaceholderPatterns []string `yaml:"placeholderPatterns"`
}

// AnalysisConfig wires the external agent and the retry/breaker policy.
type AnalysisConfig struct {
	AgentBin       string `yaml:"agentBin"`
	AgentSession   string `yaml:"agentSession"`
	AttemptSeconds []int  `yaml:"attemptSeconds"`
	BackoffMillis  int    `yaml:"backoffMillis"`
	FailThreshold  int    `yaml:"failThreshold"`
	CooldownMins   int    `yaml:"cooldownMinutes"`
}

// AttemptTimeouts returns the escalating per-attempt timeouts.
func (a AnalysisConfig) AttemptTimeouts() []time.Duration {
	out := make([]time.Duration, 0, len(a.AttemptSeconds))
	for _, s := range a.AttemptSeconds {
		out = append(out, time.Duration(s)*time.Second)
	}
	return out
}

// BackoffStep is the base inter-attempt backoff; the wait grows by one step
// per attempt index.
func (a AnalysisConfig) BackoffStep() time.Duration {
	return time.Duration(a.BackoffMillis) * time.Millisecond
}

// Cooldown is how long the breaker stays open once tripped.
func (a AnalysisConfig) Cooldown() time.Duration {
	return time.Duration(a.CooldownMins) * time.Minute
}

// TechnicalsConfig bounds the enrichment fan-out and page timing.
type TechnicalsConfig struct {
	MaxTickers    int `yaml:"maxTickers"`
	MaxSymbols    int `yaml:"maxSymbols"`
	LoadSeconds   int `yaml:"loadSeconds"`
	SettleSeconds int `yaml:"settleSeconds"`
}

// LoadTimeout bounds a technicals page navigation.
func (t TechnicalsConfig) LoadTimeout() time.Duration {
	return time.Duration(t.LoadSeconds) * time.Second
}

// SettleDelay is how long to let indicator tables render.
func (t TechnicalsConfig) SettleDelay() time.Duration {
	return time.Duration(t.SettleSeconds) * time.Second
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// LoggingConfig controls console output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
	if v := os.Getenv(agentBinEnv); v != "" {
		c.Analysis.AgentBin = v
	}
	if v := os.Getenv(agentSessionEnv); v != "" {
		c.Analysis.AgentSession = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Feed.URL != "" {
		base.Feed.URL = override.Feed.URL
	}
	if override.Feed.PollSeconds > 0 {
		base.Feed.PollSeconds = override.Feed.PollSeconds
	}
	if override.Feed.LoadSeconds > 0 {
		base.Feed.LoadSeconds = override.Feed.LoadSeconds
	}
	if override.Feed.SettleSeconds > 0 {
		base.Feed.SettleSeconds = override.Feed.SettleSeconds
	}

	if override.Paths.Dir != "" {
		base.Paths.Dir = override.Paths.Dir
	}

	if override.Dedup.RetentionHours > 0 {
		base.Dedup.RetentionHours = override.Dedup.RetentionHours
	}

	if len(override.Filters.AdPatterns) > 0 {
		base.Filters.AdPatterns = override.Filters.AdPatterns
	}
	if len(override.Filters.PlaceholderPatterns) > 0 {
		base.Filters.PlaceholderPatterns = override.Filters.PlaceholderPatterns
	}

	if override.Analysis.AgentBin != "" {
		base.Analysis.AgentBin = override.Analysis.AgentBin
	}
	if override.Analysis.AgentSession != "" {
		base.Analysis.AgentSession = override.Analysis.AgentSession
	}
	if len(override.Analysis.AttemptSeconds) > 0 {
		base.Analysis.AttemptSeconds = override.Analysis.AttemptSeconds
	}
	if override.Analysis.BackoffMillis > 0 {
		base.Analysis.BackoffMillis = override.Analysis.BackoffMillis
	}
	if override.Analysis.FailThreshold > 0 {
		base.Analysis.FailThreshold = override.Analysis.FailThreshold
	}
	if override.Analysis.CooldownMins > 0 {
		base.Analysis.CooldownMins = override.Analysis.CooldownMins
	}

	if override.Technicals.MaxTickers > 0 {
		base.Technicals.MaxTickers = override.Technicals.MaxTickers
	}
	if override.Technicals.MaxSymbols > 0 {
		base.Technicals.MaxSymbols = override.Technicals.MaxSymbols
	}
	if override.Technicals.LoadSeconds > 0 {
		base.Technicals.LoadSeconds = override.Technicals.LoadSeconds
	}
	if override.Technicals.SettleSeconds > 0 {
		base.Technicals.SettleSeconds = override.Technicals.SettleSeconds
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Feed: FeedConfig{
			URL:           "https://www.jin10.com/",
			PollSeconds:   60,
			LoadSeconds:   30,
			SettleSeconds: 5,
		},
		Paths: PathsConfig{Dir: "."},
		Dedup: DedupConfig{RetentionHours: 72},
		Filters: FiltersConfig{
			AdPatterns: []string{
				`\d+折.*VIP`,
				`VIP[·\s]*\d*折`,
				`VIP.*折`,
				`立省\d+`,
				`立即抢购`,
				`限时`,
				`优惠`,
				`折扣`,
				`新春福利`,
				`解锁.*利器`,
				`领取.*礼`,
				`猜金价`,
				`竞猜.*赢`,
				`资金监测器`,
			},
			PlaceholderPatterns: []string{
				`点击查看`,
				`点击看详情`,
				`查看更多`,
				`展开全文`,
			},
		},
		Analysis: AnalysisConfig{
			AgentBin:       "openclaw",
			AgentSession:   "jin10-ai-v4",
			AttemptSeconds: []int{90, 120},
			BackoffMillis:  900,
			FailThreshold:  5,
			CooldownMins:   5,
		},
		Technicals: TechnicalsConfig{
			MaxTickers:    3,
			MaxSymbols:    2,
			LoadSeconds:   60,
			SettleSeconds: 3,
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
