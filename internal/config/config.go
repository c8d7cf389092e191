package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the single configuration value object constructed at pipeline
// start and threaded through every component. No component reads flags or
// environment on its own.
type Config struct {
	Segmentation Segmentation      `mapstructure:"segmentation"`
	Resolution   Resolution        `mapstructure:"resolution"`
	Topics       []TopicDefinition `mapstructure:"topics"`
	Comparison   Comparison        `mapstructure:"comparison"`
	Workers      Workers           `mapstructure:"workers"`
	Semantic     Semantic          `mapstructure:"semantic"`
	LogLevel     string            `mapstructure:"log_level"`
}

// Segmentation configures the handling-tier rules.
type Segmentation struct {
	// EscalationStaff is the allow-list of escalation staff. Entries match a
	// human-agent message by exact email or exact display name.
	EscalationStaff []string `mapstructure:"escalation_staff"`

	// Vendors maps a vendor tier name to its email domain. Matching is a
	// suffix match on the full domain, never substring containment.
	Vendors []Vendor `mapstructure:"vendors"`
}

// Vendor is one outsourced support team identified by email domain.
type Vendor struct {
	Name   string `mapstructure:"name"`
	Domain string `mapstructure:"domain"`
}

// Resolution configures the resolution-outcome thresholds. All values here
// are tunable without code changes.
type Resolution struct {
	// BadRatingMax is the highest score still considered a bad rating.
	BadRatingMax int `mapstructure:"bad_rating_max"`

	// ReopenMax is the highest reopen count before a conversation counts as
	// failed.
	ReopenMax int `mapstructure:"reopen_max"`

	// LowEngagementMax is the customer message count at or below which an
	// unrated conversation is treated as low engagement.
	LowEngagementMax int `mapstructure:"low_engagement_max"`

	// LongConversationMin is the message count above which a still-open
	// conversation counts as unusually long for knowledge-gap detection.
	LongConversationMin int `mapstructure:"long_conversation_min"`

	NegativePhrases    []string `mapstructure:"negative_phrases"`
	FrustrationPhrases []string `mapstructure:"frustration_phrases"`
}

// TopicDefinition is one configured topic with its structured-category keys
// and keyword list.
type TopicDefinition struct {
	Name         string   `mapstructure:"name"`
	CategoryKeys []string `mapstructure:"category_keys"`
	Keywords     []string `mapstructure:"keywords"`
}

// Comparison configures period-over-period significance.
type Comparison struct {
	// SignificantRelative is the relative volume change a delta must exceed.
	SignificantRelative float64 `mapstructure:"significant_relative"`

	// SignificantMinDelta is the absolute volume change floor; both must be
	// exceeded to flag a change, so low-volume noise is never flagged.
	SignificantMinDelta int `mapstructure:"significant_min_delta"`

	// EmergingFloor is the minimum current volume for a topic absent from the
	// prior snapshot to count as emerging (and the prior-volume ceiling for
	// declining).
	EmergingFloor int `mapstructure:"emerging_floor"`
}

// Workers configures concurrency bounds and timeouts.
type Workers struct {
	// MaxConcurrent bounds concurrent per-topic collaborator calls.
	MaxConcurrent int `mapstructure:"max_concurrent"`

	// CollaboratorTimeout applies to each external collaborator call.
	CollaboratorTimeout time.Duration `mapstructure:"collaborator_timeout"`

	// RunTimeout cancels all outstanding per-topic work for the whole run.
	RunTimeout time.Duration `mapstructure:"run_timeout"`

	// SnapshotRetryMax and SnapshotRetryInterval control the backoff retry of
	// the persistence-critical snapshot write.
	SnapshotRetryMax      int           `mapstructure:"snapshot_retry_max"`
	SnapshotRetryInterval time.Duration `mapstructure:"snapshot_retry_interval"`
}

// Semantic configures the semantic-discovery collaborator.
type Semantic struct {
	Enabled bool   `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`

	// SampleSize caps the number of unassigned conversations sampled into the
	// one batched discovery call per run.
	SampleSize int `mapstructure:"sample_size"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location) and
// returns a Config with all defaults applied. A missing config file is not an
// error; defaults apply.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("segmentation.escalation_staff", DefaultSegmentation.EscalationStaff)
	v.SetDefault("resolution.bad_rating_max", DefaultResolution.BadRatingMax)
	v.SetDefault("resolution.reopen_max", DefaultResolution.ReopenMax)
	v.SetDefault("resolution.low_engagement_max", DefaultResolution.LowEngagementMax)
	v.SetDefault("resolution.long_conversation_min", DefaultResolution.LongConversationMin)
	v.SetDefault("resolution.negative_phrases", DefaultResolution.NegativePhrases)
	v.SetDefault("resolution.frustration_phrases", DefaultResolution.FrustrationPhrases)
	v.SetDefault("comparison.significant_relative", DefaultComparison.SignificantRelative)
	v.SetDefault("comparison.significant_min_delta", DefaultComparison.SignificantMinDelta)
	v.SetDefault("comparison.emerging_floor", DefaultComparison.EmergingFloor)
	v.SetDefault("workers.max_concurrent", DefaultWorkers.MaxConcurrent)
	v.SetDefault("workers.collaborator_timeout", DefaultWorkers.CollaboratorTimeout)
	v.SetDefault("workers.run_timeout", DefaultWorkers.RunTimeout)
	v.SetDefault("workers.snapshot_retry_max", DefaultWorkers.SnapshotRetryMax)
	v.SetDefault("workers.snapshot_retry_interval", DefaultWorkers.SnapshotRetryInterval)
	v.SetDefault("semantic.enabled", DefaultSemantic.Enabled)
	v.SetDefault("semantic.model", DefaultSemantic.Model)
	v.SetDefault("semantic.sample_size", DefaultSemantic.SampleSize)
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Apply the starter topic catalog only when none is configured.
	if len(cfg.Topics) == 0 {
		cfg.Topics = DefaultTopics
	}

	// Vendor domains compare lowercased.
	for i := range cfg.Segmentation.Vendors {
		cfg.Segmentation.Vendors[i].Domain = strings.ToLower(cfg.Segmentation.Vendors[i].Domain)
	}

	return &cfg, nil
}

// DBPath returns the full path to the SQLite snapshot database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}
