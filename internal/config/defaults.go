// Package config provides configuration loading and defaults for voclens.
package config

import "time"

// DefaultConfigDir is the default location for voclens configuration.
const DefaultConfigDir = "~/.config/voclens"

// DefaultDBName is the filename for the SQLite snapshot database.
const DefaultDBName = "voclens.db"

// DefaultSegmentation holds the default handling-tier rules. The allow-lists
// are intentionally empty: without configuration no conversation can match
// the escalation or vendor rules.
var DefaultSegmentation = Segmentation{
	EscalationStaff: nil,
	Vendors:         nil,
}

// DefaultResolution holds the default resolution-outcome thresholds.
var DefaultResolution = Resolution{
	BadRatingMax:        2,
	ReopenMax:           1,
	LowEngagementMax:    2,
	LongConversationMin: 10,
	NegativePhrases: []string{
		"still does not work",
		"still doesn't work",
		"still not working",
		"didn't help",
		"did not help",
		"not resolved",
		"no help",
	},
	FrustrationPhrases: []string{
		"frustrated",
		"frustrating",
		"ridiculous",
		"unacceptable",
		"waste of time",
		"cancel my",
		"speak to a human",
		"talk to a person",
	},
}

// DefaultComparison holds the default period-over-period significance
// thresholds.
var DefaultComparison = Comparison{
	SignificantRelative: 0.25,
	SignificantMinDelta: 5,
	EmergingFloor:       3,
}

// DefaultWorkers holds the default concurrency and timeout settings.
var DefaultWorkers = Workers{
	MaxConcurrent:         4,
	CollaboratorTimeout:   30 * time.Second,
	RunTimeout:            5 * time.Minute,
	SnapshotRetryMax:      3,
	SnapshotRetryInterval: 500 * time.Millisecond,
}

// DefaultSemantic holds the default semantic-discovery settings.
var DefaultSemantic = Semantic{
	Enabled:    true,
	Model:      "gpt-4o-mini",
	SampleSize: 25,
}

// DefaultTopics provides a starter topic catalog; real deployments configure
// their own.
var DefaultTopics = []TopicDefinition{
	{
		Name:         "billing",
		CategoryKeys: []string{"billing", "invoice"},
		Keywords:     []string{"invoice", "refund", "charge", "payment", "billing"},
	},
	{
		Name:         "login",
		CategoryKeys: []string{"auth", "login"},
		Keywords:     []string{"login", "log in", "password", "2fa", "sign in"},
	},
}
