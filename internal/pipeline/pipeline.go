// Package pipeline orchestrates the analysis run: a state machine from raw
// conversations to the assembled report, with bounded per-topic fan-out.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-ops/voclens/internal/classifier"
	"github.com/meridian-ops/voclens/internal/config"
	"github.com/meridian-ops/voclens/internal/report"
	"github.com/meridian-ops/voclens/internal/semantic"
	"github.com/meridian-ops/voclens/internal/store"
	"github.com/meridian-ops/voclens/internal/ticketing"
	"github.com/meridian-ops/voclens/internal/topics"
)

// ErrEmptyInput aborts the whole run: with no conversations there is nothing
// to classify.
var ErrEmptyInput = errors.New("empty input: no conversations to classify")

// State is the orchestrator's current stage.
type State string

const (
	StateNormalizing  State = "normalizing"
	StateSegmenting   State = "segmenting"
	StateDetecting    State = "detecting_topics"
	StateAggregating  State = "aggregating_and_classifying"
	StateSnapshotting State = "snapshotting"
	StateComparing    State = "comparing"
	StateAssembled    State = "assembled"
	StateAborted      State = "aborted"
)

// Period identifies the analysis period of one run.
type Period struct {
	Type  store.PeriodType
	Start time.Time
	End   time.Time
}

// Pipeline runs the full analysis. The store and collaborator are optional:
// a nil store skips snapshotting and comparison, a nil collaborator skips
// semantic discovery and sentiment.
type Pipeline struct {
	cfg    *config.Config
	db     *store.DB
	collab semantic.Collaborator
	log    *logrus.Entry

	segRules classifier.SegmentationRules
	resRules classifier.ResolutionRules

	state State
}

// New builds a pipeline from the configuration value object.
func New(cfg *config.Config, db *store.DB, collab semantic.Collaborator, log *logrus.Entry) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		db:       db,
		collab:   collab,
		log:      log,
		segRules: classifier.NewSegmentationRules(cfg.Segmentation),
		resRules: classifier.NewResolutionRules(cfg.Resolution),
	}
}

// State returns the stage the pipeline last entered.
func (p *Pipeline) State() State {
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.state = s
	p.log.WithField("state", string(s)).Debug("pipeline state")
}

// Run executes the full analysis over an already-normalized conversation set
// and assembles the report. Per-topic failures degrade their section; only
// empty input aborts the run.
func (p *Pipeline) Run(ctx context.Context, convs []ticketing.Conversation, period Period) (*report.Report, error) {
	started := time.Now()
	runID := uuid.NewString()
	log := p.log.WithField("run_id", runID)

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Workers.RunTimeout)
	defer cancel()

	p.setState(StateNormalizing)
	if len(convs) == 0 {
		p.setState(StateAborted)
		return nil, ErrEmptyInput
	}
	convByID := make(map[string]*ticketing.Conversation, len(convs))
	for i := range convs {
		convByID[convs[i].ID] = &convs[i]
	}

	// Segmentation and resolution are rule-based and never suspend; they run
	// once per conversation here and every per-topic view reuses the results.
	p.setState(StateSegmenting)
	results := make([]classifier.Result, len(convs))
	resultByID := make(map[string]classifier.Result, len(convs))
	for i := range convs {
		results[i] = classifier.Classify(&convs[i], p.segRules, p.resRules)
		resultByID[convs[i].ID] = results[i]
	}

	p.setState(StateDetecting)
	detector := topics.NewDetector(p.cfg.Topics)
	assignments := detector.Detect(convs)
	assignments = p.discover(ctx, log, convs, assignments)

	p.setState(StateAggregating)
	lookup := topics.NewLookup(assignments)
	dists := topics.Aggregate(assignments, len(convs))
	sections := p.fanOut(ctx, log, dists, lookup, resultByID, convByID)
	report.SortSections(sections)

	summary := report.Summarize(results, convs)

	rep := &report.Report{
		RunID:              runID,
		GeneratedAt:        started.UTC(),
		PeriodType:         period.Type,
		PeriodStart:        period.Start,
		PeriodEnd:          period.End,
		TotalConversations: len(convs),
		TierVolumes:        report.TierVolumes(results),
		Topics:             sections,
		Resolution:         summary,
	}
	for _, sec := range sections {
		if sec.Status != report.StatusFull {
			rep.DegradedSections++
		}
	}

	snap := buildSnapshot(period, len(convs), sections, summary)
	rep.SnapshotID = snap.SnapshotID

	p.setState(StateSnapshotting)
	if p.db != nil {
		_, err := p.db.SaveSnapshotWithRetry(snap,
			p.cfg.Workers.SnapshotRetryMax, p.cfg.Workers.SnapshotRetryInterval)
		switch {
		case err == nil:
			rep.SnapshotPersisted = true
		case errors.Is(err, store.ErrConstraintViolation):
			log.WithError(err).Warn("snapshot rejected, continuing without persistence")
		default:
			log.WithError(err).Error("snapshot write failed after retries")
		}
	}

	p.setState(StateComparing)
	if p.db != nil {
		prior, err := p.db.GetPriorSnapshot(period.Type, period.Start)
		if err != nil {
			log.WithError(err).Error("prior snapshot lookup failed")
		} else {
			cmp := store.Compare(snap, prior, p.cfg.Comparison)
			rep.Comparison = &cmp
		}
	}

	p.setState(StateAssembled)
	rep.Duration = time.Since(started)
	log.WithFields(logrus.Fields{
		"conversations": len(convs),
		"topics":        len(sections),
		"degraded":      rep.DegradedSections,
		"duration":      rep.Duration.Round(time.Millisecond).String(),
	}).Info("analysis assembled")

	return rep, nil
}

// discover runs the one batched semantic-discovery call per run and rescans
// the conversation set for each proposed topic. Discovered topics that match
// nothing gain no assignments and therefore never reach the output. Any
// collaborator failure leaves the rule-based assignments untouched.
func (p *Pipeline) discover(ctx context.Context, log *logrus.Entry, convs []ticketing.Conversation, assignments []topics.Assignment) []topics.Assignment {
	if p.collab == nil || !p.cfg.Semantic.Enabled {
		return assignments
	}

	pool := topics.Unassigned(convs, assignments)
	if len(pool) == 0 {
		return assignments
	}
	if len(pool) > p.cfg.Semantic.SampleSize {
		pool = pool[:p.cfg.Semantic.SampleSize]
	}

	sample := make([]semantic.Excerpt, len(pool))
	for i, c := range pool {
		sample[i] = semantic.Excerpt{ConversationID: c.ID, Text: c.RawText}
	}

	cctx, cancel := context.WithTimeout(ctx, p.cfg.Workers.CollaboratorTimeout)
	defer cancel()

	discovered, err := p.collab.DiscoverTopics(cctx, sample, topics.Names(assignments))
	if err != nil {
		log.WithError(err).Warn("semantic discovery unavailable, proceeding rule-based")
		return assignments
	}

	for _, d := range discovered {
		added := topics.Rescan(convs, d.Name, d.Confidence, assignments)
		if len(added) == 0 {
			log.WithField("topic", d.Name).Debug("discovered topic matched nothing, dropped")
			continue
		}
		assignments = append(assignments, added...)
	}
	return assignments
}

// exampleIDMax bounds the conversation examples carried per topic section.
const exampleIDMax = 3

// sentimentExcerptMax bounds the excerpts sent per sentiment call.
const sentimentExcerptMax = 5

// fanOut analyzes every topic concurrently, bounded by the configured worker
// limit. Section order is fixed afterwards by volume, never by completion.
func (p *Pipeline) fanOut(ctx context.Context, log *logrus.Entry, dists []topics.Distribution, lookup *topics.Lookup, resultByID map[string]classifier.Result, convByID map[string]*ticketing.Conversation) []report.TopicSection {
	sections := make([]report.TopicSection, len(dists))

	g := new(errgroup.Group)
	limit := p.cfg.Workers.MaxConcurrent
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i := range dists {
		i := i
		g.Go(func() error {
			sections[i] = p.topicSection(ctx, log, dists[i], lookup, resultByID, convByID)
			return nil
		})
	}
	_ = g.Wait()

	return sections
}

// topicSection assembles one topic's report section. A collaborator failure
// degrades the section; a run-timeout cancellation marks it insufficient
// rather than omitting it silently.
func (p *Pipeline) topicSection(ctx context.Context, log *logrus.Entry, d topics.Distribution, lookup *topics.Lookup, resultByID map[string]classifier.Result, convByID map[string]*ticketing.Conversation) report.TopicSection {
	sec := report.TopicSection{
		Topic:           d.Topic,
		Volume:          d.Volume,
		Percentage:      d.Percentage,
		MethodBreakdown: d.MethodBreakdown,
		Status:          report.StatusFull,
	}

	if ctx.Err() != nil {
		sec.Status = report.StatusInsufficientData
		sec.StatusReason = "run timeout before topic analysis started"
		return sec
	}

	ids := lookup.ConversationsFor(d.Topic)
	topicResults := make([]classifier.Result, 0, len(ids))
	for _, id := range ids {
		if r, ok := resultByID[id]; ok {
			topicResults = append(topicResults, r)
		}
	}
	sec.Resolution = report.CountOutcomes(topicResults)

	n := len(ids)
	if n > exampleIDMax {
		n = exampleIDMax
	}
	sec.ExampleIDs = ids[:n]

	if p.collab == nil || !p.cfg.Semantic.Enabled {
		return sec
	}

	cctx, cancel := context.WithTimeout(ctx, p.cfg.Workers.CollaboratorTimeout)
	defer cancel()

	sentiment, err := p.collab.TopicSentiment(cctx, d.Topic, topicExcerpts(ids, convByID))
	if err != nil {
		if ctx.Err() != nil {
			sec.Status = report.StatusInsufficientData
			sec.StatusReason = "run timeout during sentiment analysis"
		} else {
			sec.Status = report.StatusDegraded
			sec.StatusReason = "sentiment collaborator unavailable"
		}
		log.WithError(err).WithField("topic", d.Topic).Warn("topic section degraded")
		return sec
	}
	sec.Sentiment = sentiment
	return sec
}

func topicExcerpts(ids []string, convByID map[string]*ticketing.Conversation) []string {
	var out []string
	for _, id := range ids {
		if len(out) >= sentimentExcerptMax {
			break
		}
		conv := convByID[id]
		if conv == nil || conv.RawText == "" {
			continue
		}
		out = append(out, conv.RawText)
	}
	return out
}

// buildSnapshot summarizes the run into the persisted snapshot shape.
func buildSnapshot(period Period, total int, sections []report.TopicSection, summary report.ResolutionSummary) *store.Snapshot {
	volumes := make(map[string]int, len(sections))
	sentiments := make(map[string]string)
	for _, sec := range sections {
		volumes[sec.Topic] = sec.Volume
		if sec.Sentiment != "" {
			sentiments[sec.Topic] = sec.Sentiment
		}
	}

	return &store.Snapshot{
		SnapshotID:         store.SnapshotKey(period.Type, period.Start),
		PeriodType:         period.Type,
		PeriodStart:        period.Start,
		PeriodEnd:          period.End,
		TotalConversations: total,
		TopicVolumes:       volumes,
		TopicSentiments:    sentiments,
		ResolutionBreakdown: map[string]int{
			string(classifier.OutcomeResolved):      summary.Counts.Resolved,
			string(classifier.OutcomeEscalated):     summary.Counts.Escalated,
			string(classifier.OutcomeFailed):        summary.Counts.Failed,
			string(classifier.OutcomeNotApplicable): summary.Counts.NotApplicable,
		},
	}
}
