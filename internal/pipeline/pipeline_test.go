package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-ops/voclens/internal/config"
	"github.com/meridian-ops/voclens/internal/logging"
	"github.com/meridian-ops/voclens/internal/report"
	"github.com/meridian-ops/voclens/internal/semantic"
	"github.com/meridian-ops/voclens/internal/store"
	"github.com/meridian-ops/voclens/internal/ticketing"
)

type fakeCollab struct {
	discovered   []semantic.DiscoveredTopic
	discoverErr  error
	sentimentErr error
}

func (f *fakeCollab) DiscoverTopics(ctx context.Context, sample []semantic.Excerpt, known []string) ([]semantic.DiscoveredTopic, error) {
	if f.discoverErr != nil {
		return nil, f.discoverErr
	}
	return f.discovered, nil
}

func (f *fakeCollab) TopicSentiment(ctx context.Context, topic string, excerpts []string) (string, error) {
	if f.sentimentErr != nil {
		return "", f.sentimentErr
	}
	return "customers report recurring friction with " + topic, nil
}

func testCfg() *config.Config {
	return &config.Config{
		Resolution: config.DefaultResolution,
		Topics:     config.DefaultTopics,
		Comparison: config.DefaultComparison,
		Workers: config.Workers{
			MaxConcurrent:         2,
			CollaboratorTimeout:   time.Second,
			RunTimeout:            time.Minute,
			SnapshotRetryMax:      1,
			SnapshotRetryInterval: time.Millisecond,
		},
		Semantic: config.Semantic{Enabled: true, SampleSize: 10},
	}
}

func testPeriod(day int) Period {
	start := time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC)
	return Period{Type: store.PeriodWeekly, Start: start, End: start.AddDate(0, 0, 7)}
}

func closedConv(id, raw string) ticketing.Conversation {
	return ticketing.Conversation{
		ID:    id,
		State: ticketing.StateClosed,
		Messages: []ticketing.Message{
			{AuthorRole: ticketing.RoleCustomer, Body: raw},
			{AuthorRole: ticketing.RoleAutomatedAgent, Body: "happy to help"},
		},
		RawText: raw,
	}
}

func testPipeline(t *testing.T, collab semantic.Collaborator) (*Pipeline, *store.DB) {
	t.Helper()
	db, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(testCfg(), db, collab, logging.New("error")), db
}

func TestRun_EmptyInputAborts(t *testing.T) {
	p, _ := testPipeline(t, nil)

	_, err := p.Run(context.Background(), nil, testPeriod(2))

	require.ErrorIs(t, err, ErrEmptyInput)
	assert.Equal(t, StateAborted, p.State())
}

func TestRun_AssemblesReport(t *testing.T) {
	p, _ := testPipeline(t, &fakeCollab{})

	convs := []ticketing.Conversation{
		closedConv("c1", "the invoice shows a double charge"),
		closedConv("c2", "refund for my last payment please"),
		closedConv("c3", "cannot log in after password reset"),
	}

	rep, err := p.Run(context.Background(), convs, testPeriod(2))
	require.NoError(t, err)
	assert.Equal(t, StateAssembled, p.State())

	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, 3, rep.TotalConversations)
	assert.True(t, rep.SnapshotPersisted)
	assert.Equal(t, "weekly-2026-03-02", rep.SnapshotID)

	require.Len(t, rep.Topics, 2)
	assert.Equal(t, "billing", rep.Topics[0].Topic, "topics ordered by volume")
	assert.Equal(t, 2, rep.Topics[0].Volume)
	assert.Equal(t, report.StatusFull, rep.Topics[0].Status)
	assert.Contains(t, rep.Topics[0].Sentiment, "billing")

	assert.Equal(t, 3, rep.Resolution.Counts.Resolved)
	assert.Equal(t, 1.0, rep.Resolution.DeflectionRate)
}

func TestRun_FirstRunHasNoBaseline(t *testing.T) {
	p, _ := testPipeline(t, nil)

	rep, err := p.Run(context.Background(), []ticketing.Conversation{closedConv("c1", "invoice")}, testPeriod(2))
	require.NoError(t, err)

	require.NotNil(t, rep.Comparison)
	assert.True(t, rep.Comparison.NoBaseline, "week one is a first-class no-baseline outcome")
}

func TestRun_SecondPeriodComparesAgainstFirst(t *testing.T) {
	p, _ := testPipeline(t, nil)
	ctx := context.Background()

	_, err := p.Run(ctx, []ticketing.Conversation{closedConv("c1", "invoice")}, testPeriod(2))
	require.NoError(t, err)

	rep, err := p.Run(ctx, []ticketing.Conversation{closedConv("c2", "invoice"), closedConv("c3", "invoice")}, testPeriod(9))
	require.NoError(t, err)

	require.NotNil(t, rep.Comparison)
	assert.False(t, rep.Comparison.NoBaseline)
	assert.Equal(t, "weekly-2026-03-02", rep.Comparison.PriorSnapshotID)
	require.NotEmpty(t, rep.Comparison.Deltas)
	assert.Equal(t, 1, rep.Comparison.Deltas[0].VolumeDelta)
}

func TestRun_DiscoveredTopicWithMatchesIsReported(t *testing.T) {
	collab := &fakeCollab{discovered: []semantic.DiscoveredTopic{
		{Name: "data export", Confidence: 0.8},
	}}
	p, _ := testPipeline(t, collab)

	convs := []ticketing.Conversation{
		closedConv("c1", "the data export job hangs forever"),
		closedConv("c2", "another data export complaint"),
	}

	rep, err := p.Run(context.Background(), convs, testPeriod(2))
	require.NoError(t, err)

	require.Len(t, rep.Topics, 1)
	assert.Equal(t, "data export", rep.Topics[0].Topic)
	assert.Equal(t, 2, rep.Topics[0].Volume)
}

func TestRun_ZeroVolumeDiscoveredTopicDropped(t *testing.T) {
	collab := &fakeCollab{discovered: []semantic.DiscoveredTopic{
		{Name: "warp drive", Confidence: 0.9},
	}}
	p, _ := testPipeline(t, collab)

	convs := []ticketing.Conversation{
		closedConv("c1", "invoice trouble"),
		closedConv("c2", "nothing that matches any catalog entry"),
	}

	rep, err := p.Run(context.Background(), convs, testPeriod(2))
	require.NoError(t, err)

	for _, sec := range rep.Topics {
		assert.NotEqual(t, "warp drive", sec.Topic, "zero-volume discovered topic must not be reported")
		assert.Greater(t, sec.Volume, 0)
	}
}

func TestRun_DiscoveryFailureProceedsRuleBased(t *testing.T) {
	collab := &fakeCollab{discoverErr: semantic.ErrUnavailable}
	p, _ := testPipeline(t, collab)

	rep, err := p.Run(context.Background(), []ticketing.Conversation{closedConv("c1", "invoice trouble")}, testPeriod(2))
	require.NoError(t, err)
	require.Len(t, rep.Topics, 1)
	assert.Equal(t, "billing", rep.Topics[0].Topic)
}

func TestRun_SentimentFailureDegradesSection(t *testing.T) {
	collab := &fakeCollab{sentimentErr: errors.New("boom")}
	p, _ := testPipeline(t, collab)

	rep, err := p.Run(context.Background(), []ticketing.Conversation{closedConv("c1", "invoice trouble")}, testPeriod(2))
	require.NoError(t, err)
	assert.Equal(t, StateAssembled, p.State(), "per-topic failure never aborts the run")

	require.Len(t, rep.Topics, 1)
	assert.Equal(t, report.StatusDegraded, rep.Topics[0].Status)
	assert.NotEmpty(t, rep.Topics[0].StatusReason)
	assert.Empty(t, rep.Topics[0].Sentiment)
	assert.Equal(t, 1, rep.DegradedSections)
}

func TestRun_NoStoreSkipsPersistence(t *testing.T) {
	p := New(testCfg(), nil, nil, logging.New("error"))

	rep, err := p.Run(context.Background(), []ticketing.Conversation{closedConv("c1", "invoice")}, testPeriod(2))
	require.NoError(t, err)

	assert.False(t, rep.SnapshotPersisted)
	assert.Nil(t, rep.Comparison)
}

func TestRun_InvalidPeriodContinuesWithoutSnapshot(t *testing.T) {
	p, db := testPipeline(t, nil)

	period := testPeriod(9)
	period.End = period.Start.AddDate(0, 0, -7)

	rep, err := p.Run(context.Background(), []ticketing.Conversation{closedConv("c1", "invoice")}, period)
	require.NoError(t, err, "constraint violation is fatal for the write only")
	assert.False(t, rep.SnapshotPersisted)

	saved, err := db.GetLatestForPeriod(store.PeriodWeekly, period.Start)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestRun_TopicLabelsConsistentAcrossViews(t *testing.T) {
	p, _ := testPipeline(t, nil)

	convs := []ticketing.Conversation{
		closedConv("c1", "invoice and password reset in one ticket"),
		closedConv("c2", "invoice only"),
	}

	rep1, err := p.Run(context.Background(), convs, testPeriod(2))
	require.NoError(t, err)
	rep2, err := p.Run(context.Background(), convs, testPeriod(2))
	require.NoError(t, err)

	require.Equal(t, len(rep1.Topics), len(rep2.Topics))
	for i := range rep1.Topics {
		assert.Equal(t, rep1.Topics[i].Topic, rep2.Topics[i].Topic)
		assert.Equal(t, rep1.Topics[i].Volume, rep2.Topics[i].Volume)
		assert.Equal(t, rep1.Topics[i].ExampleIDs, rep2.Topics[i].ExampleIDs)
	}
}
