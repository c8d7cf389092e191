// Package semantic calls the external discovery/sentiment collaborator. The
// collaborator enriches the rule-based analysis but is never required for
// correctness: every error surfaces as unavailability and callers fall back
// to rule-based results.
package semantic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/sirupsen/logrus"
)

// ErrUnavailable indicates the collaborator could not produce a well-formed
// response; callers proceed rule-based only.
var ErrUnavailable = errors.New("semantic collaborator unavailable")

// Excerpt is one sampled conversation snippet sent for discovery.
type Excerpt struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

// DiscoveredTopic is one topic name proposed by the collaborator.
type DiscoveredTopic struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Collaborator is the external-interface boundary the pipeline depends on.
type Collaborator interface {
	DiscoverTopics(ctx context.Context, sample []Excerpt, knownTopics []string) ([]DiscoveredTopic, error)
	TopicSentiment(ctx context.Context, topic string, excerpts []string) (string, error)
}

// Client is the OpenAI-backed Collaborator.
type Client struct {
	api   *openai.Client
	model string
	log   *logrus.Entry
}

// NewClient builds a collaborator client. An empty API key returns nil; the
// pipeline treats a nil collaborator as disabled.
func NewClient(apiKey, model string, log *logrus.Entry) *Client {
	if apiKey == "" {
		return nil
	}
	api := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{api: &api, model: model, log: log}
}

const maxExcerptLen = 600

const discoveryInstructions = `You analyze customer-support conversations.
Given conversation excerpts that matched no configured topic, plus the topic
names already detected, propose up to five additional short topic names that
group the excerpts. Topic names are lowercase noun phrases of at most four
words that literally appear in or closely paraphrase the excerpts. Do not
repeat known topics. Return JSON only.`

const sentimentInstructions = `You summarize customer sentiment. Given
excerpts of support conversations about one topic, write one short neutral
sentence describing the overall customer sentiment on that topic. Return JSON
only.`

var discoverySchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"topics"},
	"properties": map[string]any{
		"topics": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"name", "confidence"},
				"properties": map[string]any{
					"name":       map[string]any{"type": "string"},
					"confidence": map[string]any{"type": "number"},
				},
			},
		},
	},
}

var sentimentSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"sentiment"},
	"properties": map[string]any{
		"sentiment": map[string]any{"type": "string"},
	},
}

type discoveryResponse struct {
	Topics []DiscoveredTopic `json:"topics"`
}

type sentimentResponse struct {
	Sentiment string `json:"sentiment"`
}

// DiscoverTopics sends one batched discovery request. Malformed responses
// are ErrUnavailable, never partial results.
func (c *Client) DiscoverTopics(ctx context.Context, sample []Excerpt, knownTopics []string) ([]DiscoveredTopic, error) {
	if len(sample) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString("Known topics: ")
	if len(knownTopics) == 0 {
		sb.WriteString("(none)")
	} else {
		sb.WriteString(strings.Join(knownTopics, ", "))
	}
	sb.WriteString("\n\nExcerpts:\n")
	for _, e := range sample {
		sb.WriteString(fmt.Sprintf("- [%s] %s\n", e.ConversationID, truncate(e.Text, maxExcerptLen)))
	}

	out, err := c.call(ctx, discoveryInstructions, sb.String(), "TopicDiscovery", discoverySchema)
	if err != nil {
		return nil, err
	}

	var parsed discoveryResponse
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		c.log.WithError(err).Warn("discovery response malformed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	known := make(map[string]bool, len(knownTopics))
	for _, t := range knownTopics {
		known[strings.ToLower(t)] = true
	}

	var topics []DiscoveredTopic
	for _, t := range parsed.Topics {
		name := strings.ToLower(strings.TrimSpace(t.Name))
		if name == "" || known[name] {
			continue
		}
		conf := t.Confidence
		if conf <= 0 || conf > 1 {
			conf = 0.6
		}
		topics = append(topics, DiscoveredTopic{Name: name, Confidence: conf})
	}
	return topics, nil
}

// TopicSentiment returns one short sentiment sentence for a topic.
func (c *Client) TopicSentiment(ctx context.Context, topic string, excerpts []string) (string, error) {
	var sb strings.Builder
	sb.WriteString("Topic: " + topic + "\n\nExcerpts:\n")
	for _, e := range excerpts {
		sb.WriteString("- " + truncate(e, maxExcerptLen) + "\n")
	}

	out, err := c.call(ctx, sentimentInstructions, sb.String(), "TopicSentiment", sentimentSchema)
	if err != nil {
		return "", err
	}

	var parsed sentimentResponse
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	sentiment := strings.TrimSpace(parsed.Sentiment)
	if sentiment == "" {
		return "", fmt.Errorf("%w: empty sentiment", ErrUnavailable)
	}
	return sentiment, nil
}

// call performs one structured-output request with exponential backoff.
// Context cancellation and client errors are permanent; transient failures
// retry until the context deadline.
func (c *Client) call(ctx context.Context, instructions, input, schemaName string, schema map[string]any) (string, error) {
	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(800),
		Instructions:    openai.String(instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(input, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:   schemaName,
					Schema: schema,
					Strict: openai.Bool(true),
					Type:   "json_schema",
				},
			},
		},
	}

	var output string
	op := func() error {
		resp, err := c.api.Responses.New(ctx, params)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if isClientError(err) {
				return backoff.Permanent(err)
			}
			c.log.WithError(err).Warn("collaborator request failed, retrying")
			return err
		}
		output = resp.OutputText()
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 20 * time.Second

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return output, nil
}

// isClientError reports whether the request itself is at fault and will not
// succeed on retry. Rate limiting (429) is transient and stays retryable.
func isClientError(err error) bool {
	var apierr *openai.Error
	if !errors.As(err, &apierr) {
		return false
	}
	return apierr.StatusCode >= 400 && apierr.StatusCode < 500 && apierr.StatusCode != 429
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
