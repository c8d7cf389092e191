package ticketing

import (
	"encoding/json"
	"reflect"
	"testing"
)

func raw(t *testing.T, src string) RawConversation {
	t.Helper()
	var r RawConversation
	if err := json.Unmarshal([]byte(src), &r); err != nil {
		t.Fatalf("unmarshalling fixture: %v", err)
	}
	return r
}

func TestNormalize_MessagesNeverNil(t *testing.T) {
	fixtures := []string{
		`{"id": "c1"}`,
		`{"id": "c1", "participant_messages": null}`,
		`{"id": "c1", "participant_messages": "garbage"}`,
		`{"id": "c1", "participant_messages": 42}`,
	}

	for _, src := range fixtures {
		conv := Normalize(raw(t, src))
		if conv.Messages == nil {
			t.Errorf("fixture %s: Messages is nil", src)
		}
		if len(conv.Messages) != 0 {
			t.Errorf("fixture %s: expected empty messages, got %d", src, len(conv.Messages))
		}
	}
}

func TestNormalize_WrappedMessageList(t *testing.T) {
	src := `{"id": "c1", "participant_messages": {"messages": [
		{"author_role": "customer", "body": "help"},
		{"author_role": "bot", "body": "sure"}
	]}}`

	conv := Normalize(raw(t, src))
	if len(conv.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(conv.Messages))
	}
	if conv.Messages[1].AuthorRole != RoleAutomatedAgent {
		t.Errorf("expected bot coerced to automated_agent, got %q", conv.Messages[1].AuthorRole)
	}
}

func TestNormalize_ItemsWrapperVariant(t *testing.T) {
	src := `{"id": "c1", "participant_messages": {"items": [
		{"author_role": "agent", "author_email": "X@Vendor.CO", "body": "on it"}
	]}}`

	conv := Normalize(raw(t, src))
	if len(conv.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(conv.Messages))
	}
	if conv.Messages[0].AuthorRole != RoleHumanAgent {
		t.Errorf("expected agent coerced to human_agent, got %q", conv.Messages[0].AuthorRole)
	}
	if conv.Messages[0].AuthorEmail != "x@vendor.co" {
		t.Errorf("expected lowered email, got %q", conv.Messages[0].AuthorEmail)
	}
}

func TestNormalize_NumericID(t *testing.T) {
	conv := Normalize(raw(t, `{"id": 12345}`))
	if conv.ID != "12345" {
		t.Errorf("expected numeric id coerced to string, got %q", conv.ID)
	}
}

func TestNormalize_StateDefaultsToOpen(t *testing.T) {
	for _, state := range []string{"", "OPEN", "weird"} {
		conv := Normalize(RawConversation{State: state})
		if conv.State != StateOpen {
			t.Errorf("state %q: expected open, got %q", state, conv.State)
		}
	}
	conv := Normalize(RawConversation{State: "Closed"})
	if conv.State != StateClosed {
		t.Errorf("expected closed, got %q", conv.State)
	}
}

func TestNormalize_RatingVariants(t *testing.T) {
	if got := Normalize(raw(t, `{"rating": null}`)).Rating; got != nil {
		t.Errorf("null rating: got %+v", got)
	}
	if got := Normalize(raw(t, `{"rating": {"remark": "no score"}}`)).Rating; got != nil {
		t.Errorf("scoreless rating: got %+v", got)
	}

	got := Normalize(raw(t, `{"rating": {"score": 1, "remark": "still does not work"}}`)).Rating
	if got == nil || got.Score != 1 || got.Remark != "still does not work" {
		t.Errorf("unexpected rating %+v", got)
	}
}

func TestNormalize_ZeroScoreRatingKept(t *testing.T) {
	// Zero is the worst score on zero-based scales, not a missing one.
	got := Normalize(raw(t, `{"rating": {"score": 0, "remark": "terrible"}}`)).Rating
	if got == nil {
		t.Fatal("zero-score rating dropped")
	}
	if got.Score != 0 || got.Remark != "terrible" {
		t.Errorf("unexpected rating %+v", got)
	}

	if got := Normalize(raw(t, `{"rating": {"score": "five"}}`)).Rating; got != nil {
		t.Errorf("unparseable score: got %+v", got)
	}
	if got := Normalize(raw(t, `{"rating": {"score": -2}}`)).Rating; got != nil {
		t.Errorf("negative score: got %+v", got)
	}
}

func TestNormalize_EpochTimestamp(t *testing.T) {
	conv := Normalize(raw(t, `{"created_at": 1767312000}`))
	if conv.CreatedAt == nil {
		t.Fatal("expected epoch created_at parsed")
	}
	if conv.CreatedAt.Year() != 2026 {
		t.Errorf("unexpected year %d", conv.CreatedAt.Year())
	}
}

func TestNormalize_RawTextFallsBackToBodies(t *testing.T) {
	src := `{"id": "c1", "participant_messages": [
		{"author_role": "customer", "body": "invoice is wrong"},
		{"author_role": "bot", "body": "let me check"}
	]}`

	conv := Normalize(raw(t, src))
	if conv.RawText != "invoice is wrong\nlet me check" {
		t.Errorf("unexpected raw text %q", conv.RawText)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	src := `{"id": "c1", "state": "closed", "reopen_count": 2,
		"structured_category": {"category": "billing", "priority": 2},
		"participant_messages": [{"author_role": "customer", "body": "hi"}]}`

	a := Normalize(raw(t, src))
	b := Normalize(raw(t, src))
	if !reflect.DeepEqual(a, b) {
		t.Error("normalization is not deterministic for identical input")
	}
	if a.Category["category"] != "billing" || a.Category["priority"] != "2" {
		t.Errorf("unexpected category %v", a.Category)
	}
}

func TestNormalize_NegativeReopenCountDefaultsToZero(t *testing.T) {
	conv := Normalize(raw(t, `{"reopen_count": -3}`))
	if conv.ReopenCount != 0 {
		t.Errorf("expected 0, got %d", conv.ReopenCount)
	}
}
