package conversation

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

// fakeCompleter replies with a canned answer, recording whether it was asked.
type fakeCompleter struct {
	reply  string
	err    error
	called bool
}

func (f *fakeCompleter) Fast(ctx context.Context, system, prompt string) (string, error) {
	f.called = true
	return f.reply, f.err
}

func (f *fakeCompleter) Deep(ctx context.Context, system, prompt string) (string, error) {
	return f.Fast(ctx, system, prompt)
}

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestMatchRules(t *testing.T) {
	cases := []struct {
		text string
		want Intent
	}{
		{"continue", IntentContinue},
		{"  Resume ", IntentContinue},
		{"yes", IntentApprove},
		{"OK", IntentApprove},
		{"no", IntentReject},
		{"cancel", IntentReject},
		{"details", IntentDetails},
		{"not now, maybe tomorrow", IntentPostpone},
		{"hi there", IntentGreeting},
		{"what's my status?", IntentStatusQuery},
		{"I want to plan a budget", IntentBudgetRequest},
		{"new savings goal", IntentGoalRequest},
		{"help me with my loan", IntentLoanRequest},
		{"asdfgh", IntentUnknown},
	}
	for _, c := range cases {
		if got, _ := matchRules(c.text); got != c.want {
			t.Errorf("matchRules(%q) = %q, want %q", c.text, got, c.want)
		}
	}
}

func TestParseSkipsLLMWhenRulesAreConfident(t *testing.T) {
	fake := &fakeCompleter{reply: "loan_request"}
	p := NewIntentParser(fake, quietLog())

	if got := p.Parse(context.Background(), "continue"); got != IntentContinue {
		t.Errorf("Parse = %q, want %q", got, IntentContinue)
	}
	if fake.called {
		t.Error("a high-confidence rule match must not reach the model")
	}
}

func TestParseFallsBackToLLM(t *testing.T) {
	fake := &fakeCompleter{reply: "goal_request"}
	p := NewIntentParser(fake, quietLog())

	// "budget" matches only the loose 0.7 rule, so the model gets a say.
	if got := p.Parse(context.Background(), "can we talk about my budget goals"); got != IntentGoalRequest {
		t.Errorf("Parse = %q, want the model's %q", got, IntentGoalRequest)
	}
	if !fake.called {
		t.Error("a low-confidence match should consult the model")
	}
}

func TestParseKeepsRuleResultOnLLMFailure(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("rate limited")}
	p := NewIntentParser(fake, quietLog())

	if got := p.Parse(context.Background(), "my budget"); got != IntentBudgetRequest {
		t.Errorf("Parse = %q, want the rule-tier %q", got, IntentBudgetRequest)
	}
}

func TestParseRejectsUnknownModelReply(t *testing.T) {
	fake := &fakeCompleter{reply: "banana"}
	p := NewIntentParser(fake, quietLog())

	if got := p.Parse(context.Background(), "my budget"); got != IntentBudgetRequest {
		t.Errorf("Parse = %q, want the rule-tier %q when the model babbles", got, IntentBudgetRequest)
	}
}

func TestParseWithoutCompleter(t *testing.T) {
	p := NewIntentParser(nil, quietLog())
	if got := p.Parse(context.Background(), "complete gibberish"); got != IntentUnknown {
		t.Errorf("Parse = %q, want %q", got, IntentUnknown)
	}
}
