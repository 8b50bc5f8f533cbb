package conversation

import (
	"context"
	"regexp"
	"strings"

	"github.com/liorazar/cashcoach/internal/integrations/llm"
	"github.com/sirupsen/logrus"
)

// Intent is the recognized purpose of an inbound message.
type Intent string

const (
	IntentGreeting      Intent = "greeting"
	IntentBudgetRequest Intent = "budget_request"
	IntentGoalRequest   Intent = "goal_request"
	IntentLoanRequest   Intent = "loan_request"
	IntentStatusQuery   Intent = "status_query"
	IntentContinue      Intent = "continue"
	IntentPostpone      Intent = "postpone"
	IntentApprove       Intent = "approve"
	IntentReject        Intent = "reject"
	IntentDetails       Intent = "details"
	IntentUnknown       Intent = "unknown"
)

// llmFallbackThreshold is the rule confidence below which the parser asks
// the model instead.
const llmFallbackThreshold = 0.8

// intentRule is one deterministic matcher with its confidence.
type intentRule struct {
	intent     Intent
	pattern    *regexp.Regexp
	confidence float64
}

// Exact-phrase rules score high; loose keyword rules score below the LLM
// fallback threshold on purpose, so ambiguous messages get a second opinion.
var intentRules = []intentRule{
	{IntentContinue, regexp.MustCompile(`(?i)^\s*(continue|resume)\s*$`), 0.95},
	{IntentApprove, regexp.MustCompile(`(?i)^\s*(yes|ok|approve|confirm)\s*$`), 0.95},
	{IntentReject, regexp.MustCompile(`(?i)^\s*(no|reject|cancel)\s*$`), 0.95},
	{IntentDetails, regexp.MustCompile(`(?i)^\s*(details|more info)\s*$`), 0.9},
	{IntentPostpone, regexp.MustCompile(`(?i)\b(later|not now|postpone|tomorrow)\b`), 0.85},
	{IntentGreeting, regexp.MustCompile(`(?i)^\s*(hi|hey|hello|shalom)\b`), 0.9},
	{IntentStatusQuery, regexp.MustCompile(`(?i)\b(status|where am i|progress|summary)\b`), 0.85},
	{IntentBudgetRequest, regexp.MustCompile(`(?i)\bbudget\b`), 0.7},
	{IntentGoalRequest, regexp.MustCompile(`(?i)\b(goal|target|saving)\b`), 0.7},
	{IntentLoanRequest, regexp.MustCompile(`(?i)\b(loan|debt|consolidat)\b`), 0.7},
}

var knownIntents = map[Intent]bool{
	IntentGreeting: true, IntentBudgetRequest: true, IntentGoalRequest: true,
	IntentLoanRequest: true, IntentStatusQuery: true, IntentContinue: true,
	IntentPostpone: true, IntentApprove: true, IntentReject: true,
	IntentDetails: true, IntentUnknown: true,
}

const intentSystemPrompt = `You classify a short user message from a personal
finance assistant conversation. Reply with exactly one word out of:
greeting, budget_request, goal_request, loan_request, status_query,
continue, postpone, approve, reject, details, unknown.`

// IntentParser runs the two-tier strategy: cheap deterministic rules first,
// an LLM call when the rules are not confident enough.
type IntentParser struct {
	llm llm.Completer
	log *logrus.Logger
}

// NewIntentParser initializes an intent parser. A nil completer disables the
// second tier.
func NewIntentParser(completer llm.Completer, log *logrus.Logger) *IntentParser {
	return &IntentParser{llm: completer, log: log}
}

// matchRules runs only the deterministic tier.
func matchRules(text string) (Intent, float64) {
	for _, rule := range intentRules {
		if rule.pattern.MatchString(text) {
			return rule.intent, rule.confidence
		}
	}
	return IntentUnknown, 0
}

// Parse classifies a message. On LLM failure the rule-tier result stands.
func (p *IntentParser) Parse(ctx context.Context, text string) Intent {
	intent, confidence := matchRules(text)
	if confidence >= llmFallbackThreshold || p.llm == nil {
		return intent
	}

	reply, err := p.llm.Fast(ctx, intentSystemPrompt, text)
	if err != nil {
		p.log.Errorf("Intent fallback failed, keeping rule result %s: %v", intent, err)
		return intent
	}

	candidate := Intent(strings.ToLower(strings.TrimSpace(reply)))
	if knownIntents[candidate] && candidate != IntentUnknown {
		return candidate
	}
	return intent
}
