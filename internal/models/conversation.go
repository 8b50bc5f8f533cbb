package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConversationContext is the per-user conversation state row.
// Loaded at the start of every turn and saved at the end.
type ConversationContext struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	State  string    `json:"state"`

	// Payload holds the typed per-phase context, discriminated by Kind.
	Payload ContextPayload `json:"payload"`

	PostponeCount   int       `json:"postpone_count"`
	LastInteraction time.Time `json:"last_interaction"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ContextPayload is a tagged union over the known per-phase context shapes.
// Exactly one of the pointer fields matching Kind is set.
type ContextPayload struct {
	Kind           string                 `json:"kind"` // none | onboarding | classification | adjust_proposal
	Onboarding     *OnboardingContext     `json:"onboarding,omitempty"`
	Classification *ClassificationSession `json:"classification,omitempty"`
	AdjustProposal *AdjustProposal        `json:"adjust_proposal,omitempty"`
}

const (
	PayloadNone           = "none"
	PayloadOnboarding     = "onboarding"
	PayloadClassification = "classification"
	PayloadAdjustProposal = "adjust_proposal"
)

// Validate checks that the payload variant matches its discriminator.
func (p *ContextPayload) Validate() error {
	switch p.Kind {
	case "", PayloadNone:
		return nil
	case PayloadOnboarding:
		if p.Onboarding == nil {
			return fmt.Errorf("payload kind %q without onboarding data", p.Kind)
		}
	case PayloadClassification:
		if p.Classification == nil {
			return fmt.Errorf("payload kind %q without classification data", p.Kind)
		}
	case PayloadAdjustProposal:
		if p.AdjustProposal == nil {
			return fmt.Errorf("payload kind %q without proposal data", p.Kind)
		}
	default:
		return fmt.Errorf("unknown payload kind %q", p.Kind)
	}
	return nil
}

// Marshal serializes the payload for the jsonb column.
func (p *ContextPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalPayload parses a jsonb column value into a payload.
func UnmarshalPayload(raw []byte) (ContextPayload, error) {
	var p ContextPayload
	if len(raw) == 0 {
		p.Kind = PayloadNone
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("failed to parse context payload: %w", err)
	}
	if p.Kind == "" {
		p.Kind = PayloadNone
	}
	return p, p.Validate()
}

// OnboardingContext tracks progress through the onboarding questionnaire
type OnboardingContext struct {
	Step           string `json:"step"` // name | income | fixed_expenses | household | done
	Name           string `json:"name,omitempty"`
	DeclaredIncome string `json:"declared_income,omitempty"`
	FixedExpenses  string `json:"fixed_expenses,omitempty"`
	HouseholdSize  int    `json:"household_size,omitempty"`
}

// ClassificationSession tracks an in-progress transaction review batch
type ClassificationSession struct {
	TransactionIDs []uuid.UUID `json:"transaction_ids"`
	Cursor         int         `json:"cursor"`
	Classified     int         `json:"classified"`
}

// AdjustProposal is a pending income-change reallocation awaiting confirmation
type AdjustProposal struct {
	OldIncome decimal.Decimal  `json:"old_income"`
	NewIncome decimal.Decimal  `json:"new_income"`
	ChangePct float64          `json:"change_pct"`
	Diffs     []AllocationDiff `json:"diffs"`
	CreatedAt time.Time        `json:"created_at"`
}

// AllocationDiff is one goal's current-vs-proposed allocation in a proposal
type AllocationDiff struct {
	GoalID   uuid.UUID       `json:"goal_id"`
	GoalName string          `json:"goal_name"`
	Current  decimal.Decimal `json:"current"`
	Proposed decimal.Decimal `json:"proposed"`
}
