package conversation

// State names a phase of the coaching conversation.
type State string

const (
	StateIdle            State = "idle"
	StateOnboarding      State = "onboarding_personal"
	StateDataCollection  State = "data_collection"
	StateBehaviorReview  State = "behavior_analysis"
	StateBudgetPlanning  State = "budget_planning"
	StateGoalsSetting    State = "goals_setting"
	StateLoans           State = "loan_consolidation"
	StateMonitoring      State = "active_monitoring"
	StateClassification  State = "transaction_classification"
	StatePaused          State = "paused"
)

// legacyStates maps state names from earlier releases onto current ones.
// Rows written before the rename are normalized on load.
var legacyStates = map[State]State{
	"onboarding":     StateOnboarding,
	"monitoring":     StateMonitoring,
	"classification": StateClassification,
	"goals":          StateGoalsSetting,
}

// Normalize resolves legacy aliases and unknown values to a valid state.
func Normalize(s State) State {
	if current, ok := legacyStates[s]; ok {
		return current
	}
	if _, ok := transitions[s]; ok || s == StatePaused {
		return s
	}
	return StateIdle
}

// transitions is the explicit from->to table. A transition absent from the
// table is rejected.
var transitions = map[State][]State{
	StateIdle:           {StateOnboarding, StateDataCollection, StatePaused},
	StateOnboarding:     {StateDataCollection, StatePaused},
	StateDataCollection: {StateBehaviorReview, StateClassification, StatePaused},
	StateBehaviorReview: {StateBudgetPlanning, StatePaused},
	StateBudgetPlanning: {StateGoalsSetting, StatePaused},
	StateGoalsSetting:   {StateLoans, StateMonitoring, StatePaused},
	StateLoans:          {StateMonitoring, StatePaused},
	StateMonitoring:     {StateClassification, StateGoalsSetting, StateBudgetPlanning, StateLoans, StatePaused},
	StateClassification: {StateMonitoring, StateDataCollection, StatePaused},
	StatePaused:         {StateIdle, StateMonitoring},
}

// CanTransition reports whether from -> to is allowed by the table.
// Staying in place is always allowed.
func CanTransition(from, to State) bool {
	from = Normalize(from)
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
