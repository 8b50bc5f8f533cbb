package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/liorazar/cashcoach/internal/allocation"
	"github.com/liorazar/cashcoach/internal/integrations/whatsapp"
	"github.com/liorazar/cashcoach/internal/models"
	"github.com/liorazar/cashcoach/internal/repository"
	"github.com/sirupsen/logrus"
)

// staleAfter is how long a conversation can sit before the next message is
// greeted with a welcome-back branch instead of resuming mid-flow.
const staleAfter = 24 * time.Hour

// maxPostponements is how many consecutive postponements are tolerated
// before the flow stops nagging and schedules a reminder instead.
const maxPostponements = 3

// TransactionClassifier assigns categories to transactions and learns from
// user corrections.
type TransactionClassifier interface {
	Classify(ctx context.Context, txn *models.Transaction) (string, error)
	Correct(ctx context.Context, txn *models.Transaction, newCategory string) error
}

// ProposalHandler consumes confirmation replies for a pending auto-adjust
// proposal. Implemented by the income monitor.
type ProposalHandler interface {
	HandleConfirmation(ctx context.Context, user *models.User, convo *models.ConversationContext, intent string) (handled bool, reply string, err error)
}

// Router drives one conversation turn: load context, classify intent,
// dispatch the state handler, save context.
type Router struct {
	repo       *repository.Repository
	engine     *allocation.Engine
	parser     *IntentParser
	sender     whatsapp.Sender
	classifier TransactionClassifier
	proposals  ProposalHandler
	locks      *userLock
	log        *logrus.Logger
}

// NewRouter initializes a conversation router
func NewRouter(repo *repository.Repository, engine *allocation.Engine, parser *IntentParser, sender whatsapp.Sender, classifier TransactionClassifier, proposals ProposalHandler, log *logrus.Logger) *Router {
	return &Router{
		repo:       repo,
		engine:     engine,
		parser:     parser,
		sender:     sender,
		classifier: classifier,
		proposals:  proposals,
		locks:      newUserLock(),
		log:        log,
	}
}

type stateHandler func(ctx context.Context, user *models.User, convo *models.ConversationContext, in whatsapp.Inbound, intent Intent) (string, error)

func (r *Router) handlers() map[State]stateHandler {
	return map[State]stateHandler{
		StateIdle:           r.handleIdle,
		StateOnboarding:     r.handleOnboarding,
		StateDataCollection: r.handleDataCollection,
		StateBehaviorReview: r.handleBehaviorReview,
		StateBudgetPlanning: r.handleBudgetPlanning,
		StateGoalsSetting:   r.handleGoalsSetting,
		StateLoans:          r.handleLoans,
		StateMonitoring:     r.handleMonitoring,
		StateClassification: r.handleClassification,
		StatePaused:         r.handlePaused,
	}
}

// HandleInbound processes one inbound message end to end. Turns for the same
// phone are serialized; turns for different users run independently.
func (r *Router) HandleInbound(ctx context.Context, in whatsapp.Inbound) error {
	unlock := r.locks.acquire(in.Phone)
	defer unlock()

	user, err := r.repo.FindUserByPhone(in.Phone)
	if err != nil {
		return r.startNewUser(ctx, in)
	}

	convo, err := r.repo.GetContext(user.ID)
	if err != nil {
		return err
	}
	convo.State = string(Normalize(State(convo.State)))
	now := time.Now()

	intent := r.parser.Parse(ctx, in.Text)
	r.log.Debugf("Inbound from %s: state=%s intent=%s", in.Phone, convo.State, intent)

	// A pending reallocation proposal takes precedence over normal routing.
	if convo.Payload.Kind == models.PayloadAdjustProposal && r.proposals != nil {
		handled, reply, err := r.proposals.HandleConfirmation(ctx, user, convo, string(intent))
		if err != nil {
			return err
		}
		if handled {
			return r.finishTurn(ctx, user, convo, now, reply)
		}
	}

	// Welcome-back branch for stale conversations.
	state := State(convo.State)
	if now.Sub(convo.LastInteraction) > staleAfter &&
		state != StateIdle && state != StatePaused &&
		intent != IntentContinue && intent != IntentPostpone {
		convo.LastInteraction = now
		if err := r.repo.SaveContext(convo); err != nil {
			return err
		}
		return r.sender.SendButtons(ctx, user.Phone,
			"Welcome back! We were in the middle of something. Pick up where we left off?",
			[]whatsapp.Button{{ID: "continue", Title: "Continue"}, {ID: "later", Title: "Later"}})
	}

	switch intent {
	case IntentPostpone:
		return r.handlePostpone(ctx, user, convo, now)
	case IntentContinue:
		convo.PostponeCount = 0
	case IntentStatusQuery:
		reply, err := r.statusSummary(user)
		if err != nil {
			return err
		}
		return r.finishTurn(ctx, user, convo, now, reply)
	case IntentBudgetRequest:
		convo.State = string(StateBudgetPlanning)
	case IntentGoalRequest:
		convo.State = string(StateGoalsSetting)
	case IntentLoanRequest:
		convo.State = string(StateLoans)
	}

	handler, ok := r.handlers()[State(convo.State)]
	if !ok {
		handler = r.handleIdle
	}
	reply, err := handler(ctx, user, convo, in, intent)
	if err != nil {
		r.log.Errorf("Handler failed for %s in state %s: %v", in.Phone, convo.State, err)
		reply = "Something went wrong on my side. Let's try that again."
	}
	return r.finishTurn(ctx, user, convo, now, reply)
}

// finishTurn persists the context and sends the reply, if any.
func (r *Router) finishTurn(ctx context.Context, user *models.User, convo *models.ConversationContext, now time.Time, reply string) error {
	convo.LastInteraction = now
	if err := r.repo.SaveContext(convo); err != nil {
		return err
	}
	if reply == "" {
		return nil
	}
	return r.sender.SendText(ctx, user.Phone, reply)
}

// startNewUser registers a first-time phone number and opens onboarding.
func (r *Router) startNewUser(ctx context.Context, in whatsapp.Inbound) error {
	user := &models.User{Phone: in.Phone}
	if err := r.repo.CreateUser(user); err != nil {
		return err
	}
	convo, err := r.repo.GetContext(user.ID)
	if err != nil {
		return err
	}
	convo.State = string(StateOnboarding)
	convo.Payload = models.ContextPayload{
		Kind:       models.PayloadOnboarding,
		Onboarding: &models.OnboardingContext{Step: "name"},
	}
	if err := r.repo.SaveContext(convo); err != nil {
		return err
	}
	r.log.Infof("New user registered: %s", in.Phone)
	return r.sender.SendText(ctx, in.Phone,
		"Hi, I'm your personal finance coach. Let's get to know each other. What's your name?")
}

// handlePostpone counts consecutive postponements and converts the fourth
// into a scheduled reminder instead of pressing on.
func (r *Router) handlePostpone(ctx context.Context, user *models.User, convo *models.ConversationContext, now time.Time) error {
	convo.PostponeCount++
	if convo.PostponeCount < maxPostponements {
		return r.finishTurn(ctx, user, convo, now, "No problem, we'll pick this up later. Write \"continue\" whenever you're ready.")
	}

	convo.PostponeCount = 0
	reminder := &models.Reminder{
		UserID:  user.ID,
		Kind:    "continue_flow",
		Message: "Ready to continue where we left off? Write \"continue\".",
		DueAt:   now.Add(24 * time.Hour),
	}
	if err := r.repo.CreateReminder(reminder); err != nil {
		r.log.Errorf("Failed to schedule reminder for %s: %v", user.ID, err)
	}
	return r.finishTurn(ctx, user, convo, now, "I'll stop nagging and check in with you tomorrow instead.")
}

// statusSummary builds a short cross-state progress answer.
func (r *Router) statusSummary(user *models.User) (string, error) {
	goals, err := r.repo.ListActiveGoals(user.ID)
	if err != nil {
		return "", err
	}
	if len(goals) == 0 {
		return "You have no active goals yet. Write \"goal\" to set one up.", nil
	}

	msg := fmt.Sprintf("You have %d active goals:\n", len(goals))
	for i := range goals {
		g := &goals[i]
		pct := 0
		if g.TargetAmount.IsPositive() {
			pct = int(g.CurrentAmount.Div(g.TargetAmount).Mul(hundred).IntPart())
		}
		msg += fmt.Sprintf("- %s: %s of %s (%d%%), %s/month\n",
			g.Name, g.CurrentAmount.StringFixed(0), g.TargetAmount.StringFixed(0),
			pct, g.MonthlyAllocation.StringFixed(0))
	}
	return msg, nil
}
