package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/liorazar/cashcoach/internal/integrations/whatsapp"
	"github.com/liorazar/cashcoach/internal/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func (r *Router) handleIdle(ctx context.Context, user *models.User, convo *models.ConversationContext, in whatsapp.Inbound, intent Intent) (string, error) {
	if user.DeclaredMonthlyIncome.IsZero() {
		convo.State = string(StateOnboarding)
		convo.Payload = models.ContextPayload{
			Kind:       models.PayloadOnboarding,
			Onboarding: &models.OnboardingContext{Step: "name"},
		}
		return "Let's start with a few questions so I can build your picture. What's your name?", nil
	}
	convo.State = string(StateMonitoring)
	return "Good to see you. Write \"status\" for an overview, \"goal\" to manage goals, or \"budget\" to review your budget.", nil
}

// handleOnboarding walks the questionnaire one step per message.
func (r *Router) handleOnboarding(ctx context.Context, user *models.User, convo *models.ConversationContext, in whatsapp.Inbound, intent Intent) (string, error) {
	ob := convo.Payload.Onboarding
	if ob == nil {
		ob = &models.OnboardingContext{Step: "name"}
		convo.Payload = models.ContextPayload{Kind: models.PayloadOnboarding, Onboarding: ob}
	}

	text := strings.TrimSpace(in.Text)
	switch ob.Step {
	case "name":
		if text == "" {
			return "What's your name?", nil
		}
		ob.Name = text
		ob.Step = "income"
		return fmt.Sprintf("Nice to meet you, %s. What's your net monthly income?", text), nil

	case "income":
		amount, err := parseAmount(text)
		if err != nil {
			return "I need a number here, for example 12000. What's your net monthly income?", nil
		}
		ob.DeclaredIncome = amount.String()
		ob.Step = "fixed_expenses"
		return "Got it. Roughly how much goes to fixed expenses every month (rent, bills, insurance)?", nil

	case "fixed_expenses":
		amount, err := parseAmount(text)
		if err != nil {
			return "I need a number here, for example 6500. How much are your monthly fixed expenses?", nil
		}
		ob.FixedExpenses = amount.String()
		ob.Step = "household"
		return "Last one: how many people live in your household?", nil

	case "household":
		size, err := strconv.Atoi(text)
		if err != nil || size < 1 {
			return "Just a number, please. How many people live in your household?", nil
		}
		ob.HouseholdSize = size
		ob.Step = "done"

		income, _ := decimal.NewFromString(ob.DeclaredIncome)
		fixed, _ := decimal.NewFromString(ob.FixedExpenses)
		user.Name = ob.Name
		user.DeclaredMonthlyIncome = income
		user.FixedExpenses = fixed
		// Rough per-household minimum-living floor until real spending
		// data replaces it.
		user.MinimumLiving = decimal.NewFromInt(int64(2000 + 1200*size))
		if err := r.repo.UpdateFinancialProfile(user); err != nil {
			return "", err
		}
		if err := r.repo.UpdateIncomeBaseline(user.ID, income); err != nil {
			return "", err
		}

		convo.State = string(StateDataCollection)
		convo.Payload = models.ContextPayload{Kind: models.PayloadNone}
		return "That's everything I need to start. Now send me a bank statement (PDF or photo) and I'll map where your money goes.", nil
	}

	ob.Step = "name"
	return "Let's start over. What's your name?", nil
}

func (r *Router) handleDataCollection(ctx context.Context, user *models.User, convo *models.ConversationContext, in whatsapp.Inbound, intent Intent) (string, error) {
	if in.Kind == whatsapp.InboundDocument {
		r.log.Infof("Received statement document %q from %s", in.Filename, user.Phone)
		return "Thanks, the statement is in. Send another, or write \"done\" when you've sent everything.", nil
	}

	if strings.EqualFold(strings.TrimSpace(in.Text), "done") {
		txns, err := r.repo.ListTransactionsSince(user.ID, time.Now().AddDate(0, -3, 0))
		if err != nil {
			return "", err
		}
		if len(txns) == 0 {
			return "I don't have any transactions yet. Send at least one statement first.", nil
		}
		convo.State = string(StateBehaviorReview)
		return "Great, I have enough to work with. Write anything to see what your spending looks like.", nil
	}

	return "Send me a bank or credit-card statement as a document, and write \"done\" when you've sent everything.", nil
}

func (r *Router) handleBehaviorReview(ctx context.Context, user *models.User, convo *models.ConversationContext, in whatsapp.Inbound, intent Intent) (string, error) {
	from := time.Now().AddDate(0, -3, 0)
	txns, err := r.repo.ListTransactionsSince(user.ID, from)
	if err != nil {
		return "", err
	}

	income, expense := decimal.Zero, decimal.Zero
	byCategory := map[string]decimal.Decimal{}
	for i := range txns {
		if txns[i].Type == models.TransactionIncome {
			income = income.Add(txns[i].Amount)
			continue
		}
		expense = expense.Add(txns[i].Amount)
		byCategory[txns[i].Category] = byCategory[txns[i].Category].Add(txns[i].Amount)
	}

	top, topAmount := "", decimal.Zero
	for cat, amount := range byCategory {
		if amount.GreaterThan(topAmount) {
			top, topAmount = cat, amount
		}
	}

	convo.State = string(StateBudgetPlanning)
	msg := fmt.Sprintf("Over the last 3 months you brought in %s and spent %s.",
		income.StringFixed(0), expense.StringFixed(0))
	if top != "" {
		msg += fmt.Sprintf(" Your biggest expense category is %s (%s).", top, topAmount.StringFixed(0))
	}
	return msg + " Write \"budget\" and we'll build a monthly plan around this.", nil
}

func (r *Router) handleBudgetPlanning(ctx context.Context, user *models.User, convo *models.ConversationContext, in whatsapp.Inbound, intent Intent) (string, error) {
	month := time.Now().Format("2006-01")
	if budget, err := r.repo.FindBudget(user.ID, month); err == nil {
		convo.State = string(StateGoalsSetting)
		return fmt.Sprintf("Your %s budget is already set: %s planned against %s income. Let's talk goals next. What would you like to save for?",
			month, budget.TotalPlanned.StringFixed(0), budget.TotalIncome.StringFixed(0)), nil
	}

	// Build category lines from trailing spend, padded 10% as headroom.
	txns, err := r.repo.ListTransactionsSince(user.ID, time.Now().AddDate(0, -3, 0))
	if err != nil {
		return "", err
	}
	byCategory := map[string]decimal.Decimal{}
	for i := range txns {
		if txns[i].Type == models.TransactionExpense {
			byCategory[txns[i].Category] = byCategory[txns[i].Category].Add(txns[i].Amount)
		}
	}

	three := decimal.NewFromInt(3)
	headroom := decimal.NewFromFloat(1.1)
	var categories []models.BudgetCategory
	total := decimal.Zero
	for cat, spent := range byCategory {
		planned := spent.Div(three).Mul(headroom).Round(0)
		categories = append(categories, models.BudgetCategory{Name: cat, Planned: planned})
		total = total.Add(planned)
	}

	budget := &models.Budget{
		UserID:       user.ID,
		Month:        month,
		TotalIncome:  user.DeclaredMonthlyIncome,
		TotalPlanned: total,
	}
	if err := r.repo.CreateBudget(budget, categories); err != nil {
		return "", err
	}

	convo.State = string(StateGoalsSetting)
	return fmt.Sprintf("I drafted a %s budget from your actual spending: %s planned across %d categories. You can fine-tune it on the dashboard. Now, what's the first thing you'd like to save for?",
		month, total.StringFixed(0), len(categories)), nil
}

// handleGoalsSetting accepts goal definitions as "name amount [months]".
func (r *Router) handleGoalsSetting(ctx context.Context, user *models.User, convo *models.ConversationContext, in whatsapp.Inbound, intent Intent) (string, error) {
	text := strings.TrimSpace(in.Text)
	if strings.EqualFold(text, "done") {
		convo.State = string(StateMonitoring)
		return "Goals are set. I'll keep an eye on your progress and check in when something changes.", nil
	}

	goal, err := parseGoalInput(user, text)
	if err != nil {
		return "Describe a goal as: name amount [months]. For example: \"emergency fund 20000 18\". Write \"done\" when you're finished.", nil
	}
	if err := r.repo.CreateGoal(goal); err != nil {
		return "", err
	}

	goals, err := r.repo.ListActiveGoals(user.ID)
	if err != nil {
		return "", err
	}
	result := r.engine.Run(goals, user.Snapshot(), time.Now())
	for i := range result.Allocations {
		a := &result.Allocations[i]
		if err := r.repo.UpdateGoalAllocation(a.GoalID, a.MonthlyAllocation); err != nil {
			return "", err
		}
	}

	msg := fmt.Sprintf("Goal %q added.", goal.Name)
	for i := range result.Allocations {
		a := &result.Allocations[i]
		if a.GoalID == goal.ID {
			if a.IsAchievable {
				msg += fmt.Sprintf(" I can put %s/month toward it, reaching the target in about %d months.",
					a.MonthlyAllocation.StringFixed(0), a.MonthsToComplete)
			} else {
				msg += fmt.Sprintf(" At %s/month it won't make the deadline; consider a smaller target or a later date.",
					a.MonthlyAllocation.StringFixed(0))
			}
		}
	}
	return msg + " Another goal, or \"done\"?", nil
}

func (r *Router) handleLoans(ctx context.Context, user *models.User, convo *models.ConversationContext, in whatsapp.Inbound, intent Intent) (string, error) {
	text := strings.TrimSpace(in.Text)
	if strings.EqualFold(text, "done") {
		loans, err := r.repo.ListLoans(user.ID)
		if err != nil {
			return "", err
		}
		convo.State = string(StateMonitoring)
		if len(loans) < 2 {
			return "With a single loan there's nothing to consolidate. I'll factor the payments into your budget.", nil
		}

		payments, balance := decimal.Zero, decimal.Zero
		maxRate := 0.0
		for i := range loans {
			payments = payments.Add(loans[i].MonthlyPayment)
			balance = balance.Add(loans[i].Balance)
			if loans[i].InterestRate > maxRate {
				maxRate = loans[i].InterestRate
			}
		}
		return fmt.Sprintf("You're paying %s/month across %d loans totaling %s, with rates up to %.1f%%. Consolidating into a single lower-rate loan is worth checking with your bank; it would also simplify your budget.",
			payments.StringFixed(0), len(loans), balance.StringFixed(0), maxRate), nil
	}

	loan, err := parseLoanInput(user, text)
	if err != nil {
		return "Describe each loan as: lender balance rate monthly-payment. For example: \"bank 40000 8.5 1200\". Write \"done\" when you've listed them all.", nil
	}
	if err := r.repo.CreateLoan(loan); err != nil {
		return "", err
	}
	return fmt.Sprintf("Recorded the %s loan. Another one, or \"done\"?", loan.Lender), nil
}

func (r *Router) handleMonitoring(ctx context.Context, user *models.User, convo *models.ConversationContext, in whatsapp.Inbound, intent Intent) (string, error) {
	pending, err := r.repo.ListPendingReview(user.ID)
	if err != nil {
		return "", err
	}
	if len(pending) > 0 {
		convo.State = string(StateClassification)
		session := &models.ClassificationSession{}
		for i := range pending {
			session.TransactionIDs = append(session.TransactionIDs, pending[i].ID)
		}
		convo.Payload = models.ContextPayload{Kind: models.PayloadClassification, Classification: session}
		return r.nextClassificationPrompt(ctx, user, session)
	}
	return r.statusSummary(user)
}

// handleClassification steps through the pending batch one transaction per
// message: the user either approves the suggested category or names another.
func (r *Router) handleClassification(ctx context.Context, user *models.User, convo *models.ConversationContext, in whatsapp.Inbound, intent Intent) (string, error) {
	session := convo.Payload.Classification
	if session == nil || session.Cursor >= len(session.TransactionIDs) {
		convo.State = string(StateMonitoring)
		convo.Payload = models.ContextPayload{Kind: models.PayloadNone}
		return "All caught up on transaction review.", nil
	}

	txn, err := r.repo.FindTransactionByID(session.TransactionIDs[session.Cursor])
	if err != nil {
		session.Cursor++
		return r.nextClassificationPrompt(ctx, user, session)
	}

	text := strings.TrimSpace(strings.ToLower(in.Text))
	switch {
	case intent == IntentApprove || text == "approve":
		if err := r.repo.UpdateTransactionReview(txn.ID, txn.Category, models.TransactionApproved); err != nil {
			return "", err
		}
	case text != "":
		if err := r.classifier.Correct(ctx, txn, text); err != nil {
			return "", err
		}
		if err := r.repo.UpdateTransactionReview(txn.ID, text, models.TransactionApproved); err != nil {
			return "", err
		}
	}
	session.Cursor++
	session.Classified++

	if session.Cursor >= len(session.TransactionIDs) {
		done := session.Classified
		convo.State = string(StateMonitoring)
		convo.Payload = models.ContextPayload{Kind: models.PayloadNone}
		return fmt.Sprintf("That's the whole batch, %d transactions reviewed. Nice work.", done), nil
	}
	return r.nextClassificationPrompt(ctx, user, session)
}

// nextClassificationPrompt suggests a category for the transaction under the
// cursor.
func (r *Router) nextClassificationPrompt(ctx context.Context, user *models.User, session *models.ClassificationSession) (string, error) {
	if session.Cursor >= len(session.TransactionIDs) {
		return "All caught up on transaction review.", nil
	}
	txn, err := r.repo.FindTransactionByID(session.TransactionIDs[session.Cursor])
	if err != nil {
		return "", err
	}

	category, err := r.classifier.Classify(ctx, txn)
	if err != nil {
		r.log.Errorf("Classification failed for %s: %v", txn.ID, err)
		category = "other"
	}
	return fmt.Sprintf("%s at %q, %s. I'd file this under %s — reply \"approve\" or name a better category. (%d of %d)",
		txn.Date.Format("02/01"), txn.Merchant, txn.Amount.StringFixed(0), category,
		session.Cursor+1, len(session.TransactionIDs)), nil
}

func (r *Router) handlePaused(ctx context.Context, user *models.User, convo *models.ConversationContext, in whatsapp.Inbound, intent Intent) (string, error) {
	if intent == IntentContinue || intent == IntentGreeting {
		convo.State = string(StateMonitoring)
		return "Welcome back. Write \"status\" for an overview.", nil
	}
	return "We're on pause. Write \"continue\" whenever you want to resume.", nil
}

// parseAmount reads a positive money amount from free text.
func parseAmount(text string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", "₪", "", " ", "").Replace(text)
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", text)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive")
	}
	return amount, nil
}

// parseGoalInput reads "name amount [months]" into a goal.
func parseGoalInput(user *models.User, text string) (*models.Goal, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return nil, fmt.Errorf("expected name and amount")
	}

	// Amount and optional months are the trailing numeric fields.
	months := 0
	amountIdx := len(fields) - 1
	if len(fields) >= 3 {
		if m, err := strconv.Atoi(fields[len(fields)-1]); err == nil && m > 0 {
			months = m
			amountIdx = len(fields) - 2
		}
	}
	amount, err := parseAmount(fields[amountIdx])
	if err != nil {
		return nil, err
	}
	name := strings.Join(fields[:amountIdx], " ")
	if name == "" {
		return nil, fmt.Errorf("goal needs a name")
	}

	now := time.Now()
	goal := &models.Goal{
		UserID:       user.ID,
		Name:         name,
		Type:         models.GoalCustom,
		TargetAmount: amount,
		Priority:     5,
		StartDate:    now,
		IsFlexible:   true,
		AutoAdjust:   true,
		Status:       models.GoalActive,
	}
	if strings.Contains(strings.ToLower(name), "emergency") {
		goal.Type = models.GoalEmergencyFund
		goal.Priority = 1
		goal.IsFlexible = false
	}
	if months > 0 {
		deadline := now.AddDate(0, months, 0)
		goal.Deadline = &deadline
	}
	return goal, nil
}

// parseLoanInput reads "lender balance rate monthly-payment" into a loan.
func parseLoanInput(user *models.User, text string) (*models.Loan, error) {
	fields := strings.Fields(text)
	if len(fields) < 4 {
		return nil, fmt.Errorf("expected lender, balance, rate and payment")
	}

	payment, err := parseAmount(fields[len(fields)-1])
	if err != nil {
		return nil, err
	}
	rate, err := strconv.ParseFloat(fields[len(fields)-2], 64)
	if err != nil || rate < 0 {
		return nil, fmt.Errorf("bad interest rate")
	}
	balance, err := parseAmount(fields[len(fields)-3])
	if err != nil {
		return nil, err
	}
	lender := strings.Join(fields[:len(fields)-3], " ")
	if lender == "" {
		return nil, fmt.Errorf("loan needs a lender")
	}

	return &models.Loan{
		UserID:         user.ID,
		Lender:         lender,
		Balance:        balance,
		InterestRate:   rate,
		MonthlyPayment: payment,
	}, nil
}
