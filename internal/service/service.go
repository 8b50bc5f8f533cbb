package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/liorazar/cashcoach/internal/allocation"
	"github.com/liorazar/cashcoach/internal/config"
	"github.com/liorazar/cashcoach/internal/conversation"
	"github.com/liorazar/cashcoach/internal/forecast"
	"github.com/liorazar/cashcoach/internal/models"
	"github.com/liorazar/cashcoach/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// forecastWindow is how much transaction history feeds a forecast refresh.
const forecastWindow = 24 * 30 * 24 * time.Hour

// Service handles business logic behind the REST API
type Service struct {
	repo       *repository.Repository
	engine     *allocation.Engine
	forecaster *forecast.Forecaster
	classifier conversation.TransactionClassifier
	log        *logrus.Logger
	config     *config.Config
}

// NewService initializes a new service
func NewService(repo *repository.Repository, engine *allocation.Engine, forecaster *forecast.Forecaster, classifier conversation.TransactionClassifier, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		repo:       repo,
		engine:     engine,
		forecaster: forecaster,
		classifier: classifier,
		log:        log,
		config:     cfg,
	}
}

// userFromContext resolves the authenticated user set by the auth middleware.
func (s *Service) userFromContext(ctx context.Context) (*models.User, error) {
	userIDStr, ok := ctx.Value("userID").(string)
	if !ok || userIDStr == "" {
		return nil, fmt.Errorf("user ID not found in context")
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}
	return s.repo.FindUserByID(userID)
}

// Register creates a new user with hashed password
func (s *Service) Register(name, email, phone, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.CreateUser(user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(email, password string) (string, error) {
	user, err := s.repo.FindUserByEmail(email)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

// GetProfile returns the authenticated user's profile
func (s *Service) GetProfile(ctx context.Context) (*models.User, error) {
	return s.userFromContext(ctx)
}

// ProfileUpdate carries the editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name                  string           `json:"name"`
	DeclaredMonthlyIncome *decimal.Decimal `json:"declared_monthly_income"`
	FixedExpenses         *decimal.Decimal `json:"fixed_expenses"`
	MinimumLiving         *decimal.Decimal `json:"minimum_living"`
}

// UpdateProfile applies edits to the self-declared financial profile and
// rebalances goal allocations against the new figures.
func (s *Service) UpdateProfile(ctx context.Context, upd ProfileUpdate) (*models.User, error) {
	user, err := s.userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if upd.Name != "" {
		user.Name = upd.Name
	}
	if upd.DeclaredMonthlyIncome != nil && upd.DeclaredMonthlyIncome.IsPositive() {
		user.DeclaredMonthlyIncome = *upd.DeclaredMonthlyIncome
	}
	if upd.FixedExpenses != nil && !upd.FixedExpenses.IsNegative() {
		user.FixedExpenses = *upd.FixedExpenses
	}
	if upd.MinimumLiving != nil && !upd.MinimumLiving.IsNegative() {
		user.MinimumLiving = *upd.MinimumLiving
	}
	if err := s.repo.UpdateFinancialProfile(user); err != nil {
		return nil, err
	}
	if _, err := s.rebalance(user, "manual"); err != nil {
		s.log.Errorf("Rebalance after profile update failed for %s: %v", user.ID, err)
	}
	return user, nil
}

// BudgetView is a budget together with its category lines
type BudgetView struct {
	Budget     *models.Budget          `json:"budget"`
	Categories []models.BudgetCategory `json:"categories"`
}

// GetBudget returns the authenticated user's budget for one month
func (s *Service) GetBudget(ctx context.Context, month string) (*BudgetView, error) {
	user, err := s.userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	budget, err := s.repo.FindBudget(user.ID, month)
	if err != nil {
		return nil, err
	}
	categories, err := s.repo.ListBudgetCategories(budget.ID)
	if err != nil {
		return nil, err
	}
	return &BudgetView{Budget: budget, Categories: categories}, nil
}

// CreateBudget stores a monthly budget plan for the authenticated user
func (s *Service) CreateBudget(ctx context.Context, month string, categories []models.BudgetCategory) (*models.Budget, error) {
	user, err := s.userFromContext(ctx)
	if err != nil {
		return nil, err
	}

	planned := decimal.Zero
	for i := range categories {
		planned = planned.Add(categories[i].Planned)
	}
	budget := &models.Budget{
		UserID:       user.ID,
		Month:        month,
		TotalIncome:  user.DeclaredMonthlyIncome,
		TotalPlanned: planned,
	}
	if err := s.repo.CreateBudget(budget, categories); err != nil {
		return nil, err
	}
	s.log.Infof("Budget created for user %s: %s", user.ID, month)
	return budget, nil
}

// ApproveExpense confirms a pending transaction, optionally overriding the
// category, and books its spend onto the matching budget line.
func (s *Service) ApproveExpense(ctx context.Context, txnID uuid.UUID, category string) (*models.Transaction, error) {
	user, err := s.userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	txn, err := s.repo.FindTransactionByID(txnID)
	if err != nil {
		return nil, err
	}
	if txn.UserID != user.ID {
		return nil, fmt.Errorf("transaction does not belong to user")
	}

	if category != "" && category != txn.Category {
		if err := s.classifier.Correct(ctx, txn, category); err != nil {
			return nil, err
		}
		txn.Category = category
	}
	if err := s.repo.UpdateTransactionReview(txn.ID, txn.Category, models.TransactionApproved); err != nil {
		return nil, err
	}
	txn.Status = models.TransactionApproved

	s.bookSpend(user.ID, txn)
	return txn, nil
}

// RejectExpense dismisses a pending transaction as not the user's spending.
func (s *Service) RejectExpense(ctx context.Context, txnID uuid.UUID) (*models.Transaction, error) {
	user, err := s.userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	txn, err := s.repo.FindTransactionByID(txnID)
	if err != nil {
		return nil, err
	}
	if txn.UserID != user.ID {
		return nil, fmt.Errorf("transaction does not belong to user")
	}
	if err := s.repo.UpdateTransactionReview(txn.ID, txn.Category, models.TransactionRejected); err != nil {
		return nil, err
	}
	txn.Status = models.TransactionRejected
	return txn, nil
}

// bookSpend accumulates an approved expense onto the month's budget line.
// Missing budgets or lines are tolerated, approval stands either way.
func (s *Service) bookSpend(userID uuid.UUID, txn *models.Transaction) {
	if txn.Type != models.TransactionExpense {
		return
	}
	budget, err := s.repo.FindBudget(userID, txn.Date.Format("2006-01"))
	if err != nil {
		return
	}
	categories, err := s.repo.ListBudgetCategories(budget.ID)
	if err != nil {
		s.log.Errorf("Failed to load budget lines for %s: %v", budget.ID, err)
		return
	}
	for i := range categories {
		if categories[i].Name == txn.Category {
			if err := s.repo.AddCategorySpend(categories[i].ID, txn.Amount); err != nil {
				s.log.Errorf("Failed to book spend for %s: %v", txn.ID, err)
			}
			return
		}
	}
}

// ListGoals returns the authenticated user's goals
func (s *Service) ListGoals(ctx context.Context) ([]models.Goal, error) {
	user, err := s.userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListGoals(user.ID)
}

// CreateGoal stores a new goal and rebalances allocations around it
func (s *Service) CreateGoal(ctx context.Context, goal *models.Goal) (*models.AllocationResult, error) {
	user, err := s.userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	goal.UserID = user.ID
	goal.Status = models.GoalActive
	if goal.StartDate.IsZero() {
		goal.StartDate = time.Now()
	}
	if goal.Priority < 1 || goal.Priority > 10 {
		return nil, fmt.Errorf("priority must be between 1 and 10")
	}
	if !goal.TargetAmount.IsPositive() {
		return nil, fmt.Errorf("target amount must be positive")
	}
	if err := s.repo.CreateGoal(goal); err != nil {
		return nil, err
	}
	s.log.Infof("Goal created for user %s: %s", user.ID, goal.Name)
	return s.rebalance(user, "manual")
}

// UpdateGoal applies user edits to a goal and rebalances
func (s *Service) UpdateGoal(ctx context.Context, goal *models.Goal) (*models.AllocationResult, error) {
	user, err := s.userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.FindGoalByID(goal.ID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != user.ID {
		return nil, fmt.Errorf("goal does not belong to user")
	}
	if err := s.repo.UpdateGoal(goal); err != nil {
		return nil, err
	}
	return s.rebalance(user, "manual")
}

// RecalculateAllocations reruns the balancer over the user's active goals
// and persists the result.
func (s *Service) RecalculateAllocations(ctx context.Context) (*models.AllocationResult, error) {
	user, err := s.userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.rebalance(user, "auto_rebalance")
}

func (s *Service) rebalance(user *models.User, reason string) (*models.AllocationResult, error) {
	goals, err := s.repo.ListActiveGoals(user.ID)
	if err != nil {
		return nil, err
	}
	result := s.engine.Run(goals, user.Snapshot(), time.Now())
	for i := range result.Allocations {
		a := &result.Allocations[i]
		if err := s.repo.UpdateGoalAllocation(a.GoalID, a.MonthlyAllocation); err != nil {
			return nil, err
		}
		history := &models.AllocationHistory{
			UserID:     user.ID,
			GoalID:     a.GoalID,
			Allocation: a.MonthlyAllocation,
			Reason:     reason,
		}
		if err := s.repo.InsertAllocationHistory(history); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// StatsView is the dashboard analytics payload
type StatsView struct {
	Months []models.IncomeExpenseStats `json:"months"`
	Loans  models.LoanBurden           `json:"loans"`
}

// GetStats returns monthly income/expense totals for the last six months and
// the user's loan burden.
func (s *Service) GetStats(ctx context.Context) (*StatsView, error) {
	user, err := s.userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	months, err := s.repo.MonthlyStats(user.ID, time.Now().AddDate(0, -6, 0))
	if err != nil {
		return nil, err
	}
	loans, err := s.repo.ListLoans(user.ID)
	if err != nil {
		return nil, err
	}

	burden := models.LoanBurden{}
	for i := range loans {
		burden.MonthlyPayments = burden.MonthlyPayments.Add(loans[i].MonthlyPayment)
		burden.TotalBalance = burden.TotalBalance.Add(loans[i].Balance)
	}
	if income := user.Snapshot().MonthlyIncome; income.IsPositive() {
		burden.BurdenRatio, _ = burden.MonthlyPayments.Div(income).Float64()
	}
	return &StatsView{Months: months, Loans: burden}, nil
}

// RefreshForecast recomputes the income forecast from transaction history
// and stores the kept months.
func (s *Service) RefreshForecast(ctx context.Context) ([]models.IncomeForecast, error) {
	user, err := s.userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	txns, err := s.repo.ListIncomeSince(user.ID, time.Now().Add(-forecastWindow))
	if err != nil {
		return nil, err
	}

	forecasts := s.forecaster.Forecast(user.ID, txns, user.DeclaredMonthlyIncome, time.Now())
	for i := range forecasts {
		if err := s.repo.UpsertForecast(&forecasts[i]); err != nil {
			return nil, err
		}
	}
	s.log.Infof("Forecast refreshed for user %s: %d months kept", user.ID, len(forecasts))
	return forecasts, nil
}

// GetForecast returns the stored income forecast
func (s *Service) GetForecast(ctx context.Context) ([]models.IncomeForecast, error) {
	user, err := s.userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListForecasts(user.ID)
}
