// Package classify assigns spending categories to transactions: learned
// per-user merchant patterns first, an LLM call as fallback.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/liorazar/cashcoach/internal/integrations/boi"
	"github.com/liorazar/cashcoach/internal/integrations/llm"
	"github.com/liorazar/cashcoach/internal/models"
	"github.com/liorazar/cashcoach/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Categories is the closed set of spending categories.
var Categories = []string{
	"groceries", "dining", "transport", "housing", "utilities",
	"health", "education", "entertainment", "shopping", "other",
}

const patternTypeMerchant = "merchant"

// minPatternConfidence is the floor under which a learned pattern is treated
// as a guess and re-verified by the model.
const minPatternConfidence = 0.6

// Classifier resolves transaction categories
type Classifier struct {
	repo  *repository.Repository
	llm   llm.Completer
	rates *boi.RateClient
	log   *logrus.Logger
}

// NewClassifier initializes a classifier
func NewClassifier(repo *repository.Repository, completer llm.Completer, rates *boi.RateClient, log *logrus.Logger) *Classifier {
	return &Classifier{repo: repo, llm: completer, rates: rates, log: log}
}

// normalizeKey canonicalizes a merchant string into a pattern key.
func normalizeKey(merchant string) string {
	return strings.Join(strings.Fields(strings.ToLower(merchant)), " ")
}

func validCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Classify returns the category for a transaction. Learned patterns win;
// otherwise the model is asked and its answer is remembered as a low-
// confidence pattern for next time.
func (c *Classifier) Classify(ctx context.Context, txn *models.Transaction) (string, error) {
	key := normalizeKey(txn.Merchant)
	if key != "" {
		pattern, err := c.repo.FindPattern(txn.UserID, patternTypeMerchant, key)
		if err != nil {
			return "", err
		}
		if pattern != nil && pattern.Confidence >= minPatternConfidence {
			return pattern.Category, nil
		}
	}

	category, err := c.askModel(ctx, txn)
	if err != nil {
		return "other", err
	}

	if key != "" {
		pattern := &models.UserPattern{
			UserID:      txn.UserID,
			PatternType: patternTypeMerchant,
			PatternKey:  key,
			Category:    category,
			Confidence:  0.5,
		}
		if err := c.repo.UpsertPattern(pattern); err != nil {
			c.log.Errorf("Failed to remember pattern for %q: %v", key, err)
		}
	}
	return category, nil
}

// Correct records a user override and promotes it to a high-confidence
// pattern so the same merchant is classified right next time.
func (c *Classifier) Correct(ctx context.Context, txn *models.Transaction, newCategory string) error {
	newCategory = strings.ToLower(strings.TrimSpace(newCategory))

	correction := &models.PatternCorrection{
		UserID:        txn.UserID,
		TransactionID: txn.ID,
		OldCategory:   txn.Category,
		NewCategory:   newCategory,
	}
	if err := c.repo.InsertCorrection(correction); err != nil {
		return err
	}

	key := normalizeKey(txn.Merchant)
	if key == "" {
		return nil
	}
	pattern := &models.UserPattern{
		UserID:      txn.UserID,
		PatternType: patternTypeMerchant,
		PatternKey:  key,
		Category:    newCategory,
		Confidence:  0.9,
	}
	return c.repo.UpsertPattern(pattern)
}

// NormalizeAmount converts a foreign-currency transaction amount to ILS
// using the Bank of Israel daily rate.
func (c *Classifier) NormalizeAmount(txn *models.Transaction) (decimal.Decimal, error) {
	if txn.Currency == "" || txn.Currency == "ILS" {
		return txn.Amount, nil
	}
	rate, err := c.rates.GetRate(txn.Currency)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to normalize %s amount: %w", txn.Currency, err)
	}
	return txn.Amount.Mul(decimal.NewFromFloat(rate)).Round(2), nil
}

func (c *Classifier) askModel(ctx context.Context, txn *models.Transaction) (string, error) {
	system := fmt.Sprintf(`You classify bank transactions into exactly one
category out of: %s. Reply with the category name only.`, strings.Join(Categories, ", "))
	prompt := fmt.Sprintf("Merchant: %s\nAmount: %s %s", txn.Merchant, txn.Amount.StringFixed(2), txn.Currency)

	reply, err := c.llm.Fast(ctx, system, prompt)
	if err != nil {
		return "", err
	}
	category := strings.ToLower(strings.TrimSpace(reply))
	if !validCategory(category) {
		return "other", nil
	}
	return category, nil
}
