package classify

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/liorazar/cashcoach/internal/models"
	"github.com/shopspring/decimal"
)

// statementDateLayouts are the date formats accepted in CSV exports.
var statementDateLayouts = []string{"2006-01-02", "02/01/2006", "02.01.2006"}

// ImportStatement parses a CSV statement export for the user behind the phone
// number, classifies the expenses and stores everything. Income rows are
// approved as-is; expenses wait for user review. Returns how many rows were
// stored.
func (c *Classifier) ImportStatement(ctx context.Context, phone string, data []byte) (int, error) {
	user, err := c.repo.FindUserByPhone(phone)
	if err != nil {
		return 0, err
	}
	txns, err := parseStatement(data)
	if err != nil {
		return 0, err
	}

	imported := 0
	for i := range txns {
		txn := &txns[i]
		txn.UserID = user.ID

		if txn.Currency != "" && txn.Currency != "ILS" {
			amount, err := c.NormalizeAmount(txn)
			if err != nil {
				c.log.Warnf("Keeping %s amount for %q unconverted: %v", txn.Currency, txn.Merchant, err)
			} else {
				txn.Amount = amount
				txn.Currency = "ILS"
			}
		}

		if txn.Type == models.TransactionExpense {
			txn.Status = models.TransactionPendingReview
			category, err := c.Classify(ctx, txn)
			if err != nil {
				c.log.Warnf("Classification failed for %q: %v", txn.Merchant, err)
			}
			txn.Category = category
		} else {
			txn.Status = models.TransactionApproved
			txn.Category = "income"
		}

		if err := c.repo.InsertTransaction(txn); err != nil {
			c.log.Errorf("Failed to store statement row %q: %v", txn.Merchant, err)
			continue
		}
		imported++
	}
	return imported, nil
}

// parseStatement reads a CSV export with columns date, merchant, amount and an
// optional currency. Negative amounts are debits; a header row is skipped.
func parseStatement(data []byte) ([]models.Transaction, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse statement csv: %w", err)
	}

	var txns []models.Transaction
	for i, record := range records {
		if len(record) < 3 {
			continue
		}
		txn, err := parseStatementRow(record)
		if err != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("statement row %d: %w", i+1, err)
		}
		txns = append(txns, *txn)
	}
	if len(txns) == 0 {
		return nil, fmt.Errorf("statement has no transaction rows")
	}
	return txns, nil
}

func parseStatementRow(record []string) (*models.Transaction, error) {
	var date time.Time
	var err error
	raw := strings.TrimSpace(record[0])
	for _, layout := range statementDateLayouts {
		if date, err = time.Parse(layout, raw); err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("unrecognized date %q", raw)
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(record[2]), ",", ""))
	if err != nil {
		return nil, fmt.Errorf("unrecognized amount %q", record[2])
	}
	txnType := models.TransactionIncome
	if amount.IsNegative() {
		txnType = models.TransactionExpense
		amount = amount.Abs()
	}

	currency := "ILS"
	if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
		currency = strings.ToUpper(strings.TrimSpace(record[3]))
	}

	return &models.Transaction{
		Amount:   amount,
		Currency: currency,
		Type:     txnType,
		Merchant: strings.TrimSpace(record[1]),
		Date:     date,
	}, nil
}
