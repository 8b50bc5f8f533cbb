package classify

import (
	"context"
	"io"
	"testing"

	"github.com/liorazar/cashcoach/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Fast(ctx context.Context, system, prompt string) (string, error) {
	return f.reply, f.err
}

func (f *fakeCompleter) Deep(ctx context.Context, system, prompt string) (string, error) {
	return f.reply, f.err
}

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"SuperMarket TLV", "supermarket tlv"},
		{"  Cafe   Joe  ", "cafe joe"},
		{"", ""},
	}
	for _, c := range cases {
		if got := normalizeKey(c.in); got != c.want {
			t.Errorf("normalizeKey(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAskModelAcceptsKnownCategory(t *testing.T) {
	c := &Classifier{llm: &fakeCompleter{reply: " Groceries \n"}, log: quietLog()}
	txn := &models.Transaction{Merchant: "SuperMarket", Amount: decimal.NewFromInt(120), Currency: "ILS"}

	got, err := c.askModel(context.Background(), txn)
	if err != nil {
		t.Fatalf("askModel failed: %v", err)
	}
	if got != "groceries" {
		t.Errorf("category = %q, want %q", got, "groceries")
	}
}

func TestAskModelRejectsUnknownCategory(t *testing.T) {
	c := &Classifier{llm: &fakeCompleter{reply: "crypto-gambling"}, log: quietLog()}
	txn := &models.Transaction{Merchant: "Somewhere", Amount: decimal.NewFromInt(50)}

	got, err := c.askModel(context.Background(), txn)
	if err != nil {
		t.Fatalf("askModel failed: %v", err)
	}
	if got != "other" {
		t.Errorf("category = %q, want the %q fallback", got, "other")
	}
}

func TestValidCategory(t *testing.T) {
	for _, known := range Categories {
		if !validCategory(known) {
			t.Errorf("validCategory(%q) = false", known)
		}
	}
	if validCategory("Groceries") {
		t.Error("category matching is case-sensitive after normalization")
	}
}
