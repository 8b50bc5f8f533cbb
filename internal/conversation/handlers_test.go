package conversation

import (
	"sync"
	"testing"

	"github.com/liorazar/cashcoach/internal/models"
	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"5000", "5000", false},
		{"5,000", "5000", false},
		{"₪1200", "1200", false},
		{"1 200", "1200", false},
		{"120.50", "120.5", false},
		{"-50", "", true},
		{"0", "", true},
		{"tomorrow", "", true},
	}
	for _, c := range cases {
		got, err := parseAmount(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("parseAmount(%q) should fail", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseAmount(%q) failed: %v", c.in, err)
			continue
		}
		want, _ := decimal.NewFromString(c.want)
		if !got.Equal(want) {
			t.Errorf("parseAmount(%q) = %s, want %s", c.in, got, want)
		}
	}
}

func TestParseGoalInput(t *testing.T) {
	user := &models.User{}

	goal, err := parseGoalInput(user, "new car 50000 24")
	if err != nil {
		t.Fatalf("parseGoalInput failed: %v", err)
	}
	if goal.Name != "new car" {
		t.Errorf("name = %q, want %q", goal.Name, "new car")
	}
	if !goal.TargetAmount.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("target = %s, want 50000", goal.TargetAmount)
	}
	if goal.Deadline == nil {
		t.Fatal("expected a deadline from the months field")
	}
	if goal.Priority != 5 || !goal.IsFlexible {
		t.Errorf("custom goal should default to priority 5 and flexible, got %d/%v", goal.Priority, goal.IsFlexible)
	}
}

func TestParseGoalInputWithoutMonths(t *testing.T) {
	goal, err := parseGoalInput(&models.User{}, "vacation 12000")
	if err != nil {
		t.Fatalf("parseGoalInput failed: %v", err)
	}
	if goal.Deadline != nil {
		t.Error("no months field should mean no deadline")
	}
}

func TestParseGoalInputEmergencyFund(t *testing.T) {
	goal, err := parseGoalInput(&models.User{}, "emergency fund 30000")
	if err != nil {
		t.Fatalf("parseGoalInput failed: %v", err)
	}
	if goal.Type != models.GoalEmergencyFund {
		t.Errorf("type = %s, want emergency_fund", goal.Type)
	}
	if goal.Priority != 1 || goal.IsFlexible {
		t.Errorf("emergency fund should be priority 1 and inflexible, got %d/%v", goal.Priority, goal.IsFlexible)
	}
}

func TestParseGoalInputErrors(t *testing.T) {
	for _, in := range []string{"", "onlyname", "name notanumber"} {
		if _, err := parseGoalInput(&models.User{}, in); err == nil {
			t.Errorf("parseGoalInput(%q) should fail", in)
		}
	}
}

func TestParseLoanInput(t *testing.T) {
	loan, err := parseLoanInput(&models.User{}, "First Bank 80000 7.5 1500")
	if err != nil {
		t.Fatalf("parseLoanInput failed: %v", err)
	}
	if loan.Lender != "First Bank" {
		t.Errorf("lender = %q, want %q", loan.Lender, "First Bank")
	}
	if !loan.Balance.Equal(decimal.NewFromInt(80000)) {
		t.Errorf("balance = %s, want 80000", loan.Balance)
	}
	if loan.InterestRate != 7.5 {
		t.Errorf("rate = %f, want 7.5", loan.InterestRate)
	}
	if !loan.MonthlyPayment.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("payment = %s, want 1500", loan.MonthlyPayment)
	}
}

func TestParseLoanInputErrors(t *testing.T) {
	for _, in := range []string{"", "bank 100", "bank 100 bad 50"} {
		if _, err := parseLoanInput(&models.User{}, in); err == nil {
			t.Errorf("parseLoanInput(%q) should fail", in)
		}
	}
}

func TestUserLockSerializesSameKey(t *testing.T) {
	locks := newUserLock()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.acquire("9725000001")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50 (turns must not race)", counter)
	}
}

func TestUserLockIndependentKeys(t *testing.T) {
	locks := newUserLock()
	unlockA := locks.acquire("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.acquire("b")
		unlockB()
		close(done)
	}()
	<-done // would deadlock if keys shared one mutex
}
