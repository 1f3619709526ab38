package store

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// amountRange is an inclusive spend range in minor units for one category.
type amountRange struct {
	low, high int64
}

var categoryWeights = map[string]int{
	"Groceries":      20,
	"Dining":         15,
	"Transportation": 12,
	"Shopping":       10,
	"Entertainment":  8,
	"Healthcare":     5,
	"Travel":         3,
	"Education":      2,
}

var categoryAmounts = map[string]amountRange{
	"Groceries":      {1500, 18000},
	"Dining":         {600, 9500},
	"Transportation": {300, 7500},
	"Shopping":       {1000, 30000},
	"Entertainment":  {500, 8000},
	"Healthcare":     {1000, 25000},
	"Travel":         {5000, 80000},
	"Education":      {2000, 40000},
}

var categoryMerchants = map[string][]string{
	"Groceries":      {"Whole Foods", "Trader Joe's", "Safeway", "Kroger", "Aldi"},
	"Dining":         {"Chipotle", "Starbucks", "McDonald's", "The Cheesecake Factory", "Local Bistro", "Sushi Place", "Pizza Hut"},
	"Transportation": {"Uber", "Lyft", "Metro Transit", "Shell", "Chevron", "BP", "EV Charging Station"},
	"Shopping":       {"Amazon", "Target", "Walmart", "Best Buy", "Nike", "H&M", "Apple Store"},
	"Entertainment":  {"Netflix", "Apple Music", "AMC Theatres", "Disney+", "Steam", "Concert Tickets"},
	"Healthcare":     {"CVS Pharmacy", "Walgreens", "Medical Center", "Dental Clinic", "Vision Center"},
	"Travel":         {"Airbnb", "Expedia", "Southwest Airlines", "Marriott", "Hilton", "Delta Airlines"},
	"Education":      {"University Bookstore", "Coursera", "Udemy", "Textbook Shop", "Student Loans"},
}

var accounts = []string{"Checking 0012", "Savings 4019", "Credit Card 4421"}

const (
	incomeMerchant = "Salary Deposit"
	incomeCategory = "Income"
	incomeAccount  = "Checking 0012"
	incomeAmount   = 240000 // $2,400.00 per payday
)

// SeedOptions controls sample data generation. A nil Rand gets a fixed
// seed so repeated runs produce the same ledger. A zero range defaults to
// the trailing six months.
type SeedOptions struct {
	From time.Time
	To   time.Time
	Rand *rand.Rand
	// MaxPerDay caps random expense transactions per day (default 4).
	MaxPerDay int
}

// Seed fills the store with weighted sample expenses plus salary deposits
// on the 1st and 15th of each month in range.
func (s *TransactionStore) Seed(ctx context.Context, opts SeedOptions) (int, error) {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(42))
	}
	maxPerDay := opts.MaxPerDay
	if maxPerDay <= 0 {
		maxPerDay = 4
	}
	if opts.To.IsZero() {
		opts.To = time.Now()
	}
	if opts.From.IsZero() {
		opts.From = opts.To.AddDate(0, -6, 0)
	}
	if opts.To.Before(opts.From) {
		return 0, fmt.Errorf("seed range ends before it starts")
	}

	weighted := buildWeightedCategories()

	inserted := 0
	for day := opts.From; !day.After(opts.To); day = day.AddDate(0, 0, 1) {
		if day.Day() == 1 || day.Day() == 15 {
			if err := s.Insert(ctx, Transaction{
				Date:     FormatDate(day),
				Amount:   incomeAmount,
				Category: incomeCategory,
				Merchant: incomeMerchant,
				Account:  incomeAccount,
			}); err != nil {
				return inserted, err
			}
			inserted++
		}

		for i := 0; i < rng.Intn(maxPerDay+1); i++ {
			category := weighted[rng.Intn(len(weighted))]
			merchants := categoryMerchants[category]
			amounts := categoryAmounts[category]
			amount := amounts.low + rng.Int63n(amounts.high-amounts.low+1)

			if err := s.Insert(ctx, Transaction{
				Date:     FormatDate(day),
				Amount:   -amount,
				Category: category,
				Merchant: merchants[rng.Intn(len(merchants))],
				Account:  accounts[rng.Intn(len(accounts))],
			}); err != nil {
				return inserted, err
			}
			inserted++
		}
	}
	return inserted, nil
}

// buildWeightedCategories expands the weight table into a sampling slice,
// ordered deterministically.
func buildWeightedCategories() []string {
	names := []string{"Groceries", "Dining", "Transportation", "Shopping", "Entertainment", "Healthcare", "Travel", "Education"}
	var out []string
	for _, name := range names {
		for i := 0; i < categoryWeights[name]; i++ {
			out = append(out, name)
		}
	}
	return out
}
