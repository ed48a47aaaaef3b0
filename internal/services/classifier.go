package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"minibooks/internal/logger"
	"minibooks/internal/models"
)

// Review thresholds per classification branch. An employee match is held
// to a higher bar than a keyword-rule expense because posting a salary
// against the wrong person is the costlier mistake.
const (
	employeeReviewThreshold = 80
	expenseReviewThreshold  = 60
	incomeReviewThreshold   = 70
)

// employeeAcceptFloor is the minimum score at which an employee match is
// trusted at all; below it the transaction falls through to the expense
// rules.
const employeeAcceptFloor = 40

// Classification is the outcome of classifying one provider transaction.
// Reasoning is always non-empty so a reviewer can see why the pipeline
// decided what it decided.
type Classification struct {
	Category          models.Category `json:"category"`
	MatchedEmployeeID *uint           `json:"matched_employee_id,omitempty"`
	Confidence        int             `json:"confidence"`
	NeedsReview       bool            `json:"needs_review"`
	Reasoning         []string        `json:"reasoning"`
}

// classifier scores provider transactions against employees, keyword
// rules and client contracts.
type classifier struct {
	db *gorm.DB
}

// NewClassifier creates a new Classifier.
func NewClassifier(db *gorm.DB) Classifier {
	return &classifier{db: db}
}

// Classify scores a transaction. It never returns an error: lookup
// failures degrade to a low-confidence fallback flagged for review, so
// one bad rule or a database hiccup cannot stall the pipeline.
func (s *classifier) Classify(tx *models.ProviderTransaction) Classification {
	switch tx.Direction {
	case models.DirectionCredit:
		result := s.classifyIncome(tx)
		result.NeedsReview = result.Confidence < incomeReviewThreshold
		return result
	default:
		if match := s.matchEmployee(tx); match != nil {
			match.NeedsReview = match.Confidence < employeeReviewThreshold
			return *match
		}
		result := s.classifyExpense(tx)
		result.NeedsReview = result.Confidence < expenseReviewThreshold
		return result
	}
}

// SuggestCategories returns up to three candidate classifications for
// the review UI, highest confidence first. Only candidates scoring above
// 30 are worth showing.
func (s *classifier) SuggestCategories(tx *models.ProviderTransaction) []Classification {
	var suggestions []Classification

	if match := s.matchEmployee(tx); match != nil && match.Confidence > 30 {
		suggestions = append(suggestions, *match)
	}

	if expense := s.classifyExpense(tx); expense.Confidence > 30 {
		suggestions = append(suggestions, expense)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})

	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return suggestions
}

// matchEmployee scores the transaction against every active employee and
// returns the best candidate, or nil when nothing reaches the accept
// floor.
func (s *classifier) matchEmployee(tx *models.ProviderTransaction) *Classification {
	var employees []models.Employee
	if err := s.db.Where("is_active = ?", true).Find(&employees).Error; err != nil {
		logger.Get().Errorw("failed to load employees for matching", "error", err, "external_id", tx.ExternalID)
		return nil
	}

	searchText := strings.ToLower(tx.SearchText())

	var best *Classification
	bestScore := 0

	for i := range employees {
		employee := employees[i]
		score := 0
		var reasons []string

		expected := employee.ExpectedPayment()
		if expected.IsPositive() {
			diffPercent := tx.Amount.Sub(expected).Abs().Div(expected).Mul(decimal.NewFromInt(100))
			switch {
			case diffPercent.IsZero():
				score += 50
				reasons = append(reasons, fmt.Sprintf("Exact amount match: %s", tx.Amount))
			case diffPercent.LessThan(decimal.NewFromInt(5)):
				score += 40
				reasons = append(reasons, fmt.Sprintf("Amount close match: %s vs expected %s", tx.Amount, expected.StringFixed(2)))
			case diffPercent.LessThan(decimal.NewFromInt(10)):
				score += 25
				reasons = append(reasons, fmt.Sprintf("Amount approximate match: %s vs expected %s", tx.Amount, expected.StringFixed(2)))
			}
		}

		nameParts := strings.Split(strings.ToLower(employee.Name), " ")
		nameMatches := 0
		for _, part := range nameParts {
			if len(part) > 2 && strings.Contains(searchText, part) {
				nameMatches++
			}
		}
		if nameMatches == len(nameParts) {
			score += 30
			reasons = append(reasons, "Full name match in transaction details")
		} else if nameMatches > 0 {
			score += 15 * nameMatches
			reasons = append(reasons, fmt.Sprintf("Partial name match (%d parts)", nameMatches))
		}

		switch employee.PayType {
		case models.PayTypeWeekly:
			weekday := tx.TransactionDate.Weekday()
			if weekday == time.Friday || weekday == time.Thursday {
				score += 10
				reasons = append(reasons, "Payment timing aligns with weekly schedule")
			}
		case models.PayTypeMonthly:
			day := tx.TransactionDate.Day()
			lastDay := lastDayOfMonth(tx.TransactionDate)
			if day >= lastDay-3 || day <= 5 {
				score += 10
				reasons = append(reasons, "Payment timing aligns with monthly schedule")
			}
		}

		if score > bestScore {
			bestScore = score
			employeeID := employee.ID
			best = &Classification{
				Category:          models.CategoryEmployee,
				MatchedEmployeeID: &employeeID,
				Confidence:        score,
				Reasoning:         reasons,
			}
		}
	}

	if best != nil && bestScore >= employeeAcceptFloor {
		return best
	}
	return nil
}

// classifyExpense applies the keyword rules in priority order; the first
// matching rule wins.
func (s *classifier) classifyExpense(tx *models.ProviderTransaction) Classification {
	searchText := strings.ToLower(tx.SearchText())

	var rules []models.ClassificationRule
	if err := s.db.Where("is_active = ?", true).Order("priority DESC").Find(&rules).Error; err != nil {
		logger.Get().Errorw("failed to load classification rules", "error", err, "external_id", tx.ExternalID)
		return Classification{
			Category:    models.CategoryOtherExpenses,
			Confidence:  25,
			NeedsReview: true,
			Reasoning: []string{
				"Classification error - needs manual review",
				fmt.Sprintf("Error: %v", err),
			},
		}
	}

	for _, rule := range rules {
		regex, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			logger.Get().Warnw("skipping rule with invalid pattern", "rule", rule.Name, "pattern", rule.Pattern, "error", err)
			continue
		}
		if regex.MatchString(searchText) {
			return Classification{
				Category:   rule.TargetCategory,
				Confidence: 70 + rule.Priority/10,
				Reasoning:  []string{fmt.Sprintf("Matched rule: %q based on keywords", rule.Name)},
			}
		}
	}

	return Classification{
		Category:   models.CategoryOtherExpenses,
		Confidence: 30,
		Reasoning:  []string{"No matching classification rule found"},
	}
}

// incomeKeywords mark an incoming payment as client revenue when no
// contract amount matches.
var incomeKeywords = []string{"invoice", "payment", "client", "project", "service", "consulting"}

// classifyIncome matches incoming money against active recurring
// contracts, then falls back to keyword detection.
func (s *classifier) classifyIncome(tx *models.ProviderTransaction) Classification {
	searchText := strings.ToLower(tx.SearchText())

	var contracts []models.Contract
	err := s.db.Where("status = ? AND type IN ?",
		models.ContractStatusActive,
		[]models.ContractType{models.ContractTypeMonthly, models.ContractTypeYearly}).
		Find(&contracts).Error
	if err != nil {
		logger.Get().Errorw("failed to load contracts for income matching", "error", err, "external_id", tx.ExternalID)
		return Classification{
			Category:    models.CategoryOtherIncome,
			Confidence:  0,
			NeedsReview: true,
			Reasoning:   []string{"Error during classification"},
		}
	}

	for _, contract := range contracts {
		if !contract.Amount.IsPositive() {
			continue
		}
		diffPercent := tx.Amount.Sub(contract.Amount).Abs().Div(contract.Amount).Mul(decimal.NewFromInt(100))
		if diffPercent.GreaterThanOrEqual(decimal.NewFromInt(5)) {
			continue
		}

		// Fuzzy client-name check: either the client appears in the
		// transaction text, or the text's first word appears in the
		// client name.
		clientName := strings.ToLower(contract.ClientName)
		firstWord := strings.SplitN(searchText, " ", 2)[0]
		if strings.Contains(searchText, clientName) || (firstWord != "" && strings.Contains(clientName, firstWord)) {
			return Classification{
				Category:   models.CategoryClientPayment,
				Confidence: 90,
				Reasoning:  []string{fmt.Sprintf("Matched contract: %s (%s ~ %s)", contract.ClientName, tx.Amount, contract.Amount)},
			}
		}

		return Classification{
			Category:   models.CategoryClientPayment,
			Confidence: 70,
			Reasoning:  []string{fmt.Sprintf("Amount matches contract: %s", contract.ClientName)},
		}
	}

	var matched []string
	for _, kw := range incomeKeywords {
		if strings.Contains(searchText, kw) {
			matched = append(matched, kw)
		}
	}
	if len(matched) > 0 {
		return Classification{
			Category:   models.CategoryClientPayment,
			Confidence: 60,
			Reasoning:  []string{fmt.Sprintf("Keywords found: %s", strings.Join(matched, ", "))},
		}
	}

	return Classification{
		Category:   models.CategoryOtherIncome,
		Confidence: 50,
		Reasoning:  []string{"Incoming payment with no specific classification"},
	}
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
