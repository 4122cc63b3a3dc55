package enrich

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"findocs-backend/internal/docparse"
)

const (
	maxTransactions = 200
	amountTolerance = 0.01
)

// Period is the statement date range inferred from the text.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Transaction is one recognized line item.
type Transaction struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// Validation is one cross-check outcome.
type Validation struct {
	Check   string `json:"check"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// Enrichment is the derived structured view layered on top of the first-pass
// summary. All parts are optional.
type Enrichment struct {
	Period       *Period       `json:"period,omitempty"`
	Transactions []Transaction `json:"transactions,omitempty"`
	Validations  []Validation  `json:"validations,omitempty"`
}

const fullDateToken = `20\d{2}[-/.]\d{1,2}[-/.]\d{1,2}|\d{1,2}[-/.]\d{1,2}[-/.]20\d{2}`

var (
	fullDateRe = regexp.MustCompile(`\b(` + fullDateToken + `)\b`)
	txLineRe   = regexp.MustCompile(`^(` + fullDateToken + `|\d{1,2}[-/.]\d{1,2})\s+(.{3,}?)\s+\(?-?\$?([0-9][0-9,]*\.\d{2})\)?$`)
)

// Layouts are matched after normalizing separators to "/".
var dateLayouts = []string{"2006/1/2", "1/2/2006"}

// Enrich derives a statement period, transaction-like rows, and validation
// flags from the raw text. A panic anywhere in the pass is converted into an
// error; the caller treats any error as "no enrichment", never as a pipeline
// failure.
func Enrich(text string, summary docparse.Summary) (out Enrichment, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("enrich panic: %v", rec)
		}
	}()

	lines := docparse.SplitLines(text)

	out.Period = derivePeriod(lines)
	out.Transactions = deriveTransactions(lines)
	out.Validations = crossValidate(summary, out.Period, out.Transactions)
	return out, nil
}

// derivePeriod takes the earliest and latest parseable date tokens. A single
// date is not a range.
func derivePeriod(lines []string) *Period {
	var earliest, latest time.Time
	seen := 0
	for _, line := range lines {
		for _, token := range fullDateRe.FindAllString(line, -1) {
			parsed, ok := parseDate(token)
			if !ok {
				continue
			}
			if seen == 0 || parsed.Before(earliest) {
				earliest = parsed
			}
			if seen == 0 || parsed.After(latest) {
				latest = parsed
			}
			seen++
		}
	}
	if seen < 2 || earliest.Equal(latest) {
		return nil
	}
	return &Period{
		Start: earliest.Format("2006-01-02"),
		End:   latest.Format("2006-01-02"),
	}
}

func deriveTransactions(lines []string) []Transaction {
	var out []Transaction
	for _, line := range lines {
		m := txLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		desc := strings.TrimSpace(m[2])
		if len(desc) > 60 {
			desc = desc[:60]
		}
		out = append(out, Transaction{
			Date:        m[1],
			Description: desc,
			Amount:      m[3],
		})
		if len(out) >= maxTransactions {
			break
		}
	}
	return out
}

func crossValidate(summary docparse.Summary, period *Period, txs []Transaction) []Validation {
	var out []Validation

	if summary.Total != nil && len(txs) > 0 {
		declared, okDeclared := parseAmount(*summary.Total)
		var sum float64
		okSum := true
		for _, tx := range txs {
			v, ok := parseAmount(tx.Amount)
			if !ok {
				okSum = false
				break
			}
			sum += v
		}
		if okDeclared && okSum {
			passed := math.Abs(declared-sum) <= amountTolerance
			out = append(out, Validation{
				Check:   "total-matches-transactions",
				Passed:  passed,
				Message: fmt.Sprintf("declared=%.2f sum=%.2f", declared, sum),
			})
		}
	}

	if period != nil && len(txs) > 0 {
		start, okStart := parseDate(period.Start)
		end, okEnd := parseDate(period.End)
		if okStart && okEnd {
			passed := true
			for _, tx := range txs {
				d, ok := parseDate(tx.Date)
				if !ok {
					// month/day rows carry no year; skip them
					continue
				}
				if d.Before(start) || d.After(end) {
					passed = false
					break
				}
			}
			out = append(out, Validation{Check: "transactions-within-period", Passed: passed})
		}
	}

	return out
}

func parseDate(token string) (time.Time, bool) {
	normalized := strings.NewReplacer(".", "/", "-", "/").Replace(token)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseAmount(raw string) (float64, bool) {
	clean := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	clean = strings.TrimPrefix(clean, "$")
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
