package enrich

import (
	"testing"

	"findocs-backend/internal/docparse"
)

const statementText = `ACME Bank Statement
Account: 00123456
Period 2025-01-01 through 2025-01-31

2025-01-05 Coffee Shop 4.50
2025-01-12 Grocery Store 95.25
2025-01-20 Utility Payment 100.25

Total: 200.00
`

func TestEnrichStatement(t *testing.T) {
	summary := docparse.ParseFields(statementText)
	got, err := Enrich(statementText, summary)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}

	if got.Period == nil {
		t.Fatalf("expected period")
	}
	if got.Period.Start != "2025-01-01" || got.Period.End != "2025-01-31" {
		t.Fatalf("period = %+v", got.Period)
	}

	if len(got.Transactions) != 3 {
		t.Fatalf("transactions = %+v", got.Transactions)
	}
	if got.Transactions[0].Description != "Coffee Shop" || got.Transactions[0].Amount != "4.50" {
		t.Fatalf("first transaction = %+v", got.Transactions[0])
	}

	var totalCheck *Validation
	for i := range got.Validations {
		if got.Validations[i].Check == "total-matches-transactions" {
			totalCheck = &got.Validations[i]
		}
	}
	if totalCheck == nil {
		t.Fatalf("expected total cross-check, got %+v", got.Validations)
	}
	if !totalCheck.Passed {
		t.Fatalf("expected declared total 200.00 to match sum, got %+v", totalCheck)
	}
}

func TestEnrichFlagsTotalMismatch(t *testing.T) {
	text := `Statement
2025-02-01 Item A 10.00
2025-02-02 Item B 20.00
Total: 99.99
`
	got, err := Enrich(text, docparse.ParseFields(text))
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	found := false
	for _, v := range got.Validations {
		if v.Check == "total-matches-transactions" {
			found = true
			if v.Passed {
				t.Fatalf("expected mismatch flag, got %+v", v)
			}
		}
	}
	if !found {
		t.Fatalf("expected total cross-check, got %+v", got.Validations)
	}
}

func TestEnrichNoDatesNoPeriod(t *testing.T) {
	text := "Receipt\nTotal: 5.00\nThank you\n"
	got, err := Enrich(text, docparse.ParseFields(text))
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if got.Period != nil {
		t.Fatalf("expected nil period, got %+v", got.Period)
	}
	if len(got.Transactions) != 0 {
		t.Fatalf("expected no transactions, got %+v", got.Transactions)
	}
}

func TestEnrichShortDateRows(t *testing.T) {
	text := `Card Statement balance
01/05 GROCERY STORE 23.10
01/07 GAS STATION 40.00
`
	got, err := Enrich(text, docparse.Summary{})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(got.Transactions) != 2 {
		t.Fatalf("transactions = %+v", got.Transactions)
	}
	if got.Transactions[1].Date != "01/07" {
		t.Fatalf("second date = %q", got.Transactions[1].Date)
	}
}

func TestEnrichEmptyText(t *testing.T) {
	got, err := Enrich("", docparse.Summary{})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if got.Period != nil || got.Transactions != nil || got.Validations != nil {
		t.Fatalf("expected zero enrichment, got %+v", got)
	}
}
