package docparse

import (
	"regexp"
	"strings"
)

// Document categories. DocTypeOther is the default.
const (
	DocTypeBankStatement = "bank-statement"
	DocTypeCreditCard    = "credit-card"
	DocTypeInvoice       = "invoice"
	DocTypeReceipt       = "receipt"
	DocTypeTaxDocument   = "tax-document"
	DocTypePaystub       = "paystub"
	DocTypeOther         = "other"
)

// typeRule pairs a pattern with the category it implies. Rules are evaluated
// in order and the first match wins, so specific cues must come before
// generic ones: a credit-card statement must hit the credit-card rule before
// any bare "statement" cue can claim it.
type typeRule struct {
	match   *regexp.Regexp
	also    *regexp.Regexp // optional second cue that must also match
	docType string
}

var typeRules = []typeRule{
	{match: regexp.MustCompile(`(bank|checking|savings)\s+statement`), docType: DocTypeBankStatement},
	{match: regexp.MustCompile(`credit\s+card`), docType: DocTypeCreditCard},
	{match: regexp.MustCompile(`statement`), also: regexp.MustCompile(`balance`), docType: DocTypeBankStatement},
	{match: regexp.MustCompile(`invoice`), docType: DocTypeInvoice},
	{match: regexp.MustCompile(`receipt`), docType: DocTypeReceipt},
	{match: regexp.MustCompile(`tax\s+return|1040|w-?2`), docType: DocTypeTaxDocument},
	{match: regexp.MustCompile(`pay\s*stub|payroll`), docType: DocTypePaystub},
}

// Classify guesses a document category from its text content. The file name
// is only consulted when the text itself matches nothing.
func Classify(text, fileName string) string {
	if t := matchRules(strings.ToLower(text)); t != "" {
		return t
	}
	if t := matchRules(strings.ToLower(fileName)); t != "" {
		return t
	}
	return DocTypeOther
}

func matchRules(lowered string) string {
	if lowered == "" {
		return ""
	}
	for _, r := range typeRules {
		if !r.match.MatchString(lowered) {
			continue
		}
		if r.also != nil && !r.also.MatchString(lowered) {
			continue
		}
		return r.docType
	}
	return ""
}
