package etl

import (
	"fmt"
	"log/slog"

	"github.com/snapanalyst/snapqc/internal/mapping"
)

// ValidationResult collects categorized findings from a validation pass.
// Validation is advisory: results are returned, never raised, and no
// record is dropped or modified here.
type ValidationResult struct {
	Errors   []string
	Warnings []string
	Info     []string
}

func (r *ValidationResult) addError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Errors = append(r.Errors, msg)
	slog.Error("validation error", "message", msg)
}

func (r *ValidationResult) addWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	slog.Warn("validation warning", "message", msg)
}

func (r *ValidationResult) addInfo(format string, args ...any) {
	r.Info = append(r.Info, fmt.Sprintf(format, args...))
}

// IsValid reports whether the pass found no errors. Warnings do not affect
// validity.
func (r *ValidationResult) IsValid() bool { return len(r.Errors) == 0 }

// HasWarnings reports whether the pass produced warnings.
func (r *ValidationResult) HasWarnings() bool { return len(r.Warnings) > 0 }

// Validator runs integrity checks over transformed records. The strict flag
// is carried as policy metadata for the caller; the Validator itself only
// reports.
type Validator struct {
	strict bool
}

// NewValidator creates a validator. strict is consulted by the Loader, not
// here.
func NewValidator(strict bool) *Validator {
	return &Validator{strict: strict}
}

// Strict reports the policy flag the validator was built with.
func (v *Validator) Strict() bool { return v.strict }

// ValidateHousehold checks one household record.
func (v *Validator) ValidateHousehold(h *Household) *ValidationResult {
	result := &ValidationResult{}

	if h.CaseID == "" {
		result.addError("Missing case_id")
	}
	if h.FiscalYear == 0 {
		result.addError("Missing fiscal_year")
	}

	if h.SnapBenefit != nil && *h.SnapBenefit < 0 {
		result.addError("Negative SNAP benefit: %v", *h.SnapBenefit)
	}

	if h.CertifiedHouseholdSize != nil {
		size := *h.CertifiedHouseholdSize
		if size < 1 {
			result.addError("Invalid household size: %d", size)
		}
		if size > 20 {
			result.addWarning("Unusually large household: %d", size)
		}
	}

	if h.GrossIncome != nil && h.NetIncome != nil && *h.GrossIncome < *h.NetIncome {
		result.addError("Gross income (%v) < net income (%v)", *h.GrossIncome, *h.NetIncome)
	}

	incomes := []struct {
		name  string
		value *float64
	}{
		{"gross_income", h.GrossIncome},
		{"net_income", h.NetIncome},
		{"earned_income", h.EarnedIncome},
		{"unearned_income", h.UnearnedIncome},
	}
	for _, f := range incomes {
		if f.value != nil && *f.value < 0 {
			result.addError("Negative %s: %v", f.name, *f.value)
		}
	}

	return result
}

// ValidateMember checks one member record.
func (v *Validator) ValidateMember(m *Member) *ValidationResult {
	result := &ValidationResult{}

	if m.CaseID == "" {
		result.addError("Missing case_id for member")
	}
	if m.MemberNumber == 0 {
		result.addError("Missing member_number")
	} else if m.MemberNumber < 1 || m.MemberNumber > mapping.MaxMembers {
		result.addError("Invalid member_number: %d (must be 1-%d)", m.MemberNumber, mapping.MaxMembers)
	}

	if m.Age != nil {
		age := *m.Age
		if age < 0 || age > 120 {
			result.addError("Invalid age: %d (must be 0-120)", age)
		}
		if age > 110 {
			result.addWarning("Unusually high age: %d", age)
		}
	}

	incomes := []struct {
		name  string
		value *float64
	}{
		{"wages", m.Wages},
		{"self_employment_income", m.SelfEmploymentIncome},
		{"social_security", m.SocialSecurity},
		{"ssi", m.SSI},
		{"tanf", m.Tanf},
		{"unemployment", m.Unemployment},
		{"child_support", m.ChildSupport},
		{"veterans_benefits", m.VeteransBenefits},
	}
	for _, f := range incomes {
		if f.value != nil && *f.value < 0 {
			result.addError("Negative %s: %v for member %d", f.name, *f.value, m.MemberNumber)
		}
	}

	return result
}

// ValidateError checks one QC error record.
func (v *Validator) ValidateError(e *QCError) *ValidationResult {
	result := &ValidationResult{}

	if e.CaseID == "" {
		result.addError("Missing case_id for error")
	}
	if e.ErrorNumber == 0 {
		result.addError("Missing error_number")
	} else if e.ErrorNumber < 1 || e.ErrorNumber > mapping.MaxErrors {
		result.addError("Invalid error_number: %d (must be 1-%d)", e.ErrorNumber, mapping.MaxErrors)
	}

	if e.ErrorAmount != nil {
		amount := *e.ErrorAmount
		if amount < 0 {
			result.addWarning("Negative error amount: %v", amount)
		}
		if amount > 100000 {
			result.addWarning("Very large error amount: %v", amount)
		}
	}

	return result
}

// ValidateBatch runs all per-record checks over a transformed batch,
// prefixing every message with the record's role and zero-based index so a
// finding can be traced back inside a large batch.
func (v *Validator) ValidateBatch(households []Household, members []Member, qcErrors []QCError) *ValidationResult {
	result := &ValidationResult{}

	result.addInfo("Validating batch: %d households, %d members, %d errors",
		len(households), len(members), len(qcErrors))

	for i := range households {
		merge(result, "Household", i, v.ValidateHousehold(&households[i]))
	}
	for i := range members {
		merge(result, "Member", i, v.ValidateMember(&members[i]))
	}
	for i := range qcErrors {
		merge(result, "Error", i, v.ValidateError(&qcErrors[i]))
	}

	return result
}

func merge(into *ValidationResult, role string, index int, from *ValidationResult) {
	for _, e := range from.Errors {
		into.Errors = append(into.Errors, fmt.Sprintf("%s %d: %s", role, index, e))
	}
	for _, w := range from.Warnings {
		into.Warnings = append(into.Warnings, fmt.Sprintf("%s %d: %s", role, index, w))
	}
}
