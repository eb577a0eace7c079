// Package postgres implements the ETL write contract against PostgreSQL
// using pgx. Bulk loads go through the COPY protocol inside a single
// transaction per batch, so a failed write never leaves a partially loaded
// fiscal year behind.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snapanalyst/snapqc/internal/etl"
)

// DefaultBatchSize is the number of rows per COPY call.
const DefaultBatchSize = 10000

// Writer writes transformed batches to the normalized tables.
type Writer struct {
	pool      *pgxpool.Pool
	batchSize int
}

// NewWriter creates a writer on the given pool. batchSize <= 0 selects the
// default.
func NewWriter(pool *pgxpool.Pool, batchSize int) *Writer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	slog.Info("database writer initialized", "batch_size", batchSize)
	return &Writer{pool: pool, batchSize: batchSize}
}

var householdColumns = []string{
	"case_id", "fiscal_year", "case_classification",
	"region_code", "state_code", "state_name", "year_month", "status", "stratum",
	"raw_household_size", "certified_household_size", "snap_unit_size",
	"num_noncitizens", "num_disabled", "num_elderly", "num_children", "composition_code",
	"gross_income", "net_income", "earned_income", "unearned_income",
	"liquid_resources", "real_property", "vehicle_assets", "total_assets",
	"standard_deduction", "earned_income_deduction", "dependent_care_deduction",
	"medical_deduction", "shelter_deduction", "total_deductions",
	"rent", "utilities", "shelter_expense", "homeless_deduction",
	"snap_benefit", "raw_benefit", "maximum_benefit", "minimum_benefit",
	"categorical_eligibility", "expedited_service", "certification_month", "last_certification_date",
	"poverty_level", "working_poor_indicator", "tanf_indicator",
	"amount_error", "gross_test_result", "net_test_result",
	"household_weight", "fiscal_year_weight",
}

var memberColumns = []string{
	"case_id", "fiscal_year", "member_number",
	"snap_affiliation_code", "age", "sex", "race_ethnicity", "relationship_to_head",
	"citizenship_status", "years_education",
	"disability_indicator", "foster_child_indicator", "work_registration_status",
	"abawd_status", "working_indicator",
	"employment_region", "employment_status_a", "employment_status_b",
	"wages", "self_employment_income", "earned_income_tax_credit", "other_earned_income",
	"social_security", "ssi", "veterans_benefits", "unemployment", "workers_compensation",
	"tanf", "child_support", "general_assistance", "education_loans",
	"other_government_income", "contributions", "deemed_income", "other_unearned_income",
	"dependent_care_cost", "energy_assistance", "wage_supplement", "diversion_payment",
}

var qcErrorColumns = []string{
	"case_id", "fiscal_year", "error_number",
	"element_code", "nature_code", "responsible_agency", "error_amount",
	"discovery_method", "verification_status", "occurrence_date", "time_period", "error_finding",
}

// WriteAll writes households, members and QC errors in one transaction.
// All three tables commit together; any failure rolls everything back.
func (w *Writer) WriteAll(ctx context.Context, households []etl.Household, members []etl.Member, qcErrors []etl.QCError, fiscalYear int) (etl.WriteStats, error) {
	slog.Info("starting bulk write",
		"fiscal_year", fiscalYear,
		"households", len(households),
		"members", len(members),
		"qc_errors", len(qcErrors),
	)

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return etl.WriteStats{}, &etl.DatabaseError{Op: "begin", Err: err}
	}
	defer tx.Rollback(ctx) // no-op once committed

	hhWritten, err := w.copyRows(ctx, tx, "households", householdColumns, len(households), func(i int) []any {
		return householdRow(&households[i], fiscalYear)
	})
	if err != nil {
		return etl.WriteStats{}, err
	}

	memWritten, err := w.copyRows(ctx, tx, "household_members", memberColumns, len(members), func(i int) []any {
		return memberRow(&members[i], fiscalYear)
	})
	if err != nil {
		return etl.WriteStats{}, err
	}

	errWritten, err := w.copyRows(ctx, tx, "qc_errors", qcErrorColumns, len(qcErrors), func(i int) []any {
		return qcErrorRow(&qcErrors[i], fiscalYear)
	})
	if err != nil {
		return etl.WriteStats{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return etl.WriteStats{}, classify("commit", "", err)
	}

	stats := etl.WriteStats{
		HouseholdsWritten: hhWritten,
		MembersWritten:    memWritten,
		ErrorsWritten:     errWritten,
		TotalRecords:      hhWritten + memWritten + errWritten,
	}

	slog.Info("bulk write complete",
		"households", stats.HouseholdsWritten,
		"members", stats.MembersWritten,
		"qc_errors", stats.ErrorsWritten,
		"total", stats.TotalRecords,
	)
	return stats, nil
}

// copyRows streams rows into a table via COPY, batchSize rows per call.
func (w *Writer) copyRows(ctx context.Context, tx pgx.Tx, table string, columns []string, total int, row func(i int) []any) (int, error) {
	if total == 0 {
		return 0, nil
	}

	written := 0
	for start := 0; start < total; start += w.batchSize {
		end := start + w.batchSize
		if end > total {
			end = total
		}

		rows := make([][]any, 0, end-start)
		for i := start; i < end; i++ {
			rows = append(rows, row(i))
		}

		n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
		if err != nil {
			return written, classify("copy", table, err)
		}
		written += int(n)

		if written%(w.batchSize*2) == 0 {
			slog.Info("bulk write progress", "table", table, "written", written, "total", total)
		}
	}
	return written, nil
}

// classify maps a pgx error onto the typed taxonomy the Loader consumes.
// SQLSTATE class 23 covers integrity violations.
func classify(op, table string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		kind := etl.ConstraintOther
		switch pgErr.Code {
		case "23503":
			kind = etl.ConstraintForeignKey
		case "23505":
			kind = etl.ConstraintUnique
		case "23514":
			kind = etl.ConstraintCheck
		}
		if kind != etl.ConstraintOther || strings.HasPrefix(pgErr.Code, "23") {
			t := pgErr.TableName
			if t == "" {
				t = table
			}
			return &etl.ConstraintViolation{
				Kind:       kind,
				Table:      t,
				Constraint: pgErr.ConstraintName,
				Err:        err,
			}
		}
	}
	return &etl.DatabaseError{Op: fmt.Sprintf("%s %s", op, table), Err: err}
}

// Null handling mirrors the schema: nullable columns get nil, NOT NULL
// money columns with a zero default get 0 when the source had no value.

func text(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func num(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func numOrZero(p *float64) any {
	if p == nil {
		return 0.0
	}
	return *p
}

func code(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func flag(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}

func householdRow(h *etl.Household, fiscalYear int) []any {
	return []any{
		h.CaseID, fiscalYear, code(h.CaseClassification),
		text(h.RegionCode), text(h.StateCode), text(h.StateName), text(h.YearMonth), code(h.Status), text(h.Stratum),
		code(h.RawHouseholdSize), code(h.CertifiedHouseholdSize), code(h.SnapUnitSize),
		code(h.NumNoncitizens), code(h.NumDisabled), code(h.NumElderly), code(h.NumChildren), text(h.CompositionCode),
		num(h.GrossIncome), num(h.NetIncome), num(h.EarnedIncome), num(h.UnearnedIncome),
		num(h.LiquidResources), num(h.RealProperty), num(h.VehicleAssets), num(h.TotalAssets),
		num(h.StandardDeduction), num(h.EarnedIncomeDeduction), num(h.DependentCareDeduction),
		num(h.MedicalDeduction), num(h.ShelterDeduction), num(h.TotalDeductions),
		num(h.Rent), num(h.Utilities), num(h.ShelterExpense), num(h.HomelessDeduction),
		num(h.SnapBenefit), num(h.RawBenefit), num(h.MaximumBenefit), num(h.MinimumBenefit),
		code(h.CategoricalEligibility), code(h.ExpeditedService), text(h.CertificationMonth), code(h.LastCertificationDate),
		num(h.PovertyLevel), flag(h.WorkingPoorIndicator), flag(h.TanfIndicator),
		num(h.AmountError), code(h.GrossTestResult), code(h.NetTestResult),
		num(h.HouseholdWeight), num(h.FiscalYearWeight),
	}
}

func memberRow(m *etl.Member, fiscalYear int) []any {
	return []any{
		m.CaseID, fiscalYear, m.MemberNumber,
		code(m.SnapAffiliationCode), code(m.Age), code(m.Sex), code(m.RaceEthnicity), code(m.RelationshipToHead),
		code(m.CitizenshipStatus), code(m.YearsEducation),
		code(m.DisabilityIndicator), code(m.FosterChildIndicator), code(m.WorkRegistrationStatus),
		code(m.AbawdStatus), code(m.WorkingIndicator),
		code(m.EmploymentRegion), code(m.EmploymentStatusA), code(m.EmploymentStatusB),
		numOrZero(m.Wages), numOrZero(m.SelfEmploymentIncome), numOrZero(m.EarnedIncomeTaxCredit), numOrZero(m.OtherEarnedIncome),
		numOrZero(m.SocialSecurity), numOrZero(m.SSI), numOrZero(m.VeteransBenefits), numOrZero(m.Unemployment), numOrZero(m.WorkersCompensation),
		numOrZero(m.Tanf), numOrZero(m.ChildSupport), numOrZero(m.GeneralAssistance), numOrZero(m.EducationLoans),
		numOrZero(m.OtherGovernmentIncome), numOrZero(m.Contributions), numOrZero(m.DeemedIncome), numOrZero(m.OtherUnearnedIncome),
		numOrZero(m.DependentCareCost), numOrZero(m.EnergyAssistance), numOrZero(m.WageSupplement), numOrZero(m.DiversionPayment),
	}
}

func qcErrorRow(e *etl.QCError, fiscalYear int) []any {
	return []any{
		e.CaseID, fiscalYear, e.ErrorNumber,
		code(e.ElementCode), code(e.NatureCode), code(e.ResponsibleAgency), numOrZero(e.ErrorAmount),
		code(e.DiscoveryMethod), code(e.VerificationStatus), code(e.OccurrenceDate), text(e.TimePeriod), code(e.ErrorFinding),
	}
}
