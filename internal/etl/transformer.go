package etl

import (
	"log/slog"
	"strconv"

	"github.com/snapanalyst/snapqc/internal/mapping"
)

// Transformer unpivots wide-format tables into normalized household, member
// and QC error records. Transform is a pure function over its input; the
// fiscal year given at construction is stamped onto every household.
type Transformer struct {
	fiscalYear int
}

// NewTransformer creates a transformer for the given fiscal year.
func NewTransformer(fiscalYear int) *Transformer {
	slog.Info("transformer initialized", "fiscal_year", fiscalYear)
	return &Transformer{fiscalYear: fiscalYear}
}

// Transform converts one wide table into its three normalized batches.
// Member and error slots whose columns are absent from the schema are
// skipped up front; present slots emit one record per row satisfying the
// presence rule. Empty batches come back as empty (non-nil) slices.
func (t *Transformer) Transform(tbl *Table) ([]Household, []Member, []QCError) {
	slog.Info("transforming rows", "rows", tbl.Len())

	caseIDs := caseIdentifiers(tbl)

	households := t.extractHouseholds(tbl, caseIDs)
	members := extractMembers(tbl, caseIDs)
	qcErrors := extractErrors(tbl, caseIDs)

	slog.Info("transformation complete",
		"households", len(households),
		"members", len(members),
		"errors", len(qcErrors),
	)

	return households, members, qcErrors
}

// caseIdentifiers resolves the case id for every row. When the identifier
// column is absent from the source, ids are synthesized from the 1-based
// row offset.
func caseIdentifiers(tbl *Table) []string {
	ids := make([]string, tbl.Len())
	pos := tbl.Col(mapping.CaseIDColumn)
	for i := range ids {
		if pos >= 0 {
			ids[i] = toText(tbl.Cell(i, pos))
		} else {
			ids[i] = strconv.Itoa(i + 1)
		}
	}
	return ids
}

// householdSetter binds a resolved column position to the field assignment
// for one mapped household column.
type householdSetter struct {
	pos int
	set func(*Household, string)
}

func (t *Transformer) extractHouseholds(tbl *Table, caseIDs []string) []Household {
	// Resolve the column map once per call; per-row work is then direct
	// slice indexing.
	setters := make([]householdSetter, 0, len(mapping.HouseholdFields))
	for _, f := range mapping.HouseholdFields {
		if f.Source == mapping.CaseIDColumn {
			continue // handled via caseIDs
		}
		pos := tbl.Col(f.Source)
		if pos < 0 {
			continue
		}
		if set, ok := householdFieldSetters[f.Target]; ok {
			setters = append(setters, householdSetter{pos: pos, set: set})
		}
	}

	households := make([]Household, tbl.Len())
	for i := range households {
		h := Household{CaseID: caseIDs[i], FiscalYear: t.fiscalYear}
		for _, s := range setters {
			s.set(&h, tbl.Cell(i, s.pos))
		}
		households[i] = h
	}
	return households
}

// memberSlot holds the resolved columns for one of the 17 person slots.
type memberSlot struct {
	number   int
	affilPos int
	setters  []memberSetter
}

type memberSetter struct {
	pos int
	set func(*Member, string)
}

func extractMembers(tbl *Table, caseIDs []string) []Member {
	// Slots whose affiliation column is missing from the schema entirely
	// are dropped here, so the row loop below only visits live slots.
	var slots []memberSlot
	for n := 1; n <= mapping.MaxMembers; n++ {
		affilPos := tbl.Col(mapping.PersonColumn(mapping.AffiliationBase, n))
		if affilPos < 0 {
			continue
		}
		slot := memberSlot{number: n, affilPos: affilPos}
		for _, f := range mapping.PersonFields {
			pos := tbl.Col(mapping.PersonColumn(f.Source, n))
			if pos < 0 {
				continue
			}
			if set, ok := memberFieldSetters[f.Target]; ok {
				slot.setters = append(slot.setters, memberSetter{pos: pos, set: set})
			}
		}
		slots = append(slots, slot)
	}

	members := make([]Member, 0)
	for _, slot := range slots {
		for row := range caseIDs {
			if IsNull(tbl.Cell(row, slot.affilPos)) {
				continue // slot not populated for this household
			}
			m := Member{CaseID: caseIDs[row], MemberNumber: slot.number}
			for _, s := range slot.setters {
				s.set(&m, tbl.Cell(row, s.pos))
			}
			members = append(members, m)
		}
	}

	slog.Debug("extracted members", "count", len(members))
	return members
}

type errorSlot struct {
	number     int
	elementPos int
	setters    []errorSetter
}

type errorSetter struct {
	pos int
	set func(*QCError, string)
}

func extractErrors(tbl *Table, caseIDs []string) []QCError {
	var slots []errorSlot
	for n := 1; n <= mapping.MaxErrors; n++ {
		elementPos := tbl.Col(mapping.ErrorColumn(mapping.ElementBase, n))
		if elementPos < 0 {
			continue
		}
		slot := errorSlot{number: n, elementPos: elementPos}
		for _, f := range mapping.ErrorFields {
			pos := tbl.Col(mapping.ErrorColumn(f.Source, n))
			if pos < 0 {
				continue
			}
			if set, ok := errorFieldSetters[f.Target]; ok {
				slot.setters = append(slot.setters, errorSetter{pos: pos, set: set})
			}
		}
		slots = append(slots, slot)
	}

	qcErrors := make([]QCError, 0)
	for _, slot := range slots {
		for row := range caseIDs {
			if IsNull(tbl.Cell(row, slot.elementPos)) {
				continue
			}
			e := QCError{CaseID: caseIDs[row], ErrorNumber: slot.number}
			for _, s := range slot.setters {
				s.set(&e, tbl.Cell(row, s.pos))
			}
			qcErrors = append(qcErrors, e)
		}
	}

	slog.Debug("extracted errors", "count", len(qcErrors))
	return qcErrors
}

// householdFieldSetters maps normalized household field names to their
// struct assignments, including the type coercion each field needs.
var householdFieldSetters = map[string]func(*Household, string){
	"case_classification": func(h *Household, v string) { h.CaseClassification = toIntPtr(v) },
	"region_code":         func(h *Household, v string) { h.RegionCode = toText(v) },
	"state_code":          func(h *Household, v string) { h.StateCode = toText(v) },
	"state_name":          func(h *Household, v string) { h.StateName = toText(v) },
	"year_month":          func(h *Household, v string) { h.YearMonth = toText(v) },
	"status":              func(h *Household, v string) { h.Status = toIntPtr(v) },
	"stratum":             func(h *Household, v string) { h.Stratum = toText(v) },

	"raw_household_size":       func(h *Household, v string) { h.RawHouseholdSize = toIntPtr(v) },
	"certified_household_size": func(h *Household, v string) { h.CertifiedHouseholdSize = toIntPtr(v) },
	"snap_unit_size":           func(h *Household, v string) { h.SnapUnitSize = toIntPtr(v) },
	"num_noncitizens":          func(h *Household, v string) { h.NumNoncitizens = toIntPtr(v) },
	"num_disabled":             func(h *Household, v string) { h.NumDisabled = toIntPtr(v) },
	"num_elderly":              func(h *Household, v string) { h.NumElderly = toIntPtr(v) },
	"num_children":             func(h *Household, v string) { h.NumChildren = toIntPtr(v) },
	"composition_code":         func(h *Household, v string) { h.CompositionCode = toText(v) },

	"gross_income":    func(h *Household, v string) { h.GrossIncome = toFloatPtr(v) },
	"net_income":      func(h *Household, v string) { h.NetIncome = toFloatPtr(v) },
	"earned_income":   func(h *Household, v string) { h.EarnedIncome = toFloatPtr(v) },
	"unearned_income": func(h *Household, v string) { h.UnearnedIncome = toFloatPtr(v) },

	"liquid_resources": func(h *Household, v string) { h.LiquidResources = toFloatPtr(v) },
	"real_property":    func(h *Household, v string) { h.RealProperty = toFloatPtr(v) },
	"vehicle_assets":   func(h *Household, v string) { h.VehicleAssets = toFloatPtr(v) },
	"total_assets":     func(h *Household, v string) { h.TotalAssets = toFloatPtr(v) },

	"standard_deduction":       func(h *Household, v string) { h.StandardDeduction = toFloatPtr(v) },
	"earned_income_deduction":  func(h *Household, v string) { h.EarnedIncomeDeduction = toFloatPtr(v) },
	"dependent_care_deduction": func(h *Household, v string) { h.DependentCareDeduction = toFloatPtr(v) },
	"medical_deduction":        func(h *Household, v string) { h.MedicalDeduction = toFloatPtr(v) },
	"shelter_deduction":        func(h *Household, v string) { h.ShelterDeduction = toFloatPtr(v) },
	"total_deductions":         func(h *Household, v string) { h.TotalDeductions = toFloatPtr(v) },

	"rent":               func(h *Household, v string) { h.Rent = toFloatPtr(v) },
	"utilities":          func(h *Household, v string) { h.Utilities = toFloatPtr(v) },
	"shelter_expense":    func(h *Household, v string) { h.ShelterExpense = toFloatPtr(v) },
	"homeless_deduction": func(h *Household, v string) { h.HomelessDeduction = toFloatPtr(v) },

	"snap_benefit":    func(h *Household, v string) { h.SnapBenefit = toFloatPtr(v) },
	"raw_benefit":     func(h *Household, v string) { h.RawBenefit = toFloatPtr(v) },
	"maximum_benefit": func(h *Household, v string) { h.MaximumBenefit = toFloatPtr(v) },
	"minimum_benefit": func(h *Household, v string) { h.MinimumBenefit = toFloatPtr(v) },

	"categorical_eligibility": func(h *Household, v string) { h.CategoricalEligibility = toIntPtr(v) },
	"expedited_service":       func(h *Household, v string) { h.ExpeditedService = toIntPtr(v) },
	"certification_month":     func(h *Household, v string) { h.CertificationMonth = toText(v) },
	"last_certification_date": func(h *Household, v string) { h.LastCertificationDate = toIntPtr(v) },

	"poverty_level":          func(h *Household, v string) { h.PovertyLevel = toFloatPtr(v) },
	"working_poor_indicator": func(h *Household, v string) { h.WorkingPoorIndicator = toBoolPtr(v) },
	"tanf_indicator":         func(h *Household, v string) { h.TanfIndicator = toBoolPtr(v) },

	"amount_error":      func(h *Household, v string) { h.AmountError = toFloatPtr(v) },
	"gross_test_result": func(h *Household, v string) { h.GrossTestResult = toIntPtr(v) },
	"net_test_result":   func(h *Household, v string) { h.NetTestResult = toIntPtr(v) },

	"household_weight":   func(h *Household, v string) { h.HouseholdWeight = toFloatPtr(v) },
	"fiscal_year_weight": func(h *Household, v string) { h.FiscalYearWeight = toFloatPtr(v) },
}

var memberFieldSetters = map[string]func(*Member, string){
	"snap_affiliation_code": func(m *Member, v string) { m.SnapAffiliationCode = toIntPtr(v) },
	"age":                   func(m *Member, v string) { m.Age = toIntPtr(v) },
	"sex":                   func(m *Member, v string) { m.Sex = toIntPtr(v) },
	"race_ethnicity":        func(m *Member, v string) { m.RaceEthnicity = toIntPtr(v) },
	"relationship_to_head":  func(m *Member, v string) { m.RelationshipToHead = toIntPtr(v) },
	"citizenship_status":    func(m *Member, v string) { m.CitizenshipStatus = toIntPtr(v) },
	"years_education":       func(m *Member, v string) { m.YearsEducation = toIntPtr(v) },

	"disability_indicator":     func(m *Member, v string) { m.DisabilityIndicator = toIntPtr(v) },
	"foster_child_indicator":   func(m *Member, v string) { m.FosterChildIndicator = toIntPtr(v) },
	"work_registration_status": func(m *Member, v string) { m.WorkRegistrationStatus = toIntPtr(v) },
	"abawd_status":             func(m *Member, v string) { m.AbawdStatus = toIntPtr(v) },
	"working_indicator":        func(m *Member, v string) { m.WorkingIndicator = toIntPtr(v) },

	"employment_region":   func(m *Member, v string) { m.EmploymentRegion = toIntPtr(v) },
	"employment_status_a": func(m *Member, v string) { m.EmploymentStatusA = toIntPtr(v) },
	"employment_status_b": func(m *Member, v string) { m.EmploymentStatusB = toIntPtr(v) },

	"wages":                    func(m *Member, v string) { m.Wages = toFloatPtr(v) },
	"self_employment_income":   func(m *Member, v string) { m.SelfEmploymentIncome = toFloatPtr(v) },
	"earned_income_tax_credit": func(m *Member, v string) { m.EarnedIncomeTaxCredit = toFloatPtr(v) },
	"other_earned_income":      func(m *Member, v string) { m.OtherEarnedIncome = toFloatPtr(v) },

	"social_security":          func(m *Member, v string) { m.SocialSecurity = toFloatPtr(v) },
	"ssi":                      func(m *Member, v string) { m.SSI = toFloatPtr(v) },
	"veterans_benefits":        func(m *Member, v string) { m.VeteransBenefits = toFloatPtr(v) },
	"unemployment":             func(m *Member, v string) { m.Unemployment = toFloatPtr(v) },
	"workers_compensation":     func(m *Member, v string) { m.WorkersCompensation = toFloatPtr(v) },
	"tanf":                     func(m *Member, v string) { m.Tanf = toFloatPtr(v) },
	"child_support":            func(m *Member, v string) { m.ChildSupport = toFloatPtr(v) },
	"general_assistance":       func(m *Member, v string) { m.GeneralAssistance = toFloatPtr(v) },
	"education_loans":          func(m *Member, v string) { m.EducationLoans = toFloatPtr(v) },
	"other_government_income":  func(m *Member, v string) { m.OtherGovernmentIncome = toFloatPtr(v) },
	"contributions":            func(m *Member, v string) { m.Contributions = toFloatPtr(v) },
	"deemed_income":            func(m *Member, v string) { m.DeemedIncome = toFloatPtr(v) },
	"other_unearned_income":    func(m *Member, v string) { m.OtherUnearnedIncome = toFloatPtr(v) },

	"dependent_care_cost": func(m *Member, v string) { m.DependentCareCost = toFloatPtr(v) },
	"energy_assistance":   func(m *Member, v string) { m.EnergyAssistance = toFloatPtr(v) },
	"wage_supplement":     func(m *Member, v string) { m.WageSupplement = toFloatPtr(v) },
	"diversion_payment":   func(m *Member, v string) { m.DiversionPayment = toFloatPtr(v) },
}

var errorFieldSetters = map[string]func(*QCError, string){
	"element_code":        func(e *QCError, v string) { e.ElementCode = toIntPtr(v) },
	"nature_code":         func(e *QCError, v string) { e.NatureCode = toIntPtr(v) },
	"responsible_agency":  func(e *QCError, v string) { e.ResponsibleAgency = toIntPtr(v) },
	"error_amount":        func(e *QCError, v string) { e.ErrorAmount = toFloatPtr(v) },
	"discovery_method":    func(e *QCError, v string) { e.DiscoveryMethod = toIntPtr(v) },
	"verification_status": func(e *QCError, v string) { e.VerificationStatus = toIntPtr(v) },
	"occurrence_date":     func(e *QCError, v string) { e.OccurrenceDate = toIntPtr(v) },
	"time_period":         func(e *QCError, v string) { e.TimePeriod = toText(v) },
	"error_finding":       func(e *QCError, v string) { e.ErrorFinding = toIntPtr(v) },
}
