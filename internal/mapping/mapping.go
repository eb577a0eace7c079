// Package mapping defines the wide-format SNAP QC column layout.
//
// Source extracts are one row per household with repeated column groups:
// household-level columns appear once (e.g. FSBEN), person-level columns are
// repeated for member slots 1-17 (WAGES1..WAGES17), and error-level columns
// are repeated for error slots 1-9 (ELEMENT1..ELEMENT9). This package maps
// those source names onto the normalized schema's field names.
package mapping

import "strconv"

// MaxMembers is the number of person slots in the wide format.
const MaxMembers = 17

// MaxErrors is the number of QC error slots in the wide format.
const MaxErrors = 9

// PersonField maps a person-level base variable to its normalized field name.
type PersonField struct {
	Source string // base variable, e.g. "WAGES"
	Target string // normalized name, e.g. "wages"
}

// ErrorField maps an error-level base variable to its normalized field name.
type ErrorField struct {
	Source string
	Target string
}

// HouseholdField maps a household-level column to its normalized field name.
type HouseholdField struct {
	Source string
	Target string
}

// PersonFields lists every person-level variable, repeated per member slot.
var PersonFields = []PersonField{
	// Demographics
	{"FSAFIL", "snap_affiliation_code"},
	{"AGE", "age"},
	{"SEX", "sex"},
	{"RACETH", "race_ethnicity"},
	{"REL", "relationship_to_head"},
	{"CTZN", "citizenship_status"},
	{"YRSED", "years_education"},
	// Status indicators
	{"DIS", "disability_indicator"},
	{"FOSTER", "foster_child_indicator"},
	{"WRKREG", "work_registration_status"},
	{"ABWDST", "abawd_status"},
	{"WORK", "working_indicator"},
	// Employment
	{"EMPRG", "employment_region"},
	{"EMPSTA", "employment_status_a"},
	{"EMPSTB", "employment_status_b"},
	// Earned income
	{"WAGES", "wages"},
	{"SLFEMP", "self_employment_income"},
	{"EITC", "earned_income_tax_credit"},
	{"OTHERN", "other_earned_income"},
	// Unearned income
	{"SOCSEC", "social_security"},
	{"SSI", "ssi"},
	{"VET", "veterans_benefits"},
	{"UNEMP", "unemployment"},
	{"WCOMP", "workers_compensation"},
	{"TANF", "tanf"},
	{"CSUPRT", "child_support"},
	{"GA", "general_assistance"},
	{"EDLOAN", "education_loans"},
	{"OTHGOV", "other_government_income"},
	{"CONT", "contributions"},
	{"DEEM", "deemed_income"},
	{"OTHUN", "other_unearned_income"},
	// Deductions and expenses
	{"DPCOST", "dependent_care_cost"},
	{"ENERGY", "energy_assistance"},
	{"WGESUP", "wage_supplement"},
	{"DIVER", "diversion_payment"},
}

// ErrorFields lists every error-level variable, repeated per error slot.
var ErrorFields = []ErrorField{
	{"ELEMENT", "element_code"},
	{"NATURE", "nature_code"},
	{"AGENCY", "responsible_agency"},
	{"AMOUNT", "error_amount"},
	{"DISCOV", "discovery_method"},
	{"VERIF", "verification_status"},
	{"OCCDATE", "occurrence_date"},
	{"TIMEPER", "time_period"},
	{"E_FINDG", "error_finding"},
}

// HouseholdFields lists every household-level column (one per household).
var HouseholdFields = []HouseholdField{
	// Identifier and classification
	{"HHLDNO", "case_id"}, // unique unit identifier within a fiscal year
	{"CASE", "case_classification"},
	// Geographic and administrative
	{"REGIONCD", "region_code"},
	{"STATE", "state_code"},
	{"STATENAME", "state_name"},
	{"YRMONTH", "year_month"},
	{"STATUS", "status"},
	{"STRATUM", "stratum"},
	// Household composition
	{"RAWHSIZE", "raw_household_size"},
	{"CERTHHSZ", "certified_household_size"},
	{"FSUSIZE", "snap_unit_size"},
	{"FSNONCIT", "num_noncitizens"},
	{"FSDIS", "num_disabled"},
	{"FSELDER", "num_elderly"},
	{"FSKID", "num_children"},
	{"COMPOSITION", "composition_code"},
	// Financial summary
	{"RAWGROSS", "gross_income"},
	{"RAWNET", "net_income"},
	{"RAWERND", "earned_income"},
	{"FSUNEARN", "unearned_income"},
	// Assets
	{"LIQRESOR", "liquid_resources"},
	{"REALPROP", "real_property"},
	{"FSVEHAST", "vehicle_assets"},
	{"FSASSET", "total_assets"},
	// Deductions
	{"FSSTDDED", "standard_deduction"},
	{"FSERNDED", "earned_income_deduction"},
	{"FSDEPDED", "dependent_care_deduction"},
	{"FSMEDDED", "medical_deduction"},
	{"SHELDED", "shelter_deduction"},
	{"FSTOTDED", "total_deductions"},
	// Housing expenses
	{"RENT", "rent"},
	{"UTIL", "utilities"},
	{"FSCSEXP", "shelter_expense"},
	{"HOMELESS_DED", "homeless_deduction"},
	// Benefits
	{"FSBEN", "snap_benefit"},
	{"RAWBEN", "raw_benefit"},
	{"BENMAX", "maximum_benefit"},
	{"MINIMUM_BEN", "minimum_benefit"},
	// Eligibility and certification
	{"CAT_ELIG", "categorical_eligibility"},
	{"EXPEDSER", "expedited_service"},
	{"CERTMTH", "certification_month"},
	{"LASTCERT", "last_certification_date"},
	// Poverty and work status
	{"TPOV", "poverty_level"},
	{"WRK_POOR", "working_poor_indicator"},
	{"TANF_IND", "tanf_indicator"},
	// QC information
	{"AMTERR", "amount_error"},
	{"FSGRTEST", "gross_test_result"},
	{"FSNETEST", "net_test_result"},
	// Statistical weights
	{"HWGT", "household_weight"},
	{"FYWGT", "fiscal_year_weight"},
}

// CaseIDColumn is the source column holding the household identifier.
const CaseIDColumn = "HHLDNO"

// AffiliationBase is the person-level variable whose per-slot value decides
// whether a member slot is populated.
const AffiliationBase = "FSAFIL"

// ElementBase is the error-level variable whose per-slot value decides
// whether an error slot is populated.
const ElementBase = "ELEMENT"

// PersonColumn returns the wide-format column name for a person-level
// variable and member slot, e.g. PersonColumn("WAGES", 17) == "WAGES17".
func PersonColumn(base string, member int) string {
	return base + strconv.Itoa(member)
}

// ErrorColumn returns the wide-format column name for an error-level
// variable and error slot, e.g. ErrorColumn("ELEMENT", 1) == "ELEMENT1".
func ErrorColumn(base string, errNum int) string {
	return base + strconv.Itoa(errNum)
}

// AllPersonColumns returns every person-level column name for slots 1-17.
func AllPersonColumns() []string {
	cols := make([]string, 0, len(PersonFields)*MaxMembers)
	for _, f := range PersonFields {
		for i := 1; i <= MaxMembers; i++ {
			cols = append(cols, PersonColumn(f.Source, i))
		}
	}
	return cols
}

// AllErrorColumns returns every error-level column name for slots 1-9.
func AllErrorColumns() []string {
	cols := make([]string, 0, len(ErrorFields)*MaxErrors)
	for _, f := range ErrorFields {
		for i := 1; i <= MaxErrors; i++ {
			cols = append(cols, ErrorColumn(f.Source, i))
		}
	}
	return cols
}

// RequiredColumns returns the household columns a source file must contain
// to be structurally acceptable.
func RequiredColumns() []string {
	return []string{"HHLDNO", "STATE", "YRMONTH", "FSBEN"}
}
