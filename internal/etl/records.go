package etl

// records.go defines the normalized record types the Transformer produces.
// Optional fields use pointer types: nil means the source cell was null or
// the column was absent, which the Writer maps to SQL NULL. Text codes use
// the string zero value as absent.

// Household is one normalized household row, keyed by (CaseID, FiscalYear).
type Household struct {
	CaseID     string
	FiscalYear int

	// Classification and geography
	CaseClassification *int
	RegionCode         string
	StateCode          string
	StateName          string
	YearMonth          string
	Status             *int
	Stratum            string

	// Composition
	RawHouseholdSize       *int
	CertifiedHouseholdSize *int
	SnapUnitSize           *int
	NumNoncitizens         *int
	NumDisabled            *int
	NumElderly             *int
	NumChildren            *int
	CompositionCode        string

	// Financial summary
	GrossIncome    *float64
	NetIncome      *float64
	EarnedIncome   *float64
	UnearnedIncome *float64

	// Assets
	LiquidResources *float64
	RealProperty    *float64
	VehicleAssets   *float64
	TotalAssets     *float64

	// Deductions
	StandardDeduction      *float64
	EarnedIncomeDeduction  *float64
	DependentCareDeduction *float64
	MedicalDeduction       *float64
	ShelterDeduction       *float64
	TotalDeductions        *float64

	// Housing expenses
	Rent              *float64
	Utilities         *float64
	ShelterExpense    *float64
	HomelessDeduction *float64

	// Benefits
	SnapBenefit    *float64
	RawBenefit     *float64
	MaximumBenefit *float64
	MinimumBenefit *float64

	// Eligibility and certification
	CategoricalEligibility *int
	ExpeditedService       *int
	CertificationMonth     string
	LastCertificationDate  *int

	// Poverty and work status
	PovertyLevel         *float64
	WorkingPoorIndicator *bool
	TanfIndicator        *bool

	// QC information
	AmountError     *float64
	GrossTestResult *int
	NetTestResult   *int

	// Statistical weights
	HouseholdWeight  *float64
	FiscalYearWeight *float64
}

// Member is one normalized household-member row. MemberNumber is the slot
// index (1-17) the member occupied in the wide format, never renumbered.
type Member struct {
	CaseID       string
	MemberNumber int

	// Demographics
	SnapAffiliationCode *int
	Age                 *int
	Sex                 *int
	RaceEthnicity       *int
	RelationshipToHead  *int
	CitizenshipStatus   *int
	YearsEducation      *int

	// Status indicators
	DisabilityIndicator    *int
	FosterChildIndicator   *int
	WorkRegistrationStatus *int
	AbawdStatus            *int
	WorkingIndicator       *int

	// Employment
	EmploymentRegion  *int
	EmploymentStatusA *int
	EmploymentStatusB *int

	// Earned income
	Wages                 *float64
	SelfEmploymentIncome  *float64
	EarnedIncomeTaxCredit *float64
	OtherEarnedIncome     *float64

	// Unearned income
	SocialSecurity        *float64
	SSI                   *float64
	VeteransBenefits      *float64
	Unemployment          *float64
	WorkersCompensation   *float64
	Tanf                  *float64
	ChildSupport          *float64
	GeneralAssistance     *float64
	EducationLoans        *float64
	OtherGovernmentIncome *float64
	Contributions         *float64
	DeemedIncome          *float64
	OtherUnearnedIncome   *float64

	// Deductions and expenses
	DependentCareCost *float64
	EnergyAssistance  *float64
	WageSupplement    *float64
	DiversionPayment  *float64
}

// QCError is one normalized quality-control error row. ErrorNumber is the
// slot index (1-9) from the wide format.
type QCError struct {
	CaseID      string
	ErrorNumber int

	ElementCode        *int
	NatureCode         *int
	ResponsibleAgency  *int
	ErrorAmount        *float64
	DiscoveryMethod    *int
	VerificationStatus *int
	OccurrenceDate     *int
	TimePeriod         string
	ErrorFinding       *int
}

// WriteStats is what a Writer reports back after a bulk write.
type WriteStats struct {
	HouseholdsWritten int
	MembersWritten    int
	ErrorsWritten     int
	TotalRecords      int
}

func (s WriteStats) add(other WriteStats) WriteStats {
	return WriteStats{
		HouseholdsWritten: s.HouseholdsWritten + other.HouseholdsWritten,
		MembersWritten:    s.MembersWritten + other.MembersWritten,
		ErrorsWritten:     s.ErrorsWritten + other.ErrorsWritten,
		TotalRecords:      s.TotalRecords + other.TotalRecords,
	}
}
