package etl

import "testing"

func TestTransform_HouseholdFields(t *testing.T) {
	tbl := NewTable(
		[]string{"HHLDNO", "STATE", "YRMONTH", "FSBEN", "CERTHHSZ", "WRK_POOR"},
		[][]string{{"10001", "06", "202301", "250.50", "3", "1"}},
	)

	households, members, qcErrors := NewTransformer(2023).Transform(tbl)
	if len(households) != 1 {
		t.Fatalf("got %d households, want 1", len(households))
	}
	if members == nil || len(members) != 0 {
		t.Errorf("members = %v, want empty non-nil batch", members)
	}
	if qcErrors == nil || len(qcErrors) != 0 {
		t.Errorf("qcErrors = %v, want empty non-nil batch", qcErrors)
	}

	h := households[0]
	if h.CaseID != "10001" {
		t.Errorf("CaseID = %q, want %q", h.CaseID, "10001")
	}
	if h.FiscalYear != 2023 {
		t.Errorf("FiscalYear = %d, want 2023", h.FiscalYear)
	}
	if h.StateCode != "06" {
		t.Errorf("StateCode = %q, want %q", h.StateCode, "06")
	}
	if h.YearMonth != "202301" {
		t.Errorf("YearMonth = %q, want %q", h.YearMonth, "202301")
	}
	if h.SnapBenefit == nil || *h.SnapBenefit != 250.50 {
		t.Errorf("SnapBenefit = %v, want 250.50", h.SnapBenefit)
	}
	if h.CertifiedHouseholdSize == nil || *h.CertifiedHouseholdSize != 3 {
		t.Errorf("CertifiedHouseholdSize = %v, want 3", h.CertifiedHouseholdSize)
	}
	if h.WorkingPoorIndicator == nil || !*h.WorkingPoorIndicator {
		t.Errorf("WorkingPoorIndicator = %v, want true", h.WorkingPoorIndicator)
	}
}

// A member exists only when the slot's affiliation column holds a non-null
// value for that row. Slots whose value is a null sentinel emit nothing.
func TestTransform_MemberPresenceRule(t *testing.T) {
	tbl := NewTable(
		[]string{"HHLDNO", "FSAFIL1", "AGE1", "FSAFIL2", "AGE2", "FSAFIL3", "AGE3"},
		[][]string{
			{"1", "1", "34", "NA", "", "2", "8"},
			{"2", "1", "61", "1", "59", "NA", ""},
		},
	)

	_, members, _ := NewTransformer(2023).Transform(tbl)
	if len(members) != 4 {
		t.Fatalf("got %d members, want 4", len(members))
	}

	// Count per (case, slot)
	type key struct {
		caseID string
		number int
	}
	got := map[key]bool{}
	for _, m := range members {
		got[key{m.CaseID, m.MemberNumber}] = true
	}

	want := []key{{"1", 1}, {"1", 3}, {"2", 1}, {"2", 2}}
	for _, k := range want {
		if !got[k] {
			t.Errorf("missing member case=%s slot=%d", k.caseID, k.number)
		}
	}
}

// The slot index is the member number: a household whose only member sits
// in slot 3 produces member_number 3, never a renumbered 1.
func TestTransform_MemberNumberIsSlotIndex(t *testing.T) {
	tbl := NewTable(
		[]string{"HHLDNO", "FSAFIL3", "AGE3"},
		[][]string{{"1", "1", "42"}},
	)

	_, members, _ := NewTransformer(2023).Transform(tbl)
	if len(members) != 1 {
		t.Fatalf("got %d members, want 1", len(members))
	}
	if members[0].MemberNumber != 3 {
		t.Errorf("MemberNumber = %d, want 3", members[0].MemberNumber)
	}
	if members[0].Age == nil || *members[0].Age != 42 {
		t.Errorf("Age = %v, want 42", members[0].Age)
	}
}

func TestTransform_CaseIDSynthesizedWhenColumnAbsent(t *testing.T) {
	tbl := NewTable(
		[]string{"STATE", "FSAFIL1"},
		[][]string{{"06", "1"}, {"12", "1"}, {"48", "NA"}},
	)

	households, members, _ := NewTransformer(2023).Transform(tbl)
	if len(households) != 3 {
		t.Fatalf("got %d households, want 3", len(households))
	}

	for i, want := range []string{"1", "2", "3"} {
		if households[i].CaseID != want {
			t.Errorf("households[%d].CaseID = %q, want %q", i, households[i].CaseID, want)
		}
	}

	// Members inherit the synthesized ids
	if len(members) != 2 {
		t.Fatalf("got %d members, want 2", len(members))
	}
	for _, m := range members {
		if m.CaseID != "1" && m.CaseID != "2" {
			t.Errorf("member CaseID = %q, want a synthesized row id", m.CaseID)
		}
	}
}

// A QC error exists only when the slot's element column is non-null.
func TestTransform_ErrorPresenceRule(t *testing.T) {
	tbl := NewTable(
		[]string{"HHLDNO", "ELEMENT1", "AMOUNT1", "ELEMENT2", "AMOUNT2"},
		[][]string{
			{"1", "311", "120.00", "NA", ""},
			{"2", "NA", "", "150", "45.5"},
		},
	)

	_, _, qcErrors := NewTransformer(2023).Transform(tbl)
	if len(qcErrors) != 2 {
		t.Fatalf("got %d errors, want 2", len(qcErrors))
	}

	for _, e := range qcErrors {
		switch {
		case e.CaseID == "1" && e.ErrorNumber == 1:
			if e.ElementCode == nil || *e.ElementCode != 311 {
				t.Errorf("ElementCode = %v, want 311", e.ElementCode)
			}
			if e.ErrorAmount == nil || *e.ErrorAmount != 120.0 {
				t.Errorf("ErrorAmount = %v, want 120", e.ErrorAmount)
			}
		case e.CaseID == "2" && e.ErrorNumber == 2:
			if e.ElementCode == nil || *e.ElementCode != 150 {
				t.Errorf("ElementCode = %v, want 150", e.ElementCode)
			}
		default:
			t.Errorf("unexpected error record case=%s slot=%d", e.CaseID, e.ErrorNumber)
		}
	}
}

func TestTransform_AbsentSlotColumnsSkipped(t *testing.T) {
	// Only slot 1 columns exist in the schema; slots 2-17 must be skipped
	// without touching any rows.
	tbl := NewTable(
		[]string{"HHLDNO", "FSAFIL1"},
		[][]string{{"1", "1"}},
	)

	_, members, qcErrors := NewTransformer(2023).Transform(tbl)
	if len(members) != 1 {
		t.Errorf("got %d members, want 1", len(members))
	}
	if len(qcErrors) != 0 {
		t.Errorf("got %d errors, want 0 (no ELEMENT columns)", len(qcErrors))
	}
}

func TestTransform_EmptyTable(t *testing.T) {
	tbl := NewTable([]string{"HHLDNO", "STATE"}, nil)

	households, members, qcErrors := NewTransformer(2023).Transform(tbl)
	if households == nil || members == nil || qcErrors == nil {
		t.Fatal("Transform must return non-nil slices for an empty table")
	}
	if len(households)+len(members)+len(qcErrors) != 0 {
		t.Errorf("empty table produced records: %d/%d/%d",
			len(households), len(members), len(qcErrors))
	}
}

// Integer codes sometimes arrive as floats ("35.0") in survey extracts.
func TestTransform_IntegralFloatCodes(t *testing.T) {
	tbl := NewTable(
		[]string{"HHLDNO", "FSAFIL1", "AGE1", "STATUS"},
		[][]string{{"1", "1.0", "35.0", "2.0"}},
	)

	households, members, _ := NewTransformer(2023).Transform(tbl)
	if len(members) != 1 {
		t.Fatalf("got %d members, want 1", len(members))
	}
	if members[0].Age == nil || *members[0].Age != 35 {
		t.Errorf("Age = %v, want 35", members[0].Age)
	}
	if members[0].SnapAffiliationCode == nil || *members[0].SnapAffiliationCode != 1 {
		t.Errorf("SnapAffiliationCode = %v, want 1", members[0].SnapAffiliationCode)
	}
	if households[0].Status == nil || *households[0].Status != 2 {
		t.Errorf("Status = %v, want 2", households[0].Status)
	}
}
