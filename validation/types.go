package validation

// BaseValidationResult contains the checks shared by every signed artifact
type BaseValidationResult struct {
	SignatureValid    bool
	PayloadValid      bool
	ValidationDetails []string
}

// ReportValidationResult contains validation results for a signed allocation report
type ReportValidationResult struct {
	BaseValidationResult
	RunIDValid         bool
	RowCountValid      bool
	OutcomeHashesValid bool
	LedgerHashValid    bool
	SummaryValid       bool
	TotalsValid        bool
}

// IsValid returns true if all report validation checks passed
func (r *ReportValidationResult) IsValid() bool {
	return r.SignatureValid && r.PayloadValid && r.RunIDValid && r.RowCountValid &&
		r.OutcomeHashesValid && r.LedgerHashValid && r.SummaryValid && r.TotalsValid
}

// KeyValidationResult contains validation results for a published signing key
type KeyValidationResult struct {
	KeyFormatValid    bool
	AlgorithmValid    bool
	KeyIDMatch        bool
	ValidationDetails []string
}

// IsValid returns true if all key validation checks passed
func (r *KeyValidationResult) IsValid() bool {
	return r.KeyFormatValid && r.AlgorithmValid && r.KeyIDMatch
}

func (r *BaseValidationResult) addDetail(detail string) {
	r.ValidationDetails = append(r.ValidationDetails, detail)
}

func (r *KeyValidationResult) addDetail(detail string) {
	r.ValidationDetails = append(r.ValidationDetails, detail)
}
