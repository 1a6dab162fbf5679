package model

// Stage is the buyer's point in the property-purchase journey. It selects
// which analysis focus is applied to the uploaded deed.
type Stage string

const (
	StageNegotiation     Stage = "negotiation"
	StageTokenPayment    Stage = "token_payment"
	StageLoanApplication Stage = "loan_application"
)

// ValidStage reports whether s is one of the three supported stages.
func ValidStage(s Stage) bool {
	switch s {
	case StageNegotiation, StageTokenPayment, StageLoanApplication:
		return true
	}
	return false
}

// RiskScore is the overall risk level the analysis assigns to the title chain.
type RiskScore string

const (
	RiskLow     RiskScore = "Low"
	RiskMedium  RiskScore = "Medium"
	RiskHigh    RiskScore = "High"
	RiskUnknown RiskScore = "Unknown"
)

// UnconfirmedDocNo is the sentinel meaning the document's existence could not
// be confirmed. Leads for such documents route to the free inquiry path.
const UnconfirmedDocNo = "N/A"

// Unconfirmed reports whether docNo names a document whose existence is
// unconfirmed. The AI emits "N/A" for these; an absent number means the same.
func Unconfirmed(docNo string) bool {
	return docNo == "" || docNo == UnconfirmedDocNo
}

// MissingDoc is one historical deed referenced in the document's ownership
// narrative but not present among the uploaded materials.
type MissingDoc struct {
	Year          string `json:"year"`
	DocType       string `json:"doc_type"`
	DocNo         string `json:"doc_no"`
	Reason        string `json:"reason"`
	RiskExplained string `json:"risk_explained"`
}

// AnalysisResult is the structured output of one deed analysis. It lives only
// in session state and is overwritten by the next analysis run.
type AnalysisResult struct {
	PropertySummary string       `json:"property_summary"`
	CurrentOwner    string       `json:"current_owner"`
	RiskScore       RiskScore    `json:"risk_score"`
	AnalysisSummary string       `json:"analysis_summary"`
	MissingDocs     []MissingDoc `json:"missing_docs_list"`
}

// Normalize fills defaults for optional fields the AI may omit.
func (r *AnalysisResult) Normalize() {
	switch r.RiskScore {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		r.RiskScore = RiskUnknown
	}
	for i := range r.MissingDocs {
		if r.MissingDocs[i].DocNo == "" {
			r.MissingDocs[i].DocNo = UnconfirmedDocNo
		}
	}
}

// Clean reports whether the title chain has no missing documents. Clean
// reports are shown in full without any paywall gate.
func (r *AnalysisResult) Clean() bool {
	return len(r.MissingDocs) == 0
}
