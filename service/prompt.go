package service

import (
	"strings"

	"github.com/ravicodry/dastaavej/model"
)

// promptTemplate instructs the model to return strict JSON in the shape
// parseAnalysis expects. The %FOCUS% marker is replaced with the
// stage-specific clause.
const promptTemplate = `Analyze this Property Deed.
Return strictly valid JSON. Do not use Markdown. Do not use ` + "```json" + `.
Structure:
{
  "property_summary": "Short location description",
  "current_owner": "Name",
  "missing_docs_count": 0,
  "missing_docs_list": [{"year": "YYYY", "doc_type": "str", "doc_no": "str", "reason": "str", "risk_explained": "str"}],
  "risk_score": "Low/Medium/High",
  "analysis_summary": "str"
}
Rules: If a document is mentioned in 'Recitals' history but NOT uploaded, it is MISSING.
If a missing document's registration number cannot be determined, set doc_no to "N/A".
Focus: %FOCUS%`

// stageFocus maps each stage to its analysis focus clause. Exactly one
// clause is interpolated per prompt.
var stageFocus = map[model.Stage]string{
	model.StageNegotiation:     "The buyer is negotiating. Flag every vague or ambiguous clause in the deed and explain how it weakens the buyer's position.",
	model.StageTokenPayment:    "The buyer is about to pay a token advance. Enumerate every historical deed referenced in the chain of title that is not present among the uploaded materials.",
	model.StageLoanApplication: "The buyer is applying for a bank loan. Check the chain of title strictly for 30-year completeness; if any link in the last 30 years is missing, set risk_score to High.",
}

// BuildPrompt assembles the instruction text for the given stage.
func BuildPrompt(stage model.Stage) string {
	return strings.Replace(promptTemplate, "%FOCUS%", stageFocus[stage], 1)
}
