package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ravicodry/dastaavej/config"
	"github.com/ravicodry/dastaavej/model"
	"github.com/ravicodry/dastaavej/pkg/logger"
)

// ValidationError is a user-correctable input problem: missing file,
// credential or form field. It never advances the flow state.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

// ErrSessionNotFound is returned when the session id is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// ReportView is what a visitor is allowed to see of the analysis result in
// the session's current state. In the locked state the per-document details
// and the analysis summary are withheld; only the teaser fields remain.
type ReportView struct {
	State           FlowState          `json:"state"`
	Paid            bool               `json:"paid"`
	PropertySummary string             `json:"property_summary"`
	CurrentOwner    string             `json:"current_owner"`
	RiskScore       model.RiskScore    `json:"risk_score"`
	MissingCount    int                `json:"missing_count"`
	Danger          bool               `json:"danger"`
	AnalysisSummary string             `json:"analysis_summary,omitempty"`
	MissingDocs     []model.MissingDoc `json:"missing_docs,omitempty"`
}

// FlowService orchestrates the analysis flow: stage selection, upload,
// analysis, paywall, unlock and lead capture. All state lives in the
// session store.
type FlowService struct {
	sessions *SessionStore
	gemini   *GeminiService
	orders   *OrderStore
	notifier *Notifier
	gateway  PaymentGateway
	archive  *ArchiveService // optional, nil when disabled
	cfg      *config.Config
}

func NewFlowService(sessions *SessionStore, gemini *GeminiService, orders *OrderStore, notifier *Notifier, gateway PaymentGateway, archive *ArchiveService, cfg *config.Config) *FlowService {
	return &FlowService{
		sessions: sessions,
		gemini:   gemini,
		orders:   orders,
		notifier: notifier,
		gateway:  gateway,
		archive:  archive,
		cfg:      cfg,
	}
}

// StartSession creates a new visitor session.
func (f *FlowService) StartSession() *Session {
	return f.sessions.Create()
}

// Agree records the visitor's acceptance of the disclaimer. Analysis is
// refused until this has happened.
func (f *FlowService) Agree(sessionID string) error {
	session := f.sessions.Get(sessionID)
	if session == nil {
		return ErrSessionNotFound
	}

	session.Agreed = true
	f.sessions.Save(session)
	return nil
}

// SelectStage records which point of the purchase journey the visitor is at.
func (f *FlowService) SelectStage(sessionID string, stage model.Stage) error {
	session := f.sessions.Get(sessionID)
	if session == nil {
		return ErrSessionNotFound
	}
	if !model.ValidStage(stage) {
		return &ValidationError{Message: fmt.Sprintf("unknown stage %q", stage)}
	}

	session.Stage = stage
	if session.State == StateAwaitingStage {
		session.State = StateAwaitingUpload
	}
	f.sessions.Save(session)
	return nil
}

// Analyze runs the full analysis action: validates inputs, writes the upload
// to a temp file (removed on every exit path), calls the AI client and
// stores the result. A clean chain goes straight to unlocked; any gaps start
// the paywall. The paid flag always resets when a new document is analyzed.
func (f *FlowService) Analyze(ctx context.Context, sessionID, fileName string, fileBytes []byte, apiKey string) (*ReportView, error) {
	session := f.sessions.Get(sessionID)
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if !session.Agreed {
		return nil, &ValidationError{Message: "please accept the disclaimer before analyzing"}
	}
	if session.Stage == "" {
		return nil, &ValidationError{Message: "please select your purchase stage first"}
	}
	if len(fileBytes) == 0 {
		return nil, &ValidationError{Message: "please upload a PDF document"}
	}
	if apiKey == "" {
		apiKey = f.cfg.Gemini.APIKey
	}
	if apiKey == "" {
		return nil, &ValidationError{Message: "no API key available"}
	}

	tmp, err := os.CreateTemp("", "deed-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(fileBytes); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	if f.archive != nil {
		f.archive.Store(ctx, session.ID, fileName, fileBytes)
	}

	prevState := session.State
	session.State = StateAnalyzing
	f.sessions.Save(session)

	result, err := f.gemini.Analyze(ctx, tmpPath, session.Stage, apiKey)
	if err != nil {
		ae := AsAnalysisError(err)
		logger.Error(ctx, "analysis failed",
			"session_id", session.ID,
			"kind", string(ae.Kind),
			"error", ae.Message,
		)
		session.State = prevState
		session.LastError = ae.Message
		f.sessions.Save(session)
		return nil, ae
	}

	session.Result = result
	session.LastError = ""
	session.IsPaid = false
	session.Receipt = nil
	if result.Clean() {
		session.State = StateUnlocked
	} else {
		session.State = StateLocked
	}
	f.sessions.Save(session)

	logger.Info(ctx, "analysis completed",
		"session_id", session.ID,
		"stage", string(session.Stage),
		"missing_docs", len(result.MissingDocs),
		"risk_score", string(result.RiskScore),
	)

	return f.view(session), nil
}

// Unlock charges the simulated payment and reveals the full report.
// Calling it on an already unlocked session is a no-op with no second
// charge.
func (f *FlowService) Unlock(ctx context.Context, sessionID string) (*ReportView, error) {
	session := f.sessions.Get(sessionID)
	if session == nil {
		return nil, ErrSessionNotFound
	}

	switch session.State {
	case StateUnlocked:
		return f.view(session), nil
	case StateLocked:
	default:
		return nil, &ValidationError{Message: "nothing to unlock yet"}
	}

	receipt, err := f.gateway.Charge(ctx, f.cfg.Payment.AmountPaise)
	if err != nil {
		return nil, fmt.Errorf("payment failed: %w", err)
	}

	session.IsPaid = true
	session.Receipt = receipt
	session.State = StateUnlocked
	f.sessions.Save(session)

	logger.Info(ctx, "report unlocked", "session_id", session.ID, "receipt_id", receipt.ID)

	return f.view(session), nil
}

// Report returns the state-appropriate view of the current result.
func (f *FlowService) Report(sessionID string) (*ReportView, error) {
	session := f.sessions.Get(sessionID)
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Result == nil {
		return nil, &ValidationError{Message: "no analysis result yet"}
	}
	return f.view(session), nil
}

// SubmitLead captures a customer request for one missing document (or a bulk
// manual search). Documents whose existence is unconfirmed route to the free
// inquiry path; the rest to the paid order path. The order row must commit;
// the confirmation email is best effort and its failure is only reflected in
// the returned notified flag.
func (f *FlowService) SubmitLead(ctx context.Context, sessionID, docNo, docName, name, email, phone string) (int64, bool, error) {
	session := f.sessions.Get(sessionID)
	if session == nil {
		return 0, false, ErrSessionNotFound
	}

	// Leads only make sense against a finished analysis
	switch session.State {
	case StateLocked, StateUnlocked:
	default:
		return 0, false, &ValidationError{Message: "please analyze a document before requesting copies"}
	}

	if name == "" || email == "" || phone == "" {
		return 0, false, &ValidationError{Message: "name, email and phone are all required"}
	}

	var stageContext string
	if model.Unconfirmed(docNo) {
		docNo = model.ManualSearchDocNo
		stageContext = "inquiry:" + string(session.Stage)
	} else {
		stageContext = "order:" + string(session.Stage)
	}

	contactInfo := phone + "|" + email

	orderID, err := f.orders.CreateOrder(ctx, docNo, docName, name, contactInfo, stageContext)
	if err != nil {
		return 0, false, fmt.Errorf("failed to record request: %w", err)
	}

	notified := f.notifier.SendConfirmation(email, name, docName)

	logger.Info(ctx, "lead captured",
		"session_id", session.ID,
		"order_id", orderID,
		"stage_context", stageContext,
		"notified", notified,
	)

	return orderID, notified, nil
}

// view projects the session onto what the visitor may see. Locked sessions
// get only the teaser: summary, owner, risk score and gap count.
func (f *FlowService) view(session *Session) *ReportView {
	result := session.Result
	view := &ReportView{
		State:           session.State,
		Paid:            session.IsPaid,
		PropertySummary: result.PropertySummary,
		CurrentOwner:    result.CurrentOwner,
		RiskScore:       result.RiskScore,
		MissingCount:    len(result.MissingDocs),
		Danger:          len(result.MissingDocs) > 0,
	}

	if session.State == StateUnlocked {
		view.AnalysisSummary = result.AnalysisSummary
		view.MissingDocs = result.MissingDocs
	}

	return view
}
