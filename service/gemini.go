package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ravicodry/dastaavej/config"
	"github.com/ravicodry/dastaavej/model"
)

// ErrorKind classifies an analysis failure so handlers can map it to a
// sensible response and users can decide whether to retry.
type ErrorKind string

const (
	ErrUploadFailed      ErrorKind = "upload_failed"
	ErrRateLimited       ErrorKind = "rate_limited"
	ErrTimeoutExceeded   ErrorKind = "timeout_exceeded"
	ErrMalformedResponse ErrorKind = "malformed_response"
	ErrOther             ErrorKind = "other"
)

// AnalysisError is the tagged error every Analyze failure path returns.
// Raw carries the model's verbatim output for malformed-response diagnosis.
type AnalysisError struct {
	Kind    ErrorKind
	Message string
	Raw     string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// AsAnalysisError extracts an *AnalysisError, wrapping anything else as ErrOther.
func AsAnalysisError(err error) *AnalysisError {
	if ae, ok := err.(*AnalysisError); ok {
		return ae
	}
	return &AnalysisError{Kind: ErrOther, Message: err.Error(), Err: err}
}

type GeminiService struct {
	config     *config.GeminiConfig
	httpClient *http.Client
}

// geminiFile mirrors the Files API file resource fields we use.
type geminiFile struct {
	Name  string `json:"name"`
	URI   string `json:"uri"`
	State string `json:"state"` // PROCESSING, ACTIVE, FAILED
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type geminiUploadResponse struct {
	File geminiFile `json:"file"`
}

type geminiGenerateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text     string          `json:"text,omitempty"`
	FileData *geminiFileData `json:"file_data,omitempty"`
}

type geminiFileData struct {
	MimeType string `json:"mime_type"`
	FileURI  string `json:"file_uri"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// analysisWire is the JSON shape the prompt instructs the model to return.
type analysisWire struct {
	PropertySummary string             `json:"property_summary"`
	CurrentOwner    string             `json:"current_owner"`
	MissingCount    int                `json:"missing_docs_count"`
	MissingDocs     []model.MissingDoc `json:"missing_docs_list"`
	RiskScore       string             `json:"risk_score"`
	AnalysisSummary string             `json:"analysis_summary"`
}

func NewGeminiService(cfg *config.GeminiConfig) *GeminiService {
	return &GeminiService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Analyze uploads the deed at filePath, waits for the service to finish
// processing it, runs the stage-specific gap analysis and returns the parsed
// result. Every failure is an *AnalysisError. The caller owns filePath and
// its cleanup.
func (s *GeminiService) Analyze(ctx context.Context, filePath string, stage model.Stage, apiKey string) (*model.AnalysisResult, error) {
	file, err := s.uploadFile(ctx, filePath, apiKey)
	if err != nil {
		return nil, err
	}

	file, err = s.waitForFile(ctx, file, apiKey)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(stage)

	raw, err := s.generate(ctx, prompt, file.URI, apiKey)
	if err != nil {
		return nil, err
	}

	return parseAnalysis(raw)
}

// uploadFile sends the PDF bytes to the file endpoint and returns the handle.
func (s *GeminiService) uploadFile(ctx context.Context, filePath, apiKey string) (*geminiFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, &AnalysisError{Kind: ErrUploadFailed, Message: "failed to read file", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.APIURL+"/upload/v1beta/files", bytes.NewReader(data))
	if err != nil {
		return nil, &AnalysisError{Kind: ErrUploadFailed, Message: "failed to create upload request", Err: err}
	}

	req.Header.Set("x-goog-api-key", apiKey)
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("X-Goog-Upload-Protocol", "raw")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &AnalysisError{Kind: ErrUploadFailed, Message: "upload request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AnalysisError{Kind: ErrUploadFailed, Message: "failed to read upload response", Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &AnalysisError{Kind: ErrRateLimited, Message: "quota exhausted during upload", Raw: string(body)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &AnalysisError{
			Kind:    ErrUploadFailed,
			Message: fmt.Sprintf("upload returned status %d", resp.StatusCode),
			Raw:     string(body),
		}
	}

	var result geminiUploadResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &AnalysisError{Kind: ErrUploadFailed, Message: "failed to parse upload response", Raw: string(body), Err: err}
	}
	if result.File.Name == "" {
		return nil, &AnalysisError{Kind: ErrUploadFailed, Message: "upload response missing file handle", Raw: string(body)}
	}

	return &result.File, nil
}

// waitForFile polls the file handle at a fixed interval until the service
// reports it ACTIVE, with a bounded total wait budget.
func (s *GeminiService) waitForFile(ctx context.Context, file *geminiFile, apiKey string) (*geminiFile, error) {
	deadline := time.Now().Add(s.config.PollTimeout())

	for file.State == "PROCESSING" {
		if time.Now().After(deadline) {
			return nil, &AnalysisError{
				Kind:    ErrTimeoutExceeded,
				Message: fmt.Sprintf("file still processing after %s", s.config.PollTimeout()),
			}
		}

		select {
		case <-ctx.Done():
			return nil, &AnalysisError{Kind: ErrOther, Message: "analysis cancelled", Err: ctx.Err()}
		case <-time.After(s.config.PollInterval()):
		}

		updated, err := s.getFile(ctx, file.Name, apiKey)
		if err != nil {
			return nil, err
		}
		file = updated
	}

	if file.State == "FAILED" {
		msg := file.Error.Message
		if msg == "" {
			msg = "file processing failed"
		}
		return nil, &AnalysisError{Kind: ErrUploadFailed, Message: msg}
	}

	return file, nil
}

// getFile fetches the current processing state of an uploaded file.
func (s *GeminiService) getFile(ctx context.Context, name, apiKey string) (*geminiFile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/v1beta/%s", s.config.APIURL, name), nil)
	if err != nil {
		return nil, &AnalysisError{Kind: ErrUploadFailed, Message: "failed to create status request", Err: err}
	}
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &AnalysisError{Kind: ErrUploadFailed, Message: "status request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AnalysisError{Kind: ErrUploadFailed, Message: "failed to read status response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &AnalysisError{
			Kind:    ErrUploadFailed,
			Message: fmt.Sprintf("status check returned %d", resp.StatusCode),
			Raw:     string(body),
		}
	}

	var file geminiFile
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, &AnalysisError{Kind: ErrUploadFailed, Message: "failed to parse status response", Raw: string(body), Err: err}
	}

	return &file, nil
}

// generate submits the prompt plus file handle and returns the model's text.
// A 429 is retried exactly once after a fixed delay.
func (s *GeminiService) generate(ctx context.Context, prompt, fileURI, apiKey string) (string, error) {
	text, err := s.generateOnce(ctx, prompt, fileURI, apiKey)
	if err == nil {
		return text, nil
	}

	ae := AsAnalysisError(err)
	if ae.Kind != ErrRateLimited {
		return "", err
	}

	select {
	case <-ctx.Done():
		return "", &AnalysisError{Kind: ErrOther, Message: "analysis cancelled", Err: ctx.Err()}
	case <-time.After(s.config.RetryDelay()):
	}

	return s.generateOnce(ctx, prompt, fileURI, apiKey)
}

func (s *GeminiService) generateOnce(ctx context.Context, prompt, fileURI, apiKey string) (string, error) {
	reqBody := geminiGenerateRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: prompt},
				{FileData: &geminiFileData{MimeType: "application/pdf", FileURI: fileURI}},
			},
		}},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", &AnalysisError{Kind: ErrOther, Message: "failed to marshal request", Err: err}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", s.config.APIURL, s.config.Model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &AnalysisError{Kind: ErrOther, Message: "failed to create request", Err: err}
	}

	req.Header.Set("x-goog-api-key", apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &AnalysisError{Kind: ErrOther, Message: "generate request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &AnalysisError{Kind: ErrOther, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &AnalysisError{Kind: ErrRateLimited, Message: "quota exhausted", Raw: string(body)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &AnalysisError{
			Kind:    ErrOther,
			Message: fmt.Sprintf("generate returned status %d", resp.StatusCode),
			Raw:     string(body),
		}
	}

	var result geminiGenerateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &AnalysisError{Kind: ErrMalformedResponse, Message: "failed to parse response envelope", Raw: string(body), Err: err}
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", &AnalysisError{Kind: ErrMalformedResponse, Message: "response contained no candidates", Raw: string(body)}
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

// stripFences removes markdown code-fence artifacts the model sometimes
// wraps its JSON in despite instructions.
func stripFences(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// parseAnalysis strict-decodes the model's text into an AnalysisResult with
// defaults substituted for missing optional fields.
func parseAnalysis(raw string) (*model.AnalysisResult, error) {
	cleaned := stripFences(raw)

	var wire analysisWire
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return nil, &AnalysisError{
			Kind:    ErrMalformedResponse,
			Message: "model output was not valid JSON",
			Raw:     raw,
			Err:     err,
		}
	}

	result := &model.AnalysisResult{
		PropertySummary: wire.PropertySummary,
		CurrentOwner:    wire.CurrentOwner,
		RiskScore:       model.RiskScore(wire.RiskScore),
		AnalysisSummary: wire.AnalysisSummary,
		MissingDocs:     wire.MissingDocs,
	}
	result.Normalize()

	return result, nil
}
