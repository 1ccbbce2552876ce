// Package export sends niche batches to a Google Sheets spreadsheet, one tab
// per niche.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"garimpeiro/internal/contracts"
	"garimpeiro/pkg/config"
	"garimpeiro/pkg/httputil"
	"garimpeiro/pkg/logger"
)

const sheetsBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// SheetsExporter implements contracts.Exporter against the Sheets values API.
// When no spreadsheet is configured it logs and drops batches instead of
// failing the run.
type SheetsExporter struct {
	spreadsheetID string
	baseURL       string
	tokens        *tokenSource
	client        *httputil.Client
	logger        *logger.Logger
}

// NewSheetsExporter creates the exporter. Returns an error only for a
// malformed private key; missing configuration yields a disabled exporter.
func NewSheetsExporter(cfg config.SheetsConfig, client *httputil.Client, log *logger.Logger) (*SheetsExporter, error) {
	exporter := &SheetsExporter{
		spreadsheetID: cfg.SpreadsheetID,
		baseURL:       sheetsBaseURL,
		client:        client,
		logger:        log,
	}

	if cfg.SpreadsheetID == "" || cfg.ServiceAccountEmail == "" || cfg.PrivateKey == "" {
		log.Warn("Sheets export disabled: missing spreadsheet configuration")
		exporter.spreadsheetID = ""
		return exporter, nil
	}

	tokens, err := newTokenSource(cfg.ServiceAccountEmail, cfg.PrivateKey, client)
	if err != nil {
		return nil, fmt.Errorf("failed to build sheets token source: %w", err)
	}
	exporter.tokens = tokens

	return exporter, nil
}

type appendRequest struct {
	Values [][]interface{} `json:"values"`
}

// Export appends one niche's rows to the tab named after the niche.
func (e *SheetsExporter) Export(ctx context.Context, niche string, rows []contracts.ExportRow) error {
	if len(rows) == 0 {
		return nil
	}
	if e.spreadsheetID == "" {
		e.logger.WithField("niche", niche).Debug("Sheets export skipped: not configured")
		return nil
	}

	token, err := e.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to get sheets access token: %w", err)
	}

	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		values = append(values, row.Values())
	}

	rangeRef := fmt.Sprintf("'%s'!A:I", strings.ReplaceAll(niche, "'", ""))
	appendURL := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=USER_ENTERED",
		e.baseURL, e.spreadsheetID, url.PathEscape(rangeRef))

	resp, err := e.postJSON(ctx, appendURL, token, appendRequest{Values: values})
	if err != nil {
		return fmt.Errorf("sheets append failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sheets append returned status %d", resp.StatusCode)
	}

	e.logger.WithFields(map[string]interface{}{
		"niche": niche,
		"rows":  len(rows),
	}).Info("Niche batch appended to spreadsheet")

	return nil
}

func (e *SheetsExporter) postJSON(ctx context.Context, targetURL, token string, body interface{}) (*http.Response, error) {
	req, err := newJSONRequest(ctx, targetURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return e.client.Do(req)
}

func newJSONRequest(ctx context.Context, targetURL string, body interface{}) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
