package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// ErrNoCredentials is returned when an appender has neither an API key nor
// an access token.
var ErrNoCredentials = errors.New("no spreadsheet credentials configured")

// AppenderConfig configures an Appender. AccessToken wins over APIKey.
type AppenderConfig struct {
	SpreadsheetID string
	APIKey        string
	AccessToken   string

	// Endpoint overrides the Sheets API base URL.
	Endpoint string
}

// Appender writes rows to the spreadsheet through the Sheets API.
type Appender struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	logger        *slog.Logger
}

// NewAppender creates an appender for cfg.SpreadsheetID.
func NewAppender(ctx context.Context, cfg AppenderConfig, logger *slog.Logger) (*Appender, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts []option.ClientOption

	switch {
	case cfg.AccessToken != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
		opts = append(opts, option.WithTokenSource(ts))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	default:
		return nil, ErrNoCredentials
	}

	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Appender{svc: svc, spreadsheetID: cfg.SpreadsheetID, logger: logger}, nil
}

// Append adds row after the last filled row of sheet.
func (a *Appender) Append(ctx context.Context, sheet string, row []string) error {
	values := make([]any, len(row))
	for i, v := range row {
		values[i] = v
	}

	resp, err := a.svc.Spreadsheets.Values.
		Append(a.spreadsheetID, sheet+"!A1", &sheetsapi.ValueRange{Values: [][]any{values}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		ne := &NetworkError{Sheet: sheet, Err: err}

		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			ne.StatusCode = apiErr.Code
		}

		return ne
	}

	if resp.Updates != nil {
		a.logger.Debug("row appended", "sheet", sheet, "range", resp.Updates.UpdatedRange)
	}

	return nil
}
