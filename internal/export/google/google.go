// Package google exports year views to a Google Sheets spreadsheet using a
// service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"caixa/internal/export"
	"caixa/internal/flow"
	"caixa/internal/log"
)

// Client writes year grids to one spreadsheet, one sheet per fiscal year.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base sheet name without year (e.g. "Fluxo"); the year is prefixed.
	sheetBase string
	logger    *log.Logger
}

var _ export.YearViewExporter = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS. Optional: GOOGLE_SHEET_NAME (default "Fluxo").
func NewFromEnv(ctx context.Context, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Default(log.ComponentExport)
	}
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetBase := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetBase == "" {
		sheetBase = "Fluxo"
	}

	svc, err := newSheetsService(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetBase,
		logger:        logger,
	}, nil
}

// newSheetsService initializes a Sheets service using service account
// credentials, inline JSON first, then a credentials file.
func newSheetsService(ctx context.Context, logger *log.Logger) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	logger.InfoContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)
	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ExportYearView clears the year's sheet and rewrites the full grid.
func (c *Client) ExportYearView(ctx context.Context, view flow.YearView) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheetName := yearSheetName(c.sheetBase, view.Year)

	clearRange := fmt.Sprintf("%s!A1:Z%d", sheetName, len(view.Rows)+3)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheetName, err)
	}

	values := buildGrid(view)
	vr := &gsheet.ValueRange{Values: values}
	rng := fmt.Sprintf("%s!A1", sheetName)
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update sheet %s: %w", sheetName, err)
	}

	c.logger.InfoContext(ctx, "Year view exported",
		log.FieldYear, view.Year,
		"sheet", sheetName,
		"rows", len(values))
	return nil
}

// buildGrid lays out the sheet: a header, one row per account in display
// order, and a totals row. Money cells are written in reais.
func buildGrid(view flow.YearView) [][]any {
	header := make([]any, 0, 15)
	header = append(header, "Conta")
	for _, name := range view.MonthNames {
		header = append(header, name)
	}
	header = append(header, "Média", "Total")

	values := [][]any{header}
	for _, r := range view.Rows {
		row := make([]any, 0, 15)
		row = append(row, r.Account.Name)
		var total int64
		for _, cents := range r.Cells {
			row = append(row, reais(cents))
			total += cents
		}
		row = append(row, r.Average/100.0, reais(total))
		values = append(values, row)
	}

	totals := make([]any, 0, 15)
	totals = append(totals, "Total")
	for _, cents := range view.MonthTotals {
		totals = append(totals, reais(cents))
	}
	totals = append(totals, "", reais(view.YearTotal))
	values = append(values, totals)
	return values
}

func reais(cents int64) float64 {
	return float64(cents) / 100.0
}

// yearSheetName returns "<year> <base>" unless base already carries a
// 4-digit year prefix.
func yearSheetName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return strconv.Itoa(year)
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
