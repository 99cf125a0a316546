// Package google stores the journal in a Google Sheets spreadsheet. The
// sheet mirrors the local database: column A holds the row ID, the rest
// follow the tabular layout the importer understands, so a sheet exported
// to CSV re-imports cleanly.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"salestree/internal/core"
	"salestree/internal/importer"
	"salestree/internal/journal"
)

// sheetHeader is row 1 of the journal sheet. Everything after the id
// column uses the importer's canonical names.
var sheetHeader = []any{
	"id", "doc_date", "doc_no", "doc_type", "counterparty", "description",
	"category", "gl_code", "amount_net", "vat_amount", "amount_gross",
	"payment_method", "bank_account", "status", "payment_date",
}

const lastColumn = "O"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	journalSheet  string
}

var _ journal.Store = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Credentials come from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. GOOGLE_JOURNAL_SHEET defaults to
// "Journal".
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	journalSheet := strings.TrimSpace(os.Getenv("GOOGLE_JOURNAL_SHEET"))
	if journalSheet == "" {
		journalSheet = "Journal"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		journalSheet:  journalSheet,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
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

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// LoadAll reads every journal row from the sheet. Parsing is delegated to
// the importer so a manually edited sheet degrades the same way a CSV
// import does: bad rows are logged and skipped, not fatal.
func (c *Client) LoadAll(ctx context.Context) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:%s", c.journalSheet, lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}

	result, err := importer.Parse(toRecords(resp.Values), core.Today())
	if err != nil {
		return nil, fmt.Errorf("parse journal sheet: %w", err)
	}
	for _, skipped := range result.Skipped {
		slog.WarnContext(ctx, "Skipping unreadable sheet row",
			"sheet", c.journalSheet, "row", skipped.Row, "error", skipped.Err)
	}
	return result.Transactions, nil
}

// ReplaceAll clears the sheet and rewrites header plus all rows. Rows
// without an ID get a fresh one.
func (c *Client) ReplaceAll(ctx context.Context, txs []core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:%s", c.journalSheet, lastColumn)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	values := make([][]any, 0, len(txs)+1)
	values = append(values, sheetHeader)
	for _, t := range txs {
		id := t.ID
		if id == "" {
			id = uuid.NewString()
		}
		values = append(values, rowValues(id, t))
	}

	vr := &gsheet.ValueRange{Values: values}
	writeRange := fmt.Sprintf("%s!A1", c.journalSheet)
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", writeRange, err)
	}

	slog.InfoContext(ctx, "Replaced journal sheet",
		"sheet", c.journalSheet, "row_count", len(txs))
	return nil
}

// Insert appends one row and returns its ID.
func (c *Client) Insert(ctx context.Context, t core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	id := t.ID
	if id == "" {
		id = uuid.NewString()
	}
	return id, c.Upsert(ctx, id, t)
}

// Upsert writes the row with the given ID, updating it in place when the
// ID already exists and appending otherwise. The worker uses this so
// redelivered sync messages stay idempotent.
func (c *Client) Upsert(ctx context.Context, id string, t core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row, err := c.findRow(ctx, id)
	if err != nil && !errors.Is(err, journal.ErrNotFound) {
		return err
	}

	vr := &gsheet.ValueRange{Values: [][]any{rowValues(id, t)}}

	if errors.Is(err, journal.ErrNotFound) {
		appendRange := fmt.Sprintf("%s!A:%s", c.journalSheet, lastColumn)
		_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, appendRange, vr).
			ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("append to %s: %w", c.journalSheet, err)
		}
		return nil
	}

	updateRange := fmt.Sprintf("%s!A%d:%s%d", c.journalSheet, row, lastColumn, row)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, updateRange, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", updateRange, err)
	}
	return nil
}

// Update rewrites an existing row.
func (c *Client) Update(ctx context.Context, id string, t core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if _, err := c.findRow(ctx, id); err != nil {
		return err
	}
	return c.Upsert(ctx, id, t)
}

// Delete removes the row with the given ID from the sheet.
func (c *Client) Delete(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d: %w", row, err)
	}
	return nil
}

// findRow scans the ID column and returns the 1-based sheet row for id.
func (c *Client) findRow(ctx context.Context, id string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", c.journalSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1, nil
		}
	}
	return 0, journal.ErrNotFound
}

// sheetID resolves the numeric sheet ID of the journal tab.
func (c *Client) sheetID(ctx context.Context) (int64, error) {
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet metadata: %w", err)
	}
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == c.journalSheet {
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.journalSheet)
}

func rowValues(id string, t core.Transaction) []any {
	t = t.Normalized()
	return []any{
		id,
		t.DocDate.String(),
		t.DocNo,
		string(t.DocType),
		t.Counterparty,
		t.Description,
		t.Category,
		t.GLCode,
		t.AmountNet.StringFixed(2),
		t.VATAmount.StringFixed(2),
		t.AmountGross.StringFixed(2),
		string(t.PaymentMethod),
		t.BankAccount,
		string(t.Status),
		t.PaymentDate.String(),
	}
}

func toRecords(values [][]any) [][]string {
	records := make([][]string, len(values))
	for i, row := range values {
		cols := make([]string, len(row))
		for j, v := range row {
			cols[j] = strings.TrimSpace(fmt.Sprint(v))
		}
		records[i] = cols
	}
	return records
}
