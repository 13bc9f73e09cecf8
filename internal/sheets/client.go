// Package sheets implements the record store on a Google Sheets
// spreadsheet, the hosted-table backend. One sheet holds one record per row:
// id | name | value | category | created_at.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"adminsum/internal/core"
)

const dataRange = "A2:E" // row 1 is the header

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	sheetID       int64
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: ADMINSUM_SPREADSHEET_ID. Credentials come from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. Optional: ADMINSUM_SHEET_NAME
// (default "Records").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("ADMINSUM_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing ADMINSUM_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(os.Getenv("ADMINSUM_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Records"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	c := &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
	if err := c.resolveSheetID(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

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

// resolveSheetID maps the sheet title to its numeric id, needed by the
// row-deletion requests.
func (c *Client) resolveSheetID(ctx context.Context) error {
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return core.Unavailable("read spreadsheet metadata", err)
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			c.sheetID = sh.Properties.SheetId
			return nil
		}
	}
	return fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}

// FetchAll implements store.Lister. Rows are appended chronologically, so
// reading bottom-up gives newest-arrival-first before the stable sort
// settles records with distinct timestamps.
func (c *Client) FetchAll(ctx context.Context) ([]core.Record, error) {
	rng := fmt.Sprintf("%s!%s", c.sheetName, dataRange)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, core.Unavailable("fetch records", err)
	}

	records := make([]core.Record, 0, len(resp.Values))
	for i := len(resp.Values) - 1; i >= 0; i-- {
		rec, err := parseRow(resp.Values[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// Insert implements store.Writer.
func (c *Client) Insert(ctx context.Context, r core.Record) error {
	return c.append(ctx, [][]any{recordRow(r)})
}

// InsertMany implements store.Writer. One append call carries the whole
// batch, so it fails together.
func (c *Client) InsertMany(ctx context.Context, rs []core.Record) error {
	if len(rs) == 0 {
		return nil
	}
	rows := make([][]any, len(rs))
	for i, r := range rs {
		rows[i] = recordRow(r)
	}
	return c.append(ctx, rows)
}

func (c *Client) append(ctx context.Context, rows [][]any) error {
	rng := fmt.Sprintf("%s!%s", c.sheetName, dataRange)
	vr := &gsheet.ValueRange{Values: rows}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return core.Unavailable("append records", err)
	}
	return nil
}

// DeleteOne implements store.Deleter. A missing id is not an error.
func (c *Client) DeleteOne(ctx context.Context, id string) error {
	return c.DeleteBatch(ctx, []string{id})
}

// DeleteBatch implements store.Deleter. Row indexes are resolved once and
// deleted bottom-up inside a single batch request so earlier deletions do
// not shift the later indexes.
func (c *Client) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	rng := fmt.Sprintf("%s!A2:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return core.Unavailable("read id column", err)
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	var rowIndexes []int64 // zero-based sheet row indexes
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if _, ok := wanted[cellString(row[0])]; ok {
			rowIndexes = append(rowIndexes, int64(i+1)) // +1 for the header row
		}
	}
	if len(rowIndexes) == 0 {
		return nil
	}
	sort.Slice(rowIndexes, func(i, j int) bool { return rowIndexes[i] > rowIndexes[j] })

	requests := make([]*gsheet.Request, len(rowIndexes))
	for i, idx := range rowIndexes {
		requests[i] = &gsheet.Request{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    c.sheetID,
					Dimension:  "ROWS",
					StartIndex: idx,
					EndIndex:   idx + 1,
				},
			},
		}
	}

	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return core.Unavailable("delete rows", err)
	}
	return nil
}
