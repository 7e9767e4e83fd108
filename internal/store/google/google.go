// Package google stores expenses and the vocabulary in a Google Sheets
// spreadsheet: one sheet of expense rows, one sheet holding the category
// and user columns.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"kharcha/internal/core"
	"kharcha/internal/store"
)

var _ store.Store = (*Client)(nil)

// Config selects the spreadsheet and how to authenticate.
type Config struct {
	SpreadsheetID   string
	ExpensesSheet   string
	SettingsSheet   string
	CredentialsJSON string
	CredentialsFile string
	PollInterval    time.Duration
}

// valuesAPI is the slice of the Sheets values API the client uses.
type valuesAPI interface {
	Get(ctx context.Context, rng string) ([][]any, error)
	Append(ctx context.Context, rng string, rows [][]any) error
	Update(ctx context.Context, rng string, rows [][]any) error
}

type Client struct {
	values        valuesAPI
	expensesSheet string
	settingsSheet string
	pollInterval  time.Duration

	// settings writes are read-modify-write on a column.
	settingsMu sync.Mutex
	hub        store.Hub
}

// New connects to the Sheets API with service account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(&sheetsValues{svc: svc, spreadsheetID: cfg.SpreadsheetID}, cfg), nil
}

func newClient(v valuesAPI, cfg Config) *Client {
	c := &Client{
		values:        v,
		expensesSheet: cfg.ExpensesSheet,
		settingsSheet: cfg.SettingsSheet,
		pollInterval:  cfg.PollInterval,
	}
	if c.expensesSheet == "" {
		c.expensesSheet = "Expenses"
	}
	if c.settingsSheet == "" {
		c.settingsSheet = "Settings"
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 30 * time.Second
	}
	return c
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credentialsJSON := []byte(strings.TrimSpace(cfg.CredentialsJSON))
	file := strings.TrimSpace(cfg.CredentialsFile)
	if len(credentialsJSON) == 0 && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if len(credentialsJSON) == 0 {
		if file == "" {
			return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
		}
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	}
	slog.InfoContext(ctx, "Creating Google Sheets service", "credentials_size", len(credentialsJSON))
	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// AppendExpense assigns a ULID and appends the row.
func (c *Client) AppendExpense(ctx context.Context, n core.NewExpense) (core.Expense, error) {
	n = n.Normalize()
	if err := n.Validate(); err != nil {
		return core.Expense{}, err
	}
	e := n.WithID(store.NewID())
	if err := c.AppendRow(ctx, e); err != nil {
		return core.Expense{}, err
	}
	if err := c.hub.Notify(ctx, c.ListExpenses); err != nil {
		slog.WarnContext(ctx, "Snapshot notify failed", "error", err)
	}
	return e, nil
}

// AppendRow writes an expense that already has an ID, as the mirror worker
// does for expenses recorded in another backend.
func (c *Client) AppendRow(ctx context.Context, e core.Expense) error {
	rng := fmt.Sprintf("%s!A:F", c.expensesSheet)
	if err := c.values.Append(ctx, rng, [][]any{expenseRow(e)}); err != nil {
		return core.NewStorageError("append row to "+c.expensesSheet, err)
	}
	slog.InfoContext(ctx, "Expense appended to sheet", "id", e.ID, "sheet", c.expensesSheet)
	return nil
}

// ListExpenses reads every row. Rows that cannot be parsed are skipped and
// logged.
func (c *Client) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rng := fmt.Sprintf("%s!A:F", c.expensesSheet)
	values, err := c.values.Get(ctx, rng)
	if err != nil {
		return nil, core.NewStorageError("read "+rng, err)
	}
	out, skipped := parseExpenseRows(values)
	if skipped > 0 {
		slog.WarnContext(ctx, "Skipped unreadable expense rows", "sheet", c.expensesSheet, "count", skipped)
	}
	return out, nil
}

func (c *Client) Settings(ctx context.Context) (core.Vocabulary, error) {
	cats, users, err := c.readSettings(ctx)
	if err != nil {
		return core.Vocabulary{}, err
	}
	return core.NewVocabulary(cats, users), nil
}

func (c *Client) readSettings(ctx context.Context) ([]string, []string, error) {
	rng := fmt.Sprintf("%s!A2:B", c.settingsSheet)
	values, err := c.values.Get(ctx, rng)
	if err != nil {
		return nil, nil, core.NewStorageError("read "+rng, err)
	}
	cats, users := parseSettingsRows(values)
	return cats, users, nil
}

func (c *Client) AppendCategory(ctx context.Context, name string) (core.Vocabulary, error) {
	return c.appendSetting(ctx, "A", name, core.Vocabulary.WithCategory)
}

func (c *Client) AppendUser(ctx context.Context, name string) (core.Vocabulary, error) {
	return c.appendSetting(ctx, "B", name, core.Vocabulary.WithUser)
}

func (c *Client) appendSetting(ctx context.Context, col, name string, with func(core.Vocabulary, string) (core.Vocabulary, bool, error)) (core.Vocabulary, error) {
	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()

	cur, err := c.Settings(ctx)
	if err != nil {
		return core.Vocabulary{}, err
	}
	next, changed, err := with(cur, name)
	if err != nil || !changed {
		return cur, err
	}

	// Rewrite the whole column: this persists the defaults when the sheet
	// was empty and compacts gaps and repeats.
	column := next.Categories
	if col == "B" {
		column = next.Users
	}
	rows := make([][]any, 0, len(column))
	for _, v := range column {
		rows = append(rows, []any{v})
	}
	rng := fmt.Sprintf("%s!%s2:%s%d", c.settingsSheet, col, col, len(column)+1)
	if err := c.values.Update(ctx, rng, rows); err != nil {
		return cur, core.NewStorageError("write "+rng, err)
	}
	return next, nil
}

// Subscribe polls the expense sheet and pushes a snapshot whenever its
// content changes, as well as after appends made through this client. A
// failed poll ends the subscription with the storage error so the caller can
// record it and resubscribe; the last delivered snapshot stays current.
func (c *Client) Subscribe(ctx context.Context, fn func([]core.Expense)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu   sync.Mutex
		seen bool
		last []core.Expense
	)
	deliver := func(records []core.Expense) {
		mu.Lock()
		defer mu.Unlock()
		if seen && slices.Equal(last, records) {
			return
		}
		seen, last = true, records
		fn(records)
	}

	errc := make(chan error, 1)
	go func() { errc <- c.hub.Subscribe(ctx, c.ListExpenses, deliver) }()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case err := <-errc:
			return err
		case <-ticker.C:
			records, err := c.ListExpenses(ctx)
			if err != nil {
				slog.WarnContext(ctx, "Sheet poll failed", "sheet", c.expensesSheet, "error", err)
				return err
			}
			deliver(records)
		}
	}
}

type sheetsValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (s *sheetsValues) Get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *sheetsValues) Append(ctx context.Context, rng string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return err
}

func (s *sheetsValues) Update(ctx context.Context, rng string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	return err
}
