package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"resty.dev/v3"

	"pos_sales/internal/catalog"
	"pos_sales/internal/config"
	"pos_sales/internal/sales"
)

// ErrNotConfigured is returned when the spreadsheet side of an operation
// has no sheet ID or API key.
var ErrNotConfigured = errors.New("spreadsheet not configured")

// valueRange is the body shape of the values endpoints.
type valueRange struct {
	Range          string  `json:"range,omitempty"`
	MajorDimension string  `json:"majorDimension,omitempty"`
	Values         [][]any `json:"values"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Client reads the product sheet and appends approved sales to the sales
// sheet through the Sheets values API.
type Client struct {
	http   *resty.Client
	cfg    config.SheetsConfig
	logger *zap.Logger
}

func NewClient(cfg config.SheetsConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	hc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{http: hc, cfg: cfg, logger: logger}
}

// ProductsEnabled reports whether FetchProducts can reach a sheet.
func (c *Client) ProductsEnabled() bool {
	return c.cfg.APIKey != "" && c.cfg.ProductsSheetID != ""
}

// SalesEnabled reports whether AppendSale can reach a sheet.
func (c *Client) SalesEnabled() bool {
	return c.cfg.APIKey != "" && c.cfg.SalesSheetID != ""
}

func (c *Client) Close() error {
	return c.http.Close()
}

// FetchProducts reads the product range. Rows are id, name, retail price,
// wholesale price and an optional category; malformed rows are skipped.
func (c *Client) FetchProducts(ctx context.Context) ([]catalog.Product, error) {
	if !c.ProductsEnabled() {
		return nil, ErrNotConfigured
	}

	var body valueRange
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"sheetID": c.cfg.ProductsSheetID,
			"range":   c.cfg.ProductsRange,
		}).
		SetQueryParam("key", c.cfg.APIKey).
		SetResult(&body).
		Get("/spreadsheets/{sheetID}/values/{range}")
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch products: %s", describe(resp.StatusCode(), resp.String()))
	}

	products := make([]catalog.Product, 0, len(body.Values))
	for i, row := range body.Values {
		p, err := parseProductRow(row)
		if err != nil {
			c.logger.Warn("skipping product row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		products = append(products, p)
	}

	c.logger.Debug("products fetched from spreadsheet", zap.Int("count", len(products)))
	return products, nil
}

// AppendSale adds one row per sale: id, user, total, date, status.
func (c *Client) AppendSale(ctx context.Context, sale sales.Sale) error {
	if !c.SalesEnabled() {
		return ErrNotConfigured
	}

	row := valueRange{
		MajorDimension: "ROWS",
		Values: [][]any{{
			sale.ID,
			sale.UserName,
			sale.Total.StringFixed(2),
			sale.Date.Format(time.RFC3339),
			string(sale.Status),
		}},
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"sheetID": c.cfg.SalesSheetID,
			"range":   c.cfg.SalesRange,
		}).
		SetQueryParams(map[string]string{
			"key":              c.cfg.APIKey,
			"valueInputOption": "RAW",
			"insertDataOption": "INSERT_ROWS",
		}).
		SetHeader("Content-Type", "application/json").
		SetBody(row).
		Post("/spreadsheets/{sheetID}/values/{range}:append")
	if err != nil {
		return fmt.Errorf("append sale %s: %w", sale.ID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("append sale %s: %s", sale.ID, describe(resp.StatusCode(), resp.String()))
	}

	c.logger.Debug("sale appended to spreadsheet", zap.String("sale_id", sale.ID))
	return nil
}

func parseProductRow(row []any) (catalog.Product, error) {
	cell := func(i int) string {
		if i >= len(row) || row[i] == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(row[i]))
	}

	if len(row) < 4 {
		return catalog.Product{}, fmt.Errorf("expected at least 4 cells, got %d", len(row))
	}

	p := catalog.Product{
		ID:       cell(0),
		Name:     cell(1),
		Category: cell(4),
	}
	if p.ID == "" || p.Name == "" {
		return catalog.Product{}, errors.New("missing id or name")
	}

	var err error
	if p.RetailPrice, err = parsePrice(cell(2)); err != nil {
		return catalog.Product{}, fmt.Errorf("retail price: %w", err)
	}
	if p.WholesalePrice, err = parsePrice(cell(3)); err != nil {
		return catalog.Product{}, fmt.Errorf("wholesale price: %w", err)
	}
	return p, nil
}

// parsePrice accepts plain numbers and tolerates a leading currency sign
// and thousands separators.
func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %s", d)
	}
	return d, nil
}

func describe(status int, body string) string {
	var e apiError
	if json.Unmarshal([]byte(body), &e) == nil && e.Error.Message != "" {
		return fmt.Sprintf("status %d: %s", status, e.Error.Message)
	}
	return fmt.Sprintf("status %d", status)
}
