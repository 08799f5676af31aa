// Package export renders reconciliation snapshots as spreadsheets.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/escrow-portal/internal/application/service"
	"github.com/garyjia/escrow-portal/internal/domain/bucket"
)

// ContentType is the MIME type of the rendered workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// excel rejects longer sheet names
const maxSheetName = 31

// Options configures the workbook layout
type Options struct {
	SheetTitle string
	Currency   string
}

// WorkbookWriter renders a snapshot as an xlsx workbook: a summary sheet with
// every bucket's count and total, then one sheet per invoice bucket listing
// the invoices that bucket counts.
type WorkbookWriter struct {
	opts   Options
	logger *zap.Logger
}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(opts Options, logger *zap.Logger) *WorkbookWriter {
	if opts.SheetTitle == "" {
		opts.SheetTitle = "Summary"
	}
	if len(opts.SheetTitle) > maxSheetName {
		opts.SheetTitle = opts.SheetTitle[:maxSheetName]
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkbookWriter{opts: opts, logger: logger}
}

// Write renders snap into w
func (ww *WorkbookWriter) Write(snap *service.Snapshot, w io.Writer) error {
	if snap == nil || snap.Dashboard == nil {
		return errors.New("export: empty snapshot")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ww.opts.SheetTitle); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := ww.writeSummary(f, styles, snap); err != nil {
		return err
	}

	invoices := snap.Dashboard.InvoiceBuckets
	for _, key := range invoices.Keys() {
		if err := ww.writeInvoiceBucket(f, styles, key, invoices.Bucket(key)); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	ww.logger.Info("Workbook exported",
		zap.Time("generated_at", snap.GeneratedAt),
		zap.Int("invoices", invoices.Len()))
	return nil
}

type styles struct {
	header int
	amount int
}

func newStyles(f *excelize.File) (styles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return styles{}, fmt.Errorf("failed to create header style: %w", err)
	}
	// #,##0.00
	amount, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return styles{}, fmt.Errorf("failed to create amount style: %w", err)
	}
	return styles{header: header, amount: amount}, nil
}

func (ww *WorkbookWriter) writeSummary(f *excelize.File, st styles, snap *service.Snapshot) error {
	sheet := ww.opts.SheetTitle

	rows := [][]interface{}{
		{"Generated at", snap.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST")},
		{"Include archived", snap.Options.IncludeArchived},
		{"Total earned (" + ww.opts.Currency + ")", snap.Dashboard.TotalEarned.Float()},
		{},
		{"Kind", "Bucket", "Count", "Total (" + ww.opts.Currency + ")"},
	}
	headerRow := len(rows)

	sets := []*bucket.Set{snap.Dashboard.MilestoneBuckets, snap.Dashboard.InvoiceBuckets}
	if snap.Expenses != nil {
		sets = append(sets, snap.Expenses.Buckets)
	}
	if snap.Disputes != nil {
		sets = append(sets, snap.Disputes.Buckets)
	}
	for _, set := range sets {
		if set == nil {
			continue
		}
		summaries := set.Summaries()
		for _, key := range set.Keys() {
			sum := summaries[key]
			rows = append(rows, []interface{}{set.Kind().String(), key, sum.Count, sum.Total.Float()})
		}
	}

	for i, row := range rows {
		if err := setRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}

	if err := f.SetCellStyle(sheet, cell(1, headerRow), cell(4, headerRow), st.header); err != nil {
		return fmt.Errorf("failed to style summary header: %w", err)
	}
	if err := f.SetCellStyle(sheet, "B3", "B3", st.amount); err != nil {
		return fmt.Errorf("failed to style total earned: %w", err)
	}
	if len(rows) > headerRow {
		if err := f.SetCellStyle(sheet, cell(4, headerRow+1), cell(4, len(rows)), st.amount); err != nil {
			return fmt.Errorf("failed to style summary totals: %w", err)
		}
	}
	return f.SetColWidth(sheet, "A", "D", 20)
}

var invoiceColumns = []string{"ID", "Invoice", "Project", "Homeowner", "Due date", "Status", "Amount"}

func (ww *WorkbookWriter) writeInvoiceBucket(f *excelize.File, st styles, key string, items []bucket.Item) error {
	sheet := InvoiceSheetName(key)
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	header := make([]interface{}, len(invoiceColumns))
	for i, c := range invoiceColumns {
		header[i] = c
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cell(1, 1), cell(len(invoiceColumns), 1), st.header); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i, it := range items {
		rec := it.Record
		row := []interface{}{
			rec.String("id"),
			rec.FirstString("invoice_number", "invoice_id"),
			firstNonEmpty(rec.FirstString("project_title", "agreement_title", "title"), rec.Path("agreement", "title")),
			firstNonEmpty(rec.FirstString("homeowner_name", "customer_name"), rec.Path("homeowner", "name")),
			rec.FirstString("due_date", "due", "due_at"),
			it.Status,
			it.Amount.Float(),
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if len(items) > 0 {
		col := len(invoiceColumns)
		if err := f.SetCellStyle(sheet, cell(col, 2), cell(col, len(items)+1), st.amount); err != nil {
			return fmt.Errorf("failed to style %s amounts: %w", sheet, err)
		}
	}
	return f.SetColWidth(sheet, "A", "G", 18)
}

// InvoiceSheetName names the drill-down sheet of an invoice bucket
func InvoiceSheetName(key string) string {
	name := "Invoices " + strings.ReplaceAll(key, "_", " ")
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	if len(values) == 0 {
		return nil
	}
	if err := f.SetSheetRow(sheet, cell(1, row), &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
