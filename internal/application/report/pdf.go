package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/spendsmart-api/internal/domain"
)

// maxRows caps the transaction table so a single statement stays printable.
const maxRows = 500

var txColumns = []struct {
	title string
	width float64
	align string
}{
	{"DATE", 24, "C"},
	{"TYPE", 22, "C"},
	{"CATEGORY", 42, "L"},
	{"DESCRIPTION", 64, "L"},
	{"AMOUNT", 30, "R"},
}

// renderStatement lays out the summary, category breakdown, monthly trend and
// transaction list for one user as an A4 PDF.
func renderStatement(owner string, sum domain.DashboardSummary, txs []domain.Transaction, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("SpendSmart Statement", false)
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, 18)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-14)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 8, fmt.Sprintf("Generated by SpendSmart %s - page %d", generatedAt.UTC().Format(time.RFC3339), pdf.PageNo()),
			"", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(20, 20, 20)
	pdf.Cell(0, 10, "SpendSmart Statement")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s", sum.StartDate.Format(domain.DateLayout), sum.EndDate.Format(domain.DateLayout)))
	pdf.Ln(5)
	pdf.Cell(0, 6, tr("Account: "+owner))
	pdf.Ln(10)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 10)
	for _, h := range []string{"Income", "Expense", "Balance", "Avg daily expense"} {
		pdf.CellFormat(45.5, 9, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	for _, v := range []string{
		sum.TotalIncome.StringFixed(2),
		sum.TotalExpense.StringFixed(2),
		sum.Balance.StringFixed(2),
		sum.AverageDailyExpense.StringFixed(2),
	} {
		pdf.CellFormat(45.5, 9, v, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.Ln(6)

	if len(sum.CategoryBreakdown) > 0 {
		section(pdf, "Spending by category")
		for _, b := range sum.CategoryBreakdown {
			pdf.CellFormat(90, 7, tr(b.CategoryName), "1", 0, "L", false, 0, "")
			pdf.CellFormat(46, 7, b.ExpenseAmount.StringFixed(2), "1", 0, "R", false, 0, "")
			pdf.CellFormat(46, 7, b.PercentageOfTotalExpense.StringFixed(2)+"%", "1", 1, "R", false, 0, "")
		}
		pdf.Ln(6)
	}

	if len(sum.MonthlyTrend) > 0 {
		section(pdf, "Monthly trend")
		for _, m := range sum.MonthlyTrend {
			pdf.CellFormat(60, 7, m.YearMonth, "1", 0, "C", false, 0, "")
			pdf.CellFormat(61, 7, m.Income.StringFixed(2), "1", 0, "R", false, 0, "")
			pdf.CellFormat(61, 7, m.Expense.StringFixed(2), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(6)
	}

	section(pdf, fmt.Sprintf("Transactions (%d)", len(txs)))
	txHeader(pdf)
	pdf.SetFont("Helvetica", "", 9)
	for i, t := range txs {
		if i >= maxRows {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(0, 7, fmt.Sprintf("%d more transactions not shown", len(txs)-maxRows), "1", 1, "C", false, 0, "")
			break
		}
		if pdf.GetY() > 265 {
			pdf.AddPage()
			txHeader(pdf)
			pdf.SetFont("Helvetica", "", 9)
		}
		amount := t.Amount.StringFixed(2)
		if t.Type == domain.TransactionExpense {
			amount = "-" + amount
		}
		cells := []string{
			t.Date.Format(domain.DateLayout),
			string(t.Type),
			tr(truncate(t.CategoryName, 24)),
			tr(truncate(t.Description, 40)),
			amount,
		}
		for j, c := range txColumns {
			ln := 0
			if j == len(txColumns)-1 {
				ln = 1
			}
			pdf.CellFormat(c.width, 7, cells[j], "1", ln, c.align, false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render statement: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
}

func txHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(245, 245, 245)
	for i, c := range txColumns {
		ln := 0
		if i == len(txColumns)-1 {
			ln = 1
		}
		pdf.CellFormat(c.width, 8, c.title, "1", ln, "C", true, 0, "")
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
