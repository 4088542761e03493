// Package pdf lays out invoices as PDF documents.
package pdf

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"invoiceflow/internal/models"
)

const dateLayout = "Jan 2, 2006"

var (
	mutedColor  = &props.Color{Red: 110, Green: 110, Blue: 110}
	accentColor = &props.Color{Red: 37, Green: 99, Blue: 235}
	headerFill  = &props.Color{Red: 243, Green: 244, Blue: 246}
)

// Document is everything printed on an invoice.
type Document struct {
	Invoice *models.Invoice
	Client  *models.Client
	Owner   *models.User
}

// Renderer turns a Document into PDF bytes.
type Renderer interface {
	Render(doc Document) ([]byte, error)
}

type marotoRenderer struct {
	margin float64
}

// NewRenderer returns the default maroto-backed Renderer.
func NewRenderer() Renderer {
	return &marotoRenderer{margin: 15}
}

// Render builds the invoice layout and returns the generated bytes.
func (r *marotoRenderer) Render(doc Document) ([]byte, error) {
	if doc.Invoice == nil {
		return nil, fmt.Errorf("pdf: invoice is required")
	}
	client := doc.Client
	if client == nil {
		client = doc.Invoice.Client
	}
	if client == nil {
		client = &models.Client{}
	}
	owner := doc.Owner
	if owner == nil {
		owner = &models.User{}
	}

	cfg := config.NewBuilder().
		WithLeftMargin(r.margin).
		WithRightMargin(r.margin).
		WithTopMargin(r.margin).
		Build()

	m := maroto.New(cfg)
	m.AddRows(header(doc.Invoice, owner)...)
	m.AddRows(billTo(doc.Invoice, client)...)
	m.AddRows(itemTable(doc.Invoice)...)
	m.AddRows(totals(doc.Invoice)...)
	m.AddRows(notes(doc.Invoice)...)

	generated, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generate invoice %s: %w", doc.Invoice.InvoiceNumber, err)
	}
	return generated.GetBytes(), nil
}

// Filename is the download name of an invoice PDF.
func Filename(inv *models.Invoice) string {
	return "invoice-" + inv.InvoiceNumber + ".pdf"
}

func header(inv *models.Invoice, owner *models.User) []core.Row {
	rows := []core.Row{
		row.New(12).Add(
			text.NewCol(7, owner.BusinessName(), props.Text{Size: 16, Style: fontstyle.Bold}),
			text.NewCol(5, "INVOICE", props.Text{Size: 18, Style: fontstyle.Bold, Align: align.Right, Color: accentColor}),
		),
		row.New(5).Add(
			text.NewCol(7, owner.Email, props.Text{Size: 9, Color: mutedColor}),
			text.NewCol(5, inv.InvoiceNumber, props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
		),
	}
	for _, l := range owner.Address.Lines() {
		rows = append(rows, text.NewRow(5, l, props.Text{Size: 9, Color: mutedColor}))
	}
	if owner.Phone != "" {
		rows = append(rows, text.NewRow(5, owner.Phone, props.Text{Size: 9, Color: mutedColor}))
	}
	rows = append(rows,
		row.New(4),
		line.NewRow(2),
		row.New(4),
	)
	return rows
}

func billTo(inv *models.Invoice, client *models.Client) []core.Row {
	left := []string{client.Name}
	if client.Email != "" {
		left = append(left, client.Email)
	}
	if client.Phone != "" {
		left = append(left, client.Phone)
	}
	left = append(left, client.Address.Lines()...)

	right := []string{
		"Status: " + strings.ToUpper(string(inv.Status)),
		"Issue date: " + inv.IssueDate.Format(dateLayout),
		"Due date: " + inv.DueDate.Format(dateLayout),
	}

	rows := []core.Row{
		row.New(6).Add(
			text.NewCol(7, "BILL TO", props.Text{Size: 9, Style: fontstyle.Bold, Color: mutedColor}),
			text.NewCol(5, "DETAILS", props.Text{Size: 9, Style: fontstyle.Bold, Color: mutedColor, Align: align.Right}),
		),
	}

	n := len(left)
	if len(right) > n {
		n = len(right)
	}
	for i := 0; i < n; i++ {
		r := row.New(5)
		if i < len(left) {
			style := fontstyle.Normal
			if i == 0 {
				style = fontstyle.Bold
			}
			r.Add(text.NewCol(7, left[i], props.Text{Size: 10, Style: style}))
		} else {
			r.Add(col.New(7))
		}
		if i < len(right) {
			r.Add(text.NewCol(5, right[i], props.Text{Size: 10, Align: align.Right}))
		} else {
			r.Add(col.New(5))
		}
		rows = append(rows, r)
	}
	return append(rows, row.New(8))
}

func itemTable(inv *models.Invoice) []core.Row {
	headStyle := props.Text{Size: 9, Style: fontstyle.Bold, Top: 2}
	headRight := headStyle
	headRight.Align = align.Right

	rows := []core.Row{
		row.New(8).Add(
			text.NewCol(6, "Description", headStyle),
			text.NewCol(2, "Quantity", headRight),
			text.NewCol(2, "Unit price", headRight),
			text.NewCol(2, "Amount", headRight),
		).WithStyle(&props.Cell{BackgroundColor: headerFill}),
	}

	cell := props.Text{Size: 9, Top: 1.5}
	cellRight := cell
	cellRight.Align = align.Right
	for _, item := range inv.Items {
		rows = append(rows, row.New(7).Add(
			text.NewCol(6, item.Description, cell),
			text.NewCol(2, formatQuantity(item.Quantity), cellRight),
			text.NewCol(2, formatMoney(item.Price), cellRight),
			text.NewCol(2, formatMoney(item.Amount), cellRight),
		))
	}
	return append(rows, row.New(3), line.NewRow(2))
}

func totals(inv *models.Invoice) []core.Row {
	label := props.Text{Size: 10, Align: align.Right}
	value := props.Text{Size: 10, Align: align.Right}
	bold := props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right}

	return []core.Row{
		row.New(6).Add(
			col.New(6),
			text.NewCol(4, "Subtotal", label),
			text.NewCol(2, formatMoney(inv.Subtotal), value),
		),
		row.New(6).Add(
			col.New(6),
			text.NewCol(4, fmt.Sprintf("Tax (%s%%)", formatQuantity(inv.TaxRate)), label),
			text.NewCol(2, formatMoney(inv.TaxAmount), value),
		),
		row.New(8).Add(
			col.New(6),
			text.NewCol(4, "Total", bold),
			text.NewCol(2, formatMoney(inv.Total), bold),
		),
	}
}

func notes(inv *models.Invoice) []core.Row {
	if strings.TrimSpace(inv.Notes) == "" {
		return nil
	}
	rows := []core.Row{
		row.New(8),
		text.NewRow(6, "Notes", props.Text{Size: 9, Style: fontstyle.Bold, Color: mutedColor}),
	}
	for _, l := range strings.Split(inv.Notes, "\n") {
		rows = append(rows, text.NewRow(5, l, props.Text{Size: 9}))
	}
	return rows
}

func formatMoney(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func formatQuantity(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
