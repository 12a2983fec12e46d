// Package pdf renders invoices as PDF documents.
package pdf

import (
	"fmt"

	"github.com/diewo77/go-lawfirm/i18n"
	"github.com/diewo77/go-lawfirm/internal/billing"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	titleStyle  = props.Text{Size: 18, Style: fontstyle.Bold}
	headerStyle = props.Text{Size: 10, Style: fontstyle.Bold}
	bodyStyle   = props.Text{Size: 10}
	rightBody   = props.Text{Size: 10, Align: align.Right}
	rightHeader = props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}
	totalStyle  = props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right}
)

// Invoice renders s as an A4 PDF.
func Invoice(s billing.Statement) ([]byte, error) {
	t := func(code string) string { return i18n.T(s.Lang, code) }
	money := func(v float64) string { return billing.FormatMoney(v, s.Currency) }

	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()
	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(6, "JurisFlow", titleStyle),
		text.NewCol(6, fmt.Sprintf("%s #%s", t("invoice"), s.Number), props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(6,
		text.NewCol(6, t("firm_tagline"), bodyStyle),
		text.NewCol(6, fmt.Sprintf("%s: %s", t("invoice_date"), s.Date.Format("02.01.2006")), rightBody),
	)
	m.AddRow(6,
		text.NewCol(6, "", bodyStyle),
		text.NewCol(6, fmt.Sprintf("%s: %s", t("due_date"), s.DueDate.Format("02.01.2006")), rightBody),
	)
	m.AddRows(line.NewRow(4))

	m.AddRows(text.NewRow(7, t("client_info"), headerStyle))
	for _, v := range []string{s.ClientName, s.ClientAddress, s.ClientEmail, s.ClientTaxID} {
		if v != "" {
			m.AddRows(text.NewRow(5, v, bodyStyle))
		}
	}
	m.AddRows(line.NewRow(6))

	m.AddRow(8,
		text.NewCol(6, t("description"), headerStyle),
		text.NewCol(2, t("quantity"), rightHeader),
		text.NewCol(2, t("unit_price"), rightHeader),
		text.NewCol(2, t("line_total"), rightHeader),
	)
	for _, l := range s.Lines {
		m.AddRow(7,
			text.NewCol(6, l.Description, bodyStyle),
			text.NewCol(2, fmt.Sprintf("%g", l.Quantity), rightBody),
			text.NewCol(2, money(l.UnitPrice), rightBody),
			text.NewCol(2, money(l.Total), rightBody),
		)
	}
	m.AddRows(line.NewRow(4))

	m.AddRow(7,
		text.NewCol(9, t("subtotal"), rightHeader),
		text.NewCol(3, money(s.Subtotal), rightBody),
	)
	if s.VATRate > 0 {
		m.AddRow(7,
			text.NewCol(9, fmt.Sprintf("%s (%%%s)", t("vat"), billing.VATPercent(s.VATRate)), rightHeader),
			text.NewCol(3, money(s.VATAmount), rightBody),
		)
	}
	m.AddRow(9,
		text.NewCol(9, t("grand_total"), totalStyle),
		text.NewCol(3, money(s.Total), totalStyle),
	)

	if s.Notes != "" {
		m.AddRows(line.NewRow(6))
		m.AddRows(text.NewRow(7, t("notes"), headerStyle))
		m.AddRows(text.NewRow(12, s.Notes, bodyStyle))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate invoice pdf: %w", err)
	}
	return doc.GetBytes(), nil
}
