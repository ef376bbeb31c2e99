// Package pdf genera la minuta de venta imprimible.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Concesionaria + MINUTA DE VENTA │ N° + Fecha       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CLIENTE: Nombre + DNI        │  VENDEDOR + Estado          │
//	│  VEHÍCULO: Marca modelo versión (año) + Dominio              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PRECIOS: Precio de lista / Bonificación / PRECIO FINAL      │
//	│  CONDICIONES: Financiación / Permuta / Seña                  │
//	│  OBSERVACIONES                                               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FIRMAS + QR con el identificador de la minuta               │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/concesionaria-api/internal/application/minute"
	"github.com/jhoicas/concesionaria-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ minute.Renderer = (*MinuteRenderer)(nil)

// MinuteRenderer implementa minute.Renderer usando Maroto v2.
type MinuteRenderer struct {
	dealer string
}

// NewMinuteRenderer dealer es el nombre que encabeza el documento.
func NewMinuteRenderer(dealer string) *MinuteRenderer {
	if dealer == "" {
		dealer = "Concesionaria"
	}
	return &MinuteRenderer{dealer: dealer}
}

// RenderMinute genera el PDF y devuelve sus bytes.
func (g *MinuteRenderer) RenderMinute(_ context.Context, m *entity.MinuteView) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).WithRightMargin(12).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Minuta de venta "+m.ID, true).
		WithAuthor(g.dealer, true).
		Build()

	doc := maroto.New(cfg)

	doc.AddRows(g.headerRow(m))
	doc.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	doc.AddRows(partiesRow(m))
	doc.AddRows(vehicleRow(m))
	doc.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	doc.AddRows(pricesRow(m))
	doc.AddRows(termsRows(m.Terms)...)
	if strings.TrimSpace(m.Notes) != "" {
		doc.AddRows(section("OBSERVACIONES"))
		doc.AddRows(row.New(14).Add(col.New(12).Add(
			text.New(m.Notes, props.Text{Size: 8, Top: 1, Color: colorGray}),
		)))
	}
	doc.AddRows(line.NewRow(6))
	doc.AddRows(signatureRow(m))

	out, err := doc.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar minuta: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *MinuteRenderer) headerRow(m *entity.MinuteView) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(g.dealer, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("Documento interno de reserva y venta", props.Text{Size: 8, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("MINUTA DE VENTA", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("N° "+shortID(m.ID), props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 7}),
			text.New("Fecha: "+m.CreatedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func partiesRow(m *entity.MinuteView) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New("CLIENTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(m.ClientName, "-"), props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New("DNI: "+nonEmpty(m.ClientDNI, "-"), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("VENDEDOR", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(m.VendorName, "-"), props.Text{Size: 9, Align: align.Right, Top: 6}),
			text.New("Estado: "+strings.ToUpper(m.State), props.Text{Size: 8, Align: align.Right, Top: 12, Color: colorGray}),
		),
	)
}

func vehicleRow(m *entity.MinuteView) core.Row {
	plate := "0 km"
	if m.VehiclePlate != "" {
		plate = "Dominio: " + m.VehiclePlate
	}
	return row.New(14).Add(col.New(12).Add(
		text.New("VEHÍCULO", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		text.New(nonEmpty(m.VehicleLabel, "-"), props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
		text.New(plate, props.Text{Size: 8, Top: 11, Color: colorGray}),
	))
}

// pricesRow bloque de importes alineado a la derecha.
func pricesRow(m *entity.MinuteView) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grand := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1})
	}

	discount := m.OriginalPrice.Sub(m.FinalPrice)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return row.New(20).Add(
		col.New(4),
		col.New(4).Add(
			label("Precio de lista:"),
			label("Bonificación:"),
			label("PRECIO FINAL:"),
		),
		col.New(4).Add(
			value(money(m.OriginalPrice)),
			value(money(discount)),
			grand(money(m.FinalPrice)),
		),
	)
}

// termsRows solo las condiciones informadas.
func termsRows(t entity.MinuteTerms) []core.Row {
	var lines []string
	if t.Financing != "" {
		lines = append(lines, "Financiación: "+t.Financing)
	}
	if t.FinancingAdvance.Valid {
		lines = append(lines, "Anticipo: "+money(t.FinancingAdvance.Decimal))
	}
	if t.FinancingInstallments != nil {
		lines = append(lines, fmt.Sprintf("Cuotas: %d", *t.FinancingInstallments))
	}
	if t.FinancingPrice.Valid {
		lines = append(lines, "Precio financiado: "+money(t.FinancingPrice.Decimal))
	}
	if t.TradeIn {
		lines = append(lines, "Permuta: "+nonEmpty(t.TradeInData, "sí"))
	}
	if t.ReserveAmount.Valid {
		lines = append(lines, "Seña: "+money(t.ReserveAmount.Decimal))
	}
	if len(lines) == 0 {
		return nil
	}
	rows := []core.Row{section("CONDICIONES")}
	for _, l := range lines {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(l, props.Text{Size: 8, Top: 0.5, Left: 2}),
		)))
	}
	return rows
}

func signatureRow(m *entity.MinuteView) core.Row {
	sign := func(who string) core.Col {
		return col.New(4).Add(
			text.New("______________________", props.Text{Size: 9, Align: align.Center, Top: 18}),
			text.New(who, props.Text{Size: 8, Align: align.Center, Top: 24, Color: colorGray}),
		)
	}
	return row.New(40).Add(
		sign("Firma del cliente"),
		sign("Firma del vendedor"),
		col.New(4).Add(code.NewQr(m.ID, props.Rect{Percent: 80, Center: true})),
	)
}

func section(title string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// money "$" más el importe entero con puntos de miles.
func money(d decimal.Decimal) string {
	return "$" + formatMoney(d.StringFixed(0))
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "1000000" → "1.000.000"
func formatMoney(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}

// shortID primeros 8 caracteres del uuid, suficiente para identificarla en papel.
func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}
