// Package printing defines the read-only data contract handed to the PDF
// renderer. Layout belongs to the renderer; this package only assembles the
// numbers and resolved names a printed delivery note shows.
package printing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ortofresco/gestionale/internal/client/models"
)

// Line is one printable line item with its derived totals.
type Line struct {
	Prodotto       string
	Qualita        string
	Imballaggio    string
	NumeroColli    int
	PesoLordo      decimal.Decimal
	PesoNetto      decimal.Decimal
	PrezzoUnitario decimal.Decimal
	Importo        decimal.Decimal
}

// PackagingLine is one packaging manifest entry with its resolved tare.
type PackagingLine struct {
	Imballaggio string
	Quantita    int
	TaraUnita   decimal.Decimal
}

// Document is everything the renderer needs to print one delivery note.
// Values are computed once at assembly time; the renderer never recalculates.
type Document struct {
	Numero       string
	Data         time.Time
	Destinatario string
	Indirizzo    string
	Citta        string
	CAP          string
	Provincia    string
	PartitaIVA   string
	Causale      string

	Righe              []Line
	ColliDaTrasportare []PackagingLine
	ColliDaRendere     []PackagingLine

	PesoLordoTotale decimal.Decimal
	PesoNettoTotale decimal.Decimal
	Totale          decimal.Decimal
}

// Renderer turns an assembled document into its printable form.
type Renderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
}

// BuildDocument assembles the printable view of a delivery note. The
// imballaggi list resolves packaging names to tare weights; unknown names
// print with zero tare.
func BuildDocument(b models.Bolla, imballaggi []models.Imballaggio) Document {
	tare := make(map[string]decimal.Decimal, len(imballaggi))
	for _, i := range imballaggi {
		tare[i.Nome] = i.Tara
	}

	doc := Document{
		Numero:       b.Numero,
		Data:         b.Data,
		Destinatario: b.Destinatario,
		Indirizzo:    b.Indirizzo,
		Citta:        b.Citta,
		CAP:          b.CAP,
		Provincia:    b.Provincia,
		PartitaIVA:   b.PartitaIVA,
		Causale:      b.Causale,

		PesoLordoTotale: b.PesoLordoTotale(),
		PesoNettoTotale: b.PesoNettoTotale(),
		Totale:          b.Totale(),
	}

	for _, r := range b.Righe {
		doc.Righe = append(doc.Righe, Line{
			Prodotto:       r.Prodotto,
			Qualita:        r.Qualita,
			Imballaggio:    r.Imballaggio,
			NumeroColli:    r.NumeroColli,
			PesoLordo:      r.PesoLordo,
			PesoNetto:      r.PesoNetto,
			PrezzoUnitario: r.PrezzoUnitario,
			Importo:        r.PrezzoUnitario.Mul(r.PesoNetto),
		})
	}
	doc.ColliDaTrasportare = packagingLines(b.ColliDaTrasportare, tare)
	doc.ColliDaRendere = packagingLines(b.ColliDaRendere, tare)
	return doc
}

func packagingLines(colli []models.Collo, tare map[string]decimal.Decimal) []PackagingLine {
	var lines []PackagingLine
	for _, c := range colli {
		lines = append(lines, PackagingLine{
			Imballaggio: c.Imballaggio,
			Quantita:    c.Quantita,
			TaraUnita:   tare[c.Imballaggio],
		})
	}
	return lines
}
