package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RigaBolla is one line item on a delivery note.
type RigaBolla struct {
	Prodotto       string          `json:"prodotto"`
	Qualita        string          `json:"qualita"`
	PrezzoUnitario decimal.Decimal `json:"prezzoUnitario"`
	Imballaggio    string          `json:"imballaggio"`
	NumeroColli    int             `json:"numeroColli"`
	PesoLordo      decimal.Decimal `json:"pesoLordo"`
	PesoNetto      decimal.Decimal `json:"pesoNetto"`
}

// Collo is a packaging manifest entry (packaging shipped with the goods or
// returned empty by the customer).
type Collo struct {
	Imballaggio string `json:"imballaggio"`
	Quantita    int    `json:"quantita"`
}

// Bolla is a delivery note (transport document).
type Bolla struct {
	ID int64 `json:"id"`

	// Numero is the document number as printed, including the /bis or
	// /generica suffix. Parsing and formatting belong to the numbering
	// package; everything else treats it as opaque.
	Numero string    `json:"numero"`
	Data   time.Time `json:"data"`

	// ClienteID links the recipient to a customer record; nil for generica
	// documents with free-text recipients.
	ClienteID *int64 `json:"clienteId"`

	Destinatario  string `json:"destinatario"`
	Indirizzo     string `json:"indirizzo"`
	Citta         string `json:"citta"`
	CAP           string `json:"cap"`
	Provincia     string `json:"provincia"`
	PartitaIVA    string `json:"partitaIva"`
	CodiceFiscale string `json:"codiceFiscale"`
	Telefono      string `json:"telefono"`

	// Causale is the reason-for-transport free text.
	Causale string `json:"causale"`

	Righe              []RigaBolla `json:"righe"`
	ColliDaTrasportare []Collo     `json:"colliDaTrasportare"`
	ColliDaRendere     []Collo     `json:"colliDaRendere"`

	CreatedAt time.Time `json:"createdAt"`

	// Synced reports whether the local row matches a confirmed remote
	// counterpart. Local-only, never serialized.
	Synced bool `json:"-"`

	// ModifiedOffline distinguishes a synced record edited while offline
	// from a record created offline. Local-only, never serialized.
	ModifiedOffline bool `json:"-"`
}

// BollaDTO is the wire payload for creates/updates: the document minus
// local-only identity and sync flags.
type BollaDTO struct {
	Numero             string      `json:"numero"`
	Data               time.Time   `json:"data"`
	ClienteID          *int64      `json:"clienteId"`
	Destinatario       string      `json:"destinatario"`
	Indirizzo          string      `json:"indirizzo"`
	Citta              string      `json:"citta"`
	CAP                string      `json:"cap"`
	Provincia          string      `json:"provincia"`
	PartitaIVA         string      `json:"partitaIva"`
	CodiceFiscale      string      `json:"codiceFiscale"`
	Telefono           string      `json:"telefono"`
	Causale            string      `json:"causale"`
	Righe              []RigaBolla `json:"righe"`
	ColliDaTrasportare []Collo     `json:"colliDaTrasportare"`
	ColliDaRendere     []Collo     `json:"colliDaRendere"`
	CreatedAt          time.Time   `json:"createdAt"`
}

func (b Bolla) DTO() BollaDTO {
	return BollaDTO{
		Numero:             b.Numero,
		Data:               b.Data,
		ClienteID:          b.ClienteID,
		Destinatario:       b.Destinatario,
		Indirizzo:          b.Indirizzo,
		Citta:              b.Citta,
		CAP:                b.CAP,
		Provincia:          b.Provincia,
		PartitaIVA:         b.PartitaIVA,
		CodiceFiscale:      b.CodiceFiscale,
		Telefono:           b.Telefono,
		Causale:            b.Causale,
		Righe:              b.Righe,
		ColliDaTrasportare: b.ColliDaTrasportare,
		ColliDaRendere:     b.ColliDaRendere,
		CreatedAt:          b.CreatedAt,
	}
}

// PesoLordoTotale sums the gross weight of all line items.
func (b Bolla) PesoLordoTotale() decimal.Decimal {
	total := decimal.Zero
	for _, r := range b.Righe {
		total = total.Add(r.PesoLordo)
	}
	return total
}

// PesoNettoTotale sums the net weight of all line items.
func (b Bolla) PesoNettoTotale() decimal.Decimal {
	total := decimal.Zero
	for _, r := range b.Righe {
		total = total.Add(r.PesoNetto)
	}
	return total
}

// Totale computes the document total as sum(prezzo unitario * peso netto).
// Produce is priced by net weight, not by carton count.
func (b Bolla) Totale() decimal.Decimal {
	total := decimal.Zero
	for _, r := range b.Righe {
		total = total.Add(r.PrezzoUnitario.Mul(r.PesoNetto))
	}
	return total
}
