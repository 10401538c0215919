package models

import "time"

// Cliente is a customer of the distributor.
type Cliente struct {
	// ID is the record identifier; server-assigned when created online,
	// provisional (local-only) when created offline.
	ID int64 `json:"id"`

	RagioneSociale string `json:"ragioneSociale"`
	Indirizzo      string `json:"indirizzo"`
	Citta          string `json:"citta"`
	CAP            string `json:"cap"`
	Provincia      string `json:"provincia"`
	PartitaIVA     string `json:"partitaIva"`
	CodiceFiscale  string `json:"codiceFiscale"`
	Telefono       string `json:"telefono"`
	Email          string `json:"email"`

	CreatedAt time.Time `json:"createdAt"`

	// Synced reports whether the local row matches a confirmed remote
	// counterpart. Local-only, never serialized.
	Synced bool `json:"-"`
}

// ClienteDTO is the wire payload for creates/updates: the entity minus
// local-only identity and sync state.
type ClienteDTO struct {
	RagioneSociale string    `json:"ragioneSociale"`
	Indirizzo      string    `json:"indirizzo"`
	Citta          string    `json:"citta"`
	CAP            string    `json:"cap"`
	Provincia      string    `json:"provincia"`
	PartitaIVA     string    `json:"partitaIva"`
	CodiceFiscale  string    `json:"codiceFiscale"`
	Telefono       string    `json:"telefono"`
	Email          string    `json:"email"`
	CreatedAt      time.Time `json:"createdAt"`
}

// DTO projects the entity onto its wire payload.
func (c Cliente) DTO() ClienteDTO {
	return ClienteDTO{
		RagioneSociale: c.RagioneSociale,
		Indirizzo:      c.Indirizzo,
		Citta:          c.Citta,
		CAP:            c.CAP,
		Provincia:      c.Provincia,
		PartitaIVA:     c.PartitaIVA,
		CodiceFiscale:  c.CodiceFiscale,
		Telefono:       c.Telefono,
		Email:          c.Email,
		CreatedAt:      c.CreatedAt,
	}
}
