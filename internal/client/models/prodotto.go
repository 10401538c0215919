package models

import "time"

// Prodotto is a produce item sold by the distributor.
type Prodotto struct {
	ID int64 `json:"id"`

	Nome string `json:"nome"`

	CreatedAt time.Time `json:"createdAt"`

	Synced bool `json:"-"`
}

// ProdottoDTO is the wire payload for creates/updates.
type ProdottoDTO struct {
	Nome      string    `json:"nome"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p Prodotto) DTO() ProdottoDTO {
	return ProdottoDTO{Nome: p.Nome, CreatedAt: p.CreatedAt}
}
