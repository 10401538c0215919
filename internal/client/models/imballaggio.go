package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Imballaggio is a packaging unit (crate, box, pallet) tracked per customer
// on delivery notes.
type Imballaggio struct {
	ID int64 `json:"id"`

	Nome string `json:"nome"`
	// Tara is the unit tare weight in kilograms.
	Tara decimal.Decimal `json:"tara"`

	CreatedAt time.Time `json:"createdAt"`

	Synced bool `json:"-"`
}

// ImballaggioDTO is the wire payload for creates/updates.
type ImballaggioDTO struct {
	Nome      string          `json:"nome"`
	Tara      decimal.Decimal `json:"tara"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (i Imballaggio) DTO() ImballaggioDTO {
	return ImballaggioDTO{Nome: i.Nome, Tara: i.Tara, CreatedAt: i.CreatedAt}
}
