package core

import (
	"encoding/json"
)

// Product is a server-owned catalog record. Inbound records are normalized
// at the ingestion boundary: some backends key products by "id", others by
// "_id", and UnmarshalJSON maps both onto the canonical ID field so that
// downstream lookups never deal with dual identifiers.
type Product struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Description     string       `json:"description,omitempty"`
	RegularPrice    float64      `json:"regularPrice"`
	DiscountedPrice float64      `json:"discountedPrice,omitempty"`
	Stock           int          `json:"stock"`
	Category        string       `json:"category,omitempty"`
	Stems           int          `json:"stems,omitempty"`
	Color           string       `json:"color,omitempty"`
	Rating          float64      `json:"rating,omitempty"`
	Image           ProductImage `json:"image,omitempty"`
}

// ProductImage is a reference to a product picture
type ProductImage struct {
	URL string `json:"url,omitempty"`
	Alt string `json:"alt,omitempty"`
}

// UnmarshalJSON normalizes the legacy "_id" identifier onto ID
func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	aux := struct {
		*alias
		LegacyID string `json:"_id"`
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = aux.LegacyID
	}
	return nil
}

// EffectivePrice returns the price a line item is charged at: the
// discounted price when one is set, the regular price otherwise.
func (p Product) EffectivePrice() float64 {
	if p.DiscountedPrice > 0 {
		return p.DiscountedPrice
	}
	return p.RegularPrice
}
