package model

// Product is a storefront product built from the vendor catalog.
type Product struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Customizable bool      `json:"customizable"`
	Variants     []Variant `json:"variants"`
	Images       []string  `json:"images"`
}

// Variant is a purchasable color/size combination. Price is in minor currency units.
type Variant struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Enabled   bool   `json:"enabled"`
	Available bool   `json:"available"`
}
