package product

import "time"

type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Brand       string    `json:"brand"`
	Quantity    int       `json:"quantity"`
	Sold        int       `json:"sold"`
	Image       string    `json:"image"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductInput is the create/update body. The slug is never accepted from
// the client; it is derived from Title.
type ProductInput struct {
	Title       string  `json:"title" validate:"required,max=150"`
	Description string  `json:"description" validate:"required,max=2000"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Category    string  `json:"category" validate:"required,max=100"`
	Brand       string  `json:"brand" validate:"required,max=100"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
	Sold        int     `json:"sold" validate:"gte=0"`
	Image       string  `json:"image" validate:"required,http_url|datauri"`
	Color       string  `json:"color" validate:"required,max=50"`
}
