package model

// CartItemRequest adds or updates a cart line.
type CartItemRequest struct {
	ProductID string `json:"productId"`
	Variant   string `json:"variant,omitempty"`
	Quantity  int    `json:"quantity"`
}

// DealRequest sets a product (or variant) price to a discount off its MRP.
type DealRequest struct {
	Variant         string `json:"variant,omitempty"`
	DiscountPercent int    `json:"discountPercent"`
}
