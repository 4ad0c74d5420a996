package http

import (
	"time"

	d "github.com/fjod/go_cart/digital-store/domain"
	"github.com/shopspring/decimal"
)

type OrderItemDTO struct {
	ProductID *int64 `json:"product_id,omitempty"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Price     string `json:"price"`
}

type OrderResponseDTO struct {
	ID             string         `json:"id"`
	Subtotal       string         `json:"subtotal"`
	DiscountAmount string         `json:"discount_amount"`
	Total          string         `json:"total"`
	DiscountCode   string         `json:"discount_code,omitempty"`
	Status         string         `json:"status"`
	Items          []OrderItemDTO `json:"items"`
	CreatedAt      string         `json:"created_at"`
	PaidAt         string         `json:"paid_at,omitempty"`
}

type CartItemDTO struct {
	ProductID  int64  `json:"product_id"`
	PriceAtAdd string `json:"price_at_add"`
	AddedAt    string `json:"added_at"`
}

type CartResponseDTO struct {
	UserID   int64         `json:"user_id"`
	Items    []CartItemDTO `json:"items"`
	Subtotal string        `json:"subtotal"`
}

func convertOrder(o *d.Order) OrderResponseDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID: item.ProductID,
			Title:     item.Title,
			Author:    item.Author,
			Price:     d.FormatMoney(item.Price),
		})
	}

	dto := OrderResponseDTO{
		ID:             o.ID.String(),
		Subtotal:       d.FormatMoney(o.Subtotal),
		DiscountAmount: d.FormatMoney(o.DiscountAmount),
		Total:          d.FormatMoney(o.Total),
		Status:         o.Status.String(),
		Items:          items,
		CreatedAt:      o.CreatedAt.Format(time.RFC3339),
	}
	if o.DiscountCodeUsed != nil {
		dto.DiscountCode = *o.DiscountCodeUsed
	}
	if o.PaidAt != nil {
		dto.PaidAt = o.PaidAt.Format(time.RFC3339)
	}
	return dto
}

func convertCart(c *d.Cart) CartResponseDTO {
	items := make([]CartItemDTO, 0, len(c.Items))
	subtotal := decimal.Zero
	for _, item := range c.Items {
		items = append(items, CartItemDTO{
			ProductID:  item.ProductID,
			PriceAtAdd: d.FormatMoney(item.PriceAtAdd),
			AddedAt:    item.AddedAt.Format(time.RFC3339),
		})
		subtotal = subtotal.Add(item.PriceAtAdd)
	}
	return CartResponseDTO{
		UserID:   c.UserID,
		Items:    items,
		Subtotal: d.FormatMoney(subtotal),
	}
}
