package domain

type CheckoutRequest struct {
	UserID       int64
	DiscountCode string
}

type CheckoutResult struct {
	Order      *Order
	PaymentURL string
}
