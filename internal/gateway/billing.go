package gateway

import "strings"

const (
	defaultFirstName  = "Customer"
	billingFieldUnset = "NA"
)

type BillingData struct {
	Apartment      string `json:"apartment"`
	Email          string `json:"email"`
	Floor          string `json:"floor"`
	FirstName      string `json:"first_name"`
	Street         string `json:"street"`
	Building       string `json:"building"`
	PhoneNumber    string `json:"phone_number"`
	ShippingMethod string `json:"shipping_method"`
	PostalCode     string `json:"postal_code"`
	City           string `json:"city"`
	Country        string `json:"country"`
	LastName       string `json:"last_name"`
	State          string `json:"state"`
}

// SplitName takes the first whitespace separated token as the first name
// and joins the rest into the last name.
func SplitName(fullName string) (first, last string) {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return defaultFirstName, ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// NewBillingData fills the processor's required billing fields. Digital
// goods have no address, so those fields carry a placeholder.
func NewBillingData(fullName, email string) BillingData {
	first, last := SplitName(fullName)
	return BillingData{
		Apartment:      billingFieldUnset,
		Email:          email,
		Floor:          billingFieldUnset,
		FirstName:      first,
		Street:         billingFieldUnset,
		Building:       billingFieldUnset,
		PhoneNumber:    billingFieldUnset,
		ShippingMethod: billingFieldUnset,
		PostalCode:     billingFieldUnset,
		City:           billingFieldUnset,
		Country:        billingFieldUnset,
		LastName:       last,
		State:          billingFieldUnset,
	}
}
