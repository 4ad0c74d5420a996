package webhook

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strconv"
	"strings"
)

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify recomputes the HMAC-SHA512 of tx and compares it to received in
// constant time. It fails closed on any malformed input.
func (v *Verifier) Verify(tx Transaction, received string) bool {
	if len(v.secret) == 0 || tx.Order == nil {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(received))
	if err != nil || len(got) != sha512.Size {
		return false
	}
	return hmac.Equal(got, v.mac(tx))
}

// Sign returns the hex encoded signature the processor would send for tx.
func (v *Verifier) Sign(tx Transaction) string {
	return hex.EncodeToString(v.mac(tx))
}

func (v *Verifier) mac(tx Transaction) []byte {
	h := hmac.New(sha512.New, v.secret)
	h.Write([]byte(SigningString(tx)))
	return h.Sum(nil)
}

// SigningString concatenates the signed fields in the order fixed by the
// processor. The order must not change.
func SigningString(tx Transaction) string {
	var orderID int64
	if tx.Order != nil {
		orderID = tx.Order.ID
	}

	var b strings.Builder
	b.WriteString(strconv.FormatInt(tx.AmountCents, 10))
	b.WriteString(tx.CreatedAt)
	b.WriteString(tx.Currency)
	b.WriteString(strconv.FormatBool(tx.ErrorOccured))
	b.WriteString(strconv.FormatBool(tx.HasParentTransaction))
	b.WriteString(strconv.FormatInt(tx.ID, 10))
	b.WriteString(strconv.FormatInt(tx.IntegrationID, 10))
	b.WriteString(strconv.FormatBool(tx.Is3DSecure))
	b.WriteString(strconv.FormatBool(tx.IsAuth))
	b.WriteString(strconv.FormatBool(tx.IsCapture))
	b.WriteString(strconv.FormatBool(tx.IsRefunded))
	b.WriteString(strconv.FormatBool(tx.IsStandalonePayment))
	b.WriteString(strconv.FormatBool(tx.IsVoided))
	b.WriteString(strconv.FormatInt(orderID, 10))
	b.WriteString(strconv.FormatInt(tx.Owner, 10))
	b.WriteString(strconv.FormatBool(tx.Pending))
	b.WriteString(tx.SourceData.Pan)
	b.WriteString(tx.SourceData.SubType)
	b.WriteString(tx.SourceData.Type)
	b.WriteString(strconv.FormatBool(tx.Success))
	return b.String()
}
