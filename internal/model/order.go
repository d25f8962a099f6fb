package model

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaxRate is the flat tax applied at checkout (1%).
const TaxRate = 0.01

// CODPaymentID is the sentinel external transaction id recorded when a
// completion callback carries no gateway transaction (cash on delivery).
const CODPaymentID = "COD"

// Order statuses.
const (
	OrderStatusNew       = "New"
	OrderStatusCompleted = "Completed"
)

// PaymentStatusCompleted is the only status a persisted Payment ever holds;
// payments are recorded after the gateway has settled.
const PaymentStatusCompleted = "Completed"

// Order is a customer's checkout intent. Monetary fields are immutable once
// IsOrdered is true.
type Order struct {
	ID           int64      `json:"id" db:"id"`
	OwnerID      int64      `json:"ownerId" db:"owner_id"`
	OrderNumber  string     `json:"orderNumber" db:"order_number"`
	FirstName    string     `json:"firstName" db:"first_name"`
	LastName     string     `json:"lastName" db:"last_name"`
	Phone        string     `json:"phone" db:"phone"`
	Email        string     `json:"email" db:"email"`
	AddressLine1 string     `json:"addressLine1" db:"address_line_1"`
	AddressLine2 string     `json:"addressLine2" db:"address_line_2"`
	Country      string     `json:"country" db:"country"`
	State        string     `json:"state" db:"state"`
	City         string     `json:"city" db:"city"`
	OrderNote    string     `json:"orderNote" db:"order_note"`
	OrderTotal   float64    `json:"orderTotal" db:"order_total"`
	Tax          float64    `json:"tax" db:"tax"`
	Status       string     `json:"status" db:"status"`
	IP           string     `json:"-" db:"ip"`
	IsOrdered    bool       `json:"isOrdered" db:"is_ordered"`
	PaymentID    *uuid.UUID `json:"-" db:"payment_id"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// FullName is the customer name sent to the payment gateway.
func (o *Order) FullName() string {
	return o.FirstName + " " + o.LastName
}

// Payment records one completed monetary transaction, 1:1 with its Order.
type Payment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	OwnerID    int64     `json:"ownerId" db:"owner_id"`
	PaymentID  string    `json:"paymentId" db:"payment_id"`
	Method     string    `json:"method" db:"payment_method"`
	AmountPaid float64   `json:"amountPaid" db:"amount_paid"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// OrderProduct is an immutable purchase-receipt line. ProductPrice is the
// catalogue price at the moment of fulfillment, never re-read.
type OrderProduct struct {
	ID           uuid.UUID `json:"id" db:"id"`
	OrderID      int64     `json:"orderId" db:"order_id"`
	PaymentID    uuid.UUID `json:"paymentId" db:"payment_id"`
	OwnerID      int64     `json:"ownerId" db:"owner_id"`
	ProductID    int64     `json:"productId" db:"product_id"`
	Quantity     int       `json:"quantity" db:"quantity"`
	ProductPrice float64   `json:"productPrice" db:"product_price"`
	Ordered      bool      `json:"ordered" db:"ordered"`
	VariationIDs []int64   `json:"variationIds"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// PurchaseRecord is one (order, product) co-occurrence from the order
// history, the raw input of the recommendation miner.
type PurchaseRecord struct {
	OrderID   int64 `db:"order_id"`
	ProductID int64 `db:"product_id"`
}

var phoneDigits = regexp.MustCompile(`^[0-9]{10}$`)

// ShippingForm carries the checkout contact and address fields.
type ShippingForm struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	Country      string `json:"country"`
	State        string `json:"state"`
	City         string `json:"city"`
	OrderNote    string `json:"orderNote"`
}

// Validate applies the checkout form rules. Phone numbers follow the Nepali
// mobile format: exactly 10 digits starting 96, 97 or 98.
func (f *ShippingForm) Validate() *ValidationError {
	fields := make(map[string]string)

	if strings.TrimSpace(f.FirstName) == "" {
		fields["firstName"] = "First name is required."
	}
	if strings.TrimSpace(f.LastName) == "" {
		fields["lastName"] = "Last name is required."
	}

	if strings.TrimSpace(f.Email) == "" {
		fields["email"] = "Email is required."
	} else if !strings.Contains(f.Email, "@") {
		fields["email"] = "Enter a valid email address."
	}

	switch {
	case f.Phone == "":
		fields["phone"] = "Phone number is required."
	case !phoneDigits.MatchString(f.Phone):
		fields["phone"] = "Phone number must be exactly 10 digits."
	case !strings.HasPrefix(f.Phone, "96") && !strings.HasPrefix(f.Phone, "97") && !strings.HasPrefix(f.Phone, "98"):
		fields["phone"] = "Phone number must start with 96, 97, or 98."
	}

	if strings.TrimSpace(f.AddressLine1) == "" {
		fields["addressLine1"] = "Address is required."
	}
	if strings.TrimSpace(f.Country) == "" {
		fields["country"] = "Country is required."
	}
	if strings.TrimSpace(f.State) == "" {
		fields["state"] = "State is required."
	}
	if strings.TrimSpace(f.City) == "" {
		fields["city"] = "City is required."
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// OrderPlacement is the response of a successful checkout submission,
// returned for the payment page.
type OrderPlacement struct {
	Order      *Order     `json:"order"`
	Items      []CartItem `json:"items"`
	Total      float64    `json:"total"`
	Tax        float64    `json:"tax"`
	GrandTotal float64    `json:"grandTotal"`
}

// CompletionRequest carries the gateway callback parameters.
// AmountMinor is the paid amount in minor units (paisa); nil falls back to
// the stored order total.
type CompletionRequest struct {
	OrderNumber   string
	TransactionID string
	PaymentMethod string
	AmountMinor   *int64
}

// OrderReceipt is the completed-order view: the order, its payment, the
// immutable receipt lines and their subtotal.
type OrderReceipt struct {
	Order    *Order         `json:"order"`
	Payment  *Payment       `json:"payment"`
	Products []OrderProduct `json:"products"`
	Subtotal float64        `json:"subtotal"`
}
