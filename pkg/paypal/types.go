package paypal

// Money is an amount in PayPal's wire format.
type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type Breakdown struct {
	ItemTotal *Money `json:"item_total,omitempty"`
	Shipping  *Money `json:"shipping,omitempty"`
}

type Amount struct {
	CurrencyCode string     `json:"currency_code"`
	Value        string     `json:"value"`
	Breakdown    *Breakdown `json:"breakdown,omitempty"`
}

type Item struct {
	Name        string `json:"name"`
	UnitAmount  Money  `json:"unit_amount"`
	Quantity    string `json:"quantity"`
	SKU         string `json:"sku,omitempty"`
	Description string `json:"description,omitempty"`
}

type Address struct {
	AddressLine1 string `json:"address_line_1,omitempty"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	AdminArea2   string `json:"admin_area_2,omitempty"`
	AdminArea1   string `json:"admin_area_1,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	CountryCode  string `json:"country_code,omitempty"`
}

type ShippingName struct {
	FullName string `json:"full_name,omitempty"`
}

type Shipping struct {
	Method  string        `json:"method,omitempty"`
	Name    *ShippingName `json:"name,omitempty"`
	Address *Address      `json:"address,omitempty"`
}

type Capture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount *Money `json:"amount,omitempty"`
}

type Payments struct {
	Captures []Capture `json:"captures,omitempty"`
}

type PurchaseUnit struct {
	ReferenceID string    `json:"reference_id,omitempty"`
	CustomID    string    `json:"custom_id,omitempty"`
	Amount      Amount    `json:"amount"`
	Items       []Item    `json:"items,omitempty"`
	Shipping    *Shipping `json:"shipping,omitempty"`
	Payments    *Payments `json:"payments,omitempty"`
}

type PayerName struct {
	GivenName string `json:"given_name,omitempty"`
	Surname   string `json:"surname,omitempty"`
}

type Payer struct {
	EmailAddress string     `json:"email_address,omitempty"`
	Name         *PayerName `json:"name,omitempty"`
}

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

type ApplicationContext struct {
	BrandName          string `json:"brand_name,omitempty"`
	LandingPage        string `json:"landing_page,omitempty"`
	UserAction         string `json:"user_action,omitempty"`
	ShippingPreference string `json:"shipping_preference,omitempty"`
	ReturnURL          string `json:"return_url,omitempty"`
	CancelURL          string `json:"cancel_url,omitempty"`
}

// CreateOrderRequest is the body of POST /v2/checkout/orders.
type CreateOrderRequest struct {
	Intent             string              `json:"intent"`
	PurchaseUnits      []PurchaseUnit      `json:"purchase_units"`
	ApplicationContext *ApplicationContext `json:"application_context,omitempty"`
}

// Order is a PayPal checkout order.
type Order struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units,omitempty"`
	Payer         *Payer         `json:"payer,omitempty"`
	Links         []Link         `json:"links,omitempty"`
}

// ApproveURL returns the buyer approval link, if any.
func (o *Order) ApproveURL() string {
	if o == nil {
		return ""
	}
	for _, link := range o.Links {
		if link.Rel == "approve" {
			return link.Href
		}
	}
	return ""
}

// HasCompletedCapture reports whether any purchase unit carries a completed
// capture.
func (o *Order) HasCompletedCapture() bool {
	if o == nil {
		return false
	}
	for _, unit := range o.PurchaseUnits {
		if unit.Payments == nil {
			continue
		}
		for _, capture := range unit.Payments.Captures {
			if capture.Status == StatusCompleted {
				return true
			}
		}
	}
	return false
}

// WebhookHeaders are the transmission headers PayPal signs.
type WebhookHeaders struct {
	TransmissionID   string
	TransmissionTime string
	CertURL          string
	AuthAlgo         string
	TransmissionSig  string
}

// Complete reports whether every header is present.
func (h WebhookHeaders) Complete() bool {
	return h.TransmissionID != "" && h.TransmissionTime != "" && h.CertURL != "" &&
		h.AuthAlgo != "" && h.TransmissionSig != ""
}
