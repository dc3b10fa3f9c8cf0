package entity

// ReceiptHeader is the business and branch block at the top of a receipt.
type ReceiptHeader struct {
	BusinessName  string `json:"business_name"`
	BranchName    string `json:"branch_name"`
	BranchAddress string `json:"branch_address,omitempty"`
	BranchPhone   string `json:"branch_phone,omitempty"`
	TaxID         string `json:"tax_id,omitempty"`
}

// ReceiptLine is one sale item as printed. Amounts are preformatted with two decimals.
type ReceiptLine struct {
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	TaxAmount string `json:"tax_amount"`
	Total     string `json:"total"`
}

// Receipt is composed from a sale at read time and never stored.
type Receipt struct {
	Header        ReceiptHeader `json:"header"`
	SaleID        string        `json:"sale_id"`
	Date          string        `json:"date"`
	Cashier       string        `json:"cashier"`
	Customer      string        `json:"customer,omitempty"`
	CustomerEmail string        `json:"-"`
	PaymentMethod string        `json:"payment_method"`
	PaymentStatus string        `json:"payment_status"`
	Items         []ReceiptLine `json:"items"`
	Subtotal      string        `json:"subtotal"`
	TaxAmount     string        `json:"tax_amount"`
	Discount      string        `json:"discount_amount"`
	Total         string        `json:"total_amount"`
	Currency      string        `json:"currency"`
}
