// Package domain defines the typed records produced by the Tally client
// layer: vouchers, stock items, company projections, balance-sheet lines,
// and the pagination envelope shared by every collection operation. The
// Settings type is the single GORM-mapped entity (persisted connection
// configuration); everything else is plain data handed to the HTTP layer.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// NotAvailable is the sentinel used for textual upstream fields that are
// missing or blank, so consumers never have to distinguish absent from empty.
const NotAvailable = "N/A"

// SettingsSlot is the well-known key under which the active configuration
// row is stored.
const SettingsSlot = "active"

// Settings is the persisted connection configuration: where the Tally server
// lives and which company context queries run against. Exactly one row exists
// per process, stored under the well-known Slot key.
//
// Fields:
//   - Slot: fixed primary key ("active"); enforces the single-row invariant.
//   - ServerAddress / ServerPort: upstream HTTP endpoint parts.
//   - CompanyName: the currently selected company, empty until chosen.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Settings struct {
	Slot          string         `json:"-"              gorm:"type:varchar(16);primaryKey"`
	ServerAddress string         `json:"server_address" gorm:"type:varchar(255);not null"`
	ServerPort    int            `json:"server_port"    gorm:"not null"`
	CompanyName   string         `json:"company_name"   gorm:"type:varchar(255)"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"              gorm:"index"`
}

// TableName returns the database table name for Settings.
func (Settings) TableName() string { return "settings" }

// Voucher is a single sales transaction exported by Tally.
//
// ID defaults to the upstream GUID; when the GUID is absent a synthetic
// "voucher-<page>-<index>" token is assigned so placeholder rows never
// collide within a page. Amount is always the absolute value of the signed
// ledger figure (the wire sign encodes debit/credit, not business meaning).
type Voucher struct {
	ID               string      `json:"id"`
	VoucherNumber    string      `json:"voucher_number"`
	Date             string      `json:"date"` // DD/MM/YYYY for display
	PartyName        string      `json:"party_name"`
	Amount           float64     `json:"amount"`
	Narration        string      `json:"narration"`
	Reference        string      `json:"reference"`
	GUID             string      `json:"guid"`
	AlterID          string      `json:"alter_id"`
	VoucherType      string      `json:"voucher_type"`
	VoucherRetainKey string      `json:"voucher_retain_key"`
	LineItems        []StockLine `json:"line_items,omitempty"`
}

// StockLine is one inventory entry on a voucher. Amount carries the same
// absolute-value invariant as Voucher.Amount.
type StockLine struct {
	ItemName  string  `json:"item_name"`
	HSNCode   string  `json:"hsn_code,omitempty"`
	Quantity  string  `json:"quantity"`
	BilledQty string  `json:"billed_qty,omitempty"`
	Unit      string  `json:"unit,omitempty"`
	Rate      string  `json:"rate"`
	Amount    float64 `json:"amount"`
}

// StockItem is a master inventory record (not a voucher line): opening and
// closing positions plus standard cost/price, as exported by the StockItem
// collection. Name may arrive as an attribute rather than a child element.
type StockItem struct {
	Name           string `json:"name"`
	ReservedName   string `json:"reserved_name,omitempty"`
	LanguageName   string `json:"language_name,omitempty"`
	BaseUnits      string `json:"base_units"`
	OpeningBalance string `json:"opening_balance"`
	OpeningValue   string `json:"opening_value"`
	ClosingBalance string `json:"closing_balance"`
	ClosingValue   string `json:"closing_value"`
	StandardCost   string `json:"standard_cost"`
	StandardPrice  string `json:"standard_price"`
}

// Company is a list entry from the "List of Companies" collection.
type Company struct {
	Name      string `json:"name"`
	StartFrom string `json:"start_from,omitempty"`
	EndTo     string `json:"end_to,omitempty"`
}

// CompanyDetails is the flat projection of the Company object export. All
// textual fields default to the NotAvailable sentinel rather than being
// absent.
type CompanyDetails struct {
	Name        string   `json:"name"`
	GUID        string   `json:"guid"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Address     []string `json:"address"`
	MailingName []string `json:"mailing_name"`
	Pincode     string   `json:"pincode"`
	CountryName string   `json:"country_name"`
	StateName   string   `json:"state_name"`
	BooksFrom   string   `json:"books_from"`
}

// CompanyTaxDetails carries the income-tax projection of the company record.
type CompanyTaxDetails struct {
	Name            string `json:"name"`
	IncomeTaxNumber string `json:"income_tax_number"`
	BooksFrom       string `json:"books_from"`
}

// BalanceSheetLine is one group row of the balance sheet, already classified
// as an asset or a liability.
type BalanceSheetLine struct {
	Name   string  `json:"name"`
	Parent string  `json:"parent,omitempty"`
	Amount float64 `json:"amount"`
}

// BalanceSheet is the company financial position over a date range.
// NetWorth is TotalAssets - TotalLiabilities and may be negative.
type BalanceSheet struct {
	Assets           []BalanceSheetLine `json:"assets"`
	Liabilities      []BalanceSheetLine `json:"liabilities"`
	TotalAssets      float64            `json:"total_assets"`
	TotalLiabilities float64            `json:"total_liabilities"`
	NetWorth         float64            `json:"net_worth"`
}

// VoucherPage is the paginated result envelope for voucher listings.
//
// HasMore is true iff exactly PageSize records came back; TotalCount is an
// estimate reconciled by a separate count query on page 1 and reused for
// later pages. Stale is set when the payload was served from cache after a
// transport failure, with the failure reason in StaleReason.
type VoucherPage struct {
	Data        []Voucher `json:"data"`
	TotalCount  int       `json:"total_count"`
	Page        int       `json:"page"`
	PageSize    int       `json:"page_size"`
	HasMore     bool      `json:"has_more"`
	Stale       bool      `json:"stale,omitempty"`
	StaleReason string    `json:"stale_reason,omitempty"`
}

// TopCustomer is a party aggregated over a date range.
type TopCustomer struct {
	Name         string  `json:"name"`
	Amount       float64 `json:"amount"`
	VoucherCount int     `json:"voucher_count"`
}

// SalesStatistics aggregates vouchers over a date range. TotalSalesDisplay
// is the locale-formatted rendering of TotalSales for direct display.
type SalesStatistics struct {
	TotalSales        float64       `json:"total_sales"`
	TotalSalesDisplay string        `json:"total_sales_display"`
	TotalVouchers     int           `json:"total_vouchers"`
	AverageOrderValue float64       `json:"average_order_value"`
	TopCustomers      []TopCustomer `json:"top_customers"`
}

// StockItemsResult wraps the inventory listing with the same staleness
// indicator as VoucherPage.
type StockItemsResult struct {
	Items       []StockItem `json:"items"`
	Stale       bool        `json:"stale,omitempty"`
	StaleReason string      `json:"stale_reason,omitempty"`
}
