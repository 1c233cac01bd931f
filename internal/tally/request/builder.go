// Package request builds Tally XML query envelopes from typed parameters.
//
// Every exported builder is a pure function: no I/O, no shared state. The
// only failure mode is malformed caller input (inverted date ranges, bad
// page numbers), reported as *ValidationError before anything touches the
// network. Company names and free-text filters are escaped before being
// interpolated, since Tally company names routinely contain characters such
// as '&' and parentheses ("M/S. ACME & SONS (2024-25)").
package request

import (
	"fmt"
	"strings"
)

// Kind identifies the entity collection a query targets. It doubles as part
// of the cache fingerprint, so values must stay stable.
type Kind string

// Supported query kinds.
const (
	KindSalesVouchers Kind = "sales_vouchers"
	KindVoucherCount  Kind = "voucher_count"
	KindVoucherDetail Kind = "voucher_detail"
	KindSalesStats    Kind = "sales_stats"
	KindStockItems    Kind = "stock_items"
	KindCompanyList   Kind = "company_list"
	KindCompanyDetail Kind = "company_detail"
	KindCompanyTax    Kind = "company_tax"
	KindBalanceSheet  Kind = "balance_sheet"
)

// DateRange is an inclusive Tally date window in 8-digit YYYYMMDD form.
type DateRange struct {
	From string
	To   string
}

// Validate checks both bounds are 8-digit dates and From does not exceed To.
// YYYYMMDD compares correctly as a plain string.
func (r DateRange) Validate() error {
	if !isTallyDate(r.From) {
		return &ValidationError{Field: "from", Reason: "must be an 8-digit YYYYMMDD date"}
	}
	if !isTallyDate(r.To) {
		return &ValidationError{Field: "to", Reason: "must be an 8-digit YYYYMMDD date"}
	}
	if r.From > r.To {
		return &ValidationError{Field: "from", Reason: "must not be after 'to'"}
	}
	return nil
}

// VoucherQuery carries every parameter of a paginated sales-voucher listing.
type VoucherQuery struct {
	Company  string
	Range    DateRange
	Page     int
	PageSize int
	Filter   string // optional party-name substring
}

// Validate rejects malformed voucher queries before serialization.
func (q VoucherQuery) Validate() error {
	if strings.TrimSpace(q.Company) == "" {
		return &ValidationError{Field: "company", Reason: "must not be empty"}
	}
	if err := q.Range.Validate(); err != nil {
		return err
	}
	if q.Page < 1 {
		return &ValidationError{Field: "page", Reason: "must be >= 1"}
	}
	if q.PageSize < 1 {
		return &ValidationError{Field: "page_size", Reason: "must be >= 1"}
	}
	return nil
}

// Skip returns the number of records the upstream should skip for the page.
func (q VoucherQuery) Skip() int { return (q.Page - 1) * q.PageSize }

// BuildVoucherList serializes a paginated Tax Invoice (sales) voucher
// collection query with date and optional party filters.
func BuildVoucherList(q VoucherQuery) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}
	c := Collection{
		ID:      "SalesVouchers",
		Company: q.Company,
		Range:   &q.Range,
		Type:    "Voucher",
		ChildOf: "$$VchTypeTaxInvoice:$$VchTypeSales",
		Fetch: []string{
			"Date", "VoucherTypeName", "VoucherNumber", "PartyLedgerName",
			"Amount", "Narration", "Reference", "GUID", "ALTERID", "VoucherRetainKey",
		},
		Skip:  q.Skip(),
		Limit: q.PageSize,
	}
	c.withDateFilter()
	c.withPartyFilter(q.Filter)
	return c.build(), nil
}

// BuildVoucherCount serializes the lightweight GUID-only collection used to
// count vouchers matching the same criteria as BuildVoucherList. The caller
// counts VOUCHER elements in the response.
func BuildVoucherCount(q VoucherQuery) (string, error) {
	// Pagination fields are irrelevant to a count; validate the rest.
	q.Page, q.PageSize = 1, 1
	if err := q.Validate(); err != nil {
		return "", err
	}
	c := Collection{
		ID:      "SalesVouchersCount",
		Company: q.Company,
		Range:   &q.Range,
		Type:    "Voucher",
		ChildOf: "$$VchTypeTaxInvoice:$$VchTypeSales",
		Fetch:   []string{"GUID"},
	}
	c.withDateFilter()
	c.withPartyFilter(q.Filter)
	return c.build(), nil
}

// BuildSalesStats serializes the party/amount projection used for statistics
// and top-customer aggregation over a date range.
func BuildSalesStats(company string, r DateRange) (string, error) {
	if strings.TrimSpace(company) == "" {
		return "", &ValidationError{Field: "company", Reason: "must not be empty"}
	}
	if err := r.Validate(); err != nil {
		return "", err
	}
	c := Collection{
		ID:      "SalesStats",
		Company: company,
		Range:   &r,
		Type:    "Voucher",
		ChildOf: "$$VchTypeTaxInvoice:$$VchTypeSales",
		Fetch:   []string{"PartyLedgerName", "Amount"},
	}
	c.withDateFilter()
	return c.build(), nil
}

// BuildVoucherDetails serializes a single-voucher Data export including the
// inventory-entry walkthrough for line items.
func BuildVoucherDetails(company, guid string) (string, error) {
	if strings.TrimSpace(company) == "" {
		return "", &ValidationError{Field: "company", Reason: "must not be empty"}
	}
	if strings.TrimSpace(guid) == "" {
		return "", &ValidationError{Field: "guid", Reason: "must not be empty"}
	}
	var b strings.Builder
	b.WriteString("<ENVELOPE><HEADER><VERSION>1</VERSION><TALLYREQUEST>Export</TALLYREQUEST><TYPE>Data</TYPE><ID>VoucherDetails</ID></HEADER><BODY><DESC><STATICVARIABLES>")
	b.WriteString("<SVEXPORTFORMAT>$$SysName:XML</SVEXPORTFORMAT>")
	fmt.Fprintf(&b, "<SVCURRENTCOMPANY>%s</SVCURRENTCOMPANY>", Escape(company))
	fmt.Fprintf(&b, "<SVVOUCHERGUID>%s</SVVOUCHERGUID>", Escape(guid))
	b.WriteString("</STATICVARIABLES><TDL><TDLMESSAGE>")
	b.WriteString(`<VOUCHER NAME="VoucherDetails">`)
	b.WriteString("<FILTER>VoucherFilter</FILTER>")
	b.WriteString("<WALKTHROUGH>AllInventoryEntries</WALKTHROUGH>")
	b.WriteString("<FETCH>Date, VoucherTypeName, VoucherNumber, PartyLedgerName, Amount, Narration, Reference, GUID, ALTERID, VoucherRetainKey</FETCH>")
	b.WriteString("<FETCH>StockItemName, Rate, ActualQty, BilledQty, Amount, GSTHSNName</FETCH>")
	b.WriteString("</VOUCHER>")
	b.WriteString(`<SYSTEM TYPE="Formulae" NAME="VoucherFilter">$$GUID = ##SVVOUCHERGUID</SYSTEM>`)
	b.WriteString("</TDLMESSAGE></TDL></DESC></BODY></ENVELOPE>")
	return b.String(), nil
}

// BuildStockItems serializes the master StockItem collection export.
func BuildStockItems(company string) (string, error) {
	if strings.TrimSpace(company) == "" {
		return "", &ValidationError{Field: "company", Reason: "must not be empty"}
	}
	c := Collection{
		ID:      "StockItem",
		Company: company,
		Type:    "StockItem",
		Fetch: []string{
			"NAME", "BASEUNITS", "OPENINGBALANCE", "OPENINGVALUE",
			"CLOSINGBALANCE", "CLOSINGVALUE", "STANDARDCOST", "STANDARDPRICE",
		},
	}
	return c.build(), nil
}

// BuildCompanyList serializes the companies-on-server listing. It is the one
// query issued without a company context.
func BuildCompanyList() string {
	c := Collection{
		ID:    "List of Companies",
		Type:  "Company",
		Fetch: []string{"NAME", "STARTFROM", "ENDTO"},
	}
	return c.build()
}

// BuildCompanyDetails serializes an Object export of a single company record.
func BuildCompanyDetails(company string) (string, error) {
	if strings.TrimSpace(company) == "" {
		return "", &ValidationError{Field: "company", Reason: "must not be empty"}
	}
	o := Object{
		SubType: "Company",
		ID:      company,
		Fetch: []string{
			"Name", "GUID", "MAILINGNAME.LIST", "ADDRESS.LIST", "PHONE",
			"EMAIL", "COUNTRYNAME", "STATENAME", "PINCODE", "BOOKSFROM",
		},
	}
	return o.build(), nil
}

// BuildCompanyTax serializes the income-tax projection of the company record.
func BuildCompanyTax(company string) (string, error) {
	if strings.TrimSpace(company) == "" {
		return "", &ValidationError{Field: "company", Reason: "must not be empty"}
	}
	c := Collection{
		ID:         "CompanyDetails",
		Company:    company,
		Type:       "Company",
		Fetch:      []string{"NAME", "INCOMETAXNUMBER", "BOOKSFROM"},
		Initialize: true,
	}
	return c.build(), nil
}

// BuildBalanceSheet serializes the account-group collection whose closing
// balances form the balance sheet for the range.
func BuildBalanceSheet(company string, r DateRange) (string, error) {
	if strings.TrimSpace(company) == "" {
		return "", &ValidationError{Field: "company", Reason: "must not be empty"}
	}
	if err := r.Validate(); err != nil {
		return "", err
	}
	c := Collection{
		ID:      "BalanceSheetGroups",
		Company: company,
		Range:   &r,
		Type:    "Group",
		Fetch:   []string{"NAME", "PARENT", "CLOSINGBALANCE", "ISDEEMEDPOSITIVE"},
	}
	return c.build(), nil
}

func isTallyDate(s string) bool {
	if len(s) != 8 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
