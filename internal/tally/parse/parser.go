// Package parse – entity parsers
//
// One parsing function per entity kind. Each tolerates missing optional
// elements (defaults, never errors), cleans numeric fields, reformats
// dates, and reports raw-vs-parsed element counts so no record is ever
// silently dropped without the caller seeing it in aggregate.
package parse

import (
	"fmt"
	"strings"

	"github.com/tbourn/go-tally-backend/internal/domain"
)

// Report carries the aggregate accounting of a collection parse: how many
// raw entity elements the document contained and how many records were
// emitted. A difference means records were rejected (e.g. nameless stock
// items), which callers may log.
type Report struct {
	RawElements int
	Parsed      int
}

// PartyAmount is the minimal projection used by statistics aggregation.
type PartyAmount struct {
	Party  string
	Amount float64
}

// Vouchers parses a paginated voucher collection response. Page and pageSize
// seed the synthetic identifiers for records without a GUID: row N of page P
// becomes "voucher-P-N", which cannot collide within a page.
func Vouchers(xmlText string, page int) ([]domain.Voucher, Report, error) {
	root, err := parseDoc(xmlText)
	if err != nil {
		return nil, Report{}, err
	}
	elems := root.FindAll("VOUCHER")
	out := make([]domain.Voucher, 0, len(elems))
	for i, v := range elems {
		out = append(out, voucherFrom(v, page, i))
	}
	return out, Report{RawElements: len(elems), Parsed: len(out)}, nil
}

// CountVouchers counts VOUCHER elements in a count-query response.
func CountVouchers(xmlText string) (int, error) {
	root, err := parseDoc(xmlText)
	if err != nil {
		return 0, err
	}
	return len(root.FindAll("VOUCHER")), nil
}

// VoucherDetails parses a single-voucher Data export, including inventory
// entry line items. It returns nil when the document holds no voucher.
func VoucherDetails(xmlText string) (*domain.Voucher, error) {
	root, err := parseDoc(xmlText)
	if err != nil {
		return nil, err
	}
	v := root.Find("VOUCHER")
	if v == nil {
		return nil, nil
	}
	rec := voucherFrom(v, 1, 0)

	for _, entry := range v.FindAll("ALLINVENTORYENTRIES.LIST") {
		name := entry.Field("STOCKITEMNAME", "")
		if name == "" {
			continue
		}
		qty, unit := qtyParts(entry.Field("ACTUALQTY", ""))
		rec.LineItems = append(rec.LineItems, domain.StockLine{
			ItemName:  name,
			HSNCode:   entry.Field("GSTHSNNAME", ""),
			Quantity:  qty,
			BilledQty: entry.Field("BILLEDQTY", ""),
			Unit:      unit,
			Rate:      entry.Field("RATE", ""),
			Amount:    AbsAmount(entry.Field("AMOUNT", "0")),
		})
	}
	return &rec, nil
}

// voucherFrom maps one VOUCHER element to a record. Identity defaults to the
// GUID with a synthetic page-index fallback.
func voucherFrom(v *Node, page, index int) domain.Voucher {
	guid := v.Field("GUID", "")
	id := guid
	if id == "" {
		id = fmt.Sprintf("voucher-%d-%d", page, index)
	}
	return domain.Voucher{
		ID:               id,
		VoucherNumber:    v.Field("VOUCHERNUMBER", ""),
		Date:             DisplayDate(v.Field("DATE", "")),
		PartyName:        v.Field("PARTYLEDGERNAME", ""),
		Amount:           AbsAmount(v.Field("AMOUNT", "0")),
		Narration:        v.Field("NARRATION", ""),
		Reference:        v.Field("REFERENCE", ""),
		GUID:             guid,
		AlterID:          v.Field("ALTERID", ""),
		VoucherType:      v.Field("VOUCHERTYPENAME", ""),
		VoucherRetainKey: v.Field("VOUCHERRETAINKEY", ""),
	}
}

// PartyAmounts parses the statistics projection (party name + amount per
// voucher). Nameless parties aggregate under "Unknown".
func PartyAmounts(xmlText string) ([]PartyAmount, error) {
	root, err := parseDoc(xmlText)
	if err != nil {
		return nil, err
	}
	elems := root.FindAll("VOUCHER")
	out := make([]PartyAmount, 0, len(elems))
	for _, v := range elems {
		out = append(out, PartyAmount{
			Party:  v.Field("PARTYLEDGERNAME", "Unknown"),
			Amount: AbsAmount(v.Field("AMOUNT", "0")),
		})
	}
	return out, nil
}

// StockItems parses the master inventory collection. Items without a name
// are rejected; the Report surfaces how many.
func StockItems(xmlText string) ([]domain.StockItem, Report, error) {
	root, err := parseDoc(xmlText)
	if err != nil {
		return nil, Report{}, err
	}
	elems := root.FindAll("STOCKITEM")
	out := make([]domain.StockItem, 0, len(elems))
	for _, e := range elems {
		name := e.Field("NAME", "")
		if name == "" {
			continue
		}
		item := domain.StockItem{
			Name:           name,
			ReservedName:   e.Attr("RESERVEDNAME"),
			BaseUnits:      e.Field("BASEUNITS", ""),
			OpeningBalance: e.Field("OPENINGBALANCE", ""),
			OpeningValue:   e.Field("OPENINGVALUE", ""),
			ClosingBalance: e.Field("CLOSINGBALANCE", ""),
			ClosingValue:   e.Field("CLOSINGVALUE", ""),
			StandardCost:   e.Field("STANDARDCOST", ""),
			StandardPrice:  e.Field("STANDARDPRICE", ""),
		}
		if lang := e.Child("LANGUAGENAME.LIST"); lang != nil {
			if nl := lang.Child("NAME.LIST"); nl != nil {
				item.LanguageName = nl.firstText()
			}
		}
		out = append(out, item)
	}
	return out, Report{RawElements: len(elems), Parsed: len(out)}, nil
}

// Companies parses the companies-on-server listing. When no COMPANY elements
// exist it falls back to scanning bare NAME elements, skipping Tally system
// names (prefixed "$$").
func Companies(xmlText string) ([]domain.Company, error) {
	root, err := parseDoc(xmlText)
	if err != nil {
		return nil, err
	}
	var out []domain.Company
	for _, c := range root.FindAll("COMPANY") {
		name := c.Field("NAME", "")
		if name == "" {
			continue
		}
		out = append(out, domain.Company{
			Name:      name,
			StartFrom: c.Field("STARTFROM", ""),
			EndTo:     c.Field("ENDTO", ""),
		})
	}
	if len(out) == 0 {
		for _, n := range root.FindAll("NAME") {
			name := strings.TrimSpace(n.Text)
			if name == "" || strings.HasPrefix(name, "$$") {
				continue
			}
			out = append(out, domain.Company{Name: name})
		}
	}
	return out, nil
}

// CompanyDetails parses the Company object export. Missing textual fields
// default to the "N/A" sentinel so consumers never branch on absence. A
// document without a COMPANY element yields nil.
func CompanyDetails(xmlText string) (*domain.CompanyDetails, error) {
	root, err := parseDoc(xmlText)
	if err != nil {
		return nil, err
	}
	c := root.Find("COMPANY")
	if c == nil {
		return nil, nil
	}
	d := &domain.CompanyDetails{
		Name:        orDefault(c.Field("NAME", ""), domain.NotAvailable),
		GUID:        orDefault(c.Field("GUID", ""), domain.NotAvailable),
		Email:       orDefault(c.Field("EMAIL", ""), domain.NotAvailable),
		Phone:       orDefault(c.Field("PHONE", ""), domain.NotAvailable),
		Address:     c.listTexts("ADDRESS", "ADDRESS"),
		MailingName: c.listTexts("MAILINGNAME", "MAILINGNAME"),
		Pincode:     orDefault(c.Field("PINCODE", ""), domain.NotAvailable),
		CountryName: orDefault(c.Field("COUNTRYNAME", ""), domain.NotAvailable),
		StateName:   orDefault(c.Field("STATENAME", ""), domain.NotAvailable),
		BooksFrom:   orDefault(DisplayDate(c.Field("BOOKSFROM", "")), domain.NotAvailable),
	}
	return d, nil
}

// CompanyTax parses the income-tax company projection, or nil when absent.
func CompanyTax(xmlText string) (*domain.CompanyTaxDetails, error) {
	root, err := parseDoc(xmlText)
	if err != nil {
		return nil, err
	}
	c := root.Find("COMPANY")
	if c == nil {
		return nil, nil
	}
	return &domain.CompanyTaxDetails{
		Name:            orDefault(c.Field("NAME", ""), domain.NotAvailable),
		IncomeTaxNumber: orDefault(c.Field("INCOMETAXNUMBER", ""), domain.NotAvailable),
		BooksFrom:       orDefault(DisplayDate(c.Field("BOOKSFROM", "")), domain.NotAvailable),
	}, nil
}

// BalanceSheet parses the account-group collection into assets and
// liabilities. Groups marked ISDEEMEDPOSITIVE are asset-natured; the rest
// are liabilities. Groups with a zero closing balance are skipped.
func BalanceSheet(xmlText string) (*domain.BalanceSheet, error) {
	root, err := parseDoc(xmlText)
	if err != nil {
		return nil, err
	}
	bs := &domain.BalanceSheet{
		Assets:      []domain.BalanceSheetLine{},
		Liabilities: []domain.BalanceSheetLine{},
	}
	for _, g := range root.FindAll("GROUP") {
		name := g.Field("NAME", "")
		if name == "" {
			continue
		}
		amount := AbsAmount(g.Field("CLOSINGBALANCE", "0"))
		if amount == 0 {
			continue
		}
		line := domain.BalanceSheetLine{
			Name:   name,
			Parent: g.Field("PARENT", ""),
			Amount: amount,
		}
		if strings.EqualFold(g.Field("ISDEEMEDPOSITIVE", "No"), "Yes") {
			bs.Assets = append(bs.Assets, line)
			bs.TotalAssets += amount
		} else {
			bs.Liabilities = append(bs.Liabilities, line)
			bs.TotalLiabilities += amount
		}
	}
	bs.NetWorth = bs.TotalAssets - bs.TotalLiabilities
	return bs, nil
}
