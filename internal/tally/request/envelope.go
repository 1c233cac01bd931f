// Package request – envelope assembly
//
// This file holds the generic Collection and Object envelope builders the
// entity-specific functions in builder.go compose, plus the XML escaping
// used for every interpolated value.
package request

import (
	"fmt"
	"strings"
)

// filter is a named TDL formula referenced from a collection.
type filter struct {
	Name    string
	Formula string
}

// Collection describes a TDL Collection export: which entity type to walk,
// which fields to fetch, optional formula filters, and the SKIP/LIMIT
// pagination window. Zero Skip and Limit omit the window entirely.
type Collection struct {
	ID         string
	Company    string // empty: no company scoping directive
	Range      *DateRange
	Type       string
	ChildOf    string
	Fetch      []string
	Filters    []filter
	Skip       int
	Limit      int
	Initialize bool // emits ISINITIALIZE="Yes"
}

// withDateFilter attaches the standard voucher date-window formula bound to
// the SVFROMDATE/SVTODATE static variables.
func (c *Collection) withDateFilter() {
	c.Filters = append(c.Filters, filter{
		Name:    "DateFilter",
		Formula: "$$VchDate &gt;= ##SVFROMDATE AND $$VchDate &lt;= ##SVTODATE",
	})
}

// withPartyFilter attaches a party-name Contains formula when text is
// non-blank. The text is escaped; the surrounding quotes belong to TDL.
func (c *Collection) withPartyFilter(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	c.Filters = append(c.Filters, filter{
		Name:    "PartyFilter",
		Formula: fmt.Sprintf(`$$PartyLedgerName Contains "%s"`, Escape(text)),
	})
}

// build assembles the complete request envelope.
func (c Collection) build() string {
	var b strings.Builder
	b.WriteString("<ENVELOPE><HEADER><VERSION>1</VERSION><TALLYREQUEST>Export</TALLYREQUEST><TYPE>Collection</TYPE>")
	fmt.Fprintf(&b, "<ID>%s</ID></HEADER><BODY><DESC><STATICVARIABLES>", Escape(c.ID))
	b.WriteString("<SVEXPORTFORMAT>$$SysName:XML</SVEXPORTFORMAT>")
	if c.Company != "" {
		fmt.Fprintf(&b, "<SVCURRENTCOMPANY>%s</SVCURRENTCOMPANY>", Escape(c.Company))
	}
	if c.Range != nil {
		fmt.Fprintf(&b, "<SVFROMDATE>%s</SVFROMDATE><SVTODATE>%s</SVTODATE>", c.Range.From, c.Range.To)
	}
	b.WriteString("</STATICVARIABLES><TDL><TDLMESSAGE>")

	init := ""
	if c.Initialize {
		init = ` ISINITIALIZE="Yes"`
	}
	fmt.Fprintf(&b, `<COLLECTION NAME="%s" ISMODIFY="No"%s>`, Escape(c.ID), init)
	fmt.Fprintf(&b, "<TYPE>%s</TYPE>", Escape(c.Type))
	if c.ChildOf != "" {
		fmt.Fprintf(&b, "<CHILDOF>%s</CHILDOF>", c.ChildOf)
	}
	if len(c.Fetch) > 0 {
		fmt.Fprintf(&b, "<FETCH>%s</FETCH>", strings.Join(c.Fetch, ", "))
	}
	for _, f := range c.Filters {
		fmt.Fprintf(&b, "<FILTER>%s</FILTER>", f.Name)
	}
	if c.Skip > 0 {
		fmt.Fprintf(&b, "<SKIP>%d</SKIP>", c.Skip)
	}
	if c.Limit > 0 {
		fmt.Fprintf(&b, "<LIMIT>%d</LIMIT>", c.Limit)
	}
	b.WriteString("</COLLECTION>")
	for _, f := range c.Filters {
		fmt.Fprintf(&b, `<SYSTEM TYPE="Formulae" NAME="%s">%s</SYSTEM>`, f.Name, f.Formula)
	}
	b.WriteString("</TDLMESSAGE></TDL></DESC></BODY></ENVELOPE>")
	return b.String()
}

// Object describes an Object export addressed by a single identifying name.
type Object struct {
	SubType string
	ID      string
	Fetch   []string
}

// build assembles the object-export envelope with its FETCHLIST.
func (o Object) build() string {
	var b strings.Builder
	b.WriteString("<ENVELOPE><HEADER><VERSION>1</VERSION><TALLYREQUEST>Export</TALLYREQUEST><TYPE>Object</TYPE>")
	fmt.Fprintf(&b, "<SUBTYPE>%s</SUBTYPE>", Escape(o.SubType))
	fmt.Fprintf(&b, `<ID TYPE="Name">%s</ID>`, Escape(o.ID))
	b.WriteString("</HEADER><BODY><DESC><STATICVARIABLES>")
	b.WriteString("<SVEXPORTFORMAT>$$SysName:XML</SVEXPORTFORMAT>")
	b.WriteString("</STATICVARIABLES><FETCHLIST>")
	for _, f := range o.Fetch {
		fmt.Fprintf(&b, "<FETCH>%s</FETCH>", f)
	}
	b.WriteString("</FETCHLIST></DESC></BODY></ENVELOPE>")
	return b.String()
}

// xmlEscaper covers the five XML special characters. Values interpolated
// into envelopes always pass through here so a company named
// "ACME & SONS <P> Ltd" cannot corrupt the document.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape returns s with XML special characters replaced by entities.
func Escape(s string) string { return xmlEscaper.Replace(s) }
