package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gookit/color"
	"github.com/tidwall/gjson"

	"github.com/specialistvlad/rcctl/internal/entitlements"
	"github.com/specialistvlad/rcctl/internal/revenuecat"
)

// Empty-state messages.
const (
	NoActiveEntitlements = "No active entitlements found for this customer."
	NoEntitlements       = "No entitlements found in this project."
	NoBalances           = "No virtual currency balances found for this customer."
)

const (
	shortLayout = "02/01/2006, 15:04"
	fullLayout  = "Monday 2 January 2006 at 15:04:05 MST"
)

// Printer writes command results. The zero value writes nowhere; set W.
type Printer struct {
	W        io.Writer
	Color    bool
	Location *time.Location
	Now      func() time.Time
}

// JSON pretty-prints a raw JSON document with two-space indentation.
func (p *Printer) JSON(raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("format response: %w", err)
	}
	buf.WriteByte('\n')
	_, err := p.W.Write(buf.Bytes())
	return err
}

// Field prints the value at a gjson path in raw. Objects and arrays are
// pretty-printed, scalars are printed bare.
func (p *Printer) Field(raw json.RawMessage, path string) error {
	res := gjson.GetBytes(raw, path)
	if !res.Exists() {
		return fmt.Errorf("field %q not found in response", path)
	}
	if res.IsObject() || res.IsArray() {
		return p.JSON(json.RawMessage(res.Raw))
	}
	_, err := fmt.Fprintln(p.W, res.String())
	return err
}

// Success prints a check-marked line.
func (p *Printer) Success(format string, args ...any) {
	mark := "✓"
	if p.Color {
		mark = color.Green.Sprint(mark)
	}
	fmt.Fprintf(p.W, "%s %s\n", mark, fmt.Sprintf(format, args...))
}

// Info prints a plain line, dimmed when color is on.
func (p *Printer) Info(msg string) {
	if p.Color {
		msg = color.Gray.Sprint(msg)
	}
	fmt.Fprintln(p.W, msg)
}

// Detail prints an indented continuation line.
func (p *Printer) Detail(format string, args ...any) {
	fmt.Fprintf(p.W, "  %s\n", fmt.Sprintf(format, args...))
}

// ActiveEntitlements renders a customer's entitlements.
func (p *Printer) ActiveEntitlements(rows []entitlements.Row) error {
	if len(rows) == 0 {
		p.Info(NoActiveEntitlements)
		return nil
	}
	t := NewTable("ID", "Entitlement", "Expires At")
	for _, r := range rows {
		expires := "Never"
		if r.ExpiresAt != nil && *r.ExpiresAt != 0 {
			expires = p.ShortTime(*r.ExpiresAt)
		}
		t.AddRow(r.ID, r.DisplayName, expires)
	}
	return t.Render(p.W)
}

// Catalog renders the project's entitlement definitions.
func (p *Printer) Catalog(items []revenuecat.Entitlement) error {
	if len(items) == 0 {
		p.Info(NoEntitlements)
		return nil
	}
	t := NewTable("ID", "Name")
	for _, e := range items {
		t.AddRow(e.ID, e.DisplayName)
	}
	return t.Render(p.W)
}

// Balances renders virtual currency balances.
func (p *Printer) Balances(items []revenuecat.VirtualCurrencyBalance) error {
	if len(items) == 0 {
		p.Info(NoBalances)
		return nil
	}
	t := NewTable("Currency", "Code", "Balance", "Description")
	for _, b := range items {
		t.AddRow(CurrencyName(b), b.CurrencyCode, strconv.FormatInt(b.Balance, 10), orDash(b.Description))
	}
	return t.Render(p.W)
}

// BalanceUpdated reports the server-computed balance of code after an
// adjustment.
func (p *Printer) BalanceUpdated(code string, items []revenuecat.VirtualCurrencyBalance) {
	for _, b := range items {
		if b.CurrencyCode == code {
			p.Success("Successfully updated %s. New balance: %d", CurrencyName(b), b.Balance)
			return
		}
	}
	p.Success("Virtual currency balance updated successfully")
}

// ShortTime formats epoch milliseconds as "dd/mm/yyyy, HH:MM".
func (p *Printer) ShortTime(ms int64) string {
	return time.UnixMilli(ms).In(p.location()).Format(shortLayout)
}

// FullTime formats epoch milliseconds with weekday, zone and a relative hint.
func (p *Printer) FullTime(ms int64) string {
	t := time.UnixMilli(ms).In(p.location())
	return fmt.Sprintf("%s (%s)", t.Format(fullLayout), humanize.RelTime(t, p.now(), "ago", "from now"))
}

// CurrencyName is the display name of a balance, falling back to its code.
func CurrencyName(b revenuecat.VirtualCurrencyBalance) string {
	if b.Name != "" {
		return b.Name
	}
	return b.CurrencyCode
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (p *Printer) location() *time.Location {
	if p.Location != nil {
		return p.Location
	}
	return time.Local
}

func (p *Printer) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
