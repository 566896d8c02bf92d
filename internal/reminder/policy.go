// Package reminder holds the renewal reminder policy: which offsets
// before a renewal date get an email, and how each email is rendered.
package reminder

import (
	"fmt"
	"strings"
	"time"
)

// offsets are the days-before-renewal marks that produce a reminder,
// in the order reminders fire.
var offsets = []int{7, 5, 2, 1}

// TemplateData carries the display fields a reminder is rendered from.
type TemplateData struct {
	UserName         string
	SubscriptionName string
	PlanName         string
	Price            string
	PaymentMethod    string
	RenewalDate      string
	DaysLeft         int
}

// Template is a reminder email for one offset.
type Template struct {
	Label      string
	offsetDays int
}

// Subject renders the email subject line.
func (t *Template) Subject(data TemplateData) string {
	return fmt.Sprintf("⏳ %s Renews in %d Days!", data.SubscriptionName, t.offsetDays)
}

// Body renders the HTML body.
func (t *Template) Body(data TemplateData) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div style="font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; color: #333;">`)
	fmt.Fprintf(&b, `<p>Hello <strong style="color: #4a90e2;">%s</strong>,</p>`, data.UserName)
	fmt.Fprintf(&b, `<p>Your <strong>%s</strong> subscription is set to renew on <strong style="color: #4a90e2;">%s</strong> (%d days from today).</p>`,
		data.SubscriptionName, data.RenewalDate, t.offsetDays)
	fmt.Fprintf(&b, `<table style="margin: 15px 0;"><tr><td><strong>Plan:</strong> %s</td></tr>`, data.PlanName)
	fmt.Fprintf(&b, `<tr><td><strong>Price:</strong> %s</td></tr>`, data.Price)
	fmt.Fprintf(&b, `<tr><td><strong>Payment Method:</strong> %s</td></tr></table>`, data.PaymentMethod)
	fmt.Fprintf(&b, `<p>If you'd like to make changes or cancel your subscription, please do so before the renewal date.</p>`)
	fmt.Fprintf(&b, `</div>`)
	return b.String()
}

// SelectTemplate returns the template for an exact offset, or false
// when the offset is not a reminder mark.
func SelectTemplate(offsetDays int) (*Template, bool) {
	for _, offset := range offsets {
		if offset == offsetDays {
			return &Template{
				Label:      fmt.Sprintf("%d days before reminder", offset),
				offsetDays: offset,
			}, true
		}
	}
	return nil, false
}

// Offsets returns the reminder marks in firing order.
func Offsets() []int {
	out := make([]int, len(offsets))
	copy(out, offsets)
	return out
}

// FormatRenewalDate renders a renewal date the way reminder emails
// display it.
func FormatRenewalDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// FormatPrice renders the price line, e.g. "USD 15.99 (monthly)".
func FormatPrice(currency string, price float64, frequency string) string {
	return fmt.Sprintf("%s %s (%s)", currency, trimPrice(price), frequency)
}

func trimPrice(price float64) string {
	s := fmt.Sprintf("%.2f", price)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
