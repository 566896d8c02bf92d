package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOffsetsDescending(t *testing.T) {
	require.Equal(t, []int{7, 5, 2, 1}, Offsets())
}

func TestSelectTemplateLabels(t *testing.T) {
	for _, tt := range []struct {
		offset int
		label  string
	}{
		{7, "7 days before reminder"},
		{5, "5 days before reminder"},
		{2, "2 days before reminder"},
		{1, "1 days before reminder"},
	} {
		tmpl, ok := SelectTemplate(tt.offset)
		require.True(t, ok)
		require.Equal(t, tt.label, tmpl.Label)
	}

	for _, offset := range []int{0, 3, 6, 30, -1} {
		_, ok := SelectTemplate(offset)
		require.False(t, ok)
	}
}

func TestTemplateRendering(t *testing.T) {
	data := TemplateData{
		UserName:         "Ada",
		SubscriptionName: "Pro Plan",
		PlanName:         "Pro Plan",
		Price:            "USD 10 (monthly)",
		PaymentMethod:    "VISA **** 4242",
		RenewalDate:      "Jan 1, 2026",
		DaysLeft:         7,
	}

	tmpl, ok := SelectTemplate(7)
	require.True(t, ok)

	require.Contains(t, tmpl.Subject(data), "Renews in 7 Days")

	body := tmpl.Body(data)
	require.Contains(t, body, "Ada")
	require.Contains(t, body, "<strong>Pro Plan</strong>")
	require.Contains(t, body, "Jan 1, 2026")
	require.Contains(t, body, "(7 days from today)")
	require.Contains(t, body, "<strong>Payment Method:</strong> VISA **** 4242")
}

func TestFormatters(t *testing.T) {
	require.Equal(t, "Jan 1, 2026", FormatRenewalDate(time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)))
	require.Equal(t, "USD 10 (monthly)", FormatPrice("USD", 10, "monthly"))
	require.Equal(t, "EUR 15.99 (yearly)", FormatPrice("EUR", 15.99, "yearly"))
}
