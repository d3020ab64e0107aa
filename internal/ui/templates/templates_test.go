package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount string
		places int32
		want   string
	}{
		{"0", 0, "£0"},
		{"999", 0, "£999"},
		{"1234", 0, "£1.234"},
		{"1234567.4", 0, "£1.234.567"},
		{"12345.678", 2, "£12.345,68"},
		{"25", 2, "£25,00"},
		{"-1500.5", 2, "-£1.500,50"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatCurrency(decimal.RequireFromString(tt.amount), tt.places)
			if got != tt.want {
				t.Errorf("FormatCurrency(%s, %d) = %q, want %q", tt.amount, tt.places, got, tt.want)
			}
		})
	}
}

func TestFormatInt(t *testing.T) {
	tests := map[int]string{
		0:        "0",
		42:       "42",
		1000:     "1.000",
		25900:    "25.900",
		-1234567: "-1.234.567",
	}
	for n, want := range tests {
		if got := FormatInt(n); got != want {
			t.Errorf("FormatInt(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestDashboard(t *testing.T) {
	var b strings.Builder
	view := DashboardView{
		Countries: []string{"France", "United Kingdom", "<script>"},
		From:      "2010-12-01",
		To:        "2011-12-09",
		Clusters:  3,
	}
	if err := Dashboard(view).Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	body := b.String()

	for _, want := range []string{
		"<title>Retail Insights</title>",
		"Revenue by Country",
		"Monthly Revenue",
		"Revenue by Weekday",
		"ABC Product Tiers",
		"Country Segments",
		`<option value="France">France</option>`,
		"from: '2010-12-01'",
		"k: 3",
		"@get('/sse/refresh-all')",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if strings.Contains(body, "<option value=\"<script>\">") {
		t.Error("country names must be escaped")
	}
}
