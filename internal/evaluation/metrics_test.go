package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTableName(t *testing.T) {
	tests := map[string]string{
		"orders":                 "orders",
		"  Orders ":              "orders",
		"public.orders":          "orders",
		"analytics.sales.Orders": "orders",
		`"public"."Orders"`:      "orders",
		"`order_items`":          "order_items",
		"":                       "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeTableName(in), "input %q", in)
	}
}

func TestRecallAtK(t *testing.T) {
	tests := []struct {
		name      string
		expected  []string
		retrieved []string
		k         int
		want      float64
	}{
		{"every expected table retrieved", []string{"orders", "customers"}, []string{"customers", "orders", "regions"}, 5, 1},
		{"one of two tables", []string{"orders", "customers"}, []string{"orders", "products"}, 5, 0.5},
		{"schema-qualified retrieval matches", []string{"orders"}, []string{"public.orders"}, 5, 1},
		{"case differences ignored", []string{"Support_Tickets"}, []string{"support_tickets"}, 5, 1},
		{"table below the cutoff", []string{"regions"}, []string{"orders", "products", "regions"}, 2, 0},
		{"qualified duplicate does not take a slot", []string{"orders", "regions"}, []string{"orders", "public.orders", "regions"}, 2, 1},
		{"duplicate expected tables count once", []string{"orders", "public.orders"}, []string{"orders"}, 5, 1},
		{"nothing retrieved", []string{"orders"}, nil, 5, 0},
		{"nothing expected", nil, []string{"orders"}, 5, 0},
		{"zero k", []string{"orders"}, []string{"orders"}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RecallAtK(tt.expected, tt.retrieved, tt.k), 1e-9)
		})
	}
}

func TestMRRAtK(t *testing.T) {
	tests := []struct {
		name      string
		expected  []string
		retrieved []string
		k         int
		want      float64
	}{
		{"expected table ranked first", []string{"orders"}, []string{"orders", "customers"}, 5, 1},
		{"first hit at rank three", []string{"regions", "products"}, []string{"orders", "customers", "products", "regions"}, 5, 1.0 / 3},
		{"qualified names match", []string{"public.order_items"}, []string{"customers", "ORDER_ITEMS"}, 5, 0.5},
		{"duplicates collapse before ranking", []string{"products"}, []string{"orders", "public.orders", "products"}, 5, 0.5},
		{"hit beyond k", []string{"products"}, []string{"orders", "customers", "products"}, 2, 0},
		{"no hit", []string{"products"}, []string{"orders"}, 5, 0},
		{"nothing expected", nil, []string{"orders"}, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MRRAtK(tt.expected, tt.retrieved, tt.k), 1e-9)
		})
	}
}
