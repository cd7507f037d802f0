package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceKey(t *testing.T) {
	assert.Equal(t, "pptx_15", PriceKey("pptx", 15))
	assert.Equal(t, "docx_30", PriceKey("docx", 30))
}

func TestDefaultPrice(t *testing.T) {
	tests := []struct {
		key  string
		want int
	}{
		{"pptx_10", 5000},
		{"pptx_20", 10000},
		{"docx_25", 10000},
		{"docx_30", 12000},
		{"docx_99", fallbackPrice},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultPrice(tt.key))
		})
	}
}

func TestDefaultPrices_CoverLengthOptions(t *testing.T) {
	for _, size := range []int{10, 15, 20} {
		assert.Contains(t, DefaultPrices, PriceKey("pptx", size))
	}
	for _, size := range []int{15, 20, 25, 30} {
		assert.Contains(t, DefaultPrices, PriceKey("docx", size))
	}
}

func TestSortPrices(t *testing.T) {
	prices := []Price{
		{Key: "pptx_20"}, {Key: "docx_30"}, {Key: "pptx_10"}, {Key: "docx_15"}, {Key: "pptx_15"},
	}
	sortPrices(prices)

	keys := make([]string, len(prices))
	for i, p := range prices {
		keys[i] = p.Key
	}
	assert.Equal(t, []string{"docx_15", "docx_30", "pptx_10", "pptx_15", "pptx_20"}, keys)
}

func TestQuotaColumn(t *testing.T) {
	col, err := QuotaPPTX.column()
	require.NoError(t, err)
	assert.Equal(t, "free_pptx", col)

	col, err = QuotaDOCX.column()
	require.NoError(t, err)
	assert.Equal(t, "free_docx", col)

	_, err = Quota("balance; DROP TABLE users").column()
	assert.Error(t, err)
}

func TestUser_FreeQuota(t *testing.T) {
	u := &User{FreePPTX: 2, FreeDOCX: 4}
	assert.Equal(t, 2, u.FreeQuota(QuotaPPTX))
	assert.Equal(t, 4, u.FreeQuota(QuotaDOCX))
}
