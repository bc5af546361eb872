package paygate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "usaf8fw8fsw21g"

func TestTokenVectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{
			name: "init with nested blocks",
			params: map[string]any{
				"TerminalKey": "TinkoffBankTest",
				"Amount":      int64(19200),
				"OrderId":     "21090",
				"Description": "Подарочная карта на 1000 рублей",
				"DATA":        map[string]string{"Phone": "+71234567890", "Email": "a@test.com"},
				"Receipt": map[string]any{
					"Email":    "a@test.ru",
					"Taxation": "osn",
					"Items":    []any{map[string]any{"Name": "Item", "Price": 10000}},
				},
			},
			want: "44a2c8230d1154e7e67c36eceb381690a6c5ee4e969353d79e319fceca64285f",
		},
		{
			name: "get state",
			params: map[string]any{
				"TerminalKey": "TinkoffBankTest",
				"PaymentId":   "13660",
			},
			want: "35429f614c99bb8e981f8fb2b6f4eb7b1295a8198c5082808b654b22617fd8d6",
		},
		{
			name: "existing token is ignored",
			params: map[string]any{
				"TerminalKey": "TinkoffBankTest",
				"PaymentId":   "13660",
				"Token":       "whatever",
			},
			want: "35429f614c99bb8e981f8fb2b6f4eb7b1295a8198c5082808b654b22617fd8d6",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Token(tt.params, testPassword))
		})
	}
}

const sampleNotification = `{
	"TerminalKey": "TinkoffBankTest",
	"OrderId": "21090",
	"Success": true,
	"Status": "CONFIRMED",
	"PaymentId": 13660,
	"ErrorCode": "0",
	"Amount": 19200,
	"CardId": 322264,
	"Pan": "430000******0777",
	"ExpDate": "1122",
	"Token": "26278031d20efdf406ad9571c5e238b80c8b7e874bab20af8e1311744d14e96f"
}`

func TestNotificationToken(t *testing.T) {
	t.Parallel()

	n, err := ParseNotification([]byte(sampleNotification))
	require.NoError(t, err)

	assert.Equal(t, n.String("Token"), Token(n, testPassword))
	assert.Equal(t, "13660", n.PaymentID())
	assert.Equal(t, "21090", n.OrderID())
	assert.Equal(t, StatusConfirmed, n.Status())
	assert.True(t, n.Success())
}

func TestTokenChangesWithAnyField(t *testing.T) {
	t.Parallel()

	base := map[string]any{
		"TerminalKey": "TinkoffBankTest",
		"PaymentId":   "13660",
	}
	signed := Token(base, testPassword)

	flipped := map[string]any{
		"TerminalKey": "TinkoffBankTest",
		"PaymentId":   "13661",
	}
	assert.NotEqual(t, signed, Token(flipped, testPassword))
	assert.NotEqual(t, signed, Token(base, testPassword+"x"))
}

func TestScalarFormatting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{"abc", "abc", true},
		{true, "true", true},
		{false, "false", true},
		{json.Number("19200"), "19200", true},
		{19200, "19200", true},
		{int64(19200), "19200", true},
		{float64(19200), "19200", true},
		{nil, "", false},
		{map[string]any{}, "", false},
		{[]any{1}, "", false},
	}
	for _, tt := range tests {
		got, ok := scalar(tt.in)
		assert.Equal(t, tt.ok, ok, "%#v", tt.in)
		assert.Equal(t, tt.want, got, "%#v", tt.in)
	}
}
