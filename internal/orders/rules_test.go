package orders

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRulesDefaults(t *testing.T) {
	r, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTags, r.Tags)
	assert.Zero(t, r.MaxCODFee)
}

func TestLoadRulesFile(t *testing.T) {
	path := writeTemp(t, "rules.yaml", `
tags: ["COD", "manual-review"]
max_cod_fee: 50
blocked_countries: ["XX"]
`)
	r, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"COD", "manual-review"}, r.Tags)
	assert.Equal(t, 50.0, r.MaxCODFee)
	assert.Equal(t, []string{"XX"}, r.BlockedCountries)
}

func TestScreenFeeLimit(t *testing.T) {
	s, err := NewScreener(Rules{Tags: DefaultTags, MaxCODFee: 10}, "")
	require.NoError(t, err)

	ok := ProxyOrder{LineItems: []LineItem{{VariantID: 1}}, CODFee: 10}
	assert.NoError(t, s.Screen(context.Background(), "demo.example", ok))

	over := ProxyOrder{LineItems: []LineItem{{VariantID: 1}}, CODFee: 11}
	err = s.Screen(context.Background(), "demo.example", over)
	var screenErr *ScreenError
	require.ErrorAs(t, err, &screenErr)
	require.Len(t, screenErr.Problems, 1)
	assert.Contains(t, screenErr.Problems[0].Type, "cod-fee-limit")
}

func TestScreenBlockedCountry(t *testing.T) {
	s, err := NewScreener(Rules{Tags: DefaultTags, BlockedCountries: []string{"XX"}}, "")
	require.NoError(t, err)
	o := ProxyOrder{
		LineItems:       []LineItem{{VariantID: 1}},
		ShippingAddress: &ShippingAddress{CountryCode: "xx"},
	}
	err = s.Screen(context.Background(), "demo.example", o)
	var screenErr *ScreenError
	require.ErrorAs(t, err, &screenErr)
	assert.Contains(t, screenErr.Problems[0].Type, "country-blocked")
}

const testPolicy = `package cod

default decide := {"allow": true}

decide := {"allow": false, "reasons": ["fee too high for policy"]} {
	input.order.codFee > 10
}
`

func TestScreenRegoPolicy(t *testing.T) {
	path := writeTemp(t, "cod.rego", testPolicy)
	s, err := NewScreener(Rules{Tags: DefaultTags}, path)
	require.NoError(t, err)

	ok := ProxyOrder{LineItems: []LineItem{{VariantID: 1}}, CODFee: 5}
	assert.NoError(t, s.Screen(context.Background(), "demo.example", ok))

	denied := ProxyOrder{LineItems: []LineItem{{VariantID: 1}}, CODFee: 25}
	err = s.Screen(context.Background(), "demo.example", denied)
	var screenErr *ScreenError
	require.ErrorAs(t, err, &screenErr)
	require.Len(t, screenErr.Problems, 1)
	assert.Equal(t, "fee too high for policy", screenErr.Problems[0].Detail)
}
