// internal/orders/rules.go
package orders

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/open-policy-agent/opa/rego"
	"gopkg.in/yaml.v3"

	"codrelay/pkg/problems"
)

// DefaultTags are the classification tags attached to every relayed order
// unless the rules file overrides them.
var DefaultTags = []string{"COD", "cash-on-delivery"}

// Rules is the operator-editable screening configuration.
type Rules struct {
	Tags             []string `yaml:"tags"`
	MaxCODFee        float64  `yaml:"max_cod_fee"`
	BlockedCountries []string `yaml:"blocked_countries"`
}

// LoadRules reads the YAML rules file; an empty path yields permissive
// defaults.
func LoadRules(path string) (Rules, error) {
	r := Rules{Tags: DefaultTags}
	if path == "" {
		return r, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, err
	}
	if err := yaml.Unmarshal(b, &r); err != nil {
		return Rules{}, fmt.Errorf("rules yaml parse: %w", err)
	}
	if len(r.Tags) == 0 {
		r.Tags = DefaultTags
	}
	return r, nil
}

// ScreenError reports why an order was refused before reaching downstream.
type ScreenError struct {
	Problems []problems.Problem
}

func (e *ScreenError) Error() string { return "order refused by screening rules" }

// Screener evaluates the static rules plus an optional rego policy
// (entrypoint data.cod.decide) against each order before it is relayed.
type Screener struct {
	rules      Rules
	policySrc  string
	policyName string
}

func NewScreener(rules Rules, policyPath string) (*Screener, error) {
	s := &Screener{rules: rules}
	if policyPath != "" {
		b, err := os.ReadFile(policyPath)
		if err != nil {
			return nil, err
		}
		s.policySrc = string(b)
		s.policyName = policyPath
	}
	return s, nil
}

// Tags returns the classification tags the relay must attach.
func (s *Screener) Tags() []string { return s.rules.Tags }

// Screen returns nil when the order may be relayed, or a ScreenError with
// one problem per violated rule.
func (s *Screener) Screen(ctx context.Context, shop string, o ProxyOrder) error {
	var out []problems.Problem
	if s.rules.MaxCODFee > 0 && o.CODFee > s.rules.MaxCODFee {
		out = append(out, problems.New("cod-fee-limit", "COD fee exceeds the configured limit",
			fmt.Sprintf("fee %.2f is above the allowed maximum %.2f", o.CODFee, s.rules.MaxCODFee)))
	}
	if a := o.ShippingAddress; a != nil && len(s.rules.BlockedCountries) > 0 {
		for _, cc := range s.rules.BlockedCountries {
			if strings.EqualFold(cc, a.CountryCode) || strings.EqualFold(cc, a.Country) {
				out = append(out, problems.New("country-blocked", "Cash on delivery is not available for this destination", ""))
				break
			}
		}
	}
	if s.policySrc != "" {
		if p := s.evalPolicy(ctx, shop, o); p != nil {
			out = append(out, p...)
		}
	}
	if len(out) > 0 {
		return &ScreenError{Problems: out}
	}
	return nil
}

func (s *Screener) evalPolicy(ctx context.Context, shop string, o ProxyOrder) []problems.Problem {
	r := rego.New(
		rego.Query("data.cod.decide"),
		rego.Module(s.policyName, s.policySrc),
		rego.Input(map[string]any{"shop": shop, "order": o}),
	)
	rs, err := r.Eval(ctx)
	if err != nil || len(rs) == 0 || len(rs[0].Expressions) == 0 {
		// a broken policy blocks nothing silently; it blocks everything
		return []problems.Problem{problems.New("policy-error", "Order policy could not be evaluated", "")}
	}
	m, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return nil
	}
	if allow, ok := m["allow"].(bool); ok && allow {
		return nil
	}
	var out []problems.Problem
	if reasons, ok := m["reasons"].([]any); ok && len(reasons) > 0 {
		for _, rr := range reasons {
			out = append(out, problems.New("policy-denied", "Order refused by policy", fmt.Sprintf("%v", rr)))
		}
		return out
	}
	return []problems.Problem{problems.New("policy-denied", "Order refused by policy", "")}
}
