package payment

import (
	dompay "github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
)

// Resolver maps each enabled method to its strategy.
type Resolver struct {
	strategies map[dompay.Method]dompay.Strategy
}

// NewResolver registers strategies; when enabled is non-empty only the
// listed methods are kept.
func NewResolver(enabled []dompay.Method, strategies ...dompay.Strategy) *Resolver {
	allow := make(map[dompay.Method]bool, len(enabled))
	for _, m := range enabled {
		allow[m] = true
	}
	r := &Resolver{strategies: make(map[dompay.Method]dompay.Strategy, len(strategies))}
	for _, s := range strategies {
		if len(allow) > 0 && !allow[s.Method()] {
			continue
		}
		r.strategies[s.Method()] = s
	}
	return r
}

// DefaultResolver enables every known method.
func DefaultResolver(now Clock) *Resolver {
	return NewResolver(nil, CreditCard{}, Pix{}, NewBoleto(now))
}

func (r *Resolver) Resolve(m dompay.Method) (dompay.Strategy, error) {
	s, ok := r.strategies[m]
	if !ok {
		return nil, &dompay.UnsupportedMethodError{Method: string(m)}
	}
	return s, nil
}

// Enabled lists enabled methods in display order.
func (r *Resolver) Enabled() []dompay.Method {
	out := make([]dompay.Method, 0, len(r.strategies))
	for _, m := range dompay.Methods {
		if _, ok := r.strategies[m]; ok {
			out = append(out, m)
		}
	}
	return out
}
