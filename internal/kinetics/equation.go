package kinetics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

const (
	reversibleArrow   = "<=>"
	irreversibleArrow = "=>"
)

type side []rawTerm

// rawTerm is a stoichiometric term before species names are resolved.
type rawTerm struct {
	Name  string
	Coeff float64
}

type equation struct {
	lhs, rhs   side
	reversible bool
}

func parseEquation(s string) (equation, error) {
	var eq equation
	var lhs, rhs string
	var ok bool
	if lhs, rhs, ok = strings.Cut(s, reversibleArrow); ok {
		eq.reversible = true
	} else if lhs, rhs, ok = strings.Cut(s, irreversibleArrow); !ok {
		return eq, fmt.Errorf("%w: no arrow in %q", ErrBadEquation, s)
	}

	var err error
	if eq.lhs, err = parseSide(lhs); err != nil {
		return eq, err
	}
	if eq.rhs, err = parseSide(rhs); err != nil {
		return eq, err
	}
	return eq, nil
}

func parseSide(s string) (side, error) {
	var out side
	for _, tok := range sideTokens(s) {
		coeff, name := splitCoefficient(tok)
		if name == "" {
			return nil, fmt.Errorf("%w: empty species in %q", ErrBadEquation, s)
		}
		out = append(out, rawTerm{Name: name, Coeff: coeff})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty side %q", ErrBadEquation, s)
	}
	return out, nil
}

// splitCoefficient separates "2 OH" or "2OH" into (2, "OH").
func splitCoefficient(tok string) (float64, string) {
	if fields := strings.Fields(tok); len(fields) == 2 {
		if c, err := strconv.ParseFloat(fields[0], 64); err == nil {
			return c, fields[1]
		}
	}
	end := strings.IndexFunc(tok, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	if end > 0 {
		if c, err := strconv.ParseFloat(tok[:end], 64); err == nil {
			return c, strings.TrimSpace(tok[end:])
		}
	}
	return 1, tok
}

func (s side) terms(index map[string]int) ([]Term, error) {
	merged := make(map[int]float64, len(s))
	order := make([]int, 0, len(s))
	for _, t := range s {
		i, ok := index[t.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSpecies, t.Name)
		}
		if _, seen := merged[i]; !seen {
			order = append(order, i)
		}
		merged[i] += t.Coeff
	}
	out := make([]Term, len(order))
	for k, i := range order {
		out[k] = Term{Species: i, Coeff: merged[i]}
	}
	return out, nil
}

// sideTokens splits one side of an equation on " + ". Species names may
// themselves contain '+' (ions), so a bare '+' without surrounding space
// does not separate tokens.
func sideTokens(s string) []string {
	var out []string
	for _, tok := range strings.Split(s, " + ") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// EquationEqual reports whether two reaction equations describe the same
// reaction. Each side of the reversible arrow is compared on its own: a
// side with a single token on either equation must match literally, sides
// with several tokens match regardless of order. Equations without a
// reversible arrow are compared as whole strings.
func EquationEqual(a, b string) bool {
	la, ra, okA := strings.Cut(a, reversibleArrow)
	lb, rb, okB := strings.Cut(b, reversibleArrow)
	if !okA || !okB {
		return a == b
	}
	return sideEqual(la, lb) && sideEqual(ra, rb)
}

func sideEqual(x, y string) bool {
	tx, ty := sideTokens(x), sideTokens(y)
	if len(tx) < 2 || len(ty) < 2 {
		return strings.TrimSpace(x) == strings.TrimSpace(y)
	}
	if len(tx) != len(ty) {
		return false
	}
	sort.Strings(tx)
	sort.Strings(ty)
	for i := range tx {
		if tx[i] != ty[i] {
			return false
		}
	}
	return true
}
