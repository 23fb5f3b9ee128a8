package layered

import (
	"math"
	"strconv"
	"strings"

	"github.com/rzbill/podprobe/pkg/types"
)

// Tier is one precedence level: a layer plus the key prefix used to address it.
type Tier struct {
	Layer  Layer
	Prefix string
}

// Key returns the full path of key inside the tier's layer.
func (t Tier) Key(key string) string {
	return JoinKey(t.Prefix, key)
}

// String identifies the tier, e.g. "properties:health.readiness".
func (t Tier) String() string {
	if t.Prefix == "" {
		return t.Layer.Name()
	}
	return t.Layer.Name() + ":" + t.Prefix
}

// Resolver looks keys up across tiers ordered from highest to lowest precedence.
// Every key is resolved on its own, so two keys may be satisfied by different tiers.
type Resolver struct {
	tiers []Tier
}

// NewResolver creates a resolver over tiers, highest precedence first. Tiers
// without a layer are skipped.
func NewResolver(tiers ...Tier) *Resolver {
	r := &Resolver{}
	for _, t := range tiers {
		if t.Layer != nil && !isNilLayer(t.Layer) {
			r.tiers = append(r.tiers, t)
		}
	}
	return r
}

// ForRole builds the resolver for one probe role with the fixed precedence:
//
//  1. property <prefix>.<role>.<key>
//  2. property <prefix>.<key>
//  3. structured <role>.<key>
//  4. structured <key>
func ForRole(properties, structured Layer, prefix string, role types.Role) *Resolver {
	return NewResolver(
		Tier{Layer: properties, Prefix: JoinKey(prefix, string(role))},
		Tier{Layer: properties, Prefix: prefix},
		Tier{Layer: structured, Prefix: string(role)},
		Tier{Layer: structured, Prefix: ""},
	)
}

// Tiers returns the resolver's tiers, highest precedence first.
func (r *Resolver) Tiers() []Tier {
	return append([]Tier(nil), r.tiers...)
}

// lookup returns the first value for key accepted by accept.
func (r *Resolver) lookup(key string, accept func(Value) bool) (Value, Tier, bool) {
	for _, t := range r.tiers {
		v, ok := t.Layer.Lookup(t.Key(key))
		if !ok || !accept(v) {
			continue
		}
		return v, t, true
	}
	return Value{}, Tier{}, false
}

func nonBlankScalar(v Value) bool {
	return v.Kind == KindScalar && !v.IsBlank()
}

// ResolveString returns the trimmed value of the first tier holding a non-blank
// scalar for key. Blank values count as absent.
func (r *Resolver) ResolveString(key string) (string, bool) {
	v, _, ok := r.lookup(key, nonBlankScalar)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v.Scalar), true
}

// ResolveInt resolves key like ResolveString and parses the result as a base-10
// integer. A winning value that does not parse fails with an InvalidNumberError;
// weaker tiers are not consulted in that case.
func (r *Resolver) ResolveInt(key string) (int, bool, error) {
	return r.resolveInt(key, math.MaxInt)
}

// ResolveIntMax is ResolveInt for values bounded above by limit. A larger winning
// value fails with an InvalidNumberError wrapping strconv.ErrRange.
func (r *Resolver) ResolveIntMax(key string, limit int) (int, bool, error) {
	return r.resolveInt(key, limit)
}

func (r *Resolver) resolveInt(key string, limit int) (int, bool, error) {
	v, t, ok := r.lookup(key, nonBlankScalar)
	if !ok {
		return 0, false, nil
	}
	s := strings.TrimSpace(v.Scalar)
	n, err := strconv.Atoi(s)
	if err == nil && n > limit {
		err = &strconv.NumError{Func: "Atoi", Num: s, Err: strconv.ErrRange}
	}
	if err != nil {
		return 0, false, &types.InvalidNumberError{Key: t.Key(key), Source: t.Layer.Name(), Value: s, Err: err}
	}
	return n, true, nil
}

// ResolveStringList returns the arguments of the first tier holding a non-empty
// list for key. Blank arguments are dropped. List arguments are kept verbatim;
// scalars are split on commas and each piece trimmed.
func (r *Resolver) ResolveStringList(key string) ([]string, bool) {
	var items []string
	_, _, ok := r.lookup(key, func(v Value) bool {
		items = listItems(v)
		return len(items) > 0
	})
	if !ok {
		return nil, false
	}
	return items, true
}

func listItems(v Value) []string {
	var raw []string
	switch v.Kind {
	case KindList:
		raw = v.List
	case KindScalar:
		raw = strings.Split(v.Scalar, ",")
	default:
		return nil
	}

	items := make([]string, 0, len(raw))
	for _, item := range raw {
		if v.Kind == KindScalar {
			item = strings.TrimSpace(item)
		}
		if strings.TrimSpace(item) != "" {
			items = append(items, item)
		}
	}
	return items
}

// ResolveMap returns the entries of the first tier holding a non-empty mapping
// for key, in source order.
func (r *Resolver) ResolveMap(key string) ([]Entry, bool) {
	v, _, ok := r.lookup(key, func(v Value) bool {
		return v.Kind == KindMapping && len(v.Entries) > 0
	})
	if !ok {
		return nil, false
	}
	entries := make([]Entry, len(v.Entries))
	for i, e := range v.Entries {
		entries[i] = Entry{Name: e.Name, Value: strings.TrimSpace(e.Value)}
	}
	return entries, true
}

// Source names the tier that supplies the scalar value of key, or "" when
// no tier does.
func (r *Resolver) Source(key string) string {
	_, t, ok := r.lookup(key, nonBlankScalar)
	if !ok {
		return ""
	}
	return t.String()
}

// isNilLayer catches typed nil pointers stored in the Layer interface.
func isNilLayer(l Layer) bool {
	switch v := l.(type) {
	case *PropertyLayer:
		return v == nil
	case *StructuredLayer:
		return v == nil
	}
	return false
}
