package sanitize

import (
	"testing"

	"pgregory.net/rapid"
)

// genDoc builds arbitrary JSON-ish values with nulls sprinkled at every depth.
func genDoc() *rapid.Generator[any] {
	return rapid.OneOf(
		rapid.Map(rapid.String(), func(s string) any { return s }),
		rapid.Map(rapid.Float64(), func(f float64) any { return f }),
		rapid.Map(rapid.Bool(), func(b bool) any { return b }),
		rapid.Just[any](nil),
		rapid.Custom(func(t *rapid.T) any {
			n := rapid.IntRange(0, 4).Draw(t, "n")
			m := make(map[string]any, n)
			for i := 0; i < n; i++ {
				key := rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "key")
				m[key] = genLeaf().Draw(t, "val")
			}
			return m
		}),
		rapid.Custom(func(t *rapid.T) any {
			n := rapid.IntRange(0, 4).Draw(t, "n")
			a := make([]any, n)
			for i := 0; i < n; i++ {
				a[i] = genLeaf().Draw(t, "elem")
			}
			return a
		}),
	)
}

func genLeaf() *rapid.Generator[any] {
	return rapid.OneOf(
		rapid.Map(rapid.String(), func(s string) any { return s }),
		rapid.Map(rapid.Float64(), func(f float64) any { return f }),
		rapid.Just[any](nil),
		rapid.Custom(func(t *rapid.T) any {
			return map[string]any{
				rapid.StringMatching(`[a-z]{1,6}`).Draw(t, "k"): rapid.OneOf(
					rapid.Map(rapid.String(), func(s string) any { return s }),
					rapid.Just[any](nil),
				).Draw(t, "v"),
			}
		}),
	)
}

func TestClean_propertyIdempotentAndNullFree(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(rt *rapid.T) {
		doc := genDoc().Draw(rt, "doc")
		once := Clean(doc)
		twice := Clean(once)
		if !deepEqual(once, twice) {
			rt.Fatalf("Clean not idempotent: %#v vs %#v", once, twice)
		}
		assertNoNullFields(rt, once)
	})
}

func assertNoNullFields(rt *rapid.T, v any) {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if val == nil {
				rt.Fatalf("null field %q survived Clean", k)
			}
			assertNoNullFields(rt, val)
		}
	case []any:
		for _, val := range t {
			assertNoNullFields(rt, val)
		}
	}
}

func deepEqual(a, b any) bool {
	switch ta := a.(type) {
	case map[string]any:
		tb, ok := b.(map[string]any)
		if !ok || len(ta) != len(tb) {
			return false
		}
		for k, va := range ta {
			vb, ok := tb[k]
			if !ok || !deepEqual(va, vb) {
				return false
			}
		}
		return true
	case []any:
		tb, ok := b.([]any)
		if !ok || len(ta) != len(tb) {
			return false
		}
		for i := range ta {
			if !deepEqual(ta[i], tb[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
