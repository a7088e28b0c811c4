package gura

import (
	"math"
	"math/big"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	f := func(name string, input Value, want string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			assert.Equal(t, want, Dump(input))
		})
	}

	f("null", doc("k", NullValue()), "k: null")
	f("bool", doc("k", BoolValue(true)), "k: true")
	f("int", doc("k", IntValue(-42)), "k: -42")
	f("string", doc("k", StringValue("hi")), `k: "hi"`)
	f("string_escapes", doc("k", StringValue("a\tb\n\"c\" $d \\e")), `k: "a\tb\n\"c\" \$d \\e"`)
	f("float_keeps_decimal_point", doc("k", FloatValue(1.0)), "k: 1.0")
	f("float_plain", doc("k", FloatValue(13.4)), "k: 13.4")
	f("float_exponent", doc("k", FloatValue(5e22)), "k: 5e+22")
	f("nan", doc("k", FloatValue(math.NaN())), "k: nan")
	f("infinity", doc("k", FloatValue(math.Inf(1))), "k: inf")
	f("negative_infinity", doc("k", FloatValue(math.Inf(-1))), "k: -inf")
	f("empty_object", doc("k", doc()), "k: empty")
	f("empty_document", doc(), "empty")
	f("inline_list", doc("k", ArrayValue(IntValue(1), IntValue(2))), "k: [1, 2]")
	f("empty_list", doc("k", ArrayValue()), "k: []")

	big1, _ := new(big.Int).SetString("99999999999999999999999999999", 10)
	f("big_int", doc("k", BigIntValue(big1)), "k: 99999999999999999999999999999")

	f("nested_object",
		doc("a", doc("b", IntValue(1), "c", doc("d", IntValue(2)))),
		strings.Join([]string{
			"a:",
			"    b: 1",
			"    c:",
			"        d: 2",
		}, "\n"))

	f("list_of_objects",
		doc("items", ArrayValue(doc("name", StringValue("a")), doc("name", StringValue("b")))),
		strings.Join([]string{
			"items: [",
			`    name: "a",`,
			`    name: "b"`,
			"]",
		}, "\n"))
}

func TestDumpRoundTrip(t *testing.T) {
	input := strings.Join([]string{
		`title: "Gura Example"`,
		`number: 13.4`,
		`whole: 5.0`,
		`nothing: null`,
		`weird: [nan, inf, -inf]`,
		`an_object:`,
		`    name: "John"`,
		`    surname: "Wick"`,
		`    has_pet: false`,
		`tags: ["a", "b", "c"]`,
		`mixed: [1, [2, 3], empty]`,
	}, "\n")

	first, err := Parse(input)
	require.NoError(t, err)

	second, err := Parse(Dump(first))
	require.NoError(t, err)

	if diff := cmp.Diff(first, second, valueCmp); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}
}

func TestMarshal(t *testing.T) {
	t.Run("struct_with_tags", func(t *testing.T) {
		type server struct {
			Host    string `gura:"host"`
			Port    int    `gura:"port"`
			Debug   bool   `gura:"debug"`
			Ignored string `gura:"-"`
			Bare    string
		}
		got, err := Marshal(server{Host: "localhost", Port: 8080, Debug: true, Ignored: "x", Bare: "y"})
		require.NoError(t, err)
		want := strings.Join([]string{
			`host: "localhost"`,
			"port: 8080",
			"debug: true",
			`Bare: "y"`,
			"",
		}, "\n")
		assert.Equal(t, want, string(got))
	})

	t.Run("map_keys_are_sorted", func(t *testing.T) {
		got, err := Marshal(map[string]int{"b": 2, "a": 1})
		require.NoError(t, err)
		assert.Equal(t, "a: 1\nb: 2\n", string(got))
	})

	t.Run("nil_pointer_is_null", func(t *testing.T) {
		type inner struct {
			Ptr *int `gura:"ptr"`
		}
		got, err := Marshal(inner{})
		require.NoError(t, err)
		assert.Equal(t, "ptr: null\n", string(got))
	})

	t.Run("value_tree_passes_through", func(t *testing.T) {
		got, err := Marshal(doc("z", IntValue(1), "a", IntValue(2)))
		require.NoError(t, err)
		// Key order of a Value tree is preserved, not sorted.
		assert.Equal(t, "z: 1\na: 2\n", string(got))
	})

	t.Run("unsupported_type", func(t *testing.T) {
		_, err := Marshal(map[string]any{"ch": make(chan int)})
		require.Error(t, err)
	})

	t.Run("roundtrip_through_unmarshal", func(t *testing.T) {
		type config struct {
			Name  string   `gura:"name"`
			Count int      `gura:"count"`
			Tags  []string `gura:"tags"`
		}
		in := config{Name: "app", Count: 3, Tags: []string{"x", "y"}}
		data, err := Marshal(in)
		require.NoError(t, err)

		var out config
		require.NoError(t, Unmarshal(data, &out))
		assert.Equal(t, in, out)
	})
}
