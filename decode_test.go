package gura

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalStruct(t *testing.T) {
	input := strings.Join([]string{
		`name: "gura"`,
		`port: 8080`,
		`ratio: 0.5`,
		`debug: true`,
		`tags: ["a", "b"]`,
		`limits:`,
		`    max_conns: 100`,
		`    timeout: 2.5`,
		`skipped: "never read"`,
	}, "\n")

	type limits struct {
		MaxConns int     `gura:"max_conns"`
		Timeout  float64 `gura:"timeout"`
	}
	type config struct {
		Name    string   `gura:"name"`
		Port    int      `gura:"port"`
		Ratio   float64  `gura:"ratio"`
		Debug   bool     `gura:"debug"`
		Tags    []string `gura:"tags"`
		Limits  limits   `gura:"limits"`
		Skipped string   `gura:"-"`
	}

	var got config
	require.NoError(t, Unmarshal([]byte(input), &got))

	want := config{
		Name:   "gura",
		Port:   8080,
		Ratio:  0.5,
		Debug:  true,
		Tags:   []string{"a", "b"},
		Limits: limits{MaxConns: 100, Timeout: 2.5},
	}
	assert.Equal(t, want, got)
}

func TestUnmarshalGenericValues(t *testing.T) {
	f := func(name, input string, want any) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			var got map[string]any
			require.NoError(t, Unmarshal([]byte(input), &got))
			assert.Equal(t, map[string]any{"k": want}, got)
		})
	}

	f("string", `k: "v"`, "v")
	f("int", "k: 5", int64(5))
	f("float", "k: 5.5", 5.5)
	f("bool", "k: true", true)
	f("null", "k: null", nil)
	f("list", "k: [1, 2]", []any{int64(1), int64(2)})
	f("object", "k:\n    a: 1", map[string]any{"a": int64(1)})
	f("empty_object", "k: empty", map[string]any{})
}

func TestUnmarshalDestinations(t *testing.T) {
	t.Run("into_any", func(t *testing.T) {
		var got any
		require.NoError(t, Unmarshal([]byte("a: 1"), &got))
		assert.Equal(t, map[string]any{"a": int64(1)}, got)
	})

	t.Run("into_value_preserves_order", func(t *testing.T) {
		var got Value
		require.NoError(t, Unmarshal([]byte("z: 1\na: 2"), &got))
		assert.Equal(t, []string{"z", "a"}, got.Obj.Keys())
	})

	t.Run("into_pointer_field", func(t *testing.T) {
		type cfg struct {
			Port *int `gura:"port"`
		}
		var got cfg
		require.NoError(t, Unmarshal([]byte("port: 80"), &got))
		require.NotNil(t, got.Port)
		assert.Equal(t, 80, *got.Port)
	})

	t.Run("null_zeroes_field", func(t *testing.T) {
		type cfg struct {
			Port *int `gura:"port"`
		}
		got := cfg{Port: new(int)}
		require.NoError(t, Unmarshal([]byte("port: null"), &got))
		assert.Nil(t, got.Port)
	})

	t.Run("into_big_int", func(t *testing.T) {
		type cfg struct {
			N big.Int `gura:"n"`
		}
		var got cfg
		require.NoError(t, Unmarshal([]byte("n: 99999999999999999999999999999"), &got))
		want, _ := new(big.Int).SetString("99999999999999999999999999999", 10)
		assert.Zero(t, got.N.Cmp(want))
	})

	t.Run("into_uint", func(t *testing.T) {
		var got struct {
			N uint16 `gura:"n"`
		}
		require.NoError(t, Unmarshal([]byte("n: 1024"), &got))
		assert.Equal(t, uint16(1024), got.N)
	})

	t.Run("whole_float_into_int", func(t *testing.T) {
		var got struct {
			N int `gura:"n"`
		}
		require.NoError(t, Unmarshal([]byte("n: 3.0"), &got))
		assert.Equal(t, 3, got.N)
	})
}

func TestUnmarshalErrors(t *testing.T) {
	t.Run("nil_destination", func(t *testing.T) {
		require.Error(t, Unmarshal([]byte("a: 1"), nil))
	})

	t.Run("non_pointer_destination", func(t *testing.T) {
		var got map[string]any
		require.Error(t, Unmarshal([]byte("a: 1"), got))
	})

	t.Run("string_into_int", func(t *testing.T) {
		var got struct {
			N int `gura:"n"`
		}
		require.Error(t, Unmarshal([]byte(`n: "five"`), &got))
	})

	t.Run("fractional_float_into_int", func(t *testing.T) {
		var got struct {
			N int `gura:"n"`
		}
		require.Error(t, Unmarshal([]byte("n: 3.5"), &got))
	})

	t.Run("negative_into_uint", func(t *testing.T) {
		var got struct {
			N uint `gura:"n"`
		}
		require.Error(t, Unmarshal([]byte("n: -1"), &got))
	})

	t.Run("int_overflow", func(t *testing.T) {
		var got struct {
			N int8 `gura:"n"`
		}
		require.Error(t, Unmarshal([]byte("n: 1000"), &got))
	})

	t.Run("syntax_error_surfaces", func(t *testing.T) {
		var got map[string]any
		err := Unmarshal([]byte("a: &"), &got)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 1:")
	})
}

func TestDecoder(t *testing.T) {
	var got struct {
		Name string `gura:"name"`
	}
	dec := NewDecoder(strings.NewReader(`name: "stream"`))
	require.NoError(t, dec.Decode(&got))
	assert.Equal(t, "stream", got.Name)
}
