package gura

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariables(t *testing.T) {
	f := func(name, input string, want Value) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			got, err := Parse(input)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "want %s, got %s", want, got)
		})
	}

	f("string_interpolation",
		"$name: \"Ada\"\nkey: \"$name Lovelace\"",
		doc("key", StringValue("Ada Lovelace")))
	f("bare_reference_keeps_type",
		"$port: 8080\nport: $port",
		doc("port", IntValue(8080)))
	f("float_variable",
		"$ratio: 3.5\nratio: $ratio",
		doc("ratio", FloatValue(3.5)))
	f("variable_from_variable",
		"$a: 1\n$b: $a\nc: $b",
		doc("c", IntValue(1)))
	f("escaped_dollar_is_not_a_variable",
		`key: "\$name"`,
		doc("key", StringValue("$name")))
	f("literal_string_never_interpolates",
		"key: '$name'",
		doc("key", StringValue("$name")))
	f("interpolation_formats_numbers",
		"$num: 13.4\nkey: \"value: $num\"",
		doc("key", StringValue("value: 13.4")))

	// Variables never appear in the parsed tree.
	f("definitions_leave_no_keys",
		"$hidden: 1\nvisible: 2",
		doc("visible", IntValue(2)))
}

func TestVariableEnvFallback(t *testing.T) {
	t.Setenv("GURA_TEST_TOKEN", "s3cret")

	t.Run("bare_reference", func(t *testing.T) {
		got, err := Parse("token: $GURA_TEST_TOKEN")
		require.NoError(t, err)
		v, _ := got.Obj.Get("token")
		assert.Equal(t, StringValue("s3cret"), v)
	})

	t.Run("interpolated", func(t *testing.T) {
		got, err := Parse(`header: "Bearer $GURA_TEST_TOKEN"`)
		require.NoError(t, err)
		v, _ := got.Obj.Get("header")
		assert.Equal(t, "Bearer s3cret", v.Str)
	})

	t.Run("document_variable_wins", func(t *testing.T) {
		got, err := Parse("$GURA_TEST_TOKEN: \"local\"\ntoken: $GURA_TEST_TOKEN")
		require.NoError(t, err)
		v, _ := got.Obj.Get("token")
		assert.Equal(t, "local", v.Str)
	})

	// Environment values are always strings, even when numeric.
	t.Setenv("GURA_TEST_PORT", "8080")
	t.Run("env_value_is_a_string", func(t *testing.T) {
		got, err := Parse("port: $GURA_TEST_PORT")
		require.NoError(t, err)
		v, _ := got.Obj.Get("port")
		assert.Equal(t, String, v.Kind)
		assert.Equal(t, "8080", v.Str)
	})
}

func TestVariableErrors(t *testing.T) {
	f := func(name, input string, kind ErrorKind) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			_, err := Parse(input)
			require.Error(t, err)
			var perr *Error
			require.True(t, errors.As(err, &perr), "expected *Error, got %T", err)
			assert.Equal(t, kind, perr.Kind)
		})
	}

	f("duplicated_variable", "$a: 1\n$a: 2", DuplicatedVariableError)
	f("undefined_bare_reference", "key: $gura_surely_not_defined", VariableNotDefinedError)
	f("undefined_in_string", `key: "$gura_surely_not_defined"`, VariableNotDefinedError)
	f("undefined_in_definition", "$a: $gura_surely_not_defined", VariableNotDefinedError)
	f("boolean_variable_is_invalid", "$flag: true\nkey: 1", SyntaxError)
	f("object_variable_is_invalid", "$obj:\n    a: 1", SyntaxError)
}
