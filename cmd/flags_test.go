package cmd

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalFlag(t *testing.T) {
	var amount decimal.Decimal

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	decimalVar(fs, &amount, "monto", decimal.RequireFromString("0.15"), "amount")

	assert.Equal(t, "0.15", fs.Lookup("monto").DefValue)
	assert.Equal(t, "decimal", fs.Lookup("monto").Value.Type())

	require.NoError(t, fs.Parse([]string{"--monto", "1250.50"}))
	assert.True(t, amount.Equal(decimal.RequireFromString("1250.5")))

	assert.Error(t, fs.Parse([]string{"--monto", "mil"}))
}

func TestCommandTree(t *testing.T) {
	want := map[string][]string{
		"serve":    nil,
		"service":  nil,
		"sync":     nil,
		"sheets":   {"fetch", "show"},
		"clients":  {"add", "list"},
		"credits":  {"add", "list"},
		"payments": {"add", "list"},
		"calc":     {"weekly", "commission"},
		"report":   {"delinquent"},
		"users":    {"add", "list"},
		"config":   {"show", "reset", "refresh", "path"},
		"store":    {"count", "list", "clear", "version"},
	}

	root := GetRootCmd()

	for name, subs := range want {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())

		for _, sub := range subs {
			found, _, err := root.Find([]string{name, sub})
			require.NoError(t, err, name+" "+sub)
			assert.Equal(t, sub, found.Name())
		}
	}
}
