package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	Version = "1.2.3"
	cmd := newRootCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "linkterm version: 1.2.3")
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"version", "console", "parse"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
	assert.NotNil(t, cmd.Flags().Lookup("relay"))
}
