package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubcommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"import", "assign", "notify", "automate", "serve"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestImportRequiresCSVFlag(t *testing.T) {
	flag := importCmd.Flags().Lookup("csv")
	assert.NotNil(t, flag)
}
