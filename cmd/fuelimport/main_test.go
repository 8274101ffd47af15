package main

import (
	"bytes"
	"strings"
	"testing"
)

// The root command silences cobra's own error printing, so Execute must
// return the error for main to report on stderr.
func TestExecuteSurfacesErrors(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"no-such-command"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown command")
	}
	if !strings.Contains(err.Error(), "no-such-command") {
		t.Errorf("Execute() error = %q, want it to name the unknown command", err)
	}
	if out.Len() != 0 {
		t.Errorf("Execute() printed %q, want the caller to own error output", out.String())
	}
}
