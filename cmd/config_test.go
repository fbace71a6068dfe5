package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func TestConfigPathPrintsAResolvedPath(t *testing.T) {
	tmpDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", originalHome)

	viper.Reset()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := executeCmdArgs(rootCmd, "config", "path")

	w.Close()
	os.Stdout = old
	var out bytes.Buffer
	out.ReadFrom(r)

	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if out.Len() == 0 {
		t.Error("expected a path to be printed")
	}
}

func TestConfigShowPrintsTOML(t *testing.T) {
	viper.Reset()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := executeCmdArgs(rootCmd, "config", "show")

	w.Close()
	os.Stdout = old
	var out bytes.Buffer
	out.ReadFrom(r)

	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("seat0")) {
		t.Errorf("expected default seat name in output, got: %s", out.String())
	}
}

func executeCmdArgs(root *cobra.Command, args ...string) error {
	root.SetArgs(args)
	return root.Execute()
}
