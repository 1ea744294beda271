package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/inbound/cli"
)

func TestArchiveCommand_Help(t *testing.T) {
	cmd := cli.NewArchiveCmdForTest()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "--top-level-dir")
	assert.Contains(t, buf.String(), "vendor.tar.xz")
}

func TestArchiveCommand_Errors(t *testing.T) {
	badConfig := filepath.Join(t.TempDir(), "go-vendor-tools.toml")
	require.NoError(t, os.WriteFile(badConfig, []byte("[archive]\nunknown_key = 1\n"), 0o644))

	tests := map[string]struct {
		args []string
		want string
	}{
		"no path":           {args: nil, want: "accepts 1 arg"},
		"unsupported type":  {args: []string{".", "-O", "vendor.rar"}, want: "unsupported archive type"},
		"invalid config":    {args: []string{".", "-c", badConfig}, want: "unknown keys"},
		"conflicting proxy": {args: []string{".", "-p", "--no-use-module-proxy"}, want: "none of the others"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cmd := cli.NewArchiveCmdForTest()
			cmd.SetOut(new(bytes.Buffer))
			cmd.SetErr(new(bytes.Buffer))
			cmd.SetArgs(tt.args)
			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
