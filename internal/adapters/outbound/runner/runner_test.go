package runner_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/runner"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner_CapturesStdout(t *testing.T) {
	out, err := runner.New().Run(context.Background(), domain.Command{Name: "sh", Args: []string{"-c", "echo hello"}})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))
}

func TestExecRunner_StdinEnvAndDir(t *testing.T) {
	dir := t.TempDir()
	out, err := runner.New().Run(context.Background(), domain.Command{
		Name:  "sh",
		Args:  []string{"-c", `cat; printf '%s %s' "$GREETING" "$(pwd)"`},
		Dir:   dir,
		Env:   []string{"GREETING=hi"},
		Stdin: "a\nb\n",
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), "a\nb\nhi ")
}

func TestExecRunner_Streams(t *testing.T) {
	var buf bytes.Buffer
	out, err := runner.New().Run(context.Background(), domain.Command{
		Name:   "sh",
		Args:   []string{"-c", "echo streamed"},
		Stdout: &buf,
	})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, "streamed\n", buf.String())
}

func TestExecRunner_ExitError(t *testing.T) {
	_, err := runner.New().Run(context.Background(), domain.Command{
		Name: "sh",
		Args: []string{"-c", "echo broken >&2; exit 3"},
	})
	var exitErr *runner.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode)
	assert.Equal(t, "broken", exitErr.Stderr)
	assert.Contains(t, err.Error(), "broken")
}

func TestExecRunner_Timeout(t *testing.T) {
	r := runner.New(runner.WithTimeout(50 * time.Millisecond))
	_, err := r.Run(context.Background(), domain.Command{Name: "sleep", Args: []string{"5"}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecRunner_LookPath(t *testing.T) {
	r := runner.New()
	_, err := r.LookPath("sh")
	assert.NoError(t, err)
	_, err = r.LookPath("definitely-not-a-real-binary-name")
	assert.Error(t, err)
}

func TestCommand_String(t *testing.T) {
	c := domain.Command{Name: "askalono", Args: []string{"--format", "json", "a b"}}
	assert.Equal(t, `askalono --format json "a b"`, c.String())
}
