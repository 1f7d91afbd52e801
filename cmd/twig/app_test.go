package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twig/internal/logging"
)

type harness struct {
	t   *testing.T
	dir string
}

func newHarness(t *testing.T) *harness {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TWIG_LOG_LEVEL", "")
	return &harness{t: t, dir: t.TempDir()}
}

func (h *harness) run(args ...string) (stdout, stderr string, code int) {
	var out, errOut bytes.Buffer
	a := &app{stdout: &out, stderr: &errOut, cwd: h.dir, logger: logging.Nop()}
	code = a.execute(context.Background(), args)
	return out.String(), errOut.String(), code
}

// ok runs a command that must succeed and returns its stdout.
func (h *harness) ok(args ...string) string {
	out, stderr, code := h.run(args...)
	require.Equal(h.t, 0, code, "twig %v: %s", args, stderr)
	return out
}

func (h *harness) write(name, content string) {
	path := filepath.Join(h.dir, name)
	require.NoError(h.t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0644))
}

func (h *harness) read(name string) string {
	data, err := os.ReadFile(filepath.Join(h.dir, name))
	require.NoError(h.t, err)
	return string(data)
}

func TestDispatchMessages(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no command", nil, "Please enter a command.\n"},
		{"unknown command", []string{"frobnicate"}, "No command with that name exists.\n"},
		{"missing operand", []string{"add"}, "Incorrect operands.\n"},
		{"extra operand", []string{"log", "x"}, "Incorrect operands.\n"},
		{"unknown flag", []string{"status", "--bogus"}, "Incorrect operands.\n"},
		{"not initialized", []string{"status"}, "Not in an initialized twig directory.\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, code := h.run(tt.args...)
			assert.Equal(t, 0, code)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestInitTwice(t *testing.T) {
	h := newHarness(t)
	assert.Empty(t, h.ok("init"))
	assert.Equal(t, "A twig repository already exists in the current directory.\n", h.ok("init"))
}

func TestStatusOutput(t *testing.T) {
	h := newHarness(t)
	h.ok("init")
	h.write("a.txt", "a")
	h.write("b.txt", "b")
	h.ok("add", "a.txt")
	h.ok("add", "b.txt")
	h.ok("commit", "two files")

	h.write("a.txt", "changed")
	require.NoError(t, os.Remove(filepath.Join(h.dir, "b.txt")))
	h.write("c.txt", "c")
	h.write("notes.txt", "n")
	h.ok("add", "c.txt")
	h.ok("branch", "dev")

	want := strings.Join([]string{
		"=== Branches ===",
		"dev",
		"*master",
		"",
		"=== Staged Files ===",
		"c.txt",
		"",
		"=== Removed Files ===",
		"",
		"=== Modifications Not Staged For Commit ===",
		"a.txt (modified)",
		"b.txt (deleted)",
		"",
		"=== Untracked Files ===",
		"notes.txt",
		"",
		"",
	}, "\n")
	assert.Equal(t, want, h.ok("status"))
}

func TestCommitMessages(t *testing.T) {
	h := newHarness(t)
	h.ok("init")

	assert.Equal(t, "No changes added to the commit.\n", h.ok("commit", "nothing"))

	h.write("f.txt", "f")
	h.ok("add", "f.txt")
	assert.Equal(t, "Please enter a commit message.\n", h.ok("commit"))
	assert.Equal(t, "Please enter a commit message.\n", h.ok("commit", "  "))
	assert.Equal(t, "Incorrect operands.\n", h.ok("commit", "a", "b"))
	assert.Empty(t, h.ok("commit", "add f"))
}

func TestLogAndFind(t *testing.T) {
	h := newHarness(t)
	h.ok("init")
	h.write("f.txt", "1")
	h.ok("add", "f.txt")
	h.ok("commit", "first")

	log := h.ok("log")
	entries := strings.Split(strings.TrimSuffix(log, "\n\n"), "\n\n")
	require.Len(t, entries, 2)
	assert.Regexp(t, regexp.MustCompile(`^===\ncommit [0-9a-f]{64}\nDate: .+\nfirst$`), entries[0])
	assert.True(t, strings.HasSuffix(entries[1], "\ninitial commit"))

	id := strings.TrimSpace(h.ok("find", "first"))
	assert.Contains(t, entries[0], "commit "+id+"\n")
	assert.Equal(t, "Found no commit with that message.\n", h.ok("find", "missing"))

	assert.Equal(t, log, h.ok("global-log"))
}

func TestCheckoutForms(t *testing.T) {
	h := newHarness(t)
	h.ok("init")
	h.write("f.txt", "v1")
	h.ok("add", "f.txt")
	h.ok("commit", "v1")
	first := strings.TrimSpace(h.ok("find", "v1"))

	h.write("f.txt", "v2")
	h.ok("add", "f.txt")
	h.ok("commit", "v2")

	h.write("f.txt", "scratch")
	assert.Empty(t, h.ok("checkout", "--", "f.txt"))
	assert.Equal(t, "v2", h.read("f.txt"))

	assert.Empty(t, h.ok("checkout", first[:8], "--", "f.txt"))
	assert.Equal(t, "v1", h.read("f.txt"))

	assert.Equal(t, "No such branch exists.\n", h.ok("checkout", "nope"))
	assert.Equal(t, "No need to checkout the current branch.\n", h.ok("checkout", "master"))
	assert.Equal(t, "Incorrect operands.\n", h.ok("checkout", "a", "b"))
	assert.Equal(t, "Incorrect operands.\n", h.ok("checkout", "a", "--", "b", "c"))
	assert.Equal(t, "No commit with that id exists.\n", h.ok("checkout", "deadbeef", "--", "f.txt"))
}

func TestBranchMergeFlow(t *testing.T) {
	h := newHarness(t)
	h.ok("init")
	h.write("f.txt", "base")
	h.ok("add", "f.txt")
	h.ok("commit", "base")

	h.ok("branch", "dev")
	assert.Equal(t, "A branch with that name already exists.\n", h.ok("branch", "dev"))
	h.ok("checkout", "dev")
	h.write("f.txt", "dev")
	h.ok("add", "f.txt")
	h.ok("commit", "on dev")
	h.ok("checkout", "master")
	assert.Equal(t, "base", h.read("f.txt"))

	assert.Equal(t, "Cannot merge a branch with itself.\n", h.ok("merge", "master"))
	assert.Equal(t, "Current branch fast-forwarded.\n", h.ok("merge", "dev"))
	assert.Equal(t, "dev", h.read("f.txt"))
	assert.Equal(t, "Given branch is an ancestor of the current branch.\n", h.ok("merge", "dev"))

	h.ok("checkout", "dev")
	h.write("f.txt", "theirs")
	h.ok("add", "f.txt")
	h.ok("commit", "theirs")
	h.ok("checkout", "master")
	h.write("f.txt", "ours")
	h.ok("add", "f.txt")
	h.ok("commit", "ours")

	assert.Equal(t, "Encountered a merge conflict.\n", h.ok("merge", "dev"))
	assert.Equal(t, "<<<<<<< HEAD\nours=======\ntheirs>>>>>>>", h.read("f.txt"))

	assert.Equal(t, "Cannot remove the current branch.\n", h.ok("rm-branch", "master"))
	assert.Empty(t, h.ok("rm-branch", "dev"))
	assert.Equal(t, "A branch with that name does not exist.\n", h.ok("merge", "dev"))
}

func TestDiffOutput(t *testing.T) {
	h := newHarness(t)
	h.ok("init")
	h.write("f.txt", "one\ntwo\n")
	h.ok("add", "f.txt")
	h.ok("commit", "f")

	assert.Empty(t, h.ok("diff"))

	h.write("f.txt", "one\n2\n")
	out := h.ok("diff", "f.txt")
	assert.Contains(t, out, "diff a/f.txt b/f.txt\n")
	assert.Contains(t, out, "-two\n")
	assert.Contains(t, out, "+2\n")
}

func TestFatalError(t *testing.T) {
	h := newHarness(t)
	h.ok("init")
	h.write(".twig/config.json", `{"color": "sometimes"}`)

	out, stderr, code := h.run("status")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.True(t, strings.HasPrefix(stderr, "fatal: "), stderr)
}
