package alembic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sashakt-platform/sashakt-ops/src/configs"
)

// fakeBackend simulates the backend container: it keeps an in-memory versions
// directory and answers alembic invocations against it.
type fakeBackend struct {
	files     map[string][]byte
	head      string
	execCalls [][]string
	nextRev   int
	current   string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{files: make(map[string][]byte)}
}

func versionBody(id, down string) []byte {
	d := "None"
	if down != "" {
		d = "'" + down + "'"
	}
	return []byte(fmt.Sprintf("\"\"\"test revision\"\"\"\n\nrevision = '%s'\ndown_revision = %s\n", id, d))
}

func (f *fakeBackend) addRevision(message string) string {
	f.nextRev++
	id := fmt.Sprintf("%012x", 0xabc000+f.nextRev)
	name := id + "_" + Slugify(message) + ".py"
	f.files[name] = versionBody(id, f.head)
	f.head = id
	return name
}

func (f *fakeBackend) Exec(ctx context.Context, service string, cmd ...string) ([]byte, error) {
	f.execCalls = append(f.execCalls, append([]string{service}, cmd...))

	switch {
	case len(cmd) >= 2 && cmd[0] == "alembic" && cmd[1] == "revision":
		name := f.addRevision(cmd[len(cmd)-1])
		return []byte("Generating /app/app/alembic/versions/" + name + " ...  done\n"), nil
	case len(cmd) >= 3 && cmd[0] == "alembic" && cmd[1] == "stamp" && cmd[2] == "base":
		f.head = ""
		return nil, nil
	case len(cmd) >= 2 && cmd[0] == "alembic" && cmd[1] == "current":
		return []byte(f.current + "\n"), nil
	case cmd[0] == "sh" && strings.Contains(strings.Join(cmd, " "), "rm -f"):
		f.files = make(map[string][]byte)
		return nil, nil
	}
	return nil, fmt.Errorf("unexpected command: %v", cmd)
}

func (f *fakeBackend) CopyFrom(ctx context.Context, service, containerPath, hostPath string) error {
	for name, body := range f.files {
		if err := os.WriteFile(filepath.Join(hostPath, name), body, 0644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeBackend) Inspect(ctx context.Context, service string) ([]byte, error) {
	return []byte(`[{"State":{"Running":true}}]`), nil
}

func (f *fakeBackend) EngineVersion(ctx context.Context) (string, error) {
	return "27.0.0", nil
}

func newTestManager(t *testing.T) (*Manager, *fakeBackend, string) {
	t.Helper()
	hostDir := t.TempDir()
	cfg := configs.NewConfig()
	cfg.Migrations.HostVersionsDir = hostDir
	backend := newFakeBackend()
	return NewManager(backend, cfg), backend, hostDir
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"add users table", "add_users_table"},
		{"Add Users Table!", "add_users_table"},
		{"fix: quiz-scoring (v2)", "fix_quiz_scoring_v2"},
		{"  spaces  everywhere  ", "spaces_everywhere"},
		{strings.Repeat("a", 60), strings.Repeat("a", 40)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.message), tt.message)
	}
}

func TestParseFilename(t *testing.T) {
	id, slug, ok := ParseFilename("e2412789c190_add_users_table.py")
	require.True(t, ok)
	assert.Equal(t, "e2412789c190", id)
	assert.Equal(t, "add_users_table", slug)

	_, _, ok = ParseFilename("__init__.py")
	assert.False(t, ok)
	_, _, ok = ParseFilename("notes.txt")
	assert.False(t, ok)
}

func TestParseSource(t *testing.T) {
	rev, err := ParseSource(versionBody("e2412789c190", ""))
	require.NoError(t, err)
	assert.Equal(t, "e2412789c190", rev.ID)
	assert.True(t, rev.IsBase())

	rev, err = ParseSource(versionBody("aaaaaaaaaaaa", "e2412789c190"))
	require.NoError(t, err)
	assert.Equal(t, "e2412789c190", rev.DownID)

	// Annotated attributes from newer alembic templates.
	annotated := []byte("revision: str = 'e2412789c190'\ndown_revision: str | None = None\n")
	rev, err = ParseSource(annotated)
	require.NoError(t, err)
	assert.Equal(t, "e2412789c190", rev.ID)
	assert.True(t, rev.IsBase())

	_, err = ParseSource([]byte("def upgrade(): pass\n"))
	assert.Error(t, err)
}

func writeVersion(t *testing.T, dir, message, id, down string) string {
	t.Helper()
	name := id + "_" + Slugify(message) + ".py"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), versionBody(id, down), 0644))
	return name
}

func TestLoadHistory(t *testing.T) {
	dir := t.TempDir()
	writeVersion(t, dir, "initial migration", "aaaaaaaaaaaa", "")
	writeVersion(t, dir, "add users", "bbbbbbbbbbbb", "aaaaaaaaaaaa")
	// Not a version file, must be skipped.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "__init__.py"), nil, 0644))

	h, err := LoadHistory(dir)
	require.NoError(t, err)
	require.Len(t, h.Revisions, 2)

	require.Len(t, h.Bases(), 1)
	assert.Equal(t, "aaaaaaaaaaaa", h.Bases()[0].ID)
	require.Len(t, h.Heads(), 1)
	assert.Equal(t, "bbbbbbbbbbbb", h.Heads()[0].ID)
	assert.Empty(t, h.Lint())
}

func TestHistoryLint(t *testing.T) {
	dir := t.TempDir()
	writeVersion(t, dir, "initial migration", "aaaaaaaaaaaa", "")
	// Two revisions claiming the same parent: branched history, two heads.
	writeVersion(t, dir, "add users", "bbbbbbbbbbbb", "aaaaaaaaaaaa")
	writeVersion(t, dir, "add quizzes", "cccccccccccc", "aaaaaaaaaaaa")
	// Parent nobody has.
	writeVersion(t, dir, "orphan", "dddddddddddd", "ffffffffffff")

	h, err := LoadHistory(dir)
	require.NoError(t, err)

	problems := strings.Join(h.Lint(), "\n")
	assert.Contains(t, problems, "missing parent revision ffffffffffff")
	assert.Contains(t, problems, "heads")
}

func TestGenerateRequiresMessage(t *testing.T) {
	m, backend, _ := newTestManager(t)

	_, err := m.Generate(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, backend.execCalls)
}

func TestGenerate(t *testing.T) {
	m, backend, _ := newTestManager(t)

	file, err := m.Generate(context.Background(), "add users table")
	require.NoError(t, err)
	assert.Contains(t, file, "add_users_table")
	assert.True(t, strings.HasSuffix(file, ".py"))

	require.Len(t, backend.execCalls, 1)
	assert.Equal(t, []string{"backend", "alembic", "revision", "--autogenerate", "-m", "add users table"},
		backend.execCalls[0])
}

func TestSync(t *testing.T) {
	m, backend, hostDir := newTestManager(t)

	// One revision already synced, one only in the container.
	first := backend.addRevision("initial migration")
	require.NoError(t, os.WriteFile(filepath.Join(hostDir, first), backend.files[first], 0644))
	second := backend.addRevision("add users table")

	added, err := m.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{second}, added)

	h, err := LoadHistory(hostDir)
	require.NoError(t, err)
	assert.Len(t, h.Revisions, 2)
	assert.Empty(t, h.Lint())
}

func TestSyncOverwritesStaleCopies(t *testing.T) {
	m, backend, hostDir := newTestManager(t)

	name := backend.addRevision("initial migration")
	require.NoError(t, os.WriteFile(filepath.Join(hostDir, name), []byte("stale"), 0644))

	added, err := m.Sync(context.Background())
	require.NoError(t, err)
	assert.Empty(t, added)

	data, err := os.ReadFile(filepath.Join(hostDir, name))
	require.NoError(t, err)
	assert.Equal(t, backend.files[name], data)
}

func TestReset(t *testing.T) {
	m, backend, hostDir := newTestManager(t)

	first := backend.addRevision("initial migration")
	second := backend.addRevision("add users table")
	require.NoError(t, os.WriteFile(filepath.Join(hostDir, first), backend.files[first], 0644))
	require.NoError(t, os.WriteFile(filepath.Join(hostDir, second), backend.files[second], 0644))

	baseline, err := m.Reset(context.Background())
	require.NoError(t, err)
	assert.Contains(t, baseline, "initial_migration")

	h, err := LoadHistory(hostDir)
	require.NoError(t, err)
	require.Len(t, h.Revisions, 1)
	assert.True(t, h.Revisions[0].IsBase())

	calls := make([]string, len(backend.execCalls))
	for i, c := range backend.execCalls {
		calls[i] = strings.Join(c, " ")
	}
	joined := strings.Join(calls, "\n")
	assert.Contains(t, joined, "rm -f")
	assert.Contains(t, joined, "alembic stamp base")
	assert.Contains(t, joined, "alembic revision --autogenerate")
}

func TestStatus(t *testing.T) {
	m, backend, hostDir := newTestManager(t)
	backend.current = "bbbbbbbbbbbb (head)"

	writeVersion(t, hostDir, "initial migration", "aaaaaaaaaaaa", "")
	writeVersion(t, hostDir, "add users", "bbbbbbbbbbbb", "aaaaaaaaaaaa")

	status, err := m.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bbbbbbbbbbbb (head)", status.Current)
	assert.Len(t, status.Files, 2)
	assert.Empty(t, status.Problems)
}
