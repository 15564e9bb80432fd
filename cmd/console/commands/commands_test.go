package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"user-order-console/internal/apitest"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers and readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type CommandsSuite struct {
	suite.Suite
	srv *apitest.Server
	dir string
}

func TestCommandsSuite(t *testing.T) {
	suite.Run(t, new(CommandsSuite))
}

func (s *CommandsSuite) SetupTest() {
	s.srv = apitest.New(s.T())
	s.dir = s.T().TempDir()
	s.T().Setenv("REDIS_ENABLED", "false")
	s.T().Setenv("EXPORT_DIR", s.dir)
}

func (s *CommandsSuite) run(in io.Reader, args ...string) (string, error) {
	if in == nil {
		in = strings.NewReader("")
	}
	var out, errOut syncBuffer
	full := append([]string{"--api-url", s.srv.URL, "--config", s.dir}, args...)
	err := Run(context.Background(), full, in, &out, &errOut)
	return out.String(), err
}

func (s *CommandsSuite) TestHealth() {
	out, err := s.run(nil, "health")
	s.Require().NoError(err)
	s.Contains(out, "[ok] API is healthy at "+s.srv.URL)
}

func (s *CommandsSuite) TestHealth_Unreachable() {
	var out syncBuffer
	err := Run(context.Background(), []string{"--api-url", "http://127.0.0.1:1", "--config", s.dir, "health"},
		strings.NewReader(""), &out, io.Discard)

	s.Require().Error(err)
	s.True(IsReported(err))
	s.Contains(out.String(), "[error] API is unreachable")
}

func (s *CommandsSuite) TestUsersCreateAndList() {
	out, err := s.run(nil, "users", "create", "--name", " Ada Lovelace ", "--email", "ADA@example.com")
	s.Require().NoError(err)
	s.Contains(out, "[ok] User created")
	s.Contains(out, "#1 Ada Lovelace <ada@example.com>")

	out, err = s.run(nil, "users", "list", "--q", "ada")
	s.Require().NoError(err)
	s.Contains(out, "ada@example.com")
	s.Contains(out, "Page 1 of 1 — Total: 1")
	s.Contains(out, `Search: "ada"`)
}

func (s *CommandsSuite) TestUsersCreate_Failures() {
	_, err := s.run(nil, "users", "create", "--name", "Ada", "--email", "ada@example.com")
	s.Require().NoError(err)

	out, err := s.run(nil, "users", "create", "--name", "Ada", "--email", "ada@example.com")
	s.True(IsReported(err))
	s.Contains(out, "[error] email already exists")

	out, err = s.run(nil, "users", "create", "--name", "Ada", "--email", "nope")
	s.True(IsReported(err))
	s.Contains(out, "[error] Email must be a valid email")
	s.Len(s.srv.RequestsTo("POST", "/users"), 2, "invalid input never reaches the API")
}

func (s *CommandsSuite) TestUsersList_PageAndEmptyState() {
	ctx := context.Background()
	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		_, err := s.srv.Store.CreateUser(ctx, "User", email)
		s.Require().NoError(err)
	}

	out, err := s.run(nil, "users", "list", "--limit", "2", "--page", "3")
	s.Require().NoError(err)
	s.Contains(out, "No results")
	s.Contains(out, "Page 3 of 2 — Total: 3")
}

func (s *CommandsSuite) TestUsersList_ServerError() {
	s.srv.SetFault("GET", "/users", apitest.Fault{Status: 500})

	out, err := s.run(nil, "users", "list")
	s.Require().Error(err)
	s.True(IsReported(err))
	s.Contains(out, "! Could not load the users list.")
}

func (s *CommandsSuite) TestUserOrders() {
	ctx := context.Background()
	u, err := s.srv.Store.CreateUser(ctx, "Ada", "ada@example.com")
	s.Require().NoError(err)
	_, err = s.srv.Store.CreateOrder(ctx, u.ID, "Pen", 5)
	s.Require().NoError(err)

	out, err := s.run(nil, "users", "orders", "1")
	s.Require().NoError(err)
	s.Contains(out, "Pen")
	s.Contains(out, "5.00")
	s.Contains(out, "Total: 1")

	out, err = s.run(nil, "users", "orders", "99")
	s.True(IsReported(err))
	s.Contains(out, "[error] user not found")

	s.srv.SetFault("GET", "/users/7/orders", apitest.Fault{Status: 404})
	out, err = s.run(nil, "users", "orders", "7")
	s.True(IsReported(err))
	s.Contains(out, "[error] User #7 not found")

	_, err = s.run(nil, "users", "orders", "abc")
	s.Require().Error(err)
	s.False(IsReported(err))
}

func (s *CommandsSuite) TestOrdersCreate() {
	_, err := s.srv.Store.CreateUser(context.Background(), "Ada", "ada@example.com")
	s.Require().NoError(err)

	out, err := s.run(nil, "orders", "create", "--product", "Pen", "--amount", "5")
	s.True(IsReported(err))
	s.Contains(out, "Select a user with --user:")
	s.Contains(out, "Ada — ada@example.com")
	s.Contains(out, "[error] User must be selected")

	out, err = s.run(nil, "orders", "create", "--user", "1", "--product", " Pen ", "--amount", "5,00")
	s.Require().NoError(err)
	s.Contains(out, "[ok] Order created")
	s.Contains(out, "#1 Pen 5.00")

	reqs := s.srv.RequestsTo("POST", "/orders")
	s.Require().Len(reqs, 1)
	s.JSONEq(`{"user_id":1,"product_name":"Pen","amount":5}`, string(reqs[0].Body))

	out, err = s.run(nil, "orders", "list")
	s.Require().NoError(err)
	s.Contains(out, "Ada <ada@example.com>")
}

func (s *CommandsSuite) TestExportAndImport() {
	ctx := context.Background()
	_, err := s.srv.Store.CreateUser(ctx, "Ada", "ada@example.com")
	s.Require().NoError(err)

	exportDir := s.T().TempDir()
	out, err := s.run(nil, "export", "users", "all", "--dir", exportDir)
	s.Require().NoError(err)
	s.Contains(out, "[ok] Users exported")
	s.Contains(out, "[ok] Data exported")

	files, err := filepath.Glob(filepath.Join(exportDir, "users-*.json"))
	s.Require().NoError(err)
	s.Require().Len(files, 1)
	s.Contains(out, files[0]+" (")

	out, err = s.run(nil, "import", "users", files[0])
	s.Require().NoError(err)
	s.Contains(out, "[ok] Imported: 0, skipped: 1")

	bad := filepath.Join(s.T().TempDir(), "bad.json")
	s.Require().NoError(os.WriteFile(bad, []byte("{nope"), 0o644))
	out, err = s.run(nil, "import", "users", bad)
	s.True(IsReported(err))
	s.Contains(out, "[error] Invalid JSON or import failed")

	_, err = s.run(nil, "import", "all", bad)
	s.Require().Error(err)
	s.False(IsReported(err))

	_, err = s.run(nil, "export", "products")
	s.ErrorContains(err, `unknown entity "products"`)
}

func (s *CommandsSuite) TestInvalidConfig() {
	var out syncBuffer
	err := Run(context.Background(), []string{"--api-url", "not a url", "--config", s.dir, "health"},
		strings.NewReader(""), &out, io.Discard)

	s.Require().Error(err)
	s.False(IsReported(err))
	s.ErrorContains(err, "API_BASE_URL")
}

func TestBrowse(t *testing.T) {
	srv := apitest.New(t)
	ctx := context.Background()
	for _, u := range []struct{ name, email string }{
		{"Ada", "ada@example.com"},
		{"Alan", "alan@example.com"},
		{"Grace", "grace@example.com"},
	} {
		_, err := srv.Store.CreateUser(ctx, u.name, u.email)
		require.NoError(t, err)
	}
	dir := t.TempDir()
	t.Setenv("SEARCH_DEBOUNCE_MS", "20")
	t.Setenv("REDIS_ENABLED", "false")

	importFile := filepath.Join(dir, "import.json")
	require.NoError(t, os.WriteFile(importFile, []byte(`{"items":[{"name":"Linus","email":"linus@example.com"}]}`), 0o644))

	in, feed := io.Pipe()
	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, []string{"--api-url", srv.URL, "--config", dir, "browse", "users", "--limit", "2"}, in, &out, io.Discard)
	}()

	send := func(line string) {
		_, err := io.WriteString(feed, line+"\n")
		require.NoError(t, err)
	}
	waitFor := func(text string) {
		require.Eventually(t, func() bool { return strings.Contains(out.String(), text) }, 2*time.Second, 5*time.Millisecond,
			"missing %q in output:\n%s", text, out.String())
	}

	waitFor("Page 1 of 2 — Total: 3")
	send("n")
	waitFor("Page 2 of 2 — Total: 3")
	send("p")
	send("/gra")
	waitFor(`Search: "gra"`)
	waitFor("Page 1 of 1 — Total: 1")
	send("/")
	send("i " + importFile)
	waitFor("[ok] Imported: 1, skipped: 0")
	waitFor("Page 1 of 2 — Total: 4")
	send("help")
	waitFor(browseHelp)
	send("q")

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("browse did not exit")
	}
	_ = feed.Close()
}

func TestBrowse_OneImportAtATime(t *testing.T) {
	srv := apitest.New(t)
	srv.SetFault("POST", "/import/users", apitest.Fault{Delay: 300 * time.Millisecond})
	dir := t.TempDir()
	t.Setenv("REDIS_ENABLED", "false")

	importFile := filepath.Join(dir, "import.json")
	require.NoError(t, os.WriteFile(importFile, []byte(`[{"name":"Linus","email":"linus@example.com"}]`), 0o644))

	in, feed := io.Pipe()
	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), []string{"--api-url", srv.URL, "--config", dir, "browse", "users"}, in, &out, io.Discard)
	}()
	send := func(line string) {
		_, err := io.WriteString(feed, line+"\n")
		require.NoError(t, err)
	}
	waitFor := func(text string) {
		require.Eventually(t, func() bool { return strings.Contains(out.String(), text) }, 2*time.Second, 5*time.Millisecond,
			"missing %q in output:\n%s", text, out.String())
	}

	waitFor("Total: 0")
	send("i " + importFile)
	send("i " + importFile)
	waitFor("a transfer is already running")
	waitFor("[ok] Imported: 1, skipped: 0")
	waitFor("Total: 1")
	send("q")

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("browse did not exit")
	}
	_ = feed.Close()
	assert.Len(t, srv.RequestsTo("POST", "/import/users"), 1)
}
