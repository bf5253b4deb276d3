package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdudkov/geogate/internal/api"
	"github.com/kdudkov/geogate/internal/common"
	"github.com/kdudkov/geogate/internal/config"
	"github.com/kdudkov/geogate/internal/database"
	"github.com/kdudkov/geogate/internal/gateapi"
	"github.com/kdudkov/geogate/internal/store"
	"github.com/kdudkov/geogate/pkg/model"
)

type testApp struct {
	*App
	buf *bytes.Buffer
}

func newTestApp(t *testing.T, open bool) *testApp {
	t.Helper()

	db, err := database.GetDatabase(":memory:", false)
	require.NoError(t, err)

	dbm := database.New(db)
	require.NoError(t, dbm.Migrate())
	require.NoError(t, dbm.CreateUser(&model.User{ID: "A", DisplayName: "Alice"}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	a := api.New(dbm, nil)

	go func() {
		_ = a.Listener(ln)
	}()

	t.Cleanup(func() {
		_ = a.Shutdown(context.Background())
	})

	cfg := config.NewAppConfig()
	cfg.Set("gate.open", open)

	buf := new(bytes.Buffer)

	return &testApp{
		App: NewApp(store.NewHTTPStore("http://"+ln.Addr().String(), time.Second*3), cfg, buf),
		buf: buf,
	}
}

// run returns the command output.
func (app *testApp) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	app.buf.Reset()
	err := app.Run(context.Background(), args)

	return strings.TrimSpace(app.buf.String()), err
}

func TestJoinFlow(t *testing.T) {
	app := newTestApp(t, false)

	code, err := app.run(t, "issue", "A")
	require.NoError(t, err)
	require.Len(t, code, 12)

	out, err := app.run(t, "lookup", code)
	require.NoError(t, err)
	assert.Equal(t, code+" issued by A", out)

	out, err = app.run(t, "join", code, "B", "Bob", "Jones")
	require.NoError(t, err)
	assert.Equal(t, "B: admitted", out)

	out, err = app.run(t, "check", "B")
	require.NoError(t, err)
	assert.Equal(t, "B is authorized", out)

	_, err = app.run(t, "join", code, "C")
	require.ErrorIs(t, err, common.ErrInvalidCode)

	out, err = app.run(t, "check", "C")
	require.NoError(t, err)
	assert.Equal(t, "C is not authorized", out)

	out, err = app.run(t, "stats")
	require.NoError(t, err)
	assert.Equal(t, "authorized: 2\nactive codes: 0\nredeemed codes: 1", out)
}

func TestIssueByStranger(t *testing.T) {
	app := newTestApp(t, false)

	_, err := app.run(t, "issue", "X")
	require.ErrorIs(t, err, common.ErrUnauthorizedIssuer)
	assert.Equal(t, "only authorized users can issue invitations", message(err))
}

func TestOpen(t *testing.T) {
	app := newTestApp(t, false)

	_, err := app.run(t, "open", "B")
	require.ErrorIs(t, err, gateapi.ErrOpenDisabled)

	app = newTestApp(t, true)

	out, err := app.run(t, "open", "B", "Bob")
	require.NoError(t, err)
	assert.Equal(t, "B: admitted", out)

	out, err = app.run(t, "open", "B", "Bob")
	require.NoError(t, err)
	assert.Equal(t, "B: already_authorized", out)
}

func TestBadArgs(t *testing.T) {
	app := newTestApp(t, false)

	for _, args := range [][]string{nil, {"check"}, {"join", "code"}, {"issue", "a", "b"}, {"whatever"}} {
		_, err := app.run(t, args...)
		require.ErrorIs(t, err, errUsage, args)
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "the invitation code is not valid", message(common.ErrInvalidCode))
	assert.Equal(t, "authorization server is unavailable, try later", message(common.ErrStoreUnavailable))
	assert.Equal(t, "authorization server rejected the store credentials",
		message(fmt.Errorf("%w: %w", common.ErrStoreUnavailable, common.ErrStoreAuth)))
}

func TestWrongStoreCredentials(t *testing.T) {
	db, err := database.GetDatabase(":memory:", false)
	require.NoError(t, err)

	dbm := database.New(db)
	require.NoError(t, dbm.Migrate())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	a := api.New(dbm, &api.Config{Auth: staticAuth{"gate": "secret"}})

	go func() {
		_ = a.Listener(ln)
	}()

	t.Cleanup(func() {
		_ = a.Shutdown(context.Background())
	})

	s := store.NewHTTPStore("http://"+ln.Addr().String(), time.Second*3).WithAuth("gate", "wrong")
	app := NewApp(s, config.NewAppConfig(), new(bytes.Buffer))

	err = app.Run(context.Background(), []string{"check", "A"})
	require.ErrorIs(t, err, common.ErrStoreAuth)
	assert.Equal(t, "authorization server rejected the store credentials", message(err))
}

func TestIssued(t *testing.T) {
	app := newTestApp(t, false)

	c1, err := app.run(t, "issue", "A")
	require.NoError(t, err)
	c2, err := app.run(t, "issue", "A")
	require.NoError(t, err)

	out, err := app.run(t, "issued", "A")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.ElementsMatch(t, []string{c1 + " issued by A", c2 + " issued by A"}, lines)

	out, err = app.run(t, "issued", "X")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestServe(t *testing.T) {
	app := newTestApp(t, false)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- app.serve(ctx, ln)
	}()

	base := "http://" + ln.Addr().String()

	var resp *http.Response

	require.Eventually(t, func() bool {
		resp, err = http.Get(base + "/check/A")
		return err == nil
	}, time.Second*3, time.Millisecond*20)

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var check gateapi.CheckResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&check))
	resp.Body.Close()
	assert.True(t, check.Authorized)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)

	b, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(b), "geogate_gate_cached_principals 1")

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second * 6):
		t.Fatal("serve did not stop")
	}
}

type staticAuth map[string]string

func (a staticAuth) CheckAuth(login, password string) bool {
	p, ok := a[login]
	return ok && p == password
}
