package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdudkov/geogate/internal/database"
	"github.com/kdudkov/geogate/pkg/model"
)

type staticAuth map[string]string

func (a staticAuth) CheckAuth(login, password string) bool {
	p, ok := a[login]
	return ok && p == password
}

type testAPI struct {
	*StoreAPI
	login, passw string
}

func newTestAPI(t *testing.T, auth Authorizer) *testAPI {
	t.Helper()

	db, err := database.GetDatabase(":memory:", false)
	require.NoError(t, err)

	dbm := database.New(db)
	require.NoError(t, dbm.Migrate())

	return &testAPI{StoreAPI: New(dbm, &Config{Auth: auth})}
}

func (a *testAPI) Req(method, url string, body any) *http.Response {
	var r io.Reader

	if body != nil {
		d, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}

		r = bytes.NewReader(d)
	}

	req := httptest.NewRequest(method, url, r)
	req.Header.Add(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	if a.login != "" {
		req.SetBasicAuth(a.login, a.passw)
	}

	resp, err := a.App().Test(req, 3000)
	if err != nil {
		panic(err)
	}

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	defer resp.Body.Close()

	var res T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))

	return res
}

func TestUsers(t *testing.T) {
	a := newTestAPI(t, nil)

	resp := a.Req(http.MethodPost, "/users", &model.UserDTO{ID: "alice", DisplayName: "Alice"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = a.Req(http.MethodPost, "/users", &model.UserDTO{ID: "alice", DisplayName: "Other"})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = a.Req(http.MethodGet, "/users/alice", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	u := decode[*model.UserDTO](t, resp)
	assert.Equal(t, "Alice", u.DisplayName)
	assert.False(t, u.GrantedAt.IsZero())

	resp = a.Req(http.MethodGet, "/users/bob", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = a.Req(http.MethodGet, "/users", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]*model.UserDTO](t, resp), 1)
}

func TestUserEscapedID(t *testing.T) {
	a := newTestAPI(t, nil)

	resp := a.Req(http.MethodPost, "/users", &model.UserDTO{ID: "carol smith"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = a.Req(http.MethodGet, "/users/carol%20smith", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestBadRequests(t *testing.T) {
	a := newTestAPI(t, nil)

	for _, url := range []string{"/users", "/invitations"} {
		req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader([]byte("{not json")))
		resp, err := a.App().Test(req, 3000)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, url)
	}

	resp := a.Req(http.MethodPost, "/users", &model.UserDTO{DisplayName: "no id"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = a.Req(http.MethodPost, "/invitations", &model.InvitationDTO{IssuedBy: "alice"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestInvitations(t *testing.T) {
	a := newTestAPI(t, nil)

	issued := &model.InvitationDTO{Code: "K1", IssuedBy: "alice", IssuedAt: time.Now()}

	resp := a.Req(http.MethodPost, "/invitations", issued)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = a.Req(http.MethodPost, "/invitations", issued)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	at := time.Now()
	redeem := &model.InvitationDTO{Code: "K1", Redeemed: true, RedeemedBy: "bob", RedeemedAt: &at}

	resp = a.Req(http.MethodPost, "/invitations", &model.InvitationDTO{Code: "K9", Redeemed: true, RedeemedBy: "bob"})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = a.Req(http.MethodPost, "/invitations", redeem)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	i := decode[*model.InvitationDTO](t, resp)
	assert.True(t, i.Redeemed)
	assert.Equal(t, "bob", i.RedeemedBy)
	assert.Equal(t, "alice", i.IssuedBy)

	redeem.RedeemedBy = "carol"
	resp = a.Req(http.MethodPost, "/invitations", redeem)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = a.Req(http.MethodGet, "/invitations/K1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "bob", decode[*model.InvitationDTO](t, resp).RedeemedBy)

	resp = a.Req(http.MethodGet, "/invitations/K9", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = a.Req(http.MethodPost, "/invitations", &model.InvitationDTO{Code: "K2", IssuedBy: "alice"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = a.Req(http.MethodGet, "/invitations", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	all := decode[map[string]*model.InvitationDTO](t, resp)
	require.Len(t, all, 2)
	assert.True(t, all["K1"].Redeemed)
	assert.False(t, all["K2"].Redeemed)
}

func TestInvitationsIssuedBy(t *testing.T) {
	a := newTestAPI(t, nil)

	require.NoError(t, a.dbm.CreateInvitation(&model.Invitation{Code: "K1", IssuedBy: "alice"}))
	require.NoError(t, a.dbm.CreateInvitation(&model.Invitation{Code: "K2", IssuedBy: "bob"}))
	require.NoError(t, a.dbm.CreateInvitation(&model.Invitation{Code: "K3", IssuedBy: "alice"}))

	resp := a.Req(http.MethodGet, "/invitations?issued_by=alice", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	own := decode[map[string]*model.InvitationDTO](t, resp)
	require.Len(t, own, 2)
	assert.Contains(t, own, "K1")
	assert.Contains(t, own, "K3")

	resp = a.Req(http.MethodGet, "/invitations?issued_by=carol", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[map[string]*model.InvitationDTO](t, resp))
}

func TestAuth(t *testing.T) {
	a := newTestAPI(t, staticAuth{"gate": "secret"})

	resp := a.Req(http.MethodGet, "/users", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	a.login, a.passw = "gate", "wrong"
	resp = a.Req(http.MethodGet, "/users", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	a.passw = "secret"
	resp = a.Req(http.MethodGet, "/users", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	a := newTestAPI(t, staticAuth{"gate": "secret"})

	require.NoError(t, a.dbm.CreateUser(&model.User{ID: "alice"}))
	require.NoError(t, a.dbm.CreateInvitation(&model.Invitation{Code: "K1", IssuedBy: "alice"}))

	resp := a.Req(http.MethodGet, "/metrics", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(b), "geogate_users 1")
	assert.Contains(t, string(b), `geogate_invitations{state="active"} 1`)
	assert.Contains(t, string(b), `geogate_invitations{state="redeemed"} 0`)
}

func TestEventsPublished(t *testing.T) {
	a := newTestAPI(t, nil)

	ch := make(chan *model.Event, 10)
	a.Events().Subscribe("test", func(evt *model.Event) bool {
		ch <- evt
		return true
	})

	resp := a.Req(http.MethodPost, "/invitations", &model.InvitationDTO{Code: "K1", IssuedBy: "alice"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	select {
	case evt := <-ch:
		assert.Equal(t, model.EVENT_ISSUED, evt.Type)
		assert.Equal(t, "K1", evt.Code)
		assert.Equal(t, "alice", evt.Principal)
		assert.NotEmpty(t, evt.ID)
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
}

func TestEventsRequireUpgrade(t *testing.T) {
	a := newTestAPI(t, nil)

	resp := a.Req(http.MethodGet, "/events", nil)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
