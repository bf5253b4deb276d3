package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestClientPassword(t *testing.T) {
	PasswordCost = bcrypt.MinCost

	c := &Client{Login: "gate"}
	require.NoError(t, c.SetPassword("secret"))

	assert.NotEqual(t, "secret", c.Password)
	assert.True(t, c.CheckPassword("secret"))
	assert.False(t, c.CheckPassword("Secret"))

	var nilClient *Client
	assert.False(t, nilClient.CheckPassword("secret"))
	assert.Equal(t, "", nilClient.GetLogin())
}

func TestInvitationState(t *testing.T) {
	i := &Invitation{Code: "K1", IssuedBy: "A"}

	assert.True(t, i.IsActive())
	assert.Equal(t, "K1 issued by A", i.String())

	i.Redeemed = true
	i.RedeemedBy = "B"

	assert.False(t, i.IsActive())
	assert.Equal(t, "K1 issued by A, redeemed by B", i.String())

	var nilInv *Invitation
	assert.False(t, nilInv.IsActive())
	assert.Equal(t, "nil", nilInv.String())
}

func TestInvitationJSON(t *testing.T) {
	i := &Invitation{Code: "K1", IssuedBy: "A", IssuedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}

	b, err := json.Marshal(i.DTO())
	require.NoError(t, err)

	assert.JSONEq(t, `{"code":"K1","issued_by":"A","issued_at":"2024-05-01T10:00:00Z","redeemed":false}`, string(b))
}

func TestUserDTO(t *testing.T) {
	var u *User

	assert.Nil(t, u.DTO())
	assert.Equal(t, "", u.GetID())

	u = (&UserDTO{ID: "A", DisplayName: "Alice"}).Model()
	assert.Equal(t, "A", u.GetID())
	assert.Equal(t, "Alice", u.DTO().DisplayName)
}

func TestNewEvent(t *testing.T) {
	e1 := NewEvent(EVENT_ISSUED, "K1", "A")
	e2 := NewEvent(EVENT_ISSUED, "K1", "A")

	assert.NotEqual(t, e1.ID, e2.ID)
	assert.Equal(t, time.UTC, e1.Time.Location())
}
