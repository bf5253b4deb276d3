package model

import (
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost for new client passwords.
var PasswordCost = 12

// Client is a set of credentials allowed to call the store API.
type Client struct {
	Login    string `yaml:"login"`
	Password string `yaml:"password"`
}

func (c *Client) GetLogin() string {
	if c == nil {
		return ""
	}

	return c.Login
}

func (c *Client) CheckPassword(password string) bool {
	if c == nil {
		return false
	}

	err := bcrypt.CompareHashAndPassword([]byte(c.Password), []byte(password))
	if err != nil {
		slog.Debug("password check failed", slog.String("login", c.Login), slog.Any("error", err))
		return false
	}

	return true
}

func (c *Client) SetPassword(password string) error {
	b, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return err
	}

	c.Password = string(b)
	return nil
}
