package model

import "time"

type Account struct {
	Address      string    `json:"address"`
	Login        string    `json:"login"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
