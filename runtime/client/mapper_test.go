package client

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/pgquery/runtime/types"
)

type user struct {
	ID       int            `db:"id"`
	Name     string         `db:"name"`
	Email    sql.NullString `db:"email"`
	Nickname *string        `db:"nickname"`
	Active   bool
	Ignored  string `db:"-"`
}

func TestDecode(t *testing.T) {
	nick := "al"
	row := types.NewRow(
		[]string{"id", "name", "email", "nickname", "ACTIVE", "Ignored", "extra"},
		[]any{int64(7), []byte("alice"), "a@example.com", nick, true, "skip", 1.5},
	)

	u, err := Decode[user](row)
	require.NoError(t, err)
	assert.Equal(t, 7, u.ID)
	assert.Equal(t, "alice", u.Name)
	assert.Equal(t, sql.NullString{String: "a@example.com", Valid: true}, u.Email)
	require.NotNil(t, u.Nickname)
	assert.Equal(t, "al", *u.Nickname)
	assert.True(t, u.Active)
	assert.Empty(t, u.Ignored)
}

func TestDecodeNulls(t *testing.T) {
	row := types.NewRow([]string{"id", "email", "nickname"}, []any{int64(1), nil, nil})

	u, err := Decode[user](row)
	require.NoError(t, err)
	assert.False(t, u.Email.Valid)
	assert.Nil(t, u.Nickname)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode[int](types.NewRow([]string{"id"}, []any{int64(1)}))
	assert.Error(t, err)

	_, err = Decode[user](types.NewRow([]string{"Active"}, []any{"yes"}))
	assert.ErrorContains(t, err, "Active")

	_, err = Decode[user](types.NewRow([]string{"id"}, []any{true}))
	assert.ErrorContains(t, err, "cannot assign bool")
}

func TestDecodeRejectsOutOfRangeNumbers(t *testing.T) {
	type sizes struct {
		Small int8    `db:"small"`
		Count uint    `db:"count"`
		Ratio float32 `db:"ratio"`
	}

	tests := []struct {
		name string
		col  string
		val  any
	}{
		{"int overflow", "small", int64(300)},
		{"int underflow", "small", int64(-129)},
		{"negative into unsigned", "count", int64(-1)},
		{"unsigned too large for int8", "small", uint64(1 << 40)},
		{"fractional float into int", "small", 1.5},
		{"float overflow", "ratio", 1e300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode[sizes](types.NewRow([]string{tt.col}, []any{tt.val}))
			assert.ErrorContains(t, err, tt.col)
		})
	}

	s, err := Decode[sizes](types.NewRow(
		[]string{"small", "count", "ratio"},
		[]any{int64(-128), int64(42), 0.25},
	))
	require.NoError(t, err)
	assert.Equal(t, sizes{Small: -128, Count: 42, Ratio: 0.25}, s)
}

func TestDecodeParsesText(t *testing.T) {
	type position struct {
		Ordinal int     `db:"ordinal_position"`
		Scale   uint8   `db:"scale"`
		Ratio   float64 `db:"ratio"`
		Enabled bool    `db:"enabled"`
	}

	p, err := Decode[position](types.NewRow(
		[]string{"ordinal_position", "scale", "ratio", "enabled"},
		[]any{"3", "2", "0.5", "true"},
	))
	require.NoError(t, err)
	assert.Equal(t, position{Ordinal: 3, Scale: 2, Ratio: 0.5, Enabled: true}, p)
}

func TestFetchAllAs(t *testing.T) {
	ctx := context.Background()
	c := newSQLiteClient(t)
	seedUsers(t, c)

	users, err := FetchAllAs[user](ctx, c, "SELECT id, name, email FROM users ORDER BY id")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a", users[0].Name)
	assert.True(t, users[0].Email.Valid)
	assert.False(t, users[1].Email.Valid)

	one, err := FetchOneAs[user](ctx, c, "SELECT id, name FROM users WHERE id = ?", 2)
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, 2, one.ID)

	none, err := FetchOneAs[user](ctx, c, "SELECT id FROM users WHERE id = ?", 42)
	require.NoError(t, err)
	assert.Nil(t, none)
}
