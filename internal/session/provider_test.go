package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplier-chat/internal/auth"
)

func TestStaticToken(t *testing.T) {
	token, err := NewStatic("  opaque-token \n").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", token)
}

func TestStaticEmpty(t *testing.T) {
	_, err := NewStatic("").Token(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStaticExpiredJWT(t *testing.T) {
	expired, err := auth.NewIssuer("secret", -time.Minute).GenerateToken(3)
	require.NoError(t, err)

	_, err = NewStatic(expired).Token(context.Background())
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestFileToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	provider := NewFile(path)

	_, err := provider.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0o600))
	token, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", token)

	require.NoError(t, os.WriteFile(path, []byte("second"), 0o600))
	token, err = provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", token)
}

func TestNewProvider(t *testing.T) {
	p, err := New("tok", "/does/not/matter")
	require.NoError(t, err)
	assert.IsType(t, &Static{}, p)

	p, err = New("", "/tmp/session")
	require.NoError(t, err)
	assert.IsType(t, &File{}, p)

	_, err = New("", "")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestUserID(t *testing.T) {
	token, err := auth.NewIssuer("secret", time.Hour).GenerateToken(11)
	require.NoError(t, err)

	id, err := UserID(token)
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)

	_, err = UserID("opaque")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
