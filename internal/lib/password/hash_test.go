package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "regular password", password: "password123"},
		{name: "password with special chars", password: "p@ssw0rd!@#$%^&*()"},
		{name: "unicode password", password: "пароль-très-secret"},
		{name: "too long for bcrypt", password: strings.Repeat("a", 73), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotHash, err := GetHash(tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "password.GetHash")
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, gotHash)
			assert.NoError(t, CompareHash(gotHash, tt.password))
		})
	}
}

func TestCompareHash(t *testing.T) {
	hash, err := GetHash("correct-password")
	require.NoError(t, err)

	t.Run("match", func(t *testing.T) {
		assert.NoError(t, CompareHash(hash, "correct-password"))
	})

	t.Run("mismatch", func(t *testing.T) {
		err := CompareHash(hash, "wrong-password")
		assert.ErrorIs(t, err, ErrMismatch)
	})

	t.Run("broken hash", func(t *testing.T) {
		err := CompareHash("not-a-bcrypt-hash", "correct-password")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrMismatch)
	})
}
