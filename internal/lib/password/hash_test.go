package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHashAndCompareHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
		compare  string
		wantErr  bool
	}{
		{
			name:     "совпадающий пароль проходит проверку",
			password: "secret-password",
			compare:  "secret-password",
			wantErr:  false,
		},
		{
			name:     "неверный пароль не проходит проверку",
			password: "secret-password",
			compare:  "wrong-password",
			wantErr:  true,
		},
		{
			name:     "пустой пароль хэшируется и проверяется",
			password: "",
			compare:  "",
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := GetHash(tt.password)
			require.NoError(t, err)
			require.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)

			err = CompareHash(hash, tt.compare)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetHash_DifferentSalts(t *testing.T) {
	h1, err := GetHash("same-password")
	require.NoError(t, err)
	h2, err := GetHash("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
