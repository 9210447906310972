package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret, issuer, subject string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestVerifyToken(t *testing.T) {
	svc := NewService(nil, "test-secret", time.Hour)
	ctx := context.Background()

	tests := []struct {
		name    string
		token   string
		wantUID string
		wantErr error
	}{
		{
			name:    "valid token",
			token:   signToken(t, "test-secret", tokenIssuer, "uid-42", time.Hour),
			wantUID: "uid-42",
		},
		{
			name:    "wrong secret",
			token:   signToken(t, "other-secret", tokenIssuer, "uid-42", time.Hour),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "expired",
			token:   signToken(t, "test-secret", tokenIssuer, "uid-42", -time.Minute),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "wrong issuer",
			token:   signToken(t, "test-secret", "someone-else", "uid-42", time.Hour),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "empty subject",
			token:   signToken(t, "test-secret", tokenIssuer, "", time.Hour),
			wantErr: ErrInvalidToken,
		},
		{
			name:    "garbage",
			token:   "not-a-token",
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uid, err := svc.VerifyToken(ctx, tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUID, uid)
		})
	}
}

func TestVerifyTokenRejectsUnsignedAlg(t *testing.T) {
	svc := NewService(nil, "test-secret", time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:  tokenIssuer,
		Subject: "uid-42",
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.VerifyToken(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
