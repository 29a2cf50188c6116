package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed HS256 JWT plus its expiry. Staff present it in the
// Authorization header when calling protected endpoints. Refresh-token
// rotation is not part of this service.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken signs an HS256 JWT for a staff user. Claims follow the
// middleware's expectations: sub carries the user ID, role the staff role,
// agency the tenant, plus standard exp/iat.
func NewAccessToken(secret string, userID uint64, role string, agencyID uint64, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":    userID,
		"role":   role,
		"agency": agencyID,
		"exp":    exp.Unix(),
		"iat":    now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
