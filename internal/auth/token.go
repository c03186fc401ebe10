package auth

import (
	"errors"
	"fmt"
	"strconv"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned when a stored credential cannot be read as a JWT.
var ErrMalformedToken = errors.New("malformed credential")

// subjectClaims lists where the platform API has put the user id, in order of preference.
var subjectClaims = []string{"id", "userId", "_id", "sub"}

// SubjectID extracts the user id from a credential without verifying its
// signature. The platform API verifies the token on every call; the dashboard
// only needs to know whose profile to load.
func SubjectID(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	for _, name := range subjectClaims {
		if id := claimString(claims[name]); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no subject claim", ErrMalformedToken)
}

func claimString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}
