// middleware/auth.go
package middleware

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the resolved caller of a WebSocket connection. Play never
// requires an account; an absent or invalid token just yields a guest.
type Identity struct {
	UserID   string
	Username string
	Guest    bool
}

func guestIdentity() Identity {
	return Identity{Username: "Guest", Guest: true}
}

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "aioracle-secret-change-in-production"
	}
	return []byte(secret)
}

// ParseWSIdentity extracts the optional identity from a WebSocket upgrade
// request. The token may arrive as a Bearer header, a "token" query parameter
// or a "token" cookie. Every failure mode degrades to guest.
func ParseWSIdentity(r *http.Request) Identity {
	tokenString := ""

	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
	}
	if tokenString == "" {
		tokenString = r.URL.Query().Get("token")
	}
	if tokenString == "" {
		if cookie, err := r.Cookie("token"); err == nil {
			tokenString = cookie.Value
		}
	}
	if tokenString == "" {
		return guestIdentity()
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return guestIdentity()
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return guestIdentity()
	}
	exp, ok := claims["exp"].(float64)
	if !ok || time.Unix(int64(exp), 0).Before(time.Now()) {
		return guestIdentity()
	}

	id := Identity{Guest: false}
	if userID, ok := claims["user_id"].(string); ok {
		id.UserID = userID
	}
	if username, ok := claims["username"].(string); ok && username != "" {
		id.Username = username
	}
	if isGuest, ok := claims["is_guest"].(bool); ok {
		id.Guest = isGuest
	}
	return id
}
