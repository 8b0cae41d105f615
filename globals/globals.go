package globals

import (
	"context"
	"os"
)

var JwtSecret = []byte(getSecret())

func getSecret() string {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return s
	}
	return "dev_secret_change_me"
}

// Context keys
type ContextKey string

const UserIDKey ContextKey = "userId"
const TokenKey ContextKey = "token"

var Ctx = context.Background()
