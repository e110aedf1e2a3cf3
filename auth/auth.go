package auth

import (
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
)

// DefaultKeyEnv is the environment variable holding the API key.
const DefaultKeyEnv = "CIRCUIT_API_KEY"

// Credentials injects authentication into an outgoing request.
type Credentials interface {
	SetAuthHeader(r *http.Request) error
}

// APIKey authenticates with HTTP basic auth, the key as username and an
// empty password, which is how the routing service expects its keys.
type APIKey struct {
	Key string
}

func (a APIKey) SetAuthHeader(r *http.Request) error {
	if a.Key == "" {
		return fmt.Errorf("empty API key")
	}
	r.SetBasicAuth(a.Key, "")
	return nil
}

// KeyFromEnv reads the API key from the named environment variable, falling
// back to DefaultKeyEnv when envVar is empty. A .env file in the working
// directory is honored.
func KeyFromEnv(envVar string) (APIKey, error) {
	if envVar == "" {
		envVar = DefaultKeyEnv
	}
	_ = godotenv.Load()
	key := os.Getenv(envVar)
	if key == "" {
		return APIKey{}, fmt.Errorf("API key not found: set the %s environment variable", envVar)
	}
	return APIKey{Key: key}, nil
}
