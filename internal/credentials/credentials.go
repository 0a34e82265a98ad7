// Package credentials resolves provider secrets by key. Provider and
// carrier enabled-ness is usually just "is my credential configured".
package credentials

import (
	"os"
	"strings"
)

// Resolver looks up a secret by key.
type Resolver interface {
	Get(key string) (string, bool)
}

// EnvResolver reads credentials from the environment, e.g. key
// "newsdata.api_key" becomes NEWSDATA_API_KEY.
type EnvResolver struct{}

func (EnvResolver) Get(key string) (string, bool) {
	name := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
	v := strings.TrimSpace(os.Getenv(name))
	return v, v != ""
}

// Static is a fixed map resolver for tests and local setups.
type Static map[string]string

func (s Static) Get(key string) (string, bool) {
	v, ok := s[key]
	return v, ok && v != ""
}
