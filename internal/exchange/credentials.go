package exchange

import (
	"fmt"
	"os"
)

// Credentials holds the exchange login pair. Loaded once at startup and
// kept off the config struct so state dumps never include it.
type Credentials struct {
	Username string
	Password string
}

// CredentialsFromEnv reads the login pair from the environment. Both
// variables must be present.
func CredentialsFromEnv() (Credentials, error) {
	user := os.Getenv("IMCITY_USERNAME")
	pass := os.Getenv("IMCITY_PASSWORD")
	if user == "" || pass == "" {
		return Credentials{}, fmt.Errorf("IMCITY_USERNAME and IMCITY_PASSWORD must be set")
	}
	return Credentials{Username: user, Password: pass}, nil
}
