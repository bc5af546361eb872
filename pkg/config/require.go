package config

import (
	"log"
	"strings"
)

// Missing names the required settings that are empty, in env-var form.
func (c Config) Missing() []string {
	var missing []string
	for _, req := range []struct {
		env string
		set bool
	}{
		{"DATABASE_URL", c.DatabaseURL != ""},
		{"JWT_SECRET", len(c.JWTAccessSecret) > 0},
		{"PAYGATE_TERMINAL_KEY", c.PayGate.TerminalKey != ""},
		{"PAYGATE_PASSWORD", c.PayGate.Password != ""},
	} {
		if !req.set {
			missing = append(missing, req.env)
		}
	}
	return missing
}

// MustComplete exits when any required setting is empty, listing all of them
// at once.
func MustComplete(c Config) {
	if missing := c.Missing(); len(missing) > 0 {
		log.Fatalf("missing required env %s", strings.Join(missing, ", "))
	}
}
