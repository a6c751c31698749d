package process

import (
	"strings"
	"time"
)

// DefaultGrace is how long a host gets to exit after SIGTERM before it is killed.
const DefaultGrace = 30 * time.Second

// Config describes how to start the host.
type Config struct {
	Command     string            `yaml:"command" json:"command" mapstructure:"command"`
	Args        []string          `yaml:"args" json:"args" mapstructure:"args"`
	Environment map[string]string `yaml:"env" json:"env" mapstructure:"env"`
	Dir         string            `yaml:"dir" json:"dir" mapstructure:"dir"`
	Grace       time.Duration     `yaml:"grace" json:"grace" mapstructure:"grace"`

	// Secrets are masked wherever the command line is logged.
	Secrets []string `yaml:"-" json:"-" mapstructure:"-"`
}

const mask = "***"

var sensitiveKeys = []string{"password", "passwd", "pwd", "secret", "token"}

// MaskArgs returns a copy of args fit for logging. Known secret values are
// replaced anywhere they occur, and key=value pairs with a sensitive key keep
// only the key.
func MaskArgs(args []string, secrets ...string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		for _, s := range secrets {
			if s != "" {
				arg = strings.ReplaceAll(arg, s, mask)
			}
		}
		if key, _, ok := strings.Cut(arg, "="); ok && sensitive(key) {
			arg = key + "=" + mask
		}
		out[i] = arg
	}
	return out
}

func sensitive(key string) bool {
	key = strings.ToLower(strings.TrimLeft(key, "-"))
	for _, k := range sensitiveKeys {
		if strings.Contains(key, k) {
			return true
		}
	}
	return false
}
