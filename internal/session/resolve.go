package session

import "github.com/yovo-social/yovo/internal/config"

const DefaultSessionName = "main"

// Resolve picks the active session: the --session flag, then
// default_session from config.toml, then "main".
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultSession != "" {
		return cfg.DefaultSession
	}
	return DefaultSessionName
}
