package config

import "time"

type SecurityConfig interface {
	GetMaxSessionAge() time.Duration
	GetResolveWait() time.Duration
	GetCookieName() string
	GetCookieSecure() bool
	GetCookieSecret() string
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetMaxSessionAge is how long an idle browser session is kept in memory
func (Security) GetMaxSessionAge() time.Duration {
	return getDuration("SESSION_MAX_AGE", 30*time.Minute)
}

// GetResolveWait bounds how long a page waits for identity resolution before showing the loading page
func (Security) GetResolveWait() time.Duration {
	return getDuration("RESOLVE_WAIT", 2*time.Second)
}

func (Security) GetCookieName() string {
	return GetEnv("SESSION_COOKIE", "portal_sid")
}

func (Security) GetCookieSecure() bool {
	return getBool("COOKIE_SECURE", GetEnv(envVar, "DEV") != "DEV")
}

// GetCookieSecret signs session cookie values. Empty means the server picks a
// random secret at start-up and cookies do not outlive the process.
func (Security) GetCookieSecret() string {
	return GetEnv("SESSION_COOKIE_SECRET", "")
}
