package config

import (
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// ValidProxyTypes returns the proxy schemes tun2proxy accepts
func ValidProxyTypes() []string {
	return []string{"socks5", "socks5h", "socks4", "socks4a", "http", "https"}
}

// BuildURL assembles scheme://[user[:pass]@]host[:port]. A non-empty URL
// field is returned unchanged.
func (p ProxyConfig) BuildURL() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if errs := p.validate(); len(errs) > 0 {
		return "", ValidationErrors(errs)
	}

	u := url.URL{Scheme: strings.ToLower(p.Type), Host: p.Host}
	if strings.Contains(p.Host, ":") && !strings.HasPrefix(p.Host, "[") {
		u.Host = "[" + p.Host + "]"
	}
	if p.Port > 0 {
		u.Host = net.JoinHostPort(strings.Trim(p.Host, "[]"), strconv.Itoa(p.Port))
	}
	switch {
	case p.Username != "" && p.Password != "":
		u.User = url.UserPassword(p.Username, p.Password)
	case p.Username != "":
		u.User = url.User(p.Username)
	}
	return u.String(), nil
}

func (p ProxyConfig) validate() []ValidationError {
	var errors []ValidationError

	if p.URL != "" {
		u, err := url.Parse(p.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "proxy.url",
				Value:   p.URL,
				Message: "must be a URL of the form scheme://host[:port]",
			})
		}
		return errors
	}

	if !slices.Contains(ValidProxyTypes(), strings.ToLower(p.Type)) {
		errors = append(errors, ValidationError{
			Field:   "proxy.type",
			Value:   p.Type,
			Message: "must be one of: " + strings.Join(ValidProxyTypes(), ", "),
		})
	}
	if strings.TrimSpace(p.Host) == "" {
		errors = append(errors, ValidationError{
			Field:   "proxy.host",
			Value:   p.Host,
			Message: "must not be empty",
		})
	}
	if p.Port < 0 || p.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "proxy.port",
			Value:   p.Port,
			Message: "must be between 0 and 65535",
		})
	}
	if p.Password != "" && p.Username == "" {
		errors = append(errors, ValidationError{
			Field:   "proxy.password",
			Value:   "***",
			Message: "requires proxy.username",
		})
	}
	return errors
}
