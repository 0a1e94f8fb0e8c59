// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package logging

import (
	"strings"
	"unicode"

	"github.com/rs/zerolog"
)

// SecurityEvent is an access-control decision worth auditing.
// Secrets and cookie values never go in here.
type SecurityEvent struct {
	Event     string
	Path      string
	IPAddress string
	UserAgent string
	Success   bool
	Reason    string
}

// SecurityLogger writes sanitized access events.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger tags entries with component=auth.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{logger: WithComponent("auth")}
}

// NewSecurityLoggerWithLogger is NewSecurityLogger over a specific logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger.With().Str("component", "auth").Logger()}
}

// LogEvent writes ev. Denials go out at warn level.
func (l *SecurityLogger) LogEvent(ev *SecurityEvent) {
	e := l.logger.Info()
	status := "success"
	if !ev.Success {
		e = l.logger.Warn()
		status = "failed"
	}
	e = e.Str("event", ev.Event).Str("status", status)
	if ev.Path != "" {
		e = e.Str("path", SanitizeLogValue(ev.Path))
	}
	if ev.IPAddress != "" {
		e = e.Str("ip", ev.IPAddress)
	}
	if ev.UserAgent != "" {
		e = e.Str("user_agent", truncate(SanitizeLogValue(ev.UserAgent), 100))
	}
	if ev.Reason != "" {
		e = e.Str("reason", ev.Reason)
	}
	e.Msg("")
}

// LogAccessDenied records a gate rejection.
func (l *SecurityLogger) LogAccessDenied(path, ip, userAgent, reason string) {
	l.LogEvent(&SecurityEvent{Event: "access_denied", Path: path, IPAddress: ip, UserAgent: userAgent, Reason: reason})
}

// LogLogin records a login form submission. Whether the key is right is only
// known on the next gated request.
func (l *SecurityLogger) LogLogin(ip, userAgent string) {
	l.LogEvent(&SecurityEvent{Event: "login_submitted", IPAddress: ip, UserAgent: userAgent, Success: true})
}

// LogLogout records a cookie clear.
func (l *SecurityLogger) LogLogout(ip string) {
	l.LogEvent(&SecurityEvent{Event: "logout", IPAddress: ip, Success: true})
}

// LogWebhookRejected records a webhook that failed signature verification.
func (l *SecurityLogger) LogWebhookRejected(ip, reason string) {
	l.LogEvent(&SecurityEvent{Event: "webhook_rejected", Path: "/api/webhook", IPAddress: ip, Reason: reason})
}

// SanitizeLogValue strips control characters (log injection) and caps length.
func SanitizeLogValue(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return truncate(cleaned, 200)
}

// MaskSecret keeps the first two characters of a secret for correlation.
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
