// Package middleware provides HTTP middleware for access logging in W3C
// Extended Log Format and for Prometheus request metrics. Both wrap the
// response writer in a way that still allows WebSocket upgrades.
package middleware
