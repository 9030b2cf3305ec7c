// Package middleware provides the HTTP layers wrapped around every
// route: session auth, access logging in W3C Extended Log Format, and
// Prometheus request metrics.
package middleware
