// Package authflow implements the account authentication and
// credential-lifecycle core of a web application: registration, login with
// automatic lockout, email verification, and password reset, plus issuance of
// signed session tokens on successful login.
//
// The package is designed for concurrent server workloads: Service methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authflow is the public surface. It exposes [Service], [Builder], [Config],
// the [Account] entity, and the [AccountStore] and [Notifier] collaborator
// contracts. Storage backends (redisstore), the SMTP mailer (mail), and the
// HTTP surface (httpapi) are adapters around this package and never leak into
// its API.
//
// # What this package must NOT do
//
//   - Expose Redis clients, SMTP dialers, or HTTP types in its public API.
//   - Perform I/O outside of Service methods (construction via Builder is
//     allocation-only until Build).
//   - Persist or log a plaintext password or action token.
package authflow
