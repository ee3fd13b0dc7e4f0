// Package internal contains helper utilities that are intentionally private
// to authflow, currently secure action-token generation and digest handling.
//
// # What this package must NOT do
//
//   - Export types that appear in the public authflow API.
//   - Be imported by any package outside the authflow module.
package internal
