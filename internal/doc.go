// Package internal contains helpers that are private to goCare, currently secure
// random generation used for IVs and password salts. Subpackages hold
// module-private infrastructure such as the reference backend in refapi.
//
// # What this package must NOT do
//
//   - Export types that appear in the public goCare API.
//   - Be imported by any package outside the goCare module.
package internal
