// Package refapi is an in-process stand-in for the patient-management backend.
//
// It implements the endpoints the client talks to (/auth/login, /auth/register,
// /users/me, /patients and /health) with the same response shapes as the real
// service, including its error bodies. Tokens are HS256 and may be returned in
// plaintext or sealed with a codec.Codec. The example program, the load test and
// the integration tests run against it.
package refapi
