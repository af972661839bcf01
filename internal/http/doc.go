// Package http provides HTTP handlers and middleware for the planner API.
//
// The router exposes the following endpoints:
//   - POST /login: issues a session token. Body: {"email","password"}. The token
//     also travels via the `X-Session-Token` header and a `session_token` cookie.
//   - POST /logout, POST /session/refresh, GET /me: session lifecycle endpoints
//     for the authenticated caller.
//   - POST /users: open registration for viewer accounts. GET /users,
//     PUT /users/{id}, DELETE /users/{id}: administrator controlled account
//     management exchanging the `userDTO` payload defined in user_handler.go.
//   - GET /rooms, GET /timeslots: public catalog listings. POST, PUT /{id} and
//     DELETE /{id} on both catalogs require admin privileges.
//   - GET /sessions, GET /sessions/{id}: public proposal listings; when the
//     caller carries a session the list marks the proposals they voted for.
//     POST /sessions, PUT /sessions/{id}, DELETE /sessions/{id} and the
//     PUT /sessions/{id}/vote/increment|decrement endpoints require a session.
//   - GET /schedule: public board snapshot. POST /schedule/generate,
//     POST /schedule/clear, PUT /schedule/move, PUT /schedule/swap,
//     POST /schedule/sessions and DELETE /schedule/sessions/{id} mutate the
//     board and require facilitator or admin privileges.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
