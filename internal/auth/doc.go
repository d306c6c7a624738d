// Package auth provides authentication and role-based access control for
// OpsDeck Core.
//
// It implements the credential store (SQLite), Argon2id password hashing,
// registration/login/role promotion, per-client session contexts with
// session-only secrets, and the route guard consulted before every
// protected page:
//
//   - Users hold a set of roles (cybersec_eng, data_analyst, it_ops, admin);
//     the stored sentinel "none" marks a registered account awaiting
//     role assignment and grants no access.
//   - admin satisfies every role requirement in addition to its own.
//   - Role sets are typed in the domain; the comma-joined string form exists
//     only at the storage edge.
//   - Login failures for unknown users and wrong passwords are deliberately
//     indistinguishable to prevent username enumeration.
//
// Sessions live in memory only. A signed JWT carries the session ID to the
// client, but authentication state and roles are always read from the
// server-side SessionContext, so logout and role changes take effect without
// waiting for token expiry.
package auth
