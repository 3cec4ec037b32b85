// Package session holds the client's authentication state: the bearer
// credential and the resolved profile of its holder.
//
// The credential is the single source of truth for "logged in". It is
// persisted through a credential.Store on login and register, restored by
// [Session.Init], and cleared by [Session.Logout] or by a failed
// [Session.FetchProfile]. A profile without a credential never exists.
//
// Other components never mutate the credential. The host application registers
// [Session.OnChange] listeners to push credential changes into the notification
// synchronizer.
package session
