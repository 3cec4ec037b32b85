// Package models defines the entities exchanged with the movie catalog server.
//
// The package contains two categories of types:
//
// 1. Session entities
//   - [User] : resolved profile of the credential holder, carrying its [Role]
//   - [AuthResponse] : credential and profile returned by login and register
//   - [Captcha] : login challenge issued before [LoginRequest]
//
// 2. Notification entities
//   - [Message] : per-user site message with a [MessageStatus]
//   - [Announcement] : site-wide broadcast
//
// Timestamps are decoded through [Timestamp] since the server serializes local
// date-times without a zone offset.
package models
