// Package repositories implements SQLite persistence for the client.
//
// Key Implementations:
//   - [CredentialRepository] : the session credential, satisfying credential.Store
//   - [MessageLogRepository] : pushed messages and announcements recorded by the watch command
//
// Tables are created by the embedded migrations in the shared package; callers
// run [shared.RunMigrations] before constructing a repository.
package repositories
