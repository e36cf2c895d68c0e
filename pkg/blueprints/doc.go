// Package blueprints provides the core library for a blueprint sharing
// service: versioned text artifacts persisted in a relational repository
// with their content blobs kept in a pluggable blob store.
//
// The package exposes a Service interface covering the blueprint lifecycle
// (create, add version, delete version, delete) and the user account
// workflows (registration, password reset, account confirmation). Every
// multi-step workflow wraps its database writes in a repository transaction
// and tags each stage with a stable diagnostic code so a failed run can be
// traced without parsing error text.
//
// Storage backends (filesystem, memory, S3) live under storage/, repository
// implementations (memory, postgres) under repo/, and server configuration
// under config/.
package blueprints
