// Package secret expands environment references in configuration values.
//
// Credentials such as API keys and JWT signing secrets are kept out of
// config files by writing them as ${VAR}. A missing variable is an error
// rather than an empty credential.
package secret
