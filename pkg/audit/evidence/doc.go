// Package evidence maintains hash-linked evidence chains for findings.
//
// Each piece of evidence attached to a finding carries a SHA-256 hash of its
// canonical JSON content. The chain hash links evidence in order: every
// append folds the new evidence hash into sha256(previous chain hash ||
// evidence hash), starting from a fixed genesis value. The chain hash
// therefore commits to both the content and the order of all evidence, and
// Verify detects any tampering with either.
package evidence
