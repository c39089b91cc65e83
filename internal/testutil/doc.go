// Package testutil provides shared fixtures and helpers for pipewright
// tests: sample task definitions, sample change sets, and state-store
// assertions used across packages.
package testutil
