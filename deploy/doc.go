// Package deploy implements the sandbox provisioning workflows.
//
// The deploy package holds the three operator workflows: creating a new
// sandbox with the scaffold application running inside it (with a single
// relaxed-TLS fallback attempt), fetching the preview link of an existing
// sandbox, and deploying straight from a git source with resource sizing
// and labels. Workflows print human-readable status to a configurable
// writer and log structured events through zap.
//
// The provider client, local command runner and readiness delay are all
// injectable, so every workflow can be exercised against stubs.
package deploy
