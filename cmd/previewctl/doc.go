// Package main is the entry point for the previewctl CLI.
//
// previewctl provisions remote Daytona sandboxes running the scaffold
// application and prints their preview URLs and access tokens. It offers
// four commands:
//
//   - create: create a fresh sandbox, clone the configured repository
//     into it, install dependencies, start the dev server and print the
//     preview link for port 3000. A failed attempt is retried exactly
//     once with TLS certificate verification disabled.
//   - preview: fetch the preview link of an existing sandbox by ID.
//   - deploy: create a sandbox directly from a git source with resource
//     sizing and labels, then install, build and start the application.
//     With no URL, the surrounding git repository's origin remote is
//     used.
//   - serve: run an MCP server exposing the same workflows as tools,
//     wired through Uber's fx framework with zap structured logging and
//     viper configuration.
//
// Credentials come from the DAYTONA_API_KEY environment variable, the
// config file, or the command line; they are never embedded in source.
package main
