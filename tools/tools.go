//go:build tools
// +build tools

// Package tools records the development tools used on this module.
// They run through `go run` or a global `go install` and stay out of go.mod.
package tools

// mockgen regenerates the gomock doubles in internal/mocks:
//
//	go generate ./internal/mocks
//
// Air reloads cmd/epharmacy on template and source changes (DEV=true reparses templates):
//
//	go install github.com/air-verse/air@v1.63.0
