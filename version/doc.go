// Package version reports build metadata for pipectl and the catalog service.
//
// Values are injected at link time:
//
//	go build -ldflags "-X github.com/Eman-Sallam/ai-pipeline-editor/version.Version=1.0.0" ./cmd/pipectl
//
// Anything not injected falls back to the VCS stamps in the binary's build info.
package version
