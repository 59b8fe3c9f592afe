// Package version reports the build version of the mediasign binary.
//
// Values are injected with -ldflags:
//
//	go build -ldflags "-X github.com/estatly/mediasign/version.Version=1.4.0"
package version
