// Package id generates short, prefixed identifiers for listeners, SSE clients and scan cycles.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes used across the workspace engine.
const (
	PrefixListener = "lsn"
	PrefixClient   = "client"
	PrefixCycle    = "cycle"
)

// cycleSize keeps scan correlation ids short in log lines.
const cycleSize = 10

// Generate returns prefix-nanoid, e.g. "lsn-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if the system has no entropy.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Cycle returns a short id that tags every log line of one watch cycle.
func Cycle() string {
	id, err := gonanoid.New(cycleSize)
	if err != nil {
		return PrefixCycle
	}
	return PrefixCycle + "-" + id
}
