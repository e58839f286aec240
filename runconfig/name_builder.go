package runconfig

import (
	"fmt"
	"strings"
)

// DefaultBuildSystem names the build tool in generated configuration names.
const DefaultBuildSystem = "Bazel"

// nameBuilder renders "<build system> <command> <target string>".
type nameBuilder struct {
	buildSystem  string
	command      string
	targetString string
}

func (b nameBuilder) withFilter(filter, target string) nameBuilder {
	b.targetString = fmt.Sprintf("%s (%s)", filter, target)
	return b
}

func (b nameBuilder) withTarget(target string) nameBuilder {
	b.targetString = target
	return b
}

func (b nameBuilder) build() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{b.buildSystem, b.command, b.targetString} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}
