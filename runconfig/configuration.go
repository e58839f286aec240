// Package runconfig creates and matches run configurations for Python test
// selections.
package runconfig

import "github.com/LegacyCodeHQ/testscope/blaze"

// CommandTest is the build tool command of every configuration created here.
const CommandTest = "test"

// Configuration is a named build tool invocation.
type Configuration struct {
	Name              string   `yaml:"name"`
	Command           string   `yaml:"command"`
	Target            string   `yaml:"target"`
	Flags             []string `yaml:"flags,omitempty"`
	NameChangedByUser bool     `yaml:"name_changed_by_user,omitempty"`
}

// TestFilterFlag returns the configuration's test filter flag, if any.
func (c *Configuration) TestFilterFlag() (string, bool) {
	return blaze.FindTestFilterFlag(c.Flags)
}

// Clone returns a deep copy of c.
func (c *Configuration) Clone() *Configuration {
	clone := *c
	clone.Flags = append([]string(nil), c.Flags...)
	return &clone
}
