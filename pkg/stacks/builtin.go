package stacks

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/stacks.yaml
var builtinStacksContent []byte

// builtinStacks parses the embedded default stacks. The embedded file is
// validated by tests; a parse failure here is a programming error.
func builtinStacks() []*Stack {
	var file stacksFile
	if err := yaml.Unmarshal(builtinStacksContent, &file); err != nil {
		panic("builtin stacks are invalid: " + err.Error())
	}
	return file.Stacks
}
