// Command shaderswap replaces shaders on Unity materials.
package main

import (
	"fmt"
	"os"

	"github.com/lex00/shaderswap-go/cmd"
)

func main() {
	if err := cmd.NewRootCommand(cmd.DefaultRunner).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
