// Command llmgate streams a prompt through a provider configured in a TOML
// settings file and prints the normalized events.
//
//	llmgate providers
//	llmgate chat -p work "Explain goroutines in one sentence"
//	echo "hi" | llmgate chat --json
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
