// Command intellect-admin is the operator CLI: migrations, cron run
// inspection, manual job triggers and Slack request signing.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	root := newRootCommand(newIO(os.Stdin, os.Stdout, os.Stderr))
	if err := root.ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}
