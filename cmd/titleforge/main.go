// Command titleforge scrapes YouTube titles from a browser window and asks a
// language model for new title ideas on a topic.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
