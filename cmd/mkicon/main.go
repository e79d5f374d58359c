// mkicon writes the app icon as a PNG.
// Usage: go run ./cmd/mkicon <output.png> [size]
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Mavwarf/teamsdesk/internal/icon"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: mkicon <output.png> [size]")
		os.Exit(1)
	}
	size := 256
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n <= 0 {
			fmt.Fprintf(os.Stderr, "mkicon: bad size %q\n", os.Args[2])
			os.Exit(1)
		}
		size = n
	}
	data, err := icon.PNG(size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkicon: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(os.Args[1], data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "mkicon: %v\n", err)
		os.Exit(1)
	}
}
