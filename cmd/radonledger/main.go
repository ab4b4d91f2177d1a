// Command radonledger derives radon activities and selection efficiencies
// from detector runs and keeps them in keyed CSV ledgers.
package main

import "github.com/mesh-intelligence/radonledger/internal/cli"

func main() {
	cli.Execute()
}
