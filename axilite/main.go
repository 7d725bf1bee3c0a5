// Command axilite generates and simulates AXI4-Lite shared-bus
// interconnects.
package main

import "github.com/sarchlab/axilite/axilite/cmd"

func main() {
	cmd.Execute()
}
