// Command chargersim runs a battery-charger controller against a simulated
// battery on the host.
package main

import "github.com/sarchlab/chargersim/cmd"

func main() {
	cmd.Execute()
}
