// Command tvss runs simulated TSCH networks scheduled by the traffic-aware
// Orchestra rule.
package main

import "github.com/sarchlab/orchestra/cmd/tvss/cmd"

func main() {
	cmd.Execute()
}
