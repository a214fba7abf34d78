// The dmcsim command runs direct-mapped cache simulations from the command
// line.
package main

func main() {
	Execute()
}
