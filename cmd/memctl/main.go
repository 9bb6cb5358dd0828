// Command memctl drives synthetic workloads through memkit allocators and
// prints their statistics or buddy layout.
package main

func main() {
	execute()
}
