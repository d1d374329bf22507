// Command agroplan assigns crop cultivations to garden beds.
package main

import "github.com/papapumpkin/agroplan/cmd"

func main() {
	cmd.Execute()
}
