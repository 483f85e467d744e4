// Command relmenu encodes, shares and compares relationship menus.
package main

import "github.com/papapumpkin/relmenu/cmd"

func main() {
	cmd.Execute()
}
