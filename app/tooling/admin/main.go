// This program performs administrative tasks for a budlum node.
package main

import "github.com/budlum/blockchain/app/tooling/admin/cmd"

func main() {
	cmd.Execute()
}
