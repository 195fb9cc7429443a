// SPDX-License-Identifier: MPL-2.0

package main

import (
	cmd "pstux/cmd/pstux"
)

func main() {
	cmd.Execute()
}
