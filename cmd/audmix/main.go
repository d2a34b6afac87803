// SPDX-License-Identifier: EPL-2.0

// Command audmix plays, renders and inspects audio files through the
// audmix mixing engine.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
