// subfilter converts translation segments between storage, external
// service and UI representations.
package main

import (
	"os"

	"github.com/hupe1980/subfilter/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
