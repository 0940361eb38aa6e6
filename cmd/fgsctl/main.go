package main

import (
	"github.com/fauxgnome/fauxscreensaver/cmd/fgsctl/arg"
)

func main() {
	arg.Execute()
}
