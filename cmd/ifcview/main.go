// Command ifcview opens IFC building models in a 3D window.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/askiada/go-ifcview/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cli.NewRootCmd(openWindow).ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
