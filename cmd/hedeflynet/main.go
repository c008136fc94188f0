// Command hedeflynet runs the HedeflyNet coaching API.
package main

import (
	"context"
	"log"

	"github.com/Elqomdes/hedeflynet/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
