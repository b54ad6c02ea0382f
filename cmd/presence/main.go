package main

import (
	"context"
	"log"

	"github.com/MrSnakeDoc/presence/internal/app"
)

func main() {
	a, err := app.New(context.Background())
	if err != nil {
		log.Fatalf("❌ presence failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ presence stopped with error: %v", err)
	}
}
