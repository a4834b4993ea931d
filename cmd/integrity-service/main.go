// File: backend/services/integrity-service/cmd/integrity-service/main.go
package main

import (
	"fmt"
	"os"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/app"
)

func main() {
	if err := app.RunUntilSignal(); err != nil {
		fmt.Fprintf(os.Stderr, "integrity-service: %v\n", err)
		os.Exit(1)
	}
}
