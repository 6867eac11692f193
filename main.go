package main

import (
	"os"

	"github.com/sanos-dev/backend/cmd"
)

// @title Sanos Backend API
// @version 1.0
// @description Runtime/build error intake and automated remediation API.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
