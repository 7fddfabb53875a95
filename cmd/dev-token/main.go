package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/innstack/hms_backend/utils"
)

// Mints a bearer token for exercising the API locally. Production tokens come
// from the dashboard's auth service; this tool signs with the same API_SECRET
// so a local stack accepts its output.
func main() {
	userID := flag.Int("user-id", 1, "user id claim")
	name := flag.String("name", "Dev", "user name claim")
	businessID := flag.String("business-id", "", "Required: business id claim")
	hours := flag.Int("hours", 24, "token lifetime in hours")
	flag.Parse()

	if strings.TrimSpace(*businessID) == "" {
		fmt.Fprintln(os.Stderr, "--business-id is required")
		os.Exit(1)
	}
	if os.Getenv("TOKEN_HOUR_LIFESPAN") == "" {
		os.Setenv("TOKEN_HOUR_LIFESPAN", strconv.Itoa(*hours))
	}

	token, err := utils.JwtGenerate(*userID, *name, strings.TrimSpace(*businessID))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
