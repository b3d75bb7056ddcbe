package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"taskmanagement/pkg/auth"
)

// token prints a bearer token accepted by the API when AUTH_ENABLED is set.
func main() {
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "signing secret, defaults to $JWT_SECRET")
	client := flag.String("client", "cli", "client id stored as the token subject")
	ttl := flag.Duration("ttl", 3*time.Hour, "token lifetime")
	flag.Parse()

	if *secret == "" {
		log.Fatal("a signing secret is required: pass -secret or set JWT_SECRET")
	}

	j := auth.NewJWT(*secret)
	j.TTL = *ttl

	token, err := j.CreateToken(*client)

	if err != nil {
		log.Fatal("Failed to sign token: ", err)
	}

	fmt.Println(token)
}
