// Command token mints API tokens for local development and can generate the
// RSA key pair used for RS256 signing.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/forgo/guildhall/api/pkg/jwt"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		userID       string
		secret       string
		privateKey   string
		publicKey    string
		issuer       string
		expMins      int
		outputJSON   bool
		generateKeys bool
	)

	flagSet := pflag.NewFlagSet("token", pflag.ContinueOnError)
	flagSet.StringVarP(&userID, "user", "u", "", "user id carried in the token (required unless --generate-keys)")
	flagSet.StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HS256 shared secret (default $JWT_SECRET)")
	flagSet.StringVar(&privateKey, "key", "./keys/private.pem", "RS256 private key, used when no secret is set")
	flagSet.StringVar(&publicKey, "public-key", "./keys/public.pem", "public key path written by --generate-keys")
	flagSet.StringVar(&issuer, "issuer", os.Getenv("JWT_ISSUER"), "token issuer")
	flagSet.IntVar(&expMins, "exp", 60*24*7, "expiration in minutes, 0 for none")
	flagSet.BoolVar(&outputJSON, "json", false, "print the token as JSON")
	flagSet.BoolVar(&generateKeys, "generate-keys", false, "write a new RSA key pair to --key and --public-key and exit")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if generateKeys {
		if err := jwt.GenerateKeyPair(privateKey, publicKey); err != nil {
			return err
		}
		fmt.Printf("Wrote %s and %s\n", privateKey, publicKey)
		return nil
	}

	if userID == "" {
		return fmt.Errorf("--user is required")
	}

	cfg := jwt.Config{
		Secret:         secret,
		Issuer:         issuer,
		ExpirationMins: expMins,
	}
	if secret == "" {
		cfg.PrivateKeyPath = privateKey
	}
	svc, err := jwt.NewService(cfg)
	if err != nil {
		return fmt.Errorf("create JWT service: %w (set --secret or generate keys with --generate-keys)", err)
	}

	token, err := svc.GenerateToken(userID)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	if outputJSON {
		output := map[string]any{
			"token":      token,
			"token_type": "Bearer",
			"user_id":    userID,
		}
		if expMins > 0 {
			output["expires_in"] = expMins * 60
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	fmt.Printf("User ID:  %s\n", userID)
	if expMins > 0 {
		fmt.Printf("Expires:  %s\n", time.Now().Add(time.Duration(expMins)*time.Minute).Format(time.RFC3339))
	} else {
		fmt.Println("Expires:  never")
	}
	fmt.Println()
	fmt.Println(token)
	return nil
}
