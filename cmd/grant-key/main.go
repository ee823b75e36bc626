// Package main provides a one-shot utility for player grant key generation.
//
// It emits the Ed25519 keypair players use to sign authorization grants;
// the public key is the player's identity.
package main

import (
	"os"

	"github.com/caldermtz/tidechest/internal/platform/config"
	"github.com/caldermtz/tidechest/internal/tools/grantkey"
)

func main() {
	if err := grantkey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate grant key: %v", err)
	}
}
