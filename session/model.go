package session

import "github.com/MrEthical07/goCare/codec"

// Credential is one authenticated session: the sealed token, the IV needed to open
// it, and the claims decoded from the plaintext. Claims are never persisted.
type Credential struct {
	Token  codec.SealedToken
	IV     string
	Claims *codec.Claims
}

// Complete reports whether both halves of the pair are present.
func (c Credential) Complete() bool {
	return c.Token != "" && c.IV != ""
}

// Keys names the durable entries that hold the pair.
type Keys struct {
	Token string `yaml:"token" env:"GOCARE_STORAGE_TOKEN_KEY" env-default:"token"`
	IV    string `yaml:"iv" env:"GOCARE_STORAGE_IV_KEY" env-default:"iv"`
}

// DefaultKeys returns the entry names used by the mobile client: "token" and "iv".
func DefaultKeys() Keys {
	return Keys{Token: "token", IV: "iv"}
}

func (k Keys) withDefaults() Keys {
	def := DefaultKeys()
	if k.Token == "" {
		k.Token = def.Token
	}
	if k.IV == "" {
		k.IV = def.IV
	}
	return k
}
