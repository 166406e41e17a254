package config

import "github.com/zeromicro/go-zero/rest"

type Config struct {
	rest.RestConf
	// hex ed25519 seed of the fee payer; a fresh key is used when empty
	FeePayerSeed string `json:",optional"`
	// lamports credited to the fee payer when its account is empty
	FeePayerFunding uint64 `json:",default=1000000000"`
}
