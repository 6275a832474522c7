package simulate

import (
	"crypto/rand"
	"encoding/binary"
)

// Source is the random source used by the gonum distributions.
type Source interface {
	Uint64() uint64
	Seed(uint64)
}

type cryptoRandSource struct{}

func NewCryptoRandSource() cryptoRandSource {
	return cryptoRandSource{}
}

func (cryptoRandSource) Uint64() uint64 {
	var b [8]byte
	_, err := rand.Read(b[:])
	if err != nil {
		panic(err)
	}
	return binary.LittleEndian.Uint64(b[:])
}

func (cryptoRandSource) Seed(_ uint64) {}
