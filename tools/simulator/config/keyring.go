package config

import (
	"crypto/ecdsa"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/secp256k1"
)

var curve = secp256k1.S256()

// Account is a simulated externally owned account. Its address is the task
// owner for every task the account creates.
type Account struct {
	privateKey ecdsa.PrivateKey
}

func NewAccount(material io.Reader) (*Account, error) {
	ecdsaKey, err := ecdsa.GenerateKey(curve, material)
	if err != nil {
		return nil, err
	}

	return &Account{privateKey: *ecdsaKey}, nil
}

// NewAccounts generates count accounts from the same key material source.
func NewAccounts(count int, material io.Reader) ([]*Account, error) {
	accounts := make([]*Account, 0, count)

	for i := 0; i < count; i++ {
		account, err := NewAccount(material)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, nil
}

func (a *Account) Address() common.Address {
	return crypto.PubkeyToAddress(*(&a.privateKey).Public().(*ecdsa.PublicKey))
}

// Sign produces a recoverable signature of the keccak256 hash of msg.
func (a *Account) Sign(msg []byte) ([]byte, error) {
	return crypto.Sign(crypto.Keccak256(msg), &a.privateKey)
}

// Verify reports whether signature over msg was produced by this account.
func (a *Account) Verify(msg, signature []byte) bool {
	pubKey, err := crypto.SigToPub(crypto.Keccak256(msg), signature)
	if err != nil {
		return false
	}

	return crypto.PubkeyToAddress(*pubKey) == a.Address()
}

func (a *Account) Marshal() ([]byte, error) {
	return crypto.FromECDSA(&a.privateKey), nil
}

func (a *Account) Unmarshal(in []byte) error {
	privateKey, err := crypto.ToECDSA(in)
	if err != nil {
		return err
	}

	a.privateKey = *privateKey

	return nil
}
