package verification

import (
	"fmt"
	"time"

	"github.com/motivatem3/server/internal/model"
	"github.com/motivatem3/server/internal/util"
)

// Issued holds a fresh pair of credentials. Code and Token go to the user,
// Digest and ExpiresAt go to the account row.
type Issued struct {
	Code      string
	Token     string
	Digest    string
	ExpiresAt time.Time
	Epoch     int
}

// Issuer produces and checks verification codes and link tokens. It never
// touches storage; persisting Issued and mailing it is up to the caller.
type Issuer struct {
	signer  *TokenSigner
	codeTTL time.Duration
	now     func() time.Time
}

func NewIssuer(signer *TokenSigner, codeTTL time.Duration) *Issuer {
	return &Issuer{
		signer:  signer,
		codeTTL: codeTTL,
		now:     time.Now,
	}
}

func (i *Issuer) Issue(email string, epoch int) (*Issued, error) {
	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}

	token, err := i.signer.Sign(email, epoch)
	if err != nil {
		return nil, err
	}

	return &Issued{
		Code:      code,
		Token:     token,
		Digest:    HashCode(code),
		ExpiresAt: i.now().Add(i.codeTTL),
		Epoch:     epoch,
	}, nil
}

// Resend issues a replacement pair for an account, bumping its epoch.
func (i *Issuer) Resend(account *model.Account) (*Issued, error) {
	if account == nil {
		return nil, fmt.Errorf("resend verification: nil account")
	}
	return i.Issue(account.Email, account.VerificationEpoch+1)
}

// ValidateCode fails closed: no stored digest, an elapsed expiry or a digest
// mismatch all return false. It does not modify the account.
func (i *Issuer) ValidateCode(account *model.Account, submitted string) bool {
	if account == nil || !account.HasPendingCode() {
		return false
	}
	if i.now().After(*account.CodeExpiresAt) {
		return false
	}
	return util.ConstantTimeEqual(HashCode(submitted), *account.VerificationCodeHash)
}

func (i *Issuer) ValidateToken(token string) (*TokenClaims, error) {
	return i.signer.Parse(token)
}
