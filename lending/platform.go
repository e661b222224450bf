package lending

import "math/big"

const maxPlatformFeeBps = 1_000

// InitPlatform creates the singleton platform account. It fails with
// ErrAlreadyRegistered once initialized; fee and bound changes are a
// governance concern outside this engine.
func (e *Engine) InitPlatform(feeBps uint64, minLoanAmount, maxLoanAmount *big.Int) (*PlatformAccount, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	existing, err := e.state.GetPlatform()
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}
	if feeBps > maxPlatformFeeBps {
		return nil, ErrInvalidConfiguration
	}
	if minLoanAmount == nil || maxLoanAmount == nil || minLoanAmount.Sign() <= 0 {
		return nil, ErrInvalidConfiguration
	}
	if maxLoanAmount.Cmp(minLoanAmount) <= 0 {
		return nil, ErrInvalidConfiguration
	}
	platform := &PlatformAccount{
		FeeBps:        feeBps,
		MinLoanAmount: new(big.Int).Set(minLoanAmount),
		MaxLoanAmount: new(big.Int).Set(maxLoanAmount),
		Active:        true,
		CreatedAt:     e.clock.Now(),
	}
	normalizePlatform(platform)
	if err := e.state.PutPlatform(platform); err != nil {
		return nil, err
	}
	return platform, nil
}

// Platform returns the platform account.
func (e *Engine) Platform() (*PlatformAccount, error) {
	return e.requirePlatform()
}
