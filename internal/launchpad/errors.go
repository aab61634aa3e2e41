package launchpad

import (
	"errors"
	"fmt"
)

// Operations wrap these with the operation name, e.g.
// "subscribe: subscription not started"; match them with errors.Is.
var (
	ErrUnauthorized           = errors.New("caller is not the owner")
	ErrInvalidConfig          = errors.New("invalid config")
	ErrPoolNotFound           = errors.New("pool does not exist")
	ErrNotStarted             = errors.New("subscription not started")
	ErrSubscriptionClosed     = errors.New("subscription closed")
	ErrInvalidProof           = errors.New("invalid proof")
	ErrAlreadySubscribed      = errors.New("already subscribed")
	ErrNoAllocation           = errors.New("score qualifies for no allocation")
	ErrNotNFTOwner            = errors.New("caller does not own the nft")
	ErrNFTAllocationExhausted = errors.New("nft allocation exhausted")
	ErrNotSubscribed          = errors.New("not subscribed")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrTooMuch                = errors.New("too many tokens provided")
	ErrCapExceeded            = errors.New("fundraising target exceeded")
	ErrStillFunding           = errors.New("users are still funding")
	ErrWrongAmount            = errors.New("wrong reward amount provided")
	ErrAlreadyConfigured      = errors.New("vesting already configured")
	ErrVestingNotConfigured   = errors.New("vesting not configured")
	ErrNotPastCliff           = errors.New("not past cliff")
	ErrNotFunded              = errors.New("not funded")
	ErrAlreadyClaimed         = errors.New("already claimed")
	ErrTransferFailed         = errors.New("token transfer failed")
)

// ErrFundingClosed is a NotSubscribed condition: the funding window is over.
var ErrFundingClosed = fmt.Errorf("%w: funding window closed", ErrNotSubscribed)
