package abtest

import "errors"

// Sentinel errors for the A/B test service layer.
var (
	ErrNotFound            = errors.New("ab test not found")
	ErrNameNeeded          = errors.New("name is required")
	ErrTooFewVariations    = errors.New("at least two variations are required")
	ErrDuplicateVariation  = errors.New("variation names must be unique within a test")
	ErrVariationTemplate   = errors.New("every variation needs a template")
	ErrCampaignHasTest     = errors.New("campaign already has an ab test")
	ErrAlreadyStarted      = errors.New("ab test has already been started")
	ErrNotRunning          = errors.New("ab test is not running")
	ErrNoEligibleCustomers = errors.New("no eligible customers to assign")
)
