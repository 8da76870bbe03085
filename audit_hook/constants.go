package audithook

// Action constants for audit events.
const (
	// Merchant actions
	ActionMerchantSignedUp = "merchant.signed_up"

	// Catalog actions
	ActionProductListed  = "product.listed"
	ActionProductUpdated = "product.updated"
	ActionProductRemoved = "product.removed"

	// Payment actions
	ActionPaymentRecorded = "payment.recorded"

	// Fee actions
	ActionFeeDistributed        = "fee.distributed"
	ActionFeeConversionDegraded = "fee.conversion_degraded"

	// Stake actions
	ActionStakeOffered      = "stake.offered"
	ActionStakeTaken        = "stake.taken"
	ActionStakeOfferRemoved = "stake.offer_removed"
	ActionStakeTransferred  = "stake.transferred"

	// Failures
	ActionOperationFailed = "operation.failed"
)

// Resource constants for audit events.
const (
	ResourceMerchant  = "merchant"
	ResourceProduct   = "product"
	ResourcePayment   = "payment"
	ResourceFee       = "fee"
	ResourceStake     = "stake"
	ResourceOperation = "operation"
)

// Category constants for audit events.
const (
	CategoryIdentity = "identity"
	CategoryCatalog  = "catalog"
	CategoryPayment  = "payment"
	CategoryRevenue  = "revenue"
	CategoryStake    = "stake"
	CategoryEngine   = "engine"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
