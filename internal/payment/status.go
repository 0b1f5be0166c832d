package payment

// Provider-native status vocabularies mapped onto the shared one. Taken from
// the status semantics each provider documents for pending charges.

var stripeStatusMap = map[string]Status{
	"succeeded":               StatusCompleted,
	"requires_payment_method": StatusPending,
	"requires_confirmation":   StatusPending,
	"requires_action":         StatusPending,
	"processing":              StatusProcessing,
	"requires_capture":        StatusAuthorized,
	"canceled":                StatusCancelled,
}

var razorpayStatusMap = map[string]Status{
	"created":    StatusPending,
	"attempted":  StatusProcessing,
	"paid":       StatusCompleted,
	"captured":   StatusCompleted,
	"authorized": StatusAuthorized,
	"failed":     StatusFailed,
	"refunded":   StatusRefunded,
}

func mapStatus(table map[string]Status, raw string) Status {
	if s, ok := table[raw]; ok {
		return s
	}
	return StatusUnknown
}
