package receipt

type State int

const (
	StateUploading State = iota
	StateError
	StateCompleted
	StateCancelled
	StatePaymentFailed
	StatePaymentRetry
)

func (s State) String() string {
	switch s {
	case StateUploading:
		return "uploading"
	case StateError:
		return "error"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StatePaymentFailed:
		return "payment_failed"
	case StatePaymentRetry:
		return "payment_retry"
	default:
		return "unknown"
	}
}

func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}
