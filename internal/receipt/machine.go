package receipt

import (
	"photobook-order-bot/internal/processing"
)

type Event interface {
	receiptEvent()
}

// Appeared is raised every time the receipt is (re)shown. InFlight must be
// read from the engine at that moment.
type Appeared struct {
	InFlight bool
}

type Completed struct{}

type Failed struct {
	Kind processing.ErrorKind
}

type Aborted struct{}

type WillFinishOrder struct{}

type UploadProgress struct{}

type PrimaryTapped struct{}

type SecondaryTapped struct{}

type DismissTapped struct{}

type CancelConfirmed struct{}

func (Appeared) receiptEvent()        {}
func (Completed) receiptEvent()       {}
func (Failed) receiptEvent()          {}
func (Aborted) receiptEvent()         {}
func (WillFinishOrder) receiptEvent() {}
func (UploadProgress) receiptEvent()  {}
func (PrimaryTapped) receiptEvent()   {}
func (SecondaryTapped) receiptEvent() {}
func (DismissTapped) receiptEvent()   {}
func (CancelConfirmed) receiptEvent() {}

type Effect int

const (
	EffectRender Effect = iota
	EffectStartProcessing
	EffectResumeProcessing
	EffectRetryUpload
	EffectFinishOrder
	EffectShowPaymentMethods
	EffectAuthorizePayment
	EffectShowFinishingOverlay
	EffectHideOverlay
	EffectConfirmCancel
	EffectDismiss
)

func (e Effect) String() string {
	switch e {
	case EffectRender:
		return "render"
	case EffectStartProcessing:
		return "start_processing"
	case EffectResumeProcessing:
		return "resume_processing"
	case EffectRetryUpload:
		return "retry_upload"
	case EffectFinishOrder:
		return "finish_order"
	case EffectShowPaymentMethods:
		return "show_payment_methods"
	case EffectAuthorizePayment:
		return "authorize_payment"
	case EffectShowFinishingOverlay:
		return "show_finishing_overlay"
	case EffectHideOverlay:
		return "hide_overlay"
	case EffectConfirmCancel:
		return "confirm_cancel"
	case EffectDismiss:
		return "dismiss"
	default:
		return "unknown"
	}
}

// Machine is the receipt transition table. It performs no I/O; the caller
// executes the returned effects in order.
type Machine struct {
	state     State
	lastError *processing.ErrorKind
}

func NewMachine() *Machine {
	return &Machine{state: StateUploading}
}

func (m *Machine) State() State {
	return m.state
}

func (m *Machine) LastError() (processing.ErrorKind, bool) {
	if m.lastError == nil {
		return 0, false
	}
	return *m.lastError, true
}

func (m *Machine) Handle(event Event) []Effect {
	switch ev := event.(type) {
	case Appeared:
		return m.handleAppeared(ev)
	case Completed:
		m.lastError = nil
		return m.transition(StateCompleted, EffectHideOverlay)
	case Failed:
		kind := ev.Kind
		m.lastError = &kind
		if kind == processing.ErrorPayment {
			return m.transition(StatePaymentFailed, EffectHideOverlay)
		}
		return m.transition(StateError, EffectHideOverlay)
	case Aborted:
		return m.transition(StateCancelled, EffectHideOverlay)
	case WillFinishOrder:
		return []Effect{EffectShowFinishingOverlay}
	case UploadProgress:
		if m.state != StateUploading {
			return nil
		}
		return []Effect{EffectRender}
	case PrimaryTapped:
		return m.handlePrimary()
	case SecondaryTapped:
		if m.state == StatePaymentRetry {
			return []Effect{EffectShowPaymentMethods}
		}
		return nil
	case DismissTapped:
		if m.state == StateCompleted {
			return []Effect{EffectDismiss}
		}
		return []Effect{EffectConfirmCancel}
	case CancelConfirmed:
		return []Effect{EffectDismiss}
	}
	return nil
}

func (m *Machine) handleAppeared(ev Appeared) []Effect {
	// A finished or cancelled order can only be dismissed.
	if m.state.Terminal() {
		return []Effect{EffectRender}
	}
	if !ev.InFlight {
		m.lastError = nil
		m.state = StateUploading
		return []Effect{EffectStartProcessing, EffectRender}
	}
	if m.state == StatePaymentFailed {
		return m.transition(StatePaymentRetry)
	}
	return []Effect{EffectResumeProcessing, EffectRender}
}

func (m *Machine) handlePrimary() []Effect {
	switch m.state {
	case StateError:
		if m.lastError == nil {
			return nil
		}
		switch *m.lastError {
		case processing.ErrorUpload:
			m.lastError = nil
			return append([]Effect{EffectRetryUpload}, m.transition(StateUploading)...)
		case processing.ErrorPDF, processing.ErrorSubmission:
			return []Effect{EffectFinishOrder}
		}
	case StatePaymentFailed:
		return []Effect{EffectShowPaymentMethods}
	case StatePaymentRetry:
		return []Effect{EffectAuthorizePayment}
	case StateCancelled, StateCompleted:
		return []Effect{EffectDismiss}
	}
	return nil
}

// transition moves to next and appends a render when the state changed.
func (m *Machine) transition(next State, effects ...Effect) []Effect {
	if m.state == next {
		return effects
	}
	m.state = next
	return append(effects, EffectRender)
}
