package receipt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"photobook-order-bot/internal/checkout"
	"photobook-order-bot/internal/delivery"
	"photobook-order-bot/internal/payment"
	"photobook-order-bot/internal/processing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

const waitFor = 2 * time.Second

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) has(call string) bool {
	return r.count(call) > 0
}

func (r *recorder) count(call string) int {
	n := 0
	for _, c := range r.all() {
		if c == call {
			n++
		}
	}
	return n
}

type fakeEngine struct {
	rec      *recorder
	inFlight *atomic.Bool
	events   *processing.Events
	// cancelled receives the completion callback instead of it running
	// right away.
	cancelled chan func()
}

func (e *fakeEngine) StartProcessing() {
	e.rec.add("engine.start")
	e.inFlight.Store(true)
}

func (e *fakeEngine) StartPhotobookUpload()   { e.rec.add("engine.upload") }
func (e *fakeEngine) FinishOrder()            { e.rec.add("engine.finish") }
func (e *fakeEngine) IsProcessingOrder() bool { return e.inFlight.Load() }
func (e *fakeEngine) PendingUploads() int     { return 1 }
func (e *fakeEngine) TotalUploads() int       { return 4 }

func (e *fakeEngine) Subscribe(handler func(processing.Event)) func() {
	return e.events.Subscribe(handler)
}

func (e *fakeEngine) CancelProcessing(onComplete func()) {
	e.rec.add("engine.cancel")
	e.inFlight.Store(false)
	if e.cancelled != nil {
		e.cancelled <- onComplete
		return
	}
	go onComplete()
}

type fakeView struct {
	rec    *recorder
	mu     sync.Mutex
	last   *ViewModel
	errors []payment.Message
}

func (v *fakeView) Render(vm ViewModel) {
	v.rec.add("view.render:" + vm.State.String())
	v.mu.Lock()
	defer v.mu.Unlock()
	v.last = &vm
}

func (v *fakeView) ShowOverlay(text string)             { v.rec.add("view.overlay:" + text) }
func (v *fakeView) HideOverlay()                        { v.rec.add("view.hide_overlay") }
func (v *fakeView) ConfirmCancel(title, message string) { v.rec.add("view.confirm_cancel") }
func (v *fakeView) ShowPaymentMethods()                 { v.rec.add("view.payment_methods") }
func (v *fakeView) Close()                              { v.rec.add("view.close") }

func (v *fakeView) ShowError(msg payment.Message) {
	v.rec.add("view.error")
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors = append(v.errors, msg)
}

func (v *fakeView) lastModel() *ViewModel {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

type fakeCheckout struct {
	rec    *recorder
	method payment.Method
	mu     sync.Mutex
	auth   *payment.Authorization
}

func (c *fakeCheckout) Cost() (checkout.Cost, bool) {
	return checkout.Cost{
		Currency:  "GBP",
		LineItems: []checkout.LineItem{{Name: "Photobook", Cost: decimal.NewFromInt(20)}},
		ShippingMethods: []checkout.ShippingMethod{
			{ID: 1, Name: "Standard", ShippingCost: decimal.NewFromInt(4), TotalCost: decimal.NewFromInt(24)},
		},
	}, true
}

func (c *fakeCheckout) ShippingMethodID() int { return 1 }

func (c *fakeCheckout) Delivery() (delivery.Details, bool) {
	return delivery.Details{FirstName: "Ada", LastName: "Lovelace", Line1: "1 Main St", City: "London", CountryCode: "GB"}, true
}

func (c *fakeCheckout) OrderID() (int, bool) { return 0, false }

func (c *fakeCheckout) PaymentRequest() (payment.Request, error) {
	return payment.Request{UserID: 7, Amount: decimal.NewFromInt(24), Currency: "GBP", Method: c.method}, nil
}

func (c *fakeCheckout) SetAuthorization(auth payment.Authorization) {
	c.rec.add("checkout.authorized")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = &auth
}

func (c *fakeCheckout) Reset() { c.rec.add("checkout.reset") }

type fakeProducts struct {
	rec *recorder
}

func (p *fakeProducts) LoadUserPhotobook() error {
	p.rec.add("products.load")
	return nil
}

func (p *fakeProducts) Reset() { p.rec.add("products.reset") }

type fakeNotifier struct {
	rec *recorder
}

func (n *fakeNotifier) ReceiptDidDismiss(userID int64) { n.rec.add("notifier.dismissed") }

type fakePayments struct {
	calls     atomic.Int32
	authorize func(ctx context.Context, req payment.Request, delegate payment.Delegate) (payment.Authorization, error)
}

func (p *fakePayments) AuthorizePayment(ctx context.Context, req payment.Request, delegate payment.Delegate) (payment.Authorization, error) {
	p.calls.Inc()
	return p.authorize(ctx, req, delegate)
}

type harness struct {
	rec      *recorder
	engine   *fakeEngine
	view     *fakeView
	checkout *fakeCheckout
	payments *fakePayments
	screen   *Screen
}

func newHarness(t *testing.T, method payment.Method) *harness {
	t.Helper()

	rec := &recorder{}
	h := &harness{
		rec:      rec,
		engine:   &fakeEngine{rec: rec, inFlight: atomic.NewBool(false), events: processing.NewEvents()},
		view:     &fakeView{rec: rec},
		checkout: &fakeCheckout{rec: rec, method: method},
		payments: &fakePayments{authorize: func(context.Context, payment.Request, payment.Delegate) (payment.Authorization, error) {
			return payment.Authorization{Method: method, Token: "tok_1"}, nil
		}},
	}
	h.screen = NewScreen(Deps{
		UserID:    7,
		Engine:    h.engine,
		Payments:  h.payments,
		View:      h.view,
		Checkout:  h.checkout,
		Products:  &fakeProducts{rec: rec},
		Notifier:  &fakeNotifier{rec: rec},
		OnDismiss: func() { rec.add("on_dismiss") },
	})
	h.screen.Start(context.Background())
	t.Cleanup(h.screen.Close)
	return h
}

func (h *harness) state(t *testing.T) State {
	t.Helper()
	state, err := h.screen.State()
	require.NoError(t, err)
	return state
}

func (h *harness) emit(event processing.Event) {
	h.engine.events.Publish(event)
}

func (h *harness) waitDone(t *testing.T) {
	t.Helper()
	select {
	case <-h.screen.Done():
	case <-time.After(waitFor):
		t.Fatal("receipt did not close")
	}
}

// toPaymentRetry drives the receipt to the retry state an order reaches
// after a declined charge and a re-appearance.
func (h *harness) toPaymentRetry(t *testing.T) {
	t.Helper()
	require.NoError(t, h.screen.Appear())
	h.emit(processing.Failed{Kind: processing.ErrorPayment})
	require.Equal(t, StatePaymentFailed, h.state(t))
	require.NoError(t, h.screen.Appear())
	require.Equal(t, StatePaymentRetry, h.state(t))
}

func TestScreen_AppearStartsProcessing(t *testing.T) {
	h := newHarness(t, payment.MethodCard)

	require.NoError(t, h.screen.Appear())
	assert.Equal(t, StateUploading, h.state(t))
	assert.Equal(t, []string{"engine.start", "view.render:uploading"}, h.rec.all())

	vm := h.view.lastModel()
	require.NotNil(t, vm)
	require.NotNil(t, vm.Progress)
	assert.Equal(t, 3, vm.Progress.Uploaded())
}

func TestScreen_ReappearResumes(t *testing.T) {
	h := newHarness(t, payment.MethodCard)

	require.NoError(t, h.screen.Appear())
	require.NoError(t, h.screen.Appear())
	assert.Equal(t, StateUploading, h.state(t))
	assert.True(t, h.rec.has("products.load"))
}

func TestScreen_UploadFailureRetry(t *testing.T) {
	h := newHarness(t, payment.MethodCard)
	require.NoError(t, h.screen.Appear())

	h.emit(processing.Failed{Kind: processing.ErrorUpload})
	require.Equal(t, StateError, h.state(t))
	assert.True(t, h.rec.has("view.hide_overlay"))
	assert.True(t, h.rec.has("view.render:error"))

	require.NoError(t, h.screen.TapPrimary())
	assert.Equal(t, StateUploading, h.state(t))
	assert.Equal(t, 1, h.rec.count("engine.upload"))
	assert.Equal(t, 1, h.rec.count("engine.start"))

	require.NoError(t, h.screen.TapPrimary())
	assert.Equal(t, StateUploading, h.state(t))
	assert.Equal(t, 1, h.rec.count("engine.upload"))
}

func TestScreen_SubmissionFailureFinishesOrder(t *testing.T) {
	h := newHarness(t, payment.MethodCard)
	require.NoError(t, h.screen.Appear())

	h.emit(processing.WillFinishOrder{})
	h.emit(processing.Failed{Kind: processing.ErrorSubmission})
	require.Equal(t, StateError, h.state(t))
	assert.True(t, h.rec.has("view.overlay:"+FinishingOrderText))

	require.NoError(t, h.screen.TapPrimary())
	assert.Equal(t, StateError, h.state(t))
	assert.True(t, h.rec.has("engine.finish"))
	assert.False(t, h.rec.has("engine.upload"))
}

func TestScreen_PaymentRetryAuthorizesAndFinishes(t *testing.T) {
	h := newHarness(t, payment.MethodCard)
	h.toPaymentRetry(t)

	require.NoError(t, h.screen.TapPrimary())

	require.Eventually(t, func() bool { return h.rec.has("engine.finish") }, waitFor, 5*time.Millisecond)
	assert.Equal(t, int32(1), h.payments.calls.Load())
	assert.Equal(t, 1, h.rec.count("engine.finish"))
	assert.True(t, h.rec.has("view.overlay:"+PreparingPaymentText))
	h.checkout.mu.Lock()
	defer h.checkout.mu.Unlock()
	require.NotNil(t, h.checkout.auth)
	assert.Equal(t, "tok_1", h.checkout.auth.Token)
}

func TestScreen_PaymentRetryIgnoresTapsWhileAuthorizing(t *testing.T) {
	h := newHarness(t, payment.MethodCard)
	release := make(chan struct{})
	h.payments.authorize = func(ctx context.Context, req payment.Request, delegate payment.Delegate) (payment.Authorization, error) {
		<-release
		return payment.Authorization{Method: payment.MethodCard, Token: "tok_2"}, nil
	}
	h.toPaymentRetry(t)

	require.NoError(t, h.screen.TapPrimary())
	require.NoError(t, h.screen.TapPrimary())
	h.state(t)
	require.Eventually(t, func() bool { return h.payments.calls.Load() == 1 }, waitFor, 5*time.Millisecond)

	close(release)
	require.Eventually(t, func() bool { return h.rec.has("engine.finish") }, waitFor, 5*time.Millisecond)
	h.state(t)
	assert.Equal(t, int32(1), h.payments.calls.Load())
	assert.Equal(t, 1, h.rec.count("engine.finish"))
	assert.Equal(t, 1, h.rec.count("view.overlay:"+PreparingPaymentText))
}

func TestScreen_PaymentRetryError(t *testing.T) {
	h := newHarness(t, payment.MethodCard)
	h.payments.authorize = func(context.Context, payment.Request, payment.Delegate) (payment.Authorization, error) {
		return payment.Authorization{}, payment.ErrDeclined
	}
	h.toPaymentRetry(t)

	require.NoError(t, h.screen.TapPrimary())

	require.Eventually(t, func() bool { return h.rec.has("view.error") }, waitFor, 5*time.Millisecond)
	assert.False(t, h.rec.has("engine.finish"))
	assert.Equal(t, StatePaymentRetry, h.state(t))

	h.view.mu.Lock()
	defer h.view.mu.Unlock()
	require.Len(t, h.view.errors, 1)
	assert.Equal(t, "Payment Declined", h.view.errors[0].Title)
}

func TestScreen_SecondaryShowsPaymentMethods(t *testing.T) {
	h := newHarness(t, payment.MethodCard)
	h.toPaymentRetry(t)

	require.NoError(t, h.screen.TapSecondary())
	h.state(t)
	assert.True(t, h.rec.has("view.payment_methods"))
}

func TestScreen_DismissCompleted(t *testing.T) {
	h := newHarness(t, payment.MethodCard)
	require.NoError(t, h.screen.Appear())
	h.emit(processing.Completed{OrderID: 9})
	require.Equal(t, StateCompleted, h.state(t))

	require.NoError(t, h.screen.TapDismiss())
	h.waitDone(t)

	calls := h.rec.all()
	start := indexOf(calls, "engine.cancel")
	require.GreaterOrEqual(t, start, 0)
	assert.Equal(t, []string{
		"engine.cancel",
		"products.reset",
		"checkout.reset",
		"notifier.dismissed",
		"view.close",
		"on_dismiss",
	}, calls[start:])

	assert.ErrorIs(t, h.screen.Appear(), ErrClosed)
}

func TestScreen_DismissAsksForConfirmation(t *testing.T) {
	h := newHarness(t, payment.MethodCard)
	require.NoError(t, h.screen.Appear())
	h.emit(processing.Failed{Kind: processing.ErrorUpload})

	require.NoError(t, h.screen.TapDismiss())
	h.state(t)
	assert.True(t, h.rec.has("view.confirm_cancel"))
	assert.False(t, h.rec.has("engine.cancel"))

	require.NoError(t, h.screen.DeclineCancel())
	assert.Equal(t, StateError, h.state(t))

	require.NoError(t, h.screen.ConfirmCancel())
	h.waitDone(t)
	assert.True(t, h.rec.has("engine.cancel"))
	assert.True(t, h.rec.has("on_dismiss"))
}

func TestScreen_DismissWaitsForPaySheet(t *testing.T) {
	h := newHarness(t, payment.MethodPaySheet)
	release := make(chan struct{})
	presented := make(chan struct{})
	h.payments.authorize = func(ctx context.Context, req payment.Request, delegate payment.Delegate) (payment.Authorization, error) {
		delegate.ModalPresentationWillBegin()
		close(presented)
		<-release
		delegate.ModalPresentationDidFinish()
		return payment.Authorization{}, errors.New("sheet closed")
	}
	h.toPaymentRetry(t)

	require.NoError(t, h.screen.TapPrimary())
	<-presented

	require.NoError(t, h.screen.TapDismiss())
	require.NoError(t, h.screen.ConfirmCancel())
	require.Eventually(t, func() bool { return h.rec.has("engine.cancel") }, waitFor, 5*time.Millisecond)

	assert.Never(t, func() bool { return h.rec.has("products.reset") }, 50*time.Millisecond, 5*time.Millisecond)

	close(release)
	h.waitDone(t)
	assert.True(t, h.rec.has("products.reset"))
	assert.True(t, h.rec.has("view.close"))
	assert.False(t, h.rec.has("view.error"))
}

func TestScreen_CancelMidUploadNavigatesAfterCallback(t *testing.T) {
	h := newHarness(t, payment.MethodCard)
	h.engine.cancelled = make(chan func(), 1)
	require.NoError(t, h.screen.Appear())
	h.emit(processing.PendingUploadsUpdated{Pending: 1, Total: 4})
	require.Equal(t, StateUploading, h.state(t))

	require.NoError(t, h.screen.TapDismiss())
	require.NoError(t, h.screen.ConfirmCancel())

	var onComplete func()
	select {
	case onComplete = <-h.engine.cancelled:
	case <-time.After(waitFor):
		t.Fatal("cancellation was not requested")
	}
	assert.True(t, h.rec.has("view.confirm_cancel"))

	navigated := func() bool {
		return h.rec.has("products.reset") || h.rec.has("checkout.reset") ||
			h.rec.has("view.close") || h.rec.has("on_dismiss")
	}
	assert.Never(t, navigated, 50*time.Millisecond, 5*time.Millisecond)

	onComplete()
	h.waitDone(t)

	calls := h.rec.all()
	start := indexOf(calls, "engine.cancel")
	require.GreaterOrEqual(t, start, 0)
	assert.Equal(t, []string{
		"engine.cancel",
		"products.reset",
		"checkout.reset",
		"notifier.dismissed",
		"view.close",
		"on_dismiss",
	}, calls[start:])
}

func TestScreen_TerminalStatesDoNotRestart(t *testing.T) {
	tests := []struct {
		name  string
		event processing.Event
		want  State
	}{
		{name: "completed", event: processing.Completed{OrderID: 9}, want: StateCompleted},
		{name: "cancelled", event: processing.Aborted{Reason: errors.New("folder removed")}, want: StateCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, payment.MethodCard)
			require.NoError(t, h.screen.Appear())
			h.emit(tt.event)
			h.engine.inFlight.Store(false)
			require.Equal(t, tt.want, h.state(t))

			require.NoError(t, h.screen.Appear())
			require.NoError(t, h.screen.Appear())

			assert.Equal(t, tt.want, h.state(t))
			assert.Equal(t, 1, h.rec.count("engine.start"))
			assert.False(t, h.rec.has("products.load"))
			assert.Equal(t, "view.render:"+tt.want.String(), h.rec.all()[len(h.rec.all())-1])
		})
	}
}

func TestScreen_EventsAfterCloseAreDropped(t *testing.T) {
	h := newHarness(t, payment.MethodCard)
	require.NoError(t, h.screen.Appear())

	h.screen.Close()
	h.emit(processing.Completed{})

	assert.ErrorIs(t, h.screen.TapPrimary(), ErrClosed)
	_, err := h.screen.State()
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, h.engine.events.Len())
	assert.False(t, h.rec.has("view.render:completed"))
}

func TestScreen_ContextCancelClosesScreen(t *testing.T) {
	rec := &recorder{}
	engine := &fakeEngine{rec: rec, inFlight: atomic.NewBool(false), events: processing.NewEvents()}
	screen := NewScreen(Deps{
		UserID:   1,
		Engine:   engine,
		View:     &fakeView{rec: rec},
		Checkout: &fakeCheckout{rec: rec},
		Products: &fakeProducts{rec: rec},
	})

	ctx, cancel := context.WithCancel(context.Background())
	screen.Start(ctx)
	cancel()

	select {
	case <-screen.Done():
	case <-time.After(waitFor):
		t.Fatal("receipt did not close")
	}
	assert.Equal(t, 0, engine.events.Len())
	assert.False(t, rec.has("checkout.reset"))
}

func indexOf(calls []string, call string) int {
	for i, c := range calls {
		if c == call {
			return i
		}
	}
	return -1
}
