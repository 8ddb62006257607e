package processing

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"photobook-order-bot/internal/delivery"
	"photobook-order-bot/internal/file"
	"photobook-order-bot/internal/order"
	"photobook-order-bot/internal/payment"
	"photobook-order-bot/internal/pdf"
	"photobook-order-bot/internal/pkg/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/atomic"
)

const pdfFileName = "photobook.pdf"

// Job is everything the engine needs to turn a photobook into an order.
type Job struct {
	UserID         int64
	Title          string
	Folder         string
	Assets         []file.RequestFile
	Delivery       delivery.Details
	ShippingMethod string
	LineItems      []order.LineItem
	Total          decimal.Decimal
	Currency       string
	Authorization  payment.Authorization
}

type JobSource interface {
	Job() (Job, error)
	SetOrderID(orderID int)
}

type Deps struct {
	Files      file.Service
	Downloader file.Downloader
	PDF        pdf.Generator
	Orders     order.Service
	Charger    payment.Charger
	Source     JobSource
}

// DefaultEngine runs upload, pdf and submission for a single photobook.
// Every control method returns immediately; progress is reported through
// Subscribe.
type DefaultEngine struct {
	deps   Deps
	events *Events

	inFlight *atomic.Bool
	running  *atomic.Bool
	pending  *atomic.Int32
	total    *atomic.Int32

	ctx     context.Context
	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	folder  string
	orderID int
}

func NewDefaultEngine(ctx context.Context, deps Deps) *DefaultEngine {
	return &DefaultEngine{
		deps:     deps,
		events:   NewEvents(),
		inFlight: atomic.NewBool(false),
		running:  atomic.NewBool(false),
		pending:  atomic.NewInt32(0),
		total:    atomic.NewInt32(0),
		ctx:      ctx,
	}
}

func (e *DefaultEngine) Subscribe(handler func(Event)) (unsubscribe func()) {
	return e.events.Subscribe(handler)
}

func (e *DefaultEngine) IsProcessingOrder() bool {
	return e.inFlight.Load()
}

func (e *DefaultEngine) PendingUploads() int {
	return int(e.pending.Load())
}

func (e *DefaultEngine) TotalUploads() int {
	return int(e.total.Load())
}

func (e *DefaultEngine) StartProcessing() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.inFlight.Load() {
		slog.Warn("Order is already being processed", "folder", e.folder)
		return
	}

	job, err := e.deps.Source.Job()
	if err != nil {
		slog.Error("Failed to prepare order", "error", err)
		go e.fail(ErrorUpload, err)
		return
	}

	e.inFlight.Store(true)
	e.folder = job.Folder
	e.orderID = 0
	e.run(func(ctx context.Context) {
		if e.upload(ctx, job) {
			e.finish(ctx, job)
		}
	})
}

func (e *DefaultEngine) StartPhotobookUpload() {
	e.restart("upload", func(ctx context.Context, job Job) {
		if e.upload(ctx, job) {
			e.finish(ctx, job)
		}
	})
}

func (e *DefaultEngine) FinishOrder() {
	e.restart("finish", e.finish)
}

func (e *DefaultEngine) restart(name string, fn func(context.Context, Job)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.inFlight.Load() {
		slog.Warn("Ignoring restart without an order in flight", "stage", name)
		return
	}

	job, err := e.deps.Source.Job()
	if err != nil {
		slog.Error("Failed to prepare order", "error", err, "stage", name)
		go e.fail(ErrorSubmission, err)
		return
	}
	job.Folder = e.folder
	e.run(func(ctx context.Context) { fn(ctx, job) })
}

// CancelProcessing stops the current run, drops whatever the in-flight order
// left behind and then calls onComplete from a background goroutine.
func (e *DefaultEngine) CancelProcessing(onComplete func()) {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.mu.Unlock()

	go func() {
		e.wg.Wait()

		e.mu.Lock()
		if e.inFlight.Load() {
			if e.orderID != 0 {
				if err := e.deps.Orders.Cancel(context.Background(), e.orderID); err != nil {
					slog.Error("Failed to cancel order", "error", err, "orderID", e.orderID)
				}
			}
			if err := e.deps.Files.DeleteFolder(e.folder); err != nil {
				slog.Error("Failed to delete order folder", "error", err, "folder", e.folder)
			}
		}
		e.inFlight.Store(false)
		e.pending.Store(0)
		e.total.Store(0)
		e.folder = ""
		e.orderID = 0
		e.cancel = nil
		e.mu.Unlock()

		if onComplete != nil {
			onComplete()
		}
	}()
}

// Wait blocks until the current run exits.
func (e *DefaultEngine) Wait() {
	e.wg.Wait()
}

func (e *DefaultEngine) run(fn func(ctx context.Context)) {
	if !e.running.CompareAndSwap(false, true) {
		slog.Warn("Order processing is already running", "folder", e.folder)
		return
	}

	ctx, cancel := context.WithCancel(e.ctx)
	e.cancel = cancel

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()
		defer e.running.Store(false)
		fn(ctx)
	}()
}

func (e *DefaultEngine) upload(ctx context.Context, job Job) bool {
	start := time.Now()

	if len(job.Assets) == 0 {
		e.stageFailed("upload", start, ErrorUpload, ErrNothingToUpload)
		return false
	}
	if err := e.deps.Files.CreateFolder(job.Folder); err != nil {
		e.stageFailed("upload", start, ErrorUpload, err)
		return false
	}

	total := len(job.Assets)
	e.total.Store(int32(total))
	e.pending.Store(int32(total))
	e.events.Publish(PendingUploadsUpdated{Pending: total, Total: total})

	var errs []error
	for res := range e.deps.Files.DownloadAndSave(ctx, job.Folder, job.Assets, e.deps.Downloader) {
		if res.Err != nil {
			slog.Error("Failed to upload photo", "error", res.Err, "userID", job.UserID, "file", res.Result.Name)
			errs = append(errs, res.Err)
			continue
		}
		pending := e.pending.Dec()
		e.events.Publish(PendingUploadsUpdated{Pending: int(pending), Total: total})
	}

	if ctx.Err() != nil {
		return false
	}
	if len(errs) > 0 {
		e.stageFailed("upload", start, ErrorUpload, errors.Join(errs...))
		return false
	}

	metrics.RecordStage("upload", start, nil)
	return true
}

func (e *DefaultEngine) finish(ctx context.Context, job Job) {
	e.events.Publish(WillFinishOrder{})

	pdfPath, pages, ok := e.renderPDF(ctx, job)
	if !ok {
		return
	}

	orderID, ok := e.submit(ctx, job, pdfPath, pages)
	if !ok {
		return
	}

	start := time.Now()
	if err := e.deps.Charger.Capture(ctx, job.Authorization); err != nil {
		if ctx.Err() != nil {
			return
		}
		if err := e.deps.Orders.MarkPaymentFailed(ctx, orderID); err != nil {
			slog.Error("Failed to record payment failure", "error", err, "orderID", orderID)
		}
		kind := ErrorSubmission
		if errors.Is(err, payment.ErrDeclined) || errors.Is(err, payment.ErrEmptyToken) {
			kind = ErrorPayment
		}
		e.stageFailed("payment", start, kind, err)
		return
	}
	metrics.RecordStage("payment", start, nil)

	if err := e.deps.Orders.MarkPaid(ctx, orderID); err != nil {
		e.stageFailed("submission", start, ErrorSubmission, err)
		return
	}

	e.mu.Lock()
	e.inFlight.Store(false)
	e.orderID = 0
	e.mu.Unlock()

	e.deps.Source.SetOrderID(orderID)
	slog.Info("Order completed", "orderID", orderID, "userID", job.UserID)
	e.events.Publish(Completed{OrderID: orderID})
}

func (e *DefaultEngine) renderPDF(ctx context.Context, job Job) (string, int, bool) {
	start := time.Now()

	paths, err := e.deps.Files.ListFiles(job.Folder)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			e.abort(job, err)
			return "", 0, false
		}
		e.stageFailed("pdf", start, ErrorPDF, err)
		return "", 0, false
	}
	photos := photoPaths(paths)
	if ctx.Err() != nil {
		return "", 0, false
	}

	raw, err := e.deps.PDF.Generate(pdf.Book{
		Title:    job.Title,
		Subtitle: job.Delivery.FullName(),
		Photos:   photos,
	})
	if err != nil {
		e.stageFailed("pdf", start, ErrorPDF, err)
		return "", 0, false
	}

	pdfPath := e.deps.Files.Path(job.Folder, pdfFileName)
	if err := os.WriteFile(pdfPath, raw, 0644); err != nil {
		e.stageFailed("pdf", start, ErrorPDF, err)
		return "", 0, false
	}

	metrics.RecordStage("pdf", start, nil)
	return pdfPath, len(photos), true
}

func (e *DefaultEngine) submit(ctx context.Context, job Job, pdfPath string, pages int) (int, bool) {
	start := time.Now()

	if job.Authorization.Token == "" {
		e.stageFailed("submission", start, ErrorPayment, ErrMissingToken)
		return 0, false
	}

	orderID, err := e.deps.Orders.Submit(ctx, order.Submission{
		UserID:         job.UserID,
		Title:          job.Title,
		FolderPath:     job.Folder,
		PDFPath:        pdfPath,
		Pages:          pages,
		Delivery:       job.Delivery,
		ShippingMethod: job.ShippingMethod,
		LineItems:      job.LineItems,
		Total:          job.Total,
		Currency:       job.Currency,
		PaymentMethod:  job.Authorization.Method.String(),
		PaymentToken:   job.Authorization.Token,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		if ctx.Err() != nil {
			return 0, false
		}
		e.stageFailed("submission", start, ErrorSubmission, err)
		return 0, false
	}

	e.mu.Lock()
	e.orderID = orderID
	e.mu.Unlock()

	metrics.RecordStage("submission", start, nil)
	return orderID, true
}

func (e *DefaultEngine) abort(job Job, reason error) {
	slog.Warn("Order aborted", "reason", reason, "userID", job.UserID, "folder", job.Folder)
	e.mu.Lock()
	e.inFlight.Store(false)
	e.mu.Unlock()
	e.events.Publish(Aborted{Reason: reason})
}

func (e *DefaultEngine) stageFailed(stage string, start time.Time, kind ErrorKind, err error) {
	metrics.RecordStage(stage, start, err)
	e.fail(kind, err)
}

func (e *DefaultEngine) fail(kind ErrorKind, err error) {
	slog.Error("Order processing failed", "error", err, "kind", kind)
	e.events.Publish(Failed{Kind: kind, Err: &Error{Kind: kind, Err: err}})
}

func photoPaths(paths []string) []string {
	var photos []string
	for _, p := range paths {
		switch strings.ToLower(filepath.Ext(p)) {
		case ".jpg", ".jpeg", ".png":
			photos = append(photos, p)
		}
	}
	return photos
}
