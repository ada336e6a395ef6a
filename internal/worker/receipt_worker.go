package worker

// receipt_worker.go
// Processes receipt jobs from QueueReceipts: fetches the sale, renders the
// PDF ticket and enqueues the email job. The fiscal document itself is issued
// synchronously by the invoicing service; this path only covers the
// customer-facing receipt copy.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Yeferson-gm/test-crazy-b/internal/infra"
	"github.com/Yeferson-gm/test-crazy-b/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ReceiptJobPayload is the job envelope sent to QueueReceipts.
type ReceiptJobPayload struct {
	SaleID  string `json:"sale_id"`
	ToEmail string `json:"to_email"`
}

// ReceiptWorker renders and mails PDF receipts for completed sales.
type ReceiptWorker struct {
	saleRepo       repository.SaleRepository
	dispatcher     *Dispatcher
	rdb            *redis.Client
	pdfStoragePath string
}

func NewReceiptWorker(
	saleRepo repository.SaleRepository,
	dispatcher *Dispatcher,
	rdb *redis.Client,
	pdfStoragePath string,
) *ReceiptWorker {
	return &ReceiptWorker{
		saleRepo:       saleRepo,
		dispatcher:     dispatcher,
		rdb:            rdb,
		pdfStoragePath: pdfStoragePath,
	}
}

// Process handles a single receipt job:
//  1. Fetch the sale with items and store
//  2. Render the PDF ticket with retry
//  3. Enqueue the email job with the attachment path
//
// Exhausted retries land the job in the DLQ for redrive.
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return
	}

	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		log.Error().Str("sale_id", payload.SaleID).Msg("receipt_worker: invalid sale_id")
		return
	}

	sale, err := w.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		log.Error().Err(err).Str("sale_id", payload.SaleID).Msg("receipt_worker: sale not found")
		return
	}

	storeName := "POS"
	if sale.Store != nil {
		storeName = sale.Store.Name
	}

	var pdfPath string
	genErr := withRetry(ctx, 3, func(attempt int) error {
		path, err := infra.GenerateReceiptPDF(sale, storeName, w.pdfStoragePath)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("sale_id", payload.SaleID).
				Msg("receipt_worker: PDF attempt failed, retrying")
			return err
		}
		pdfPath = path
		return nil
	})
	if genErr != nil {
		SendToDLQ(ctx, w.rdb, QueueReceipts, "receipt", raw, genErr.Error(), 3)
		return
	}
	log.Info().Str("pdf", pdfPath).Str("sale_id", payload.SaleID).Msg("receipt_worker: PDF generated")

	if payload.ToEmail == "" {
		return
	}

	emailJob := EmailJobPayload{
		ToEmail: payload.ToEmail,
		Subject: fmt.Sprintf("Comprobante %s — Venta %s", storeName, sale.SaleNumber),
		Body:    fmt.Sprintf("Adjunto encontrarás tu comprobante de compra.\nTotal: S/ %s", sale.Total.StringFixed(2)),
		PDFPath: pdfPath,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
		log.Warn().Err(err).Str("email", payload.ToEmail).Msg("receipt_worker: failed to enqueue email")
	}
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			// 1s, 2s … (exponential backoff)
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
