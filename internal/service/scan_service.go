package service

import (
	"context"
	"time"

	"github.com/Yeferson-gm/test-crazy-b/internal/apperr"
	"github.com/Yeferson-gm/test-crazy-b/internal/dto"
	"github.com/Yeferson-gm/test-crazy-b/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Scanner pairing sessions let a phone act as the barcode scanner for a POS
// terminal. The desktop creates a session and shows it as a QR; the phone
// connects, scans barcodes, and the desktop polls for the result. Sessions
// live in Redis with a 1 hour TTL — no DB rows, they are throwaway state.

const (
	scanKeyPrefix  = "scan:session:"
	scanSessionTTL = time.Hour
)

type ScanService interface {
	CreateSession(ctx context.Context) (*dto.ScanSessionResponse, error)
	ConnectSession(ctx context.Context, sessionID string) (*dto.ScanSessionResponse, error)
	GetSessionStatus(ctx context.Context, sessionID string) (*dto.ScanSessionResponse, error)
	SubmitScan(ctx context.Context, sessionID uuid.UUID, storeID uuid.UUID, barcode string) (*dto.ScanResultResponse, error)
}

type scanService struct {
	rdb         *redis.Client
	productRepo repository.ProductRepository
}

func NewScanService(rdb *redis.Client, productRepo repository.ProductRepository) ScanService {
	return &scanService{rdb: rdb, productRepo: productRepo}
}

func scanKey(sessionID string) string { return scanKeyPrefix + sessionID }

func (s *scanService) CreateSession(ctx context.Context) (*dto.ScanSessionResponse, error) {
	sessionID := uuid.NewString()
	key := scanKey(sessionID)

	if err := s.rdb.HSet(ctx, key, map[string]interface{}{
		"connected": "0",
		"notified":  "0",
		"barcode":   "",
	}).Err(); err != nil {
		return nil, err
	}
	if err := s.rdb.Expire(ctx, key, scanSessionTTL).Err(); err != nil {
		return nil, err
	}

	return &dto.ScanSessionResponse{SessionID: sessionID, Exists: true}, nil
}

// ConnectSession is called by the phone after scanning the pairing QR.
// Refreshes the TTL so an active pairing never dies mid-shift.
func (s *scanService) ConnectSession(ctx context.Context, sessionID string) (*dto.ScanSessionResponse, error) {
	key := scanKey(sessionID)
	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, apperr.NotFound("sesión de escaneo no encontrada o expirada")
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, "connected", "1")
	pipe.Expire(ctx, key, scanSessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	return &dto.ScanSessionResponse{SessionID: sessionID, Exists: true, Connected: true}, nil
}

// GetSessionStatus is polled by the desktop. Reading a pending barcode marks
// the session notified so the same scan is not delivered twice.
func (s *scanService) GetSessionStatus(ctx context.Context, sessionID string) (*dto.ScanSessionResponse, error) {
	key := scanKey(sessionID)
	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return &dto.ScanSessionResponse{SessionID: sessionID, Exists: false}, nil
	}

	resp := &dto.ScanSessionResponse{
		SessionID:   sessionID,
		Exists:      true,
		Connected:   fields["connected"] == "1",
		WasNotified: fields["notified"] == "1",
	}
	if barcode := fields["barcode"]; barcode != "" && !resp.WasNotified {
		resp.ScannedBarcode = &barcode
		resp.WasNotified = true
		_ = s.rdb.HSet(ctx, key, "notified", "1").Err()
	}
	return resp, nil
}

// SubmitScan stores the barcode on the session and resolves it against the
// store catalog so the phone can show what it just scanned.
func (s *scanService) SubmitScan(ctx context.Context, sessionID uuid.UUID, storeID uuid.UUID, barcode string) (*dto.ScanResultResponse, error) {
	key := scanKey(sessionID.String())
	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, apperr.NotFound("sesión de escaneo no encontrada o expirada")
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, "barcode", barcode, "notified", "0")
	pipe.Expire(ctx, key, scanSessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	result := &dto.ScanResultResponse{Barcode: barcode}
	p, err := s.productRepo.FindBySKU(ctx, storeID, barcode)
	if err != nil {
		return result, nil // unknown barcode is not an error
	}
	result.Exists = true
	result.Product = &dto.ScannedProduct{
		ID:        p.ID.String(),
		SKU:       p.SKU,
		Name:      p.Name,
		SalePrice: p.SalePrice,
		Stock:     p.Stock,
	}
	return result, nil
}
