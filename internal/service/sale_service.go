package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Yeferson-gm/test-crazy-b/internal/apperr"
	"github.com/Yeferson-gm/test-crazy-b/internal/dto"
	"github.com/Yeferson-gm/test-crazy-b/internal/model"
	"github.com/Yeferson-gm/test-crazy-b/internal/repository"
	"github.com/Yeferson-gm/test-crazy-b/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleService interface {
	CreateSale(ctx context.Context, userID uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleResponse, error)
	CancelSale(ctx context.Context, id uuid.UUID, reason string) (*dto.SaleResponse, error)
	GetSaleByID(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	GetStoreSales(ctx context.Context, storeID uuid.UUID, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	repo         repository.SaleRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	dispatcher   *worker.Dispatcher
}

func NewSaleService(
	repo repository.SaleRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	dispatcher *worker.Dispatcher,
) SaleService {
	return &saleService{
		repo:         repo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		dispatcher:   dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// two rounds a monetary value to 2 decimal places, half-up.
func two(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// ── CreateSale ────────────────────────────────────────────────────────────────
// Single ACID transaction:
//   1. Resolve or create the customer (by id, or by document number match)
//   2. For each item: load product, check active + stock, snapshot price/tax,
//      compute line amounts rounded to 2 decimals
//   3. Accumulate totals from the rounded line amounts so the stored totals
//      always reconcile against the stored lines
//   4. Assign the per-store daily sale number (YYYYMMDD-NNNN)
//   5. Decrement stock guarded by stock >= qty
//   6. COMMIT, then fire the async receipt job

func (s *saleService) CreateSale(ctx context.Context, userID uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, apperr.Invalid("store_id inválido")
	}

	var sale model.Sale
	productNames := map[uuid.UUID]string{}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// 1. Resolve customer
		customerID, err := s.resolveCustomer(ctx, tx, req)
		if err != nil {
			return err
		}

		// 2. Resolve products, snapshot prices, compute rounded line amounts
		subtotal := decimal.Zero
		taxTotal := decimal.Zero
		var items []model.SaleItem

		for _, item := range req.Items {
			pid, err := uuid.Parse(item.ProductID)
			if err != nil {
				return apperr.Invalid("product_id inválido")
			}
			p, err := s.findProduct(ctx, tx, pid)
			if err != nil {
				return apperr.NotFound(fmt.Sprintf("producto %s no encontrado", item.ProductID))
			}
			if !p.IsActive {
				return apperr.Conflict(fmt.Sprintf("producto %s está inactivo y no puede venderse", p.Name))
			}
			if p.Stock < item.Quantity {
				return apperr.Conflict(fmt.Sprintf("stock insuficiente para %s: disponible %d, solicitado %d", p.Name, p.Stock, item.Quantity))
			}
			if item.Discount.IsNegative() {
				return apperr.Invalid("el descuento de línea no puede ser negativo")
			}

			unitPrice := item.UnitPrice
			if unitPrice.IsZero() {
				unitPrice = p.SalePrice
			}

			qty := decimal.NewFromInt(int64(item.Quantity))
			lineSubtotal := two(unitPrice.Mul(qty).Sub(item.Discount))
			if lineSubtotal.IsNegative() {
				return apperr.Invalid(fmt.Sprintf("el descuento excede el importe de la línea para %s", p.Name))
			}
			lineTax := two(lineSubtotal.Mul(p.TaxRate).Div(decimal.NewFromInt(100)))

			subtotal = subtotal.Add(lineSubtotal)
			taxTotal = taxTotal.Add(lineTax)
			productNames[pid] = p.Name

			items = append(items, model.SaleItem{
				ProductID: pid,
				Quantity:  item.Quantity,
				UnitPrice: unitPrice,
				TaxRate:   p.TaxRate,
				Discount:  item.Discount,
				Subtotal:  lineSubtotal,
				Total:     lineSubtotal.Add(lineTax),
			})
		}

		// 3. Order-level discount reduces the subtotal only; tax stays as
		// computed per line.
		if req.Discount.IsNegative() {
			return apperr.Invalid("el descuento no puede ser negativo")
		}
		if req.Discount.GreaterThan(subtotal) {
			return apperr.Invalid("el descuento no puede exceder el subtotal")
		}
		netSubtotal := subtotal.Sub(req.Discount)
		total := netSubtotal.Add(taxTotal)

		// 4. Daily per-store sale number
		saleNumber, err := s.nextSaleNumber(ctx, tx, storeID)
		if err != nil {
			return err
		}

		sale = model.Sale{
			StoreID:          storeID,
			UserID:           userID,
			CustomerID:       customerID,
			SaleNumber:       saleNumber,
			Subtotal:         netSubtotal,
			TaxAmount:        taxTotal,
			Discount:         req.Discount,
			Total:            total,
			PaymentMethod:    req.PaymentMethod,
			PaymentReference: req.PaymentReference,
			Status:           "completed",
			Notes:            req.Notes,
			Items:            items,
		}
		if err := s.repo.CreateTx(tx, &sale); err != nil {
			return err
		}

		// 5. Decrement stock guarded by stock >= qty: a concurrent sale that
		// drained the product rolls this transaction back.
		for _, item := range sale.Items {
			affected, err := s.productRepo.DecrementStockTx(tx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				return apperr.Conflict(fmt.Sprintf("stock insuficiente para %s", productNames[item.ProductID]))
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// 6. Async receipt job (best-effort — fire & forget)
	if s.dispatcher != nil && req.ReceiptEmail != nil && *req.ReceiptEmail != "" {
		_ = s.dispatcher.EnqueueReceipt(ctx, worker.ReceiptJobPayload{
			SaleID:  sale.ID.String(),
			ToEmail: *req.ReceiptEmail,
		})
	}

	// Re-read the committed row so the response carries the joined customer,
	// operator and product data instead of the bare in-memory model.
	stored, err := s.repo.FindByID(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	resp := saleToResponse(stored)
	for i := range resp.Items {
		if resp.Items[i].Product == "" {
			pid, _ := uuid.Parse(resp.Items[i].ProductID)
			resp.Items[i].Product = productNames[pid]
		}
	}
	return resp, nil
}

// resolveCustomer returns the customer ID for the sale: explicit id, or
// inline data matched by document number (created when no match exists).
func (s *saleService) resolveCustomer(ctx context.Context, tx *gorm.DB, req dto.CreateSaleRequest) (*uuid.UUID, error) {
	if req.CustomerID != nil {
		cid, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			return nil, apperr.Invalid("customer_id inválido")
		}
		if _, err := s.customerRepo.FindByID(ctx, cid); err != nil {
			return nil, apperr.NotFound("cliente no encontrado")
		}
		return &cid, nil
	}

	if req.CustomerData == nil {
		return nil, nil // anonymous sale
	}

	if existing, err := s.customerRepo.FindByDocumentTx(tx, req.CustomerData.DocumentNumber); err == nil {
		return &existing.ID, nil
	}

	c := model.Customer{
		DocumentType:   req.CustomerData.DocumentType,
		DocumentNumber: req.CustomerData.DocumentNumber,
		Name:           req.CustomerData.Name,
		Email:          req.CustomerData.Email,
		Phone:          req.CustomerData.Phone,
		Address:        req.CustomerData.Address,
	}
	if err := s.customerRepo.CreateTx(tx, &c); err != nil {
		return nil, err
	}
	return &c.ID, nil
}

// findProduct loads the product inside the tx when available so the stock
// read and the later guarded decrement see the same snapshot.
func (s *saleService) findProduct(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	if tx != nil {
		return s.productRepo.FindByIDTx(tx, id)
	}
	return s.productRepo.FindByID(ctx, id)
}

// nextSaleNumber builds YYYYMMDD-NNNN: the count of the store's sales created
// today plus one, zero-padded to 4. The composite unique index on
// (store_id, sale_number) turns a concurrent duplicate into a tx rollback.
func (s *saleService) nextSaleNumber(ctx context.Context, tx *gorm.DB, storeID uuid.UUID) (string, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	count, err := s.repo.CountByStoreAndDayTx(tx, storeID, dayStart, dayEnd)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", now.Format("20060102"), count+1), nil
}

// ── CancelSale ────────────────────────────────────────────────────────────────
// Full reversal in one transaction: restore stock for every line, flip status
// to "cancelled" and append the reason to the notes trail.

func (s *saleService) CancelSale(ctx context.Context, id uuid.UUID, reason string) (*dto.SaleResponse, error) {
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sale, err := s.findSale(ctx, tx, id)
		if err != nil {
			return apperr.NotFound("venta no encontrada")
		}
		if sale.Status == "cancelled" {
			return apperr.Conflict("la venta ya está anulada")
		}

		notes := fmt.Sprintf("CANCELADA: %s", reason)
		if sale.Notes != nil && *sale.Notes != "" {
			notes = *sale.Notes + "\n" + notes
		}

		// Guarded write: a concurrent cancel that committed between the read
		// above and here makes this a no-op, so stock is never restored twice.
		affected, err := s.repo.UpdateStatusNotesTx(tx, id, "cancelled", &notes)
		if err != nil {
			return err
		}
		if affected == 0 {
			return apperr.Conflict("la venta ya está anulada")
		}

		for _, item := range sale.Items {
			if err := s.productRepo.IncrementStockTx(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return saleToResponse(sale), nil
}

// findSale loads the sale inside the tx when available so the status read
// and the guarded status write see the same snapshot.
func (s *saleService) findSale(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	if tx != nil {
		return s.repo.FindByIDTx(tx, id)
	}
	return s.repo.FindByID(ctx, id)
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *saleService) GetSaleByID(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFound("venta no encontrada")
	}
	return saleToResponse(sale), nil
}

func (s *saleService) GetStoreSales(ctx context.Context, storeID uuid.UUID, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	sales, total, err := s.repo.List(ctx, storeID, filter)
	if err != nil {
		return nil, err
	}

	items := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, *saleToResponse(&sales[i]))
	}
	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &dto.SaleListResponse{
		Sales: items,
		Pagination: dto.Pagination{
			Page:       filter.Page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func saleToResponse(v *model.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(v.Items))
	for _, item := range v.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		items = append(items, dto.SaleItemResponse{
			ProductID: item.ProductID.String(),
			Product:   name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			TaxRate:   item.TaxRate,
			Discount:  item.Discount,
			Subtotal:  item.Subtotal,
			Total:     item.Total,
		})
	}

	var customer *dto.CustomerResponse
	if v.Customer != nil {
		customer = &dto.CustomerResponse{
			ID:             v.Customer.ID.String(),
			DocumentType:   v.Customer.DocumentType,
			DocumentNumber: v.Customer.DocumentNumber,
			Name:           v.Customer.Name,
			Email:          v.Customer.Email,
		}
	}

	operator := ""
	if v.User != nil {
		operator = v.User.FirstName + " " + v.User.LastName
	}

	return &dto.SaleResponse{
		ID:               v.ID.String(),
		StoreID:          v.StoreID.String(),
		SaleNumber:       v.SaleNumber,
		Items:            items,
		Customer:         customer,
		Operator:         operator,
		Subtotal:         v.Subtotal,
		TaxAmount:        v.TaxAmount,
		Discount:         v.Discount,
		Total:            v.Total,
		PaymentMethod:    v.PaymentMethod,
		PaymentReference: v.PaymentReference,
		Status:           v.Status,
		Notes:            v.Notes,
		CreatedAt:        v.CreatedAt.Format(time.RFC3339),
	}
}
