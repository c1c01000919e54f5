package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tillpoint/internal/bill/domain"
	catalogdomain "github.com/smallbiznis/tillpoint/internal/catalog/domain"
	"github.com/smallbiznis/tillpoint/internal/config"
	"github.com/smallbiznis/tillpoint/internal/fallback"
	"github.com/smallbiznis/tillpoint/internal/observability/metrics"
	sequencedomain "github.com/smallbiznis/tillpoint/internal/sequence/domain"
	"github.com/smallbiznis/tillpoint/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Sequence sequencedomain.Repository
	Items    catalogdomain.ItemLookup
	Fallback *fallback.Store
	Policy   *config.RegisterPolicyHolder
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	sequence sequencedomain.Repository
	items    catalogdomain.ItemLookup
	fallback *fallback.Store
	policy   *config.RegisterPolicyHolder
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("bill.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		sequence: p.Sequence,
		items:    p.Items,
		fallback: p.Fallback,
		policy:   p.Policy,
		metrics:  p.Metrics,
	}
}

func (s *Service) Sync(ctx context.Context, req domain.SyncRequest) (domain.SyncResult, error) {
	if err := s.validateKey(req.BillNo, req.LocationCode); err != nil {
		return domain.SyncResult{}, err
	}
	if err := s.validateItems(req.Items, true); err != nil {
		return domain.SyncResult{}, err
	}

	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header, err := s.repo.FindHeader(ctx, tx, req.LocationCode, req.BillNo)
		if err != nil {
			return err
		}
		if header == nil {
			header = &domain.Header{
				ID:           s.genID.Generate(),
				LocationCode: req.LocationCode,
				BillNo:       req.BillNo,
				State:        domain.StateDraft,
				UpdatedAt:    now,
			}
			if err := s.repo.InsertHeader(ctx, tx, header); err != nil {
				return err
			}
		} else if header.State != domain.StateDraft {
			header.State = domain.StateDraft
			header.UpdatedAt = now
			if err := s.repo.UpdateHeader(ctx, tx, header); err != nil {
				return err
			}
		}
		return s.repo.ReplaceLines(ctx, tx, req.LocationCode, req.BillNo, s.toLines(req))
	})
	if err == nil {
		// The durable row set is authoritative again; drop any stale mirror.
		s.fallback.Delete(req.LocationCode, req.BillNo)
		return domain.SyncResult{Persisted: true}, nil
	}

	if db.IsUnavailable(err) {
		s.log.Warn("sync degraded to fallback",
			zap.Int64("bill_no", req.BillNo),
			zap.String("location_code", req.LocationCode),
			zap.Error(err),
		)
		s.fallback.Put(s.toSnapshot(req.BillNo, req.LocationCode, "", "", domain.StateDraft, nil, req.Items))
		s.metrics.RecordFallback(ctx, "sync")
		return domain.SyncResult{Persisted: false}, nil
	}

	s.log.Error("sync failed", zap.Int64("bill_no", req.BillNo), zap.Error(err))
	return domain.SyncResult{}, err
}

func (s *Service) Hold(ctx context.Context, req domain.HoldRequest) (domain.HoldResult, error) {
	if err := s.validateKey(req.BillNo, req.LocationCode); err != nil {
		return domain.HoldResult{}, err
	}
	if err := s.validateItems(req.Items, false); err != nil {
		return domain.HoldResult{}, err
	}
	if req.Discount.IsNegative() {
		return domain.HoldResult{}, domain.ErrRateInvalid
	}

	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header, err := s.repo.FindHeader(ctx, tx, req.LocationCode, req.BillNo)
		if err != nil {
			return err
		}
		if header == nil {
			header = &domain.Header{
				ID:           s.genID.Generate(),
				LocationCode: req.LocationCode,
				BillNo:       req.BillNo,
				State:        domain.StateHeld,
				CounterCode:  req.CounterCode,
				CustomerCode: req.CustomerCode,
				HeldAt:       &now,
				UpdatedAt:    now,
			}
			if err := s.repo.InsertHeader(ctx, tx, header); err != nil {
				return err
			}
		} else {
			header.State = domain.StateHeld
			header.CounterCode = req.CounterCode
			header.CustomerCode = req.CustomerCode
			header.HeldAt = &now
			header.UpdatedAt = now
			if err := s.repo.UpdateHeader(ctx, tx, header); err != nil {
				return err
			}
		}
		return s.repo.ReplaceLines(ctx, tx, req.LocationCode, req.BillNo, s.toLines(domain.SyncRequest{
			BillNo:       req.BillNo,
			LocationCode: req.LocationCode,
			Items:        req.Items,
		}))
	})
	if err == nil {
		s.fallback.Delete(req.LocationCode, req.BillNo)
		s.appendHoldAudit(ctx, req, now)
		s.metrics.RecordHold(ctx, req.LocationCode)
		return domain.HoldResult{BillNo: req.BillNo, LocationCode: req.LocationCode, Persisted: true}, nil
	}

	if db.IsUnavailable(err) {
		s.log.Warn("hold degraded to fallback",
			zap.Int64("bill_no", req.BillNo),
			zap.String("location_code", req.LocationCode),
			zap.Error(err),
		)
		s.fallback.Put(s.toSnapshot(req.BillNo, req.LocationCode, req.CounterCode, req.CustomerCode, domain.StateHeld, &now, req.Items))
		s.metrics.RecordFallback(ctx, "hold")
		return domain.HoldResult{BillNo: req.BillNo, LocationCode: req.LocationCode, Persisted: false}, nil
	}

	s.log.Error("hold failed", zap.Int64("bill_no", req.BillNo), zap.Error(err))
	return domain.HoldResult{}, err
}

func (s *Service) Get(ctx context.Context, billNo int64, locationCode string) (*domain.HeldBill, error) {
	if err := s.validateKey(billNo, locationCode); err != nil {
		return nil, err
	}

	header, err := s.repo.FindHeader(ctx, s.db, locationCode, billNo)
	if err != nil {
		if db.IsUnavailable(err) {
			s.metrics.RecordFallback(ctx, "get")
			return s.getFromFallback(billNo, locationCode)
		}
		return nil, err
	}
	if header == nil || header.State != domain.StateHeld {
		// The store may have been down when the bill was held.
		return s.getFromFallback(billNo, locationCode)
	}

	lines, err := s.repo.FindLines(ctx, s.db, locationCode, billNo)
	if err != nil {
		if db.IsUnavailable(err) {
			s.metrics.RecordFallback(ctx, "get")
			return s.getFromFallback(billNo, locationCode)
		}
		return nil, err
	}

	bill := s.toHeldBill(header, lines, true)
	s.decorate(ctx, bill)
	return bill, nil
}

func (s *Service) Retrieve(ctx context.Context, billNo int64, locationCode string) (*domain.HeldBill, error) {
	if err := s.validateKey(billNo, locationCode); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var (
		header  *domain.Header
		lines   []domain.Line
		flipped bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		header, err = s.repo.FindHeader(ctx, tx, locationCode, billNo)
		if err != nil {
			return err
		}
		// Only a HELD row flips back; a missing or draft-only header does not.
		if header == nil || header.State != domain.StateHeld {
			return nil
		}
		// Retrieve flips state only; the line rows stay untouched.
		header.State = domain.StateDraft
		header.UpdatedAt = now
		if err := s.repo.UpdateHeader(ctx, tx, header); err != nil {
			return err
		}
		flipped = true
		lines, err = s.repo.FindLines(ctx, tx, locationCode, billNo)
		return err
	})
	if err != nil {
		if db.IsUnavailable(err) {
			s.metrics.RecordFallback(ctx, "retrieve")
			return s.retrieveFromFallback(billNo, locationCode)
		}
		return nil, err
	}
	if !flipped {
		// The bill may have been held while the store was down.
		return s.retrieveFromFallback(billNo, locationCode)
	}

	s.fallback.Delete(locationCode, billNo)
	bill := s.toHeldBill(header, lines, true)
	s.decorate(ctx, bill)
	return bill, nil
}

func (s *Service) ListHeld(ctx context.Context, locationCode string) ([]domain.HeldBill, error) {
	if strings.TrimSpace(locationCode) == "" {
		return nil, domain.ErrLocationRequired
	}

	headers, err := s.repo.ListHeldHeaders(ctx, s.db, locationCode)
	if err != nil {
		if db.IsUnavailable(err) {
			s.metrics.RecordFallback(ctx, "list_held")
			return s.listFromFallback(ctx, locationCode), nil
		}
		return nil, err
	}

	out := make([]domain.HeldBill, 0, len(headers))
	seen := make(map[int64]bool, len(headers))
	for i := range headers {
		header := &headers[i]
		lines, err := s.repo.FindLines(ctx, s.db, locationCode, header.BillNo)
		if err != nil {
			if db.IsUnavailable(err) {
				s.metrics.RecordFallback(ctx, "list_held")
				return s.listFromFallback(ctx, locationCode), nil
			}
			return nil, err
		}
		bill := s.toHeldBill(header, lines, true)
		s.decorate(ctx, bill)
		out = append(out, *bill)
		seen[header.BillNo] = true
	}

	// Bills held while the store was down exist only in the mirror.
	merged := false
	for _, snap := range s.fallback.ListHeld(locationCode) {
		if seen[snap.BillNo] {
			continue
		}
		out = append(out, *snapshotToHeldBill(snap))
		merged = true
	}
	if merged {
		sortHeldBills(out)
	}
	return out, nil
}

// sortHeldBills orders newest-first by held time, bill number breaking ties.
func sortHeldBills(bills []domain.HeldBill) {
	sort.SliceStable(bills, func(i, j int) bool {
		hi, hj := bills[i].HeldAt, bills[j].HeldAt
		switch {
		case hi == nil && hj == nil:
		case hi == nil:
			return false
		case hj == nil:
			return true
		case !hi.Equal(*hj):
			return hi.After(*hj)
		}
		return bills[i].BillNo > bills[j].BillNo
	})
}

func (s *Service) Pay(ctx context.Context, req domain.PayRequest) (domain.PayResult, error) {
	if err := s.validateKey(req.BillNo, req.LocationCode); err != nil {
		return domain.PayResult{}, err
	}
	if err := s.validateItems(req.Items, false); err != nil {
		return domain.PayResult{}, err
	}

	now := time.Now().UTC()
	details := make([]domain.SettledDetail, len(req.Items))
	for i, item := range req.Items {
		details[i] = domain.SettledDetail{
			LocationCode: req.LocationCode,
			BillNo:       req.BillNo,
			Slno:         i + 1,
			ItemCode:     item.ItemCode,
			Quantity:     item.Quantity,
			Rate:         item.Rate,
			SettledAt:    now,
		}
	}

	// The settled flag flips in the same transaction that appends the
	// details. The conditional update arbitrates concurrent settlements of
	// one bill: whichever commits first wins, the loser sees zero rows.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.sequence.Find(ctx, tx, req.BillNo)
		if err != nil {
			return err
		}
		if entry == nil {
			return domain.ErrNotAllocated
		}
		updated, err := s.sequence.MarkSettled(ctx, tx, req.BillNo)
		if err != nil {
			return err
		}
		if updated == 0 {
			return domain.ErrAlreadySettled
		}
		return s.repo.InsertSettledDetails(ctx, tx, details)
	})
	switch {
	case err == nil:
	case err == domain.ErrNotAllocated, err == domain.ErrAlreadySettled:
		return domain.PayResult{}, err
	case db.IsUnavailable(err):
		return domain.PayResult{}, domain.ErrStoreUnavailable
	default:
		s.log.Error("pay failed", zap.Int64("bill_no", req.BillNo), zap.Error(err))
		return domain.PayResult{}, err
	}

	s.metrics.RecordSettle(ctx, req.LocationCode)
	return domain.PayResult{Inserted: len(details)}, nil
}

func (s *Service) Settled(ctx context.Context, billNo int64, locationCode string) (*domain.SettledBill, error) {
	if err := s.validateKey(billNo, locationCode); err != nil {
		return nil, err
	}

	details, err := s.repo.FindSettledDetails(ctx, s.db, locationCode, billNo)
	if err != nil {
		if db.IsUnavailable(err) {
			return nil, domain.ErrStoreUnavailable
		}
		return nil, err
	}
	if len(details) == 0 {
		return nil, domain.ErrNotFound
	}

	bill := &domain.SettledBill{
		BillNo:       billNo,
		LocationCode: locationCode,
		SettledAt:    details[0].SettledAt,
		Items:        make([]domain.LineView, len(details)),
	}
	for i, d := range details {
		bill.Items[i] = domain.LineView{
			Slno:     d.Slno,
			ItemCode: d.ItemCode,
			Quantity: d.Quantity,
			Rate:     d.Rate,
		}
		bill.Total = bill.Total.Add(d.Rate.Mul(decimalFromInt(d.Quantity)))
	}

	held := domain.HeldBill{BillNo: billNo, Items: bill.Items}
	s.decorate(ctx, &held)
	bill.Items = held.Items
	return bill, nil
}

// appendHoldAudit records the hold snapshot. Audit is best-effort: failure is
// logged, the hold itself already committed.
func (s *Service) appendHoldAudit(ctx context.Context, req domain.HoldRequest, heldOn time.Time) {
	net := req.Discount.Neg()
	for _, item := range req.Items {
		net = net.Add(item.Rate.Mul(decimalFromInt(item.Quantity)))
	}

	lines, err := json.Marshal(req.Items)
	if err != nil {
		s.log.Warn("hold audit snapshot encode failed", zap.Int64("bill_no", req.BillNo), zap.Error(err))
		return
	}

	audit := &domain.HoldAudit{
		ID:           s.genID.Generate(),
		Reference:    ulid.MustNew(ulid.Timestamp(heldOn), ulid.DefaultEntropy()).String(),
		LocationCode: req.LocationCode,
		BillNo:       req.BillNo,
		CounterCode:  req.CounterCode,
		Discount:     req.Discount,
		NetAmount:    net,
		HeldOn:       heldOn,
		Lines:        lines,
	}
	if err := s.repo.InsertHoldAudit(ctx, s.db, audit); err != nil {
		s.log.Warn("hold audit append failed",
			zap.Int64("bill_no", req.BillNo),
			zap.String("location_code", req.LocationCode),
			zap.Error(err),
		)
	}
}

func (s *Service) validateKey(billNo int64, locationCode string) error {
	if billNo <= 0 {
		return domain.ErrBillNoRequired
	}
	if strings.TrimSpace(locationCode) == "" {
		return domain.ErrLocationRequired
	}
	return nil
}

func (s *Service) validateItems(items []domain.ItemInput, allowEmpty bool) error {
	if len(items) == 0 {
		if allowEmpty {
			return nil
		}
		return domain.ErrItemsRequired
	}
	if len(items) > s.policy.Current().MaxLinesPerBill {
		return domain.ErrTooManyLines
	}
	for _, item := range items {
		if strings.TrimSpace(item.ItemCode) == "" {
			return domain.ErrItemCodeRequired
		}
		if item.Quantity <= 0 {
			return domain.ErrQuantityInvalid
		}
		if item.Rate.IsNegative() {
			return domain.ErrRateInvalid
		}
	}
	return nil
}

func (s *Service) toLines(req domain.SyncRequest) []domain.Line {
	lines := make([]domain.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = domain.Line{
			LocationCode:   req.LocationCode,
			BillNo:         req.BillNo,
			Slno:           i + 1,
			ItemCode:       item.ItemCode,
			Quantity:       item.Quantity,
			Rate:           item.Rate,
			ManufacturerID: item.ManufacturerID,
		}
	}
	return lines
}

func (s *Service) toSnapshot(billNo int64, locationCode, counterCode, customerCode, state string, heldAt *time.Time, items []domain.ItemInput) fallback.Snapshot {
	snap := fallback.Snapshot{
		BillNo:       billNo,
		LocationCode: locationCode,
		CounterCode:  counterCode,
		CustomerCode: customerCode,
		State:        state,
		Lines:        make([]fallback.Line, len(items)),
	}
	if heldAt != nil {
		snap.HeldAt = *heldAt
	}
	for i, item := range items {
		snap.Lines[i] = fallback.Line{
			Slno:           i + 1,
			ItemCode:       item.ItemCode,
			Quantity:       item.Quantity,
			Rate:           item.Rate,
			ManufacturerID: item.ManufacturerID,
		}
	}
	return snap
}

func (s *Service) toHeldBill(header *domain.Header, lines []domain.Line, persisted bool) *domain.HeldBill {
	bill := &domain.HeldBill{
		BillNo:       header.BillNo,
		LocationCode: header.LocationCode,
		CounterCode:  header.CounterCode,
		CustomerCode: header.CustomerCode,
		HeldAt:       header.HeldAt,
		Persisted:    persisted,
		Items:        make([]domain.LineView, len(lines)),
	}
	for i, line := range lines {
		bill.Items[i] = domain.LineView{
			Slno:           line.Slno,
			ItemCode:       line.ItemCode,
			Quantity:       line.Quantity,
			Rate:           line.Rate,
			ManufacturerID: line.ManufacturerID,
		}
	}
	return bill
}

// decorate attaches Item Master names and prices. Decoration is best-effort;
// a failed lookup leaves the bare line data intact.
func (s *Service) decorate(ctx context.Context, bill *domain.HeldBill) {
	codes := make([]string, len(bill.Items))
	for i, item := range bill.Items {
		codes[i] = item.ItemCode
	}
	resolved, err := s.items.Resolve(ctx, codes)
	if err != nil {
		s.log.Warn("item decoration failed",
			zap.Int64("bill_no", bill.BillNo),
			zap.Error(err),
		)
	}
	for i := range bill.Items {
		if info, ok := resolved[bill.Items[i].ItemCode]; ok {
			bill.Items[i].ItemName = info.Name
			bill.Items[i].Price = info.Price
		}
	}
}

func (s *Service) getFromFallback(billNo int64, locationCode string) (*domain.HeldBill, error) {
	snap, ok := s.fallback.Get(locationCode, billNo)
	if !ok || snap.State != domain.StateHeld {
		return nil, domain.ErrNotFound
	}
	return snapshotToHeldBill(snap), nil
}

func (s *Service) retrieveFromFallback(billNo int64, locationCode string) (*domain.HeldBill, error) {
	snap, ok := s.fallback.Get(locationCode, billNo)
	if !ok || snap.State != domain.StateHeld {
		return nil, domain.ErrNotFound
	}
	// A retrieved mirror cart goes back to the terminal; the snapshot is done.
	s.fallback.Delete(locationCode, billNo)
	return snapshotToHeldBill(snap), nil
}

func (s *Service) listFromFallback(ctx context.Context, locationCode string) []domain.HeldBill {
	snaps := s.fallback.ListHeld(locationCode)
	out := make([]domain.HeldBill, len(snaps))
	for i, snap := range snaps {
		out[i] = *snapshotToHeldBill(snap)
	}
	return out
}

func snapshotToHeldBill(snap fallback.Snapshot) *domain.HeldBill {
	bill := &domain.HeldBill{
		BillNo:       snap.BillNo,
		LocationCode: snap.LocationCode,
		CounterCode:  snap.CounterCode,
		CustomerCode: snap.CustomerCode,
		Persisted:    false,
		Items:        make([]domain.LineView, len(snap.Lines)),
	}
	if !snap.HeldAt.IsZero() {
		heldAt := snap.HeldAt
		bill.HeldAt = &heldAt
	}
	for i, line := range snap.Lines {
		bill.Items[i] = domain.LineView{
			Slno:           line.Slno,
			ItemCode:       line.ItemCode,
			ItemName:       line.ItemName,
			Quantity:       line.Quantity,
			Rate:           line.Rate,
			ManufacturerID: line.ManufacturerID,
		}
	}
	return bill
}

func decimalFromInt(v int) decimal.Decimal {
	return decimal.NewFromInt(int64(v))
}
