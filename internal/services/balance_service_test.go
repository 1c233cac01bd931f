package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-tally-backend/internal/cache"
	"github.com/tbourn/go-tally-backend/internal/tally/request"
	"github.com/tbourn/go-tally-backend/internal/tally/transport"
)

const balanceXML = `<ENVELOPE>
 <GROUP><NAME>Fixed Assets</NAME><CLOSINGBALANCE>-250000.00</CLOSINGBALANCE><ISDEEMEDPOSITIVE>Yes</ISDEEMEDPOSITIVE></GROUP>
 <GROUP><NAME>Loans</NAME><CLOSINGBALANCE>120000.00</CLOSINGBALANCE><ISDEEMEDPOSITIVE>No</ISDEEMEDPOSITIVE></GROUP>
</ENVELOPE>`

func newBalanceService(ft *fakeTransport) *BalanceSheetService {
	store := cache.NewStore(time.Minute, time.Minute)
	return NewBalanceSheetService(ft, store, cache.NewRegistry(), fakeCompany{name: "ACME (2024-25)"}, zerolog.Nop())
}

func TestBalanceSheet_Get(t *testing.T) {
	ft := &fakeTransport{respond: func(string) (string, error) { return balanceXML, nil }}
	s := newBalanceService(ft)
	ctx := context.Background()

	bs, err := s.Get(ctx, "20240401", "20250331", false)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(bs.Assets) != 1 || len(bs.Liabilities) != 1 {
		t.Fatalf("split: %+v", bs)
	}
	if bs.TotalAssets != 250000 || bs.TotalLiabilities != 120000 || bs.NetWorth != 130000 {
		t.Fatalf("totals: %v / %v / %v", bs.TotalAssets, bs.TotalLiabilities, bs.NetWorth)
	}

	if _, err := s.Get(ctx, "20240401", "20250331", false); err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if len(ft.calls) != 1 {
		t.Fatalf("upstream called %d times, want 1", len(ft.calls))
	}
}

func TestBalanceSheet_ValidatesRange(t *testing.T) {
	ft := &fakeTransport{respond: func(string) (string, error) { return balanceXML, nil }}
	s := newBalanceService(ft)

	var ve *request.ValidationError
	if _, err := s.Get(context.Background(), "01-04-2024", "20250331", false); !errors.As(err, &ve) {
		t.Fatalf("malformed range accepted: %v", err)
	}
	if len(ft.calls) != 0 {
		t.Fatalf("upstream reached with a bad range")
	}
}

func TestBalanceSheet_StaleFallback(t *testing.T) {
	healthy := true
	ft := &fakeTransport{}
	ft.respond = func(string) (string, error) {
		if !healthy {
			return "", &transport.NetworkError{URL: "http://localhost:9000", Err: errors.New("connection refused")}
		}
		return balanceXML, nil
	}
	s := newBalanceService(ft)
	ctx := context.Background()

	if _, err := s.Get(ctx, "20240401", "20250331", false); err != nil {
		t.Fatalf("warmup: %v", err)
	}
	healthy = false

	bs, err := s.Get(ctx, "20240401", "20250331", true)
	if err != nil {
		t.Fatalf("expected degraded success, got %v", err)
	}
	if bs.NetWorth != 130000 {
		t.Fatalf("stale payload lost data: %+v", bs)
	}
}

func TestBalanceSheet_Invalidate(t *testing.T) {
	ft := &fakeTransport{respond: func(string) (string, error) { return balanceXML, nil }}
	s := newBalanceService(ft)
	ctx := context.Background()

	if _, err := s.Get(ctx, "20240401", "20250331", false); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := s.Invalidate(ctx, "20240401", "20250331"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := s.Get(ctx, "20240401", "20250331", false); err != nil {
		t.Fatalf("Get after invalidate: %v", err)
	}
	if len(ft.calls) != 2 {
		t.Fatalf("invalidate did not evict: %d calls", len(ft.calls))
	}
}
