package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-tally-backend/internal/cache"
	"github.com/tbourn/go-tally-backend/internal/tally/transport"
)

// fakeTransport scripts upstream responses and records every request body.
type fakeTransport struct {
	mu      sync.Mutex
	calls   []string
	respond func(xmlRequest string) (string, error)
}

func (f *fakeTransport) Send(ctx context.Context, xmlRequest string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, xmlRequest)
	f.mu.Unlock()
	return f.respond(xmlRequest)
}

func (f *fakeTransport) countMatching(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.Contains(c, substr) {
			n++
		}
	}
	return n
}

// fakeCompany yields a fixed active company.
type fakeCompany struct {
	name string
	err  error
}

func (f fakeCompany) ActiveCompany(ctx context.Context) (string, error) {
	return f.name, f.err
}

const twoVoucherXML = `<ENVELOPE>
 <VOUCHER>
  <DATE>20240415</DATE>
  <VOUCHERNUMBER>INV-001</VOUCHERNUMBER>
  <PARTYLEDGERNAME>Sharma Traders</PARTYLEDGERNAME>
  <AMOUNT>-1500.00</AMOUNT>
  <GUID>guid-aaa</GUID>
 </VOUCHER>
 <VOUCHER>
  <DATE>20240416</DATE>
  <VOUCHERNUMBER>INV-002</VOUCHERNUMBER>
  <PARTYLEDGERNAME>Singh Traders</PARTYLEDGERNAME>
  <AMOUNT>2300.50</AMOUNT>
  <GUID>guid-bbb</GUID>
 </VOUCHER>
</ENVELOPE>`

const countTwoXML = `<ENVELOPE><VOUCHER/><VOUCHER/></ENVELOPE>`

func newSalesService(ft *fakeTransport) *SalesService {
	store := cache.NewStore(time.Minute, time.Minute)
	return NewSalesService(ft, store, cache.NewRegistry(), fakeCompany{name: "ACME (2024-25)"}, zerolog.Nop())
}

func basePage() PageParams {
	return PageParams{FromDate: "20240401", ToDate: "20240630", Page: 1, PageSize: 5}
}

func TestGetPage_EndToEnd(t *testing.T) {
	ft := &fakeTransport{respond: func(xmlRequest string) (string, error) {
		if strings.Contains(xmlRequest, "<ID>SalesVouchersCount</ID>") {
			return countTwoXML, nil
		}
		if strings.Contains(xmlRequest, "<SKIP>") {
			// prefetched later pages are empty
			return "<ENVELOPE/>", nil
		}
		return twoVoucherXML, nil
	}}
	s := newSalesService(ft)

	page, err := s.GetPage(context.Background(), basePage(), false)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if len(page.Data) != 2 {
		t.Fatalf("data=%d", len(page.Data))
	}
	if page.Data[0].Amount != 1500.00 || page.Data[1].Amount != 2300.50 {
		t.Fatalf("amounts: %v / %v", page.Data[0].Amount, page.Data[1].Amount)
	}
	if page.Data[0].Date != "15/04/2024" {
		t.Fatalf("date: %q", page.Data[0].Date)
	}
	if page.HasMore {
		t.Fatalf("2 of 5 requested: HasMore must be false")
	}
	if page.TotalCount != 2 {
		t.Fatalf("TotalCount=%d, want 2 from the count query", page.TotalCount)
	}
}

func TestGetPage_CacheHitSkipsUpstream(t *testing.T) {
	ft := &fakeTransport{respond: func(xmlRequest string) (string, error) {
		if strings.Contains(xmlRequest, "<ID>SalesVouchersCount</ID>") {
			return countTwoXML, nil
		}
		if strings.Contains(xmlRequest, "<SKIP>") {
			return "<ENVELOPE/>", nil
		}
		return twoVoucherXML, nil
	}}
	s := newSalesService(ft)
	ctx := context.Background()

	if _, err := s.GetPage(ctx, basePage(), false); err != nil {
		t.Fatalf("first GetPage: %v", err)
	}
	if _, err := s.GetPage(ctx, basePage(), false); err != nil {
		t.Fatalf("second GetPage: %v", err)
	}

	// Page 1 has no SKIP window; its listing must have gone upstream once.
	listCalls := ft.countMatching(`<ID>SalesVouchers</ID>`) - ft.countMatching("<SKIP>")
	if listCalls != 1 {
		t.Fatalf("page-1 listing fetched %d times, want 1", listCalls)
	}
}

func TestGetPage_FullPageEstimates(t *testing.T) {
	// Page 2 returns a full page and no cached count: the total is the
	// positional lower bound page*pageSize.
	ft := &fakeTransport{respond: func(xmlRequest string) (string, error) {
		if strings.Contains(xmlRequest, "<ID>SalesVouchersCount</ID>") {
			return "<ENVELOPE/>", nil
		}
		if strings.Contains(xmlRequest, "<SKIP>2</SKIP>") {
			return twoVoucherXML, nil
		}
		return "<ENVELOPE/>", nil
	}}
	s := newSalesService(ft)

	p := basePage()
	p.Page = 2
	p.PageSize = 2
	page, err := s.GetPage(context.Background(), p, false)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if !page.HasMore {
		t.Fatalf("full page must report HasMore")
	}
	if page.TotalCount != 4 {
		t.Fatalf("TotalCount=%d, want positional estimate 4", page.TotalCount)
	}
}

func TestGetPage_StaleFallbackAfterFailure(t *testing.T) {
	healthy := true
	var mu sync.Mutex
	ft := &fakeTransport{}
	ft.respond = func(xmlRequest string) (string, error) {
		mu.Lock()
		ok := healthy
		mu.Unlock()
		if !ok {
			return "", &transport.NetworkError{URL: "http://localhost:9000", Err: errors.New("connection refused")}
		}
		if strings.Contains(xmlRequest, "<ID>SalesVouchersCount</ID>") {
			return countTwoXML, nil
		}
		if strings.Contains(xmlRequest, "<SKIP>") {
			return "<ENVELOPE/>", nil
		}
		return twoVoucherXML, nil
	}
	s := newSalesService(ft)
	ctx := context.Background()

	if _, err := s.GetPage(ctx, basePage(), false); err != nil {
		t.Fatalf("warmup GetPage: %v", err)
	}

	mu.Lock()
	healthy = false
	mu.Unlock()

	// Force a refresh: the fetch fails and the retained entry serves,
	// flagged stale with the failure reason.
	page, err := s.GetPage(ctx, basePage(), true)
	if err != nil {
		t.Fatalf("expected degraded success, got %v", err)
	}
	if !page.Stale {
		t.Fatalf("page not marked stale")
	}
	if !strings.Contains(page.StaleReason, "cannot reach Tally server") {
		t.Fatalf("stale reason: %q", page.StaleReason)
	}
	if len(page.Data) != 2 {
		t.Fatalf("stale payload lost data: %d", len(page.Data))
	}
}

func TestGetPage_FailureWithoutCachePropagates(t *testing.T) {
	ft := &fakeTransport{respond: func(string) (string, error) {
		return "", &transport.TimeoutError{URL: "http://localhost:9000", After: time.Second}
	}}
	s := newSalesService(ft)

	_, err := s.GetPage(context.Background(), basePage(), false)
	var te *transport.TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TimeoutError, got %v", err)
	}
}

func TestGetPage_ValidationAndCompanyErrors(t *testing.T) {
	ft := &fakeTransport{respond: func(string) (string, error) { return "<ENVELOPE/>", nil }}
	s := newSalesService(ft)

	p := basePage()
	p.FromDate = "01-04-2024"
	if _, err := s.GetPage(context.Background(), p, false); err == nil {
		t.Fatalf("malformed date accepted")
	}

	s.Company = fakeCompany{err: ErrNoActiveCompany}
	if _, err := s.GetPage(context.Background(), basePage(), false); !errors.Is(err, ErrNoActiveCompany) {
		t.Fatalf("expected ErrNoActiveCompany, got %v", err)
	}
}

func TestGetDetails_NotFound(t *testing.T) {
	ft := &fakeTransport{respond: func(string) (string, error) { return "<ENVELOPE/>", nil }}
	s := newSalesService(ft)

	_, err := s.GetDetails(context.Background(), "no-such-guid")
	if !errors.Is(err, ErrVoucherNotFound) {
		t.Fatalf("expected ErrVoucherNotFound, got %v", err)
	}
}

func TestGetStatistics_Aggregation(t *testing.T) {
	statsXML := `<ENVELOPE>
	 <VOUCHER><PARTYLEDGERNAME>Sharma Traders</PARTYLEDGERNAME><AMOUNT>-1500.00</AMOUNT></VOUCHER>
	 <VOUCHER><PARTYLEDGERNAME>Singh Traders</PARTYLEDGERNAME><AMOUNT>2300.50</AMOUNT></VOUCHER>
	 <VOUCHER><PARTYLEDGERNAME>Sharma Traders</PARTYLEDGERNAME><AMOUNT>-200.00</AMOUNT></VOUCHER>
	</ENVELOPE>`
	ft := &fakeTransport{respond: func(string) (string, error) { return statsXML, nil }}
	s := newSalesService(ft)

	stats, err := s.GetStatistics(context.Background(), "20240401", "20240630")
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if stats.TotalSales != 4000.50 {
		t.Fatalf("TotalSales=%v", stats.TotalSales)
	}
	if stats.TotalVouchers != 3 {
		t.Fatalf("TotalVouchers=%d", stats.TotalVouchers)
	}
	if stats.AverageOrderValue != 4000.50/3 {
		t.Fatalf("AverageOrderValue=%v", stats.AverageOrderValue)
	}
	if len(stats.TopCustomers) != 2 {
		t.Fatalf("TopCustomers=%d", len(stats.TopCustomers))
	}
	// Singh leads: 2300.50 vs Sharma's 1700.00
	if stats.TopCustomers[0].Name != "Singh Traders" || stats.TopCustomers[1].VoucherCount != 2 {
		t.Fatalf("ranking: %+v", stats.TopCustomers)
	}
	if stats.TotalSalesDisplay == "" {
		t.Fatalf("display total missing")
	}
}

func TestGetTopCustomers_Limit(t *testing.T) {
	statsXML := `<ENVELOPE>
	 <VOUCHER><PARTYLEDGERNAME>A</PARTYLEDGERNAME><AMOUNT>300</AMOUNT></VOUCHER>
	 <VOUCHER><PARTYLEDGERNAME>B</PARTYLEDGERNAME><AMOUNT>200</AMOUNT></VOUCHER>
	 <VOUCHER><PARTYLEDGERNAME>C</PARTYLEDGERNAME><AMOUNT>100</AMOUNT></VOUCHER>
	</ENVELOPE>`
	ft := &fakeTransport{respond: func(string) (string, error) { return statsXML, nil }}
	s := newSalesService(ft)

	top, err := s.GetTopCustomers(context.Background(), "20240401", "20240630", 2)
	if err != nil {
		t.Fatalf("GetTopCustomers: %v", err)
	}
	if len(top) != 2 || top[0].Name != "A" || top[1].Name != "B" {
		t.Fatalf("top=%+v", top)
	}
}

func TestInvalidate_DropsPageAndStats(t *testing.T) {
	ft := &fakeTransport{respond: func(xmlRequest string) (string, error) {
		if strings.Contains(xmlRequest, "<ID>SalesVouchersCount</ID>") {
			return countTwoXML, nil
		}
		if strings.Contains(xmlRequest, "<SKIP>") {
			return "<ENVELOPE/>", nil
		}
		return twoVoucherXML, nil
	}}
	s := newSalesService(ft)
	ctx := context.Background()

	if _, err := s.GetPage(ctx, basePage(), false); err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if err := s.Invalidate(ctx, basePage()); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	// The next read goes upstream again.
	before := ft.countMatching(`<ID>SalesVouchers</ID>`) - ft.countMatching("<SKIP>")
	if _, err := s.GetPage(ctx, basePage(), false); err != nil {
		t.Fatalf("GetPage after invalidate: %v", err)
	}
	after := ft.countMatching(`<ID>SalesVouchers</ID>`) - ft.countMatching("<SKIP>")
	if after != before+1 {
		t.Fatalf("listing calls before=%d after=%d", before, after)
	}
}
