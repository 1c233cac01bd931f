package cache

import (
	"testing"
	"time"

	"github.com/tbourn/go-tally-backend/internal/tally/request"
)

func fp(kind request.Kind, page int) Fingerprint {
	return Fingerprint{
		Kind:     kind,
		FromDate: "20240401",
		ToDate:   "20240630",
		Company:  "ACME",
		Page:     page,
		PageSize: 100,
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	s := NewStore(time.Minute, time.Minute)
	key := fp(request.KindSalesVouchers, 1)

	if _, ok := s.Get(key); ok {
		t.Fatalf("unexpected hit on empty store")
	}
	s.Set(key, "payload", 0) // zero TTL falls back to the default
	v, ok := s.Get(key)
	if !ok || v.(string) != "payload" {
		t.Fatalf("Get=%v %v", v, ok)
	}
	if !s.Has(key) {
		t.Fatalf("Has=false after Set")
	}

	s.Delete(key)
	if _, ok := s.Get(key); ok {
		t.Fatalf("hit after Delete")
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	s := NewStore(time.Minute, time.Minute)
	key := fp(request.KindSalesVouchers, 1)

	s.Set(key, 42, 30*time.Millisecond)
	if _, ok := s.Get(key); !ok {
		t.Fatalf("entry should be live immediately after Set")
	}
	time.Sleep(60 * time.Millisecond)
	if _, ok := s.Get(key); ok {
		t.Fatalf("entry should have expired")
	}
}

func TestStore_Flush(t *testing.T) {
	s := NewStore(time.Minute, time.Minute)
	a := fp(request.KindSalesVouchers, 1)
	b := fp(request.KindStockItems, 0)
	s.Set(a, 1, 0)
	s.Set(b, 2, 0)

	s.Flush()
	if s.Has(a) || s.Has(b) {
		t.Fatalf("entries survived Flush")
	}
}
