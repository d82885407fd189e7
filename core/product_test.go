package core

import (
	"encoding/json"
	"testing"
)

func TestProductUnmarshalCanonicalID(t *testing.T) {
	var p Product
	if err := json.Unmarshal([]byte(`{"id":"p1","name":"Silk Rose","regularPrice":10}`), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "p1" {
		t.Errorf("expected id p1, got %q", p.ID)
	}
}

func TestProductUnmarshalLegacyID(t *testing.T) {
	var p Product
	if err := json.Unmarshal([]byte(`{"_id":"legacy-9","name":"Silk Tulip"}`), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "legacy-9" {
		t.Errorf("legacy identifier not normalized, got %q", p.ID)
	}
}

func TestProductUnmarshalCanonicalWinsOverLegacy(t *testing.T) {
	var p Product
	if err := json.Unmarshal([]byte(`{"id":"canonical","_id":"legacy"}`), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "canonical" {
		t.Errorf("canonical identifier overridden, got %q", p.ID)
	}
}

func TestEffectivePrice(t *testing.T) {
	full := Product{RegularPrice: 10}
	if got := full.EffectivePrice(); got != 10 {
		t.Errorf("expected regular price, got %v", got)
	}

	discounted := Product{RegularPrice: 10, DiscountedPrice: 7}
	if got := discounted.EffectivePrice(); got != 7 {
		t.Errorf("expected discounted price, got %v", got)
	}
}
