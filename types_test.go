package sb1ynab

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func TestMilliunitsFromAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount float32
		want   Milliunits
	}{
		{name: "negative with øre", amount: -127.50, want: -127500},
		{name: "one øre", amount: 0.01, want: 10},
		{name: "negative zero", amount: float32(math.Copysign(0, -1)), want: 0},
		{name: "fractional milliunits are truncated", amount: 1234.56, want: 1234560},
		{name: "salary", amount: 45000.50, want: 45000500},
		{name: "whole units", amount: 100, want: 100000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MilliunitsFromAmount(tt.amount); got != tt.want {
				t.Errorf("MilliunitsFromAmount(%v) = %v, want %v", tt.amount, got, tt.want)
			}
		})
	}
}

func TestAccountMapDecode(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    AccountMap
		wantErr bool
	}{
		{
			name:  "valid",
			value: `{"key-1": "ynab-1", "key-2": "ynab-2"}`,
			want:  AccountMap{"key-1": "ynab-1", "key-2": "ynab-2"},
		},
		{
			name:    "not JSON",
			value:   "key-1=ynab-1",
			wantErr: true,
		},
		{
			name:    "non-string value",
			value:   `{"key-1": 42}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AccountMap{}
			err := got.Decode(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decode() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccountMapKeys(t *testing.T) {
	accountMap := AccountMap{"key-1": "ynab-1", "key-2": "ynab-2"}
	got := accountMap.Keys()
	sort.Strings(got)
	want := []string{"key-1", "key-2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestLoadAccountMap(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "accounts.json")
	if err := os.WriteFile(path, []byte(`{"key-1": "ynab-1"}`), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := LoadAccountMap(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, AccountMap{"key-1": "ynab-1"}) {
		t.Errorf("got %v", got)
	}

	if _, err := LoadAccountMap(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
