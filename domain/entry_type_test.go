package domain

import "testing"

func TestCoercerFor(t *testing.T) {
	tests := []struct {
		name      string
		entryType EntryType
		key       string
		raw       string
		wantKey   string
		wantValue any
		wantErr   bool
	}{
		{
			name:      "date gets date suffix and epoch value",
			entryType: EntryTypeDate,
			key:       "entry_Q1_iter0",
			raw:       "1700000000",
			wantKey:   "entry_Q1_iter0_date",
			wantValue: int64(1700000000),
		},
		{
			name:      "unparseable date errors",
			entryType: EntryTypeDate,
			key:       "entry_Q1_iter0",
			raw:       "tomorrow",
			wantErr:   true,
		},
		{
			name:      "number gets int suffix",
			entryType: EntryTypeNumbering,
			key:       "entry_N_iter0",
			raw:       "42",
			wantKey:   "entry_N_iter0_int",
			wantValue: int64(42),
		},
		{
			name:      "unparseable number errors",
			entryType: EntryTypeNumbering,
			key:       "entry_N_iter0",
			raw:       "forty-two",
			wantErr:   true,
		},
		{
			name:      "checkbox keeps the unsuffixed key",
			entryType: EntryTypeCheckBox,
			key:       "entry_CB_iter0",
			raw:       "red",
			wantKey:   "entry_CB_iter0",
			wantValue: "red",
		},
		{
			name:      "free text stored raw",
			entryType: EntryTypeText,
			key:       "entry_T_iter0",
			raw:       "hello",
			wantKey:   "entry_T_iter0",
			wantValue: "hello",
		},
		{
			name:      "unknown type falls back to raw",
			entryType: EntryType("attachment"),
			key:       "entry_A_iter0",
			raw:       "file.pdf",
			wantKey:   "entry_A_iter0",
			wantValue: "file.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotKey, gotValue, err := CoercerFor(tt.entryType)(tt.key, tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Coerce() expected error, got %v / %v", gotKey, gotValue)
				}
				return
			}
			if err != nil {
				t.Fatalf("Coerce() error = %v", err)
			}
			if gotKey != tt.wantKey {
				t.Errorf("key = %q, want %q", gotKey, tt.wantKey)
			}
			if gotValue != tt.wantValue {
				t.Errorf("value = %v (%T), want %v (%T)", gotValue, gotValue, tt.wantValue, tt.wantValue)
			}
		})
	}
}

func TestIsListMerging(t *testing.T) {
	if !IsListMerging(EntryTypeCheckBox) {
		t.Errorf("checkbox must be list-merging")
	}
	for _, et := range []EntryType{EntryTypeText, EntryTypeDate, EntryTypeNumbering, EntryTypeGeolocation} {
		if IsListMerging(et) {
			t.Errorf("%s must not be list-merging", et)
		}
	}
}
