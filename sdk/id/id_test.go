// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package id

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	type args struct {
		prefix string
	}
	tests := []struct {
		name    string
		args    args
		wantErr bool
		wantLen int
	}{
		{
			name: "valid",
			args: args{
				prefix: "id",
			},
			wantErr: false,
			wantLen: DefaultLen*2 + len("id_"),
		},
		{
			name: "no-prefix",
			args: args{
				prefix: "",
			},
			wantErr: false,
			wantLen: DefaultLen * 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.args.prefix)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.args.prefix != "" && !strings.HasPrefix(got, tt.args.prefix+"_") {
				t.Errorf("New() = %v, wanted it to start with %v", got, tt.args.prefix)
			}
			if len(got) != tt.wantLen {
				t.Errorf("New() = %v, with len of %d and wanted len of %v", got, len(got), tt.wantLen)
			}
		})
	}
}

func TestNewWithLen(t *testing.T) {
	if _, err := NewWithLen("", 0); err == nil {
		t.Errorf("NewWithLen() with zero length should fail")
	}
	got, err := NewWithLen("", 16)
	if err != nil {
		t.Fatalf("NewWithLen() error = %v", err)
	}
	if len(got) != 32 {
		t.Errorf("NewWithLen() = %v, with len of %d and wanted len of 32", got, len(got))
	}
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		got, err := New("")
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if _, ok := seen[got]; ok {
			t.Fatalf("New() returned duplicate id %s", got)
		}
		seen[got] = struct{}{}
	}
}
